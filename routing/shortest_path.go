// Copyright (c) 2020-2023, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package routing

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/openmanet/manet-ns/logger"
	. "github.com/openmanet/manet-ns/types"
)

const NameShortestPath = "shortest-path"

// ShortestPath routes along minimum-delay paths of the current neighbor graph. Each hop weighs its
// delay plus one microsecond, so zero-delay hops still count. Among equal-cost next hops the lowest
// node id wins.
type ShortestPath struct {
	g         Graph
	installed map[NodeId]bool
	order     []NodeId

	version   uint64
	built     bool
	connGraph *simple.WeightedUndirectedGraph
	// cachedSP holds shortest-path trees by root (the destination).
	cachedSP map[NodeId]path.Shortest
	// nextHops caches resolved next hops by (src, dst).
	nextHops map[[2]NodeId]NodeId

	// Rebuilds counts graph rebuilds after topology changes.
	Rebuilds uint64
}

func NewShortestPath(g Graph) *ShortestPath {
	return &ShortestPath{
		g:         g,
		installed: map[NodeId]bool{},
	}
}

func (a *ShortestPath) Name() string {
	return NameShortestPath
}

func (a *ShortestPath) Install(node NodeId) (Handle, error) {
	if a.installed[node] {
		return nil, errors.Errorf("%s: node %d already installed", NameShortestPath, node)
	}
	a.installed[node] = true
	a.order = append(a.order, node)
	a.built = false
	return node, nil
}

func hopWeight(delay uint64) float64 {
	return float64(delay) + 1
}

// buildConnGraph builds the weighted neighbor graph of the installed nodes.
func (a *ShortestPath) buildConnGraph() {
	a.connGraph = simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for _, id := range a.order {
		a.connGraph.AddNode(simple.Node(id))
	}
	for _, id := range a.order {
		neighbors, err := a.g.Neighbors(id)
		logger.PanicIfError(err)
		for _, nbr := range neighbors {
			if nbr <= id || !a.installed[nbr] {
				continue
			}
			hop, ok := a.g.Hop(id, nbr)
			if !ok {
				continue
			}
			a.connGraph.SetWeightedEdge(simple.WeightedEdge{
				F: simple.Node(id),
				T: simple.Node(nbr),
				W: hopWeight(hop.Delay),
			})
		}
	}
	a.cachedSP = map[NodeId]path.Shortest{}
	a.nextHops = map[[2]NodeId]NodeId{}
	a.Rebuilds++
}

func (a *ShortestPath) refresh() {
	version := a.g.Version()
	if a.built && version == a.version {
		return
	}
	a.buildConnGraph()
	a.version = version
	a.built = true
}

// getSPTree returns the shortest-path tree rooted in root, computing it on first use.
func (a *ShortestPath) getSPTree(root NodeId) path.Shortest {
	spTree, present := a.cachedSP[root]
	if !present {
		spTree = path.DijkstraFrom(simple.Node(root), a.connGraph)
		a.cachedSP[root] = spTree
	}
	return spTree
}

func (a *ShortestPath) Resolve(src, dst NodeId) (NodeId, bool) {
	if !a.installed[src] || !a.installed[dst] {
		return InvalidNodeId, false
	}
	if src == dst {
		return dst, true
	}
	a.refresh()

	key := [2]NodeId{src, dst}
	if next, ok := a.nextHops[key]; ok {
		return next, next != InvalidNodeId
	}

	next := a.resolveNextHop(src, dst)
	a.nextHops[key] = next
	return next, next != InvalidNodeId
}

// resolveNextHop picks the lowest neighbor of src that lies on a shortest path to dst, using the
// tree rooted at dst (the graph is undirected).
func (a *ShortestPath) resolveNextHop(src, dst NodeId) NodeId {
	spTree := a.getSPTree(dst)
	total := spTree.WeightTo(int64(src))
	if math.IsInf(total, 1) {
		return InvalidNodeId
	}

	best := InvalidNodeId
	nodes := graph.NodesOf(a.connGraph.From(int64(src)))
	for _, n := range nodes {
		nbr := NodeId(n.ID())
		edge := a.connGraph.WeightedEdge(int64(src), n.ID())
		if edge.Weight()+spTree.WeightTo(n.ID()) != total {
			continue
		}
		if best == InvalidNodeId || nbr < best {
			best = nbr
		}
	}
	return best
}
