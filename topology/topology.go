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

package topology

import (
	"net/netip"
	"sort"

	"github.com/pkg/errors"

	"github.com/openmanet/manet-ns/logger"
	"github.com/openmanet/manet-ns/radiomodel"
	. "github.com/openmanet/manet-ns/types"
)

// DefaultPrefix is the address block nodes are numbered from, host by host.
var DefaultPrefix = netip.MustParsePrefix("10.1.1.0/24")

// Node is an entry of the node table. Ids are dense and equal the index in the table.
type Node struct {
	Id       NodeId
	Addr     netip.Addr
	Links    []LinkId
	OnMedium bool
	Radio    *radiomodel.RadioNode
	Logger   *logger.NodeLogger

	// RoutingHandle is owned by the installed routing adapter.
	RoutingHandle interface{}
}

// Link is a bidirectional point-to-point link, immutable after creation.
type Link struct {
	Id    LinkId
	A, B  NodeId
	Rate  uint64 // bits per second
	Delay uint64 // us
}

// Other returns the far end of the link as seen from id.
func (l *Link) Other(id NodeId) NodeId {
	if l.A == id {
		return l.B
	}
	return l.A
}

// Medium is the single shared channel nodes can attach to.
type Medium struct {
	Rate  uint64 // bits per second
	Delay uint64 // us
	Model radiomodel.RadioModel
}

// Hop is the transmission parameters between two adjacent nodes.
type Hop struct {
	Link  LinkId // InvalidLinkId for hops over the shared medium
	Rate  uint64
	Delay uint64
}

// PositionSource supplies current node positions, e.g. interpolated by the mobility models.
type PositionSource interface {
	Position(id NodeId) (Position, bool)
	// Version changes whenever positions may have changed.
	Version() uint64
}

type Topology struct {
	nodes     []*Node
	links     []*Link
	addrs     map[netip.Addr]NodeId
	prefix    netip.Prefix
	nextAddr  netip.Addr
	medium    *Medium
	positions PositionSource
	version   uint64
}

func New(prefix netip.Prefix) *Topology {
	if !prefix.IsValid() {
		prefix = DefaultPrefix
	}
	prefix = prefix.Masked()
	return &Topology{
		addrs:    map[netip.Addr]NodeId{},
		prefix:   prefix,
		nextAddr: prefix.Addr().Next(),
	}
}

// AddNode appends a node and assigns it the next host address of the prefix.
func (t *Topology) AddNode() (NodeId, error) {
	addr := t.nextAddr
	if !t.isHostAddr(addr) {
		return InvalidNodeId, errors.Errorf("address pool %s exhausted", t.prefix)
	}
	if owner, ok := t.addrs[addr]; ok {
		return InvalidNodeId, errors.Wrapf(ErrDuplicateAddress, "%s already assigned to node %d", addr, owner)
	}
	t.nextAddr = addr.Next()

	id := len(t.nodes)
	t.nodes = append(t.nodes, &Node{
		Id:     id,
		Addr:   addr,
		Radio:  radiomodel.NewRadioNode(id, Position{}, 0),
		Logger: logger.NewNodeLogger(id),
	})
	t.addrs[addr] = id
	t.version++
	return id, nil
}

// AssignAddress replaces the address of a node.
func (t *Topology) AssignAddress(id NodeId, addr netip.Addr) error {
	node, err := t.Node(id)
	if err != nil {
		return err
	}
	if owner, ok := t.addrs[addr]; ok {
		if owner == id {
			return nil
		}
		return errors.Wrapf(ErrDuplicateAddress, "%s already assigned to node %d", addr, owner)
	}
	delete(t.addrs, node.Addr)
	node.Addr = addr
	t.addrs[addr] = id
	t.version++
	return nil
}

func (t *Topology) isHostAddr(addr netip.Addr) bool {
	if !addr.IsValid() || !t.prefix.Contains(addr) {
		return false
	}
	// the all-ones address of an IPv4 prefix is broadcast
	if addr.Is4() && t.prefix.Bits() < 31 && !t.prefix.Contains(addr.Next()) {
		return false
	}
	return true
}

// AddLink adds a point-to-point link between two existing nodes.
func (t *Topology) AddLink(a, b NodeId, rate uint64, delay uint64) (LinkId, error) {
	if !t.hasNode(a) {
		return InvalidLinkId, errors.Wrapf(ErrUnknownNode, "link end %d", a)
	}
	if !t.hasNode(b) {
		return InvalidLinkId, errors.Wrapf(ErrUnknownNode, "link end %d", b)
	}
	if a == b {
		return InvalidLinkId, errors.Errorf("link from node %d to itself", a)
	}

	id := len(t.links)
	t.links = append(t.links, &Link{
		Id:    id,
		A:     a,
		B:     b,
		Rate:  rate,
		Delay: delay,
	})
	t.nodes[a].Links = append(t.nodes[a].Links, id)
	t.nodes[b].Links = append(t.nodes[b].Links, id)
	t.version++
	return id, nil
}

// SetMedium configures the shared channel.
func (t *Topology) SetMedium(rate uint64, delay uint64, model radiomodel.RadioModel) {
	t.medium = &Medium{
		Rate:  rate,
		Delay: delay,
		Model: model,
	}
	t.version++
}

func (t *Topology) Medium() *Medium {
	return t.medium
}

// AttachMedium puts a node on the shared channel; radioRange 0 uses the radio model default.
func (t *Topology) AttachMedium(id NodeId, radioRange float64) error {
	node, err := t.Node(id)
	if err != nil {
		return err
	}
	if t.medium == nil {
		return errors.Errorf("node %d: no shared medium configured", id)
	}
	node.OnMedium = true
	node.Radio.RadioRange = radioRange
	t.version++
	return nil
}

func (t *Topology) hasNode(id NodeId) bool {
	return id >= 0 && id < len(t.nodes)
}

// Logger returns the logger of a node. Unknown ids get a logger that follows the global level.
func (t *Topology) Logger(id NodeId) *logger.NodeLogger {
	if !t.hasNode(id) {
		return logger.NewNodeLogger(id)
	}
	return t.nodes[id].Logger
}

func (t *Topology) Node(id NodeId) (*Node, error) {
	if !t.hasNode(id) {
		return nil, errors.Wrapf(ErrUnknownNode, "node %d", id)
	}
	return t.nodes[id], nil
}

// Nodes returns all node ids in ascending order.
func (t *Topology) Nodes() []NodeId {
	ids := make([]NodeId, len(t.nodes))
	for i := range t.nodes {
		ids[i] = i
	}
	return ids
}

func (t *Topology) NumNodes() int {
	return len(t.nodes)
}

func (t *Topology) Link(id LinkId) (*Link, bool) {
	if id < 0 || id >= len(t.links) {
		return nil, false
	}
	return t.links[id], true
}

func (t *Topology) Links() []*Link {
	return t.links
}

func (t *Topology) NodeByAddress(addr netip.Addr) (NodeId, bool) {
	id, ok := t.addrs[addr]
	return id, ok
}

// SetPositionSource makes positions follow src instead of the stored values.
func (t *Topology) SetPositionSource(src PositionSource) {
	t.positions = src
	t.version++
}

// SetPosition stores the position of a node.
func (t *Topology) SetPosition(id NodeId, pos Position) error {
	node, err := t.Node(id)
	if err != nil {
		return err
	}
	node.Radio.SetNodePos(pos)
	t.version++
	return nil
}

// Position returns the current position of a node.
func (t *Topology) Position(id NodeId) Position {
	node := t.nodes[id]
	if t.positions != nil {
		if pos, ok := t.positions.Position(id); ok {
			node.Radio.SetNodePos(pos)
		}
	}
	return node.Radio.Position
}

// SetFailed marks a node as down or up. Failed nodes have no neighbors.
func (t *Topology) SetFailed(id NodeId, failed bool) {
	if !t.hasNode(id) {
		return
	}
	t.nodes[id].Radio.Failed = failed
	t.version++
}

func (t *Topology) IsFailed(id NodeId) bool {
	return t.hasNode(id) && t.nodes[id].Radio.Failed
}

// Version changes whenever the answers of Neighbors or Hop may have changed.
func (t *Topology) Version() uint64 {
	if t.positions != nil {
		return t.version + t.positions.Version()
	}
	return t.version
}

func (t *Topology) mediumReachable(a, b *Node) bool {
	if t.medium == nil || !a.OnMedium || !b.OnMedium {
		return false
	}
	t.Position(a.Id)
	t.Position(b.Id)
	return t.medium.Model.CheckRadioReachable(a.Radio, b.Radio)
}

// Neighbors returns the sorted set of nodes one hop away from id.
func (t *Topology) Neighbors(id NodeId) ([]NodeId, error) {
	node, err := t.Node(id)
	if err != nil {
		return nil, err
	}
	if node.Radio.Failed {
		return nil, nil
	}

	set := map[NodeId]struct{}{}
	for _, lid := range node.Links {
		other := t.links[lid].Other(id)
		if !t.nodes[other].Radio.Failed {
			set[other] = struct{}{}
		}
	}
	if node.OnMedium {
		for _, other := range t.nodes {
			if other.Id != id && t.mediumReachable(node, other) {
				set[other.Id] = struct{}{}
			}
		}
	}

	neighbors := make([]NodeId, 0, len(set))
	for nid := range set {
		neighbors = append(neighbors, nid)
	}
	sort.Ints(neighbors)
	return neighbors, nil
}

// Hop returns the direct hop from a to b. Point-to-point links take precedence over the medium.
func (t *Topology) Hop(a, b NodeId) (Hop, bool) {
	if !t.hasNode(a) || !t.hasNode(b) || a == b {
		return Hop{}, false
	}
	na, nb := t.nodes[a], t.nodes[b]
	if na.Radio.Failed || nb.Radio.Failed {
		return Hop{}, false
	}
	for _, lid := range na.Links {
		link := t.links[lid]
		if link.Other(a) == b {
			return Hop{Link: lid, Rate: link.Rate, Delay: link.Delay}, true
		}
	}
	if t.mediumReachable(na, nb) {
		return Hop{Link: InvalidLinkId, Rate: t.medium.Rate, Delay: t.medium.Delay}, true
	}
	return Hop{}, false
}
