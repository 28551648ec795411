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
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/openmanet/manet-ns/topology"
	. "github.com/openmanet/manet-ns/types"
)

// Graph is the view of the network a routing adapter works on. *topology.Topology implements it.
type Graph interface {
	Nodes() []NodeId
	Neighbors(id NodeId) ([]NodeId, error)
	Hop(a, b NodeId) (topology.Hop, bool)
	// Version changes whenever Neighbors or Hop may answer differently.
	Version() uint64
}

// Handle is the per-node state of an adapter, stored with the node.
type Handle interface{}

// Adapter decides the next hop of packets. Unreachable destinations are a normal outcome, reported
// as ok == false.
type Adapter interface {
	Name() string
	// Install sets up the adapter on a node. It is called once per node, before the run.
	Install(node NodeId) (Handle, error)
	// Resolve returns the next hop from src towards dst.
	Resolve(src, dst NodeId) (next NodeId, ok bool)
}

// Factory creates an adapter working on g.
type Factory func(g Graph) Adapter

var (
	registryLock sync.Mutex
	registry     = map[string]Factory{}
)

// Register makes an adapter available by name. Registering a name twice replaces the factory.
func Register(name string, factory Factory) {
	registryLock.Lock()
	defer registryLock.Unlock()
	registry[name] = factory
}

// New creates the adapter registered under name.
func New(name string, g Graph) (Adapter, error) {
	registryLock.Lock()
	factory, ok := registry[name]
	registryLock.Unlock()
	if !ok {
		return nil, errors.Errorf("unknown routing adapter %q (available: %v)", name, Names())
	}
	return factory(g), nil
}

// Names lists the registered adapters, sorted.
func Names() []string {
	registryLock.Lock()
	defer registryLock.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(NameShortestPath, func(g Graph) Adapter {
		return NewShortestPath(g)
	})
	Register(NameDirect, func(g Graph) Adapter {
		return NewDirect(g)
	})
}
