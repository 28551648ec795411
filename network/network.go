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

package network

import (
	"github.com/pkg/errors"

	"github.com/openmanet/manet-ns/dispatcher"
	"github.com/openmanet/manet-ns/event"
	"github.com/openmanet/manet-ns/logger"
	"github.com/openmanet/manet-ns/routing"
	"github.com/openmanet/manet-ns/topology"
	. "github.com/openmanet/manet-ns/types"
)

// Receiver is an application bound to a port.
type Receiver interface {
	HandlePacket(now uint64, pkt *event.Packet)
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(now uint64, pkt *event.Packet)

func (f ReceiverFunc) HandlePacket(now uint64, pkt *event.Packet) {
	f(now, pkt)
}

type endpoint struct {
	node NodeId
	port uint16
}

type Counters struct {
	PacketsSent      uint64
	PacketsDelivered uint64
	PacketsDropped   uint64
	Drops            map[event.DropReason]uint64
}

// Network carries packets between nodes. The path is resolved through the routing adapter when the
// packet is sent; the packet then travels one hop per dispatcher event.
type Network struct {
	cfg       Config
	d         *dispatcher.Dispatcher
	topo      *topology.Topology
	router    routing.Adapter
	bus       *event.Bus
	unitRand  func() float64
	listeners map[endpoint]Receiver
	nextPorts map[NodeId]uint16
	lastSeq   uint64
	Counters  Counters
}

// FirstEphemeralPort is the first port handed out by EphemeralPort.
const FirstEphemeralPort uint16 = 49153

// New creates the network. unitRand draws the per-hop loss probability and may be nil if LossRatio is 0.
func New(cfg *Config, d *dispatcher.Dispatcher, topo *topology.Topology, router routing.Adapter, bus *event.Bus,
	unitRand func() float64) *Network {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	n := &Network{
		cfg:       *cfg,
		d:         d,
		topo:      topo,
		router:    router,
		bus:       bus,
		unitRand:  unitRand,
		listeners: map[endpoint]Receiver{},
		nextPorts: map[NodeId]uint16{},
		Counters: Counters{
			Drops: map[event.DropReason]uint64{},
		},
	}
	if n.cfg.MaxHops <= 0 {
		n.cfg.MaxHops = DefaultMaxHops
	}
	logger.AssertTrue(n.cfg.LossRatio == 0 || unitRand != nil, "loss ratio %v needs a random source", n.cfg.LossRatio)
	return n
}

// Listen binds a receiver to a node port.
func (n *Network) Listen(node NodeId, port uint16, r Receiver) error {
	if _, err := n.topo.Node(node); err != nil {
		return err
	}
	ep := endpoint{node, port}
	if _, ok := n.listeners[ep]; ok {
		return errors.Errorf("node %d port %d already in use", node, port)
	}
	n.listeners[ep] = r
	return nil
}

// EphemeralPort returns a free port of a node for a sending application.
func (n *Network) EphemeralPort(node NodeId) uint16 {
	port, ok := n.nextPorts[node]
	if !ok {
		port = FirstEphemeralPort
	}
	for {
		if _, used := n.listeners[endpoint{node, port}]; !used {
			break
		}
		port++
	}
	n.nextPorts[node] = port + 1
	return port
}

// NextPacketSeq returns a sequence number unique within the run.
func (n *Network) NextPacketSeq() uint64 {
	n.lastSeq++
	return n.lastSeq
}

// Send hands a packet to the network at the current time. It returns the delivery delay, or false
// if the packet is dropped before it leaves the source. A packet may still be lost later, when it
// reaches a relay that failed in the meantime.
func (n *Network) Send(pkt event.Packet) (uint64, bool) {
	now := n.d.Now()
	pkt.SentAt = now
	n.Counters.PacketsSent++

	if _, err := n.topo.Node(pkt.Dst); err != nil {
		n.drop(now, pkt.Src, &pkt, event.DropUnreachable)
		return 0, false
	}
	if n.topo.IsFailed(pkt.Src) {
		n.drop(now, pkt.Src, &pkt, event.DropNodeFailed)
		return 0, false
	}

	var path []hopArrival
	var delay uint64
	for cur := pkt.Src; cur != pkt.Dst; {
		if len(path) >= n.cfg.MaxHops {
			n.drop(now, cur, &pkt, event.DropHopLimit)
			return 0, false
		}
		next, ok := n.router.Resolve(cur, pkt.Dst)
		if !ok {
			n.drop(now, cur, &pkt, event.DropUnreachable)
			return 0, false
		}
		hop, ok := n.topo.Hop(cur, next)
		if !ok {
			logger.Debugf("%s: %v: no hop %d->%d", FormatSeconds(now), &pkt, cur, next)
			n.drop(now, cur, &pkt, event.DropUnreachable)
			return 0, false
		}
		hopDelay := hop.Delay
		if n.cfg.Serialization {
			hopDelay = AddTime(hopDelay, TxDuration(pkt.Size, hop.Rate))
		}
		if n.cfg.LossRatio > 0 && n.unitRand() < n.cfg.LossRatio {
			n.drop(now, cur, &pkt, event.DropRandomLoss)
			return 0, false
		}
		path = append(path, hopArrival{node: next, delay: hopDelay})
		delay = AddTime(delay, hopDelay)
		cur = next
	}

	logger.Tracef("%s: %v: %d hops, arrives in %d us", FormatSeconds(now), &pkt, len(path), delay)
	n.forward(pkt, path)
	return delay, true
}

// hopArrival is the node a packet reaches after crossing one hop of its path.
type hopArrival struct {
	node  NodeId
	delay uint64
}

// forward moves the packet across the first hop of path. A relay that is failed when the packet
// arrives drops it.
func (n *Network) forward(pkt event.Packet, path []hopArrival) {
	if len(path) == 0 {
		n.deliver(pkt)
		return
	}
	n.d.Schedule(path[0].delay, func() {
		if len(path) > 1 && n.topo.IsFailed(path[0].node) {
			n.drop(n.d.Now(), path[0].node, &pkt, event.DropNodeFailed)
			return
		}
		n.forward(pkt, path[1:])
	})
}

func (n *Network) deliver(pkt event.Packet) {
	now := n.d.Now()
	if n.topo.IsFailed(pkt.Dst) {
		n.drop(now, pkt.Dst, &pkt, event.DropNodeFailed)
		return
	}
	r, ok := n.listeners[endpoint{pkt.Dst, pkt.DstPort}]
	if !ok {
		n.drop(now, pkt.Dst, &pkt, event.DropNoListener)
		return
	}
	n.Counters.PacketsDelivered++
	r.HandlePacket(now, &pkt)
}

func (n *Network) drop(now uint64, node NodeId, pkt *event.Packet, reason event.DropReason) {
	n.Counters.PacketsDropped++
	n.Counters.Drops[reason]++
	n.topo.Logger(node).Debugf("dropped %v: %v", pkt, reason)
	n.bus.EmitPacketDropped(&event.PacketDropped{
		Timestamp: now,
		NodeId:    node,
		Packet:    *pkt,
		Reason:    reason,
	})
}

// IsFailed reports whether a node is failed and can neither send nor receive.
func (n *Network) IsFailed(node NodeId) bool {
	return n.topo.IsFailed(node)
}

// NodeLogger returns the logger of a node.
func (n *Network) NodeLogger(node NodeId) *logger.NodeLogger {
	return n.topo.Logger(node)
}

// Now returns the current virtual time.
func (n *Network) Now() uint64 {
	return n.d.Now()
}

// Dispatcher returns the scheduler the network runs on.
func (n *Network) Dispatcher() *dispatcher.Dispatcher {
	return n.d
}

// Bus returns the event bus packets events are emitted on.
func (n *Network) Bus() *event.Bus {
	return n.bus
}
