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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmanet/manet-ns/dispatcher"
	"github.com/openmanet/manet-ns/event"
	"github.com/openmanet/manet-ns/routing"
	"github.com/openmanet/manet-ns/topology"
	. "github.com/openmanet/manet-ns/types"
)

type received struct {
	ts  uint64
	pkt event.Packet
}

type chainNet struct {
	d       *dispatcher.Dispatcher
	topo    *topology.Topology
	net     *Network
	drops   []*event.PacketDropped
	arrived []received
}

func newChainNet(t *testing.T, cfg *Config, unitRand func() float64) *chainNet {
	cn := &chainNet{
		d:    dispatcher.NewDispatcher(nil, nil),
		topo: topology.New(topology.DefaultPrefix),
	}
	for i := 0; i < 4; i++ {
		_, err := cn.topo.AddNode()
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := cn.topo.AddLink(i, i+1, 1000000, 10*Millisecond)
		require.NoError(t, err)
	}
	router := routing.NewShortestPath(cn.topo)
	for _, id := range cn.topo.Nodes() {
		_, err := router.Install(id)
		require.NoError(t, err)
	}
	bus := event.NewBus()
	bus.OnPacketDropped(func(e *event.PacketDropped) {
		cn.drops = append(cn.drops, e)
	})
	cn.net = New(cfg, cn.d, cn.topo, router, bus, unitRand)
	require.NoError(t, cn.net.Listen(3, 9, ReceiverFunc(func(now uint64, pkt *event.Packet) {
		cn.arrived = append(cn.arrived, received{now, *pkt})
	})))
	return cn
}

func (cn *chainNet) sendAt(ts uint64, pkt event.Packet) {
	cn.d.ScheduleAt(ts, func() {
		pkt.Seq = cn.net.NextPacketSeq()
		cn.net.Send(pkt)
	})
}

func TestNetwork_DeliveryDelay(t *testing.T) {
	cn := newChainNet(t, nil, nil)
	cn.sendAt(Second, event.Packet{Src: 0, Dst: 3, DstPort: 9, Size: 1024})
	cn.sendAt(2*Second, event.Packet{Src: 2, Dst: 3, DstPort: 9, Size: 1024})
	require.NoError(t, cn.d.RunUntil(context.Background(), 10*Second))

	require.Len(t, cn.arrived, 2)
	assert.Equal(t, Second+30*Millisecond, cn.arrived[0].ts)
	assert.Equal(t, Second, cn.arrived[0].pkt.SentAt)
	assert.Equal(t, uint64(1), cn.arrived[0].pkt.Seq)
	assert.Equal(t, 2*Second+10*Millisecond, cn.arrived[1].ts)
	assert.Equal(t, uint64(2), cn.net.Counters.PacketsDelivered)
	assert.Empty(t, cn.drops)
}

func TestNetwork_Serialization(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Serialization = true
	cn := newChainNet(t, cfg, nil)
	cn.sendAt(Second, event.Packet{Src: 0, Dst: 3, DstPort: 9, Size: 1024})
	require.NoError(t, cn.d.RunUntil(context.Background(), 10*Second))

	require.Len(t, cn.arrived, 1)
	assert.Equal(t, Second+30*Millisecond+3*8192, cn.arrived[0].ts)
}

func TestNetwork_Drops(t *testing.T) {
	cn := newChainNet(t, nil, nil)
	cn.sendAt(Second, event.Packet{Src: 0, Dst: 2, DstPort: 9})
	cn.sendAt(2*Second, event.Packet{Src: 0, Dst: 7, DstPort: 9})
	cn.d.ScheduleAt(3*Second, func() { cn.topo.SetFailed(1, true) })
	cn.sendAt(3*Second, event.Packet{Src: 0, Dst: 3, DstPort: 9})
	cn.sendAt(3*Second, event.Packet{Src: 1, Dst: 3, DstPort: 9})
	require.NoError(t, cn.d.RunUntil(context.Background(), 10*Second))

	assert.Empty(t, cn.arrived)
	require.Len(t, cn.drops, 4)
	assert.Equal(t, event.DropNoListener, cn.drops[0].Reason)
	assert.Equal(t, Second+20*Millisecond, cn.drops[0].Timestamp)
	assert.Equal(t, 2, cn.drops[0].NodeId)
	assert.Equal(t, event.DropUnreachable, cn.drops[1].Reason)
	assert.Equal(t, event.DropUnreachable, cn.drops[2].Reason)
	assert.Equal(t, 0, cn.drops[2].NodeId)
	assert.Equal(t, event.DropNodeFailed, cn.drops[3].Reason)
	assert.Equal(t, uint64(4), cn.net.Counters.PacketsDropped)
	assert.Equal(t, uint64(2), cn.net.Counters.Drops[event.DropUnreachable])
}

func TestNetwork_FailedOnArrival(t *testing.T) {
	cn := newChainNet(t, nil, nil)
	cn.sendAt(Second, event.Packet{Src: 0, Dst: 3, DstPort: 9})
	cn.d.ScheduleAt(Second+15*Millisecond, func() { cn.topo.SetFailed(3, true) })
	require.NoError(t, cn.d.RunUntil(context.Background(), 10*Second))

	assert.Empty(t, cn.arrived)
	require.Len(t, cn.drops, 1)
	assert.Equal(t, event.DropNodeFailed, cn.drops[0].Reason)
	assert.Equal(t, Second+30*Millisecond, cn.drops[0].Timestamp)
}

func TestNetwork_RelayFailsInFlight(t *testing.T) {
	cn := newChainNet(t, nil, nil)
	cn.sendAt(Second, event.Packet{Src: 0, Dst: 3, DstPort: 9})
	cn.d.ScheduleAt(Second+5*Millisecond, func() { cn.topo.SetFailed(1, true) })
	cn.d.ScheduleAt(2*Second, func() { cn.topo.SetFailed(1, false) })
	cn.d.ScheduleAt(2*Second+15*Millisecond, func() { cn.topo.SetFailed(2, true) })
	cn.sendAt(2*Second, event.Packet{Src: 0, Dst: 3, DstPort: 9})
	cn.d.ScheduleAt(3*Second, func() { cn.topo.SetFailed(2, false) })
	cn.sendAt(3*Second, event.Packet{Src: 0, Dst: 3, DstPort: 9})
	require.NoError(t, cn.d.RunUntil(context.Background(), 10*Second))

	require.Len(t, cn.drops, 2)
	assert.Equal(t, event.DropNodeFailed, cn.drops[0].Reason)
	assert.Equal(t, 1, cn.drops[0].NodeId)
	assert.Equal(t, Second+10*Millisecond, cn.drops[0].Timestamp)
	assert.Equal(t, event.DropNodeFailed, cn.drops[1].Reason)
	assert.Equal(t, 2, cn.drops[1].NodeId)
	assert.Equal(t, 2*Second+20*Millisecond, cn.drops[1].Timestamp)

	require.Len(t, cn.arrived, 1)
	assert.Equal(t, 3*Second+30*Millisecond, cn.arrived[0].ts)
	assert.Equal(t, uint64(3), cn.net.Counters.PacketsSent)
	assert.Equal(t, uint64(1), cn.net.Counters.PacketsDelivered)
}

func TestNetwork_HopLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHops = 2
	cn := newChainNet(t, cfg, nil)
	cn.sendAt(Second, event.Packet{Src: 0, Dst: 3, DstPort: 9})
	cn.sendAt(Second, event.Packet{Src: 1, Dst: 3, DstPort: 9})
	require.NoError(t, cn.d.RunUntil(context.Background(), 10*Second))

	require.Len(t, cn.drops, 1)
	assert.Equal(t, event.DropHopLimit, cn.drops[0].Reason)
	assert.Equal(t, 2, cn.drops[0].NodeId)
	assert.Len(t, cn.arrived, 1)
}

func TestNetwork_RandomLoss(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LossRatio = 0.5
	draws := []float64{0.9, 0.9, 0.1}
	cn := newChainNet(t, cfg, func() float64 {
		v := draws[0]
		draws = draws[1:]
		return v
	})
	cn.sendAt(Second, event.Packet{Src: 0, Dst: 3, DstPort: 9})
	require.NoError(t, cn.d.RunUntil(context.Background(), 10*Second))

	require.Len(t, cn.drops, 1)
	assert.Equal(t, event.DropRandomLoss, cn.drops[0].Reason)
	assert.Equal(t, 2, cn.drops[0].NodeId)
	assert.Empty(t, draws)
}

func TestNetwork_Listen(t *testing.T) {
	cn := newChainNet(t, nil, nil)
	r := ReceiverFunc(func(uint64, *event.Packet) {})
	assert.Error(t, cn.net.Listen(3, 9, r))
	assert.Error(t, cn.net.Listen(11, 9, r))
	assert.NoError(t, cn.net.Listen(3, 10, r))
}

func TestNetwork_EphemeralPort(t *testing.T) {
	cn := newChainNet(t, nil, nil)
	assert.Equal(t, FirstEphemeralPort, cn.net.EphemeralPort(0))
	assert.Equal(t, FirstEphemeralPort+1, cn.net.EphemeralPort(0))
	require.NoError(t, cn.net.Listen(1, FirstEphemeralPort, ReceiverFunc(func(uint64, *event.Packet) {})))
	assert.Equal(t, FirstEphemeralPort+1, cn.net.EphemeralPort(1))
}
