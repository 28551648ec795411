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

package traffic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmanet/manet-ns/dispatcher"
	"github.com/openmanet/manet-ns/event"
	"github.com/openmanet/manet-ns/network"
	"github.com/openmanet/manet-ns/routing"
	"github.com/openmanet/manet-ns/topology"
	. "github.com/openmanet/manet-ns/types"
)

type trafficHarness struct {
	d    *dispatcher.Dispatcher
	topo *topology.Topology
	net  *network.Network
	tx   []*event.PacketSent
	rx   []*event.PacketReceived
	drop []*event.PacketDropped
}

func newTrafficHarness(t *testing.T, numNodes int, rate uint64, delay uint64) *trafficHarness {
	h := &trafficHarness{
		d: dispatcher.NewDispatcher(nil, nil),
	}
	topo := topology.New(topology.DefaultPrefix)
	h.topo = topo
	for i := 0; i < numNodes; i++ {
		_, err := topo.AddNode()
		require.NoError(t, err)
	}
	for i := 0; i+1 < numNodes; i++ {
		_, err := topo.AddLink(i, i+1, rate, delay)
		require.NoError(t, err)
	}
	router := routing.NewShortestPath(topo)
	for _, id := range topo.Nodes() {
		_, err := router.Install(id)
		require.NoError(t, err)
	}
	bus := event.NewBus()
	bus.OnPacketSent(func(e *event.PacketSent) { h.tx = append(h.tx, e) })
	bus.OnPacketReceived(func(e *event.PacketReceived) { h.rx = append(h.rx, e) })
	bus.OnPacketDropped(func(e *event.PacketDropped) { h.drop = append(h.drop, e) })
	h.net = network.New(nil, h.d, topo, router, bus, nil)
	return h
}

func (h *trafficHarness) run(t *testing.T, stop uint64) {
	require.NoError(t, h.d.RunUntil(context.Background(), stop))
}

func TestConstantRateOnOff_Chain(t *testing.T) {
	h := newTrafficHarness(t, 4, 1000000, 10*Millisecond)
	onoff := NewConstantRateOnOff(ConstantRateOnOffConfig{
		Node:       0,
		Remote:     3,
		RemotePort: 9,
		Rate:       500000,
		PacketSize: 1024,
		Start:      Second,
		Stop:       9 * Second,
	})
	sink := NewSink(SinkConfig{Node: 3, Port: 9, Stop: 10 * Second})
	require.NoError(t, onoff.Install(h.net))
	require.NoError(t, sink.Install(h.net))
	h.run(t, 10*Second)

	assert.Equal(t, uint64(16384), onoff.Interval())
	require.Len(t, h.tx, 488)
	require.Len(t, h.rx, 488)
	assert.Equal(t, Second+16384, h.tx[0].Timestamp)
	assert.Less(t, h.tx[487].Timestamp, 9*Second)
	for i := range h.tx {
		assert.Equal(t, h.tx[i].Timestamp+30*Millisecond, h.rx[i].Timestamp)
		assert.Equal(t, h.tx[i].Packet.Seq, h.rx[i].Packet.Seq)
		assert.Equal(t, 1024, h.rx[i].Packet.Size)
		if i > 0 {
			assert.Less(t, h.tx[i-1].Timestamp, h.tx[i].Timestamp)
		}
	}
	assert.Equal(t, uint64(488), onoff.Stats().PacketsSent)
	assert.Equal(t, uint64(488*1024), sink.Stats().BytesReceived)
}

func TestFixedCountClient_MaxPackets(t *testing.T) {
	h := newTrafficHarness(t, 2, 5000000, 2*Millisecond)
	client := NewFixedCountClient(FixedCountClientConfig{
		Node:       0,
		Remote:     1,
		RemotePort: 9,
		Interval:   Second,
		MaxPackets: 20,
		PacketSize: 1024,
		Start:      2 * Second,
	})
	sink := NewSink(SinkConfig{Node: 1, Port: 9, Start: Second, Stop: 30 * Second})
	require.NoError(t, client.Install(h.net))
	require.NoError(t, sink.Install(h.net))
	h.run(t, 30*Second)

	require.Len(t, h.tx, 20)
	require.Len(t, h.rx, 20)
	for i := range h.tx {
		assert.Equal(t, uint64(2+i)*Second, h.tx[i].Timestamp)
		assert.Equal(t, h.tx[i].Timestamp+2*Millisecond, h.rx[i].Timestamp)
	}
	assert.Equal(t, network.FirstEphemeralPort, h.tx[0].Packet.SrcPort)
}

func TestFixedCountClient_FailedNodeSendsNothing(t *testing.T) {
	h := newTrafficHarness(t, 2, 5000000, 2*Millisecond)
	client := NewFixedCountClient(FixedCountClientConfig{
		Node:       0,
		Remote:     1,
		RemotePort: 9,
		Interval:   Second,
		MaxPackets: 10,
		PacketSize: 1024,
		Start:      2 * Second,
	})
	sink := NewSink(SinkConfig{Node: 1, Port: 9, Stop: 30 * Second})
	require.NoError(t, client.Install(h.net))
	require.NoError(t, sink.Install(h.net))
	h.d.ScheduleAt(4*Second+500*Millisecond, func() { h.topo.SetFailed(0, true) })
	h.d.ScheduleAt(7*Second+500*Millisecond, func() { h.topo.SetFailed(0, false) })
	h.run(t, 30*Second)

	// slots at 5, 6 and 7 s are lost, the schedule keeps its 10 slots
	require.Len(t, h.tx, 7)
	assert.Equal(t, 4*Second, h.tx[2].Timestamp)
	assert.Equal(t, 8*Second, h.tx[3].Timestamp)
	assert.Equal(t, 11*Second, h.tx[6].Timestamp)
	assert.Len(t, h.rx, 7)
	require.Len(t, h.drop, 3)
	for _, d := range h.drop {
		assert.Equal(t, event.DropNodeFailed, d.Reason)
		assert.Equal(t, 0, d.NodeId)
	}
	assert.Equal(t, uint64(7), client.Stats().PacketsSent)
	assert.Equal(t, uint64(3), client.Stats().PacketsFailed)
	assert.Equal(t, uint64(10), h.net.Counters.PacketsSent)
}

func TestFixedCountClient_StopIsExclusive(t *testing.T) {
	h := newTrafficHarness(t, 2, 5000000, 2*Millisecond)
	client := NewFixedCountClient(FixedCountClientConfig{
		Node:       0,
		Remote:     1,
		RemotePort: 9,
		Interval:   Second,
		MaxPackets: 100,
		PacketSize: 1024,
		Start:      2 * Second,
		Stop:       10 * Second,
	})
	sink := NewSink(SinkConfig{Node: 1, Port: 9, Start: Second, Stop: 10 * Second})
	require.NoError(t, client.Install(h.net))
	require.NoError(t, sink.Install(h.net))
	h.run(t, 12*Second)

	// Tx at 2..9; the packet sent at 9s arrives at 9.002s, before the sink stops
	assert.Len(t, h.tx, 8)
	assert.Len(t, h.rx, 8)
	assert.Equal(t, 9*Second, h.tx[7].Timestamp)
	assert.Equal(t, 0, h.d.Pending())
}

func TestSink_IgnoresWhenStopped(t *testing.T) {
	h := newTrafficHarness(t, 2, 5000000, 2*Millisecond)
	client := NewFixedCountClient(FixedCountClientConfig{
		Node:       0,
		Remote:     1,
		RemotePort: 9,
		Interval:   Second,
		MaxPackets: 5,
		PacketSize: 100,
	})
	sink := NewSink(SinkConfig{Node: 1, Port: 9, Start: 2 * Second, Stop: 4 * Second})
	require.NoError(t, client.Install(h.net))
	require.NoError(t, sink.Install(h.net))
	h.run(t, 10*Second)

	assert.Len(t, h.tx, 5)
	assert.Len(t, h.rx, 2)
	assert.Equal(t, uint64(3), sink.Stats().PacketsIgnored)
}

func TestSink_Echo(t *testing.T) {
	h := newTrafficHarness(t, 3, 1000000, 5*Millisecond)
	client := NewFixedCountClient(FixedCountClientConfig{
		Node:        0,
		Remote:      2,
		RemotePort:  9,
		Interval:    Second,
		MaxPackets:  3,
		PacketSize:  512,
		Start:       Second,
		CountEchoes: true,
	})
	server := NewSink(SinkConfig{Node: 2, Port: 9, Echo: true})
	require.NoError(t, client.Install(h.net))
	require.NoError(t, server.Install(h.net))
	h.run(t, 10*Second)

	assert.Len(t, h.tx, 6)
	require.Len(t, h.rx, 6)
	assert.Equal(t, uint64(3), client.Stats().PacketsReceived)
	assert.Equal(t, uint64(3), server.Stats().PacketsSent)
	// request arrives at 1.010s, the echo returns at 1.020s
	assert.Equal(t, Second+10*Millisecond, h.rx[0].Timestamp)
	assert.Equal(t, 2, h.rx[0].NodeId)
	assert.Equal(t, Second+20*Millisecond, h.rx[1].Timestamp)
	assert.Equal(t, 0, h.rx[1].NodeId)
	assert.True(t, h.rx[1].Packet.IsEcho)
}

func TestConstantRateOnOff_OnOffPeriods(t *testing.T) {
	h := newTrafficHarness(t, 2, 1000000, Millisecond)
	onoff := NewConstantRateOnOff(ConstantRateOnOffConfig{
		Node:       0,
		Remote:     1,
		RemotePort: 9,
		Rate:       100000,
		PacketSize: 1250,
		Stop:       4 * Second,
		OnTime:     Second,
		OffTime:    Second,
	})
	require.NoError(t, onoff.Install(h.net))
	h.run(t, 5*Second)

	require.Len(t, h.tx, 18)
	assert.Equal(t, 100*Millisecond, h.tx[0].Timestamp)
	assert.Equal(t, 900*Millisecond, h.tx[8].Timestamp)
	assert.Equal(t, 2100*Millisecond, h.tx[9].Timestamp)
	// no sink bound: every packet is dropped on arrival
	assert.Len(t, h.drop, 18)
	assert.Equal(t, event.DropNoListener, h.drop[0].Reason)
}

func TestConstantRateOnOff_MaxBytes(t *testing.T) {
	h := newTrafficHarness(t, 2, 1000000, Millisecond)
	onoff := NewConstantRateOnOff(ConstantRateOnOffConfig{
		Node:       0,
		Remote:     1,
		RemotePort: 9,
		Rate:       1000000,
		PacketSize: 1024,
		MaxBytes:   5 * 1024,
	})
	require.NoError(t, onoff.Install(h.net))
	h.run(t, 5*Second)
	assert.Len(t, h.tx, 5)
}

func TestInstallErrors(t *testing.T) {
	h := newTrafficHarness(t, 2, 1000000, Millisecond)
	sink := NewSink(SinkConfig{Node: 1, Port: 9, Start: 2 * Second, Stop: Second})
	assert.Error(t, sink.Install(h.net))

	sink = NewSink(SinkConfig{Node: 1, Port: 9})
	require.NoError(t, sink.Install(h.net))
	assert.Error(t, sink.Install(h.net))
	assert.Error(t, NewSink(SinkConfig{Node: 1, Port: 9}).Install(h.net))

	onoff := NewConstantRateOnOff(ConstantRateOnOffConfig{Node: 0, Remote: 1, PacketSize: 1024})
	assert.Error(t, onoff.Install(h.net))

	client := NewFixedCountClient(FixedCountClientConfig{Node: 0, Remote: 1, MaxPackets: 3})
	assert.Error(t, client.Install(h.net))
}
