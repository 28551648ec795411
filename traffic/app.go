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
	"github.com/pkg/errors"

	"github.com/openmanet/manet-ns/dispatcher"
	"github.com/openmanet/manet-ns/event"
	"github.com/openmanet/manet-ns/logger"
	"github.com/openmanet/manet-ns/network"
	. "github.com/openmanet/manet-ns/types"
)

// Application is a traffic endpoint installed on a node. Install schedules its start and stop
// events; it is called once, before the run.
type Application interface {
	Name() string
	NodeId() NodeId
	Install(net *network.Network) error
	Stats() Stats
}

type Stats struct {
	PacketsSent     uint64
	BytesSent       uint64
	PacketsReceived uint64
	BytesReceived   uint64
	// PacketsIgnored counts packets that arrived while the application was stopped.
	PacketsIgnored uint64
	// PacketsFailed counts sends attempted while the node was failed. They produce no Tx record.
	PacketsFailed uint64
}

const (
	NameFixedCountClient  = "client"
	NameConstantRateOnOff = "onoff"
	NameSink              = "sink"
)

// appLifecycle runs the start and stop events of an application.
type appLifecycle struct {
	net     *network.Network
	node    NodeId
	start   uint64
	stop    uint64
	running bool
	stats   Stats
}

func (a *appLifecycle) NodeId() NodeId {
	return a.node
}

func (a *appLifecycle) Stats() Stats {
	return a.stats
}

func (a *appLifecycle) d() *dispatcher.Dispatcher {
	return a.net.Dispatcher()
}

func (a *appLifecycle) install(net *network.Network, onStart func(), onStop func()) error {
	if a.net != nil {
		return errors.Errorf("application on node %d installed twice", a.node)
	}
	if a.stop <= a.start {
		return errors.Errorf("application on node %d: stop %s not after start %s", a.node,
			FormatSeconds(a.stop), FormatSeconds(a.start))
	}
	a.net = net
	a.d().ScheduleAt(a.start, func() {
		a.running = true
		onStart()
	})
	if a.stop != Ever {
		a.d().ScheduleAt(a.stop, func() {
			a.running = false
			onStop()
		})
	}
	return nil
}

// send emits PacketSent and hands the packet to the network. A failed node transmits nothing: the
// network only counts the packet as dropped.
func (a *appLifecycle) send(pkt event.Packet) {
	pkt.Seq = a.net.NextPacketSeq()
	pkt.SentAt = a.net.Now()
	if a.net.IsFailed(a.node) {
		a.stats.PacketsFailed++
		a.net.Send(pkt)
		return
	}
	a.stats.PacketsSent++
	a.stats.BytesSent += uint64(pkt.Size)
	a.net.Bus().EmitPacketSent(&event.PacketSent{
		Timestamp: pkt.SentAt,
		NodeId:    a.node,
		Packet:    pkt,
	})
	a.net.Send(pkt)
}

// receive emits PacketReceived for a packet delivered while running.
func (a *appLifecycle) receive(now uint64, pkt *event.Packet) bool {
	if !a.running {
		a.stats.PacketsIgnored++
		a.net.NodeLogger(a.node).Debugf("application stopped, ignoring %v", pkt)
		return false
	}
	a.stats.PacketsReceived++
	a.stats.BytesReceived += uint64(pkt.Size)
	a.net.Bus().EmitPacketReceived(&event.PacketReceived{
		Timestamp: now,
		NodeId:    a.node,
		Packet:    *pkt,
	})
	return true
}

func cancelSend(d *dispatcher.Dispatcher, h *dispatcher.EventHandle) {
	if h.IsValid() {
		logger.PanicIfError(d.Cancel(*h))
		*h = dispatcher.EventHandle{}
	}
}
