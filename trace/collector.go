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

package trace

import (
	"github.com/pkg/errors"

	"github.com/openmanet/manet-ns/event"
	"github.com/openmanet/manet-ns/logger"
	. "github.com/openmanet/manet-ns/types"
)

// Collector buffers the position, packet and drop streams of a run until they are flushed once.
type Collector struct {
	records  Records
	lastPos  uint64
	lastPkt  uint64
	lastDrop uint64
	flushed  bool
	late     uint64
}

func NewCollector() *Collector {
	return &Collector{}
}

// Subscribe attaches the collector to the event bus.
func (c *Collector) Subscribe(bus *event.Bus) {
	bus.OnPositionChanged(c.onPositionChanged)
	bus.OnPacketSent(c.onPacketSent)
	bus.OnPacketReceived(c.onPacketReceived)
	bus.OnPacketDropped(c.onPacketDropped)
}

func (c *Collector) accepting(ts uint64) bool {
	if c.flushed {
		c.late++
		logger.Debugf("trace already flushed, record at %s ignored", FormatSeconds(ts))
		return false
	}
	return true
}

func (c *Collector) onPositionChanged(e *event.PositionChanged) {
	if !c.accepting(e.Timestamp) {
		return
	}
	logger.AssertTrue(e.Timestamp >= c.lastPos, "position record at %d before %d", e.Timestamp, c.lastPos)
	c.lastPos = e.Timestamp
	c.records.Positions = append(c.records.Positions, PositionRecord{
		Time: e.Timestamp,
		Node: e.NodeId,
		X:    e.Position.X,
		Y:    e.Position.Y,
		Z:    e.Position.Z,
	})
}

func (c *Collector) onPacketSent(e *event.PacketSent) {
	c.appendPacket(e.Timestamp, DirectionTx, e.NodeId, &e.Packet)
}

func (c *Collector) onPacketReceived(e *event.PacketReceived) {
	c.appendPacket(e.Timestamp, DirectionRx, e.NodeId, &e.Packet)
}

func (c *Collector) appendPacket(ts uint64, dir Direction, node NodeId, pkt *event.Packet) {
	if !c.accepting(ts) {
		return
	}
	logger.AssertTrue(ts >= c.lastPkt, "packet record at %d before %d", ts, c.lastPkt)
	c.lastPkt = ts
	c.records.Packets = append(c.records.Packets, PacketRecord{
		Time:      ts,
		Direction: dir,
		Node:      node,
		Src:       pkt.Src,
		Dst:       pkt.Dst,
		SrcPort:   pkt.SrcPort,
		DstPort:   pkt.DstPort,
		Size:      pkt.Size,
		Seq:       pkt.Seq,
		Echo:      pkt.IsEcho,
	})
}

func (c *Collector) onPacketDropped(e *event.PacketDropped) {
	if !c.accepting(e.Timestamp) {
		return
	}
	logger.AssertTrue(e.Timestamp >= c.lastDrop, "drop record at %d before %d", e.Timestamp, c.lastDrop)
	c.lastDrop = e.Timestamp
	c.records.Drops = append(c.records.Drops, DropRecord{
		Time:   e.Timestamp,
		Node:   e.NodeId,
		Src:    e.Packet.Src,
		Dst:    e.Packet.Dst,
		Size:   e.Packet.Size,
		Seq:    e.Packet.Seq,
		Reason: e.Reason.String(),
	})
}

// Flush hands out the collected records. It succeeds once; later calls return ErrAlreadyFlushed.
func (c *Collector) Flush() (*Records, error) {
	if c.flushed {
		return nil, errors.WithStack(ErrAlreadyFlushed)
	}
	c.flushed = true
	records := c.records
	c.records = Records{}
	logger.Debugf("trace flushed: %d positions, %d packets, %d drops", len(records.Positions),
		len(records.Packets), len(records.Drops))
	return &records, nil
}

// Flushed returns whether Flush was called.
func (c *Collector) Flushed() bool {
	return c.flushed
}

// Late returns the number of events that arrived after the flush and were dropped.
func (c *Collector) Late() uint64 {
	return c.late
}
