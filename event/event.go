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

package event

import (
	"fmt"

	"github.com/openmanet/manet-ns/types"
)

type EventType = uint8

const (
	EventTypePositionChanged EventType = 0
	EventTypePacketSent      EventType = 1
	EventTypePacketReceived  EventType = 2
	EventTypePacketDropped   EventType = 3
)

// Packet is an application datagram travelling through the simulated network.
type Packet struct {
	Seq     uint64 // unique per run, assigned by the sender
	Src     types.NodeId
	Dst     types.NodeId
	SrcPort uint16
	DstPort uint16
	Size    int    // bytes
	SentAt  uint64 // us
	IsEcho  bool
}

func (p *Packet) String() string {
	return fmt.Sprintf("Pkt{seq=%d,%d:%d->%d:%d,size=%d}", p.Seq, p.Src, p.SrcPort, p.Dst, p.DstPort, p.Size)
}

// Reply returns the echo of p, addressed back to its sender.
func (p *Packet) Reply(seq uint64) Packet {
	return Packet{
		Seq:     seq,
		Src:     p.Dst,
		Dst:     p.Src,
		SrcPort: p.DstPort,
		DstPort: p.SrcPort,
		Size:    p.Size,
		IsEcho:  true,
	}
}

// PositionChanged is emitted on every mobility course change.
type PositionChanged struct {
	Timestamp uint64
	NodeId    types.NodeId
	Position  types.Position
}

func (e *PositionChanged) String() string {
	return fmt.Sprintf("Ev{%d,node=%d,pos=%v}", e.Timestamp, e.NodeId, e.Position)
}

// PacketSent is emitted by a traffic generator right before it hands a packet to the network.
type PacketSent struct {
	Timestamp uint64
	NodeId    types.NodeId
	Packet    Packet
}

func (e *PacketSent) String() string {
	return fmt.Sprintf("Ev{%d,node=%d,Tx,%v}", e.Timestamp, e.NodeId, &e.Packet)
}

// PacketReceived is emitted by the receiving application when a packet is delivered to it.
type PacketReceived struct {
	Timestamp uint64
	NodeId    types.NodeId
	Packet    Packet
}

func (e *PacketReceived) String() string {
	return fmt.Sprintf("Ev{%d,node=%d,Rx,%v}", e.Timestamp, e.NodeId, &e.Packet)
}

// DropReason tells why a packet did not reach its destination application.
type DropReason uint8

const (
	DropUnreachable DropReason = iota
	DropHopLimit
	DropNodeFailed
	DropRandomLoss
	DropNoListener
)

func (r DropReason) String() string {
	switch r {
	case DropUnreachable:
		return "unreachable"
	case DropHopLimit:
		return "hop-limit"
	case DropNodeFailed:
		return "node-failed"
	case DropRandomLoss:
		return "random-loss"
	case DropNoListener:
		return "no-listener"
	default:
		return fmt.Sprintf("drop-reason(%d)", uint8(r))
	}
}

// PacketDropped is emitted by the network when a packet is lost.
type PacketDropped struct {
	Timestamp uint64
	NodeId    types.NodeId // node where the packet was dropped
	Packet    Packet
	Reason    DropReason
}

func (e *PacketDropped) String() string {
	return fmt.Sprintf("Ev{%d,node=%d,drop=%v,%v}", e.Timestamp, e.NodeId, e.Reason, &e.Packet)
}
