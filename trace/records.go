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
	. "github.com/openmanet/manet-ns/types"
)

// PositionRecord is a node position at a course change.
type PositionRecord struct {
	Time uint64
	Node NodeId
	X    float64
	Y    float64
	Z    float64
}

// PacketRecord is a packet leaving a sending application (Tx) or reaching a receiving one (Rx).
type PacketRecord struct {
	Time      uint64
	Direction Direction
	Node      NodeId
	Src       NodeId
	Dst       NodeId
	SrcPort   uint16
	DstPort   uint16
	Size      int
	Seq       uint64
	Echo      bool
}

// DropRecord is a packet lost in the network.
type DropRecord struct {
	Time   uint64
	Node   NodeId
	Src    NodeId
	Dst    NodeId
	Size   int
	Seq    uint64
	Reason string
}

// Records are the flushed trace streams, each in non-decreasing time order.
type Records struct {
	Positions []PositionRecord
	Packets   []PacketRecord
	Drops     []DropRecord
}

// Count returns the number of packet records in direction dir.
func (r *Records) Count(dir Direction) int {
	n := 0
	for i := range r.Packets {
		if r.Packets[i].Direction == dir {
			n++
		}
	}
	return n
}

// Filter returns the packet records in direction dir.
func (r *Records) Filter(dir Direction) []PacketRecord {
	var ret []PacketRecord
	for _, rec := range r.Packets {
		if rec.Direction == dir {
			ret = append(ret, rec)
		}
	}
	return ret
}
