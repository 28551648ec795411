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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openmanet/manet-ns/types"
)

func TestPacket_Reply(t *testing.T) {
	p := Packet{Seq: 7, Src: 0, Dst: 3, SrcPort: 49153, DstPort: 9, Size: 1024, SentAt: 42}
	r := p.Reply(8)
	assert.Equal(t, uint64(8), r.Seq)
	assert.Equal(t, 3, r.Src)
	assert.Equal(t, 0, r.Dst)
	assert.Equal(t, uint16(9), r.SrcPort)
	assert.Equal(t, uint16(49153), r.DstPort)
	assert.Equal(t, 1024, r.Size)
	assert.True(t, r.IsEcho)
	assert.Equal(t, uint64(0), r.SentAt)
}

func TestEventStrings(t *testing.T) {
	p := Packet{Seq: 1, Src: 0, Dst: 1, SrcPort: 1, DstPort: 9, Size: 512}
	assert.Equal(t, "Pkt{seq=1,0:1->1:9,size=512}", p.String())

	pc := &PositionChanged{Timestamp: 5, NodeId: 2, Position: types.Position{X: 1, Y: 2}}
	assert.Equal(t, "Ev{5,node=2,pos=(1.00, 2.00, 0.00)}", pc.String())

	ps := &PacketSent{Timestamp: 6, NodeId: 0, Packet: p}
	assert.Equal(t, "Ev{6,node=0,Tx,Pkt{seq=1,0:1->1:9,size=512}}", ps.String())

	pd := &PacketDropped{Timestamp: 7, NodeId: 0, Packet: p, Reason: DropUnreachable}
	assert.Equal(t, "Ev{7,node=0,drop=unreachable,Pkt{seq=1,0:1->1:9,size=512}}", pd.String())
	assert.Equal(t, "drop-reason(99)", DropReason(99).String())
}

func TestBus(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.OnPacketSent(func(e *PacketSent) { order = append(order, "sent1") })
	bus.OnPacketSent(func(e *PacketSent) { order = append(order, "sent2") })
	bus.OnPacketReceived(func(e *PacketReceived) { order = append(order, "recv") })
	bus.OnPositionChanged(func(e *PositionChanged) { order = append(order, "pos") })
	bus.OnPacketDropped(func(e *PacketDropped) { order = append(order, "drop") })

	bus.EmitPacketSent(&PacketSent{})
	bus.EmitPositionChanged(&PositionChanged{})
	bus.EmitPacketReceived(&PacketReceived{})
	bus.EmitPacketDropped(&PacketDropped{})

	assert.Equal(t, []string{"sent1", "sent2", "pos", "recv", "drop"}, order)
}
