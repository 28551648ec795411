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

// Bus delivers simulation events to subscribers, synchronously and in subscription order.
// It is used from the dispatcher goroutine only.
type Bus struct {
	positionHandlers []func(*PositionChanged)
	sentHandlers     []func(*PacketSent)
	receivedHandlers []func(*PacketReceived)
	droppedHandlers  []func(*PacketDropped)
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) OnPositionChanged(h func(*PositionChanged)) {
	b.positionHandlers = append(b.positionHandlers, h)
}

func (b *Bus) OnPacketSent(h func(*PacketSent)) {
	b.sentHandlers = append(b.sentHandlers, h)
}

func (b *Bus) OnPacketReceived(h func(*PacketReceived)) {
	b.receivedHandlers = append(b.receivedHandlers, h)
}

func (b *Bus) OnPacketDropped(h func(*PacketDropped)) {
	b.droppedHandlers = append(b.droppedHandlers, h)
}

func (b *Bus) EmitPositionChanged(e *PositionChanged) {
	for _, h := range b.positionHandlers {
		h(e)
	}
}

func (b *Bus) EmitPacketSent(e *PacketSent) {
	for _, h := range b.sentHandlers {
		h(e)
	}
}

func (b *Bus) EmitPacketReceived(e *PacketReceived) {
	for _, h := range b.receivedHandlers {
		h(e)
	}
}

func (b *Bus) EmitPacketDropped(e *PacketDropped) {
	for _, h := range b.droppedHandlers {
		h(e)
	}
}
