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

package mobility

import (
	. "github.com/openmanet/manet-ns/types"
)

// Model is the mobility policy of one node.
type Model interface {
	// NextMove advances the model to now. It returns the position at now and the delay until the
	// next course change, or Ever if the node will not move again.
	NextMove(node NodeId, now uint64) (Position, uint64)
	// PositionAt returns the position at a time between course changes.
	PositionAt(now uint64) Position
	// IsMoving returns whether the node is in motion at now.
	IsMoving(now uint64) bool
	Name() string
}

const (
	NameStatic         = "static"
	NameRandomWalk     = "random-walk"
	NameRandomWaypoint = "random-waypoint"
)

// Static never moves.
type Static struct {
	pos Position
}

func NewStatic(pos Position) *Static {
	return &Static{pos: pos}
}

func (m *Static) NextMove(node NodeId, now uint64) (Position, uint64) {
	return m.pos, Ever
}

func (m *Static) PositionAt(now uint64) Position {
	return m.pos
}

func (m *Static) IsMoving(now uint64) bool {
	return false
}

func (m *Static) Name() string {
	return NameStatic
}

// velocity in metres per second
type velocity struct {
	X, Y float64
}

func advance(pos Position, v velocity, from, to uint64) Position {
	if to <= from {
		return pos
	}
	dt := UsToSeconds(to - from)
	pos.X += v.X * dt
	pos.Y += v.Y * dt
	return pos
}
