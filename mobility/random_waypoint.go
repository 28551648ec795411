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
	"math/rand"

	"github.com/openmanet/manet-ns/prng"
	. "github.com/openmanet/manet-ns/types"
)

type RandomWaypointConfig struct {
	MinSpeed float64 // m/s
	MaxSpeed float64 // m/s
	Pause    uint64  // us
	PauseMax uint64  // us; if above Pause the pause is uniform in [Pause, PauseMax]
}

// RandomWaypoint moves to a destination drawn from an allocator at uniform random speed, pauses,
// and repeats.
type RandomWaypoint struct {
	cfg        RandomWaypointConfig
	alloc      PositionAllocator
	rnd        *rand.Rand
	pos        Position
	dest       Position
	v          velocity
	moving     bool
	lastUpdate uint64
	legEnd     uint64
}

func NewRandomWaypoint(cfg RandomWaypointConfig, alloc PositionAllocator, start Position, rnd *rand.Rand) *RandomWaypoint {
	return &RandomWaypoint{
		cfg:   cfg,
		alloc: alloc,
		rnd:   rnd,
		pos:   start,
	}
}

func (m *RandomWaypoint) NextMove(node NodeId, now uint64) (Position, uint64) {
	if m.moving {
		// arrived: pause at the waypoint
		m.pos = m.dest
		m.v = velocity{}
		m.moving = false
		m.lastUpdate = now
		return m.pos, m.drawPause()
	}

	m.pos = m.PositionAt(now)
	m.lastUpdate = now
	m.dest = m.alloc.Next()
	speed := prng.Uniform(m.rnd, m.cfg.MinSpeed, m.cfg.MaxSpeed)
	dist := m.pos.DistanceTo(m.dest)
	if speed <= 0 || dist == 0 {
		m.dest = m.pos
		return m.pos, m.drawPause()
	}

	travel := dist / speed
	m.v = velocity{
		X: (m.dest.X - m.pos.X) / travel,
		Y: (m.dest.Y - m.pos.Y) / travel,
	}
	m.moving = true
	delay := SecondsToUs(travel)
	m.legEnd = AddTime(now, delay)
	return m.pos, delay
}

func (m *RandomWaypoint) drawPause() uint64 {
	if m.cfg.PauseMax > m.cfg.Pause {
		return m.cfg.Pause + uint64(m.rnd.Int63n(int64(m.cfg.PauseMax-m.cfg.Pause+1)))
	}
	return m.cfg.Pause
}

func (m *RandomWaypoint) PositionAt(now uint64) Position {
	if !m.moving {
		return m.pos
	}
	if now >= m.legEnd {
		return m.dest
	}
	return advance(m.pos, m.v, m.lastUpdate, now)
}

func (m *RandomWaypoint) IsMoving(now uint64) bool {
	return m.moving && now < m.legEnd
}

func (m *RandomWaypoint) Name() string {
	return NameRandomWaypoint
}
