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
	"math"
	"math/rand"

	"github.com/openmanet/manet-ns/prng"
	. "github.com/openmanet/manet-ns/types"
)

type WalkMode int

const (
	// WalkModeDistance changes course after walking a fixed distance.
	WalkModeDistance WalkMode = iota
	// WalkModeTime changes course after walking a fixed time.
	WalkModeTime
)

type RandomWalk2dConfig struct {
	Bounds   Rectangle
	MinSpeed float64 // m/s
	MaxSpeed float64 // m/s
	Mode     WalkMode
	Distance float64 // m, for WalkModeDistance
	Time     uint64  // us, for WalkModeTime
}

func DefaultRandomWalk2dConfig() RandomWalk2dConfig {
	return RandomWalk2dConfig{
		Bounds:   Rectangle{XMin: 0, XMax: 100, YMin: 0, YMax: 100},
		MinSpeed: 2,
		MaxSpeed: 4,
		Mode:     WalkModeDistance,
		Distance: 1,
		Time:     Second,
	}
}

// RandomWalk2d walks in straight legs of uniform random speed and heading inside Bounds. A leg ends
// after the configured distance or time, or when the node reaches the boundary. At a boundary a new
// speed and heading are drawn and the heading is reflected to point back inside.
type RandomWalk2d struct {
	cfg        RandomWalk2dConfig
	rnd        *rand.Rand
	pos        Position
	v          velocity
	lastUpdate uint64
}

func NewRandomWalk2d(cfg RandomWalk2dConfig, start Position, rnd *rand.Rand) *RandomWalk2d {
	return &RandomWalk2d{
		cfg: cfg,
		rnd: rnd,
		pos: cfg.Bounds.Clamp(start),
	}
}

// positions within a millimetre of the boundary count as contact
const boundaryEps = 1e-3

func (m *RandomWalk2d) NextMove(node NodeId, now uint64) (Position, uint64) {
	m.pos = m.PositionAt(now)
	m.lastUpdate = now

	speed := prng.Uniform(m.rnd, m.cfg.MinSpeed, m.cfg.MaxSpeed)
	heading := prng.Uniform(m.rnd, 0, 2*math.Pi)
	m.v = velocity{X: speed * math.Cos(heading), Y: speed * math.Sin(heading)}
	m.reflectAtBoundary()

	if speed <= 0 {
		m.v = velocity{}
		if m.cfg.Mode == WalkModeTime && m.cfg.Time > 0 {
			return m.pos, m.cfg.Time
		}
		return m.pos, Ever
	}

	legTime := m.cfg.Distance / speed
	if m.cfg.Mode == WalkModeTime {
		legTime = UsToSeconds(m.cfg.Time)
	}
	if tb := m.timeToBoundary(); tb < legTime {
		legTime = tb
	}
	return m.pos, SecondsToUs(legTime)
}

func (m *RandomWalk2d) reflectAtBoundary() {
	b := m.cfg.Bounds
	if (m.pos.X <= b.XMin+boundaryEps && m.v.X < 0) || (m.pos.X >= b.XMax-boundaryEps && m.v.X > 0) {
		m.v.X = -m.v.X
	}
	if (m.pos.Y <= b.YMin+boundaryEps && m.v.Y < 0) || (m.pos.Y >= b.YMax-boundaryEps && m.v.Y > 0) {
		m.v.Y = -m.v.Y
	}
}

func (m *RandomWalk2d) timeToBoundary() float64 {
	b := m.cfg.Bounds
	t := math.Inf(1)
	if m.v.X > 0 {
		t = math.Min(t, (b.XMax-m.pos.X)/m.v.X)
	} else if m.v.X < 0 {
		t = math.Min(t, (m.pos.X-b.XMin)/-m.v.X)
	}
	if m.v.Y > 0 {
		t = math.Min(t, (b.YMax-m.pos.Y)/m.v.Y)
	} else if m.v.Y < 0 {
		t = math.Min(t, (m.pos.Y-b.YMin)/-m.v.Y)
	}
	return t
}

func (m *RandomWalk2d) PositionAt(now uint64) Position {
	return m.cfg.Bounds.Clamp(advance(m.pos, m.v, m.lastUpdate, now))
}

func (m *RandomWalk2d) IsMoving(now uint64) bool {
	return m.v.X != 0 || m.v.Y != 0
}

func (m *RandomWalk2d) Name() string {
	return NameRandomWalk
}
