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

package simulation

import (
	"math/rand"

	"github.com/openmanet/manet-ns/logger"
	"github.com/openmanet/manet-ns/mobility"
	. "github.com/openmanet/manet-ns/types"
)

// newPlacement returns the allocator for initial node positions. Nodes default to a 100 m grid,
// 10 nodes wide, starting at (100, 100).
func newPlacement(cfg *PlacementConfig, rnd *rand.Rand) mobility.PositionAllocator {
	switch {
	case len(cfg.List) > 0:
		positions := make([]Position, len(cfg.List))
		for i, p := range cfg.List {
			positions[i] = Position{X: p[0], Y: p[1], Z: p[2]}
		}
		return mobility.NewListAllocator(positions)
	case len(cfg.Random) == 4:
		return mobility.NewRandomRectangleAllocator(boundsOf(cfg.Random), rnd)
	case cfg.Grid != nil:
		g := mobility.NewGridAllocator(cfg.Grid.MinX, cfg.Grid.MinY, cfg.Grid.DeltaX, cfg.Grid.DeltaY, cfg.Grid.Width)
		if cfg.Grid.Layout == "column-first" {
			g.Layout = mobility.ColumnFirst
		}
		return g
	default:
		return mobility.NewGridAllocator(100, 100, 100, 100, 10)
	}
}

func boundsOf(v []float64) mobility.Rectangle {
	logger.AssertTrue(len(v) == 4)
	return mobility.Rectangle{XMin: v[0], XMax: v[1], YMin: v[2], YMax: v[3]}
}

func (cfg *MobilityConfig) isMobile(id NodeId) bool {
	if cfg.Model == "" || cfg.Model == mobility.NameStatic {
		return false
	}
	if len(cfg.Nodes) == 0 {
		return true
	}
	for _, n := range cfg.Nodes {
		if n == id {
			return true
		}
	}
	return false
}

// newMobilityModel creates the model of one node starting at start. Random waypoint destinations are
// drawn within the mobility bounds.
func newMobilityModel(cfg *MobilityConfig, id NodeId, start Position, rnd *rand.Rand) mobility.Model {
	if !cfg.isMobile(id) {
		return mobility.NewStatic(start)
	}
	bounds := boundsOf(cfg.Bounds)
	switch cfg.Model {
	case mobility.NameRandomWalk:
		wc := mobility.DefaultRandomWalk2dConfig()
		wc.Bounds = bounds
		wc.MinSpeed, wc.MaxSpeed = cfg.Speed[0], cfg.Speed[1]
		if cfg.Mode == "time" {
			wc.Mode = mobility.WalkModeTime
		}
		if cfg.Distance > 0 {
			wc.Distance = cfg.Distance
		}
		if cfg.Time.Us() > 0 {
			wc.Time = cfg.Time.Us()
		}
		return mobility.NewRandomWalk2d(wc, bounds.Clamp(start), rnd)
	case mobility.NameRandomWaypoint:
		wc := mobility.RandomWaypointConfig{
			MinSpeed: cfg.Speed[0],
			MaxSpeed: cfg.Speed[1],
			Pause:    cfg.Pause.Us(),
			PauseMax: cfg.PauseMax.Us(),
		}
		return mobility.NewRandomWaypoint(wc, mobility.NewRandomRectangleAllocator(bounds, rnd), start, rnd)
	default:
		logger.Panicf("unknown mobility model %q", cfg.Model)
		return nil
	}
}

func (cfg *MediumConfig) attaches(id NodeId) bool {
	if len(cfg.Nodes) == 0 {
		return true
	}
	for _, n := range cfg.Nodes {
		if n == id {
			return true
		}
	}
	return false
}
