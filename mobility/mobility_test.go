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
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmanet/manet-ns/dispatcher"
	"github.com/openmanet/manet-ns/event"
	"github.com/openmanet/manet-ns/topology"
	. "github.com/openmanet/manet-ns/types"
)

func TestGridAllocator(t *testing.T) {
	ga := NewGridAllocator(0, 0, 50, 50, 2)
	assert.Equal(t, Position{X: 0, Y: 0}, ga.Next())
	assert.Equal(t, Position{X: 50, Y: 0}, ga.Next())
	assert.Equal(t, Position{X: 0, Y: 50}, ga.Next())
	assert.Equal(t, Position{X: 50, Y: 50}, ga.Next())

	ga = NewGridAllocator(10, 20, 5, 3, 2)
	ga.Layout = ColumnFirst
	assert.Equal(t, Position{X: 10, Y: 20}, ga.Next())
	assert.Equal(t, Position{X: 10, Y: 23}, ga.Next())
	assert.Equal(t, Position{X: 15, Y: 20}, ga.Next())
}

func TestRandomRectangleAllocator(t *testing.T) {
	bounds := Rectangle{XMin: -10, XMax: 10, YMin: 100, YMax: 200}
	ra := NewRandomRectangleAllocator(bounds, rand.New(rand.NewSource(1)))
	for i := 0; i < 1000; i++ {
		assert.True(t, bounds.Contains(ra.Next()))
	}
}

func TestListAllocator(t *testing.T) {
	la := NewListAllocator([]Position{{X: 1}, {X: 2}})
	assert.Equal(t, 1.0, la.Next().X)
	assert.Equal(t, 2.0, la.Next().X)
	assert.Equal(t, 2.0, la.Next().X)
	assert.Equal(t, Position{}, NewListAllocator(nil).Next())
}

type mobilityHarness struct {
	d      *dispatcher.Dispatcher
	topo   *topology.Topology
	mgr    *Manager
	events []*event.PositionChanged
}

func newMobilityHarness(t *testing.T, numNodes int) *mobilityHarness {
	h := &mobilityHarness{
		d:    dispatcher.NewDispatcher(nil, nil),
		topo: topology.New(topology.DefaultPrefix),
	}
	for i := 0; i < numNodes; i++ {
		_, err := h.topo.AddNode()
		require.NoError(t, err)
	}
	bus := event.NewBus()
	bus.OnPositionChanged(func(e *event.PositionChanged) {
		h.events = append(h.events, e)
	})
	h.mgr = NewManager(h.d, h.topo, bus)
	return h
}

func TestManager_Static(t *testing.T) {
	h := newMobilityHarness(t, 2)
	require.NoError(t, h.mgr.Install(0, NewStatic(Position{X: 1, Y: 2})))
	require.NoError(t, h.mgr.Install(1, NewStatic(Position{X: 3, Y: 4})))
	assert.Error(t, h.mgr.Install(1, NewStatic(Position{})))
	assert.Error(t, h.mgr.Install(5, NewStatic(Position{})))

	h.mgr.Start()
	require.NoError(t, h.d.RunUntil(context.Background(), 10*Second))

	require.Len(t, h.events, 2)
	assert.Equal(t, uint64(0), h.events[0].Timestamp)
	assert.Equal(t, 0, h.events[0].NodeId)
	assert.Equal(t, Position{X: 3, Y: 4}, h.events[1].Position)
	assert.Equal(t, Position{X: 1, Y: 2}, h.topo.Position(0))
	assert.Equal(t, uint64(2), h.mgr.CourseChanges())
}

func TestManager_RandomWalkStaysInBounds(t *testing.T) {
	h := newMobilityHarness(t, 3)
	cfg := DefaultRandomWalk2dConfig()
	cfg.Bounds = Rectangle{XMin: 0, XMax: 20, YMin: 0, YMax: 20}
	cfg.MinSpeed, cfg.MaxSpeed = 5, 10
	cfg.Distance = 5
	for id := 0; id < 3; id++ {
		walk := NewRandomWalk2d(cfg, Position{X: 10, Y: 10}, rand.New(rand.NewSource(int64(id+1))))
		require.NoError(t, h.mgr.Install(id, walk))
	}
	h.mgr.Start()

	// sample interpolated positions while running
	var samples []Position
	for ts := uint64(0); ts <= 60*Second; ts += 250 * Millisecond {
		h.d.ScheduleAt(ts, func() {
			for id := 0; id < 3; id++ {
				samples = append(samples, h.topo.Position(id))
			}
		})
	}
	require.NoError(t, h.d.RunUntil(context.Background(), 60*Second))

	assert.Greater(t, len(h.events), 3*60)
	var last uint64
	for _, e := range h.events {
		assert.True(t, cfg.Bounds.Contains(e.Position), "%v", e)
		assert.GreaterOrEqual(t, e.Timestamp, last)
		last = e.Timestamp
	}
	for _, pos := range samples {
		assert.True(t, cfg.Bounds.Contains(pos), "%v", pos)
	}
}

func TestRandomWalk2d_TimeMode(t *testing.T) {
	cfg := DefaultRandomWalk2dConfig()
	cfg.Bounds = Rectangle{XMin: -1000, XMax: 1000, YMin: -1000, YMax: 1000}
	cfg.Mode = WalkModeTime
	cfg.Time = 2 * Second
	walk := NewRandomWalk2d(cfg, Position{}, rand.New(rand.NewSource(7)))

	pos, delay := walk.NextMove(0, 0)
	assert.Equal(t, Position{}, pos)
	assert.Equal(t, 2*Second, delay)
	assert.True(t, walk.IsMoving(Second))

	dist := walk.PositionAt(2 * Second).DistanceTo(pos)
	assert.GreaterOrEqual(t, dist, 2*cfg.MinSpeed-1e-9)
	assert.LessOrEqual(t, dist, 2*cfg.MaxSpeed+1e-9)
	assert.Equal(t, NameRandomWalk, walk.Name())
}

func TestRandomWalk2d_ReflectsAtBoundary(t *testing.T) {
	cfg := DefaultRandomWalk2dConfig()
	cfg.Bounds = Rectangle{XMin: 0, XMax: 10, YMin: 0, YMax: 10}
	walk := NewRandomWalk2d(cfg, Position{X: 0, Y: 0}, rand.New(rand.NewSource(3)))
	for i := 0; i < 100; i++ {
		walk.NextMove(0, 0)
		assert.GreaterOrEqual(t, walk.v.X, 0.0)
		assert.GreaterOrEqual(t, walk.v.Y, 0.0)
	}
}

func TestRandomWaypoint(t *testing.T) {
	h := newMobilityHarness(t, 1)
	alloc := NewListAllocator([]Position{{X: 10, Y: 0}, {X: 10, Y: 10}})
	cfg := RandomWaypointConfig{MinSpeed: 2, MaxSpeed: 2, Pause: Second}
	wp := NewRandomWaypoint(cfg, alloc, Position{}, rand.New(rand.NewSource(1)))
	require.NoError(t, h.mgr.Install(0, wp))
	h.mgr.Start()

	var mid Position
	var midMoving bool
	h.d.ScheduleAt(2500*Millisecond, func() {
		mid = h.topo.Position(0)
		midMoving = wp.IsMoving(h.d.Now())
	})
	require.NoError(t, h.d.RunUntil(context.Background(), 20*Second))

	assert.InDelta(t, 5.0, mid.X, 1e-9)
	assert.True(t, midMoving)

	var times []uint64
	for _, e := range h.events {
		times = append(times, e.Timestamp)
	}
	// leave at 0, arrive at 5s, pause 1s, leave, arrive at 11s, pause, no further destination
	assert.Equal(t, []uint64{0, 5 * Second, 6 * Second, 11 * Second, 12 * Second, 13 * Second, 14 * Second,
		15 * Second, 16 * Second, 17 * Second, 18 * Second, 19 * Second, 20 * Second}, times)
	assert.Equal(t, Position{X: 10, Y: 0}, h.events[1].Position)
	assert.Equal(t, Position{X: 10, Y: 10}, h.events[3].Position)
	assert.False(t, wp.IsMoving(20*Second))
}

func TestRandomWaypoint_UniformPause(t *testing.T) {
	cfg := RandomWaypointConfig{MinSpeed: 1, MaxSpeed: 1, Pause: Second, PauseMax: 3 * Second}
	wp := NewRandomWaypoint(cfg, NewListAllocator([]Position{{X: 1}}), Position{}, rand.New(rand.NewSource(9)))
	_, delay := wp.NextMove(0, 0)
	assert.Equal(t, Second, delay)
	for i := 0; i < 20; i++ {
		_, pause := wp.NextMove(0, 0)
		assert.GreaterOrEqual(t, pause, Second)
		assert.LessOrEqual(t, pause, 3*Second)
	}
}

func TestManager_Version(t *testing.T) {
	h := newMobilityHarness(t, 1)
	alloc := NewListAllocator([]Position{{X: 10}})
	cfg := RandomWaypointConfig{MinSpeed: 1, MaxSpeed: 1, Pause: Second}
	wp := NewRandomWaypoint(cfg, alloc, Position{}, rand.New(rand.NewSource(1)))
	require.NoError(t, h.mgr.Install(0, wp))
	h.mgr.Start()

	var versions []uint64
	for _, ts := range []uint64{Second, 2 * Second, 12 * Second} {
		h.d.ScheduleAt(ts, func() {
			versions = append(versions, h.mgr.Version())
		})
	}
	h.d.ScheduleAt(14*Second, func() { h.mgr.Stop() })
	require.NoError(t, h.d.RunUntil(context.Background(), 20*Second))

	require.Len(t, versions, 3)
	assert.Less(t, versions[0], versions[1])
	assert.Less(t, versions[1], versions[2])
	assert.Empty(t, h.mgr.moves)
	// course changes at 0, 10s, 11s, 12s and 13s; the move due at 14s is cancelled by Stop
	assert.Equal(t, uint64(5), h.mgr.CourseChanges())
}
