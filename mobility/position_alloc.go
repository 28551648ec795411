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

// PositionAllocator hands out positions, one per call.
type PositionAllocator interface {
	Next() Position
}

type GridLayout int

const (
	RowFirst GridLayout = iota
	ColumnFirst
)

// GridAllocator places nodes on a grid of GridWidth columns (or rows, for ColumnFirst),
// starting at (MinX, MinY) and stepping DeltaX, DeltaY.
type GridAllocator struct {
	MinX, MinY     float64
	DeltaX, DeltaY float64
	GridWidth      int
	Z              float64
	Layout         GridLayout
	count          int
}

func NewGridAllocator(minX, minY, deltaX, deltaY float64, gridWidth int) *GridAllocator {
	if gridWidth <= 0 {
		gridWidth = 1
	}
	return &GridAllocator{
		MinX:      minX,
		MinY:      minY,
		DeltaX:    deltaX,
		DeltaY:    deltaY,
		GridWidth: gridWidth,
	}
}

func (ga *GridAllocator) Next() Position {
	col, row := ga.count%ga.GridWidth, ga.count/ga.GridWidth
	ga.count++
	if ga.Layout == ColumnFirst {
		col, row = row, col
	}
	return Position{
		X: ga.MinX + float64(col)*ga.DeltaX,
		Y: ga.MinY + float64(row)*ga.DeltaY,
		Z: ga.Z,
	}
}

// Rectangle is an axis-aligned area.
type Rectangle struct {
	XMin, XMax float64
	YMin, YMax float64
}

func (r Rectangle) Contains(pos Position) bool {
	return pos.X >= r.XMin && pos.X <= r.XMax && pos.Y >= r.YMin && pos.Y <= r.YMax
}

// Clamp moves pos onto the closest point of the rectangle.
func (r Rectangle) Clamp(pos Position) Position {
	pos.X = clamp(pos.X, r.XMin, r.XMax)
	pos.Y = clamp(pos.Y, r.YMin, r.YMax)
	return pos
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// RandomRectangleAllocator draws positions uniformly within a rectangle.
type RandomRectangleAllocator struct {
	Bounds Rectangle
	rnd    *rand.Rand
}

func NewRandomRectangleAllocator(bounds Rectangle, rnd *rand.Rand) *RandomRectangleAllocator {
	return &RandomRectangleAllocator{
		Bounds: bounds,
		rnd:    rnd,
	}
}

func (ra *RandomRectangleAllocator) Next() Position {
	return Position{
		X: prng.Uniform(ra.rnd, ra.Bounds.XMin, ra.Bounds.XMax),
		Y: prng.Uniform(ra.rnd, ra.Bounds.YMin, ra.Bounds.YMax),
	}
}

// ListAllocator returns the given positions in order and then repeats the last one.
type ListAllocator struct {
	Positions []Position
	next      int
}

func NewListAllocator(positions []Position) *ListAllocator {
	return &ListAllocator{Positions: positions}
}

func (la *ListAllocator) Next() Position {
	if len(la.Positions) == 0 {
		return Position{}
	}
	pos := la.Positions[la.next]
	if la.next < len(la.Positions)-1 {
		la.next++
	}
	return pos
}
