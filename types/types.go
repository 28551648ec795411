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

package types

import (
	"fmt"
	"math"

	"github.com/simonlingoogle/go-simplelogger"
)

type NodeId = int
type LinkId = int

const (
	InvalidNodeId NodeId = -1
	InvalidLinkId LinkId = -1
)

// Ever is a virtual timestamp that is never reached.
const Ever uint64 = math.MaxUint64

// Virtual time is counted in microseconds.
const (
	Microsecond uint64 = 1
	Millisecond        = 1000 * Microsecond
	Second             = 1000 * Millisecond
)

// Position is a node location in metres.
type Position struct {
	X, Y, Z float64
}

func (p Position) DistanceTo(other Position) float64 {
	dx, dy, dz := p.X-other.X, p.Y-other.Y, p.Z-other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (p Position) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", p.X, p.Y, p.Z)
}

type Direction byte

const (
	DirectionTx Direction = 0
	DirectionRx Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionTx:
		return "Tx"
	case DirectionRx:
		return "Rx"
	default:
		simplelogger.Panicf("invalid direction: %v", byte(d))
		return "invalid"
	}
}

// SecondsToUs converts seconds to virtual microseconds, rounding to the nearest microsecond.
func SecondsToUs(sec float64) uint64 {
	if sec <= 0 {
		return 0
	}
	us := math.Round(sec * float64(Second))
	if us >= math.MaxUint64 {
		return Ever
	}
	return uint64(us)
}

func UsToSeconds(us uint64) float64 {
	return float64(us) / float64(Second)
}

// FormatSeconds renders a virtual timestamp as seconds for trace files.
func FormatSeconds(us uint64) string {
	return fmt.Sprintf("%d.%06d", us/Second, us%Second)
}

// AddTime adds a delay to a timestamp, saturating at Ever.
func AddTime(ts uint64, delay uint64) uint64 {
	if delay >= Ever-ts {
		return Ever
	}
	return ts + delay
}

// TxDuration returns the time to serialize size bytes at rate bits per second.
func TxDuration(size int, rate uint64) uint64 {
	if rate == 0 || size <= 0 {
		return 0
	}
	bits := float64(size) * 8
	return uint64(math.Round(bits * float64(Second) / float64(rate)))
}
