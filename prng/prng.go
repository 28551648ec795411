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

package prng

import (
	"math/rand"
	"time"

	"github.com/openmanet/manet-ns/types"
)

type RandomSeed int64

// Generator derives independent random streams from one root seed, one per purpose, so that
// adding randomness to one component does not shift the draws of another.
type Generator struct {
	rootSeed          int64
	nodeSeedGenerator *rand.Rand
	failTimeGenerator *rand.Rand
	unitGenerator     *rand.Rand
}

// New creates a Generator, either with a fixed PRNG seed (rootSeed != 0) or a 'random' time-based
// PRNG seed (if rootSeed == 0).
func New(rootSeed int64) *Generator {
	if rootSeed == 0 {
		rootSeed = time.Now().UnixNano()
	}
	seeder := rand.New(rand.NewSource(rootSeed))

	return &Generator{
		rootSeed:          rootSeed,
		nodeSeedGenerator: rand.New(rand.NewSource(rootSeed + seeder.Int63n(1e10))),
		failTimeGenerator: rand.New(rand.NewSource(rootSeed + seeder.Int63n(1e10))),
		unitGenerator:     rand.New(rand.NewSource(rootSeed + seeder.Int63n(1e10))),
	}
}

// RootSeed returns the seed the generator was created with.
func (g *Generator) RootSeed() int64 {
	return g.rootSeed
}

// NewNodeRandom creates the random stream for a node's mobility model and applications.
// Streams depend on the order of calls, which follows node installation order.
func (g *Generator) NewNodeRandom(id types.NodeId) *rand.Rand {
	seed := g.nodeSeedGenerator.Int63() ^ int64(id)
	return rand.New(rand.NewSource(seed))
}

// NewFailTime generates a random new failure-start time between 0 and failStartTimeMax.
func (g *Generator) NewFailTime(failStartTimeMax uint64) uint64 {
	if failStartTimeMax == 0 {
		return 0
	}
	return uint64(g.failTimeGenerator.Int63n(int64(failStartTimeMax)))
}

// NewUnitRandom generates a new random unit [0, 1) float, which can be used as a random probability.
func (g *Generator) NewUnitRandom() float64 {
	return g.unitGenerator.Float64()
}

// Uniform draws from [min, max) on the given stream.
func Uniform(r *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.Float64()*(max-min)
}
