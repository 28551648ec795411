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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerator_Deterministic(t *testing.T) {
	g1 := New(42)
	g2 := New(42)

	assert.Equal(t, int64(42), g1.RootSeed())
	for i := 0; i < 10; i++ {
		assert.Equal(t, g1.NewUnitRandom(), g2.NewUnitRandom())
		assert.Equal(t, g1.NewFailTime(1000), g2.NewFailTime(1000))
	}

	r1 := g1.NewNodeRandom(3)
	r2 := g2.NewNodeRandom(3)
	for i := 0; i < 10; i++ {
		assert.Equal(t, r1.Float64(), r2.Float64())
	}
}

func TestGenerator_TimeSeeded(t *testing.T) {
	g := New(0)
	assert.NotEqual(t, int64(0), g.RootSeed())
}

func TestGenerator_NewFailTime(t *testing.T) {
	g := New(1)
	assert.Equal(t, uint64(0), g.NewFailTime(0))
	for i := 0; i < 100; i++ {
		assert.Less(t, g.NewFailTime(50), uint64(50))
	}
}

func TestUniform(t *testing.T) {
	g := New(7)
	r := g.NewNodeRandom(0)
	for i := 0; i < 100; i++ {
		v := Uniform(r, 1, 5)
		assert.GreaterOrEqual(t, v, 1.0)
		assert.Less(t, v, 5.0)
	}
	assert.Equal(t, 2.0, Uniform(r, 2, 2))
}
