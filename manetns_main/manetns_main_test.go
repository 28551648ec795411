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

package manetns_main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmanet/manet-ns/progctx"
)

const twoNodeScenario = `
name: two-node
stop: 30s
nodes: { count: 2 }
links: { chain: { rate: 5Mbps, delay: 2ms } }
traffic:
  - { type: sink, node: 1, start: 1s }
  - { type: client, src: 0, dst: 1, size: 1024, count: 20, interval: 1s, start: 2s }
output: { csv: true, kpi: false }
`

func writeScenario(t *testing.T, data string) string {
	fn := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(data), 0644))
	return fn
}

func runMain(t *testing.T, argv ...string) (int, string) {
	ctx := progctx.New(context.Background())
	var out bytes.Buffer
	code := Main(ctx, argv, &out)
	ctx.Cancel(nil)
	ctx.Wait()
	return code, out.String()
}

func TestMain_Run(t *testing.T) {
	fn := writeScenario(t, twoNodeScenario)
	outDir := t.TempDir()
	code, _ := runMain(t, "run", fn, "--out", outDir, "--seed", "3", "--stop", "10s", "--log", "warn")
	assert.Equal(t, 0, code)

	data, err := os.ReadFile(filepath.Join(outDir, "packets.csv"))
	require.NoError(t, err)
	// stopping at 10s leaves 9 client packets (2s..10s), the last one still in flight
	assert.Equal(t, 1+9+8, bytes.Count(data, []byte("\n")))
}

func TestMain_RunPcap(t *testing.T) {
	fn := writeScenario(t, twoNodeScenario)
	outDir := t.TempDir()
	code, _ := runMain(t, "run", fn, "--out", outDir, "--pcap", "--log", "warn")
	assert.Equal(t, 0, code)

	matches, err := filepath.Glob(filepath.Join(outDir, "*.pcap"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMain_Validate(t *testing.T) {
	code, out := runMain(t, "validate", writeScenario(t, twoNodeScenario))
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "two-node: 2 nodes, 2 traffic entries, routing shortest-path")

	code, _ = runMain(t, "validate", writeScenario(t, "nodes: { count: 0 }\n"))
	assert.Equal(t, 1, code)
}

func TestMain_Errors(t *testing.T) {
	fn := writeScenario(t, twoNodeScenario)
	for _, argv := range [][]string{
		{"run"},
		{"frobnicate"},
		{"run", fn, "--stop", "later"},
		{"run", fn, "--log", "loud"},
		{"run", fn, "--pcap=wifi"},
		{"run", filepath.Join(t.TempDir(), "missing.yaml")},
		{"run", fn, "--nodes", filepath.Join(t.TempDir(), "missing.yaml")},
	} {
		code, _ := runMain(t, argv...)
		assert.Equal(t, 1, code, "%v", argv)
	}
}

func TestMain_EnvDefaults(t *testing.T) {
	outDir := t.TempDir()
	t.Setenv(EnvOutputDir, outDir)
	t.Setenv(EnvSeed, "7")
	code, _ := runMain(t, "run", writeScenario(t, twoNodeScenario), "--log", "off")
	assert.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(outDir, "positions.csv"))

	t.Setenv(EnvSeed, "seven")
	code, _ = runMain(t, "run", writeScenario(t, twoNodeScenario), "--log", "off")
	assert.Equal(t, 1, code)
}
