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

package observability

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/openmanet/manet-ns/event"
	. "github.com/openmanet/manet-ns/types"
)

func TestMetrics_BusAndDispatcher(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)

	bus := event.NewBus()
	m.Subscribe(bus)
	pkt := event.Packet{Seq: 1, Size: 100, SentAt: Second}
	bus.EmitPositionChanged(&event.PositionChanged{})
	bus.EmitPacketSent(&event.PacketSent{Timestamp: Second, Packet: pkt})
	bus.EmitPacketReceived(&event.PacketReceived{Timestamp: Second + 30*Millisecond, Packet: pkt})
	bus.EmitPacketDropped(&event.PacketDropped{Packet: pkt, Reason: event.DropHopLimit})
	m.OnEventFired(2 * Second)
	m.OnEventFired(3 * Second)
	m.OnEventsDiscarded(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CourseChanges))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Packets.WithLabelValues("Tx")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.PacketBytes.WithLabelValues("Rx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Drops.WithLabelValues("hop-limit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsFired))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.EventsDiscarded))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SimTime))

	snapshot, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1.0, snapshot[`manetns_packets_total{direction="Rx"}`])
	assert.Equal(t, 1.0, snapshot["manetns_packet_latency_seconds_count"])
	assert.Equal(t, 2.0, snapshot["manetns_events_fired_total"])
}

func TestMetrics_WriteFile(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	m.OnEventFired(Second)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "manetns_events_fired_total 1")

	// registering twice on one registry fails
	_, err = NewMetrics(m.Registry())
	assert.Error(t, err)
}

func TestInitTracing(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Writer: &buf})
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "run")
	span.SetAttributes(attribute.Int("nodes", 4))
	span.End()
	ShutdownWithTimeout(context.Background(), shutdown)
	assert.Contains(t, buf.String(), `"Name": "run"`)

	shutdown, err = InitTracing(context.Background(), TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
