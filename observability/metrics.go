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
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/openmanet/manet-ns/event"
	. "github.com/openmanet/manet-ns/types"
)

// Metrics bundles the Prometheus metrics of a simulation run. Values follow virtual time.
// It implements dispatcher.CallbackHandler.
type Metrics struct {
	registry *prometheus.Registry

	EventsFired     prometheus.Counter
	EventsDiscarded prometheus.Counter
	SimTime         prometheus.Gauge
	CourseChanges   prometheus.Counter
	Packets         *prometheus.CounterVec
	PacketBytes     *prometheus.CounterVec
	Drops           *prometheus.CounterVec
	Latency         prometheus.Histogram
}

// NewMetrics registers the run metrics on reg, or on a fresh registry when reg is nil.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		EventsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "manetns_events_fired_total",
			Help: "Number of scheduler events fired.",
		}),
		EventsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "manetns_events_discarded_total",
			Help: "Number of events still queued when the run stopped.",
		}),
		SimTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "manetns_sim_time_seconds",
			Help: "Virtual time of the last fired event.",
		}),
		CourseChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "manetns_course_changes_total",
			Help: "Number of mobility course changes.",
		}),
		Packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "manetns_packets_total",
			Help: "Application packets, labeled by direction (Tx or Rx).",
		}, []string{"direction"}),
		PacketBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "manetns_packet_bytes_total",
			Help: "Application bytes, labeled by direction (Tx or Rx).",
		}, []string{"direction"}),
		Drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "manetns_packets_dropped_total",
			Help: "Packets lost in the network, labeled by reason.",
		}, []string{"reason"}),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "manetns_packet_latency_seconds",
			Help:    "Virtual end-to-end latency of received packets.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
	}

	for _, c := range []prometheus.Collector{m.EventsFired, m.EventsDiscarded, m.SimTime, m.CourseChanges,
		m.Packets, m.PacketBytes, m.Drops, m.Latency} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrapf(err, "register metric")
		}
	}
	return m, nil
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) OnEventFired(ts uint64) {
	m.EventsFired.Inc()
	m.SimTime.Set(UsToSeconds(ts))
}

func (m *Metrics) OnEventsDiscarded(count int) {
	m.EventsDiscarded.Add(float64(count))
}

// Subscribe counts the bus events.
func (m *Metrics) Subscribe(bus *event.Bus) {
	bus.OnPositionChanged(func(*event.PositionChanged) {
		m.CourseChanges.Inc()
	})
	bus.OnPacketSent(func(e *event.PacketSent) {
		dir := DirectionTx.String()
		m.Packets.WithLabelValues(dir).Inc()
		m.PacketBytes.WithLabelValues(dir).Add(float64(e.Packet.Size))
	})
	bus.OnPacketReceived(func(e *event.PacketReceived) {
		dir := DirectionRx.String()
		m.Packets.WithLabelValues(dir).Inc()
		m.PacketBytes.WithLabelValues(dir).Add(float64(e.Packet.Size))
		if e.Timestamp >= e.Packet.SentAt {
			m.Latency.Observe(UsToSeconds(e.Timestamp - e.Packet.SentAt))
		}
	})
	bus.OnPacketDropped(func(e *event.PacketDropped) {
		m.Drops.WithLabelValues(e.Reason.String()).Inc()
	})
}

// Snapshot gathers the counter and gauge values by metric name. Labeled series are keyed
// name{label="value"}. Histograms report their sample count.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, errors.Wrapf(err, "gather metrics")
	}
	snapshot := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName() + labelSuffix(metric.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				snapshot[key] = metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				snapshot[key] = metric.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				snapshot[key+"_count"] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return snapshot, nil
}

func labelSuffix(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	s := "{"
	for i, lp := range labels {
		if i > 0 {
			s += ","
		}
		s += lp.GetName() + "=\"" + lp.GetValue() + "\""
	}
	return s + "}"
}

// WriteFile writes the metrics in the Prometheus text format.
func (m *Metrics) WriteFile(path string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(path, m.registry), "write metrics %s", path)
}
