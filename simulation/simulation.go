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
	"context"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/openmanet/manet-ns/dispatcher"
	"github.com/openmanet/manet-ns/event"
	"github.com/openmanet/manet-ns/logger"
	"github.com/openmanet/manet-ns/mobility"
	"github.com/openmanet/manet-ns/network"
	"github.com/openmanet/manet-ns/observability"
	"github.com/openmanet/manet-ns/pcap"
	"github.com/openmanet/manet-ns/prng"
	"github.com/openmanet/manet-ns/progctx"
	"github.com/openmanet/manet-ns/radiomodel"
	"github.com/openmanet/manet-ns/routing"
	"github.com/openmanet/manet-ns/topology"
	"github.com/openmanet/manet-ns/trace"
	"github.com/openmanet/manet-ns/traffic"
	. "github.com/openmanet/manet-ns/types"
)

// Simulation runs one scenario: setup in NewSimulation, the event loop in Run and output in Teardown.
type Simulation struct {
	ctx       *progctx.ProgCtx
	cfg       *Config
	id        string
	rnd       *prng.Generator
	d         *dispatcher.Dispatcher
	bus       *event.Bus
	topo      *topology.Topology
	mobility  *mobility.Manager
	router    routing.Adapter
	net       *network.Network
	failures  []*dispatcher.FailureCtrl
	apps      []traffic.Application
	collector *trace.Collector
	sinks     []trace.Sink
	metrics   *observability.Metrics
	kpiMgr    *KpiManager
	records   *trace.Records

	tracingShutdown func(context.Context) error
	spanFile        *os.File

	ran      bool
	tornDown bool

	// createdDir is set when setup created the output directory.
	createdDir bool
}

// NewSimulation validates cfg and builds the complete simulation. Output files are opened here, so
// an unwritable output directory fails before anything runs.
func NewSimulation(ctx *progctx.ProgCtx, cfg *Config) (s *Simulation, err error) {
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	s = &Simulation{
		ctx:    ctx,
		cfg:    cfg,
		id:     xid.New().String(),
		rnd:    prng.New(cfg.Seed),
		bus:    event.NewBus(),
		kpiMgr: NewKpiManager(),
	}
	defer func() {
		if err != nil {
			s.abortSetup()
			s = nil
		}
	}()

	if s.needsOutputDir() {
		if _, statErr := os.Stat(cfg.Output.Dir); statErr != nil {
			s.createdDir = true
		}
		if err = os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			s.createdDir = false
			return s, errors.Wrapf(err, "create output directory")
		}
	}
	if err = s.initTracing(); err != nil {
		return s, err
	}
	_, span := observability.Tracer().Start(ctx, "setup")
	span.SetAttributes(
		attribute.String("run.id", s.id),
		attribute.String("scenario", cfg.Name),
		attribute.Int("nodes", cfg.Nodes.Count),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if s.metrics, err = observability.NewMetrics(nil); err != nil {
		return s, err
	}
	s.d = dispatcher.NewDispatcher(dispatcher.DefaultConfig(), s.metrics)
	logger.SetClock(s.d)

	steps := []func() error{
		s.setupTopology,
		s.setupMobility,
		s.setupRouting,
		s.setupNetwork,
		s.setupFailures,
		s.setupTraffic,
		s.setupTrace,
	}
	for _, step := range steps {
		if err = step(); err != nil {
			return s, err
		}
	}
	s.kpiMgr.Init(s)

	logger.Infof("simulation %s (%s): %d nodes, %d links, routing %s, %d applications, stop at %s",
		s.id, cfg.Name, s.topo.NumNodes(), len(s.topo.Links()), s.router.Name(), len(s.apps),
		FormatSeconds(cfg.StopTime()))
	return s, nil
}

func (s *Simulation) needsOutputDir() bool {
	o := &s.cfg.Output
	return o.Csv || o.Sqlite || o.Kpi || o.Metrics || o.Spans || o.Nodes ||
		s.cfg.pcapFrameType() != pcap.FrameTypeOff
}

func (s *Simulation) outputPath(name string) string {
	return filepath.Join(s.cfg.Output.Dir, name)
}

func (s *Simulation) initTracing() error {
	tc := observability.TracingConfig{
		Enabled:     s.cfg.Output.Spans,
		ServiceName: "manet-ns",
	}
	if tc.Enabled {
		f, err := os.Create(s.outputPath(s.id + "_spans.json"))
		if err != nil {
			return errors.Wrapf(err, "create span file")
		}
		s.spanFile = f
		tc.Writer = f
	}
	shutdown, err := observability.InitTracing(s.ctx, tc)
	if err != nil {
		return err
	}
	s.tracingShutdown = shutdown
	return nil
}

func (s *Simulation) setupTopology() error {
	cfg := s.cfg
	s.topo = topology.New(netip.MustParsePrefix(cfg.Network.Prefix))
	for i := 0; i < cfg.Nodes.Count; i++ {
		if _, err := s.topo.AddNode(); err != nil {
			return err
		}
	}
	for i, a := range cfg.Nodes.Addresses {
		if err := s.topo.AssignAddress(i, netip.MustParseAddr(a)); err != nil {
			return err
		}
	}

	links := &cfg.Links
	if links.Chain != nil {
		for i := 0; i+1 < cfg.Nodes.Count; i++ {
			if err := s.addLink(i, i+1, links.Chain); err != nil {
				return err
			}
		}
	}
	if links.Star != nil {
		for i := 0; i < cfg.Nodes.Count; i++ {
			if i == links.Star.Center {
				continue
			}
			if err := s.addLink(links.Star.Center, i, &links.Star.LinkSpec); err != nil {
				return err
			}
		}
	}
	for i := range links.List {
		if err := s.addLink(links.List[i].A, links.List[i].B, &links.List[i].LinkSpec); err != nil {
			return err
		}
	}

	if m := cfg.Medium; m != nil {
		model, err := radiomodel.Create(m.Model, m.Range)
		if err != nil {
			return err
		}
		s.topo.SetMedium(m.Rate.Bps(), m.Delay.Us(), model)
		for _, id := range s.topo.Nodes() {
			if !m.attaches(id) {
				continue
			}
			if err = s.topo.AttachMedium(id, m.Range); err != nil {
				return err
			}
		}
	}
	if w := cfg.Watch; w != nil {
		lv, err := w.level()
		if err != nil {
			return err
		}
		for _, id := range w.Nodes {
			s.topo.Logger(id).SetLevel(lv)
		}
	}
	return nil
}

func (s *Simulation) addLink(a, b NodeId, spec *LinkSpec) error {
	_, err := s.topo.AddLink(a, b, spec.Rate.Bps(), spec.Delay.Us())
	return err
}

func (s *Simulation) setupMobility() error {
	s.mobility = mobility.NewManager(s.d, s.topo, s.bus)
	placement := newPlacement(&s.cfg.Placement, s.rnd.NewNodeRandom(InvalidNodeId))
	for _, id := range s.topo.Nodes() {
		model := newMobilityModel(&s.cfg.Mobility, id, placement.Next(), s.rnd.NewNodeRandom(id))
		if err := s.mobility.Install(id, model); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulation) setupRouting() error {
	router, err := routing.New(s.cfg.Routing, s.topo)
	if err != nil {
		return err
	}
	s.router = router
	for _, id := range s.topo.Nodes() {
		h, err := router.Install(id)
		if err != nil {
			return errors.Wrapf(err, "install %s on node %d", router.Name(), id)
		}
		node, _ := s.topo.Node(id)
		node.RoutingHandle = h
	}
	return nil
}

func (s *Simulation) setupNetwork() error {
	nc := &network.Config{
		MaxHops:       s.cfg.Network.MaxHops,
		LossRatio:     s.cfg.Network.LossRatio,
		Serialization: s.cfg.Network.Serialization,
	}
	var unitRand func() float64
	if nc.LossRatio > 0 {
		unitRand = s.rnd.NewUnitRandom
	}
	s.net = network.New(nc, s.d, s.topo, s.router, s.bus, unitRand)
	return nil
}

func (s *Simulation) setupFailures() error {
	fc := s.cfg.Failures
	if fc == nil || fc.Duration.Us() == 0 {
		return nil
	}
	nodes := fc.Nodes
	if len(nodes) == 0 {
		nodes = s.topo.Nodes()
	}
	failTime := dispatcher.FailTime{
		FailDuration: fc.Duration.Us(),
		FailInterval: fc.Interval.Us(),
	}
	for _, id := range nodes {
		s.failures = append(s.failures, dispatcher.NewFailureCtrl(s.d, id, failTime, s.rnd, s.onNodeFailure))
	}
	return nil
}

func (s *Simulation) onNodeFailure(id NodeId, failed bool) {
	logger.Debugf("node %d failed=%v", id, failed)
	s.topo.SetFailed(id, failed)
}

func (s *Simulation) setupTraffic() error {
	for i := range s.cfg.Traffic {
		tc := &s.cfg.Traffic[i]
		app := newApplication(tc)
		if err := app.Install(s.net); err != nil {
			return errors.Wrapf(err, "install %s on node %d", app.Name(), app.NodeId())
		}
		s.apps = append(s.apps, app)
	}
	return nil
}

func newApplication(tc *TrafficConfig) traffic.Application {
	switch tc.Type {
	case traffic.NameSink:
		return traffic.NewSink(traffic.SinkConfig{
			Node:  tc.Node,
			Port:  tc.port(),
			Start: tc.Start.Us(),
			Stop:  tc.Stop.Us(),
			Echo:  tc.Echo,
		})
	case traffic.NameConstantRateOnOff:
		return traffic.NewConstantRateOnOff(traffic.ConstantRateOnOffConfig{
			Node:       tc.Src,
			Remote:     tc.Dst,
			RemotePort: tc.port(),
			Rate:       tc.Rate.Bps(),
			PacketSize: tc.Size,
			Start:      tc.Start.Us(),
			Stop:       tc.Stop.Us(),
			OnTime:     tc.On.Us(),
			OffTime:    tc.Off.Us(),
			MaxBytes:   tc.MaxBytes,
		})
	case traffic.NameFixedCountClient:
		return traffic.NewFixedCountClient(traffic.FixedCountClientConfig{
			Node:        tc.Src,
			Remote:      tc.Dst,
			RemotePort:  tc.port(),
			Interval:    tc.Interval.Us(),
			MaxPackets:  tc.Count,
			PacketSize:  tc.Size,
			Start:       tc.Start.Us(),
			Stop:        tc.Stop.Us(),
			CountEchoes: tc.Echo,
		})
	default:
		logger.Panicf("unknown traffic type %q", tc.Type)
		return nil
	}
}

// setupTrace subscribes the collector and metrics, then opens the output sinks.
func (s *Simulation) setupTrace() error {
	s.collector = trace.NewCollector()
	s.collector.Subscribe(s.bus)
	s.metrics.Subscribe(s.bus)

	out := &s.cfg.Output
	if out.Csv {
		w, err := trace.NewCSVWriter(s.outputPath(trace.PositionsFileName), s.outputPath(trace.PacketsFileName), out.Addressed)
		if err != nil {
			return err
		}
		w.AddrOf = func(id NodeId) string {
			return s.nodeAddr(id).String()
		}
		s.sinks = append(s.sinks, w)
	}
	if out.Sqlite {
		w, err := trace.NewSQLiteWriter(s.outputPath(s.id + ".sqlite3"))
		if err != nil {
			return err
		}
		s.sinks = append(s.sinks, w)
	}
	if ft := s.cfg.pcapFrameType(); ft != pcap.FrameTypeOff {
		w, err := trace.NewPcapWriter(s.outputPath(s.id+".pcap"), ft, s.nodeAddr)
		if err != nil {
			return err
		}
		s.sinks = append(s.sinks, w)
	}
	return nil
}

func (s *Simulation) nodeAddr(id NodeId) netip.Addr {
	node, err := s.topo.Node(id)
	if err != nil {
		return netip.Addr{}
	}
	return node.Addr
}

// abortSetup releases what a failed setup already opened and deletes the files it created, so a
// failed setup leaves no partial output.
func (s *Simulation) abortSetup() {
	for _, sink := range s.sinks {
		if err := sink.Remove(); err != nil {
			logger.Warnf("remove %s sink: %v", sink.Name(), err)
		}
	}
	s.sinks = nil
	observability.ShutdownWithTimeout(context.Background(), s.tracingShutdown)
	if s.spanFile != nil {
		_ = s.spanFile.Close()
		if err := os.Remove(s.spanFile.Name()); err != nil {
			logger.Warnf("remove span file: %v", err)
		}
	}
	if s.createdDir {
		// fails, and keeps the directory, if anything else was put there meanwhile
		_ = os.Remove(s.cfg.Output.Dir)
	}
	logger.SetClock(nil)
}

func (s *Simulation) closeSinks() error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			logger.Errorf("close %s sink: %v", sink.Name(), err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	s.sinks = nil
	return firstErr
}

// Run drives the event loop to the stop time. Cancelling the context stops it early; the error then
// reports the interruption and Teardown still writes what was recorded.
func (s *Simulation) Run() error {
	logger.AssertFalse(s.ran, "simulation %s already ran", s.id)
	s.ran = true

	_, span := observability.Tracer().Start(s.ctx, "run")
	defer span.End()

	s.mobility.Start()
	for _, fc := range s.failures {
		fc.Start()
	}
	s.kpiMgr.Start()

	err := s.d.RunUntil(s.ctx, s.cfg.StopTime())

	s.mobility.Stop()
	for _, fc := range s.failures {
		fc.Stop()
	}
	s.kpiMgr.Stop(err)
	span.SetAttributes(
		attribute.Int64("events.fired", int64(s.d.Counters.EventsFired)),
		attribute.Int64("packets.sent", int64(s.net.Counters.PacketsSent)),
		attribute.Int64("packets.dropped", int64(s.net.Counters.PacketsDropped)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errors.Wrapf(err, "simulation interrupted at %s", FormatSeconds(s.d.CurTime))
	}
	logger.Infof("simulation %s finished: %d events, %d packets sent, %d delivered, %d dropped", s.id,
		s.d.Counters.EventsFired, s.net.Counters.PacketsSent, s.net.Counters.PacketsDelivered,
		s.net.Counters.PacketsDropped)
	return nil
}

// Teardown flushes the trace once and writes all outputs. Later calls do nothing.
func (s *Simulation) Teardown() error {
	if s.tornDown {
		return nil
	}
	s.tornDown = true
	defer logger.SetClock(nil)

	_, span := observability.Tracer().Start(s.ctx, "teardown")
	var firstErr error
	keep := func(err error) {
		if err == nil {
			return
		}
		logger.Errorf("teardown: %v", err)
		span.RecordError(err)
		if firstErr == nil {
			firstErr = err
		}
	}

	records, err := s.collector.Flush()
	keep(err)
	if err == nil {
		s.records = records
		for _, sink := range s.sinks {
			keep(errors.Wrapf(sink.Write(records), "%s sink", sink.Name()))
		}
		s.kpiMgr.AddRecords(records, s.cfg.Output.BinWidth.Us())
	}
	keep(s.closeSinks())

	if s.cfg.Output.Kpi {
		keep(s.kpiMgr.SaveDefaultFile())
	}
	if s.cfg.Output.Metrics {
		keep(s.metrics.WriteFile(s.outputPath(s.id + "_metrics.prom")))
	}
	if s.cfg.Output.Nodes {
		keep(s.WriteNodesFile(s.outputPath(s.id + "_nodes.yaml")))
	}

	if firstErr != nil {
		span.SetStatus(codes.Error, firstErr.Error())
	}
	span.End()
	observability.ShutdownWithTimeout(context.Background(), s.tracingShutdown)
	if s.spanFile != nil {
		keep(s.spanFile.Close())
	}
	return firstErr
}

func (s *Simulation) Id() string {
	return s.id
}

func (s *Simulation) Config() *Config {
	return s.cfg
}

func (s *Simulation) Dispatcher() *dispatcher.Dispatcher {
	return s.d
}

func (s *Simulation) Topology() *topology.Topology {
	return s.topo
}

func (s *Simulation) Mobility() *mobility.Manager {
	return s.mobility
}

func (s *Simulation) Router() routing.Adapter {
	return s.router
}

func (s *Simulation) Network() *network.Network {
	return s.net
}

func (s *Simulation) Apps() []traffic.Application {
	return s.apps
}

func (s *Simulation) Metrics() *observability.Metrics {
	return s.metrics
}

func (s *Simulation) Kpi() *KpiManager {
	return s.kpiMgr
}

// Records returns the flushed trace, or nil before Teardown.
func (s *Simulation) Records() *trace.Records {
	return s.records
}

func (s *Simulation) String() string {
	return fmt.Sprintf("Simulation{%s,%s,t=%s}", s.id, s.cfg.Name, FormatSeconds(s.d.CurTime))
}
