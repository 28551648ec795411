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
	"net/netip"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openmanet/manet-ns/cli"
	"github.com/openmanet/manet-ns/logger"
	"github.com/openmanet/manet-ns/mobility"
	"github.com/openmanet/manet-ns/network"
	"github.com/openmanet/manet-ns/pcap"
	"github.com/openmanet/manet-ns/radiomodel"
	"github.com/openmanet/manet-ns/routing"
	"github.com/openmanet/manet-ns/topology"
	"github.com/openmanet/manet-ns/traffic"
	. "github.com/openmanet/manet-ns/types"
)

const (
	DefaultRouting   = routing.NameShortestPath
	DefaultStopTime  = 10 * Second
	DefaultOutputDir = "out"
	DefaultPort      = 9
)

// Config is a simulation scenario, usually loaded from a YAML file.
type Config struct {
	Name      string          `yaml:"name"`
	Seed      int64           `yaml:"seed"`
	Stop      cli.Duration    `yaml:"stop"`
	Routing   string          `yaml:"routing"`
	Network   NetworkConfig   `yaml:"network"`
	Nodes     NodesConfig     `yaml:"nodes"`
	Links     LinksConfig     `yaml:"links"`
	Medium    *MediumConfig   `yaml:"medium,omitempty"`
	Placement PlacementConfig `yaml:"placement"`
	Mobility  MobilityConfig  `yaml:"mobility"`
	Failures  *FailureConfig  `yaml:"failures,omitempty"`
	Watch     *WatchConfig    `yaml:"watch,omitempty"`
	Traffic   []TrafficConfig `yaml:"traffic"`
	Output    OutputConfig    `yaml:"output"`
}

type NetworkConfig struct {
	Prefix        string  `yaml:"prefix"`
	MaxHops       int     `yaml:"max-hops"`
	LossRatio     float64 `yaml:"loss-ratio"`
	Serialization bool    `yaml:"serialization"`
}

type NodesConfig struct {
	Count int `yaml:"count"`
	// Addresses optionally assigns explicit addresses to the first nodes.
	Addresses []string `yaml:"addresses,omitempty"`
}

type LinkSpec struct {
	Rate  cli.DataRate `yaml:"rate"`
	Delay cli.Duration `yaml:"delay"`
}

type LinkEntry struct {
	A        NodeId `yaml:"a"`
	B        NodeId `yaml:"b"`
	LinkSpec `yaml:",inline"`
}

type StarSpec struct {
	Center   NodeId `yaml:"center"`
	LinkSpec `yaml:",inline"`
}

type LinksConfig struct {
	// Chain links node i to node i+1.
	Chain *LinkSpec `yaml:"chain,omitempty"`
	// Star links the center to every other node.
	Star *StarSpec   `yaml:"star,omitempty"`
	List []LinkEntry `yaml:"list,omitempty"`
}

type MediumConfig struct {
	Rate  cli.DataRate `yaml:"rate"`
	Delay cli.Duration `yaml:"delay"`
	Model string       `yaml:"model"`
	Range float64      `yaml:"range"`
	// Nodes lists the nodes on the medium; empty means all.
	Nodes []NodeId `yaml:"nodes,omitempty"`
}

type GridConfig struct {
	MinX   float64 `yaml:"min-x"`
	MinY   float64 `yaml:"min-y"`
	DeltaX float64 `yaml:"delta-x"`
	DeltaY float64 `yaml:"delta-y"`
	Width  int     `yaml:"width"`
	Layout string  `yaml:"layout,omitempty"` // row-first or column-first
}

type PlacementConfig struct {
	Grid *GridConfig `yaml:"grid,omitempty"`
	// Random draws positions uniformly within [x-min, x-max, y-min, y-max].
	Random []float64 `yaml:"random,omitempty"`
	// List gives explicit positions, in node order.
	List [][3]float64 `yaml:"list,omitempty"`
}

type MobilityConfig struct {
	Model    string       `yaml:"model"`
	Speed    []float64    `yaml:"speed,omitempty"`  // [min, max] m/s
	Bounds   []float64    `yaml:"bounds,omitempty"` // [x-min, x-max, y-min, y-max]
	Pause    cli.Duration `yaml:"pause"`
	PauseMax cli.Duration `yaml:"pause-max"`
	Mode     string       `yaml:"mode,omitempty"` // distance or time
	Distance float64      `yaml:"distance"`
	Time     cli.Duration `yaml:"time"`
	// Nodes lists the mobile nodes; empty means all. Other nodes stay static.
	Nodes []NodeId `yaml:"nodes,omitempty"`
}

type FailureConfig struct {
	Duration cli.Duration `yaml:"fail-duration"`
	Interval cli.Duration `yaml:"fail-interval"`
	Nodes    []NodeId     `yaml:"nodes,omitempty"`
}

// WatchConfig raises the log level of individual nodes above the global level.
type WatchConfig struct {
	Nodes []NodeId `yaml:"nodes"`
	Level string   `yaml:"level,omitempty"` // debug when empty
}

func (w *WatchConfig) level() (logger.Level, error) {
	if w.Level == "" {
		return logger.DebugLevel, nil
	}
	return logger.ParseLevelString(w.Level)
}

type TrafficConfig struct {
	Type     string       `yaml:"type"`
	Src      NodeId       `yaml:"src"`
	Dst      NodeId       `yaml:"dst"`
	Node     NodeId       `yaml:"node"`
	Port     uint16       `yaml:"port"`
	Rate     cli.DataRate `yaml:"rate"`
	Size     int          `yaml:"size"`
	Interval cli.Duration `yaml:"interval"`
	Count    uint64       `yaml:"count"`
	Start    cli.Duration `yaml:"start"`
	Stop     cli.Duration `yaml:"stop"`
	On       cli.Duration `yaml:"on"`
	Off      cli.Duration `yaml:"off"`
	MaxBytes uint64       `yaml:"max-bytes"`
	Echo     bool         `yaml:"echo"`
}

type OutputConfig struct {
	Dir       string       `yaml:"dir"`
	Csv       bool         `yaml:"csv"`
	Addressed bool         `yaml:"addressed"`
	Sqlite    bool         `yaml:"sqlite"`
	Pcap      string       `yaml:"pcap"` // off, ipv4 or ethernet
	Kpi       bool         `yaml:"kpi"`
	Metrics   bool         `yaml:"metrics"`
	Spans     bool         `yaml:"spans"`
	Nodes     bool         `yaml:"nodes"`
	BinWidth  cli.Duration `yaml:"bin-width"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:    "manet-ns",
		Seed:    1,
		Stop:    cli.Duration(DefaultStopTime),
		Routing: DefaultRouting,
		Network: NetworkConfig{
			Prefix:  topology.DefaultPrefix.String(),
			MaxHops: network.DefaultMaxHops,
		},
		Mobility: MobilityConfig{
			Model: mobility.NameStatic,
		},
		Output: OutputConfig{
			Dir:      DefaultOutputDir,
			Csv:      true,
			Pcap:     pcap.FrameTypeOffStr,
			Kpi:      true,
			BinWidth: cli.Duration(Second),
		},
	}
}

// LoadConfig reads a scenario file. Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scenario")
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse scenario")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders the scenario as YAML.
func (cfg *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(cfg)
}

func (cfg *Config) StopTime() uint64 {
	return cfg.Stop.Us()
}

func (cfg *Config) validNode(id NodeId) bool {
	return id >= 0 && id < cfg.Nodes.Count
}

// Validate checks the scenario for errors that would make setup fail.
func (cfg *Config) Validate() error {
	if cfg.Nodes.Count <= 0 {
		return errors.Errorf("scenario %q: no nodes", cfg.Name)
	}
	if cfg.Stop.Us() == 0 || cfg.Stop.Us() == Ever {
		return errors.Errorf("scenario %q: stop time must be finite and positive", cfg.Name)
	}
	if !cfg.knownRouting() {
		return errors.Errorf("unknown routing %q, available: %v", cfg.Routing, routing.Names())
	}
	if _, err := netip.ParsePrefix(cfg.Network.Prefix); err != nil {
		return errors.Wrapf(err, "network prefix")
	}
	if cfg.Network.LossRatio < 0 || cfg.Network.LossRatio > 1 {
		return errors.Errorf("loss ratio %v not within [0, 1]", cfg.Network.LossRatio)
	}
	for _, addr := range cfg.Nodes.Addresses {
		if _, err := netip.ParseAddr(addr); err != nil {
			return errors.Wrapf(err, "node address")
		}
	}
	if len(cfg.Nodes.Addresses) > cfg.Nodes.Count {
		return errors.Errorf("%d addresses for %d nodes", len(cfg.Nodes.Addresses), cfg.Nodes.Count)
	}
	if err := cfg.validateLinks(); err != nil {
		return err
	}
	if cfg.Medium != nil {
		if _, err := radiomodel.Create(cfg.Medium.Model, cfg.Medium.Range); err != nil {
			return err
		}
		for _, id := range cfg.Medium.Nodes {
			if !cfg.validNode(id) {
				return errors.Wrapf(ErrUnknownNode, "medium node %d", id)
			}
		}
	}
	if err := cfg.validatePlacement(); err != nil {
		return err
	}
	if err := cfg.validateMobility(); err != nil {
		return err
	}
	if cfg.Failures != nil {
		f := cfg.Failures
		if f.Duration.Us() > 0 && f.Interval.Us() <= f.Duration.Us() {
			return errors.Errorf("fail interval %v must exceed fail duration %v", f.Interval, f.Duration)
		}
		for _, id := range f.Nodes {
			if !cfg.validNode(id) {
				return errors.Wrapf(ErrUnknownNode, "failure node %d", id)
			}
		}
	}
	if w := cfg.Watch; w != nil {
		if _, err := w.level(); err != nil {
			return err
		}
		for _, id := range w.Nodes {
			if !cfg.validNode(id) {
				return errors.Wrapf(ErrUnknownNode, "watched node %d", id)
			}
		}
	}
	for i := range cfg.Traffic {
		if err := cfg.validateTraffic(&cfg.Traffic[i]); err != nil {
			return errors.Wrapf(err, "traffic entry %d", i)
		}
	}
	if cfg.pcapFrameType() == pcap.FrameTypeUnknown {
		return errors.Errorf("unknown pcap frame type %q", cfg.Output.Pcap)
	}
	return nil
}

func (cfg *Config) knownRouting() bool {
	for _, name := range routing.Names() {
		if name == cfg.Routing {
			return true
		}
	}
	return false
}

func (cfg *Config) validateLinks() error {
	l := &cfg.Links
	if l.Star != nil && !cfg.validNode(l.Star.Center) {
		return errors.Wrapf(ErrUnknownNode, "star center %d", l.Star.Center)
	}
	for _, e := range l.List {
		if !cfg.validNode(e.A) || !cfg.validNode(e.B) {
			return errors.Wrapf(ErrUnknownNode, "link %d-%d", e.A, e.B)
		}
	}
	if l.Chain == nil && l.Star == nil && len(l.List) == 0 && cfg.Medium == nil && cfg.Nodes.Count > 1 {
		return errors.Errorf("scenario %q: nodes have neither links nor a shared medium", cfg.Name)
	}
	return nil
}

func (cfg *Config) validatePlacement() error {
	p := &cfg.Placement
	if p.Random != nil && len(p.Random) != 4 {
		return errors.Errorf("random placement needs [x-min, x-max, y-min, y-max]")
	}
	if p.Grid != nil && p.Grid.Width <= 0 {
		return errors.Errorf("grid placement needs a positive width")
	}
	if p.Grid != nil && p.Grid.Layout != "" && p.Grid.Layout != "row-first" && p.Grid.Layout != "column-first" {
		return errors.Errorf("unknown grid layout %q", p.Grid.Layout)
	}
	return nil
}

func (cfg *Config) validateMobility() error {
	m := &cfg.Mobility
	switch m.Model {
	case mobility.NameStatic, "":
		return nil
	case mobility.NameRandomWalk, mobility.NameRandomWaypoint:
	default:
		return errors.Errorf("unknown mobility model %q", m.Model)
	}
	if len(m.Speed) != 2 || m.Speed[0] < 0 || m.Speed[1] < m.Speed[0] {
		return errors.Errorf("mobility speed must be [min, max] with 0 <= min <= max")
	}
	if len(m.Bounds) != 4 || m.Bounds[1] < m.Bounds[0] || m.Bounds[3] < m.Bounds[2] {
		return errors.Errorf("mobility bounds must be [x-min, x-max, y-min, y-max]")
	}
	if m.Mode != "" && m.Mode != "distance" && m.Mode != "time" {
		return errors.Errorf("unknown random walk mode %q", m.Mode)
	}
	for _, id := range m.Nodes {
		if !cfg.validNode(id) {
			return errors.Wrapf(ErrUnknownNode, "mobile node %d", id)
		}
	}
	return nil
}

func (cfg *Config) validateTraffic(tc *TrafficConfig) error {
	switch tc.Type {
	case traffic.NameSink:
		if !cfg.validNode(tc.Node) {
			return errors.Wrapf(ErrUnknownNode, "sink node %d", tc.Node)
		}
	case traffic.NameConstantRateOnOff, traffic.NameFixedCountClient:
		if !cfg.validNode(tc.Src) || !cfg.validNode(tc.Dst) {
			return errors.Wrapf(ErrUnknownNode, "%s %d->%d", tc.Type, tc.Src, tc.Dst)
		}
		if tc.Size <= 0 {
			return errors.Errorf("%s: packet size must be positive", tc.Type)
		}
		if tc.Type == traffic.NameConstantRateOnOff && tc.Rate == 0 {
			return errors.Errorf("%s: rate must be positive", tc.Type)
		}
		if tc.Type == traffic.NameFixedCountClient && tc.Interval == 0 && tc.Count != 1 {
			return errors.Errorf("%s: interval must be positive", tc.Type)
		}
	default:
		return errors.Errorf("unknown traffic type %q", tc.Type)
	}
	if tc.Stop.Us() != 0 && tc.Stop.Us() <= tc.Start.Us() {
		return errors.Errorf("%s: stop %v not after start %v", tc.Type, tc.Stop, tc.Start)
	}
	return nil
}

// pcapFrameType also accepts YAML booleans: true writes IPv4 frames.
func (cfg *Config) pcapFrameType() pcap.FrameType {
	switch cfg.Output.Pcap {
	case "false":
		return pcap.FrameTypeOff
	case "true":
		return pcap.FrameTypeIPv4
	default:
		return pcap.ParseFrameTypeStr(cfg.Output.Pcap)
	}
}

func (tc *TrafficConfig) port() uint16 {
	if tc.Port == 0 {
		return DefaultPort
	}
	return tc.Port
}
