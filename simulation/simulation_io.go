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
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openmanet/manet-ns/logger"
	. "github.com/openmanet/manet-ns/types"
)

type YamlNodeConfig struct {
	ID       NodeId     `yaml:"id"`
	Address  string     `yaml:"address"`
	Position [3]float64 `yaml:"pos,flow"`
	Mobility string     `yaml:"mobility"`
	Medium   bool       `yaml:"medium,omitempty"`
	Links    []LinkId   `yaml:"links,omitempty,flow"`
}

type YamlNodesFile struct {
	Scenario string           `yaml:"scenario"`
	RunId    string           `yaml:"run-id"`
	Time     string           `yaml:"time"`
	Nodes    []YamlNodeConfig `yaml:"nodes"`
}

// ExportNodes describes every node as it is at the current virtual time.
func (s *Simulation) ExportNodes() []YamlNodeConfig {
	res := make([]YamlNodeConfig, 0, s.topo.NumNodes())
	for _, id := range s.topo.Nodes() {
		node, err := s.topo.Node(id)
		logger.PanicIfError(err)
		pos := s.topo.Position(id)
		mobilityName := ""
		if model, ok := s.mobility.Model(id); ok {
			mobilityName = model.Name()
		}
		res = append(res, YamlNodeConfig{
			ID:       id,
			Address:  node.Addr.String(),
			Position: [3]float64{pos.X, pos.Y, pos.Z},
			Mobility: mobilityName,
			Medium:   node.OnMedium,
			Links:    append([]LinkId(nil), node.Links...),
		})
	}
	return res
}

func (s *Simulation) WriteNodesFile(fn string) error {
	data, err := yaml.Marshal(&YamlNodesFile{
		Scenario: s.cfg.Name,
		RunId:    s.id,
		Time:     FormatSeconds(s.d.CurTime),
		Nodes:    s.ExportNodes(),
	})
	if err != nil {
		return errors.Wrapf(err, "marshal nodes")
	}
	if err = os.WriteFile(fn, data, 0644); err != nil {
		return errors.Wrapf(err, "write nodes file %s", fn)
	}
	return nil
}

func LoadNodesFile(fn string) ([]YamlNodeConfig, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		return nil, errors.Wrapf(err, "read nodes file")
	}
	var f YamlNodesFile
	if err = yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse nodes file %s", fn)
	}
	return f.Nodes, nil
}

// ImportNodes makes the scenario start from exported nodes: their count, addresses and positions.
// Nodes must be numbered 0..n-1.
func ImportNodes(cfg *Config, nodes []YamlNodeConfig) error {
	positions := make([][3]float64, len(nodes))
	addrs := make([]string, len(nodes))
	for i, node := range nodes {
		if node.ID != i {
			return errors.Wrapf(ErrUnknownNode, "node %d at index %d", node.ID, i)
		}
		positions[i] = node.Position
		addrs[i] = node.Address
	}
	cfg.Nodes.Count = len(nodes)
	cfg.Nodes.Addresses = addrs
	cfg.Placement = PlacementConfig{List: positions}
	return cfg.Validate()
}
