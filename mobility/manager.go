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
	"github.com/pkg/errors"

	"github.com/openmanet/manet-ns/dispatcher"
	"github.com/openmanet/manet-ns/event"
	"github.com/openmanet/manet-ns/logger"
	"github.com/openmanet/manet-ns/topology"
	. "github.com/openmanet/manet-ns/types"
)

// minMoveDelay keeps a model that returns a zero delay from spinning at one timestamp.
const minMoveDelay uint64 = 1

// Manager drives the mobility models of all nodes on the dispatcher and keeps the topology positions
// in sync. It implements topology.PositionSource.
type Manager struct {
	d      *dispatcher.Dispatcher
	topo   *topology.Topology
	bus    *event.Bus
	models map[NodeId]Model
	order  []NodeId
	moves  map[NodeId]dispatcher.EventHandle

	courseChanges uint64
	lastMotion    uint64
	started       bool
}

func NewManager(d *dispatcher.Dispatcher, topo *topology.Topology, bus *event.Bus) *Manager {
	m := &Manager{
		d:      d,
		topo:   topo,
		bus:    bus,
		models: map[NodeId]Model{},
		moves:  map[NodeId]dispatcher.EventHandle{},
	}
	topo.SetPositionSource(m)
	return m
}

// Install attaches a model to a node. A node has at most one model.
func (m *Manager) Install(id NodeId, model Model) error {
	if _, err := m.topo.Node(id); err != nil {
		return err
	}
	if _, ok := m.models[id]; ok {
		return errors.Errorf("node %d already has a mobility model", id)
	}
	m.models[id] = model
	m.order = append(m.order, id)
	if err := m.topo.SetPosition(id, model.PositionAt(m.d.Now())); err != nil {
		return err
	}
	if m.started {
		m.scheduleMove(id, 0)
	}
	return nil
}

// Model returns the model installed on a node.
func (m *Manager) Model(id NodeId) (Model, bool) {
	model, ok := m.models[id]
	return model, ok
}

// Start schedules the first move of every model at the current time, in installation order.
func (m *Manager) Start() {
	if m.started {
		return
	}
	m.started = true
	for _, id := range m.order {
		m.scheduleMove(id, 0)
	}
}

// Stop cancels all pending moves. Nodes keep the position they had.
func (m *Manager) Stop() {
	for id, h := range m.moves {
		_ = m.d.Cancel(h)
		delete(m.moves, id)
	}
	m.started = false
}

func (m *Manager) scheduleMove(id NodeId, delay uint64) {
	m.moves[id] = m.d.Schedule(delay, func() {
		m.move(id)
	})
}

func (m *Manager) move(id NodeId) {
	now := m.d.Now()
	model := m.models[id]
	pos, delay := model.NextMove(id, now)
	m.courseChanges++

	logger.PanicIfError(m.topo.SetPosition(id, pos))
	m.topo.Logger(id).Tracef("%s course change at %s: %v, next in %d us", model.Name(), FormatSeconds(now), pos, delay)
	m.bus.EmitPositionChanged(&event.PositionChanged{
		Timestamp: now,
		NodeId:    id,
		Position:  pos,
	})

	if delay == Ever {
		delete(m.moves, id)
		return
	}
	if delay < minMoveDelay {
		delay = minMoveDelay
	}
	m.scheduleMove(id, delay)
}

// Position returns the interpolated position of a node at the current time.
func (m *Manager) Position(id NodeId) (Position, bool) {
	model, ok := m.models[id]
	if !ok {
		return Position{}, false
	}
	return model.PositionAt(m.d.Now()), true
}

// Version changes on every course change and at every instant a node is in motion.
func (m *Manager) Version() uint64 {
	now := m.d.Now()
	for _, id := range m.order {
		if m.models[id].IsMoving(now) {
			m.lastMotion = now
			break
		}
	}
	return m.courseChanges + m.lastMotion
}

// CourseChanges returns the number of course changes so far.
func (m *Manager) CourseChanges() uint64 {
	return m.courseChanges
}
