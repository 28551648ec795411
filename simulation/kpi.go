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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/openmanet/manet-ns/logger"
	"github.com/openmanet/manet-ns/trace"
	. "github.com/openmanet/manet-ns/types"
)

type KpiManager struct {
	sim       *Simulation
	data      *Kpi
	isRunning bool
}

func NewKpiManager() *KpiManager {
	km := &KpiManager{}
	return km
}

func (km *KpiManager) Init(sim *Simulation) {
	logger.AssertNil(km.sim)
	logger.AssertFalse(km.isRunning)
	km.sim = sim
	km.data = &Kpi{
		Status:   "ok",
		RunId:    sim.Id(),
		Scenario: sim.cfg.Name,
		Seed:     sim.rnd.RootSeed(),
		Routing:  sim.router.Name(),
		Counters: map[NodeId]NodeCounters{},
	}
}

func (km *KpiManager) Start() {
	logger.AssertNotNil(km.sim)
	km.data.TimeUs.StartTimeUs = km.sim.Dispatcher().CurTime
	km.isRunning = true
}

// Stop ends the KPI period. A non-nil runErr marks the KPIs as taken from an interrupted run.
func (km *KpiManager) Stop(runErr error) {
	if !km.isRunning {
		return
	}
	km.isRunning = false
	if runErr != nil {
		km.data.Status = fmt.Sprintf("interrupted: %v", runErr)
	}
	km.calculateKpis()
}

func (km *KpiManager) IsRunning() bool {
	return km.isRunning
}

// Data returns the KPIs collected so far.
func (km *KpiManager) Data() *Kpi {
	return km.data
}

// AddRecords derives the traffic summary and the per-node counters from the flushed trace.
func (km *KpiManager) AddRecords(records *trace.Records, binWidth uint64) {
	logger.AssertNotNil(km.sim)
	km.data.Traffic = trace.Summarize(records, binWidth)
	perNode := map[NodeId][]NodeCounters{}
	for _, rec := range records.Packets {
		dir := "tx"
		if rec.Direction == DirectionRx {
			dir = "rx"
		}
		perNode[rec.Node] = append(perNode[rec.Node], NodeCounters{
			dir + ".packets": 1,
			dir + ".bytes":   uint64(rec.Size),
		})
	}
	for _, rec := range records.Drops {
		perNode[rec.Node] = append(perNode[rec.Node], NodeCounters{"drop." + rec.Reason: 1})
	}
	for nid, counters := range perNode {
		km.data.Counters[nid] = mergeNodeCounters(counters...)
	}
}

func (km *KpiManager) calculateKpis() {
	d := km.sim.Dispatcher()

	// time
	km.data.TimeUs.EndTimeUs = d.CurTime
	km.data.TimeUs.PeriodUs = km.data.TimeUs.EndTimeUs - km.data.TimeUs.StartTimeUs
	km.data.TimeSec.StartTimeSec = UsToSeconds(km.data.TimeUs.StartTimeUs)
	km.data.TimeSec.EndTimeSec = UsToSeconds(km.data.TimeUs.EndTimeUs)
	km.data.TimeSec.PeriodSec = UsToSeconds(km.data.TimeUs.PeriodUs)

	// scheduler
	km.data.Scheduler = KpiScheduler{
		Scheduled: d.Counters.EventsScheduled,
		Fired:     d.Counters.EventsFired,
		Cancelled: d.Counters.EventsCancelled,
		Discarded: d.Counters.EventsDiscarded,
	}

	// network
	nc := km.sim.Network().Counters
	km.data.Network = KpiNetwork{
		Sent:      nc.PacketsSent,
		Delivered: nc.PacketsDelivered,
		Dropped:   nc.PacketsDropped,
		Drops:     map[string]uint64{},
	}
	for reason, count := range nc.Drops {
		km.data.Network.Drops[reason.String()] = count
	}

	km.data.Mobility.CourseChanges = km.sim.Mobility().CourseChanges()

	// applications
	km.data.Apps = km.data.Apps[:0]
	for _, app := range km.sim.Apps() {
		st := app.Stats()
		km.data.Apps = append(km.data.Apps, KpiApp{
			Type:            app.Name(),
			Node:            app.NodeId(),
			PacketsSent:     st.PacketsSent,
			BytesSent:       st.BytesSent,
			PacketsReceived: st.PacketsReceived,
			BytesReceived:   st.BytesReceived,
			PacketsIgnored:  st.PacketsIgnored,
			PacketsFailed:   st.PacketsFailed,
		})
	}
}

func (km *KpiManager) SaveDefaultFile() error {
	return km.SaveFile(km.getDefaultSaveFileName())
}

func (km *KpiManager) SaveFile(fn string) error {
	logger.AssertNotNil(km.sim)
	if km.isRunning {
		km.calculateKpis()
	}

	km.data.FileTime = time.Now().Format(time.RFC3339)
	data, err := json.MarshalIndent(km.data, "", "    ")
	if err != nil {
		return errors.Wrapf(err, "marshal KPI data")
	}

	if err = os.WriteFile(fn, data, 0644); err != nil {
		return errors.Wrapf(err, "write KPI file %s", fn)
	}
	logger.Infof("KPIs written to %s", fn)
	return nil
}

func (km *KpiManager) getDefaultSaveFileName() string {
	return filepath.Join(km.sim.cfg.Output.Dir, fmt.Sprintf("%s_kpi.json", km.sim.Id()))
}
