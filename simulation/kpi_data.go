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
	"github.com/openmanet/manet-ns/trace"
	. "github.com/openmanet/manet-ns/types"
)

// NodeCounters holds named per-node counters such as "tx.packets".
type NodeCounters map[string]uint64

// Add adds all counters of other to nc.
func (nc NodeCounters) Add(other NodeCounters) {
	for k, v := range other {
		nc[k] += v
	}
}

func mergeNodeCounters(counters ...NodeCounters) NodeCounters {
	res := make(NodeCounters)
	for _, c := range counters {
		res.Add(c)
	}
	return res
}

type KpiTimeUs struct {
	StartTimeUs uint64 `json:"start"`
	EndTimeUs   uint64 `json:"end"`
	PeriodUs    uint64 `json:"duration"`
}

type KpiTimeSec struct {
	StartTimeSec float64 `json:"start"`
	EndTimeSec   float64 `json:"end"`
	PeriodSec    float64 `json:"duration"`
}

type KpiNetwork struct {
	Sent      uint64            `json:"sent"`
	Delivered uint64            `json:"delivered"`
	Dropped   uint64            `json:"dropped"`
	Drops     map[string]uint64 `json:"drops"`
}

type KpiScheduler struct {
	Scheduled uint64 `json:"scheduled"`
	Fired     uint64 `json:"fired"`
	Cancelled uint64 `json:"cancelled"`
	Discarded uint64 `json:"discarded"`
}

type KpiMobility struct {
	CourseChanges uint64 `json:"course_changes"`
}

type KpiApp struct {
	Type            string `json:"type"`
	Node            NodeId `json:"node"`
	PacketsSent     uint64 `json:"tx_packets"`
	BytesSent       uint64 `json:"tx_bytes"`
	PacketsReceived uint64 `json:"rx_packets"`
	BytesReceived   uint64 `json:"rx_bytes"`
	PacketsIgnored  uint64 `json:"ignored_packets"`
	PacketsFailed   uint64 `json:"failed_packets"`
}

type Kpi struct {
	FileTime  string                  `json:"created"`
	RunId     string                  `json:"run_id"`
	Scenario  string                  `json:"scenario"`
	Seed      int64                   `json:"seed"`
	Routing   string                  `json:"routing"`
	Status    string                  `json:"status"`
	TimeUs    KpiTimeUs               `json:"time_us"`
	TimeSec   KpiTimeSec              `json:"time_sec"`
	Traffic   *trace.Summary          `json:"traffic"`
	Network   KpiNetwork              `json:"network"`
	Scheduler KpiScheduler            `json:"scheduler"`
	Mobility  KpiMobility             `json:"mobility"`
	Apps      []KpiApp                `json:"apps"`
	Counters  map[NodeId]NodeCounters `json:"counters"`
}
