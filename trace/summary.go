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

package trace

import (
	. "github.com/openmanet/manet-ns/types"
)

// ThroughputBin is the traffic of one time bin.
type ThroughputBin struct {
	Start        uint64 `json:"start_us"`
	TxPackets    uint64 `json:"tx"`
	RxPackets    uint64 `json:"rx"`
	TxBytes      uint64 `json:"tx_bytes"`
	RxBytes      uint64 `json:"rx_bytes"`
	CumulativeRx uint64 `json:"cumulative_rx_bytes"`
}

// Summary condenses a packet trace into key figures.
type Summary struct {
	TxPackets     uint64            `json:"tx"`
	RxPackets     uint64            `json:"rx"`
	TxBytes       uint64            `json:"tx_bytes"`
	RxBytes       uint64            `json:"rx_bytes"`
	Dropped       uint64            `json:"dropped"`
	DropReasons   map[string]uint64 `json:"drop_reasons"`
	DeliveryRatio float64           `json:"delivery_ratio"`
	Matched       uint64            `json:"matched"`
	MeanLatencyUs float64           `json:"avg_latency_us"`
	MaxLatencyUs  uint64            `json:"max_latency_us"`
	BinWidthUs    uint64            `json:"bin_width_us"`
	Throughput    []ThroughputBin   `json:"throughput"`
}

// Summarize computes counts, latency by matching Rx to Tx sequence numbers, and per-bin throughput.
// A binWidth of 0 uses one second.
func Summarize(records *Records, binWidth uint64) *Summary {
	if binWidth == 0 {
		binWidth = Second
	}
	s := &Summary{
		DropReasons: map[string]uint64{},
		BinWidthUs:  binWidth,
	}

	sentAt := map[uint64]uint64{}
	var latencySum uint64
	for _, rec := range records.Packets {
		bin := s.bin(rec.Time)
		switch rec.Direction {
		case DirectionTx:
			s.TxPackets++
			s.TxBytes += uint64(rec.Size)
			bin.TxPackets++
			bin.TxBytes += uint64(rec.Size)
			sentAt[rec.Seq] = rec.Time
		case DirectionRx:
			s.RxPackets++
			s.RxBytes += uint64(rec.Size)
			bin.RxPackets++
			bin.RxBytes += uint64(rec.Size)
			if ts, ok := sentAt[rec.Seq]; ok && ts <= rec.Time {
				latency := rec.Time - ts
				s.Matched++
				latencySum += latency
				if latency > s.MaxLatencyUs {
					s.MaxLatencyUs = latency
				}
			}
		}
	}
	for _, rec := range records.Drops {
		s.Dropped++
		s.DropReasons[rec.Reason]++
	}

	var cumulative uint64
	for i := range s.Throughput {
		cumulative += s.Throughput[i].RxBytes
		s.Throughput[i].CumulativeRx = cumulative
	}
	if s.TxPackets > 0 {
		s.DeliveryRatio = float64(s.RxPackets) / float64(s.TxPackets)
	}
	if s.Matched > 0 {
		s.MeanLatencyUs = float64(latencySum) / float64(s.Matched)
	}
	return s
}

func (s *Summary) bin(ts uint64) *ThroughputBin {
	idx := int(ts / s.BinWidthUs)
	for len(s.Throughput) <= idx {
		s.Throughput = append(s.Throughput, ThroughputBin{Start: uint64(len(s.Throughput)) * s.BinWidthUs})
	}
	return &s.Throughput[idx]
}
