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

package dispatcher

import (
	"github.com/openmanet/manet-ns/logger"
	. "github.com/openmanet/manet-ns/types"
)

// FailTime represents a node fail time configuration.
type FailTime struct {
	FailDuration uint64 // Expected fail duration (us)
	FailInterval uint64 // Expected fail interval (us)
}

// CanFail returns if the node can ever fail using this configuration.
func (ft FailTime) CanFail() bool {
	return ft.FailDuration > 0
}

var (
	// NonFailTime is a fail time configuration that never fail.
	NonFailTime = FailTime{0, 0}
)

// FailTimeSource draws the failure offset within each fail interval.
type FailTimeSource interface {
	NewFailTime(failStartTimeMax uint64) uint64
}

// FailureCtrl fails and recovers one node: once per FailInterval the node is down for
// FailDuration, starting at a random offset within the interval. Transitions are dispatcher events.
type FailureCtrl struct {
	d         *Dispatcher
	node      NodeId
	failTime  FailTime
	rnd       FailTimeSource
	isFailed  bool
	remainTm  uint64 // time that remains in this fail cycle after failure has ended
	next      EventHandle
	onChange  func(node NodeId, failed bool)
	FailCount uint64
}

func NewFailureCtrl(d *Dispatcher, node NodeId, failTime FailTime, rnd FailTimeSource, onChange func(NodeId, bool)) *FailureCtrl {
	if failTime.CanFail() {
		logger.AssertTrue(failTime.FailInterval > failTime.FailDuration,
			"fail interval %d must exceed fail duration %d", failTime.FailInterval, failTime.FailDuration)
	}
	return &FailureCtrl{
		d:        d,
		node:     node,
		failTime: failTime,
		rnd:      rnd,
		onChange: onChange,
	}
}

func (fc *FailureCtrl) IsFailed() bool {
	return fc.isFailed
}

// Start schedules the first failure of the node.
func (fc *FailureCtrl) Start() {
	if !fc.failTime.CanFail() {
		return
	}
	fc.scheduleNextFailure()
}

// Stop cancels the pending transition and recovers the node.
func (fc *FailureCtrl) Stop() {
	if fc.next.IsValid() {
		_ = fc.d.Cancel(fc.next)
	}
	if fc.isFailed {
		fc.recover()
	}
}

func (fc *FailureCtrl) scheduleNextFailure() {
	failStartTimeMax := fc.failTime.FailInterval - fc.failTime.FailDuration
	failTsRel := fc.rnd.NewFailTime(failStartTimeMax)
	delay := failTsRel + fc.remainTm
	fc.remainTm = failStartTimeMax - failTsRel
	logger.AssertTrue(fc.remainTm < fc.failTime.FailInterval)
	fc.next = fc.d.Schedule(delay, fc.fail)
}

func (fc *FailureCtrl) fail() {
	fc.isFailed = true
	fc.FailCount++
	logger.Debugf("node %d failed", fc.node)
	if fc.onChange != nil {
		fc.onChange(fc.node, true)
	}
	fc.next = fc.d.Schedule(fc.failTime.FailDuration, func() {
		fc.recover()
		fc.scheduleNextFailure()
	})
}

func (fc *FailureCtrl) recover() {
	fc.isFailed = false
	logger.Debugf("node %d recovered", fc.node)
	if fc.onChange != nil {
		fc.onChange(fc.node, false)
	}
}
