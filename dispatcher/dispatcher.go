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
	"context"

	"github.com/pkg/errors"

	"github.com/openmanet/manet-ns/logger"
	. "github.com/openmanet/manet-ns/types"
)

// EventHandle identifies a scheduled event. The zero value was never issued.
type EventHandle struct {
	seq uint64
}

// IsValid returns whether the handle was issued by a dispatcher.
func (h EventHandle) IsValid() bool {
	return h.seq != 0
}

// CallbackHandler observes the dispatcher loop.
type CallbackHandler interface {
	// OnEventFired is called after an event action returns.
	OnEventFired(ts uint64)
	// OnEventsDiscarded is called when a run ends with events still queued.
	OnEventsDiscarded(count int)
}

type Counters struct {
	EventsScheduled uint64
	EventsFired     uint64
	EventsCancelled uint64
	EventsDiscarded uint64
}

// Dispatcher is the virtual-time event scheduler. Events fire in (timestamp, seq) order, so events
// at equal timestamps fire in the order they were scheduled. All state is owned by the goroutine
// calling RunUntil; actions run on that goroutine and may schedule or cancel further events.
type Dispatcher struct {
	cfg       Config
	cbHandler CallbackHandler
	CurTime   uint64
	lastSeq   uint64
	events    *eventMgr
	running   bool
	Counters  Counters
}

func NewDispatcher(cfg *Config, cbHandler CallbackHandler) *Dispatcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	d := &Dispatcher{
		cfg:       *cfg,
		cbHandler: cbHandler,
		events:    newEventMgr(),
	}
	logger.Debugf("dispatcher created: cfg=%+v", *cfg)
	return d
}

// Now returns the current virtual time (us).
func (d *Dispatcher) Now() uint64 {
	return d.CurTime
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	return d.events.Len()
}

// NextTimestamp returns the timestamp of the next queued event, or Ever.
func (d *Dispatcher) NextTimestamp() uint64 {
	return d.events.NextTimestamp()
}

// Schedule queues action to fire delay microseconds from now.
func (d *Dispatcher) Schedule(delay uint64, action func()) EventHandle {
	return d.ScheduleAt(AddTime(d.CurTime, delay), action)
}

// ScheduleAt queues action to fire at the absolute time ts. Times in the past are moved to now.
func (d *Dispatcher) ScheduleAt(ts uint64, action func()) EventHandle {
	logger.AssertNotNil(action)
	if ts < d.CurTime {
		ts = d.CurTime
	}
	d.lastSeq++
	d.events.Add(&scheduledEvent{
		Timestamp: ts,
		Seq:       d.lastSeq,
		action:    action,
	})
	d.Counters.EventsScheduled++
	return EventHandle{seq: d.lastSeq}
}

// Cancel removes a pending event. Cancelling an event that already fired, was cancelled or was
// discarded is a no-op. Handles this dispatcher never issued yield ErrInvalidHandle.
func (d *Dispatcher) Cancel(h EventHandle) error {
	if h.seq == 0 || h.seq > d.lastSeq {
		return errors.Wrapf(ErrInvalidHandle, "cancel seq %d", h.seq)
	}
	if d.events.Remove(h.seq) {
		d.Counters.EventsCancelled++
	}
	return nil
}

// RunUntil fires events in order until the queue is empty or the next event is later than
// stopTime. Events left in the queue are discarded without firing and the clock ends at stopTime.
// The context is checked between events.
func (d *Dispatcher) RunUntil(ctx context.Context, stopTime uint64) error {
	if d.running {
		return errors.Errorf("dispatcher is already running")
	}
	d.running = true
	defer func() {
		d.running = false
	}()

	var err error
	var fired uint64
	for {
		if err = ctx.Err(); err != nil {
			break
		}
		if d.events.NextTimestamp() > stopTime {
			break
		}
		if d.cfg.MaxEvents > 0 && fired >= d.cfg.MaxEvents {
			err = errors.Errorf("event limit %d reached at %d us", d.cfg.MaxEvents, d.CurTime)
			break
		}
		d.processNextEvent()
		fired++
	}

	if discarded := d.events.Clear(); discarded > 0 {
		d.Counters.EventsDiscarded += uint64(discarded)
		logger.Debugf("discarded %d events scheduled after %d us", discarded, stopTime)
		if d.cbHandler != nil {
			d.cbHandler.OnEventsDiscarded(discarded)
		}
	}
	if err == nil && stopTime != Ever && d.CurTime < stopTime {
		d.advanceTime(stopTime)
	}
	return err
}

func (d *Dispatcher) processNextEvent() {
	e := d.events.PopNext()
	d.advanceTime(e.Timestamp)
	if d.cfg.TraceEvents {
		logger.Tracef("fire event seq=%d ts=%d", e.Seq, e.Timestamp)
	}
	e.action()
	d.Counters.EventsFired++
	if d.cbHandler != nil {
		d.cbHandler.OnEventFired(e.Timestamp)
	}
}

func (d *Dispatcher) advanceTime(ts uint64) {
	logger.AssertTrue(d.CurTime <= ts, "%v > %v", d.CurTime, ts)
	d.CurTime = ts
}
