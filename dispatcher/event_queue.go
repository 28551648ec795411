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
	"container/heap"

	"github.com/openmanet/manet-ns/logger"
	. "github.com/openmanet/manet-ns/types"
)

type scheduledEvent struct {
	Timestamp uint64
	Seq       uint64 // tie-break, lower fires first
	action    func()

	index int
}

type eventQueue []*scheduledEvent

func (eq eventQueue) Len() int {
	return len(eq)
}

func (eq eventQueue) Less(i, j int) bool {
	if eq[i].Timestamp != eq[j].Timestamp {
		return eq[i].Timestamp < eq[j].Timestamp
	}
	return eq[i].Seq < eq[j].Seq
}

func (eq eventQueue) Swap(i, j int) {
	a, b := eq[i], eq[j]
	if a.index != i && b.index != j {
		logger.Panicf("wrong index")
	}

	eq[i], eq[j] = b, a             // swap the elements
	eq[i].index, eq[j].index = i, j // fix the indexes
}

func (eq *eventQueue) Push(x interface{}) {
	e := x.(*scheduledEvent)
	*eq = append(*eq, e)
	e.index = len(*eq) - 1
}

func (eq *eventQueue) Pop() (elem interface{}) {
	eqlen := len(*eq)
	e := (*eq)[eqlen-1]
	(*eq)[eqlen-1] = nil
	*eq = (*eq)[:eqlen-1]
	e.index = -1
	return e
}

// eventMgr keeps pending events in (timestamp, seq) order and indexed by seq for cancellation.
type eventMgr struct {
	q      eventQueue
	events map[uint64]*scheduledEvent
}

func newEventMgr() *eventMgr {
	mgr := &eventMgr{
		q:      eventQueue{},
		events: map[uint64]*scheduledEvent{},
	}

	heap.Init(&mgr.q)
	return mgr
}

func (em *eventMgr) Add(e *scheduledEvent) {
	logger.AssertNil(em.events[e.Seq])
	heap.Push(&em.q, e)
	em.events[e.Seq] = e
}

func (em *eventMgr) Len() int {
	return len(em.q)
}

func (em *eventMgr) NextEvent() *scheduledEvent {
	if len(em.q) == 0 {
		return nil
	}

	return em.q[0]
}

func (em *eventMgr) NextTimestamp() uint64 {
	e := em.NextEvent()
	if e == nil {
		return Ever
	}
	return e.Timestamp
}

func (em *eventMgr) PopNext() *scheduledEvent {
	if len(em.q) == 0 {
		return nil
	}
	e := heap.Pop(&em.q).(*scheduledEvent)
	delete(em.events, e.Seq)
	return e
}

// Remove removes a pending event; returns false if it is not pending.
func (em *eventMgr) Remove(seq uint64) bool {
	e, ok := em.events[seq]
	if !ok {
		return false
	}
	heap.Remove(&em.q, e.index)
	delete(em.events, seq)
	return true
}

// Clear drops all pending events and returns how many were dropped.
func (em *eventMgr) Clear() int {
	n := len(em.q)
	em.q = eventQueue{}
	em.events = map[uint64]*scheduledEvent{}
	return n
}
