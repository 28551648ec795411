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
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/openmanet/manet-ns/types"
)

func TestEventMgr_Add(t *testing.T) {
	q := newEventMgr()
	q.Add(&scheduledEvent{Timestamp: 2, Seq: 1})
	q.Add(&scheduledEvent{Timestamp: 1, Seq: 2})
	q.Add(&scheduledEvent{Timestamp: 3, Seq: 3})
	assert.Equal(t, 3, q.Len())
}

func TestEventMgr_NextTimestamp(t *testing.T) {
	q := newEventMgr()
	assert.Equal(t, Ever, q.NextTimestamp())
	q.Add(&scheduledEvent{Timestamp: 2, Seq: 1})
	assert.Equal(t, uint64(2), q.NextTimestamp())
	q.Add(&scheduledEvent{Timestamp: 1, Seq: 2})
	assert.Equal(t, uint64(1), q.NextTimestamp())
	q.Add(&scheduledEvent{Timestamp: 3, Seq: 3})
	assert.Equal(t, uint64(1), q.NextTimestamp())
}

func TestEventMgr_PopNext(t *testing.T) {
	q := newEventMgr()
	assert.Nil(t, q.PopNext())
	assert.Nil(t, q.NextEvent())

	q.Add(&scheduledEvent{Timestamp: 5, Seq: 1})
	q.Add(&scheduledEvent{Timestamp: 5, Seq: 2})
	q.Add(&scheduledEvent{Timestamp: 3, Seq: 3})
	q.Add(&scheduledEvent{Timestamp: 5, Seq: 4})
	q.Add(&scheduledEvent{Timestamp: 9, Seq: 5})

	var seqs []uint64
	for q.Len() > 0 {
		seqs = append(seqs, q.PopNext().Seq)
	}
	assert.Equal(t, []uint64{3, 1, 2, 4, 5}, seqs)
}

func TestEventMgr_Remove(t *testing.T) {
	q := newEventMgr()
	q.Add(&scheduledEvent{Timestamp: 1, Seq: 1})
	q.Add(&scheduledEvent{Timestamp: 2, Seq: 2})
	q.Add(&scheduledEvent{Timestamp: 3, Seq: 3})

	assert.True(t, q.Remove(1))
	assert.False(t, q.Remove(1))
	assert.False(t, q.Remove(42))
	assert.Equal(t, uint64(2), q.NextTimestamp())
	assert.Equal(t, uint64(2), q.PopNext().Seq)
	assert.Equal(t, uint64(3), q.PopNext().Seq)
}

func TestEventMgr_Clear(t *testing.T) {
	q := newEventMgr()
	q.Add(&scheduledEvent{Timestamp: 1, Seq: 1})
	q.Add(&scheduledEvent{Timestamp: 2, Seq: 2})
	assert.Equal(t, 2, q.Clear())
	assert.Equal(t, 0, q.Len())
	assert.False(t, q.Remove(1))
}
