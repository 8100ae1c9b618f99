//  Copyright 2023 Stealth Rocket, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mtrace

import "sync/atomic"

// eventBuffer is C2: a fixed-capacity array of events shared by every
// producer thread. Reservation is a single atomic fetch-add; writes to
// a reserved slot are non-atomic but owned exclusively by the producer
// that reserved it, and the Kind field (the field that marks a slot
// "ready") is always written last.
//
// eventBuffer never grows, never blocks, and never retries: it is the
// storage C5 owns and hands to the hot path at Init.
type eventBuffer struct {
	events      []Event
	next        uint64 // atomic
	capacity    uint64
	overwriting bool
}

func newEventBuffer(capacity uint64, overwriting bool) *eventBuffer {
	return &eventBuffer{
		events:      make([]Event, capacity),
		capacity:    capacity,
		overwriting: overwriting,
	}
}

// reserve claims the next slot index for the caller to write into. It
// returns ok=false when the buffer is full in drop-tail mode; in
// overwriting mode it always succeeds, wrapping the index modulo
// capacity so the buffer behaves as a ring.
func (b *eventBuffer) reserve() (index uint64, ok bool) {
	idx := atomic.AddUint64(&b.next, 1) - 1
	if b.overwriting {
		return idx % b.capacity, true
	}
	if idx >= b.capacity {
		return 0, false
	}
	return idx, true
}

// write stores a fully-formed event at index. Kind is assigned last so
// that a slot is never observed half-written.
func (b *eventBuffer) write(index uint64, threadID, timestamp, address uint64, kind Kind) {
	e := &b.events[index]
	e.ThreadID = threadID
	e.Timestamp = timestamp
	e.Address = address
	e.Kind = kind
}

// record reserves a slot and writes the event into it in one step. It
// is the only entry point the hot path (entry.go, exit.go) calls; a
// failed reservation is silently dropped rather than surfaced as an
// error, since the hot path has no error channel to surface it on.
func (b *eventBuffer) record(threadID, timestamp, address uint64, kind Kind) {
	idx, ok := b.reserve()
	if !ok {
		return
	}
	b.write(idx, threadID, timestamp, address, kind)
}

// snapshot returns the events currently stored, in buffer order. It
// must only be called after tracing has been disabled and every thread
// has quiesced: there is no synchronization between a concurrent writer
// and this read.
func (b *eventBuffer) snapshot() []Event {
	n := atomic.LoadUint64(&b.next)
	if n > b.capacity {
		// Either drop-tail stopped reserving past capacity, or ring
		// mode wrapped at least once: either way every live slot is
		// within [0, capacity).
		n = b.capacity
	}
	out := make([]Event, n)
	copy(out, b.events[:n])
	return out
}
