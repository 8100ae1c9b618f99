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

import (
	"sort"
	"time"

	"github.com/google/pprof/profile"
)

// addressCounter accumulates self time and call count for one call-site
// address, the same role the teacher's stackCounter plays for a wasm
// stack trace, but keyed by a single instrumented address instead of a
// full inlined-frame stack: a native mcount hook has no DWARF-backed
// call-stack symbolizer available to it, only the addresses it
// observed directly.
type addressCounter struct {
	address   uint64
	count     int64
	selfNanos int64
}

func (c *addressCounter) observe(nanos int64) {
	c.count++
	c.selfNanos += nanos
}

// BuildProfile converts a drained event snapshot into a pprof profile
// with one sample per distinct address, each carrying a "calls" count
// and a "nanoseconds" self-time total. Events are grouped and ordered
// by thread exactly as writeUftraceDir does, since self time can only
// be recovered by pairing each Exit with the Entry it closes out in
// per-thread call order; a ring-buffer snapshot's physical order is not
// reliable for this without the same per-thread sort.
//
// Self time is the difference of Event timestamps as recorded, with no
// conversion: raw cycle counts on amd64 (see cycles.go), nanoseconds
// only on the non-amd64 fallback clock. The "nanoseconds" unit label
// therefore holds only on that fallback.
//
// This is a bonus export path, not part of the uftrace writer: nothing
// in DumpFullUftrace calls it.
func BuildProfile(events []Event, start time.Time, duration time.Duration) *profile.Profile {
	byThread := groupByThread(events)

	counters := make(map[uint64]*addressCounter)
	lookup := func(addr uint64) *addressCounter {
		c := counters[addr]
		if c == nil {
			c = &addressCounter{address: addr}
			counters[addr] = c
		}
		return c
	}

	type openCall struct {
		address  uint64
		entryTS  uint64
		childDur uint64 // total duration of calls nested inside this one
	}

	for _, tid := range byThread.order {
		var stack []openCall
		for _, e := range byThread.events[tid] {
			switch e.Kind {
			case KindEntry:
				stack = append(stack, openCall{address: e.Address, entryTS: e.Timestamp})
			case KindExit:
				if len(stack) == 0 {
					continue
				}
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if e.Timestamp >= top.entryTS {
					dur := e.Timestamp - top.entryTS
					self := uint64(0)
					if dur > top.childDur {
						self = dur - top.childDur
					}
					lookup(top.address).observe(int64(self))
					if len(stack) > 0 {
						stack[len(stack)-1].childDur += dur
					}
				}
			}
		}
	}

	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "calls", Unit: "count"},
			{Type: "self", Unit: "nanoseconds"},
		},
		TimeNanos:     start.UnixNano(),
		DurationNanos: int64(duration),
	}

	addrs := make([]uint64, 0, len(counters))
	for addr := range counters {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	prof.Function = make([]*profile.Function, 0, len(addrs))
	prof.Location = make([]*profile.Location, 0, len(addrs))
	prof.Sample = make([]*profile.Sample, 0, len(addrs))

	for i, addr := range addrs {
		id := uint64(i) + 1
		fn := &profile.Function{
			ID:         id,
			Name:       addressName(addr),
			SystemName: addressName(addr),
		}
		loc := &profile.Location{
			ID:      id,
			Address: addr,
			Line:    []profile.Line{{Function: fn}},
		}
		prof.Function = append(prof.Function, fn)
		prof.Location = append(prof.Location, loc)

		c := counters[addr]
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{c.count, c.selfNanos},
		})
	}

	return prof
}

func addressName(addr uint64) string {
	const hex = "0123456789abcdef"
	b := make([]byte, 18)
	b[0], b[1] = '0', 'x'
	for i := 17; i >= 2; i-- {
		b[i] = hex[addr&0xf]
		addr >>= 4
	}
	return string(b)
}
