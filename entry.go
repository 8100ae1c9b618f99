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

// returnTrampolineAddr returns the entry address of the return
// trampoline (mcount_amd64.s / return_amd64.s), so mtraceEntry can
// rewrite the parent's return-address slot to land there. Implemented
// in assembly as a direct `MOVQ $·mtraceReturnTrampoline(SB), AX`; there
// is no portable pure-Go way to take the address of a TEXT symbol.
func returnTrampolineAddr() uint64

// mtraceEntry is C3's Go-side logic. It is called from
// mtraceEntryTrampoline (mcount_amd64.s) with retSlot pointing at the
// location in the caller's frame that holds the return address, and sp
// set to the caller's frame pointer (the saved BP the instrumented
// function pushed), which stands in for the stack pointer at the call
// in the shadow stack's desync check. Every
// register the calling convention requires preserved across an
// ordinary call has already been saved by the assembly shim; this
// function is free to clobber anything.
//
// This must never itself be instrumented. This package does not enforce
// that: as mcount_amd64.s notes, isolating the hook from the
// instrumentation flag is left to build glue outside this package.
func mtraceEntry(retSlot *uint64, sp uint64) {
	ts := cycleCounter()
	r := *retSlot

	if !isEnabled() {
		return
	}

	t := currentTLS()
	tid := threadID(t)

	frame := shadowFrame{returnAddr: r, stackPtr: sp, callsite: r}
	if !pushShadowFrame(t, frame) {
		// Overflow: the real return address must stay intact, and we
		// must not record a half-matched Entry for a call we can't
		// guarantee an Exit for.
		return
	}

	*retSlot = returnTrampolineAddr()

	if buf := activeBuffer.Load(); buf != nil {
		buf.record(tid, ts, r, KindEntry)
	}
}
