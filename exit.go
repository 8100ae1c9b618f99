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

// lostReturn is the platform-provided fallback target used when a
// thread's shadow stack is found empty at pop time: the real caller
// was never recorded, so there is nothing correct to jump to. The assembly shim treats a zero return from mtraceExit as
// "use the address the caller originally would have returned to",
// which on amd64 it recovers from its own saved frame rather than from
// us; we only need to signal "no shadow frame available".
const lostReturn = 0

// mtraceExit is C4's Go-side logic, called from mtraceReturnTrampoline
// (return_amd64.s) after it has saved the function-return registers.
// sp is the BP register observed when the return trampoline fires,
// which the instrumented function's epilogue has restored to the
// caller's frame pointer; it is compared against the frame pointer
// mtraceEntry recorded.
//
// mtraceExit does not check the enable flag: a call that was recorded
// as an Entry while tracing was on must be allowed to complete through
// here even if Disable was called in the meantime.
func mtraceExit(sp uint64) uint64 {
	ts := cycleCounter()

	t := currentTLS()
	frame, ok := popShadowFrame(t, sp)
	if !ok {
		return lostReturn
	}

	tid := threadID(t)
	if buf := activeBuffer.Load(); buf != nil {
		buf.record(tid, ts, frame.returnAddr, KindExit)
	}

	return frame.returnAddr
}
