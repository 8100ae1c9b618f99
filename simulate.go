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

// SimulateNestedCalls drives mtraceEntry/mtraceExit directly through a
// synthetic chain of depth nested calls, standing in for a real -pg
// instrumented call chain that would otherwise reach these functions
// through mcount_amd64.s / return_amd64.s. cmd/mtrace uses this to
// exercise Init/Enable/Disable/DumpFullUftrace without an actual
// instrumented binary to link against.
//
// Addresses and stack-pointer values are fabricated but internally
// consistent: each level's synthetic caller frame pointer is strictly
// below its parent's, matching the real invariant that stack grows
// down, so the shadow-stack desync check in shadow.go behaves exactly
// as it would for a real call chain.
func SimulateNestedCalls(depth int) {
	const baseCallerSP = uint64(1) << 40
	const baseReturnAddr = uint64(0x400000)
	simulateCall(depth, baseCallerSP, baseReturnAddr)
}

func simulateCall(remaining int, callerSP, returnAddr uint64) {
	if remaining <= 0 {
		return
	}

	slot := returnAddr
	mtraceEntry(&slot, callerSP)

	simulateCall(remaining-1, callerSP-0x1000, returnAddr+0x10)

	mtraceExit(callerSP)
}
