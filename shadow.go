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

// MaxShadowDepth is the compile-time maximum shadow-stack depth per
// thread. It sizes the Go view of the thread-local block in tls_cgo.go /
// tls_nocgo.go. In the cgo build the C block itself is sized separately
// by MT_MAX_DEPTH in tls_cgo.go, which has the same value.
const MaxShadowDepth = 1000

// shadowFrame is the triple pushed by the entry trampoline and popped
// by the return trampoline.
type shadowFrame struct {
	returnAddr uint64 // the real address execution must resume at
	stackPtr   uint64 // caller's frame pointer at the moment of call
	callsite   uint64 // address of the call instruction in the caller
}

// pushShadowFrame pushes f onto the thread's shadow stack. It reports
// false on overflow, in which case the caller must leave the real
// return address untouched and abandon instrumentation for this thread.
func pushShadowFrame(t *tlsBlock, f shadowFrame) bool {
	if t.poisoned != 0 {
		return false
	}
	if int(t.depth) >= MaxShadowDepth {
		t.poisoned = 1
		return false
	}
	t.frames[t.depth] = f
	t.depth++
	return true
}

// popShadowFrame pops the top shadow frame, first discarding any stale
// frames left behind by a non-local unwind (longjmp, exception unwind,
// async cancellation) that bypassed the return trampoline.
//
// A frame is stale when its recorded stackPtr is strictly below
// currentSP (the stack grows down, so a stale frame belongs to a call
// that the running code has already unwound past). Discarded frames
// produce no Exit event.
//
// popShadowFrame reports ok=false when the stack becomes empty while
// discarding, meaning the real caller that the current return actually
// belongs to was never recorded; the caller must fall back to the
// "lost return" address the platform provides instead of fabricating
// one.
func popShadowFrame(t *tlsBlock, currentSP uint64) (shadowFrame, bool) {
	for int(t.depth) > 0 {
		top := t.frames[t.depth-1]
		if top.stackPtr >= currentSP {
			t.depth--
			return top, true
		}
		// Stale frame: the thread unwound past an instrumented call
		// without going through the return trampoline. Discard and
		// keep looking.
		t.depth--
	}
	return shadowFrame{}, false
}
