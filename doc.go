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

// Package mtrace is a function-entry/exit tracer for native code
// instrumented with a compiler profiling hook (gcc -pg and equivalent
// back-end flags).
//
// Instrumented functions call into the entry trampoline on every call;
// the trampoline records the call, rewrites the return address so that
// returns land in a return trampoline, and lets the callee run normally.
// The return trampoline records the matching exit and jumps back to the
// real caller. Samples are accumulated in a lock-free event buffer and,
// on Dump, flushed to a directory laid out like a uftrace data
// directory (<tid>.dat, info, task.txt, sid-<sid>.map). The file
// contents are not byte-compatible with uftrace: info and task.txt are
// key=value text, and each <tid>.dat address is stored shifted left by
// one bit with the entry/exit flag in bit 0.
//
// Only the recording engine is in scope here: the thread-local shadow
// return stack, the event buffer, the two trampolines, and the uftrace
// writer. Generating instrumented native code, symbolizing addresses,
// and converting cycle counts to wall time are explicitly out of scope.
package mtrace
