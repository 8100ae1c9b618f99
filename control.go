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

// enabled is the process-wide enable flag the hot path checks on every
// call. It is read with a plain atomic load; transitions are allowed at
// any time, and in-flight calls from before a Disable are allowed to
// complete through the return trampoline.
var enabled uint32

// activeBuffer is the event buffer currently registered with the hook.
// It is set once by Init and never reassigned for the handle's
// lifetime; the atomic.Pointer only exists so the hot path's load
// can't race with Init's store.
var activeBuffer atomic.Pointer[eventBuffer]

// initialized guards against calling Init twice: a second call fails
// loudly rather than silently resetting live state out from under an
// enabled hook.
var initialized uint32

// Handle is the opaque reference returned by Init. The caller owns the
// storage it wraps; the hook holds a non-owning reference to the same
// buffer for as long as it is enabled. The caller must not let the
// handle become unreachable while the hook might still be enabled.
type Handle struct {
	buffer *eventBuffer
}

// Init allocates the event buffer, registers it with the hook, and
// leaves tracing disabled. capacity must be at least 1. overwriting
// selects ring-buffer mode (oldest events overwritten on overflow)
// instead of the default drop-tail mode (recording silently stops once
// the buffer fills).
func Init(capacity uint64, overwriting bool) (*Handle, error) {
	if capacity < 1 {
		return nil, &MisuseError{Op: "init", Reason: "capacity must be >= 1"}
	}
	if !atomic.CompareAndSwapUint32(&initialized, 0, 1) {
		return nil, &MisuseError{Op: "init", Reason: "already initialized"}
	}

	buf := newEventBuffer(capacity, overwriting)
	activeBuffer.Store(buf)
	atomic.StoreUint32(&enabled, 0)

	return &Handle{buffer: buf}, nil
}

// Enable turns tracing on. Calling Enable twice in a row has the same
// effect as calling it once.
func Enable() {
	atomic.StoreUint32(&enabled, 1)
}

// Disable turns tracing off. Calls already in progress when Disable is
// called are allowed to complete through the return trampoline; only
// new entries stop being recorded. Calling Disable twice in a row has
// the same effect as calling it once.
func Disable() {
	atomic.StoreUint32(&enabled, 0)
}

// isEnabled reports the current state of the enable flag. entry.go
// checks this first, on every call, before touching any other state.
//
//go:nosplit
func isEnabled() bool {
	return atomic.LoadUint32(&enabled) != 0
}

// DumpFullUftrace disables tracing (if it was still enabled; the
// reference behavior for dump-while-enabled is to force-disable rather
// than fail), drains the event buffer, and writes a uftrace-compatible
// directory at dir. binaryName is recorded as the program name in
// task.txt and the fake/Linux memory map. linuxMode selects whether the
// map file is a synthetic single-region fake or a verbatim copy of
// /proc/self/maps.
//
// Re-enabling tracing after Dump, if desired, is left to the caller.
func (h *Handle) DumpFullUftrace(dir, binaryName string, linuxMode bool) error {
	Disable()
	events := h.buffer.snapshot()
	return writeUftraceDir(dir, binaryName, linuxMode, events)
}
