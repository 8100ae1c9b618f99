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

//go:build cgo

package mtrace

/*
#define MT_MAX_DEPTH 1000

typedef struct {
	unsigned long long ret_addr;
	unsigned long long sp;
	unsigned long long callsite;
} mt_shadow_frame;

// mt_tls_block mirrors shadowFrame/tlsBlock field-for-field: this is
// the actual platform thread-local storage block (C1). It lives once
// per OS thread, is zero-initialized by the C runtime on first access,
// and is never heap-allocated.
typedef struct {
	unsigned long long thread_id;
	int poisoned;
	int depth;
	mt_shadow_frame frames[MT_MAX_DEPTH];
} mt_tls_block;

static _Thread_local mt_tls_block mt_tls;

static mt_tls_block *mt_tls_get(void) {
	return &mt_tls;
}
*/
import "C"
import "unsafe"

// tlsBlock is the Go view over mt_tls_block. Field order, sizes, and
// alignment must stay in lockstep with the C definition above: this is
// the same deref-by-unsafe-cast technique the teacher uses in
// memory.go to view guest memory as host structs without copying.
type tlsBlock struct {
	threadID uint64
	poisoned int32
	depth    int32
	frames   [MaxShadowDepth]shadowFrame
}

// currentTLS returns the calling OS thread's TLS block. It never
// allocates: the block is static storage owned by the C runtime.
//
//go:nosplit
func currentTLS() *tlsBlock {
	p := C.mt_tls_get()
	return (*tlsBlock)(unsafe.Pointer(p))
}
