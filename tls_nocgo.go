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

//go:build !cgo

package mtrace

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// tlsBlock mirrors the cgo variant's layout (see tls_cgo.go) so that
// shadow.go can stay identical across both build modes.
type tlsBlock struct {
	threadID uint64
	poisoned int32
	depth    int32
	frames   [MaxShadowDepth]shadowFrame
}

// Without cgo there is no portable way to reach real OS thread-local
// storage from Go, so this build falls back to keying blocks by
// goroutine id. This only models the spec faithfully when each OS
// thread runs exactly one goroutine that calls into the hook (true for
// the cmd/mtrace harness and for tests); a cgo build is required to
// trace arbitrary native threads, which is why tls_cgo.go is the build
// this package is meant to ship with.
var (
	fallbackMu     sync.Mutex
	fallbackBlocks = map[int64]*tlsBlock{}
)

func currentTLS() *tlsBlock {
	id := goroutineID()

	fallbackMu.Lock()
	defer fallbackMu.Unlock()
	t, ok := fallbackBlocks[id]
	if !ok {
		t = &tlsBlock{}
		fallbackBlocks[id] = t
	}
	return t
}

// goroutineID parses the numeric id out of runtime.Stack's header
// line ("goroutine 123 [running]:"). It is a well known, if informal,
// idiom for goroutine-local identity when no real TLS is available.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseInt(string(b), 10, 64)
	return id
}
