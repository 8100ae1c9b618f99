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

// threadIDCounter assigns tracer-local thread identities, counting
// distinct threads from 1 in first-observed order. It is intentionally
// independent of the OS thread id, keeping the engine free of any OS
// dependency and making recorded traces reproducible across runs and
// platforms.
var threadIDCounter uint64

// threadID returns t's tracer-local thread id, assigning one from the
// global counter the first time t is observed.
func threadID(t *tlsBlock) uint64 {
	if t.threadID == 0 {
		t.threadID = atomic.AddUint64(&threadIDCounter, 1)
	}
	return t.threadID
}
