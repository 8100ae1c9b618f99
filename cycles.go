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

//go:build amd64

package mtrace

// cycleCounter samples the CPU's monotonic tick source (RDTSC on
// amd64, see cycles_amd64.s). Values are raw cycle counts; converting
// them to wall time is a downstream concern, because guest/host
// alignment across virtualization requires the unadjusted counter.
//
//go:noescape
func cycleCounter() uint64
