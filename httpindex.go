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

import (
	"fmt"
	"net/http"
	"time"
)

// ServeHTTP lets a Handle be mounted directly as a debug endpoint: GET
// serves an HTML status page showing whether tracing is enabled and how
// full the buffer is, and GET with ?profile=1 snapshots the buffer
// (without disabling or draining it) and streams back a pprof profile
// built from the snapshot via BuildProfile.
//
// This is a convenience surface, not part of the control API;
// DumpFullUftrace remains the only supported way to produce an actual
// uftrace directory.
func (h *Handle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, wantProfile := r.URL.Query()["profile"]; wantProfile {
		h.serveProfile(w, r)
		return
	}
	h.serveIndex(w, r)
}

func (h *Handle) serveProfile(w http.ResponseWriter, r *http.Request) {
	events := h.buffer.snapshot()
	prof := BuildProfile(events, time.Now(), 0)

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="mtrace.pprof"`)
	if err := prof.Write(w); err != nil {
		serveHTTPError(w, err)
	}
}

func (h *Handle) serveIndex(w http.ResponseWriter, r *http.Request) {
	events := h.buffer.snapshot()

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html>
<head><title>mtrace</title></head>
<body>
<p>enabled: %v</p>
<p>buffered events: %d</p>
<p><a href="?profile=1">download pprof snapshot</a></p>
</body>
</html>`, isEnabled(), len(events))
}

func serveHTTPError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Del("Content-Disposition")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintln(w, err.Error())
}
