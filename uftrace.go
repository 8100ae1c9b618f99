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
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/exp/slices"
)

// writeUftraceDir is C6: it partitions a drained event snapshot by
// thread, orders each thread's events by timestamp (the only ordering
// the ring-buffer overflow mode can't guarantee on its own, since a
// wrapped cursor's physical slot order no longer matches temporal
// order), and serializes the uftrace-compatible directory.
//
// dir is created if it does not already exist. Any single write
// failure aborts with a WriteError; the directory may be left partially
// written.
func writeUftraceDir(dir, binaryName string, linuxMode bool, events []Event) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: dir, Err: err}
	}

	byThread := groupByThread(events)

	for _, tid := range byThread.order {
		if err := writeThreadData(dir, tid, byThread.events[tid]); err != nil {
			return err
		}
	}

	if err := writeInfo(dir, binaryName, len(byThread.order)); err != nil {
		return err
	}
	if err := writeTaskList(dir, byThread.order, binaryName); err != nil {
		return err
	}
	if err := writeMap(dir, binaryName, linuxMode); err != nil {
		return err
	}

	// binaryName + ".sym" is deliberately never written: symbol
	// resolution is left to the consuming tool, and Dump does not fail
	// for its absence.
	return nil
}

// syntheticPID is the process id recorded in task.txt. The hook never
// queries the OS for a real pid, so every trace reports the same
// placeholder value here.
const syntheticPID = 1

type threadEvents struct {
	order  []uint64
	events map[uint64][]Event
}

func groupByThread(events []Event) threadEvents {
	te := threadEvents{events: make(map[uint64][]Event)}
	seen := make(map[uint64]bool)
	for _, e := range events {
		if !seen[e.ThreadID] {
			seen[e.ThreadID] = true
			te.order = append(te.order, e.ThreadID)
		}
		te.events[e.ThreadID] = append(te.events[e.ThreadID], e)
	}
	for _, tid := range te.order {
		slices.SortStableFunc(te.events[tid], func(a, b Event) bool { return a.Timestamp < b.Timestamp })
	}
	return te
}

func writeThreadData(dir string, tid uint64, events []Event) error {
	path := filepath.Join(dir, fmt.Sprintf("%d.dat", tid))

	buf := make([]byte, 0, len(events)*uftraceRecordSize)
	for _, e := range events {
		buf = appendUftraceRecord(buf, e)
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func writeInfo(dir, binaryName string, nrTask int) error {
	path := filepath.Join(dir, "info")

	content := fmt.Sprintf(
		"magic=uftrace\nversion=4\nfeat_mask=0\nendian=little\nelf_class=64\n"+
			"nr_cpu=%d\nnr_task=%d\ntotalmem=0\ncmdline=%s\nbuild_id=0000000000000000000000000000000000000000\n",
		runtime.NumCPU(), nrTask, binaryName,
	)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func writeTaskList(dir string, tids []uint64, binaryName string) error {
	path := filepath.Join(dir, "task.txt")

	var content string
	for _, tid := range tids {
		content += fmt.Sprintf("TASK pid=%d tid=%d sid=0 time=0\n", syntheticPID, tid)
	}
	for _, tid := range tids {
		content += fmt.Sprintf("COMM pid=%d tid=%d comm=\"%s\"\n", syntheticPID, tid, binaryName)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func writeMap(dir, binaryName string, linuxMode bool) error {
	path := filepath.Join(dir, "sid-0.map")

	var content []byte
	if linuxMode {
		b, err := os.ReadFile("/proc/self/maps")
		if err != nil {
			return &WriteError{Path: "/proc/self/maps", Err: err}
		}
		content = b
	} else {
		content = []byte(fmt.Sprintf(
			"0000000000000000-ffffffffffffffff r-xp 00000000 00:00 0                          %s\n",
			binaryName,
		))
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
