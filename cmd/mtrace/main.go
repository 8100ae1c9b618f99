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

// Command mtrace is a host-side harness for the package of the same
// name. It does not instrument real native code: instead it drives the
// C1-C6 pipeline directly, calling the same entry/exit recorder
// functions the assembly trampolines call, to exercise Init, Enable,
// Disable and DumpFullUftrace end to end against a synthetic call
// chain. An integrator wiring a real -pg compiled binary would replace
// the synthetic chain with the actual instrumented program and keep the
// rest of this file's shape.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/stealthrocket/mtrace"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var (
	outDir     string
	binaryName string
	capacity   uint64
	overwrite  bool
	linuxMode  bool
	depth      int
)

func init() {
	log.Default().SetOutput(os.Stderr)
	pflag.StringVar(&outDir, "out", "mtrace.out", "Directory to write the uftrace-compatible trace into.")
	pflag.StringVar(&binaryName, "binary-name", "mtrace-demo", "Program name recorded in info/task.txt/the memory map.")
	pflag.Uint64Var(&capacity, "capacity", 1<<16, "Event buffer capacity.")
	pflag.BoolVar(&overwrite, "ring", false, "Use ring-buffer (overwrite oldest) mode instead of drop-tail.")
	pflag.BoolVar(&linuxMode, "linux-map", false, "Copy /proc/self/maps instead of emitting a fake single-region map.")
	pflag.IntVar(&depth, "depth", 8, "Depth of the synthetic nested call chain to simulate.")
}

func run(ctx context.Context) error {
	pflag.Parse()

	h, err := mtrace.Init(capacity, overwrite)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	mtrace.Enable()

	mtrace.SimulateNestedCalls(depth)

	if err := h.DumpFullUftrace(outDir, binaryName, linuxMode); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}

	log.Printf("wrote trace to %s", outDir)
	return nil
}
