// Command bmc is the bounded model checker's entry point: it loads a
// goto program, instruments its property monitors, and runs the
// k-induction orchestrator of internal/kinduction over
// internal/driver, in the spirit of (but not wired the same way as)
// cmd/glee's single-binary CLI. CLI parsing, help text, and the rest
// of spec.md's explicit Non-goals stay minimal on purpose: this is the
// flag surface needed to drive the core, not a polished front end.
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses args and dispatches to either the worker-role body a
// re-exec'd child process runs, or the user-facing top-level run.
// rawArgs is passed through unparsed to the parallel orchestrator's
// spawn function, which reuses it verbatim (plus its own
// -worker-role) to re-invoke this same binary.
func run(rawArgs []string) int {
	fs := flag.NewFlagSet("bmc", flag.ContinueOnError)
	var cfg config
	cfg.bind(fs)

	if err := fs.Parse(rawArgs); err != nil {
		if err == flag.ErrHelp {
			return 1
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if cfg.IRPath == "" && fs.NArg() > 0 {
		cfg.IRPath = fs.Arg(0)
	}

	if cfg.WorkerRole != "" {
		return runWorker(&cfg)
	}
	return runMain(&cfg, rawArgs)
}
