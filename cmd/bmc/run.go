package main

import (
	"fmt"
	"os"
	"time"

	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/bmcopts"
	"github.com/boundedmc/bmc/internal/driver"
	"github.com/boundedmc/bmc/internal/gotoir"
	"github.com/boundedmc/bmc/internal/kinduction"
	"github.com/boundedmc/bmc/internal/smt"
	"github.com/boundedmc/bmc/internal/smt/z3"
	"github.com/boundedmc/bmc/internal/valueset"
	"github.com/sirupsen/logrus"
)

func logErr(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, fmt.Sprintf(format, args...))
}

// newSolverFactory builds the kinduction.SolverFactory every role's
// increasing-k loop mints a fresh backend solver from, per
// internal/kinduction's own documented resource discipline (a fresh
// solver per k, never accumulating assertions across bounds).
func newSolverFactory() kinduction.SolverFactory {
	return func() (smt.Solver, error) { return z3.NewSolver(), nil }
}

// exitCodeFor maps an error onto the exit codes of spec.md §6: 6 on IR
// load failure, 7 on claim-set failure, 1 for anything else this core
// can raise (solver errors, fatal invariants, timeouts) since only
// those three plus 0/10 are given fixed meanings, the rest reserved.
func exitCodeFor(err error) int {
	e, ok := bmcerr.As(err)
	if !ok {
		return 1
	}
	switch e.Kind {
	case bmcerr.KindIRLoad:
		return 6
	case bmcerr.KindClaimSelection:
		return 7
	default:
		return 1
	}
}

// runMain is the top-level, user-facing entry point: load the IR,
// honour any print-and-exit option, then verify and report.
func runMain(cfg *config, rawArgs []string) int {
	prog, valueSets, err := loadAndPrepare(cfg)
	if err != nil {
		logErr("%v", err)
		return exitCodeFor(err)
	}

	switch {
	case cfg.Opts.ShowClaims:
		showClaims(prog)
		return 0
	case cfg.Opts.ShowGotoFunctions:
		showGotoFunctions(prog)
		return 0
	case cfg.Opts.ShowVCC:
		if err := showVCC(prog, valueSets, cfg.Opts.WithDefaults()); err != nil {
			logErr("%v", err)
			return exitCodeFor(err)
		}
		return 0
	}

	opts := cfg.Opts.WithDefaults()
	newSolver := newSolverFactory()

	result, err := runVerification(rawArgs, prog, valueSets, newSolver, opts)
	if err != nil {
		logErr("%v", err)
		return exitCodeFor(err)
	}
	return reportResult(result)
}

// runVerification picks among the three ways a verification run can
// be driven — a single requested configuration, the in-process
// round-robin fallback, or the self-re-exec'd parallel orchestrator —
// and applies -timeout around whichever is chosen.
func runVerification(rawArgs []string, prog *gotoir.Program, valueSets map[string]*valueset.Info, newSolver kinduction.SolverFactory, opts bmcopts.Options) (*kinduction.Result, error) {
	maxK := opts.Unwind

	attempt := func() (*kinduction.Result, error) {
		if kind, ok := opts.SingleConfig(); ok {
			return runSingleConfig(kind, prog, valueSets, newSolver, opts, maxK)
		}
		if !opts.Parallel {
			return kinduction.RunSequential(kinduction.SequentialConfig{
				Program:   prog,
				ValueSets: valueSets,
				NewSolver: newSolver,
				Opts:      opts,
				MaxK:      maxK,
			})
		}
		return kinduction.RunParallel(spawnFunc(rawArgs), maxK)
	}

	if opts.Timeout <= 0 {
		return attempt()
	}
	return runWithTimeout(opts.Timeout, attempt)
}

// runWithTimeout races fn against §6's timeout:seconds option. Go's
// exec.Cmd children started by a timed-out parallel run are not killed
// here (the parent itself is about to report VERIFICATION_UNKNOWN and
// exit): this is a documented limitation, not a silent one, noted in
// DESIGN.md alongside the memlimit no-op.
func runWithTimeout(seconds int, fn func() (*kinduction.Result, error)) (*kinduction.Result, error) {
	type outcome struct {
		result *kinduction.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := fn()
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-time.After(time.Duration(seconds) * time.Second):
		logrus.WithField("timeout_seconds", seconds).Warn("cmd/bmc: verification timed out")
		return nil, bmcerr.New(bmcerr.KindTimeout, "cmd/bmc: exceeded %ds timeout", seconds)
	}
}

// runSingleConfig runs exactly one role's increasing-k loop in process
// and reports its own verdict directly, the behavior of requesting
// -base-case/-forward-condition/-inductive-step alone rather than
// letting the orchestrator run and combine all three. A base-case
// success at some k only proves safety up to that many unwindings, so
// it keeps unwinding; forward-condition and inductive-step success is
// conclusive on its own, per the same per-role exit rule
// internal/kinduction's orchestrator uses.
func runSingleConfig(kind string, prog *gotoir.Program, valueSets map[string]*valueset.Info, newSolver kinduction.SolverFactory, opts bmcopts.Options, maxK int) (*kinduction.Result, error) {
	role := roleFromString(kind)
	roleOpts := kinduction.RoleOptions(role, opts)
	step := kinduction.NewResultFunc(prog, valueSets, newSolver, roleOpts)

	k := 1
	if role != kinduction.RoleBase {
		k = 2
	}
	kStep := opts.KStep
	if kStep <= 0 {
		kStep = 1
	}

	for ; k <= maxK; k += kStep {
		res, err := step(k)
		if err != nil {
			return nil, err
		}
		switch res.Outcome {
		case driver.Failed:
			return &kinduction.Result{Outcome: driver.Failed, K: uint32(k), Violated: res.Violated}, nil
		case driver.Successful:
			if role != kinduction.RoleBase {
				return &kinduction.Result{Outcome: driver.Successful, K: uint32(k)}, nil
			}
		}
	}
	return &kinduction.Result{Outcome: driver.Unknown}, nil
}

// reportResult prints the verdict and maps it onto spec.md §6's exit
// codes: 0 provably-safe, 10 on a property violation, 1 when the
// configured bound was exhausted without a conclusive verdict (the
// "other values reserved" catch-all, since §6 gives no code of its
// own to VERIFICATION_UNKNOWN).
func reportResult(result *kinduction.Result) int {
	fmt.Println(result.Outcome)
	switch result.Outcome {
	case driver.Successful:
		return 0
	case driver.Failed:
		for _, c := range result.Violated {
			fmt.Printf("violated claim %s: %s\n", c.ID, c.Message)
			for name, v := range c.Values {
				fmt.Printf("  %s = %d\n", name, v)
			}
		}
		return 10
	default:
		return 1
	}
}
