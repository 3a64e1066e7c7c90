package kinduction

import (
	"github.com/boundedmc/bmc/internal/bmcopts"
	"github.com/boundedmc/bmc/internal/driver"
	"github.com/boundedmc/bmc/internal/gotoir"
	"github.com/boundedmc/bmc/internal/valueset"
)

// Result is one k-induction session's outcome: the joint verdict of
// spec.md §4.H step 3, the k it was reached at, and — when a
// counterexample was found and the caller ran in-process, where the
// actual driver.Result is still reachable — the violated claims.
type Result struct {
	Outcome  driver.Outcome
	K        uint32
	Violated []driver.ViolatedClaim
}

// SequentialConfig is everything RunSequential needs to round-robin
// the three configurations in one process.
type SequentialConfig struct {
	Program   *gotoir.Program
	ValueSets map[string]*valueset.Info
	NewSolver SolverFactory
	Opts      bmcopts.Options
	MaxK      int
}

var roundRobinRoles = [3]Role{RoleBase, RoleForward, RoleInductive}

// RunSequential is the no-parallel fallback of spec.md §4.H's last
// paragraph: the three configurations run in the parent in
// round-robin per k until the same joint condition a forked run would
// reach holds, sharing one IR build (cfg.Program/cfg.ValueSets) across
// all three rather than each reloading its own copy, exactly as
// parseoptions.cpp's non-parallel path builds goto_functions once and
// reuses it across bmc_base_case/bmc_forward_condition/bmc_inductive_step.
func RunSequential(cfg SequentialConfig) (*Result, error) {
	kStep := cfg.Opts.KStep
	if kStep <= 0 {
		kStep = 1
	}

	step := make(map[Role]resultFunc, 3)
	k := make(map[Role]int, 3)
	done := make(map[Role]bool, 3)
	for _, r := range roundRobinRoles {
		step[r] = NewResultFunc(cfg.Program, cfg.ValueSets, cfg.NewSolver, RoleOptions(r, cfg.Opts))
		k[r] = startK(r)
	}

	dec := newDecision()
	var lastFailed *driver.Result

	for !(done[RoleBase] && done[RoleForward] && done[RoleInductive]) {
		progressed := false
		for _, r := range roundRobinRoles {
			if done[r] {
				continue
			}
			if k[r] > cfg.MaxK {
				done[r] = true
				dec.apply(Record{Step: r, Finished: true})
				continue
			}
			progressed = true

			res, err := step[r](k[r])
			if err != nil {
				return nil, err
			}
			verdict := verdictOf(res)
			dec.apply(Record{Step: r, K: uint32(k[r]), Result: verdict})
			if r == RoleBase && verdict == VerificationFailed {
				lastFailed = res
			}

			if outcome, atK, ok := dec.conclude(); ok {
				return &Result{Outcome: outcome, K: atK, Violated: violatedFor(outcome, lastFailed)}, nil
			}

			if exitsRoleEarly(r, verdict) {
				done[r] = true
				dec.apply(Record{Step: r, Finished: true})
			} else {
				k[r] += kStep
			}
		}
		if !progressed {
			break
		}
	}

	outcome, atK, _ := dec.conclude()
	return &Result{Outcome: outcome, K: atK, Violated: violatedFor(outcome, lastFailed)}, nil
}

func violatedFor(outcome driver.Outcome, failed *driver.Result) []driver.ViolatedClaim {
	if outcome != driver.Failed || failed == nil {
		return nil
	}
	return failed.Violated
}
