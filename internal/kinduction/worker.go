package kinduction

import (
	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/bmcopts"
	"github.com/boundedmc/bmc/internal/driver"
	"github.com/boundedmc/bmc/internal/gotoir"
	"github.com/boundedmc/bmc/internal/smt"
	"github.com/boundedmc/bmc/internal/valueset"
)

// roleOptions returns the Options profile one role's driver runs
// with, per parseoptions.cpp's opts1/opts2/opts3 (each config sets
// exactly one of base-case/forward-condition/inductive-step and
// otherwise shares the caller's Options).
//
// Base-case checks everything: user claims and the automatically
// emitted unwinding assertions. Forward-condition checks only whether
// the loop can run past k, which is exactly what an unwinding
// assertion already encodes, so it suppresses user claims
// (NoAssertions) and relies solely on the unwinding-assertion claim
// symex emits when PartialLoops is left off. Inductive-step checks
// user claims hold assuming the loop body executes arbitrarily many
// times up to k, which requires no unwinding-assertion claim firing at
// the bound, so it forces PartialLoops on instead.
func RoleOptions(role Role, base bmcopts.Options) bmcopts.Options {
	o := base
	o.BaseCase, o.ForwardCondition, o.InductiveStep = false, false, false
	switch role {
	case RoleBase:
		o.BaseCase = true
	case RoleForward:
		o.ForwardCondition = true
		o.NoAssertions = true
	case RoleInductive:
		o.InductiveStep = true
		o.PartialLoops = true
	}
	return o
}

// startK is the unwind bound a role's increasing-k loop begins at,
// per spec.md §4.H: base starts at k=1, forward and inductive at k=2
// (a loop needs at least two unwindings before "does it run past k"
// or "assume k-1 iterations" are meaningful questions).
func startK(role Role) int {
	if role == RoleBase {
		return 1
	}
	return 2
}

// verdictOf maps a driver.Result onto the wire Verdict codes.
func verdictOf(res *driver.Result) int32 {
	switch res.Outcome {
	case driver.Successful:
		return VerificationSuccessful
	case driver.Failed:
		return VerificationFailed
	default:
		return VerificationInvalid
	}
}

// SolverFactory mints a fresh backend Solver. Every k step gets its
// own: per spec.md §5's resource discipline, "any fresh SMT term is
// owned by the SMT context and freed on context destruction" and "the
// SSA trace is owned by the BMC run and freed when the run completes",
// so successive unwind bounds must not accumulate assertions from the
// bounds before them.
type SolverFactory func() (smt.Solver, error)

// resultFunc runs one role's BMC driver at one unwind bound and
// returns the driver's full result, not just its wire verdict, so a
// caller running in-process (the sequential fallback) can still
// recover the counterexample a base-case step found.
type resultFunc func(k int) (*driver.Result, error)

// NewResultFunc builds the per-k step function a worker's own
// increasing-k loop drives, exported so cmd/bmc's re-exec'd worker
// role can build one after reloading the IR and value sets itself
// (a forked worker shares no memory with the parent, so it must
// reconstruct these rather than receive them).
func NewResultFunc(prog *gotoir.Program, valueSets map[string]*valueset.Info, newSolver SolverFactory, opts bmcopts.Options) resultFunc {
	return func(k int) (*driver.Result, error) {
		solver, err := newSolver()
		if err != nil {
			return nil, bmcerr.Wrap(err, "kinduction: opening solver")
		}
		defer solver.Close()

		d := driver.New(prog, valueSets, solver, opts)
		return d.Run(k)
	}
}

// exitsRoleEarly reports whether result, just observed for role at
// some k, ends that role's increasing-k loop early: base exits as
// soon as a step is not VerificationSuccessful (a counterexample or
// inconclusive result was found at that k); forward/inductive exit as
// soon as a step IS VerificationSuccessful (the property the
// configuration checks has been proven at that k).
func exitsRoleEarly(role Role, result int32) bool {
	if role == RoleBase {
		return result != VerificationSuccessful
	}
	return result == VerificationSuccessful
}

// runRole drives one role's increasing-k loop entirely on its own
// (the shape a re-exec'd worker process runs), invoking emit after
// every step and once more with Finished=true if the loop reaches
// maxK without an early exit. kStep is bmcopts.Options.KStep, the
// k-induction step size of spec.md §6's enumerated option list; a
// non-positive value (an un-defaulted Options) falls back to 1 rather
// than looping forever or running backwards.
func runRole(role Role, step resultFunc, maxK, kStep int, emit func(Record) error) error {
	if kStep <= 0 {
		kStep = 1
	}
	for k := startK(role); k <= maxK; k += kStep {
		res, err := step(k)
		if err != nil {
			return bmcerr.Wrap(err, "kinduction: %s at k=%d", role, k)
		}
		verdict := verdictOf(res)
		if err := emit(Record{Step: role, K: uint32(k), Result: verdict}); err != nil {
			return err
		}
		if exitsRoleEarly(role, verdict) {
			return nil
		}
	}
	return emit(Record{Step: role, Finished: true})
}
