package kinduction

import (
	"sort"

	"github.com/boundedmc/bmc/internal/driver"
)

// decision accumulates per-role, per-k records and reports the joint
// verdict of spec.md §4.H step 3 as soon as one becomes conclusive.
//
// parseoptions.cpp tracks this with three flat bool[MAX_STEPS] arrays
// (bc_res/fc_res/is_res) and a single "solution_found" index that gets
// overwritten by whichever record most recently triggered a change,
// then evaluates bc_res[solution_found] etc. against whatever
// currently sits in the other two arrays at that same index — which
// can be a role's untouched initial default if no record for that
// exact k has arrived yet. This type keeps the same per-k, per-role
// arrays but additionally tracks whether each cell was ever actually
// received, and only declares victory once the specific k for that
// verdict has every signal the verdict depends on: base sat is
// conclusive on its own, but a successful verdict requires both base's
// unsat at k and forward's or inductive's unsat at that same k to have
// actually arrived, not merely defaulted.
type decision struct {
	bcDone, bcSat   map[uint32]bool
	fcDone, fcUnsat map[uint32]bool
	isDone, isUnsat map[uint32]bool
	finished        [4]bool // indexed by Role
}

func newDecision() *decision {
	return &decision{
		bcDone: map[uint32]bool{}, bcSat: map[uint32]bool{},
		fcDone: map[uint32]bool{}, fcUnsat: map[uint32]bool{},
		isDone: map[uint32]bool{}, isUnsat: map[uint32]bool{},
	}
}

// apply folds one record into the accumulated state.
func (d *decision) apply(r Record) {
	if r.Finished {
		d.finished[r.Step] = true
		return
	}
	switch r.Step {
	case RoleBase:
		d.bcDone[r.K] = true
		d.bcSat[r.K] = r.Result == VerificationFailed
	case RoleForward:
		d.fcDone[r.K] = true
		d.fcUnsat[r.K] = r.Result == VerificationSuccessful
	case RoleInductive:
		d.isDone[r.K] = true
		d.isUnsat[r.K] = r.Result == VerificationSuccessful
	}
}

// allFinished reports whether every role's increasing-k loop has
// ended (either by an early exit or by exhausting the max k bound)
// without ever reaching a conclusive joint verdict.
func (d *decision) allFinished() bool {
	return d.finished[RoleBase] && d.finished[RoleForward] && d.finished[RoleInductive]
}

// conclude scans every k a base-case record has arrived for, smallest
// first, and reports the joint verdict at the first one where either
// of spec.md §4.H's two clauses holds; ok is false if nothing
// conclusive has arrived yet. Map iteration order is not the arrival
// order records were applied in, so the candidate k's are sorted
// before scanning: two records for different k can both turn
// conclusive in the same apply, and spec.md requires the smaller of
// the two, not whichever one a map happens to yield first.
func (d *decision) conclude() (outcome driver.Outcome, k uint32, ok bool) {
	ks := make([]uint32, 0, len(d.bcDone))
	for kk := range d.bcDone {
		ks = append(ks, kk)
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })

	for _, kk := range ks {
		if d.bcSat[kk] {
			return driver.Failed, kk, true
		}
		if (d.fcDone[kk] && d.fcUnsat[kk]) || (d.isDone[kk] && d.isUnsat[kk]) {
			return driver.Successful, kk, true
		}
	}
	return driver.Unknown, 0, false
}
