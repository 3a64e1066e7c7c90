package kinduction

import (
	"testing"

	"github.com/boundedmc/bmc/internal/driver"
)

func TestDecision_BaseSatIsConclusiveAlone(t *testing.T) {
	d := newDecision()
	d.apply(Record{Step: RoleBase, K: 3, Result: VerificationFailed})

	outcome, k, ok := d.conclude()
	if !ok || outcome != driver.Failed || k != 3 {
		t.Fatalf("expected (Failed, 3, true), got (%s, %d, %v)", outcome, k, ok)
	}
}

func TestDecision_RequiresMatchingKForSuccess(t *testing.T) {
	d := newDecision()
	d.apply(Record{Step: RoleBase, K: 1, Result: VerificationSuccessful})
	d.apply(Record{Step: RoleForward, K: 2, Result: VerificationSuccessful})

	if _, _, ok := d.conclude(); ok {
		t.Fatalf("expected no conclusive verdict when base and forward disagree on k")
	}

	d.apply(Record{Step: RoleBase, K: 2, Result: VerificationSuccessful})
	outcome, k, ok := d.conclude()
	if !ok || outcome != driver.Successful || k != 2 {
		t.Fatalf("expected (Successful, 2, true) once base also reaches k=2, got (%s, %d, %v)", outcome, k, ok)
	}
}

func TestDecision_InductiveAloneAlsoConvergesSuccess(t *testing.T) {
	d := newDecision()
	d.apply(Record{Step: RoleBase, K: 4, Result: VerificationSuccessful})
	d.apply(Record{Step: RoleInductive, K: 4, Result: VerificationSuccessful})

	outcome, k, ok := d.conclude()
	if !ok || outcome != driver.Successful || k != 4 {
		t.Fatalf("expected (Successful, 4, true), got (%s, %d, %v)", outcome, k, ok)
	}
}

func TestDecision_PicksSmallestConclusiveKWhenTwoArriveOutOfOrder(t *testing.T) {
	d := newDecision()
	// Base's k=5 record (sat) arrives before its k=2 record (also sat),
	// exercising map iteration order rather than apply order: the
	// smaller k must still win.
	d.apply(Record{Step: RoleBase, K: 5, Result: VerificationFailed})
	d.apply(Record{Step: RoleBase, K: 2, Result: VerificationFailed})

	outcome, k, ok := d.conclude()
	if !ok || outcome != driver.Failed || k != 2 {
		t.Fatalf("expected (Failed, 2, true), got (%s, %d, %v)", outcome, k, ok)
	}
}

func TestDecision_AllFinishedWithoutConclusionIsUnknown(t *testing.T) {
	d := newDecision()
	d.apply(Record{Step: RoleBase, Finished: true})
	d.apply(Record{Step: RoleForward, Finished: true})
	d.apply(Record{Step: RoleInductive, Finished: true})

	if !d.allFinished() {
		t.Fatalf("expected all three roles to be finished")
	}
	if _, _, ok := d.conclude(); ok {
		t.Fatalf("expected no conclusive verdict when nothing converged")
	}
}
