package kinduction

import (
	"testing"

	"github.com/boundedmc/bmc/internal/bmcopts"
)

func TestStartK(t *testing.T) {
	if got := startK(RoleBase); got != 1 {
		t.Fatalf("base should start at k=1, got %d", got)
	}
	if got := startK(RoleForward); got != 2 {
		t.Fatalf("forward should start at k=2, got %d", got)
	}
	if got := startK(RoleInductive); got != 2 {
		t.Fatalf("inductive should start at k=2, got %d", got)
	}
}

func TestExitsRoleEarly(t *testing.T) {
	if !exitsRoleEarly(RoleBase, VerificationFailed) {
		t.Fatalf("base should exit early on a counterexample")
	}
	if exitsRoleEarly(RoleBase, VerificationSuccessful) {
		t.Fatalf("base should keep going on VerificationSuccessful")
	}
	if !exitsRoleEarly(RoleForward, VerificationSuccessful) {
		t.Fatalf("forward should exit early once its unwinding assertion holds")
	}
	if exitsRoleEarly(RoleForward, VerificationFailed) {
		t.Fatalf("forward should keep going while not yet successful")
	}
	if !exitsRoleEarly(RoleInductive, VerificationSuccessful) {
		t.Fatalf("inductive should exit early once the claim holds inductively")
	}
}

func TestRoleOptions(t *testing.T) {
	base := bmcopts.Options{Unwind: 10}

	bc := RoleOptions(RoleBase, base)
	if !bc.BaseCase || bc.ForwardCondition || bc.InductiveStep {
		t.Fatalf("base role should set only BaseCase, got %+v", bc)
	}
	if bc.NoAssertions || bc.PartialLoops {
		t.Fatalf("base role should leave NoAssertions/PartialLoops untouched, got %+v", bc)
	}

	fc := RoleOptions(RoleForward, base)
	if !fc.ForwardCondition || fc.BaseCase || fc.InductiveStep {
		t.Fatalf("forward role should set only ForwardCondition, got %+v", fc)
	}
	if !fc.NoAssertions {
		t.Fatalf("forward role must suppress user claims, got %+v", fc)
	}

	is := RoleOptions(RoleInductive, base)
	if !is.InductiveStep || is.BaseCase || is.ForwardCondition {
		t.Fatalf("inductive role should set only InductiveStep, got %+v", is)
	}
	if !is.PartialLoops {
		t.Fatalf("inductive role must suppress the unwinding assertion, got %+v", is)
	}

	if base.BaseCase || base.ForwardCondition || base.InductiveStep {
		t.Fatalf("RoleOptions must not mutate the caller's base Options, got %+v", base)
	}
}
