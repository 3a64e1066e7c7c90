package driver

import (
	"testing"

	"github.com/boundedmc/bmc/internal/bmcopts"
	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/gotoir"
	"github.com/boundedmc/bmc/internal/smt"
	"github.com/boundedmc/bmc/internal/valueset"
)

// buildProgram returns a one-function program: x := 5; assert(x == 5).
func buildProgram() *gotoir.Program {
	x := expr.NewSymbolExpr("x", expr.NewBVType(32, false))
	prog := gotoir.NewProgram()
	prog.AddFunction(&gotoir.Function{
		Name: "main",
		Body: []gotoir.Instruction{
			gotoir.NewAssign(gotoir.SourceLocation{Function: "main"}, x, expr.NewConstantExpr32(5)),
			gotoir.NewAssert(gotoir.SourceLocation{Function: "main"},
				expr.NewBinaryExpr(expr.EQ, x, expr.NewConstantExpr32(5)), "x equals five"),
		},
	})
	return prog
}

func TestRun_UnsatGoalIsSuccessful(t *testing.T) {
	prog := buildProgram()
	s := newStubSolver()
	s.result = smt.Unsat

	d := New(prog, map[string]*valueset.Info{}, s, bmcopts.Options{})
	res, err := d.Run(1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Successful {
		t.Fatalf("expected VERIFICATION_SUCCESSFUL, got %s", res.Outcome)
	}
	if len(res.Violated) != 0 {
		t.Fatalf("expected no violated claims, got %v", res.Violated)
	}
}

func TestRun_SatGoalIsFailedWithViolatedClaim(t *testing.T) {
	prog := buildProgram()
	s := newStubSolver()
	s.result = smt.Sat
	s.boolVal = true

	d := New(prog, map[string]*valueset.Info{}, s, bmcopts.Options{})
	res, err := d.Run(1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Failed {
		t.Fatalf("expected VERIFICATION_FAILED, got %s", res.Outcome)
	}
	if len(res.Violated) != 1 {
		t.Fatalf("expected exactly one violated claim, got %v", res.Violated)
	}
	if res.Violated[0].Message != "x equals five" {
		t.Fatalf("unexpected violated claim: %+v", res.Violated[0])
	}
}

func TestRun_UnknownGoalIsUnknown(t *testing.T) {
	prog := buildProgram()
	s := newStubSolver()
	s.result = smt.Unknown

	d := New(prog, map[string]*valueset.Info{}, s, bmcopts.Options{})
	res, err := d.Run(1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Unknown {
		t.Fatalf("expected VERIFICATION_UNKNOWN, got %s", res.Outcome)
	}
}

func TestRun_NoAssertionsSkipsClaimsEntirely(t *testing.T) {
	prog := buildProgram()
	s := newStubSolver()
	s.result = smt.Sat // would indicate failure if the claim were asserted

	d := New(prog, map[string]*valueset.Info{}, s, bmcopts.Options{NoAssertions: true})
	res, err := d.Run(1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Successful {
		t.Fatalf("expected no-assertions to short-circuit to VERIFICATION_SUCCESSFUL, got %s", res.Outcome)
	}
}
