package kinduction

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

func TestRunSequential_BaseSatIsImmediatelyFailed(t *testing.T) {
	cfg := SequentialConfig{
		Program:   buildProgram(),
		ValueSets: map[string]*valueset.Info{},
		NewSolver: newStubSolver(smt.Sat, true),
		Opts:      bmcopts.Options{},
		MaxK:      5,
	}
	res, err := RunSequential(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome.String() != "VERIFICATION_FAILED" {
		t.Fatalf("expected VERIFICATION_FAILED, got %s", res.Outcome)
	}
	if res.K != 1 {
		t.Fatalf("expected the counterexample at k=1 (base's starting bound), got k=%d", res.K)
	}
	if len(res.Violated) != 1 {
		t.Fatalf("expected the counterexample's violated claim to survive, got %v", res.Violated)
	}
}

func TestRunSequential_AllUnsatConvergesToSuccessfulAtMatchingK(t *testing.T) {
	cfg := SequentialConfig{
		Program:   buildProgram(),
		ValueSets: map[string]*valueset.Info{},
		NewSolver: newStubSolver(smt.Unsat, false),
		Opts:      bmcopts.Options{},
		MaxK:      5,
	}
	res, err := RunSequential(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome.String() != "VERIFICATION_SUCCESSFUL" {
		t.Fatalf("expected VERIFICATION_SUCCESSFUL, got %s", res.Outcome)
	}
	// Forward/inductive start at k=2, so the earliest matching k both
	// base and one of them can agree unsat at is 2, not 1.
	if res.K != 2 {
		t.Fatalf("expected convergence at k=2, got k=%d", res.K)
	}
}

func TestRunSequential_UnknownWhenNothingConverges(t *testing.T) {
	cfg := SequentialConfig{
		Program:   buildProgram(),
		ValueSets: map[string]*valueset.Info{},
		NewSolver: newStubSolver(smt.Unknown, false),
		Opts:      bmcopts.Options{},
		MaxK:      3,
	}
	res, err := RunSequential(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome.String() != "VERIFICATION_UNKNOWN" {
		t.Fatalf("expected VERIFICATION_UNKNOWN, got %s", res.Outcome)
	}
}
