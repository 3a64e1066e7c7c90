package symex

import (
	"testing"

	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/gotoir"
	"github.com/boundedmc/bmc/internal/valueset"
)

func TestRun_StraightLineAssign(t *testing.T) {
	xType := expr.NewBVType(32, true)
	x := expr.NewSymbolExpr("x", xType)

	loc := gotoir.SourceLocation{Function: "main"}
	fn := &gotoir.Function{
		Name: "main",
		Body: []gotoir.Instruction{
			gotoir.NewDecl(loc, "x", xType),
			gotoir.NewAssign(loc, x, expr.NewConstantExpr32(41)),
			gotoir.NewAssign(loc, x, expr.NewBinaryExpr(expr.ADD, x, expr.NewConstantExpr32(1))),
			gotoir.NewReturn(loc, nil),
		},
	}
	gotoir.Number(fn)

	prog := gotoir.NewProgram()
	prog.AddFunction(fn)

	ex := NewExecutor(prog, nil, Options{})
	states, err := ex.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("expected 1 terminal state, got %d", len(states))
	}
	if states[0].Status() != Terminated {
		t.Fatalf("expected Terminated, got %s", states[0].Status())
	}

	var assigns []Assignment
	for _, e := range states[0].Trace() {
		if a, ok := e.(Assignment); ok {
			assigns = append(assigns, a)
		}
	}
	if len(assigns) != 2 {
		t.Fatalf("expected 2 assignment equations, got %d", len(assigns))
	}
	if diff := expr.CompareExpr(assigns[1].RHS, expr.NewBinaryExpr(expr.ADD, assigns[0].LHS, expr.NewConstantExpr32(1))); diff != 0 {
		t.Fatalf("second assignment did not reference renamed first: got %s", assigns[1])
	}
}

func TestRun_BranchForksTwoPaths(t *testing.T) {
	cond := expr.NewSymbolExpr("cond", expr.NewBoolType())
	loc := gotoir.SourceLocation{Function: "main"}
	fn := &gotoir.Function{
		Name: "main",
		Body: []gotoir.Instruction{
			gotoir.NewGoto(loc, cond, 3),
			gotoir.NewAssert(loc, expr.NewBoolConstantExpr(true), "else branch"),
			gotoir.NewGoto(loc, nil, 4),
			gotoir.NewAssert(loc, expr.NewBoolConstantExpr(true), "then branch"),
			gotoir.NewReturn(loc, nil),
		},
	}
	gotoir.Number(fn)

	prog := gotoir.NewProgram()
	prog.AddFunction(fn)

	ex := NewExecutor(prog, nil, Options{})
	states, err := ex.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("expected 2 terminal states from one branch, got %d", len(states))
	}

	var messages []string
	for _, s := range states {
		for _, e := range s.Trace() {
			if c, ok := e.(Claim); ok {
				messages = append(messages, c.Message)
			}
		}
	}
	if len(messages) != 2 {
		t.Fatalf("expected one claim per path, got %v", messages)
	}
}

func TestRun_LoopUnwindCutsPath(t *testing.T) {
	i := expr.NewSymbolExpr("i", expr.NewBVType(32, false))
	loc := gotoir.SourceLocation{Function: "main"}
	fn := &gotoir.Function{
		Name: "main",
		Body: []gotoir.Instruction{
			gotoir.NewDecl(loc, "i", expr.NewBVType(32, false)),
			gotoir.NewAssign(loc, i, expr.NewConstantExpr32(0)),
			// loop header (location 2): unconditional back edge from 3
			gotoir.NewAssign(loc, i, expr.NewBinaryExpr(expr.ADD, i, expr.NewConstantExpr32(1))),
			gotoir.NewGoto(loc, nil, 2),
		},
	}
	gotoir.Number(fn)

	prog := gotoir.NewProgram()
	prog.AddFunction(fn)

	ex := NewExecutor(prog, nil, Options{Unwind: 3})
	states, err := ex.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("expected 1 state, got %d", len(states))
	}
	if states[0].Status() != UnwindCut {
		t.Fatalf("expected UnwindCut, got %s", states[0].Status())
	}

	var claims int
	for _, e := range states[0].Trace() {
		if _, ok := e.(Claim); ok {
			claims++
		}
	}
	if claims != 1 {
		t.Fatalf("expected one unwinding assertion, got %d", claims)
	}
}

func TestRun_AssumeFalsePrunesPath(t *testing.T) {
	loc := gotoir.SourceLocation{Function: "main"}
	fn := &gotoir.Function{
		Name: "main",
		Body: []gotoir.Instruction{
			gotoir.NewAssume(loc, expr.NewBoolConstantExpr(false)),
			gotoir.NewReturn(loc, nil),
		},
	}
	gotoir.Number(fn)

	prog := gotoir.NewProgram()
	prog.AddFunction(fn)

	ex := NewExecutor(prog, nil, Options{})
	states, err := ex.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(states) != 1 || states[0].Status() != Terminated || states[0].Reason() != "assume(false)" {
		t.Fatalf("expected a single path terminated by assume(false), got %+v", states)
	}
}

func TestSymexMalloc_AllocatesZeroedArray(t *testing.T) {
	p := expr.NewSymbolExpr("p", expr.NewPointerType(expr.NewBVType(8, false)))
	loc := gotoir.SourceLocation{Function: "main"}
	fn := &gotoir.Function{
		Name: "main",
		Body: []gotoir.Instruction{
			gotoir.NewFunctionCall(loc, p, "malloc", []expr.Expr{expr.NewConstantExpr32(16)}),
			gotoir.NewReturn(loc, nil),
		},
	}
	gotoir.Number(fn)

	prog := gotoir.NewProgram()
	prog.AddFunction(fn)

	ex := NewExecutor(prog, nil, Options{})
	states, err := ex.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("expected 1 state, got %d", len(states))
	}
	if name, ok := states[0].ObjectName(1); !ok || name != "dynamic_1_array" {
		t.Fatalf("expected allocation named dynamic_1_array at address 1, got %q ok=%v", name, ok)
	}
}

var _ = valueset.Bottom // keep the import meaningful for future GetValueSet-driven tests
