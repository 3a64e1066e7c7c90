package kinduction

import (
	"fmt"

	"github.com/boundedmc/bmc/internal/smt"
)

// stubAST and stubSolver mirror internal/driver's own test doubles:
// an in-memory smt.Solver that builds trivial AST nodes and returns
// whatever sat/unsat/model values a test preconfigures, rather than
// deciding anything for real. Kept local to this package since
// internal/driver's stub is unexported there.
type stubAST struct {
	op   string
	kind smt.FuncKind
	args []smt.AST
}

func (a *stubAST) String() string { return fmt.Sprintf("(%s %s %v)", a.op, a.kind, a.args) }

type stubSolver struct {
	result  smt.Result
	boolVal bool
}

func newStubSolver(result smt.Result, boolVal bool) func() (smt.Solver, error) {
	return func() (smt.Solver, error) {
		return &stubSolver{result: result, boolVal: boolVal}, nil
	}
}

func (s *stubSolver) MkSort(kind smt.SortKind, args ...uint) (smt.Sort, error) {
	return smt.Sort{Kind: kind}, nil
}
func (s *stubSolver) MkSymbol(name string, sort smt.Sort) (smt.AST, error) {
	return &stubAST{op: "sym"}, nil
}
func (s *stubSolver) MkBVInt(value uint64, signed bool, width uint) (smt.AST, error) {
	return &stubAST{op: "const"}, nil
}
func (s *stubSolver) MkBVFloat(bits uint64, ew, sw uint) (smt.AST, error) {
	return &stubAST{op: "const"}, nil
}
func (s *stubSolver) MkFuncApp(kind smt.FuncKind, args ...smt.AST) (smt.AST, error) {
	return &stubAST{op: "app", kind: kind, args: args}, nil
}
func (s *stubSolver) AssertAST(ast smt.AST) error                      { return nil }
func (s *stubSolver) PushCtx() error                                   { return nil }
func (s *stubSolver) PopCtx() error                                    { return nil }
func (s *stubSolver) CheckSat() (smt.Result, error)                   { return s.result, nil }
func (s *stubSolver) GetBool(ast smt.AST) (bool, error)                { return s.boolVal, nil }
func (s *stubSolver) GetBV(ast smt.AST) (uint64, error)                { return 0, nil }
func (s *stubSolver) GetArrayElem(array smt.AST, index uint64) (uint64, error) {
	return 0, nil
}
func (s *stubSolver) Close() error { return nil }

var _ smt.Solver = (*stubSolver)(nil)
