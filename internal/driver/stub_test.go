package driver

import (
	"fmt"

	"github.com/boundedmc/bmc/internal/smt"
)

// stubAST is a tiny in-memory AST so compile/driver tests can assert on
// the shape of what gets built without running an actual solver.
type stubAST struct {
	op   string
	kind smt.FuncKind
	name string
	val  uint64
	args []smt.AST
}

func (a *stubAST) String() string {
	switch a.op {
	case "const":
		return fmt.Sprintf("%d", a.val)
	case "sym":
		return a.name
	case "extract":
		return fmt.Sprintf("(extract %v)", a.args)
	default:
		return fmt.Sprintf("(%s %v)", a.kind, a.args)
	}
}

// stubSolver implements smt.Solver (plus MkExtract, the optional
// capability internal/driver's compiler type-asserts for) entirely in
// memory: every Mk* call just builds a stubAST node, AssertAST records
// it, and CheckSat/GetBool/GetBV return whatever the test preconfigured
// rather than actually deciding satisfiability.
type stubSolver struct {
	asserts []smt.AST

	result  smt.Result
	boolVal bool
	bvVals  map[string]uint64
}

func newStubSolver() *stubSolver {
	return &stubSolver{result: smt.Unsat, bvVals: make(map[string]uint64)}
}

func (s *stubSolver) MkSort(kind smt.SortKind, args ...uint) (smt.Sort, error) {
	return smt.Sort{Kind: kind}, nil
}

func (s *stubSolver) MkSymbol(name string, sort smt.Sort) (smt.AST, error) {
	return &stubAST{op: "sym", name: name}, nil
}

func (s *stubSolver) MkBVInt(value uint64, signed bool, width uint) (smt.AST, error) {
	return &stubAST{op: "const", val: value}, nil
}

func (s *stubSolver) MkBVFloat(bits uint64, ew, sw uint) (smt.AST, error) {
	return &stubAST{op: "const", val: bits}, nil
}

func (s *stubSolver) MkFuncApp(kind smt.FuncKind, args ...smt.AST) (smt.AST, error) {
	return &stubAST{op: "app", kind: kind, args: args}, nil
}

func (s *stubSolver) MkExtract(src smt.AST, offset, width uint) (smt.AST, error) {
	return &stubAST{op: "extract", args: []smt.AST{src}, val: uint64(offset)<<32 | uint64(width)}, nil
}

func (s *stubSolver) AssertAST(ast smt.AST) error {
	s.asserts = append(s.asserts, ast)
	return nil
}

func (s *stubSolver) PushCtx() error { return nil }
func (s *stubSolver) PopCtx() error  { return nil }

func (s *stubSolver) CheckSat() (smt.Result, error) { return s.result, nil }

func (s *stubSolver) GetBool(ast smt.AST) (bool, error) { return s.boolVal, nil }

func (s *stubSolver) GetBV(ast smt.AST) (uint64, error) {
	a, ok := ast.(*stubAST)
	if !ok || a.op != "sym" {
		return 0, nil
	}
	return s.bvVals[a.name], nil
}

func (s *stubSolver) GetArrayElem(array smt.AST, index uint64) (uint64, error) { return 0, nil }

func (s *stubSolver) Close() error { return nil }

var _ smt.Solver = (*stubSolver)(nil)
