package valueset_test

import (
	"testing"

	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/gotoir"
	"github.com/boundedmc/bmc/internal/valueset"
)

func TestAnalyze_AddressOfAndBranch(t *testing.T) {
	// int a; int b; int *p;
	// if (cond) p = &a; else p = &b;
	// *p access point is instruction 3.
	intType := expr.NewBVType(32, true)
	ptrType := expr.NewPointerType(intType)
	p := expr.NewSymbolExpr("p", ptrType)
	cond := expr.NewSymbolExpr("cond", expr.NewBoolType())

	loc := gotoir.SourceLocation{Function: "f"}
	fn := &gotoir.Function{
		Name: "f",
		Body: []gotoir.Instruction{
			gotoir.NewGoto(loc, cond, 3),                                                          // 0: if cond goto 3 (then-branch)
			gotoir.NewAssign(loc, p, &expr.AddressOfExpr{Object: expr.NewSymbolExpr("b", intType)}), // 1: p = &b (else-branch)
			gotoir.NewGoto(loc, nil, 4),                                                          // 2: goto 4 (skip then-branch)
			gotoir.NewAssign(loc, p, &expr.AddressOfExpr{Object: expr.NewSymbolExpr("a", intType)}), // 3: p = &a (then-branch)
			gotoir.NewReturn(loc, nil),                                                           // 4: merge point
		},
	}
	gotoir.Number(fn)

	reg := valueset.NewRegistry()
	info := valueset.Analyze(fn, reg, 0)

	set := info.GetValueSet(4, p)
	if set.IsTop() {
		t.Fatalf("expected concrete value-set at merge point, got top")
	}
	if n := set.Len(); n != 2 {
		t.Fatalf("expected 2 possible targets at merge point, got %d: %s", n, set)
	}
}

func TestWiden_OverflowDegradesToTop(t *testing.T) {
	// Same diamond shape as the address-of test, but with the join bound
	// set to 1: the merge point's union of the two branch singletons
	// exceeds the bound and must widen to top.
	byteType := expr.NewBVType(8, false)
	ptrType := expr.NewPointerType(byteType)
	p := expr.NewSymbolExpr("p", ptrType)
	cond := expr.NewSymbolExpr("cond", expr.NewBoolType())

	loc := gotoir.SourceLocation{Function: "f"}
	fn := &gotoir.Function{
		Name: "f",
		Body: []gotoir.Instruction{
			gotoir.NewGoto(loc, cond, 3),
			gotoir.NewAssign(loc, p, &expr.AddressOfExpr{Object: expr.NewSymbolExpr("b", byteType)}),
			gotoir.NewGoto(loc, nil, 4),
			gotoir.NewAssign(loc, p, &expr.AddressOfExpr{Object: expr.NewSymbolExpr("a", byteType)}),
			gotoir.NewReturn(loc, nil),
		},
	}
	gotoir.Number(fn)

	reg := valueset.NewRegistry()
	info := valueset.Analyze(fn, reg, 1) // bound of 1 forces overflow at the merge

	set := info.GetValueSet(4, p)
	if !set.IsTop() {
		t.Fatalf("expected widened top value-set, got %s", set)
	}
}

func TestJoin_UnionsAndTopAbsorbs(t *testing.T) {
	a := valueset.Singleton(1, 0)
	b := valueset.Singleton(2, 0)
	joined := valueset.Join(a, b)
	if joined.Len() != 2 {
		t.Fatalf("expected union of size 2, got %d", joined.Len())
	}
	if !valueset.Join(joined, valueset.Top()).IsTop() {
		t.Fatalf("expected top to absorb")
	}
}
