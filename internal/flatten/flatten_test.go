package flatten_test

import (
	"testing"

	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/flatten"
)

func TestSelect_BoundedConstantIndexReadsBack(t *testing.T) {
	a := expr.NewArray(1, 4, "")
	a.Zero()

	f := flatten.New(flatten.Options{})
	a = f.Store(a, expr.NewConstantExpr64(2), expr.NewConstantExpr8(0x42))

	got := f.Select(a, expr.NewConstantExpr64(2))
	if diff := expr.CompareExpr(got, expr.NewConstantExpr8(0x42)); diff != 0 {
		t.Fatalf("expected stored byte back, got %s", got)
	}

	other := f.Select(a, expr.NewConstantExpr64(0))
	if diff := expr.CompareExpr(other, expr.NewConstantExpr8(0)); diff != 0 {
		t.Fatalf("expected zero-initialized byte, got %s", other)
	}
}

func TestSelect_BoundedSymbolicIndexBuildsIteChain(t *testing.T) {
	a := expr.NewArray(2, 3, "")
	a.Zero()
	f := flatten.New(flatten.Options{})
	a = f.Store(a, expr.NewConstantExpr64(1), expr.NewConstantExpr8(0x7))

	idx := expr.NewSymbolExpr("i", expr.NewBVType(64, false))
	got := f.Select(a, idx)

	ite, ok := got.(*expr.IfExpr)
	if !ok {
		t.Fatalf("expected an ite chain for a symbolic index, got %T (%s)", got, got)
	}
	// the outermost condition compares against index 0 and the final
	// else is slot Size-1, since the chain is built from slot Size-1
	// outward to slot 0.
	var last expr.Expr = ite
	for {
		cur, ok := last.(*expr.IfExpr)
		if !ok {
			break
		}
		last = cur.Else
	}
	if diff := expr.CompareExpr(last, expr.NewConstantExpr8(0)); diff != 0 {
		t.Fatalf("expected the chain's final else to be the zero-initialized slot Size-1, got %s", last)
	}
}

func TestSelect_OutOfRangeConstantOnBoundedArrayIsFree(t *testing.T) {
	a := expr.NewArray(3, 2, "")
	a.Zero()
	f := flatten.New(flatten.Options{})

	got1 := f.Select(a, expr.NewConstantExpr64(9))
	got2 := f.Select(a, expr.NewConstantExpr64(9))
	if expr.CompareExpr(got1, got2) == 0 {
		t.Fatalf("expected two independent free values for repeated out-of-range reads, got identical %s", got1)
	}
}

func TestSelect_UnboundedCachesFreshVarPerUpdateNumAndIndex(t *testing.T) {
	a := expr.NewArray(4, 64, "")
	a.Zero()
	f := flatten.New(flatten.Options{})

	i := expr.NewSymbolExpr("i", expr.NewBVType(64, false))
	j := expr.NewSymbolExpr("j", expr.NewBVType(64, false))
	a = f.Store(a, i, expr.NewConstantExpr8(3))
	// A second, unrelated symbolic store becomes the newest entry, so a
	// later select at i can no longer be proven to reach its own store
	// directly and stays a genuinely unresolved select.
	a = f.Store(a, j, expr.NewConstantExpr8(9))

	v1 := f.Select(a, i)
	v2 := f.Select(a, i)
	if expr.CompareExpr(v1, v2) != 0 {
		t.Fatalf("expected the same cached fresh variable for two selects at the same update number and index, got %s vs %s", v1, v2)
	}

	k := expr.NewSymbolExpr("k", expr.NewBVType(64, false))
	v3 := f.Select(a, k)
	if expr.CompareExpr(v1, v3) == 0 {
		t.Fatalf("expected a distinct fresh variable for a differently-named index, got the same %s", v1)
	}
}

func TestAddArrayConstraintsForSolving_TiesSelectToValuation(t *testing.T) {
	a := expr.NewArray(5, 64, "")
	a.Zero()
	f := flatten.New(flatten.Options{})

	i := expr.NewSymbolExpr("i", expr.NewBVType(64, false))
	j := expr.NewSymbolExpr("j", expr.NewBVType(64, false))
	a = f.Store(a, i, expr.NewConstantExpr8(3))
	a = f.Store(a, j, expr.NewConstantExpr8(9))
	fresh := f.Select(a, i)

	extra := f.AddArrayConstraintsForSolving()
	if len(extra) == 0 {
		t.Fatalf("expected at least one solving constraint")
	}

	var found bool
	for _, c := range extra {
		bin, ok := c.(*expr.BinaryExpr)
		if !ok || bin.Op != expr.EQ {
			continue
		}
		if expr.CompareExpr(bin.LHS, fresh) == 0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an equality pinning the cached select variable to its valuation, got %v", extra)
	}
}

func TestAddArrayConstraintsForSolving_SkipsBoundedArrays(t *testing.T) {
	a := expr.NewArray(6, 4, "")
	a.Zero()
	f := flatten.New(flatten.Options{})
	idx := expr.NewSymbolExpr("i", expr.NewBVType(64, false))
	f.Select(a, idx)

	if extra := f.AddArrayConstraintsForSolving(); len(extra) != 0 {
		t.Fatalf("expected no deferred constraints for a bounded array, got %v", extra)
	}
}

func TestStore_OutOfRangeConstantOnBoundedArrayIsNoop(t *testing.T) {
	a := expr.NewArray(8, 2, "")
	a.Zero()
	f := flatten.New(flatten.Options{})

	next := f.Store(a, expr.NewConstantExpr64(9), expr.NewConstantExpr8(0x42))
	if next != a {
		t.Fatalf("expected the unchanged array back for an out-of-range store, got a different value")
	}

	got := f.Select(next, expr.NewConstantExpr64(0))
	if diff := expr.CompareExpr(got, expr.NewConstantExpr8(0)); diff != 0 {
		t.Fatalf("expected slot 0 still zero-initialized after the no-op store, got %s", got)
	}
}

func TestIte_SameBaseIsNoop(t *testing.T) {
	a := expr.NewArray(7, 64, "")
	a.Zero()
	f := flatten.New(flatten.Options{})
	cond := expr.NewSymbolExpr("c", expr.NewBoolType())

	got := f.Ite(cond, a, a)
	if got != a {
		t.Fatalf("expected the same array back for a same-base ite")
	}
}
