package expr_test

import (
	"testing"

	"github.com/boundedmc/bmc/internal/expr"
	"github.com/google/go-cmp/cmp"
)

func TestExprWidth(t *testing.T) {
	t.Run("ConstantExpr", func(t *testing.T) {
		if w := expr.ExprWidth(&expr.ConstantExpr{Value: 0, Width: 8}); w != 8 {
			t.Fatalf("unexpected width: %d", w)
		}
	})
	t.Run("ConcatExpr", func(t *testing.T) {
		w := expr.ExprWidth(&expr.ConcatExpr{
			MSB: &expr.ConstantExpr{Value: 0, Width: 8},
			LSB: &expr.ConstantExpr{Value: 0, Width: 16},
		})
		if w != 24 {
			t.Fatalf("unexpected width: %d", w)
		}
	})
	t.Run("BinaryExpr/Compare", func(t *testing.T) {
		e := &expr.BinaryExpr{Op: expr.EQ, LHS: expr.NewConstantExpr32(1), RHS: expr.NewConstantExpr32(1)}
		if w := expr.ExprWidth(e); w != expr.WidthBool {
			t.Fatalf("unexpected width: %d", w)
		}
	})
	t.Run("IfExpr", func(t *testing.T) {
		e := &expr.IfExpr{
			Cond: expr.NewSymbolExpr("c", expr.NewBoolType()),
			Then: expr.NewConstantExpr32(1),
			Else: expr.NewConstantExpr32(2),
		}
		if w := expr.ExprWidth(e); w != 32 {
			t.Fatalf("unexpected width: %d", w)
		}
	})
}

func TestNewBinaryExpr_ConstantFolding(t *testing.T) {
	t.Run("Add", func(t *testing.T) {
		got := expr.NewBinaryExpr(expr.ADD, expr.NewConstantExpr32(1), expr.NewConstantExpr32(2))
		want := expr.NewConstantExpr32(3)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("mismatch: %s", diff)
		}
	})
	t.Run("EqSameExprIsTrue", func(t *testing.T) {
		x := expr.NewSymbolExpr("x", expr.NewBVType(32, false))
		got := expr.NewBinaryExpr(expr.EQ, x, x)
		if !expr.IsConstantTrue(got) {
			t.Fatalf("expected constant true, got %s", got)
		}
	})
	t.Run("SubSelfIsZero", func(t *testing.T) {
		x := expr.NewSymbolExpr("x", expr.NewBVType(32, false))
		got := expr.NewBinaryExpr(expr.SUB, x, x)
		want := expr.NewConstantExpr(0, 32)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("mismatch: %s", diff)
		}
	})
}

func TestCompareExpr(t *testing.T) {
	a := expr.NewConstantExpr32(1)
	b := expr.NewConstantExpr32(2)
	if expr.CompareExpr(a, a) != 0 {
		t.Fatalf("expected equal")
	}
	if expr.CompareExpr(a, b) >= 0 {
		t.Fatalf("expected a < b")
	}
	if expr.CompareExpr(b, a) <= 0 {
		t.Fatalf("expected b > a")
	}
}

func TestZeroValue(t *testing.T) {
	t.Run("Struct", func(t *testing.T) {
		st := expr.NewStructType("point", []expr.Component{
			{Name: "x", Type: expr.NewBVType(32, true)},
			{Name: "y", Type: expr.NewBVType(32, true)},
		})
		got := expr.ZeroValue(st).(*expr.StructExpr)
		if len(got.Fields) != 2 {
			t.Fatalf("expected 2 fields, got %d", len(got.Fields))
		}
		for _, f := range got.Fields {
			if !expr.IsConstantExpr(f) {
				t.Fatalf("expected constant field, got %T", f)
			}
		}
	})
}

func TestArray_StoreSelect(t *testing.T) {
	a := expr.NewArray(1, 4, "")
	a.Zero()

	a2 := a.Store(expr.NewConstantExpr64(0), expr.NewConstantExpr32(7), true)
	got := a2.Select(expr.NewConstantExpr64(0), 32, true)
	want := expr.NewConstantExpr32(7)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch: %s", diff)
	}
}

func TestWalkExpr_Rewrite(t *testing.T) {
	src := expr.NewBinaryExpr(expr.ADD, expr.NewSymbolExpr("x", expr.NewBVType(32, false)), expr.NewConstantExpr32(1))

	v := &replaceSymbol{from: "x", to: expr.NewConstantExpr32(41)}
	expr.WalkExpr(v, src)

	collector := &collectSymbols{}
	expr.WalkExpr(collector, src)
	if len(collector.names) != 0 {
		t.Fatalf("expected no remaining symbols, got %v", collector.names)
	}
}

type collectSymbols struct{ names []string }

func (v *collectSymbols) Visit(e expr.Expr) (expr.Expr, expr.ExprVisitor) {
	if s, ok := e.(*expr.SymbolExpr); ok {
		v.names = append(v.names, s.Name)
	}
	return e, v
}

type replaceSymbol struct {
	from string
	to   expr.Expr
}

func (v *replaceSymbol) Visit(e expr.Expr) (expr.Expr, expr.ExprVisitor) {
	if s, ok := e.(*expr.SymbolExpr); ok && s.Name == v.from {
		return v.to, nil
	}
	return e, v
}
