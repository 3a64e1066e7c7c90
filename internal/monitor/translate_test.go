package monitor_test

import (
	"testing"

	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/monitor"
)

func resolverFor(types map[string]expr.Type) monitor.SymbolResolver {
	return func(name string) (*expr.SymbolExpr, error) {
		t, ok := types[name]
		if !ok {
			return nil, errUnknownSymbol(name)
		}
		return expr.NewSymbolExpr(name, t), nil
	}
}

type errUnknownSymbol string

func (e errUnknownSymbol) Error() string { return "unknown symbol: " + string(e) }

func translate(t *testing.T, src string, types map[string]expr.Type) expr.Expr {
	t.Helper()
	node, err := monitor.ParseExpression(src)
	if err != nil {
		t.Fatalf("ParseExpression(%q): %v", src, err)
	}
	e, err := monitor.Translate(node, resolverFor(types))
	if err != nil {
		t.Fatalf("Translate(%q): %v", src, err)
	}
	return e
}

func TestTranslate_LogicalAnd(t *testing.T) {
	types := map[string]expr.Type{
		"x": expr.NewBoolType(),
		"y": expr.NewBoolType(),
	}
	got := translate(t, "x && y", types)
	bin, ok := got.(*expr.BinaryExpr)
	if !ok || bin.Op != expr.AND {
		t.Fatalf("expected an AND of x and y, got %s", got)
	}
}

func TestTranslate_Negation(t *testing.T) {
	types := map[string]expr.Type{"x": expr.NewBoolType()}
	got := translate(t, "!x", types)
	if _, ok := got.(*expr.NotExpr); !ok {
		if sym, ok := got.(*expr.SymbolExpr); !ok || sym.Name != "x" {
			t.Fatalf("expected a NOT wrapping x, got %s", got)
		}
	}
}

func TestTranslate_ComparisonPicksSignedness(t *testing.T) {
	types := map[string]expr.Type{"x": expr.NewBVType(32, true)}
	got := translate(t, "x < 5", types)
	bin, ok := got.(*expr.BinaryExpr)
	if !ok || bin.Op != expr.SLT {
		t.Fatalf("expected a signed less-than, got %s", got)
	}
	rhs, ok := bin.RHS.(*expr.ConstantExpr)
	if !ok || expr.ExprWidth(rhs) != 32 {
		t.Fatalf("expected the literal to be widened to match x's 32-bit width, got %s", bin.RHS)
	}
}

func TestTranslate_UnsignedComparison(t *testing.T) {
	types := map[string]expr.Type{"x": expr.NewBVType(16, false)}
	got := translate(t, "x >= 1", types)
	// expr.NewBinaryExpr canonicalizes x >= 1 into 1 <= x.
	bin, ok := got.(*expr.BinaryExpr)
	if !ok || bin.Op != expr.ULE {
		t.Fatalf("expected an unsigned greater-or-equal (as 1 <= x), got %s", got)
	}
	if sym, ok := bin.RHS.(*expr.SymbolExpr); !ok || sym.Name != "x" {
		t.Fatalf("expected x on the right of the canonical 1 <= x, got %s", got)
	}
}

func TestTranslate_UnknownSymbolErrors(t *testing.T) {
	if _, err := monitor.ParseExpression("x"); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	node, _ := monitor.ParseExpression("x")
	if _, err := monitor.Translate(node, resolverFor(nil)); err == nil {
		t.Fatalf("expected an error resolving an unknown symbol")
	}
}

func TestTranslate_BoolLiterals(t *testing.T) {
	got := translate(t, "true", nil)
	c, ok := got.(*expr.ConstantExpr)
	if !ok || expr.ExprWidth(c) != 1 {
		t.Fatalf("expected a width-1 constant for true, got %s", got)
	}
}
