package monitor

import "github.com/boundedmc/bmc/internal/expr"

// SupportSet returns the distinct symbol names e reads, the set used to
// decide which assignments must trigger a monitor's re-evaluation.
func SupportSet(e expr.Expr) []string {
	seen := make(map[string]bool)
	expr.WalkExpr(supportVisitor{seen}, e)

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	return out
}

type supportVisitor struct{ seen map[string]bool }

func (v supportVisitor) Visit(e expr.Expr) (expr.Expr, expr.ExprVisitor) {
	if sym, ok := e.(*expr.SymbolExpr); ok {
		v.seen[sym.Name] = true
	}
	return e, v
}
