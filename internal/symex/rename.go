package symex

import "github.com/boundedmc/bmc/internal/expr"

// rename substitutes every SymbolExpr in e with its current SSA
// version under r, the "renamed to its current SSA version" step
// symex_assign's contract requires before an rhs is used.
//
// This rebuilds a fresh tree rather than using expr.WalkExpr, which
// mutates operands in place: a goto instruction's RHS is read by
// every forked path state that reaches it, often with a different
// renamer each time, so renaming must not touch the shared
// instruction's own expression tree.
func rename(r *renamer, e expr.Expr) expr.Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *expr.SymbolExpr:
		return symbolExpr(r, e)
	case *expr.BinaryExpr:
		return expr.NewBinaryExpr(e.Op, rename(r, e.LHS), rename(r, e.RHS))
	case *expr.CastExpr:
		return expr.NewCastExpr(rename(r, e.Src), e.Width, e.Signed)
	case *expr.ConcatExpr:
		return expr.NewConcatExpr(rename(r, e.MSB), rename(r, e.LSB))
	case *expr.ConstantExpr:
		return e
	case *expr.ExtractExpr:
		return expr.NewExtractExpr(rename(r, e.Expr), e.Offset, e.Width)
	case *expr.NotExpr:
		return expr.NewNotExpr(rename(r, e.Expr))
	case *expr.NotOptimizedExpr:
		return expr.NewNotOptimizedExpr(rename(r, e.Src))
	case *expr.SelectExpr:
		return expr.NewSelectExpr(renameArray(r, e.Array), rename(r, e.Index))
	case *expr.AddressOfExpr:
		return &expr.AddressOfExpr{Object: rename(r, e.Object)}
	case *expr.DereferenceExpr:
		return &expr.DereferenceExpr{Pointer: rename(r, e.Pointer), Type: e.Type}
	case *expr.IndexExpr:
		return &expr.IndexExpr{Base: rename(r, e.Base), Index: rename(r, e.Index), Type: e.Type}
	case *expr.MemberExpr:
		return &expr.MemberExpr{Base: rename(r, e.Base), Name: e.Name, Type: e.Type}
	case *expr.IfExpr:
		return expr.NewIfExpr(rename(r, e.Cond), rename(r, e.Then), rename(r, e.Else))
	case *expr.SizeofExpr:
		return expr.NewSizeofExpr(e.Of)
	case *expr.FuncCallExpr:
		args := make([]expr.Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = rename(r, a)
		}
		return &expr.FuncCallExpr{Callee: e.Callee, Args: args, Type: e.Type}
	case *expr.WithUpdateExpr:
		return &expr.WithUpdateExpr{Base: rename(r, e.Base), Key: rename(r, e.Key), Value: rename(r, e.Value)}
	case *expr.StructExpr:
		fields := make([]expr.Expr, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = rename(r, f)
		}
		return &expr.StructExpr{Type: e.Type, Fields: fields}
	case *expr.ArrayLiteralExpr:
		elems := make([]expr.Expr, len(e.Elems))
		for i, el := range e.Elems {
			elems[i] = rename(r, el)
		}
		return &expr.ArrayLiteralExpr{ElemType: e.ElemType, Elems: elems}
	case *expr.StatementExpr:
		return &expr.StatementExpr{Result: rename(r, e.Result)}
	default:
		return e
	}
}

// renameArray renames the index/value expressions threaded through an
// array's update chain, leaving its ID and Size untouched: arrays are
// keyed by heap address, which is not subject to SSA renaming.
func renameArray(r *renamer, a *expr.Array) *expr.Array {
	if a.Updates == nil {
		return a
	}
	out := a.Clone()
	out.Updates = renameUpdateChain(r, a.Updates)
	return out
}

func renameUpdateChain(r *renamer, u *expr.ArrayUpdate) *expr.ArrayUpdate {
	if u == nil {
		return nil
	}
	return expr.NewArrayUpdate(rename(r, u.Index), rename(r, u.Value), renameUpdateChain(r, u.Next))
}
