package expr

import "fmt"

// ExprVisitor is passed to WalkExpr. Visit is called for every node in a
// pre-order traversal; returning a nil ExprVisitor stops descent below
// the returned replacement expression.
type ExprVisitor interface {
	Visit(e Expr) (Expr, ExprVisitor)
}

// WalkExpr recursively visits e and its operands, rewriting operands
// in-place when the visitor returns a different node for them.
func WalkExpr(v ExprVisitor, e Expr) Expr {
	other, v := v.Visit(e)
	if v == nil {
		return other
	}

	switch e := e.(type) {
	case *BinaryExpr:
		if r := WalkExpr(v, e.LHS); r != e.LHS {
			e.LHS = r
		}
		if r := WalkExpr(v, e.RHS); r != e.RHS {
			e.RHS = r
		}
	case *CastExpr:
		if r := WalkExpr(v, e.Src); r != e.Src {
			e.Src = r
		}
	case *ConcatExpr:
		if r := WalkExpr(v, e.MSB); r != e.MSB {
			e.MSB = r
		}
		if r := WalkExpr(v, e.LSB); r != e.LSB {
			e.LSB = r
		}
	case *ConstantExpr:
		// leaf
	case *ExtractExpr:
		if r := WalkExpr(v, e.Expr); r != e.Expr {
			e.Expr = r
		}
	case *NotExpr:
		if r := WalkExpr(v, e.Expr); r != e.Expr {
			e.Expr = r
		}
	case *NotOptimizedExpr:
		if r := WalkExpr(v, e.Src); r != e.Src {
			e.Src = r
		}
	case *SelectExpr:
		if r := WalkExpr(v, e.Index); r != e.Index {
			e.Index = r
		}
		for upd := e.Array.Updates; upd != nil; upd = upd.Next {
			if upd.Index != nil {
				if r := WalkExpr(v, upd.Index); r != upd.Index {
					upd.Index = r
				}
			}
			if upd.Value != nil {
				if r := WalkExpr(v, upd.Value); r != upd.Value {
					upd.Value = r
				}
			}
		}
	case *SymbolExpr:
		// leaf
	case *AddressOfExpr:
		if r := WalkExpr(v, e.Object); r != e.Object {
			e.Object = r
		}
	case *DereferenceExpr:
		if r := WalkExpr(v, e.Pointer); r != e.Pointer {
			e.Pointer = r
		}
	case *IndexExpr:
		if r := WalkExpr(v, e.Base); r != e.Base {
			e.Base = r
		}
		if r := WalkExpr(v, e.Index); r != e.Index {
			e.Index = r
		}
	case *MemberExpr:
		if r := WalkExpr(v, e.Base); r != e.Base {
			e.Base = r
		}
	case *IfExpr:
		if r := WalkExpr(v, e.Cond); r != e.Cond {
			e.Cond = r
		}
		if r := WalkExpr(v, e.Then); r != e.Then {
			e.Then = r
		}
		if r := WalkExpr(v, e.Else); r != e.Else {
			e.Else = r
		}
	case *SizeofExpr:
		// leaf
	case *FuncCallExpr:
		for i, arg := range e.Args {
			if r := WalkExpr(v, arg); r != arg {
				e.Args[i] = r
			}
		}
	case *WithUpdateExpr:
		if r := WalkExpr(v, e.Base); r != e.Base {
			e.Base = r
		}
		if r := WalkExpr(v, e.Key); r != e.Key {
			e.Key = r
		}
		if r := WalkExpr(v, e.Value); r != e.Value {
			e.Value = r
		}
	case *StructExpr:
		for i, f := range e.Fields {
			if r := WalkExpr(v, f); r != f {
				e.Fields[i] = r
			}
		}
	case *ArrayLiteralExpr:
		for i, el := range e.Elems {
			if r := WalkExpr(v, el); r != el {
				e.Elems[i] = r
			}
		}
	case *StatementExpr:
		if r := WalkExpr(v, e.Result); r != e.Result {
			e.Result = r
		}
	default:
		panic(fmt.Sprintf("WalkExpr: unreachable: %T", e))
	}

	return other
}
