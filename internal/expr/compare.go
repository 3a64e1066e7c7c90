package expr

import "fmt"

// CompareExpr returns -1, 0, or 1 comparing a and b under a total
// structural order, used to hash-cons/dedupe and to order array update
// chains deterministically.
func CompareExpr(a, b Expr) int {
	if a == nil && b != nil {
		return -1
	} else if a != nil && b == nil {
		return 1
	} else if a == nil && b == nil {
		return 0
	}

	if ak, bk := exprKind(a), exprKind(b); ak < bk {
		return -1
	} else if ak > bk {
		return 1
	}

	switch a := a.(type) {
	case *ConstantExpr:
		return compareConstantExpr(a, b.(*ConstantExpr))
	case *NotOptimizedExpr:
		return CompareExpr(a.Src, b.(*NotOptimizedExpr).Src)
	case *SelectExpr:
		return compareSelectExpr(a, b.(*SelectExpr))
	case *ConcatExpr:
		return compareConcatExpr(a, b.(*ConcatExpr))
	case *ExtractExpr:
		return compareExtractExpr(a, b.(*ExtractExpr))
	case *NotExpr:
		return CompareExpr(a.Expr, b.(*NotExpr).Expr)
	case *CastExpr:
		return compareCastExpr(a, b.(*CastExpr))
	case *BinaryExpr:
		return compareBinaryExpr(a, b.(*BinaryExpr))
	case *SymbolExpr:
		return compareSymbolExpr(a, b.(*SymbolExpr))
	case *AddressOfExpr:
		return CompareExpr(a.Object, b.(*AddressOfExpr).Object)
	case *DereferenceExpr:
		return CompareExpr(a.Pointer, b.(*DereferenceExpr).Pointer)
	case *IndexExpr:
		bb := b.(*IndexExpr)
		if cmp := CompareExpr(a.Base, bb.Base); cmp != 0 {
			return cmp
		}
		return CompareExpr(a.Index, bb.Index)
	case *MemberExpr:
		bb := b.(*MemberExpr)
		if a.Name != bb.Name {
			return stringCompare(a.Name, bb.Name)
		}
		return CompareExpr(a.Base, bb.Base)
	case *IfExpr:
		bb := b.(*IfExpr)
		if cmp := CompareExpr(a.Cond, bb.Cond); cmp != 0 {
			return cmp
		}
		if cmp := CompareExpr(a.Then, bb.Then); cmp != 0 {
			return cmp
		}
		return CompareExpr(a.Else, bb.Else)
	case *SizeofExpr:
		return stringCompare(a.Of.String(), b.(*SizeofExpr).Of.String())
	case *FuncCallExpr:
		bb := b.(*FuncCallExpr)
		if a.Callee != bb.Callee {
			return stringCompare(a.Callee, bb.Callee)
		}
		return compareExprSlice(a.Args, bb.Args)
	case *WithUpdateExpr:
		bb := b.(*WithUpdateExpr)
		if cmp := CompareExpr(a.Base, bb.Base); cmp != 0 {
			return cmp
		}
		if cmp := CompareExpr(a.Key, bb.Key); cmp != 0 {
			return cmp
		}
		return CompareExpr(a.Value, bb.Value)
	case *StructExpr:
		return compareExprSlice(a.Fields, b.(*StructExpr).Fields)
	case *ArrayLiteralExpr:
		return compareExprSlice(a.Elems, b.(*ArrayLiteralExpr).Elems)
	case *StatementExpr:
		return CompareExpr(a.Result, b.(*StatementExpr).Result)
	default:
		panic(fmt.Sprintf("CompareExpr: unreachable: %T", a))
	}
}

func stringCompare(a, b string) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

func compareExprSlice(a, b []Expr) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if cmp := CompareExpr(a[i], b[i]); cmp != 0 {
			return cmp
		}
	}
	if len(a) < len(b) {
		return -1
	} else if len(a) > len(b) {
		return 1
	}
	return 0
}

func compareConstantExpr(a, b *ConstantExpr) int {
	if a.Width < b.Width {
		return -1
	} else if a.Width > b.Width {
		return 1
	}
	if a.Value < b.Value {
		return -1
	} else if a.Value > b.Value {
		return 1
	}
	return 0
}

func compareSelectExpr(a, b *SelectExpr) int {
	if cmp := CompareExpr(a.Index, b.Index); cmp != 0 {
		return cmp
	}
	return CompareArray(a.Array, b.Array)
}

func compareConcatExpr(a, b *ConcatExpr) int {
	if cmp := CompareExpr(a.MSB, b.MSB); cmp != 0 {
		return cmp
	}
	return CompareExpr(a.LSB, b.LSB)
}

func compareExtractExpr(a, b *ExtractExpr) int {
	if a.Offset < b.Offset {
		return -1
	} else if a.Offset > b.Offset {
		return 1
	}
	if a.Width < b.Width {
		return -1
	} else if a.Width > b.Width {
		return 1
	}
	return CompareExpr(a.Expr, b.Expr)
}

func compareCastExpr(a, b *CastExpr) int {
	if a.Signed && !b.Signed {
		return -1
	} else if !a.Signed && b.Signed {
		return 1
	}
	if a.Width < b.Width {
		return -1
	} else if a.Width > b.Width {
		return 1
	}
	return CompareExpr(a.Src, b.Src)
}

func compareBinaryExpr(a, b *BinaryExpr) int {
	if a.Op < b.Op {
		return -1
	} else if a.Op > b.Op {
		return 1
	}
	if cmp := CompareExpr(a.LHS, b.LHS); cmp != 0 {
		return cmp
	}
	return CompareExpr(a.RHS, b.RHS)
}

func compareSymbolExpr(a, b *SymbolExpr) int {
	if a.Name != b.Name {
		return stringCompare(a.Name, b.Name)
	}
	if a.L1 != b.L1 {
		if a.L1 < b.L1 {
			return -1
		}
		return 1
	}
	if a.L2 != b.L2 {
		if a.L2 < b.L2 {
			return -1
		}
		return 1
	}
	return 0
}
