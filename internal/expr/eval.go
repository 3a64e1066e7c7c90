package expr

import "fmt"

// Evaluator evaluates expressions to constants given concrete values for
// the symbolic arrays they reference (a solver model), decoding an SSA
// trace back into a concrete counter-example.
type Evaluator struct {
	m map[uint64][]byte
}

// NewEvaluator returns an Evaluator bound to the given array/value pairs.
func NewEvaluator(arrays []*Array, values [][]byte) *Evaluator {
	if len(arrays) != len(values) {
		panic(fmt.Sprintf("array/value count mismatch: %d != %d", len(arrays), len(values)))
	}
	m := make(map[uint64][]byte, len(arrays))
	for i, a := range arrays {
		if _, ok := m[a.ID]; ok {
			panic(fmt.Sprintf("duplicate array: id=%d", a.ID))
		}
		m[a.ID] = values[i]
	}
	return &Evaluator{m: m}
}

// Evaluate reduces e to a *ConstantExpr, returning an error if a select
// reaches an array with no bound model value.
func (ev *Evaluator) Evaluate(e Expr) (*ConstantExpr, error) {
	switch e := e.(type) {
	case *BinaryExpr:
		lhs, err := ev.Evaluate(e.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := ev.Evaluate(e.RHS)
		if err != nil {
			return nil, err
		}
		return NewBinaryExpr(e.Op, lhs, rhs).(*ConstantExpr), nil
	case *CastExpr:
		src, err := ev.Evaluate(e.Src)
		if err != nil {
			return nil, err
		}
		return NewCastExpr(src, e.Width, e.Signed).(*ConstantExpr), nil
	case *ConcatExpr:
		msb, err := ev.Evaluate(e.MSB)
		if err != nil {
			return nil, err
		}
		lsb, err := ev.Evaluate(e.LSB)
		if err != nil {
			return nil, err
		}
		return NewConcatExpr(msb, lsb).(*ConstantExpr), nil
	case *ConstantExpr:
		return e, nil
	case *ExtractExpr:
		x, err := ev.Evaluate(e.Expr)
		if err != nil {
			return nil, err
		}
		return NewExtractExpr(x, e.Offset, e.Width).(*ConstantExpr), nil
	case *NotExpr:
		x, err := ev.Evaluate(e.Expr)
		if err != nil {
			return nil, err
		}
		return NewNotExpr(x).(*ConstantExpr), nil
	case *NotOptimizedExpr:
		return ev.Evaluate(e.Src)
	case *IfExpr:
		c, err := ev.Evaluate(e.Cond)
		if err != nil {
			return nil, err
		}
		if c.IsTrue() {
			return ev.Evaluate(e.Then)
		}
		return ev.Evaluate(e.Else)
	case *SelectExpr:
		i, err := ev.Evaluate(e.Index)
		if err != nil {
			return nil, err
		}
		for upd := e.Array.Updates; upd != nil; upd = upd.Next {
			idx, err := ev.Evaluate(upd.Index)
			if err != nil {
				return nil, err
			} else if idx.Value != i.Value {
				continue
			}
			return ev.Evaluate(upd.Value)
		}
		initial, ok := ev.m[e.Array.ID]
		if !ok {
			return nil, fmt.Errorf("array not bound: id=%d", e.Array.ID)
		} else if int(i.Value) >= len(initial) {
			return nil, fmt.Errorf("select index out of bounds: %d >= %d", i.Value, len(initial))
		}
		return NewConstantExpr(uint64(initial[i.Value]), 8), nil
	default:
		return nil, fmt.Errorf("invalid expression type for evaluation: %T", e)
	}
}
