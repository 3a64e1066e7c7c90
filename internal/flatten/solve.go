package flatten

import (
	"sort"

	"github.com/boundedmc/bmc/internal/expr"
)

// AddArrayConstraintsForSolving compiles every unbounded base's deferred
// selects into equalities safe to hand to a backend with no array
// theory. Bounded arrays need nothing here: Select already resolved
// them inline via an explicit element vector.
//
// For each unbounded base it walks its update chain chronologically,
// folding each store into a per-index "current value" (a direct
// overwrite for a matching constant index, an ite guard otherwise),
// snapshotting that vector at every update number a select was cached
// against. Distinct index expressions get distinct fresh slot-0
// variables; an ackermann equality ties any two positions whose index
// expressions are not provably distinct, so a model that happens to
// solve them equal is forced to agree on the element they denote.
func (f *Flattener) AddArrayConstraintsForSolving() []expr.Expr {
	ids := make([]uint64, 0, len(f.bases))
	for id := range f.bases {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []expr.Expr
	for _, id := range ids {
		b := f.bases[id]
		if b.latest.Size <= f.opts.BoundedThreshold {
			continue
		}
		out = append(out, f.solveUnbounded(b)...)
	}
	return out
}

func (f *Flattener) solveUnbounded(b *baseState) []expr.Expr {
	positions := b.indexSet
	n := len(positions)
	if n == 0 {
		return nil
	}

	slot0 := make([]expr.Expr, n)
	for p := range positions {
		slot0[p] = f.freshByte("valuation0")
	}

	var out []expr.Expr
	for p := 0; p < n; p++ {
		for q := p + 1; q < n; q++ {
			idxEq := expr.NewBinaryExpr(expr.EQ, positions[p], positions[q])
			if expr.IsConstantFalse(idxEq) {
				continue
			}
			valEq := expr.NewBinaryExpr(expr.EQ, slot0[p], slot0[q])
			out = append(out, expr.NewBinaryExpr(expr.OR, expr.NewNotExpr(idxEq), valEq))
		}
	}

	var chain []*expr.ArrayUpdate
	for upd := b.latest.Updates; upd != nil; upd = upd.Next {
		chain = append(chain, upd)
	}

	cur := append([]expr.Expr{}, slot0...)
	valuationAt := map[int][]expr.Expr{0: append([]expr.Expr{}, slot0...)}
	u := 0
	for i := len(chain) - 1; i >= 0; i-- {
		upd := chain[i]
		u++
		next := append([]expr.Expr{}, cur...)
		for p, pidx := range positions {
			eq := expr.NewBinaryExpr(expr.EQ, upd.Index, pidx)
			switch {
			case expr.IsConstantTrue(eq):
				next[p] = upd.Value
			case expr.IsConstantFalse(eq):
				// unaffected; keep cur[p]
			default:
				next[p] = expr.NewIfExpr(eq, upd.Value, cur[p])
			}
		}
		cur = next
		valuationAt[u] = append([]expr.Expr{}, cur...)
	}

	for at, recs := range b.selects {
		vals, ok := valuationAt[at]
		if !ok {
			vals = cur
		}
		for _, rec := range recs {
			for p, pidx := range positions {
				if expr.CompareExpr(pidx, rec.index) == 0 {
					out = append(out, expr.NewBinaryExpr(expr.EQ, rec.fresh, vals[p]))
					break
				}
			}
		}
	}
	return out
}
