// Package flatten compiles symbolic array reads that survive symbolic
// execution into scalar terms a backend with no array theory (or one
// we'd rather not rely on for portability) can still solve. It groups
// an expression tree's residual selects by the array's base id and
// update-chain length, mints one fresh byte variable per distinct
// (base, update-num, index) triple, and emits the valuation-vector and
// ackermann equations that pin each fresh variable to the element it
// denotes.
//
// Most of the work expr.Array already does eagerly: a Store on a
// constant index prunes dead prior updates, and a Select against a
// constant index walks the chain to a concrete value without ever
// producing a *expr.SelectExpr. What reaches this package is exactly
// the residue selectByte can't resolve on its own — selects at a
// symbolic index, or against an array whose history still carries
// symbolic stores.
package flatten

import (
	"fmt"

	"github.com/boundedmc/bmc/internal/expr"
)

// Options configures a Flattener.
type Options struct {
	// BoundedThreshold is the largest array size (in bytes) flattened
	// by direct per-element indexing rather than the valuation-vector
	// encoding. Arrays at or under this size get one ite chain per
	// access instead of a value block keyed by a deduplicated index
	// set, which is cheaper when the domain is small and usually
	// produces a simpler formula than the general encoding would.
	BoundedThreshold uint

	LittleEndian bool
}

func (o Options) withDefaults() Options {
	if o.BoundedThreshold == 0 {
		o.BoundedThreshold = 12
	}
	return o
}

// Flattener accumulates the selects and stores observed against a set
// of arrays over one symbolic-execution trace and compiles them, on
// demand, into select-free expressions. It is not safe for concurrent
// use; each solver invocation (one base case, one k-induction step)
// gets its own.
type Flattener struct {
	opts Options

	bases  map[uint64]*baseState
	parent map[uint64]uint64 // union-find over base ids joined by Ite
	nextID uint64
}

// New returns a Flattener ready to accept Select/Store/Ite/Equal calls.
func New(opts Options) *Flattener {
	return &Flattener{
		opts:   opts.withDefaults(),
		bases:  make(map[uint64]*baseState),
		parent: make(map[uint64]uint64),
	}
}

type selectRecord struct {
	index expr.Expr
	fresh expr.Expr
}

// baseState is the bookkeeping kept per base_array_id: every distinct
// index expression ever used against it (for the ackermann pass) and,
// per update number, the select records filed at that point.
type baseState struct {
	latest   *expr.Array
	indexSet []expr.Expr
	selects  map[int][]selectRecord
}

func (f *Flattener) base(a *expr.Array) *baseState {
	b, ok := f.bases[a.ID]
	if !ok {
		b = &baseState{selects: make(map[int][]selectRecord)}
		f.bases[a.ID] = b
		f.find(a.ID) // register the id with the union-find even if never joined
	}
	b.latest = a
	return b
}

func (f *Flattener) recordIndex(b *baseState, idx expr.Expr) {
	for _, seen := range b.indexSet {
		if expr.CompareExpr(seen, idx) == 0 {
			return
		}
	}
	b.indexSet = append(b.indexSet, idx)
}

func (f *Flattener) freshByte(reason string) expr.Expr {
	f.nextID++
	return expr.NewSymbolExpr(fmt.Sprintf("__flatten_%s_%d", reason, f.nextID), expr.NewBVType(expr.Width8, false))
}

// Select resolves a one-byte read of a at idx. A constant-index read
// that the array's own update chain can answer is returned as-is,
// matching expr.Array's existing fast path; a read flatten can't
// resolve immediately gets a cached fresh variable, reused by any
// later select at the same update number with a syntactically equal
// index.
func (f *Flattener) Select(a *expr.Array, idx expr.Expr) expr.Expr {
	idx = expr.NewCastExpr(idx, expr.Width64, false)
	b := f.base(a)
	f.recordIndex(b, idx)

	if a.Size <= f.opts.BoundedThreshold {
		return f.selectBounded(a, idx)
	}

	resolved := a.Select(idx, expr.Width8, f.opts.LittleEndian)
	sel, ok := resolved.(*expr.SelectExpr)
	if !ok {
		return resolved
	}

	u := a.UpdateNum()
	for _, rec := range b.selects[u] {
		if expr.CompareExpr(rec.index, idx) == 0 {
			return rec.fresh
		}
	}
	fresh := f.freshByte("select")
	b.selects[u] = append(b.selects[u], selectRecord{index: sel.Index, fresh: fresh})
	return fresh
}

// selectBounded resolves a read against a small array by materializing
// one element expression per byte from the update chain and indexing
// into it directly: a constant index picks (or, out of range, a fresh
// free value) its slot; a symbolic index becomes an ite chain over
// every slot. Small domains make this cheaper than deferring to
// AddArrayConstraintsForSolving's general valuation-vector encoding.
func (f *Flattener) selectBounded(a *expr.Array, idx expr.Expr) expr.Expr {
	elems := f.boundedElems(a)

	if c, ok := idx.(*expr.ConstantExpr); ok {
		if c.Value < uint64(a.Size) {
			return elems[c.Value]
		}
		return f.freshByte("oob_select")
	}

	result := elems[a.Size-1]
	for i := int(a.Size) - 2; i >= 0; i-- {
		eq := expr.NewBinaryExpr(expr.EQ, idx, expr.NewConstantExpr64(uint64(i)))
		result = expr.NewIfExpr(eq, elems[i], result)
	}
	return result
}

// boundedElems folds a's update chain, oldest first, into one element
// expression per byte. A symbolic-index store can't be proven to land
// outside any given slot, so it widens that slot's expression into an
// ite guarded by the store's own index rather than the final select's.
func (f *Flattener) boundedElems(a *expr.Array) []expr.Expr {
	var chain []*expr.ArrayUpdate
	for upd := a.Updates; upd != nil; upd = upd.Next {
		chain = append(chain, upd)
	}

	elems := make([]expr.Expr, a.Size)
	for i := range elems {
		elems[i] = f.freshByte("init")
	}
	for i := len(chain) - 1; i >= 0; i-- {
		upd := chain[i]
		if c, ok := upd.Index.(*expr.ConstantExpr); ok {
			if c.Value < uint64(a.Size) {
				elems[c.Value] = upd.Value
			}
			continue // out-of-range constant store: no-op
		}
		for slot := range elems {
			eq := expr.NewBinaryExpr(expr.EQ, upd.Index, expr.NewConstantExpr64(uint64(slot)))
			elems[slot] = expr.NewIfExpr(eq, upd.Value, elems[slot])
		}
	}
	return elems
}

// Store records idx in the base's index set and returns the updated
// array. expr.Array.Store already maintains the update chain and
// prunes shadowed constant writes; flatten only needs to remember the
// index for the later valuation pass.
//
// A bounded array's out-of-range constant index is a no-op returning a
// unchanged, per spec.md's edge case for bounded arrays: expr.Array.Store
// has no notion of "bounded" and asserts every constant index is in
// range, so that case is special-cased here before ever reaching it.
func (f *Flattener) Store(a *expr.Array, idx, value expr.Expr) *expr.Array {
	idx = expr.NewCastExpr(idx, expr.Width64, false)

	if a.Size <= f.opts.BoundedThreshold {
		if c, ok := idx.(*expr.ConstantExpr); ok && c.Value >= uint64(a.Size) {
			f.base(a)
			return a
		}
	}

	next := a.Store(idx, value, f.opts.LittleEndian)
	b := f.base(next)
	f.recordIndex(b, idx)
	return next
}

// Ite records that t and f2 denote the same array-valued result under
// a branch. Same-base arms (the common case: both sides of the branch
// wrote through the same object) need no bookkeeping — the guard that
// picks which history applies at the per-byte level is already baked
// into how symbolic execution built each side's chain. Different bases
// are unioned into one group, but AddArrayConstraintsForSolving does
// not read that grouping: each base keeps its own index set, and no
// ackermann constraint compares positions across two bases.
func (f *Flattener) Ite(cond expr.Expr, t, f2 *expr.Array) *expr.Array {
	f.base(t)
	f.base(f2)
	if t.ID != f2.ID {
		f.union(t.ID, f2.ID)
	}
	_ = cond // the caller already guards the byte-level values it reads from t/f2 by cond
	return t
}

// Equal returns a boolean expression for the equality of a and other. expr.Array already
// resolves this eagerly as a conjunction of byte comparisons, so there
// is no deferred obligation for flatten to discharge later; the method
// exists to make the protocol step explicit at call sites.
func (f *Flattener) Equal(a, other *expr.Array) expr.Expr {
	f.base(a)
	f.base(other)
	return a.Equal(other)
}

// Assign records that s is an alias of a, sharing its update history.
// Go's pointer semantics already make this free; nothing needs
// registering beyond letting both names resolve to the same base id.
func (f *Flattener) Assign(a *expr.Array) *expr.Array {
	f.base(a)
	return a
}

func (f *Flattener) find(id uint64) uint64 {
	if _, ok := f.parent[id]; !ok {
		f.parent[id] = id
		return id
	}
	root := id
	for f.parent[root] != root {
		root = f.parent[root]
	}
	f.parent[id] = root
	return root
}

func (f *Flattener) union(a, b uint64) {
	ra, rb := f.find(a), f.find(b)
	if ra != rb {
		f.parent[ra] = rb
	}
}
