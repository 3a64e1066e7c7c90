package valueset

import (
	"github.com/sirupsen/logrus"

	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/gotoir"
)

// DefaultOverflowBound is the cardinality a value-set may reach before
// a transfer widens it to Top, per spec's "configurable cardinality".
const DefaultOverflowBound = 64

// Info is the result of analyzing one function: for each
// LocationNumber, the points-to state in effect immediately before
// that instruction executes.
type Info struct {
	bound    int
	registry *Registry
	atPoint  []map[string]*Set // indexed by LocationNumber
}

// Analyze runs the forward dataflow to a fixpoint over fn, using
// registry to intern symbol and allocation-site Objects. bound<=0
// selects DefaultOverflowBound.
func Analyze(fn *gotoir.Function, registry *Registry, bound int) *Info {
	if bound <= 0 {
		bound = DefaultOverflowBound
	}
	info := &Info{bound: bound, registry: registry, atPoint: make([]map[string]*Set, len(fn.Body))}
	for i := range info.atPoint {
		info.atPoint[i] = make(map[string]*Set)
	}
	if len(fn.Body) == 0 {
		return info
	}

	worklist := []int{0}
	onWorklist := make([]bool, len(fn.Body))
	onWorklist[0] = true
	visited := make([]bool, len(fn.Body))

	for len(worklist) > 0 {
		i := worklist[0]
		worklist = worklist[1:]
		onWorklist[i] = false
		visited[i] = true

		out := info.transfer(fn.Body[i], info.atPoint[i])
		for _, succ := range successors(fn, i, fn.Body[i]) {
			changed := info.mergeInto(info.atPoint[succ], out)
			if (changed || !visited[succ]) && !onWorklist[succ] {
				worklist = append(worklist, succ)
				onWorklist[succ] = true
			}
		}
	}
	return info
}

// transfer applies instr's effect to in, returning the state visible
// to its successors. in is not mutated.
func (info *Info) transfer(instr gotoir.Instruction, in map[string]*Set) map[string]*Set {
	out := make(map[string]*Set, len(in))
	for k, v := range in {
		out[k] = v
	}

	switch instr.Kind {
	case gotoir.Assign:
		if sym, ok := instr.LHS.(*expr.SymbolExpr); ok {
			out[sym.Name] = info.widen(info.evalPointerExpr(instr.RHS, in))
		}
	case gotoir.Decl:
		out[instr.Symbol] = Bottom()
	case gotoir.FunctionCall:
		// Conservative: a callee may return a pointer to anything already
		// observed, plus any pointer argument passed through. Parameter
		// binding at the callee's own symbols is not tracked here; the
		// interprocedural case is out of scope for this pass, matching
		// spec's framing of get_value_set as a per-point, per-function query.
		if sym, ok := instr.LHS.(*expr.SymbolExpr); ok {
			acc := Bottom()
			for _, arg := range instr.Args {
				acc = Join(acc, info.evalPointerExpr(arg, in))
			}
			out[sym.Name] = info.widen(acc)
		}
	}
	return out
}

// evalPointerExpr computes the value-set denoted by e under in,
// widening unanalyzable shapes to Top rather than under-approximating.
func (info *Info) evalPointerExpr(e expr.Expr, in map[string]*Set) *Set {
	switch e := e.(type) {
	case *expr.SymbolExpr:
		if s, ok := in[e.Name]; ok {
			return s
		}
		return Bottom()
	case *expr.AddressOfExpr:
		return info.addressOf(e.Object)
	case *expr.IfExpr:
		then := info.evalPointerExpr(e.Then, in)
		els := info.evalPointerExpr(e.Else, in)
		return Join(then, els)
	case *expr.IndexExpr:
		base := info.evalPointerExpr(e.Base, in)
		if base.top {
			return base
		}
		if c, ok := e.Index.(*expr.ConstantExpr); ok {
			return base.WithOffset(int64(c.Value))
		}
		return base.WithOffset(-1) // symbolic index: offset unknown within object
	case *expr.MemberExpr:
		return info.evalPointerExpr(e.Base, in)
	case *expr.ConstantExpr:
		if e.Value == 0 {
			return Bottom() // the null pointer denotes no object
		}
		return Top()
	default:
		return Top()
	}
}

func (info *Info) addressOf(obj expr.Expr) *Set {
	sym, ok := obj.(*expr.SymbolExpr)
	if !ok {
		return Top()
	}
	o := info.registry.Intern(sym.Name, sym.Type)
	return Singleton(o.ID, 0)
}

// widen enforces the cardinality bound, degrading to Top and logging
// a recoverable ValueSetOverflow error at debug level; the error is not
// returned to the caller.
func (info *Info) widen(s *Set) *Set {
	if s.top || s.Len() <= info.bound {
		return s
	}
	err := bmcerr.New(bmcerr.KindValueSetOverflow, "value-set exceeded bound %d, widening to top", info.bound)
	logrus.WithError(err).Debug("valueset: widening to top")
	return Top()
}

// GetValueSet returns the value-set e denotes immediately before the
// instruction at locationNumber.
func (info *Info) GetValueSet(locationNumber int, e expr.Expr) *Set {
	return info.evalPointerExpr(e, info.atPoint[locationNumber])
}

// GetReachableObjects returns every Object that any tracked pointer
// may denote immediately before the instruction at locationNumber.
func (info *Info) GetReachableObjects(locationNumber int) []*Object {
	seen := make(map[ObjectID]bool)
	var out []*Object
	for _, s := range info.atPoint[locationNumber] {
		if s.top {
			continue
		}
		for _, p := range s.Pointees() {
			if seen[p.Object] {
				continue
			}
			seen[p.Object] = true
			if obj, ok := lookupByID(info.registry, p.Object); ok {
				out = append(out, obj)
			}
		}
	}
	return out
}

func lookupByID(r *Registry, id ObjectID) (*Object, bool) {
	for _, obj := range r.byName {
		if obj.ID == id {
			return obj, true
		}
	}
	return nil, false
}

// mergeInto joins src into dst in place, widening any entry that
// overflows the bound, and reports whether dst changed.
func (info *Info) mergeInto(dst map[string]*Set, src map[string]*Set) bool {
	changed := false
	for k, v := range src {
		cur, ok := dst[k]
		if !ok {
			dst[k] = info.widen(v)
			changed = true
			continue
		}
		joined := info.widen(Join(cur, v))
		if !joined.Equal(cur) {
			dst[k] = joined
			changed = true
		}
	}
	return changed
}

// successors mirrors gotoir's own CFG edges; kept local since the
// dataflow needs them before a claim-selection pass might rewrite
// Goto targets, and duplicating the tiny switch avoids exporting
// mutable CFG internals from gotoir.
func successors(fn *gotoir.Function, i int, instr gotoir.Instruction) []int {
	switch instr.Kind {
	case gotoir.Goto:
		if instr.Guard == nil {
			return instr.Targets
		}
		out := append([]int{}, instr.Targets...)
		if i+1 < len(fn.Body) {
			out = append(out, i+1)
		}
		return out
	case gotoir.Return:
		return nil
	default:
		if i+1 < len(fn.Body) {
			return []int{i + 1}
		}
		return nil
	}
}
