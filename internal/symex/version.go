// Package symex implements component D: the symbolic executor that
// interprets a gotoir.Program over an SSA-renamed path state, forking
// at branches and emitting an assignment/assume/assert trace for the
// SMT encoding stage to consume.
package symex

import "github.com/boundedmc/bmc/internal/expr"

// version is the (level1, level2) pair a symbol currently carries in
// one frame: level1 increases once per activation of the frame
// (so recursive calls get disjoint symbol families), level2 increases
// once per assignment within that activation.
type version struct {
	l1, l2 uint
}

// renamer tracks the current SSA version of every symbol visible in
// one stack frame, plus a global per-name counter for minting fresh
// level1 families across distinct activations (including recursive
// re-entry of the same function).
type renamer struct {
	current map[string]version
	l1Seq   map[string]*uint // shared across all frames, by symbol name
}

func newRenamer(l1Seq map[string]*uint) *renamer {
	return &renamer{current: make(map[string]version), l1Seq: l1Seq}
}

func (r *renamer) clone() *renamer {
	out := &renamer{current: make(map[string]version, len(r.current)), l1Seq: r.l1Seq}
	for k, v := range r.current {
		out.current[k] = v
	}
	return out
}

// activate mints a fresh level1 for name, resetting level2 to 0. Used
// when a DECL instruction (or function parameter binding) introduces
// name into the current activation.
func (r *renamer) activate(name string) version {
	seq, ok := r.l1Seq[name]
	if !ok {
		var zero uint
		seq = &zero
		r.l1Seq[name] = seq
	}
	*seq++
	v := version{l1: *seq, l2: 0}
	r.current[name] = v
	return v
}

// next bumps name's level2 within its current activation, creating a
// fresh level1 first if name has never been activated in this frame
// (e.g. a global referenced without an explicit DECL).
func (r *renamer) next(name string) version {
	cur, ok := r.current[name]
	if !ok {
		cur = r.activate(name)
		return cur
	}
	cur.l2++
	r.current[name] = cur
	return cur
}

// currentVersion returns name's current version, activating a fresh
// level1 for name first if this frame has no version of it yet.
func (r *renamer) currentVersion(name string) version {
	if v, ok := r.current[name]; ok {
		return v
	}
	return r.activate(name)
}

// symbolExpr builds a SymbolExpr tagged with the renamer's current
// version of sym.
func symbolExpr(r *renamer, sym *expr.SymbolExpr) *expr.SymbolExpr {
	v := r.currentVersion(sym.Name)
	return sym.Renamed(v.l1, v.l2)
}
