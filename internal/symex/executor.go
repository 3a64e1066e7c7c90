package symex

import (
	"fmt"

	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/gotoir"
	"github.com/boundedmc/bmc/internal/valueset"
)

// Options configures one symbolic-execution run.
type Options struct {
	Unwind                int  // per-loop unwind bound
	PartialLoops          bool // cut the path on exhaustion instead of asserting
	NoUnwindingAssertions bool // suppress the unwinding-assertion even outside partial-loops
	RecursionLimit        int  // symex_function_call depth bound
	PointerWidth          uint
	LittleEndian          bool
}

func (o Options) withDefaults() Options {
	if o.Unwind <= 0 {
		o.Unwind = 1
	}
	if o.RecursionLimit <= 0 {
		o.RecursionLimit = 64
	}
	if o.PointerWidth == 0 {
		o.PointerWidth = expr.Width64
	}
	return o
}

// Executor interprets one gotoir.Program, producing one State per
// explored path.
type Executor struct {
	Program   *gotoir.Program
	ValueSets map[string]*valueset.Info // keyed by function name
	Options   Options

	nextID int
}

// NewExecutor returns an Executor ready to run prog from its main function.
func NewExecutor(prog *gotoir.Program, valueSets map[string]*valueset.Info, opts Options) *Executor {
	return &Executor{Program: prog, ValueSets: valueSets, Options: opts.withDefaults()}
}

// Run interprets the program to completion, returning every path
// state that reached TERMINATED or UNWIND_CUT. Running states are
// iteratively stepped and forked until the worklist is empty.
func (ex *Executor) Run() ([]*State, error) {
	main, err := ex.Program.Main()
	if err != nil {
		return nil, err
	}

	s := newState(main)
	s.id = ex.nextID
	ex.nextID++

	worklist := []*State{s}
	var done []*State

	for len(worklist) > 0 {
		cur := worklist[0]
		worklist = worklist[1:]

		for cur.status == Running {
			forked, err := ex.step(cur)
			if err != nil {
				return nil, err
			}
			if forked != nil {
				forked.id = ex.nextID
				ex.nextID++
				worklist = append(worklist, forked)
			}
		}
		done = append(done, cur)
	}
	return done, nil
}

// step executes the instruction at cur's current pc, mutating cur in
// place for the straight-line successor and returning a newly forked
// State for the deferred branch target, if any (symex_goto).
func (ex *Executor) step(cur *State) (*State, error) {
	f := cur.top()
	if f == nil {
		cur.status = Terminated
		cur.reason = "call stack empty"
		return nil, nil
	}
	instr, ok := f.instr()
	if !ok {
		// Falling off the end of a function body with no RETURN: pop and
		// continue in the caller, or terminate if this was the outermost frame.
		return nil, ex.ret(cur, nil)
	}

	switch instr.Kind {
	case gotoir.Skip, gotoir.Other, gotoir.AtomicBegin, gotoir.AtomicEnd, gotoir.Dead:
		f.pc++
		return nil, nil
	case gotoir.Decl:
		f.renamer.activate(instr.Symbol)
		f.pc++
		return nil, nil
	case gotoir.Assign:
		if err := ex.symexAssign(cur, instr); err != nil {
			return nil, err
		}
		f.pc++
		return nil, nil
	case gotoir.Assume:
		ex.symexAssume(cur, instr)
		f.pc++
		return nil, nil
	case gotoir.Assert:
		ex.symexAssert(cur, instr)
		f.pc++
		return nil, nil
	case gotoir.Goto:
		return ex.symexGoto(cur, instr)
	case gotoir.FunctionCall:
		return nil, ex.symexFunctionCall(cur, instr)
	case gotoir.Return:
		var value expr.Expr
		if instr.Value != nil {
			value = rename(f.renamer, instr.Value)
		}
		return nil, ex.ret(cur, value)
	default:
		return nil, bmcerr.New(bmcerr.KindFatalInvariant, "symex: unhandled instruction kind %s", instr.Kind)
	}
}

// symexAssign implements the symex_assign contract: rename rhs to its
// current SSA version, mint a fresh level2 version for lhs, and
// append the assignment equation to the trace.
func (ex *Executor) symexAssign(cur *State, instr gotoir.Instruction) error {
	f := cur.top()
	rhs := rename(f.renamer, instr.RHS)

	switch lhs := instr.LHS.(type) {
	case *expr.SymbolExpr:
		v := f.renamer.next(lhs.Name)
		renamedLHS := lhs.Renamed(v.l1, v.l2)
		cur.trace = append(cur.trace, Assignment{LHS: renamedLHS, RHS: rhs, guard: cur.guard})
	case *expr.DereferenceExpr:
		return ex.symexAssignThroughPointer(cur, lhs, rhs)
	case *expr.IndexExpr, *expr.MemberExpr:
		// Aggregate lvalues lower to a WithUpdateExpr over the renamed base
		// symbol, the functional-update view spec's data model describes.
		base, err := ex.lvalueBaseSymbol(lhs)
		if err != nil {
			return err
		}
		renamedBase := rename(f.renamer, base)
		updated := expr.Expr(&expr.WithUpdateExpr{Base: renamedBase, Key: lvalueKey(lhs), Value: rhs})
		v := f.renamer.next(base.Name)
		renamedLHS := base.Renamed(v.l1, v.l2)
		cur.trace = append(cur.trace, Assignment{LHS: renamedLHS, RHS: updated, guard: cur.guard})
	default:
		return bmcerr.New(bmcerr.KindFatalInvariant, "symex: unsupported lvalue shape %T", lhs)
	}
	return nil
}

// symexAssignThroughPointer resolves *ptr = rhs via the value-set
// analysis at the current program point, producing the
// ite(ptr == obj_i, access(obj_i), ...) disjunction spec's contract
// describes and appending one renamed assignment per candidate object.
func (ex *Executor) symexAssignThroughPointer(cur *State, lhs *expr.DereferenceExpr, rhs expr.Expr) error {
	f := cur.top()
	info := ex.ValueSets[f.fn.Name]
	if info == nil {
		return bmcerr.New(bmcerr.KindFatalInvariant, "symex: no value-set info for function %s", f.fn.Name)
	}
	loc, ok := f.instr()
	if !ok {
		return bmcerr.New(bmcerr.KindFatalInvariant, "symex: dereference assign with no current instruction")
	}

	set := info.GetValueSet(loc.LocationNumber, lhs.Pointer)
	if set.IsTop() {
		// Unknown target set: the access is guarded by an always-reachable
		// pointer-safety claim that a sound implementation would fail at
		// solve time; recorded here as an unconditional claim so the
		// driver surfaces it even without a concrete candidate object.
		cur.trace = append(cur.trace, Claim{
			Cond:    expr.NewBoolConstantExpr(false),
			Message: "dereference of pointer with unresolved value-set",
			guard:   cur.guard,
		})
		return nil
	}

	renamedPtr := rename(f.renamer, lhs.Pointer)
	for _, pointee := range set.Pointees() {
		objSym := objectSymbol(pointee, lhs.Type)
		v := f.renamer.next(objSym.Name)
		renamedLHS := objSym.Renamed(v.l1, v.l2)
		targetGuard := expr.NewBinaryExpr(expr.EQ, renamedPtr, objectAddress(pointee, ex.Options.PointerWidth))
		cur.trace = append(cur.trace, Assignment{
			LHS:   renamedLHS,
			RHS:   rhs,
			guard: expr.NewBinaryExpr(expr.AND, cur.guard, targetGuard),
		})
	}
	return nil
}

// symexGoto implements symex_goto: split the path into a
// straight-line continuation guarded by g /\ not(cond), and a forked
// path at the branch target guarded by g /\ cond. An unconditional
// goto just redirects the current state with no fork.
func (ex *Executor) symexGoto(cur *State, instr gotoir.Instruction) (*State, error) {
	f := cur.top()

	if instr.Guard == nil {
		if err := ex.jump(cur, instr.Targets[0]); err != nil {
			return nil, err
		}
		return nil, nil
	}

	cond := rename(f.renamer, instr.Guard)

	forked := cur.clone()
	forked.guard = expr.NewBinaryExpr(expr.AND, cur.guard, cond)
	if err := ex.jump(forked, instr.Targets[0]); err != nil {
		return nil, err
	}

	cur.guard = expr.NewBinaryExpr(expr.AND, cur.guard, expr.NewNotExpr(cond))
	f.pc++

	if expr.IsConstantFalse(forked.guard) {
		forked.status = Terminated
		forked.reason = "branch not taken: guard is unsatisfiable by construction"
	}
	if expr.IsConstantFalse(cur.guard) {
		cur.status = Terminated
		cur.reason = "fallthrough not taken: guard is unsatisfiable by construction"
	}
	return forked, nil
}

// jump moves cur's top frame's pc to target, applying the loop-unwind
// policy when target is a back-edge (its own LocationNumber is less
// than or equal to the jumping instruction's).
func (ex *Executor) jump(cur *State, target int) error {
	f := cur.top()
	from, _ := f.instr()
	if target <= from.LocationNumber {
		header := target
		remaining, seen := f.unwound[header]
		if !seen {
			remaining = ex.Options.Unwind
		}
		if remaining <= 0 {
			if ex.Options.PartialLoops {
				cur.status = UnwindCut
				cur.reason = "loop unwind bound exhausted (partial-loops)"
				return nil
			}
			if !ex.Options.NoUnwindingAssertions {
				cur.trace = append(cur.trace, Claim{
					Cond:    expr.NewBoolConstantExpr(false),
					Message: "unwinding assertion: loop may not have terminated within the unwind bound",
					guard:   cur.guard,
				})
			}
			cur.status = UnwindCut
			cur.reason = "loop unwind bound exhausted"
			return nil
		}
		f.unwound[header] = remaining - 1
	}
	f.pc = target
	return nil
}

// symexAssume implements symex_assume: emit assume(g => p); if p is
// constant false under the current guard the path is cut.
func (ex *Executor) symexAssume(cur *State, instr gotoir.Instruction) {
	f := cur.top()
	cond := rename(f.renamer, instr.Guard)
	cur.trace = append(cur.trace, Assume{Cond: cond, guard: cur.guard})
	cur.addConstraint(expr.NewBinaryExpr(expr.OR, expr.NewNotExpr(cur.guard), cond))

	if expr.IsConstantFalse(cond) {
		cur.status = Terminated
		cur.reason = "assume(false)"
	}
}

// symexAssert implements symex_assert: emit assert(g => p). Never
// prunes the path, regardless of p's satisfiability.
func (ex *Executor) symexAssert(cur *State, instr gotoir.Instruction) {
	f := cur.top()
	loc, _ := f.instr()
	cond := rename(f.renamer, instr.Guard)
	cur.trace = append(cur.trace, Claim{
		ID:      gotoir.ClaimID{Function: f.fn.Name, LocationNumber: loc.LocationNumber},
		Cond:    cond,
		Message: instr.Message,
		guard:   cur.guard,
	})
}

// symexFunctionCall implements symex_function_call: bind renamed
// actuals to fresh parameter symbols and push the callee's frame.
// malloc is intercepted as the symex_malloc builtin rather than
// inlined. Recursion depth beyond RecursionLimit raises UnwindLimit.
func (ex *Executor) symexFunctionCall(cur *State, instr gotoir.Instruction) error {
	f := cur.top()

	if instr.Callee == "malloc" || instr.Callee == "__ESBMC_malloc" {
		ex.symexMalloc(cur, instr)
		f.pc++
		return nil
	}

	callee, ok := ex.Program.Functions[instr.Callee]
	if !ok {
		return bmcerr.New(bmcerr.KindFatalInvariant, "symex: call to unknown function %q", instr.Callee)
	}
	if callee.IsExternal() {
		// An external function with no body is treated as returning an
		// unconstrained value; bind lhs to a fresh symbol if present.
		if sym, ok := instr.LHS.(*expr.SymbolExpr); ok {
			v := f.renamer.next(sym.Name)
			cur.trace = append(cur.trace, Assignment{
				LHS:   sym.Renamed(v.l1, v.l2),
				RHS:   expr.NewSymbolExpr(sym.Name+"#extern", sym.Type),
				guard: cur.guard,
			})
		}
		f.pc++
		return nil
	}

	depth := 0
	for _, fr := range cur.stack {
		if fr.fn == callee {
			depth++
		}
	}
	if depth >= ex.Options.RecursionLimit {
		return bmcerr.New(bmcerr.KindUnwindLimit, "symex: recursion limit exceeded calling %q", instr.Callee)
	}

	f.pc++ // resume here on return
	f.lhsQueue = instr.LHS

	cur.push(callee, f.renamer.l1Seq)
	calleeFrame := cur.top()
	for i, param := range callee.Params {
		var actual expr.Expr
		if i < len(instr.Args) {
			actual = rename(f.renamer, instr.Args[i])
		} else {
			actual = expr.ZeroValue(expr.NewBVType(expr.Width32, false))
		}
		v := calleeFrame.renamer.activate(param)
		paramSym := expr.NewSymbolExpr(param, exprTypeOf(actual))
		cur.trace = append(cur.trace, Assignment{LHS: paramSym.Renamed(v.l1, v.l2), RHS: actual, guard: cur.guard})
	}
	return nil
}

// ret pops the current frame, binding its return value into the
// caller's pending call lhs, and terminates the path when the popped
// frame was the outermost (main returning).
func (ex *Executor) ret(cur *State, value expr.Expr) error {
	cur.stack = cur.stack[:len(cur.stack)-1]

	if len(cur.stack) == 0 {
		cur.status = Terminated
		cur.reason = "return from main"
		return nil
	}

	parent := cur.top()
	if sym, ok := parent.lhsQueue.(*expr.SymbolExpr); ok && value != nil {
		v := parent.renamer.next(sym.Name)
		cur.trace = append(cur.trace, Assignment{LHS: sym.Renamed(v.l1, v.l2), RHS: value, guard: cur.guard})
	}
	parent.lhsQueue = nil
	return nil
}

// symexMalloc implements symex_malloc: allocate a fresh dynamic
// object named dynamic_<n>_value (or _array for size != 1), bind lhs
// to a pointer into it, and mark the object as dynamically allocated.
func (ex *Executor) symexMalloc(cur *State, instr gotoir.Instruction) {
	f := cur.top()
	cur.dynCount++
	n := cur.dynCount

	size := uint(1)
	if len(instr.Args) > 0 {
		if c, ok := rename(f.renamer, instr.Args[0]).(*expr.ConstantExpr); ok {
			size = uint(c.Value)
		}
	}

	suffix := "value"
	if size != 1 {
		suffix = "array"
	}
	name := fmt.Sprintf("dynamic_%d_%s", n, suffix)

	addr, array := cur.alloc(size, name)
	array.Zero()
	cur.objectNames[addr.Value] = name

	if sym, ok := instr.LHS.(*expr.SymbolExpr); ok {
		v := f.renamer.next(sym.Name)
		cur.trace = append(cur.trace, Assignment{LHS: sym.Renamed(v.l1, v.l2), RHS: addr, guard: cur.guard})
	}
	cur.addConstraint(expr.NewBinaryExpr(expr.EQ, dynamicFlag(addr), expr.NewBoolConstantExpr(true)))
}

// dynamicFlag names the __ESBMC_is_dynamic[ptr] predicate symex_malloc
// sets true for its allocation.
func dynamicFlag(addr *expr.ConstantExpr) expr.Expr {
	return expr.NewSymbolExpr(fmt.Sprintf("__ESBMC_is_dynamic[%d]", addr.Value), expr.NewBoolType())
}

func exprTypeOf(e expr.Expr) expr.Type {
	return expr.NewBVType(expr.ExprWidth(e), false)
}

// lvalueBaseSymbol walks an Index/Member lvalue chain down to its
// root SymbolExpr.
func (ex *Executor) lvalueBaseSymbol(e expr.Expr) (*expr.SymbolExpr, error) {
	switch e := e.(type) {
	case *expr.SymbolExpr:
		return e, nil
	case *expr.IndexExpr:
		return ex.lvalueBaseSymbol(e.Base)
	case *expr.MemberExpr:
		return ex.lvalueBaseSymbol(e.Base)
	default:
		return nil, bmcerr.New(bmcerr.KindFatalInvariant, "symex: lvalue has no root symbol: %T", e)
	}
}

// lvalueKey returns the update key (member name or index expression)
// for the outermost Index/Member of an lvalue chain.
func lvalueKey(e expr.Expr) expr.Expr {
	switch e := e.(type) {
	case *expr.IndexExpr:
		return e.Index
	case *expr.MemberExpr:
		return expr.NewSymbolExpr(e.Name, expr.NewEmptyType())
	default:
		return nil
	}
}

// objectSymbol and objectAddress give a stable symbol/address per
// (object,offset) pointee, used only to label the per-candidate
// assignment and guard; the flattener resolves the real storage via
// the heap, not these labels.
func objectSymbol(p valueset.Pointee, t expr.Type) *expr.SymbolExpr {
	return expr.NewSymbolExpr(fmt.Sprintf("obj_%d", p.Object), t)
}

func objectAddress(p valueset.Pointee, width uint) expr.Expr {
	return expr.NewConstantExpr(uint64(p.Object), width)
}
