package monitor

import (
	"sort"

	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/gotoir"
)

// compiled is one monitor after parsing and support-set computation.
type compiled struct {
	name    string
	expr    expr.Expr
	support map[string]bool
}

// Instrument rewrites prog in place per spec.md §4.I: every monitor
// declaration is parsed and its support set computed, every assignment
// to a supporting symbol gets a re-evaluation of the monitors it
// triggers (guarantees i and ii), and every monitor status variable is
// initialised at the start of "main" (guarantee iii). A program with no
// monitor declarations is left untouched, mirroring
// add_property_monitors's own early return when its symbol-table scan
// turns up nothing.
func Instrument(prog *gotoir.Program) error {
	if len(prog.Monitors) == 0 {
		return nil
	}

	symbolTypes := prog.SymbolTypes()
	resolve := func(name string) (*expr.SymbolExpr, error) {
		t, ok := symbolTypes[name]
		if !ok {
			return nil, bmcerr.New(bmcerr.KindIRLoad, "monitor: %q is not a declared program symbol", name)
		}
		return expr.NewSymbolExpr(name, t), nil
	}

	monitors := make([]compiled, 0, len(prog.Monitors))
	for _, m := range prog.Monitors {
		node, err := ParseExpression(m.Expr)
		if err != nil {
			return err
		}
		e, err := Translate(node, resolve)
		if err != nil {
			return err
		}
		support := make(map[string]bool)
		for _, name := range SupportSet(e) {
			support[name] = true
		}
		monitors = append(monitors, compiled{name: m.Name, expr: e, support: support})
	}
	// Deterministic iteration order, the Go substitute for the reference
	// implementation's std::map<string,...>-keyed monitor table.
	sort.Slice(monitors, func(i, j int) bool { return monitors[i].name < monitors[j].name })

	// The instrumentation below inserts FUNCTION_CALLs to SwitchCallee.
	// symexFunctionCall treats a call to an unregistered name as a fatal
	// invariant violation, so it must be registered as an external stub
	// (no Body) here, the same way a genuinely external library function
	// is represented, before any function is instrumented.
	if _, ok := prog.Functions[SwitchCallee]; !ok {
		prog.AddFunction(&gotoir.Function{Name: SwitchCallee})
	}

	for _, name := range prog.FunctionNames() {
		if name == SwitchCallee {
			continue
		}
		fn := prog.Functions[name]
		instrumentFunction(fn, monitors)
		gotoir.Number(fn)
	}

	mainFn, err := prog.Main()
	if err != nil {
		return err
	}
	initMonitors(mainFn, monitors)
	gotoir.Number(mainFn)

	return nil
}

// instrumentFunction rebuilds fn.Body, splicing in a monitor
// re-evaluation block around every assignment that triggers one or more
// monitors.
func instrumentFunction(fn *gotoir.Function, monitors []compiled) {
	newBody := make([]gotoir.Instruction, 0, len(fn.Body))
	oldToNew := make([]int, len(fn.Body))

	for i, instr := range fn.Body {
		triggered := triggeredMonitors(instr, monitors)
		if len(triggered) == 0 {
			oldToNew[i] = len(newBody)
			newBody = append(newBody, instr)
			continue
		}

		loc := instr.Loc
		// The atomic block wraps the triggering assignment itself, not
		// just the re-evaluations after it, so nothing can observe the
		// write before its monitors have caught up.
		newBody = append(newBody, gotoir.NewAtomicBegin(loc))
		oldToNew[i] = len(newBody)
		newBody = append(newBody, instr)
		for _, m := range triggered {
			status := expr.NewSymbolExpr(StatusSymbol(m.name), StatusType)
			cast := expr.NewCastExpr(m.expr, StatusType.Width_(), true)
			newBody = append(newBody, gotoir.NewAssign(loc, status, cast))
		}
		newBody = append(newBody, gotoir.NewFunctionCall(loc, nil, SwitchCallee, nil))
		newBody = append(newBody, gotoir.NewAtomicEnd(loc))
	}

	remapTargets(newBody, oldToNew)
	fn.Body = newBody
}

// triggeredMonitors returns, in monitors' (already sorted) order, every
// monitor whose support set contains the symbol instr assigns to.
// Mirrors add_monitor_exprs's own restriction to direct assignments of
// a bare symbol: an lvalue into an array or struct field is not
// recognised as a trigger.
func triggeredMonitors(instr gotoir.Instruction, monitors []compiled) []compiled {
	if instr.Kind != gotoir.Assign {
		return nil
	}
	sym, ok := instr.LHS.(*expr.SymbolExpr)
	if !ok {
		return nil
	}
	var out []compiled
	for _, m := range monitors {
		if m.support[sym.Name] {
			out = append(out, m)
		}
	}
	return out
}

// remapTargets fixes up every GOTO's Targets, originally indices into
// the pre-instrumentation body, to index into the now-longer newBody.
func remapTargets(body []gotoir.Instruction, oldToNew []int) {
	for i := range body {
		if body[i].Kind != gotoir.Goto {
			continue
		}
		for j, t := range body[i].Targets {
			body[i].Targets[j] = oldToNew[t]
		}
	}
}

// initMonitors prepends a DECL plus an initialising ASSIGN for every
// monitor's status variable to fn's body (fn is expected to be "main"),
// guarantee (iii): initialisation happens before anything else main
// does, so no code can observe an uninitialised monitor status.
func initMonitors(fn *gotoir.Function, monitors []compiled) {
	if len(monitors) == 0 {
		return
	}
	loc := gotoir.SourceLocation{Function: fn.Name}
	if len(fn.Body) > 0 {
		loc = fn.Body[0].Loc
	}

	prefix := make([]gotoir.Instruction, 0, len(monitors)*2)
	for _, m := range monitors {
		status := expr.NewSymbolExpr(StatusSymbol(m.name), StatusType)
		prefix = append(prefix, gotoir.NewDecl(loc, StatusSymbol(m.name), StatusType))
		cast := expr.NewCastExpr(m.expr, StatusType.Width_(), true)
		prefix = append(prefix, gotoir.NewAssign(loc, status, cast))
	}

	shift := len(prefix)
	for i := range fn.Body {
		if fn.Body[i].Kind != gotoir.Goto {
			continue
		}
		for j := range fn.Body[i].Targets {
			fn.Body[i].Targets[j] += shift
		}
	}

	fn.Body = append(prefix, fn.Body...)
}
