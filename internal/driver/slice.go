package driver

import (
	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/symex"
)

// slice drops every equation not reachable, by backward data-flow, from
// the support set of some claim: the trace is walked newest-first,
// starting from the symbols every Claim's condition and guard read, and
// an Assignment is kept (and its own RHS/guard symbols added to the
// frontier) only once something already kept reads its LHS. Claims are
// always kept; an Assume is kept only if dropping it could change
// whether a kept equation's path is still reachable, i.e. its own
// condition or guard shares a symbol with the current frontier.
//
// This mirrors the backward program-slicing a BMC front end runs before
// handing a trace to the solver: everything structurally unreachable
// from an assertion can't affect whether that assertion holds, so
// leaving it out only shrinks the formula.
func slice(entries []symex.TraceEntry) []symex.TraceEntry {
	needed := make(map[string]bool)
	for _, e := range entries {
		if c, ok := e.(symex.Claim); ok {
			addSymbols(needed, c.Cond)
			addSymbols(needed, c.Guard())
		}
	}

	kept := make([]bool, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		switch e := entries[i].(type) {
		case symex.Claim:
			kept[i] = true
		case symex.Assignment:
			if !symbolsIntersect(needed, e.LHS) {
				continue
			}
			kept[i] = true
			addSymbols(needed, e.RHS)
			addSymbols(needed, e.Guard())
		case symex.Assume:
			if symbolsIntersect(needed, e.Cond) || symbolsIntersect(needed, e.Guard()) {
				kept[i] = true
				addSymbols(needed, e.Cond)
				addSymbols(needed, e.Guard())
			}
		}
	}

	out := make([]symex.TraceEntry, 0, len(entries))
	for i, e := range entries {
		if kept[i] {
			out = append(out, e)
		}
	}
	return out
}

func addSymbols(into map[string]bool, e expr.Expr) {
	if e == nil {
		return
	}
	collectSymbols(e, into)
}

func symbolsIntersect(needed map[string]bool, e expr.Expr) bool {
	found := false
	collectSymbolsFn(e, func(name string) {
		if needed[name] {
			found = true
		}
	})
	return found
}

func collectSymbols(e expr.Expr, into map[string]bool) {
	collectSymbolsFn(e, func(name string) { into[name] = true })
}

// collectSymbolsFn calls visit with the base name (SymbolExpr.Name,
// ignoring SSA level) of every symbol reachable from e.
func collectSymbolsFn(e expr.Expr, visit func(name string)) {
	switch e := e.(type) {
	case nil:
	case *expr.SymbolExpr:
		visit(e.Name)
	case *expr.ConstantExpr:
	case *expr.BinaryExpr:
		collectSymbolsFn(e.LHS, visit)
		collectSymbolsFn(e.RHS, visit)
	case *expr.CastExpr:
		collectSymbolsFn(e.Src, visit)
	case *expr.ConcatExpr:
		collectSymbolsFn(e.MSB, visit)
		collectSymbolsFn(e.LSB, visit)
	case *expr.ExtractExpr:
		collectSymbolsFn(e.Expr, visit)
	case *expr.NotExpr:
		collectSymbolsFn(e.Expr, visit)
	case *expr.NotOptimizedExpr:
		collectSymbolsFn(e.Src, visit)
	case *expr.IfExpr:
		collectSymbolsFn(e.Cond, visit)
		collectSymbolsFn(e.Then, visit)
		collectSymbolsFn(e.Else, visit)
	case *expr.SelectExpr:
		collectSymbolsFn(e.Index, visit)
		for upd := e.Array.Updates; upd != nil; upd = upd.Next {
			collectSymbolsFn(upd.Index, visit)
			collectSymbolsFn(upd.Value, visit)
		}
	case *expr.AddressOfExpr:
		collectSymbolsFn(e.Object, visit)
	case *expr.DereferenceExpr:
		collectSymbolsFn(e.Pointer, visit)
	case *expr.IndexExpr:
		collectSymbolsFn(e.Base, visit)
		collectSymbolsFn(e.Index, visit)
	case *expr.MemberExpr:
		collectSymbolsFn(e.Base, visit)
	case *expr.FuncCallExpr:
		for _, a := range e.Args {
			collectSymbolsFn(a, visit)
		}
	case *expr.WithUpdateExpr:
		collectSymbolsFn(e.Base, visit)
		collectSymbolsFn(e.Key, visit)
		collectSymbolsFn(e.Value, visit)
	case *expr.StructExpr:
		for _, f := range e.Fields {
			collectSymbolsFn(f, visit)
		}
	case *expr.ArrayLiteralExpr:
		for _, el := range e.Elems {
			collectSymbolsFn(el, visit)
		}
	case *expr.StatementExpr:
		collectSymbolsFn(e.Result, visit)
	}
}
