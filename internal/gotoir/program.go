package gotoir

import (
	"fmt"

	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/expr"
)

// Function is an ordered instruction list; iteration order is the
// instruction order and indices are stable for the function's lifetime.
// A Body of length zero means the function is external (its definition
// lives outside the loaded IR, e.g. a library stub).
type Function struct {
	Name   string
	Params []string // formal parameter symbol names, in call order
	Body   []Instruction
}

// IsExternal reports whether fn has no body.
func (fn *Function) IsExternal() bool { return len(fn.Body) == 0 }

// MonitorDecl is a property monitor the front end wants re-evaluated in
// lock-step with its support set: a reserved-prefix symbol (see
// internal/monitor) paired with the source-level boolean expression text
// that defines it, exactly as the symbol table entry it was declared
// against. Component I parses Expr and wires the re-evaluation; this
// struct is only the opaque declaration the loader round-trips.
type MonitorDecl struct {
	Name string // property name, without the reserved prefix
	Expr string // source-level boolean expression text
}

// Program is the keyed function map the rest of the core operates on.
// Lookup of "main" must succeed after Load.
type Program struct {
	Functions map[string]*Function
	Monitors  []MonitorDecl
	order     []string // load order, for deterministic iteration
}

// NewProgram returns an empty Program.
func NewProgram() *Program {
	return &Program{Functions: make(map[string]*Function)}
}

// SymbolTypes scans every DECL instruction in the program and returns the
// declared type of each symbol name, first declaration in load order
// wins. Used by internal/monitor to type the identifiers a monitor
// expression refers to, without needing its own parallel symbol table.
func (p *Program) SymbolTypes() map[string]expr.Type {
	out := make(map[string]expr.Type)
	for _, name := range p.order {
		for _, instr := range p.Functions[name].Body {
			if instr.Kind != Decl {
				continue
			}
			if _, ok := out[instr.Symbol]; !ok {
				out[instr.Symbol] = instr.Type
			}
		}
	}
	return out
}

// AddFunction registers fn, running the numbering pass over its body.
func (p *Program) AddFunction(fn *Function) {
	Number(fn)
	if _, exists := p.Functions[fn.Name]; !exists {
		p.order = append(p.order, fn.Name)
	}
	p.Functions[fn.Name] = fn
}

// Main returns the entry function, erroring with KindIRLoad if absent.
func (p *Program) Main() (*Function, error) {
	fn, ok := p.Functions["main"]
	if !ok {
		return nil, bmcerr.New(bmcerr.KindIRLoad, "goto program has no \"main\" function")
	}
	return fn, nil
}

// FunctionNames returns function names in load order.
func (p *Program) FunctionNames() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// ClaimID identifies one ASSERT instruction uniquely within the program:
// the owning function name plus its location number.
type ClaimID struct {
	Function       string
	LocationNumber int
}

func (c ClaimID) String() string { return fmt.Sprintf("%s:%d", c.Function, c.LocationNumber) }

// Claims returns the ClaimID of every ASSERT instruction in the program.
func (p *Program) Claims() []ClaimID {
	var out []ClaimID
	for _, name := range p.order {
		fn := p.Functions[name]
		for _, instr := range fn.Body {
			if instr.Kind == Assert {
				out = append(out, ClaimID{Function: name, LocationNumber: instr.LocationNumber})
			}
		}
	}
	return out
}

// SelectClaims restricts every ASSERT instruction not named by ids to a
// no-op ASSUME(true), the supplemented claim-selection operation of
// SPEC_FULL's error-kind ClaimSelection. Returns an error if any id does
// not resolve to an existing ASSERT.
func (p *Program) SelectClaims(ids ...ClaimID) error {
	want := make(map[ClaimID]bool, len(ids))
	for _, id := range ids {
		want[id] = false
	}

	for _, name := range p.order {
		fn := p.Functions[name]
		for i := range fn.Body {
			instr := &fn.Body[i]
			if instr.Kind != Assert {
				continue
			}
			id := ClaimID{Function: name, LocationNumber: instr.LocationNumber}
			if _, requested := want[id]; requested {
				want[id] = true
				continue
			}
			if len(ids) > 0 {
				instr.Kind = Assume
				instr.Guard = trueGuard()
			}
		}
	}

	for id, found := range want {
		if !found {
			return bmcerr.New(bmcerr.KindClaimSelection, "claim not found: %s", id)
		}
	}
	return nil
}

func trueGuard() expr.Expr {
	return expr.NewBoolConstantExpr(true)
}
