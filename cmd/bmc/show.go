package main

import (
	"fmt"
	"os"

	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/bmcopts"
	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/gotoir"
	"github.com/boundedmc/bmc/internal/symex"
	"github.com/boundedmc/bmc/internal/valueset"
)

// showClaims implements -show-claims: print every ASSERT's ClaimID and
// stop, per §6's "show-claims|show-vcc|show-goto-functions:bool".
func showClaims(prog *gotoir.Program) {
	for _, id := range prog.Claims() {
		fmt.Println(id)
	}
}

// showGotoFunctions implements -show-goto-functions: print the loaded
// IR's instructions in load order. gotoir.Instruction has no String
// method of its own (only its Kind and the expr.Expr fields it carries
// do), so this dumps the fields relevant to each Kind directly rather
// than adding print formatting to the IR package itself.
func showGotoFunctions(prog *gotoir.Program) {
	for _, name := range prog.FunctionNames() {
		fn := prog.Functions[name]
		fmt.Printf("%s:\n", name)
		if fn.IsExternal() {
			fmt.Println("  <external>")
			continue
		}
		for _, instr := range fn.Body {
			fmt.Printf("  %4d  %s\n", instr.LocationNumber, formatInstruction(instr))
		}
	}
}

func formatInstruction(instr gotoir.Instruction) string {
	switch instr.Kind {
	case gotoir.Assign:
		return fmt.Sprintf("ASSIGN %s := %s", instr.LHS, instr.RHS)
	case gotoir.Assume:
		return fmt.Sprintf("ASSUME %s", instr.Guard)
	case gotoir.Assert:
		return fmt.Sprintf("ASSERT %s %q", instr.Guard, instr.Message)
	case gotoir.Goto:
		if instr.Guard == nil {
			return fmt.Sprintf("GOTO %v", instr.Targets)
		}
		return fmt.Sprintf("GOTO %v IF %s", instr.Targets, instr.Guard)
	case gotoir.FunctionCall:
		if instr.LHS != nil {
			return fmt.Sprintf("%s := CALL %s(%s)", instr.LHS, instr.Callee, formatArgs(instr.Args))
		}
		return fmt.Sprintf("CALL %s(%s)", instr.Callee, formatArgs(instr.Args))
	case gotoir.Return:
		if instr.Value == nil {
			return "RETURN"
		}
		return fmt.Sprintf("RETURN %s", instr.Value)
	case gotoir.Decl:
		return fmt.Sprintf("DECL %s : %s", instr.Symbol, instr.Type)
	case gotoir.Dead:
		return fmt.Sprintf("DEAD %s", instr.Symbol)
	default:
		return instr.Kind.String()
	}
}

func formatArgs(args []expr.Expr) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s", a)
	}
	return out
}

// showVCC implements -show-vcc: print the verification conditions a
// run at the configured unwind bound would assert. internal/smt.AST is
// backend-opaque (no guaranteed pretty-printer across solvers), so
// rather than reaching into internal/driver's compiled SMT terms, this
// runs symbolic execution directly — the same construction
// driver.Run performs internally, just with its trace kept instead of
// compiled straight to a solver — and prints each symex.Claim, whose
// String already renders "assert(guard => cond) [id] message" at the
// symbolic level. This is honest about the claims actually reached
// under the given value-set analysis and unwind bound, without
// depending on any one backend's term-printing support.
func showVCC(prog *gotoir.Program, valueSets map[string]*valueset.Info, opts bmcopts.Options) error {
	symexOpts := symex.Options{
		Unwind:                opts.Unwind,
		PartialLoops:          opts.PartialLoops,
		NoUnwindingAssertions: opts.NoUnwindingAssertions,
		PointerWidth:          expr.Width64,
		LittleEndian:          true,
	}
	ex := symex.NewExecutor(prog, valueSets, symexOpts)
	states, err := ex.Run()
	if err != nil {
		return bmcerr.Wrap(err, "cmd/bmc: symbolic execution for -show-vcc")
	}

	for _, st := range states {
		for _, e := range st.Trace() {
			if c, ok := e.(symex.Claim); ok {
				fmt.Fprintln(os.Stdout, c.String())
			}
		}
	}
	return nil
}
