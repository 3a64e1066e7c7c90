package symex

import (
	"fmt"

	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/gotoir"
)

// TraceEntry is one equation or claim appended to a path's target
// trace, the input the SMT encoding stage (component E/F) consumes.
type TraceEntry interface {
	fmt.Stringer
	Guard() expr.Expr
}

// Assignment records lhs := rhs under guard, the "assignment
// equation" symex_assign's contract requires.
type Assignment struct {
	LHS, RHS expr.Expr
	guard    expr.Expr
}

func (a Assignment) Guard() expr.Expr { return a.guard }
func (a Assignment) String() string   { return fmt.Sprintf("%s := %s [%s]", a.LHS, a.RHS, a.guard) }

// Assume records assume(guard => Cond); reaching an unsatisfiable
// assume cuts the path.
type Assume struct {
	Cond  expr.Expr
	guard expr.Expr
}

func (a Assume) Guard() expr.Expr { return a.guard }
func (a Assume) String() string   { return fmt.Sprintf("assume(%s => %s)", a.guard, a.Cond) }

// Claim records assert(guard => Cond) for one program claim; it never
// prunes the path, per symex_assert's contract.
type Claim struct {
	ID      gotoir.ClaimID
	Cond    expr.Expr
	Message string
	guard   expr.Expr
}

func (c Claim) Guard() expr.Expr { return c.guard }
func (c Claim) String() string {
	return fmt.Sprintf("assert(%s => %s) [%s] %q", c.guard, c.Cond, c.ID, c.Message)
}
