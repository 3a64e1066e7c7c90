// Package gotoir implements the goto program intermediate representation
// (component B): a per-function list of typed instructions with
// back-edges resolved to indices, and the binary loader for the opaque
// IR stream an external front end produces.
package gotoir

import "github.com/boundedmc/bmc/internal/expr"

// InstrKind tags the variant of a goto Instruction.
type InstrKind int

const (
	Skip InstrKind = iota
	Assign
	Assume
	Assert
	Goto
	FunctionCall
	Return
	Decl
	Dead
	AtomicBegin
	AtomicEnd
	Other
)

var instrKindNames = [...]string{
	Skip:         "SKIP",
	Assign:       "ASSIGN",
	Assume:       "ASSUME",
	Assert:       "ASSERT",
	Goto:         "GOTO",
	FunctionCall: "FUNCTION_CALL",
	Return:       "RETURN",
	Decl:         "DECL",
	Dead:         "DEAD",
	AtomicBegin:  "ATOMIC_BEGIN",
	AtomicEnd:    "ATOMIC_END",
	Other:        "OTHER",
}

func (k InstrKind) String() string { return instrKindNames[k] }

// SourceLocation identifies where an instruction originated, carried
// through to counter-example printing.
type SourceLocation struct {
	File     string
	Line     int
	Function string
}

// Instruction is one goto-IR instruction. Only the fields relevant to
// Kind are populated; others are zero.
type Instruction struct {
	Kind InstrKind
	Loc  SourceLocation

	// ASSIGN
	LHS expr.Expr
	RHS expr.Expr

	// ASSUME / ASSERT / GOTO guard
	Guard   expr.Expr
	Message string // ASSERT only

	// GOTO targets, as indices into the enclosing function's Body.
	Targets []int

	// FUNCTION_CALL
	Callee string
	Args   []expr.Expr

	// RETURN
	Value expr.Expr

	// DECL / DEAD
	Symbol string
	Type   expr.Type

	// Numbering pass output (component B contract).
	LocationNumber int
	LoopNumber     int // index of the innermost back-edge target, or -1
}

// NewSkip returns a SKIP instruction.
func NewSkip(loc SourceLocation) Instruction { return Instruction{Kind: Skip, Loc: loc} }

// NewAssign returns an ASSIGN instruction.
func NewAssign(loc SourceLocation, lhs, rhs expr.Expr) Instruction {
	return Instruction{Kind: Assign, Loc: loc, LHS: lhs, RHS: rhs}
}

// NewAssume returns an ASSUME instruction.
func NewAssume(loc SourceLocation, guard expr.Expr) Instruction {
	return Instruction{Kind: Assume, Loc: loc, Guard: guard}
}

// NewAssert returns an ASSERT instruction.
func NewAssert(loc SourceLocation, guard expr.Expr, message string) Instruction {
	return Instruction{Kind: Assert, Loc: loc, Guard: guard, Message: message}
}

// NewGoto returns a GOTO instruction with an optional guard (unconditional
// when guard is nil, in which case it must have exactly one target).
func NewGoto(loc SourceLocation, guard expr.Expr, targets ...int) Instruction {
	return Instruction{Kind: Goto, Loc: loc, Guard: guard, Targets: targets}
}

// NewFunctionCall returns a FUNCTION_CALL instruction. lhs may be nil for
// a call whose result is discarded.
func NewFunctionCall(loc SourceLocation, lhs expr.Expr, callee string, args []expr.Expr) Instruction {
	return Instruction{Kind: FunctionCall, Loc: loc, LHS: lhs, Callee: callee, Args: args}
}

// NewReturn returns a RETURN instruction. value may be nil for void return.
func NewReturn(loc SourceLocation, value expr.Expr) Instruction {
	return Instruction{Kind: Return, Loc: loc, Value: value}
}

// NewDecl returns a DECL instruction introducing symbol into scope.
func NewDecl(loc SourceLocation, symbol string, t expr.Type) Instruction {
	return Instruction{Kind: Decl, Loc: loc, Symbol: symbol, Type: t}
}

// NewDead returns a DEAD instruction retiring symbol from scope.
func NewDead(loc SourceLocation, symbol string) Instruction {
	return Instruction{Kind: Dead, Loc: loc, Symbol: symbol}
}

// NewAtomicBegin/NewAtomicEnd bracket an atomic block.
func NewAtomicBegin(loc SourceLocation) Instruction { return Instruction{Kind: AtomicBegin, Loc: loc} }
func NewAtomicEnd(loc SourceLocation) Instruction    { return Instruction{Kind: AtomicEnd, Loc: loc} }

// IsBranch reports whether instr can transfer control to more than one
// successor (a conditional GOTO).
func (i Instruction) IsBranch() bool {
	return i.Kind == Goto && i.Guard != nil
}
