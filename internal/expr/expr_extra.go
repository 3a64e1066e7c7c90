package expr

import (
	"fmt"
	"strings"
)

// SymbolExpr names a program variable at a particular SSA level. L1 is the
// per-function-call version (recursion/call-stack instance), L2 is the
// per-assignment version within that instance; both are zero before
// symbolic execution assigns them.
type SymbolExpr struct {
	Name string
	Type Type
	L1   uint
	L2   uint
}

// NewSymbolExpr returns an unrenamed (L1=L2=0) reference to name.
func NewSymbolExpr(name string, t Type) *SymbolExpr {
	return &SymbolExpr{Name: name, Type: t}
}

// Renamed returns a copy of e with new SSA levels.
func (e *SymbolExpr) Renamed(l1, l2 uint) *SymbolExpr {
	return &SymbolExpr{Name: e.Name, Type: e.Type, L1: l1, L2: l2}
}

func (e *SymbolExpr) String() string {
	return fmt.Sprintf("%s!%d!%d", e.Name, e.L1, e.L2)
}

// AddressOfExpr produces the address of an object-denoting expression
// (typically a SymbolExpr, IndexExpr, or MemberExpr).
type AddressOfExpr struct{ Object Expr }

func NewAddressOfExpr(object Expr) Expr { return &AddressOfExpr{Object: object} }

func (e *AddressOfExpr) String() string { return fmt.Sprintf("(address-of %s)", e.Object) }

// DereferenceExpr reads through a pointer expression. Resolution of which
// concrete objects Pointer may denote is the responsibility of the
// value-set pointer analysis; this node only records the syntactic
// dereference and its static result type.
type DereferenceExpr struct {
	Pointer Expr
	Type    Type
}

func NewDereferenceExpr(pointer Expr, t Type) Expr {
	return &DereferenceExpr{Pointer: pointer, Type: t}
}

func (e *DereferenceExpr) String() string { return fmt.Sprintf("(* %s)", e.Pointer) }

// IndexExpr reads element Index of array-typed Base.
type IndexExpr struct {
	Base  Expr
	Index Expr
	Type  Type
}

func NewIndexExpr(base, index Expr, elemType Type) Expr {
	return &IndexExpr{Base: base, Index: index, Type: elemType}
}

func (e *IndexExpr) String() string { return fmt.Sprintf("(index %s %s)", e.Base, e.Index) }

// MemberExpr reads the named component of a struct/union-typed Base.
type MemberExpr struct {
	Base Expr
	Name string
	Type Type
}

func NewMemberExpr(base Expr, name string, t Type) Expr {
	return &MemberExpr{Base: base, Name: name, Type: t}
}

func (e *MemberExpr) String() string { return fmt.Sprintf("(member %s %s)", e.Base, e.Name) }

// IfExpr is a ternary conditional. Then and Else must have equal width;
// constant conditions fold immediately.
type IfExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

// NewIfExpr returns an if-then-else expression, folding a constant Cond.
func NewIfExpr(cond, then, els Expr) Expr {
	if IsConstantTrue(cond) {
		return then
	}
	if IsConstantFalse(cond) {
		return els
	}
	if CompareExpr(then, els) == 0 {
		return then
	}
	return &IfExpr{Cond: cond, Then: then, Else: els}
}

func (e *IfExpr) String() string { return fmt.Sprintf("(if %s %s %s)", e.Cond, e.Then, e.Else) }

// SizeofExpr yields the byte size of Of, a compile-time constant once Of
// is fully resolved.
type SizeofExpr struct{ Of Type }

// NewSizeofExpr returns sizeof(t), folding to a constant when t's width
// is statically known.
func NewSizeofExpr(t Type) Expr {
	if w := t.Width_(); w > 0 {
		return NewConstantExpr(uint64(minBytes(w)), Width64)
	}
	return &SizeofExpr{Of: t}
}

func (e *SizeofExpr) String() string { return fmt.Sprintf("(sizeof %s)", e.Of) }

// FuncCallExpr records a call used in expression position (e.g. the
// argument-binding step of symex_function_call before inlining, or a
// call whose result feeds directly into an assignment's rhs).
type FuncCallExpr struct {
	Callee string
	Args   []Expr
	Type   Type
}

func NewFuncCallExpr(callee string, args []Expr, t Type) Expr {
	return &FuncCallExpr{Callee: callee, Args: args, Type: t}
}

func (e *FuncCallExpr) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("(call %s %s)", e.Callee, strings.Join(parts, " "))
}

// WithUpdateExpr denotes "Base with component/index Key updated to
// Value", the aggregate analogue of an array Store — used for struct
// field updates and as the functional-update view of an assignment
// through a member/index lvalue before it is lowered to byte-level array
// stores.
type WithUpdateExpr struct {
	Base  Expr
	Key   Expr // MemberExpr name as a StatementExpr-free key, or an index expression
	Value Expr
}

func NewWithUpdateExpr(base, key, value Expr) Expr {
	return &WithUpdateExpr{Base: base, Key: key, Value: value}
}

func (e *WithUpdateExpr) String() string {
	return fmt.Sprintf("(with %s %s %s)", e.Base, e.Key, e.Value)
}

// StructExpr is a literal aggregate value: one expression per component,
// in the order of Type.Components.
type StructExpr struct {
	Type   Type
	Fields []Expr
}

func NewStructExpr(t Type, fields []Expr) Expr {
	return &StructExpr{Type: t, Fields: fields}
}

func (e *StructExpr) String() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("(struct %s %s)", e.Type.Name, strings.Join(parts, " "))
}

// ArrayLiteralExpr is a literal array value: one expression per element.
type ArrayLiteralExpr struct {
	ElemType Type
	Elems    []Expr
}

func NewArrayLiteralExpr(elemType Type, elems []Expr) Expr {
	return &ArrayLiteralExpr{ElemType: elemType, Elems: elems}
}

func (e *ArrayLiteralExpr) String() string {
	parts := make([]string, len(e.Elems))
	for i, el := range e.Elems {
		parts[i] = el.String()
	}
	return fmt.Sprintf("(array-lit %s)", strings.Join(parts, " "))
}

// StatementExpr is a statement-expression: a side-effecting sequence
// whose value, in expression position, is Result (GNU C `({ ...; x; })`).
// The core treats Body as opaque ordering metadata already expanded by
// symex; only Result participates in further expression algebra.
type StatementExpr struct {
	Result Expr
}

func NewStatementExpr(result Expr) Expr { return &StatementExpr{Result: result} }

func (e *StatementExpr) String() string { return fmt.Sprintf("(stmt-expr %s)", e.Result) }
