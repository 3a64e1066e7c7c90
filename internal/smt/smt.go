// Package smt defines the abstract SMT interface every backend
// implements: a handle AST (a term in some sort) built up through a
// small closed set of constructors and function applications, a
// strictly LIFO push/pop scope discipline, and a sat/unsat/unknown
// check with model extraction. The only backend shipped in-tree is
// internal/smt/z3; the flattener and driver only ever talk to this
// interface.
package smt

import "fmt"

// SortKind enumerates the sort families §4.E names.
type SortKind int

const (
	SortBool SortKind = iota
	SortBV
	SortFP
	SortArray
	SortStruct
	SortUnion
)

func (k SortKind) String() string {
	switch k {
	case SortBool:
		return "bool"
	case SortBV:
		return "bv"
	case SortFP:
		return "fp"
	case SortArray:
		return "array"
	case SortStruct:
		return "struct"
	case SortUnion:
		return "union"
	default:
		return fmt.Sprintf("SortKind<%d>", int(k))
	}
}

// Component names one field of a struct/union sort.
type Component struct {
	Name string
	Sort Sort
}

// Sort is a backend-independent sort descriptor. Solver implementations
// translate it into their own native sort representation; nothing
// outside a backend inspects a Sort's fields beyond construction.
type Sort struct {
	Kind SortKind

	Width uint // SortBV

	ExpWidth, FracWidth uint // SortFP

	Domain, Range *Sort // SortArray

	Name       string // SortStruct/SortUnion
	Components []Component
}

// BoolSort, BVSort, FPSort, and ArraySort are convenience constructors
// for the Sort descriptors a caller builds most often.
func BoolSort() Sort                  { return Sort{Kind: SortBool} }
func BVSort(width uint) Sort          { return Sort{Kind: SortBV, Width: width} }
func FPSort(ew, sw uint) Sort         { return Sort{Kind: SortFP, ExpWidth: ew, FracWidth: sw} }
func ArraySort(domain, rng Sort) Sort { return Sort{Kind: SortArray, Domain: &domain, Range: &rng} }

// AST is an opaque term handle. Each backend boxes its own native
// representation (e.g. a C.Z3_ast) behind this interface; nothing
// outside the backend that produced one inspects its contents.
type AST interface{}

// FuncKind is the closed set of function applications mk_func_app
// supports, spanning boolean connectives, bitvector arithmetic/
// relational/logical ops, floating-point ops, and array theory.
type FuncKind int

const (
	EQ FuncKind = iota
	NOTEQ
	NOT
	AND
	OR
	XOR
	IMPLIES
	ITE
	CONCAT
	EXTRACT

	// Bitvector arithmetic.
	BVADD
	BVSUB
	BVMUL
	BVUDIV
	BVSDIV
	BVUREM
	BVSREM
	BVSHL
	BVLSHR
	BVASHR
	BVNEG
	BVNOT
	BVAND
	BVOR
	BVXOR

	// Bitvector relations.
	BVULT
	BVULE
	BVUGT
	BVUGE
	BVSLT
	BVSLE
	BVSGT
	BVSGE

	// Floating point.
	FPADD
	FPSUB
	FPMUL
	FPDIV
	FPNEG
	FPABS
	FPLT
	FPLE
	FPGT
	FPGE
	FPEQ
	ISNAN
	ISINF
	ISZERO
	ISNORMAL

	// Array theory.
	SELECT
	STORE
)

func (k FuncKind) String() string {
	names := [...]string{
		EQ: "eq", NOTEQ: "noteq", NOT: "not", AND: "and", OR: "or", XOR: "xor",
		IMPLIES: "implies", ITE: "ite", CONCAT: "concat", EXTRACT: "extract",
		BVADD: "bvadd", BVSUB: "bvsub", BVMUL: "bvmul", BVUDIV: "bvudiv",
		BVSDIV: "bvsdiv", BVUREM: "bvurem", BVSREM: "bvsrem", BVSHL: "bvshl",
		BVLSHR: "bvlshr", BVASHR: "bvashr", BVNEG: "bvneg", BVNOT: "bvnot",
		BVAND: "bvand", BVOR: "bvor", BVXOR: "bvxor",
		BVULT: "bvult", BVULE: "bvule", BVUGT: "bvugt", BVUGE: "bvuge",
		BVSLT: "bvslt", BVSLE: "bvsle", BVSGT: "bvsgt", BVSGE: "bvsge",
		FPADD: "fpadd", FPSUB: "fpsub", FPMUL: "fpmul", FPDIV: "fpdiv",
		FPNEG: "fpneg", FPABS: "fpabs", FPLT: "fplt", FPLE: "fple",
		FPGT: "fpgt", FPGE: "fpge", FPEQ: "fpeq",
		ISNAN: "isnan", ISINF: "isinf", ISZERO: "iszero", ISNORMAL: "isnormal",
		SELECT: "select", STORE: "store",
	}
	if int(k) >= 0 && int(k) < len(names) && names[k] != "" {
		return names[k]
	}
	return fmt.Sprintf("FuncKind<%d>", int(k))
}

// Result is check_sat's three-valued outcome.
type Result int

const (
	Unsat Result = iota
	Sat
	Unknown
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("Result<%d>", int(r))
	}
}

// Solver is the abstract interface §4.E specifies. Push/pop is
// strictly LIFO; a backend's term cache (if it has one) is invariant
// to pop — a term built before a push remains valid and reusable
// after the matching pop.
type Solver interface {
	MkSort(kind SortKind, args ...uint) (Sort, error)
	MkSymbol(name string, sort Sort) (AST, error)
	MkBVInt(value uint64, signed bool, width uint) (AST, error)
	MkBVFloat(bits uint64, ew, sw uint) (AST, error)
	MkFuncApp(kind FuncKind, args ...AST) (AST, error)

	AssertAST(ast AST) error
	PushCtx() error
	PopCtx() error
	CheckSat() (Result, error)

	GetBool(ast AST) (bool, error)
	GetBV(ast AST) (uint64, error)
	GetArrayElem(array AST, index uint64) (uint64, error)

	Close() error
}
