// Package z3 implements internal/smt.Solver with an embedded Z3
// context, adapted from the teacher's cgo bindings in z3/z3.go. The
// teacher's Solver.Solve took a batch of constraints and returned one
// model; this adapter instead exposes Z3's native incremental
// push/pop/assert/check-sat protocol so the driver and flattener can
// build up a query term by term, matching §4.E's interface.
package z3

import (
	"strings"
	"unsafe"

	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/smt"
)

/*
#cgo LDFLAGS: -lz3
#include <z3.h>
#include <stdlib.h>
*/
import "C"

var _ smt.Solver = (*Solver)(nil)

// Solver implements smt.Solver over one incremental Z3_solver scope
// stack. PushCtx/PopCtx map directly onto Z3_solver_push/pop, so the
// term cache (every AST built so far) is naturally invariant to a pop:
// Z3 ASTs are reference-counted values, not scope-local names.
type Solver struct {
	raw    C.Z3_context
	solver C.Z3_solver
	depth  int
}

// NewSolver returns a Solver with a fresh Z3 context and an
// incremental solver instance.
func NewSolver() *Solver {
	config := C.Z3_mk_config()
	defer C.Z3_del_config(config)

	raw := C.Z3_mk_context(config)
	C.Z3_set_error_handler(raw, nil)
	C.Z3_set_ast_print_mode(raw, C.Z3_PRINT_SMTLIB2_COMPLIANT)

	solver := C.Z3_mk_solver(raw)
	C.Z3_solver_inc_ref(raw, solver)

	return &Solver{raw: raw, solver: solver}
}

// Close releases the underlying Z3 solver and context.
func (s *Solver) Close() error {
	C.Z3_solver_dec_ref(s.raw, s.solver)
	C.Z3_del_context(s.raw)
	return nil
}

func (s *Solver) err(op string) error {
	if code := C.Z3_get_error_code(s.raw); code != C.Z3_OK {
		return bmcerr.New(bmcerr.KindSolverError, "z3: %s: %s (%d)", op, C.GoString(C.Z3_get_error_msg(s.raw, code)), int(code))
	}
	return nil
}

// MkSort translates a Sort descriptor into a validated copy; the
// actual Z3_sort is only materialized lazily at term-construction
// time (z3Sort), since a Sort is just data until something is built
// in it.
func (s *Solver) MkSort(kind smt.SortKind, args ...uint) (smt.Sort, error) {
	switch kind {
	case smt.SortBool:
		return smt.BoolSort(), nil
	case smt.SortBV:
		if len(args) != 1 {
			return smt.Sort{}, bmcerr.New(bmcerr.KindFatalInvariant, "z3: MkSort(SortBV) wants 1 arg (width), got %d", len(args))
		}
		return smt.BVSort(args[0]), nil
	case smt.SortFP:
		if len(args) != 2 {
			return smt.Sort{}, bmcerr.New(bmcerr.KindFatalInvariant, "z3: MkSort(SortFP) wants 2 args (ew, sw), got %d", len(args))
		}
		return smt.FPSort(args[0], args[1]), nil
	default:
		// Array/struct/union sorts carry nested Sort pointers that don't
		// fit a flat []uint argument list; build them with
		// smt.ArraySort/the Sort literal directly instead of MkSort.
		return smt.Sort{}, bmcerr.New(bmcerr.KindFatalInvariant, "z3: MkSort: use a Sort literal for %s", kind)
	}
}

// z3Sort materializes sort's native Z3_sort, recursing into
// SortArray's domain/range.
func (s *Solver) z3Sort(sort smt.Sort) (C.Z3_sort, error) {
	switch sort.Kind {
	case smt.SortBool:
		return C.Z3_mk_bool_sort(s.raw), s.err("Z3_mk_bool_sort")
	case smt.SortBV:
		return C.Z3_mk_bv_sort(s.raw, C.uint(sort.Width)), s.err("Z3_mk_bv_sort")
	case smt.SortFP:
		return C.Z3_mk_fpa_sort(s.raw, C.uint(sort.ExpWidth), C.uint(sort.FracWidth)), s.err("Z3_mk_fpa_sort")
	case smt.SortArray:
		domain, err := s.z3Sort(*sort.Domain)
		if err != nil {
			return nil, err
		}
		rng, err := s.z3Sort(*sort.Range)
		if err != nil {
			return nil, err
		}
		return C.Z3_mk_array_sort(s.raw, domain, rng), s.err("Z3_mk_array_sort")
	default:
		// Structs and unions are flattened into scalar member terms by
		// internal/flatten before reaching the solver; an aggregate Sort
		// should never be materialized here.
		return nil, bmcerr.New(bmcerr.KindFatalInvariant, "z3: unsupported sort kind %s", sort.Kind)
	}
}

// MkSymbol declares a free constant of the given sort.
func (s *Solver) MkSymbol(name string, sort smt.Sort) (smt.AST, error) {
	z3sort, err := s.z3Sort(sort)
	if err != nil {
		return nil, err
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	symbol := C.Z3_mk_string_symbol(s.raw, cname)
	ast := C.Z3_mk_const(s.raw, symbol, z3sort)
	return smt.AST(ast), s.err("Z3_mk_const")
}

// MkBVInt builds a bitvector constant from value's low width bits,
// or a bool constant when width is 1 (Z3 has no 1-bit bitvector
// sort distinct from Bool in this encoding).
func (s *Solver) MkBVInt(value uint64, signed bool, width uint) (smt.AST, error) {
	if width == 1 {
		if value&1 != 0 {
			return smt.AST(C.Z3_mk_true(s.raw)), s.err("Z3_mk_true")
		}
		return smt.AST(C.Z3_mk_false(s.raw)), s.err("Z3_mk_false")
	}
	sort := C.Z3_mk_bv_sort(s.raw, C.uint(width))
	if err := s.err("Z3_mk_bv_sort"); err != nil {
		return nil, err
	}
	if width <= 32 {
		return smt.AST(C.Z3_mk_unsigned_int(s.raw, C.uint(uint32(value)), sort)), s.err("Z3_mk_unsigned_int")
	}
	return smt.AST(C.Z3_mk_unsigned_int64(s.raw, C.ulong(value), sort)), s.err("Z3_mk_unsigned_int64")
}

// MkBVFloat builds a floating-point constant from bits, the raw
// IEEE754 bit pattern, by first building the equal-width bitvector
// then reinterpreting it through Z3_mk_fpa_to_fp_bv.
func (s *Solver) MkBVFloat(bits uint64, ew, sw uint) (smt.AST, error) {
	width := ew + sw + 1
	bv, err := s.MkBVInt(bits, false, width)
	if err != nil {
		return nil, err
	}
	bvAST, err := toZ3(bv)
	if err != nil {
		return nil, err
	}
	fpSort := C.Z3_mk_fpa_sort(s.raw, C.uint(ew), C.uint(sw))
	if err := s.err("Z3_mk_fpa_sort"); err != nil {
		return nil, err
	}
	return smt.AST(C.Z3_mk_fpa_to_fp_bv(s.raw, bvAST, fpSort)), s.err("Z3_mk_fpa_to_fp_bv")
}

// MkExtract builds a bitvector slice [offset, offset+width). This is
// kept as a dedicated method rather than a smt.MkFuncApp(EXTRACT, ...)
// case because extract's bit range is plain integer metadata, not an
// operand term, and the abstract interface's args are ASTs.
func (s *Solver) MkExtract(src smt.AST, offset, width uint) (smt.AST, error) {
	z3src, err := toZ3(src)
	if err != nil {
		return nil, err
	}
	if width == 1 {
		bit := C.Z3_mk_extract(s.raw, C.uint(offset), C.uint(offset), z3src)
		if err := s.err("Z3_mk_extract"); err != nil {
			return nil, err
		}
		one := C.Z3_mk_unsigned_int(s.raw, 1, C.Z3_mk_bv_sort(s.raw, 1))
		return smt.AST(C.Z3_mk_eq(s.raw, bit, one)), s.err("Z3_mk_eq")
	}
	return smt.AST(C.Z3_mk_extract(s.raw, C.uint(offset+width-1), C.uint(offset), z3src)), s.err("Z3_mk_extract")
}

// MkFuncApp dispatches every closed-set function kind §4.E names
// except EXTRACT (see MkExtract) onto the matching Z3 constructor.
func (s *Solver) MkFuncApp(kind smt.FuncKind, args ...smt.AST) (smt.AST, error) {
	z3args := make([]C.Z3_ast, len(args))
	for i, a := range args {
		v, err := toZ3(a)
		if err != nil {
			return nil, err
		}
		z3args[i] = v
	}

	switch kind {
	case smt.NOT:
		return s.mkUnary(z3args, "NOT", func(a C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_not(s.raw, a), "Z3_mk_not" })
	case smt.BVNOT:
		return s.mkUnary(z3args, "BVNOT", func(a C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvnot(s.raw, a), "Z3_mk_bvnot" })
	case smt.BVNEG:
		return s.mkUnary(z3args, "BVNEG", func(a C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvneg(s.raw, a), "Z3_mk_bvneg" })
	case smt.FPNEG:
		return s.mkUnary(z3args, "FPNEG", func(a C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_neg(s.raw, a), "Z3_mk_fpa_neg" })
	case smt.FPABS:
		return s.mkUnary(z3args, "FPABS", func(a C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_abs(s.raw, a), "Z3_mk_fpa_abs" })
	case smt.ISNAN:
		return s.mkUnary(z3args, "ISNAN", func(a C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_is_nan(s.raw, a), "Z3_mk_fpa_is_nan" })
	case smt.ISINF:
		return s.mkUnary(z3args, "ISINF", func(a C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_is_infinite(s.raw, a), "Z3_mk_fpa_is_infinite" })
	case smt.ISZERO:
		return s.mkUnary(z3args, "ISZERO", func(a C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_is_zero(s.raw, a), "Z3_mk_fpa_is_zero" })
	case smt.ISNORMAL:
		return s.mkUnary(z3args, "ISNORMAL", func(a C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_is_normal(s.raw, a), "Z3_mk_fpa_is_normal" })

	case smt.AND:
		return s.mkVariadicBoolOrBV(z3args, "AND",
			func(as []C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_and(s.raw, C.uint(len(as)), &as[0]), "Z3_mk_and" },
			func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvand(s.raw, a, b), "Z3_mk_bvand" })
	case smt.OR:
		return s.mkVariadicBoolOrBV(z3args, "OR",
			func(as []C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_or(s.raw, C.uint(len(as)), &as[0]), "Z3_mk_or" },
			func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvor(s.raw, a, b), "Z3_mk_bvor" })
	case smt.XOR:
		return s.mkBinaryBoolOrBV(z3args, "XOR",
			func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_xor(s.raw, a, b), "Z3_mk_xor" },
			func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvxor(s.raw, a, b), "Z3_mk_bvxor" })
	case smt.IMPLIES:
		return s.mkBinary(z3args, "IMPLIES", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_implies(s.raw, a, b), "Z3_mk_implies" })
	case smt.EQ:
		return s.mkBinary(z3args, "EQ", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_eq(s.raw, a, b), "Z3_mk_eq" })
	case smt.NOTEQ:
		ast, err := s.mkBinary(z3args, "NOTEQ", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_eq(s.raw, a, b), "Z3_mk_eq" })
		if err != nil {
			return nil, err
		}
		eq, err := toZ3(ast)
		if err != nil {
			return nil, err
		}
		return smt.AST(C.Z3_mk_not(s.raw, eq)), s.err("Z3_mk_not")
	case smt.ITE:
		if len(z3args) != 3 {
			return nil, bmcerr.New(bmcerr.KindFatalInvariant, "z3: ITE wants 3 args, got %d", len(z3args))
		}
		return smt.AST(C.Z3_mk_ite(s.raw, z3args[0], z3args[1], z3args[2])), s.err("Z3_mk_ite")
	case smt.CONCAT:
		return s.mkBinary(z3args, "CONCAT", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_concat(s.raw, a, b), "Z3_mk_concat" })

	case smt.BVADD:
		return s.mkBinary(z3args, "BVADD", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvadd(s.raw, a, b), "Z3_mk_bvadd" })
	case smt.BVSUB:
		return s.mkBinary(z3args, "BVSUB", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvsub(s.raw, a, b), "Z3_mk_bvsub" })
	case smt.BVMUL:
		return s.mkBinary(z3args, "BVMUL", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvmul(s.raw, a, b), "Z3_mk_bvmul" })
	case smt.BVUDIV:
		return s.mkBinary(z3args, "BVUDIV", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvudiv(s.raw, a, b), "Z3_mk_bvudiv" })
	case smt.BVSDIV:
		return s.mkBinary(z3args, "BVSDIV", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvsdiv(s.raw, a, b), "Z3_mk_bvsdiv" })
	case smt.BVUREM:
		return s.mkBinary(z3args, "BVUREM", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvurem(s.raw, a, b), "Z3_mk_bvurem" })
	case smt.BVSREM:
		return s.mkBinary(z3args, "BVSREM", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvsrem(s.raw, a, b), "Z3_mk_bvsrem" })
	case smt.BVSHL:
		return s.mkBinary(z3args, "BVSHL", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvshl(s.raw, a, b), "Z3_mk_bvshl" })
	case smt.BVLSHR:
		return s.mkBinary(z3args, "BVLSHR", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvlshr(s.raw, a, b), "Z3_mk_bvlshr" })
	case smt.BVASHR:
		return s.mkBinary(z3args, "BVASHR", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvashr(s.raw, a, b), "Z3_mk_bvashr" })

	case smt.BVULT:
		return s.mkBinary(z3args, "BVULT", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvult(s.raw, a, b), "Z3_mk_bvult" })
	case smt.BVULE:
		return s.mkBinary(z3args, "BVULE", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvule(s.raw, a, b), "Z3_mk_bvule" })
	case smt.BVUGT:
		return s.mkBinary(z3args, "BVUGT", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvugt(s.raw, a, b), "Z3_mk_bvugt" })
	case smt.BVUGE:
		return s.mkBinary(z3args, "BVUGE", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvuge(s.raw, a, b), "Z3_mk_bvuge" })
	case smt.BVSLT:
		return s.mkBinary(z3args, "BVSLT", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvslt(s.raw, a, b), "Z3_mk_bvslt" })
	case smt.BVSLE:
		return s.mkBinary(z3args, "BVSLE", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvsle(s.raw, a, b), "Z3_mk_bvsle" })
	case smt.BVSGT:
		return s.mkBinary(z3args, "BVSGT", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvsgt(s.raw, a, b), "Z3_mk_bvsgt" })
	case smt.BVSGE:
		return s.mkBinary(z3args, "BVSGE", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_bvsge(s.raw, a, b), "Z3_mk_bvsge" })

	case smt.FPADD:
		return s.mkFPArith(z3args, "FPADD", func(rm, a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_add(s.raw, rm, a, b), "Z3_mk_fpa_add" })
	case smt.FPSUB:
		return s.mkFPArith(z3args, "FPSUB", func(rm, a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_sub(s.raw, rm, a, b), "Z3_mk_fpa_sub" })
	case smt.FPMUL:
		return s.mkFPArith(z3args, "FPMUL", func(rm, a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_mul(s.raw, rm, a, b), "Z3_mk_fpa_mul" })
	case smt.FPDIV:
		return s.mkFPArith(z3args, "FPDIV", func(rm, a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_div(s.raw, rm, a, b), "Z3_mk_fpa_div" })
	case smt.FPLT:
		return s.mkBinary(z3args, "FPLT", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_lt(s.raw, a, b), "Z3_mk_fpa_lt" })
	case smt.FPLE:
		return s.mkBinary(z3args, "FPLE", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_leq(s.raw, a, b), "Z3_mk_fpa_leq" })
	case smt.FPGT:
		return s.mkBinary(z3args, "FPGT", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_gt(s.raw, a, b), "Z3_mk_fpa_gt" })
	case smt.FPGE:
		return s.mkBinary(z3args, "FPGE", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_geq(s.raw, a, b), "Z3_mk_fpa_geq" })
	case smt.FPEQ:
		return s.mkBinary(z3args, "FPEQ", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_fpa_eq(s.raw, a, b), "Z3_mk_fpa_eq" })

	case smt.SELECT:
		return s.mkBinary(z3args, "SELECT", func(a, b C.Z3_ast) (C.Z3_ast, string) { return C.Z3_mk_select(s.raw, a, b), "Z3_mk_select" })
	case smt.STORE:
		if len(z3args) != 3 {
			return nil, bmcerr.New(bmcerr.KindFatalInvariant, "z3: STORE wants 3 args, got %d", len(z3args))
		}
		return smt.AST(C.Z3_mk_store(s.raw, z3args[0], z3args[1], z3args[2])), s.err("Z3_mk_store")

	default:
		return nil, bmcerr.New(bmcerr.KindFatalInvariant, "z3: unsupported func kind %s", kind)
	}
}

// mkFPArith builds a 2-operand FP op that additionally takes a
// rounding mode; the abstract interface has no rounding-mode operand
// type of its own, so round-nearest-even is used unconditionally,
// matching ESBMC's default.
func (s *Solver) mkFPArith(args []C.Z3_ast, name string, f func(rm, a, b C.Z3_ast) (C.Z3_ast, string)) (smt.AST, error) {
	if len(args) != 2 {
		return nil, bmcerr.New(bmcerr.KindFatalInvariant, "z3: %s wants 2 args, got %d", name, len(args))
	}
	rm := C.Z3_mk_fpa_round_nearest_ties_to_even(s.raw)
	if err := s.err("Z3_mk_fpa_round_nearest_ties_to_even"); err != nil {
		return nil, err
	}
	ast, op := f(rm, args[0], args[1])
	return smt.AST(ast), s.err(op)
}

func (s *Solver) mkUnary(args []C.Z3_ast, name string, f func(C.Z3_ast) (C.Z3_ast, string)) (smt.AST, error) {
	if len(args) != 1 {
		return nil, bmcerr.New(bmcerr.KindFatalInvariant, "z3: %s wants 1 arg, got %d", name, len(args))
	}
	ast, op := f(args[0])
	return smt.AST(ast), s.err(op)
}

func (s *Solver) mkBinary(args []C.Z3_ast, name string, f func(a, b C.Z3_ast) (C.Z3_ast, string)) (smt.AST, error) {
	if len(args) != 2 {
		return nil, bmcerr.New(bmcerr.KindFatalInvariant, "z3: %s wants 2 args, got %d", name, len(args))
	}
	ast, op := f(args[0], args[1])
	return smt.AST(ast), s.err(op)
}

// mkBinaryBoolOrBV picks the boolean or bitvector constructor by the
// sort of the first operand, the same width-1-means-bool convention
// the teacher's toBinaryAndAST/toBinaryOrAST use.
func (s *Solver) mkBinaryBoolOrBV(args []C.Z3_ast, name string, boolFn, bvFn func(a, b C.Z3_ast) (C.Z3_ast, string)) (smt.AST, error) {
	if len(args) != 2 {
		return nil, bmcerr.New(bmcerr.KindFatalInvariant, "z3: %s wants 2 args, got %d", name, len(args))
	}
	if s.isBoolSort(args[0]) {
		return s.mkBinary(args, name, boolFn)
	}
	return s.mkBinary(args, name, bvFn)
}

// mkVariadicBoolOrBV folds a variadic boolean connective pairwise into
// the bitvector constructor when operands are bitvectors, since
// Z3_mk_and/Z3_mk_or only accept Bool-sorted arguments.
func (s *Solver) mkVariadicBoolOrBV(args []C.Z3_ast, name string, boolFn func([]C.Z3_ast) (C.Z3_ast, string), bvFn func(a, b C.Z3_ast) (C.Z3_ast, string)) (smt.AST, error) {
	if len(args) < 2 {
		return nil, bmcerr.New(bmcerr.KindFatalInvariant, "z3: %s wants at least 2 args, got %d", name, len(args))
	}
	if s.isBoolSort(args[0]) {
		ast, op := boolFn(args)
		return smt.AST(ast), s.err(op)
	}
	acc := args[0]
	for _, next := range args[1:] {
		var op string
		acc, op = bvFn(acc, next)
		if err := s.err(op); err != nil {
			return nil, err
		}
	}
	return smt.AST(acc), nil
}

func (s *Solver) isBoolSort(a C.Z3_ast) bool {
	return C.Z3_get_sort_kind(s.raw, C.Z3_get_sort(s.raw, a)) == C.Z3_BOOL_SORT
}

// AssertAST adds ast to the solver's current scope.
func (s *Solver) AssertAST(a smt.AST) error {
	z3ast, err := toZ3(a)
	if err != nil {
		return err
	}
	C.Z3_solver_assert(s.raw, s.solver, z3ast)
	return s.err("Z3_solver_assert")
}

// PushCtx opens a new LIFO scope.
func (s *Solver) PushCtx() error {
	C.Z3_solver_push(s.raw, s.solver)
	if err := s.err("Z3_solver_push"); err != nil {
		return err
	}
	s.depth++
	return nil
}

// PopCtx closes the most recently opened scope, discarding every
// assertion made since the matching PushCtx.
func (s *Solver) PopCtx() error {
	if s.depth == 0 {
		return bmcerr.New(bmcerr.KindFatalInvariant, "z3: PopCtx with no matching PushCtx")
	}
	C.Z3_solver_pop(s.raw, s.solver, 1)
	if err := s.err("Z3_solver_pop"); err != nil {
		return err
	}
	s.depth--
	return nil
}

// CheckSat runs the solver over every assertion live in the current
// scope stack.
func (s *Solver) CheckSat() (smt.Result, error) {
	ret := C.Z3_solver_check(s.raw, s.solver)
	if err := s.err("Z3_solver_check"); err != nil {
		return smt.Unknown, err
	}
	switch ret {
	case C.Z3_L_FALSE:
		return smt.Unsat, nil
	case C.Z3_L_TRUE:
		return smt.Sat, nil
	default:
		reason := C.GoString(C.Z3_solver_get_reason_unknown(s.raw, s.solver))
		if strings.Contains(reason, "timeout") {
			return smt.Unknown, bmcerr.New(bmcerr.KindTimeout, "z3: %s", reason)
		}
		return smt.Unknown, bmcerr.New(bmcerr.KindSolverUnknown, "z3: %s", reason)
	}
}

func (s *Solver) model() (C.Z3_model, error) {
	model := C.Z3_solver_get_model(s.raw, s.solver)
	return model, s.err("Z3_solver_get_model")
}

// GetBool reads ast's boolean value from the last satisfying model.
func (s *Solver) GetBool(a smt.AST) (bool, error) {
	z3ast, err := toZ3(a)
	if err != nil {
		return false, err
	}
	model, err := s.model()
	if err != nil {
		return false, err
	}
	var value C.Z3_ast
	C.Z3_model_eval(s.raw, model, z3ast, C.bool(true), &value)
	if err := s.err("Z3_model_eval"); err != nil {
		return false, err
	}
	return C.Z3_get_bool_value(s.raw, value) == C.Z3_L_TRUE, s.err("Z3_get_bool_value")
}

// GetBV reads ast's bitvector value from the last satisfying model.
func (s *Solver) GetBV(a smt.AST) (uint64, error) {
	z3ast, err := toZ3(a)
	if err != nil {
		return 0, err
	}
	model, err := s.model()
	if err != nil {
		return 0, err
	}
	var value C.Z3_ast
	C.Z3_model_eval(s.raw, model, z3ast, C.bool(true), &value)
	if err := s.err("Z3_model_eval"); err != nil {
		return 0, err
	}
	var out C.uint64_t
	C.Z3_get_numeral_uint64(s.raw, value, &out)
	return uint64(out), s.err("Z3_get_numeral_uint64")
}

// GetArrayElem reads the model value of array[index] by building and
// evaluating a one-off SELECT term, the same approach the teacher's
// evalArray uses per byte.
func (s *Solver) GetArrayElem(array smt.AST, index uint64) (uint64, error) {
	z3array, err := toZ3(array)
	if err != nil {
		return 0, err
	}
	domainSort := C.Z3_get_array_sort_domain(s.raw, C.Z3_get_sort(s.raw, z3array))
	idxAST, err := s.MkBVInt(index, false, uint(C.Z3_get_bv_sort_size(s.raw, domainSort)))
	if err != nil {
		return 0, err
	}
	z3idx, err := toZ3(idxAST)
	if err != nil {
		return 0, err
	}
	sel := C.Z3_mk_select(s.raw, z3array, z3idx)
	if err := s.err("Z3_mk_select"); err != nil {
		return 0, err
	}
	model, err := s.model()
	if err != nil {
		return 0, err
	}
	var value C.Z3_ast
	C.Z3_model_eval(s.raw, model, sel, C.bool(true), &value)
	if err := s.err("Z3_model_eval"); err != nil {
		return 0, err
	}
	var out C.uint64_t
	C.Z3_get_numeral_uint64(s.raw, value, &out)
	return uint64(out), s.err("Z3_get_numeral_uint64")
}

func toZ3(a smt.AST) (C.Z3_ast, error) {
	v, ok := a.(C.Z3_ast)
	if !ok {
		return nil, bmcerr.New(bmcerr.KindFatalInvariant, "z3: AST %T did not originate from this backend", a)
	}
	return v, nil
}
