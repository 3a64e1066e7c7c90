// Package driver runs one BMC pipeline invocation, per spec.md §4.G: set
// the unwind bound, obtain a path's SSA trace from symbolic execution,
// optionally slice it down to the equations an assertion's support set
// actually needs, convert what remains to SMT, and interpret the
// resulting sat/unsat/unknown outcome.
package driver

import (
	"fmt"

	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/flatten"
	"github.com/boundedmc/bmc/internal/smt"
)

// extractor is the capability internal/smt.Solver deliberately omits:
// only a backend that actually has a native extract operation (z3.Solver
// does) implements it. A backend without one simply can't appear on an
// ExtractExpr-bearing path; compile reports that as a fatal invariant
// rather than silently miscompiling.
type extractor interface {
	MkExtract(src smt.AST, offset, width uint) (smt.AST, error)
}

// compiler translates expr.Expr trees surviving symbolic execution into
// smt.AST terms against one backend. It caches one AST per distinct SSA
// symbol and one AST per distinct array update-chain node, so sharing in
// the source trace (the same renamed variable read twice, the same array
// history reached down two branches) doesn't re-issue solver calls.
type compiler struct {
	solver smt.Solver

	// flattener, if set, routes every array Select/Store through the
	// portable byte-flattening encoding instead of native array theory.
	// arrays-uf=never leaves this nil.
	flattener *flatten.Flattener

	symCache   map[string]smt.AST
	arrayBase  map[uint64]smt.AST
	arrayCache map[*expr.ArrayUpdate]smt.AST
}

func newCompiler(solver smt.Solver, fl *flatten.Flattener) *compiler {
	return &compiler{
		solver:     solver,
		flattener:  fl,
		symCache:   make(map[string]smt.AST),
		arrayBase:  make(map[uint64]smt.AST),
		arrayCache: make(map[*expr.ArrayUpdate]smt.AST),
	}
}

// compile dispatches over the solver-level subset of expr.Expr, mirroring
// z3.Context.toAST's own dispatch but generalized onto the abstract
// smt.Solver interface instead of hardcoded Z3 calls.
func (c *compiler) compile(e expr.Expr) (smt.AST, error) {
	switch e := e.(type) {
	case *expr.ConstantExpr:
		return c.compileConstant(e)
	case *expr.SymbolExpr:
		return c.compileSymbol(e)
	case *expr.NotOptimizedExpr:
		return c.compile(e.Src)
	case *expr.NotExpr:
		return c.compileNot(e)
	case *expr.CastExpr:
		return c.compileCast(e)
	case *expr.ConcatExpr:
		return c.compileConcat(e)
	case *expr.ExtractExpr:
		return c.compileExtract(e)
	case *expr.BinaryExpr:
		return c.compileBinary(e)
	case *expr.IfExpr:
		return c.compileIf(e)
	case *expr.SelectExpr:
		return c.compileSelect(e)
	default:
		return nil, bmcerr.New(bmcerr.KindFatalInvariant, "compile: unsupported expression kind: %T", e)
	}
}

func (c *compiler) compileConstant(e *expr.ConstantExpr) (smt.AST, error) {
	return c.solver.MkBVInt(e.Value, false, e.Width)
}

func (c *compiler) compileSymbol(e *expr.SymbolExpr) (smt.AST, error) {
	key := e.String()
	if ast, ok := c.symCache[key]; ok {
		return ast, nil
	}
	ast, err := c.solver.MkSymbol(key, smtSortOf(e.Type))
	if err != nil {
		return nil, err
	}
	c.symCache[key] = ast
	return ast, nil
}

func (c *compiler) compileNot(e *expr.NotExpr) (smt.AST, error) {
	src, err := c.compile(e.Expr)
	if err != nil {
		return nil, err
	}
	if expr.ExprWidth(e.Expr) == expr.WidthBool {
		return c.solver.MkFuncApp(smt.NOT, src)
	}
	return c.solver.MkFuncApp(smt.BVNOT, src)
}

// compileCast synthesizes the width-changing casts that reach this
// point, all widening (NewCastExpr folds any narrowing cast into an
// ExtractExpr at construction time, so a *CastExpr node's Width is
// always > its source's). The closed FuncKind set has no dedicated
// extend primitive: a zero-extend is a CONCAT against a zero pad, just
// like z3.Context.toUnsignedCastAST builds one by hand rather than
// calling a native zero-extend constructor; a sign-extend replicates
// the source's sign bit into the pad via EXTRACT+ITE and CONCATs it on,
// generalizing that same file's bool-width special case (there, Z3's
// own Z3_mk_sign_ext covers the general case, which isn't available
// through this interface).
func (c *compiler) compileCast(e *expr.CastExpr) (smt.AST, error) {
	src, err := c.compile(e.Src)
	if err != nil {
		return nil, err
	}
	srcWidth := expr.ExprWidth(e.Src)
	padWidth := e.Width - srcWidth
	if padWidth == 0 {
		return src, nil
	}

	if srcWidth == expr.WidthBool {
		one, err := c.solver.MkBVInt(1, false, e.Width)
		if err != nil {
			return nil, err
		}
		if !e.Signed {
			zero, err := c.solver.MkBVInt(0, false, e.Width)
			if err != nil {
				return nil, err
			}
			return c.solver.MkFuncApp(smt.ITE, src, one, zero)
		}
		allOnes, err := c.solver.MkBVInt(^uint64(0), false, e.Width)
		if err != nil {
			return nil, err
		}
		zero, err := c.solver.MkBVInt(0, false, e.Width)
		if err != nil {
			return nil, err
		}
		return c.solver.MkFuncApp(smt.ITE, src, allOnes, zero)
	}

	if !e.Signed {
		pad, err := c.solver.MkBVInt(0, false, padWidth)
		if err != nil {
			return nil, err
		}
		return c.solver.MkFuncApp(smt.CONCAT, pad, src)
	}

	signBit, err := c.extract(src, srcWidth-1, 1)
	if err != nil {
		return nil, err
	}
	allOnesPad, err := c.solver.MkBVInt(^uint64(0), false, padWidth)
	if err != nil {
		return nil, err
	}
	zeroPad, err := c.solver.MkBVInt(0, false, padWidth)
	if err != nil {
		return nil, err
	}
	pad, err := c.solver.MkFuncApp(smt.ITE, signBit, allOnesPad, zeroPad)
	if err != nil {
		return nil, err
	}
	return c.solver.MkFuncApp(smt.CONCAT, pad, src)
}

func (c *compiler) compileConcat(e *expr.ConcatExpr) (smt.AST, error) {
	msb, err := c.compile(e.MSB)
	if err != nil {
		return nil, err
	}
	lsb, err := c.compile(e.LSB)
	if err != nil {
		return nil, err
	}
	return c.solver.MkFuncApp(smt.CONCAT, msb, lsb)
}

func (c *compiler) compileExtract(e *expr.ExtractExpr) (smt.AST, error) {
	src, err := c.compile(e.Expr)
	if err != nil {
		return nil, err
	}
	return c.extract(src, e.Offset, e.Width)
}

func (c *compiler) extract(src smt.AST, offset, width uint) (smt.AST, error) {
	ex, ok := c.solver.(extractor)
	if !ok {
		return nil, bmcerr.New(bmcerr.KindFatalInvariant, "compile: backend %T has no MkExtract", c.solver)
	}
	return ex.MkExtract(src, offset, width)
}

var binaryFuncKind = map[expr.BinaryOp]smt.FuncKind{
	expr.ADD:  smt.BVADD,
	expr.SUB:  smt.BVSUB,
	expr.MUL:  smt.BVMUL,
	expr.UDIV: smt.BVUDIV,
	expr.SDIV: smt.BVSDIV,
	expr.UREM: smt.BVUREM,
	expr.SREM: smt.BVSREM,
	expr.SHL:  smt.BVSHL,
	expr.LSHR: smt.BVLSHR,
	expr.ASHR: smt.BVASHR,
	expr.ULT:  smt.BVULT,
	expr.ULE:  smt.BVULE,
	expr.UGT:  smt.BVUGT,
	expr.UGE:  smt.BVUGE,
	expr.SLT:  smt.BVSLT,
	expr.SLE:  smt.BVSLE,
	expr.SGT:  smt.BVSGT,
	expr.SGE:  smt.BVSGE,
}

// compileBinary dispatches AND/OR/XOR/EQ through their boolean-vs-vector
// forms (mirroring z3.Context.toBinaryAST's own and/or/xor/eq special
// casing for bool width) and everything else directly through
// binaryFuncKind. NE never reaches here: NewBinaryExpr(NE, ...) rewrites
// it to an EQ-under-NOT-style comparison before this package ever sees
// an AST for it.
func (c *compiler) compileBinary(e *expr.BinaryExpr) (smt.AST, error) {
	lhs, err := c.compile(e.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := c.compile(e.RHS)
	if err != nil {
		return nil, err
	}

	isBool := expr.ExprWidth(e.LHS) == expr.WidthBool
	switch e.Op {
	case expr.EQ:
		return c.solver.MkFuncApp(smt.EQ, lhs, rhs)
	case expr.AND:
		if isBool {
			return c.solver.MkFuncApp(smt.AND, lhs, rhs)
		}
		return c.solver.MkFuncApp(smt.BVAND, lhs, rhs)
	case expr.OR:
		if isBool {
			return c.solver.MkFuncApp(smt.OR, lhs, rhs)
		}
		return c.solver.MkFuncApp(smt.BVOR, lhs, rhs)
	case expr.XOR:
		if isBool {
			return c.solver.MkFuncApp(smt.XOR, lhs, rhs)
		}
		return c.solver.MkFuncApp(smt.BVXOR, lhs, rhs)
	}

	kind, ok := binaryFuncKind[e.Op]
	if !ok {
		return nil, bmcerr.New(bmcerr.KindFatalInvariant, "compile: unsupported binary op: %s", e.Op)
	}
	return c.solver.MkFuncApp(kind, lhs, rhs)
}

func (c *compiler) compileIf(e *expr.IfExpr) (smt.AST, error) {
	cond, err := c.compile(e.Cond)
	if err != nil {
		return nil, err
	}
	then, err := c.compile(e.Then)
	if err != nil {
		return nil, err
	}
	els, err := c.compile(e.Else)
	if err != nil {
		return nil, err
	}
	return c.solver.MkFuncApp(smt.ITE, cond, then, els)
}

// compileSelect handles a one-byte array read surviving to SMT
// conversion. With a flattener configured (arrays-uf != never), the
// read is handed to Flattener.Select, which resolves it to some scalar
// expression — a cached fresh byte variable, a bounded ite chain, or a
// constant-index value straight off the update chain — and that
// expression is compiled in place of the select, so §4.F's portable
// byte encoding is what actually reaches the solver. With no flattener
// (arrays-uf=never), the array's update history is compiled directly
// through native SELECT/STORE instead.
func (c *compiler) compileSelect(e *expr.SelectExpr) (smt.AST, error) {
	if c.flattener != nil {
		return c.compile(c.flattener.Select(e.Array, e.Index))
	}

	arr, err := c.compileArray(e.Array)
	if err != nil {
		return nil, err
	}
	idx, err := c.compile(e.Index)
	if err != nil {
		return nil, err
	}
	return c.solver.MkFuncApp(smt.SELECT, arr, idx)
}

// arrayBaseSymbolName names the solver-visible symbol for an
// unupdated array base: the goto-IR object it backs when known
// (e.g. "dynamic_3_array"), falling back to its bare base id for an
// array with no such name (a struct/array local the front end never
// attached object provenance to).
func arrayBaseSymbolName(a *expr.Array) string {
	if a.Object != "" {
		return fmt.Sprintf("__array_%s_%d", a.Object, a.ID)
	}
	return fmt.Sprintf("__array_%d", a.ID)
}

func (c *compiler) compileArray(a *expr.Array) (smt.AST, error) {
	if a.Updates == nil {
		if ast, ok := c.arrayBase[a.ID]; ok {
			return ast, nil
		}
		ast, err := c.solver.MkSymbol(arrayBaseSymbolName(a), smt.ArraySort(smt.BVSort(expr.Width64), smt.BVSort(expr.Width8)))
		if err != nil {
			return nil, err
		}
		c.arrayBase[a.ID] = ast
		return ast, nil
	}
	if ast, ok := c.arrayCache[a.Updates]; ok {
		return ast, nil
	}
	prior := &expr.Array{ID: a.ID, Size: a.Size, Object: a.Object, Updates: a.Updates.Next}
	base, err := c.compileArray(prior)
	if err != nil {
		return nil, err
	}
	idx, err := c.compile(a.Updates.Index)
	if err != nil {
		return nil, err
	}
	val, err := c.compile(a.Updates.Value)
	if err != nil {
		return nil, err
	}
	ast, err := c.solver.MkFuncApp(smt.STORE, base, idx, val)
	if err != nil {
		return nil, err
	}
	c.arrayCache[a.Updates] = ast
	return ast, nil
}

// smtSortOf maps an IR type to the sort its compiled value occupies.
// TypePointer compiles to a 64-bit bitvector (expr.Type.Width_'s own
// convention) rather than a dedicated pointer sort.
func smtSortOf(t expr.Type) smt.Sort {
	switch t.Kind {
	case expr.TypeBool:
		return smt.BoolSort()
	case expr.TypeSignedBV, expr.TypeUnsignedBV:
		return smt.BVSort(t.Width)
	case expr.TypeFloat:
		return smt.FPSort(t.ExpWidth, t.FracWidth)
	case expr.TypePointer:
		return smt.BVSort(expr.Width64)
	case expr.TypeArray:
		return smt.ArraySort(smt.BVSort(expr.Width64), smt.BVSort(expr.Width8))
	default:
		return smt.BVSort(t.Width_())
	}
}
