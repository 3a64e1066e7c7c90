package monitor

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/expr"
)

// literalWidth is the width a bare integer literal in a monitor
// expression is assumed to carry when nothing else in the expression
// pins it down, matching the width of a plain C "int" the way the
// monitor's own status variable (StatusType) is declared.
const literalWidth = 32

// SymbolResolver maps an identifier referenced in a monitor expression
// to the symbol it denotes, the way goto-symex/builtin_functions.cpp's
// name-prefix dispatch table resolves a builtin name against the
// context symbol table. true/false are recognised directly by
// Translate and never reach a SymbolResolver.
type SymbolResolver func(name string) (*expr.SymbolExpr, error)

// ParseExpression parses a monitor's boolean expression source text,
// reusing Go's own expression grammar the way bunji2-smtrun parses its
// toy solver DSL with go/parser instead of writing a bespoke one.
func ParseExpression(src string) (ast.Expr, error) {
	e, err := parser.ParseExpr(src)
	if err != nil {
		return nil, bmcerr.Wrap(err, "monitor: parsing expression %q", src)
	}
	return e, nil
}

// Translate converts a parsed monitor expression into the core's own
// Expr representation, resolving identifiers via resolve.
func Translate(node ast.Expr, resolve SymbolResolver) (expr.Expr, error) {
	switch n := node.(type) {
	case *ast.ParenExpr:
		return Translate(n.X, resolve)
	case *ast.Ident:
		return translateIdent(n, resolve)
	case *ast.BasicLit:
		return translateBasicLit(n)
	case *ast.UnaryExpr:
		return translateUnary(n, resolve)
	case *ast.BinaryExpr:
		return translateBinary(n, resolve)
	default:
		return nil, bmcerr.New(bmcerr.KindIRLoad, "monitor: unsupported expression form %T", node)
	}
}

func translateIdent(n *ast.Ident, resolve SymbolResolver) (expr.Expr, error) {
	switch n.Name {
	case "true":
		return expr.NewBoolConstantExpr(true), nil
	case "false":
		return expr.NewBoolConstantExpr(false), nil
	}
	sym, err := resolve(n.Name)
	if err != nil {
		return nil, bmcerr.Wrap(err, "monitor: resolving %q", n.Name)
	}
	return sym, nil
}

func translateBasicLit(n *ast.BasicLit) (expr.Expr, error) {
	if n.Kind != token.INT {
		return nil, bmcerr.New(bmcerr.KindIRLoad, "monitor: unsupported literal kind %s", n.Kind)
	}
	v, err := strconv.ParseUint(n.Value, 0, 64)
	if err != nil {
		return nil, bmcerr.Wrap(err, "monitor: parsing integer literal %q", n.Value)
	}
	return expr.NewConstantExpr(v, literalWidth), nil
}

func translateUnary(n *ast.UnaryExpr, resolve SymbolResolver) (expr.Expr, error) {
	x, err := Translate(n.X, resolve)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case token.NOT:
		return expr.NewNotExpr(x), nil
	case token.SUB:
		zero := expr.NewConstantExpr(0, expr.ExprWidth(x))
		return expr.NewBinaryExpr(expr.SUB, zero, x), nil
	default:
		return nil, bmcerr.New(bmcerr.KindIRLoad, "monitor: unsupported unary operator %s", n.Op)
	}
}

func translateBinary(n *ast.BinaryExpr, resolve SymbolResolver) (expr.Expr, error) {
	lhs, err := Translate(n.X, resolve)
	if err != nil {
		return nil, err
	}
	rhs, err := Translate(n.Y, resolve)
	if err != nil {
		return nil, err
	}
	lhs, rhs = matchWidths(lhs, rhs)
	signed := isSignedOperand(lhs) || isSignedOperand(rhs)

	op, ok := binaryOp(n.Op, signed)
	if !ok {
		return nil, bmcerr.New(bmcerr.KindIRLoad, "monitor: unsupported binary operator %s", n.Op)
	}
	return expr.NewBinaryExpr(op, lhs, rhs), nil
}

func binaryOp(tok token.Token, signed bool) (expr.BinaryOp, bool) {
	switch tok {
	case token.ADD:
		return expr.ADD, true
	case token.SUB:
		return expr.SUB, true
	case token.MUL:
		return expr.MUL, true
	case token.QUO:
		if signed {
			return expr.SDIV, true
		}
		return expr.UDIV, true
	case token.REM:
		if signed {
			return expr.SREM, true
		}
		return expr.UREM, true
	case token.AND, token.LAND:
		return expr.AND, true
	case token.OR, token.LOR:
		return expr.OR, true
	case token.XOR:
		return expr.XOR, true
	case token.SHL:
		return expr.SHL, true
	case token.SHR:
		if signed {
			return expr.ASHR, true
		}
		return expr.LSHR, true
	case token.EQL:
		return expr.EQ, true
	case token.NEQ:
		return expr.NE, true
	case token.LSS:
		if signed {
			return expr.SLT, true
		}
		return expr.ULT, true
	case token.LEQ:
		if signed {
			return expr.SLE, true
		}
		return expr.ULE, true
	case token.GTR:
		if signed {
			return expr.SGT, true
		}
		return expr.UGT, true
	case token.GEQ:
		if signed {
			return expr.SGE, true
		}
		return expr.UGE, true
	default:
		return 0, false
	}
}

// matchWidths widens whichever side is a bare constant literal to the
// other operand's width, a documented simplification standing in for C's
// full integer-promotion rules: monitor expressions are simple
// predicates over scalar program variables, not arbitrary mixed-width
// arithmetic, so resizing a literal to match its partner is sufficient.
func matchWidths(lhs, rhs expr.Expr) (expr.Expr, expr.Expr) {
	lw, rw := expr.ExprWidth(lhs), expr.ExprWidth(rhs)
	if lw == rw {
		return lhs, rhs
	}
	if c, ok := rhs.(*expr.ConstantExpr); ok {
		return lhs, expr.NewConstantExpr(c.Value, lw)
	}
	if c, ok := lhs.(*expr.ConstantExpr); ok {
		return expr.NewConstantExpr(c.Value, rw), rhs
	}
	return lhs, rhs
}

// isSignedOperand reports whether e's declared or cast type is signed,
// used to pick the signed variant of a comparison or arithmetic op.
func isSignedOperand(e expr.Expr) bool {
	switch e := e.(type) {
	case *expr.SymbolExpr:
		return e.Type.Kind == expr.TypeSignedBV
	case *expr.CastExpr:
		return e.Signed
	default:
		return false
	}
}
