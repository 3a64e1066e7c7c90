package expr

import (
	"fmt"
	"strings"

	"github.com/boundedmc/bmc/internal/invariant"
)

// TypeKind tags the variant of a Type value.
type TypeKind int

const (
	TypeBool TypeKind = iota
	TypeSignedBV
	TypeUnsignedBV
	TypeFloat
	TypeArray
	TypePointer
	TypeStruct
	TypeUnion
	TypeCode
	TypeEmpty
)

var typeKindNames = [...]string{
	TypeBool:       "bool",
	TypeSignedBV:   "signed_bv",
	TypeUnsignedBV: "unsigned_bv",
	TypeFloat:      "float",
	TypeArray:      "array",
	TypePointer:    "pointer",
	TypeStruct:     "struct",
	TypeUnion:      "union",
	TypeCode:       "code",
	TypeEmpty:      "empty",
}

func (k TypeKind) String() string { return typeKindNames[k] }

// Component is a named, ordered member of a struct or union type.
type Component struct {
	Name string
	Type Type
}

// Type is a tagged value describing the shape of an expression's value.
// It is immutable after construction, mirroring the immutability
// discipline of Expr nodes.
type Type struct {
	Kind TypeKind

	Width uint // SignedBV / UnsignedBV bit width; ExponentWidth for Float packs into ExpWidth/FracWidth below

	ExpWidth  uint // Float: exponent width
	FracWidth uint // Float: fraction width

	Elem *Type // Array element type / Pointer subtype
	Size Expr  // Array size expression; nil means unknown/flexible size

	Components []Component // Struct / Union named components, in declaration order

	Name string // Struct/Union tag, for display only
}

// NewBoolType returns the boolean type.
func NewBoolType() Type { return Type{Kind: TypeBool} }

// NewBVType returns a signed or unsigned bitvector type of the given width.
func NewBVType(width uint, signed bool) Type {
	invariant.Assert(width >= 1, "bitvector width must be >= 1, got %d", width)
	if signed {
		return Type{Kind: TypeSignedBV, Width: width}
	}
	return Type{Kind: TypeUnsignedBV, Width: width}
}

// NewFloatType returns a floating-point type with the given exponent and
// fraction widths.
func NewFloatType(expWidth, fracWidth uint) Type {
	return Type{Kind: TypeFloat, ExpWidth: expWidth, FracWidth: fracWidth}
}

// NewArrayType returns an array type. size may be nil for a flexible-size
// array (its size is not an IR-level constant).
func NewArrayType(elem Type, size Expr) Type {
	if size != nil {
		invariant.Assert(IsIntegerType(SizeExprType(size)), "array size must be integer-typed")
	}
	e := elem
	return Type{Kind: TypeArray, Elem: &e, Size: size}
}

// NewPointerType returns a pointer-to-subtype type.
func NewPointerType(sub Type) Type {
	s := sub
	return Type{Kind: TypePointer, Elem: &s}
}

// NewStructType returns a struct type with the given ordered, uniquely
// named components.
func NewStructType(name string, components []Component) Type {
	assertUniqueComponents(components)
	return Type{Kind: TypeStruct, Name: name, Components: components}
}

// NewUnionType returns a union type with the given ordered, uniquely
// named components.
func NewUnionType(name string, components []Component) Type {
	assertUniqueComponents(components)
	return Type{Kind: TypeUnion, Name: name, Components: components}
}

// NewCodeType returns the type of a function signature value (used only
// for address-of-function constants; it carries no further shape here).
func NewCodeType() Type { return Type{Kind: TypeCode} }

// NewEmptyType returns the void/empty type.
func NewEmptyType() Type { return Type{Kind: TypeEmpty} }

func assertUniqueComponents(components []Component) {
	seen := make(map[string]struct{}, len(components))
	for _, c := range components {
		_, dup := seen[c.Name]
		invariant.Assert(!dup, "duplicate struct/union component: %s", c.Name)
		seen[c.Name] = struct{}{}
	}
}

// IsIntegerType reports whether t is a signed or unsigned bitvector.
func IsIntegerType(t Type) bool {
	return t.Kind == TypeSignedBV || t.Kind == TypeUnsignedBV
}

// SizeExprType is a placeholder hook so array-size validation can be
// expressed without importing a concrete typed-expression evaluator here;
// callers that construct array sizes from typed IR pass the real type.
var SizeExprType = func(Expr) Type { return Type{Kind: TypeUnsignedBV, Width: Width64} }

// Width_ returns the bit width occupied by a value of type t.
func (t Type) Width_() uint {
	switch t.Kind {
	case TypeBool:
		return WidthBool
	case TypeSignedBV, TypeUnsignedBV:
		return t.Width
	case TypeFloat:
		return 1 + t.ExpWidth + t.FracWidth
	case TypePointer:
		return Width64
	default:
		return 0
	}
}

func (t Type) String() string {
	switch t.Kind {
	case TypeBool:
		return "bool"
	case TypeSignedBV:
		return fmt.Sprintf("signed_bv[%d]", t.Width)
	case TypeUnsignedBV:
		return fmt.Sprintf("unsigned_bv[%d]", t.Width)
	case TypeFloat:
		return fmt.Sprintf("float[%d,%d]", t.ExpWidth, t.FracWidth)
	case TypeArray:
		if t.Size != nil {
			return fmt.Sprintf("array[%s; %s]", t.Elem, t.Size)
		}
		return fmt.Sprintf("array[%s; ?]", t.Elem)
	case TypePointer:
		return fmt.Sprintf("*%s", t.Elem)
	case TypeStruct, TypeUnion:
		names := make([]string, len(t.Components))
		for i, c := range t.Components {
			names[i] = c.Name
		}
		return fmt.Sprintf("%s %s{%s}", t.Kind, t.Name, strings.Join(names, ","))
	case TypeCode:
		return "code"
	case TypeEmpty:
		return "empty"
	default:
		return "?"
	}
}

// ZeroValue returns the literal zero of type t: 0 for numerics, false for
// booleans, a record with every component recursively zeroed, an array of
// zeros of the element type sized per a constant Size.
func ZeroValue(t Type) Expr {
	switch t.Kind {
	case TypeBool:
		return NewBoolConstantExpr(false)
	case TypeSignedBV, TypeUnsignedBV:
		return NewConstantExpr(0, t.Width)
	case TypeFloat:
		return NewConstantExpr(0, 1+t.ExpWidth+t.FracWidth)
	case TypePointer:
		return NewConstantExpr(0, Width64)
	case TypeArray:
		size, ok := constantArraySize(t)
		invariant.Assert(ok, "ZeroValue: array has no constant size")
		elems := make([]Expr, size)
		for i := range elems {
			elems[i] = ZeroValue(*t.Elem)
		}
		return NewArrayLiteralExpr(*t.Elem, elems)
	case TypeStruct, TypeUnion:
		fields := make([]Expr, len(t.Components))
		for i, c := range t.Components {
			fields[i] = ZeroValue(c.Type)
		}
		return NewStructExpr(t, fields)
	case TypeEmpty:
		return NewConstantExpr(0, WidthBool)
	default:
		invariant.Assert(false, "ZeroValue: unsupported type kind %s", t.Kind)
		return nil
	}
}

func constantArraySize(t Type) (uint64, bool) {
	if t.Size == nil {
		return 0, false
	}
	c, ok := t.Size.(*ConstantExpr)
	if !ok {
		return 0, false
	}
	return c.Value, true
}
