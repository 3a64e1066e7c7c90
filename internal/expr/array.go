package expr

import (
	"fmt"

	"github.com/boundedmc/bmc/internal/invariant"
)

// Array represents a symbolic array of bytes as a base id plus an
// update-chain history, the runtime value the symbolic executor hands to
// the array flattener. Every clone produced while following one lineage
// keeps the same ID: the flattener groups update chains by this id into
// one base_array_id bucket (spec's array history model), distinguishing
// it from a value produced by joining two distinct lineages at an ite,
// which the flattener must detect and union.
//
// Object names the goto-IR object this array backs — a dynamic
// allocation's "dynamic_<n>_value"/"_array" name, the same string
// State.ObjectName reports for its address — so a counterexample or
// diagnostic naming the array can be traced back to the program object
// it denotes rather than just its opaque base id. Empty for an array
// with no such named object (a test fixture, or one predating this
// provenance).
type Array struct {
	ID      uint64
	Size    uint
	Object  string
	Updates *ArrayUpdate
}

// NewArray returns a new, all-unconstrained Array of the given byte
// size, optionally naming the object it backs.
func NewArray(id uint64, size uint, object string) *Array {
	return &Array{ID: id, Size: size, Object: object}
}

func (a *Array) String() string {
	if a.Object != "" {
		return fmt.Sprintf("(array #%d %s %d)", a.ID, a.Object, a.Size)
	}
	if a.ID != 0 {
		return fmt.Sprintf("(array #%d %d)", a.ID, a.Size)
	}
	return fmt.Sprintf("(array %d)", a.Size)
}

// Clone returns a shallow copy of a sharing the same update chain.
func (a *Array) Clone() *Array {
	return &Array{ID: a.ID, Size: a.Size, Object: a.Object, Updates: a.Updates}
}

// Zero initializes every byte to the constant zero in place. Panics if
// a already has updates.
func (a *Array) Zero() {
	invariant.Assert(a.Updates == nil, "expr.Array: cannot zero-initialize array with updates")
	for i := uint(0); i < a.Size; i++ {
		a.storeByte(NewConstantExpr64(uint64(i)), NewConstantExpr(0, 8))
	}
}

// Select reads a width-bit value at offset.
func (a *Array) Select(offset Expr, width uint, isLittleEndian bool) Expr {
	invariant.Assert(width > 0, "select: invalid width")

	offset = newZExtExpr(offset, Width64)

	if width == WidthBool {
		return NewExtractExpr(a.selectByte(offset), 0, WidthBool)
	}

	var result Expr
	for i, n := uint64(0), uint64(width)/8; i != n; i++ {
		byteOffset := i
		if !isLittleEndian {
			byteOffset = n - i - 1
		}
		value := a.selectByte(NewBinaryExpr(ADD, offset, NewConstantExpr64(byteOffset)))
		if i == 0 {
			result = value
		} else {
			result = NewConcatExpr(value, result)
		}
	}
	return result
}

// selectByte reads a single byte, following the update chain for a
// constant match before falling back to a symbolic SelectExpr.
func (a *Array) selectByte(index Expr) Expr {
	invariant.Assert(ExprWidth(index) == 64, "selectByte: invalid array index width: %d", ExprWidth(index))
	for upd := a.Updates; upd != nil; upd = upd.Next {
		cond, ok := NewBinaryExpr(EQ, index, upd.Index).(*ConstantExpr)
		if !ok {
			break
		} else if cond.IsTrue() {
			return upd.Value
		}
	}
	return NewSelectExpr(a, index)
}

// Store writes value at offset, returning a new Array sharing a's ID.
func (a *Array) Store(offset, value Expr, isLittleEndian bool) *Array {
	other := a.Clone()

	offset = newZExtExpr(offset, Width64)

	width := ExprWidth(value)
	invariant.Assert(width > 0, "store: invalid width")
	if width == WidthBool {
		other.storeByte(offset, value)
		return other
	}

	for i, n := uint64(0), uint64(width)/8; i != n; i++ {
		byteOffset := i
		if !isLittleEndian {
			byteOffset = n - i - 1
		}
		other.storeByte(NewBinaryExpr(ADD, offset, NewConstantExpr64(byteOffset)), NewExtractExpr(value, uint(i*8), Width8))
	}
	return other
}

func (a *Array) storeByte(index, value Expr) {
	invariant.Assert(ExprWidth(index) == 64, "storeByte: invalid array index width: %d", ExprWidth(index))

	if idx, ok := index.(*ConstantExpr); ok {
		invariant.Assert(idx.Value < uint64(a.Size), "storeByte: index out of bounds: %d < %d", idx.Value, a.Size)
	}

	a.Updates = NewArrayUpdate(index, value, a.Updates)

	if idx, ok := index.(*ConstantExpr); ok {
		prev := a.Updates
		for upd := prev.Next; upd != nil; upd = upd.Next {
			updIndex, ok := upd.Index.(*ConstantExpr)
			if !ok {
				break
			} else if idx.Value == updIndex.Value {
				prev.Next = upd.Next
			} else {
				prev = upd
			}
		}
	}
}

// IsSymbolic returns true if any byte of a is not known concretely.
func (a *Array) IsSymbolic() bool {
	concrete := make([]bool, a.Size)
	for upd := a.Updates; upd != nil; upd = upd.Next {
		index, ok := upd.Index.(*ConstantExpr)
		if !ok {
			return true
		} else if _, ok := upd.Value.(*ConstantExpr); ok {
			concrete[index.Value] = true
		}
	}
	for _, ok := range concrete {
		if !ok {
			return true
		}
	}
	return false
}

// Equal returns a boolean expression for byte-wise equality of a and other.
func (a *Array) Equal(other *Array) Expr {
	if a.Size != other.Size {
		return NewBoolConstantExpr(false)
	} else if a.Size == 0 {
		return NewBoolConstantExpr(true)
	}

	var cond Expr
	for i := uint(0); i < a.Size; i++ {
		index := NewConstantExpr64(uint64(i))
		x, y := a.selectByte(index), other.selectByte(index)
		e := newEqExpr(x, y)
		if IsConstantFalse(e) {
			return NewBoolConstantExpr(false)
		}
		if i == 0 {
			cond = e
		} else {
			cond = newAndExpr(cond, e)
		}
	}
	return cond
}

// NotEqual returns a boolean expression for byte-wise inequality of a and other.
func (a *Array) NotEqual(other *Array) Expr {
	if a.Size != other.Size {
		return NewBoolConstantExpr(true)
	} else if a.Size == 0 {
		return NewBoolConstantExpr(false)
	}

	var cond Expr
	for i := uint(0); i < a.Size; i++ {
		index := NewConstantExpr64(uint64(i))
		x, y := a.selectByte(index), other.selectByte(index)
		e := NewNotExpr(newEqExpr(x, y))
		if IsConstantTrue(e) {
			return NewBoolConstantExpr(true)
		}
		if i == 0 {
			cond = e
		} else {
			cond = newOrExpr(cond, e)
		}
	}
	return cond
}

// CompareArray orders two arrays structurally.
func CompareArray(a, b *Array) int {
	if a == nil && b != nil {
		return -1
	} else if a != nil && b == nil {
		return 1
	} else if a == nil && b == nil {
		return 0
	}
	if a.ID < b.ID {
		return -1
	} else if a.ID > b.ID {
		return 1
	}
	if a.Size < b.Size {
		return -1
	} else if a.Size > b.Size {
		return 1
	}
	return CompareArrayUpdate(a.Updates, b.Updates)
}

// ArrayUpdate is one node of an array's with-update history.
type ArrayUpdate struct {
	Index Expr
	Value Expr
	Next  *ArrayUpdate
}

// NewArrayUpdate returns a new ArrayUpdate, normalizing index to 64 bits
// and value to a byte.
func NewArrayUpdate(index, value Expr, next *ArrayUpdate) *ArrayUpdate {
	return &ArrayUpdate{
		Index: newZExtExpr(index, Width64),
		Value: newZExtExpr(value, Width8),
		Next:  next,
	}
}

// CompareArrayUpdate orders two update chains structurally.
func CompareArrayUpdate(a, b *ArrayUpdate) int {
	if a == nil && b != nil {
		return -1
	} else if a != nil && b == nil {
		return 1
	} else if a == nil && b == nil {
		return 0
	}
	if cmp := CompareExpr(a.Index, b.Index); cmp != 0 {
		return cmp
	} else if cmp := CompareExpr(a.Value, b.Value); cmp != 0 {
		return cmp
	}
	return CompareArrayUpdate(a.Next, b.Next)
}

// UpdateNum returns the number of update records from the head of the chain,
// i.e. the array_update_num of a in the flattener's numbering.
func (a *Array) UpdateNum() int {
	n := 0
	for upd := a.Updates; upd != nil; upd = upd.Next {
		n++
	}
	return n
}
