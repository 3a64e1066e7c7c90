package valueset

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/tools/container/intsets"
)

// Pointee is one (object, offset) pair a pointer may denote; the type
// of a Pointee is always the pointee's declared Object.Type, so it is
// not carried redundantly on the pair itself.
type Pointee struct {
	Object ObjectID
	Offset int64 // byte offset into Object; -1 means "unknown offset"
}

// Set is the value-set lattice element: a finite set of Pointees, or
// the distinguished Top element meaning "any object" once a
// transfer has overflowed the configured cardinality bound.
type Set struct {
	top      bool
	pointees map[Pointee]struct{}
}

// Bottom returns the empty value-set (no objects known reachable yet).
func Bottom() *Set { return &Set{pointees: make(map[Pointee]struct{})} }

// Top returns the value-set that may denote any object.
func Top() *Set { return &Set{top: true} }

// Singleton returns a value-set containing exactly one Pointee.
func Singleton(obj ObjectID, offset int64) *Set {
	s := Bottom()
	s.pointees[Pointee{Object: obj, Offset: offset}] = struct{}{}
	return s
}

// IsTop reports whether s has been widened to the universal set.
func (s *Set) IsTop() bool { return s.top }

// Len returns the number of concrete Pointees, or -1 if s is Top.
func (s *Set) Len() int {
	if s.top {
		return -1
	}
	return len(s.pointees)
}

// Pointees returns s's members in a deterministic order. Calling it on
// Top panics; callers must check IsTop first.
func (s *Set) Pointees() []Pointee {
	if s.top {
		panic("valueset: Pointees called on Top")
	}
	out := make([]Pointee, 0, len(s.pointees))
	for p := range s.pointees {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Object != out[j].Object {
			return out[i].Object < out[j].Object
		}
		return out[i].Offset < out[j].Offset
	})
	return out
}

// Join computes the least upper bound of a and b: plain set union, or
// Top if either operand is Top.
func Join(a, b *Set) *Set {
	if a.top || b.top {
		return Top()
	}
	out := Bottom()
	for p := range a.pointees {
		out.pointees[p] = struct{}{}
	}
	for p := range b.pointees {
		out.pointees[p] = struct{}{}
	}
	return out
}

// WithOffset returns a with every Pointee's offset shifted by delta,
// or Top unchanged.
func (s *Set) WithOffset(delta int64) *Set {
	if s.top {
		return s
	}
	out := Bottom()
	for p := range s.pointees {
		off := p.Offset
		if off != -1 {
			off += delta
		}
		out.pointees[Pointee{Object: p.Object, Offset: off}] = struct{}{}
	}
	return out
}

// Equal reports structural equality of two value-sets.
func (s *Set) Equal(other *Set) bool {
	if s.top != other.top {
		return false
	}
	if s.top {
		return true
	}
	if len(s.pointees) != len(other.pointees) {
		return false
	}
	for p := range s.pointees {
		if _, ok := other.pointees[p]; !ok {
			return false
		}
	}
	return true
}

func (s *Set) String() string {
	if s.top {
		return "⊤"
	}
	parts := make([]string, 0, len(s.pointees))
	for _, p := range s.Pointees() {
		if p.Offset == -1 {
			parts = append(parts, fmt.Sprintf("#%d+?", p.Object))
		} else {
			parts = append(parts, fmt.Sprintf("#%d+%d", p.Object, p.Offset))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ObjectIDs returns the distinct object IDs referenced by s, dropping
// offset information; panics on Top, as for Pointees.
func (s *Set) ObjectIDs() *intsets.Sparse {
	if s.top {
		panic("valueset: ObjectIDs called on Top")
	}
	var out intsets.Sparse
	for p := range s.pointees {
		out.Insert(int(p.Object))
	}
	return &out
}
