// Package valueset implements component C: a forward dataflow
// pointer analysis over a gotoir.Program whose lattice is the set of
// finite (object, offset, type) triples a pointer expression may
// denote at a given program point, joined by union and widened to a
// distinguished top element when a set's cardinality outgrows a
// configurable bound.
package valueset

import (
	"fmt"

	"github.com/boundedmc/bmc/internal/expr"
)

// ObjectID identifies one abstract storage object: a declared symbol,
// a dynamically allocated block, or a function (for function pointers).
type ObjectID uint64

// Object is one abstract storage location a pointer may target.
type Object struct {
	ID   ObjectID
	Name string // symbol or allocation site name
	Type expr.Type
}

func (o Object) String() string { return fmt.Sprintf("#%d:%s", o.ID, o.Name) }

// Registry hands out stable ObjectIDs for symbols and allocation
// sites, so that two references to the same declared symbol resolve
// to the same Object across the whole analysis.
type Registry struct {
	byName map[string]*Object
	next   ObjectID
}

// NewRegistry returns an empty object registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Object)}
}

// Intern returns the Object for name, creating it on first use.
func (r *Registry) Intern(name string, t expr.Type) *Object {
	if obj, ok := r.byName[name]; ok {
		return obj
	}
	r.next++
	obj := &Object{ID: r.next, Name: name, Type: t}
	r.byName[name] = obj
	return obj
}

// Lookup returns the Object for name if it has already been interned.
func (r *Registry) Lookup(name string) (*Object, bool) {
	obj, ok := r.byName[name]
	return obj, ok
}
