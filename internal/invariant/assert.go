// Package invariant provides the panic-based assertion helper used
// throughout the core for conditions that must never be reachable in
// correctly constructed IR. These are FatalInvariant violations: they
// abort with a diagnostic rather than being modeled as ordinary errors.
package invariant

import "fmt"

// Assert panics if condition is false.
func Assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("invariant: "+format, args...))
	}
}
