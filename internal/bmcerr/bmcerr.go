// Package bmcerr defines the error taxonomy shared by every component of
// the checker. Recoverable errors (ValueSetOverflow) are handled by their
// caller; everything else propagates to the driver, which converts it to
// a diagnostic and an exit code.
package bmcerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the error categories the core can raise.
type Kind int

const (
	KindIRLoad Kind = iota
	KindClaimSelection
	KindUnwindLimit
	KindValueSetOverflow
	KindSolverError
	KindSolverUnknown
	KindFatalInvariant
	KindTimeout
)

var kindNames = [...]string{
	KindIRLoad:           "IRLoad",
	KindClaimSelection:   "ClaimSelection",
	KindUnwindLimit:      "UnwindLimit",
	KindValueSetOverflow: "ValueSetOverflow",
	KindSolverError:      "SolverError",
	KindSolverUnknown:    "SolverUnknown",
	KindFatalInvariant:   "FatalInvariant",
	KindTimeout:          "Timeout",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind<%d>", int(k))
}

// Recoverable reports whether errors of this kind are handled locally by
// their caller rather than surfacing to the driver. Only ValueSetOverflow
// is recoverable: the pointer analysis widens to top and continues.
func (k Kind) Recoverable() bool {
	return k == KindValueSetOverflow
}

// Error is a kind-tagged error. Use errors.As to recover the Kind from an
// error that has been wrapped by errors.Wrap along the call chain.
type Error struct {
	Kind Kind
	msg  string
}

// New returns a new Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Wrap annotates err with call-site context, preserving its Kind for
// later inspection via As.
func Wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

// As reports whether err (or any error it wraps) is a *Error and, if so,
// returns it.
func As(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		cause := errors.Unwrap(err)
		if cause == nil {
			cause = errors.Cause(err)
			if cause == err {
				break
			}
		}
		err = cause
	}
	return nil, false
}

// IsFatal reports whether err must bypass orderly shutdown. FatalInvariant
// errors bypass it because allocator hooks may deadlock in signal context.
func IsFatal(err error) bool {
	e, ok := As(err)
	return ok && e.Kind == KindFatalInvariant
}
