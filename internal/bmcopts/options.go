// Package bmcopts holds the option surface §6 of the core enumerates.
// It is a plain struct, not a CLI: Bind only wires flag.FlagSet values
// into the struct's fields, the way cmd/glee/generate.go's
// GenerateCommand builds its own flag set inline rather than reaching
// for a CLI framework. Command-line parsing itself stays out of this
// package's job; cmd/bmc owns the flag.FlagSet and calls Bind once.
package bmcopts

import "flag"

// ArraysUF selects when the flattener's portable encoding is used
// instead of (or as a fallback for) a backend's native array theory.
type ArraysUF int

const (
	ArraysUFAuto ArraysUF = iota
	ArraysUFAlways
	ArraysUFNever
)

func (a ArraysUF) String() string {
	switch a {
	case ArraysUFAlways:
		return "always"
	case ArraysUFNever:
		return "never"
	default:
		return "auto"
	}
}

// Set implements flag.Value so ArraysUF can be bound directly.
func (a *ArraysUF) Set(s string) error {
	switch s {
	case "", "auto":
		*a = ArraysUFAuto
	case "always":
		*a = ArraysUFAlways
	case "never":
		*a = ArraysUFNever
	default:
		return &invalidArraysUFError{s}
	}
	return nil
}

type invalidArraysUFError struct{ value string }

func (e *invalidArraysUFError) Error() string {
	return "bmcopts: invalid arrays-uf value: " + e.value
}

// Options is the option surface the core recognises, per spec.md §6.
type Options struct {
	Unwind int
	KStep  int

	PartialLoops          bool
	NoUnwindingAssertions bool

	BaseCase        bool
	ForwardCondition bool
	InductiveStep   bool

	NoSlice      bool
	ArraysUF     ArraysUF
	IntEncoding  bool
	ContextSwitch int

	DeadlockCheck   bool
	DataRacesCheck  bool
	NoAssertions    bool
	NoPointerCheck  bool

	MemLimit uint64
	Timeout  int

	ShowClaims        bool
	ShowVCC           bool
	ShowGotoFunctions bool

	Parallel bool
}

// WithDefaults returns a copy of o with zero-valued fields set to the
// core's documented defaults.
func (o Options) WithDefaults() Options {
	if o.Unwind == 0 {
		o.Unwind = 1
	}
	if o.KStep == 0 {
		o.KStep = 1
	}
	return o
}

// Bind registers every option on fs, writing into o's fields.
func (o *Options) Bind(fs *flag.FlagSet) {
	fs.IntVar(&o.Unwind, "unwind", 1, "loop/recursion unwind bound")
	fs.IntVar(&o.KStep, "k-step", 1, "k-induction step size")
	fs.BoolVar(&o.PartialLoops, "partial-loops", false, "allow partial unwinding without an unwinding assertion failure")
	fs.BoolVar(&o.NoUnwindingAssertions, "no-unwinding-assertions", false, "do not emit unwinding assertions")
	fs.BoolVar(&o.BaseCase, "base-case", false, "run only the base-case configuration")
	fs.BoolVar(&o.ForwardCondition, "forward-condition", false, "run only the forward-condition configuration")
	fs.BoolVar(&o.InductiveStep, "inductive-step", false, "run only the inductive-step configuration")
	fs.BoolVar(&o.NoSlice, "no-slice", false, "disable equation slicing before SMT conversion")
	fs.Var(&o.ArraysUF, "arrays-uf", "array flattening policy: auto, always, never")
	fs.BoolVar(&o.IntEncoding, "int-encoding", false, "encode integers natively instead of as bitvectors")
	fs.IntVar(&o.ContextSwitch, "context-switch", 0, "bound on context switches explored by the scheduler")
	fs.BoolVar(&o.DeadlockCheck, "deadlock-check", false, "check for deadlock")
	fs.BoolVar(&o.DataRacesCheck, "data-races-check", false, "check for data races")
	fs.BoolVar(&o.NoAssertions, "no-assertions", false, "do not check user assertions")
	fs.BoolVar(&o.NoPointerCheck, "no-pointer-check", false, "do not check pointer safety")
	fs.Uint64Var(&o.MemLimit, "memlimit", 0, "address-space limit in bytes (0 = unlimited)")
	fs.IntVar(&o.Timeout, "timeout", 0, "wall-clock timeout in seconds (0 = unlimited)")
	fs.BoolVar(&o.ShowClaims, "show-claims", false, "print claims and exit")
	fs.BoolVar(&o.ShowVCC, "show-vcc", false, "print verification conditions and exit")
	fs.BoolVar(&o.ShowGotoFunctions, "show-goto-functions", false, "print the loaded goto functions and exit")
	fs.BoolVar(&o.Parallel, "parallel", true, "fork the three k-induction configurations as separate processes")
}

// SingleConfig reports whether exactly one of base-case/forward-condition/
// inductive-step was requested, and which. The orchestrator runs all
// three when none are set.
func (o Options) SingleConfig() (kind string, ok bool) {
	n := 0
	if o.BaseCase {
		kind, n = "base-case", n+1
	}
	if o.ForwardCondition {
		kind, n = "forward-condition", n+1
	}
	if o.InductiveStep {
		kind, n = "inductive-step", n+1
	}
	if n == 1 {
		return kind, true
	}
	return "", false
}
