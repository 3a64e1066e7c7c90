package symex

import (
	"fmt"

	"github.com/benbjohnson/immutable"

	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/gotoir"
)

// Status is the per-path-frame state machine spec §4.D names:
// RUNNING -> {MERGED, TERMINATED, UNWIND_CUT}.
type Status int

const (
	Running Status = iota
	Merged
	Terminated
	UnwindCut
)

func (s Status) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Merged:
		return "MERGED"
	case Terminated:
		return "TERMINATED"
	case UnwindCut:
		return "UNWIND_CUT"
	default:
		return "UNKNOWN"
	}
}

// frame is one activation record on the call stack: the function
// being executed, the current program counter (an index into
// fn.Body), the renamer for symbols visible in this activation, and
// the per-loop-header unwind counters owned by this activation.
type frame struct {
	fn       *gotoir.Function
	pc       int
	renamer  *renamer
	unwound  map[int]int // loop header LocationNumber -> remaining unwindings
	lhsQueue expr.Expr   // pending lhs of the call, for binding the callee's return value
}

func (f *frame) clone() *frame {
	unwound := make(map[int]int, len(f.unwound))
	for k, v := range f.unwound {
		unwound[k] = v
	}
	return &frame{fn: f.fn, pc: f.pc, renamer: f.renamer.clone(), unwound: unwound, lhsQueue: f.lhsQueue}
}

func (f *frame) instr() (gotoir.Instruction, bool) {
	if f.pc < 0 || f.pc >= len(f.fn.Body) {
		return gotoir.Instruction{}, false
	}
	return f.fn.Body[f.pc], true
}

// State is one path under exploration, generalizing the teacher's
// ExecutionState from a Go-SSA-backed interpreter to one interpreting
// gotoir.Program. It owns a call stack, a symbolic heap keyed by
// address, a path guard, and the trace of equations/claims produced
// so far.
type State struct {
	id     int
	parent *State

	status Status
	reason string

	stack []*frame
	guard expr.Expr // conjunction of branch decisions taken to reach this state

	heap        *immutable.SortedMap
	nextAlloc   uint64
	dynCount    uint64
	objectNames map[uint64]string // heap address -> debug name, dynamic allocations only

	constraints []expr.Expr
	trace       []TraceEntry
}

func newAddrComparer() immutable.Comparer { return &uint64Comparer{} }

type uint64Comparer struct{}

func (c *uint64Comparer) Compare(a, b interface{}) int {
	x, y := a.(uint64), b.(uint64)
	if x < y {
		return -1
	} else if x > y {
		return 1
	}
	return 0
}

// newState returns the initial state for entering fn (the program's
// main), with a fresh heap and a trivially-true path guard.
func newState(fn *gotoir.Function) *State {
	s := &State{
		status:      Running,
		guard:       expr.NewBoolConstantExpr(true),
		heap:        immutable.NewSortedMap(newAddrComparer()),
		nextAlloc:   1,
		objectNames: make(map[uint64]string),
	}
	s.push(fn, nil)
	return s
}

// push enters fn as a new activation at pc 0, with a fresh renamer
// that shares l1Seq and no unwind counters. It mints no symbol versions
// and binds no formals itself: level1 families are minted later, when a
// DECL or a parameter binding activates a name.
func (s *State) push(fn *gotoir.Function, l1Seq map[string]*uint) {
	if l1Seq == nil {
		l1Seq = make(map[string]*uint)
	}
	s.stack = append(s.stack, &frame{
		fn:      fn,
		pc:      0,
		renamer: newRenamer(l1Seq),
		unwound: make(map[int]int),
	})
}

// top returns the currently-executing frame, or nil if the stack is empty.
func (s *State) top() *frame {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// ID returns the state's executor-assigned identifier.
func (s *State) ID() int { return s.id }

// Status returns the path's current state-machine status.
func (s *State) Status() Status { return s.status }

// Reason explains a non-Running status.
func (s *State) Reason() string { return s.reason }

// Guard returns the accumulated path condition.
func (s *State) Guard() expr.Expr { return s.guard }

// Constraints returns every constraint collected on this path so far.
func (s *State) Constraints() []expr.Expr { return s.constraints }

// Trace returns the assignment/assume/assert equations emitted on this path.
func (s *State) Trace() []TraceEntry { return s.trace }

// clone deep-copies s, sharing the persistent heap but giving the
// clone its own stack, constraint list, and trace — the Fork step
// symex_goto needs to split one path into two at a branch.
func (s *State) clone() *State {
	stack := make([]*frame, len(s.stack))
	for i, f := range s.stack {
		stack[i] = f.clone()
	}
	constraints := make([]expr.Expr, len(s.constraints))
	copy(constraints, s.constraints)
	trace := make([]TraceEntry, len(s.trace))
	copy(trace, s.trace)

	objectNames := make(map[uint64]string, len(s.objectNames))
	for k, v := range s.objectNames {
		objectNames[k] = v
	}

	return &State{
		parent:      s,
		status:      s.status,
		guard:       s.guard,
		stack:       stack,
		heap:        s.heap,
		nextAlloc:   s.nextAlloc,
		dynCount:    s.dynCount,
		objectNames: objectNames,
		constraints: constraints,
		trace:       trace,
	}
}

// ObjectName returns the debug name symex_malloc assigned to the
// dynamic allocation at addr, if any.
func (s *State) ObjectName(addr uint64) (string, bool) {
	name, ok := s.objectNames[addr]
	return name, ok
}

// addConstraint appends expr to the path's constraint set, splitting
// top-level conjunctions the way the teacher's AddConstraint does.
func (s *State) addConstraint(e expr.Expr) {
	if b, ok := e.(*expr.BinaryExpr); ok && b.Op == expr.AND {
		s.addConstraint(b.LHS)
		s.addConstraint(b.RHS)
		return
	}
	s.constraints = append(s.constraints, e)
}

// alloc reserves a fresh heap object of the given byte size, named for
// the dynamic object it backs (e.g. "dynamic_3_array") so the array
// carries the same provenance State.ObjectName already reports for its
// address.
func (s *State) alloc(size uint, object string) (*expr.ConstantExpr, *expr.Array) {
	addr := s.nextAlloc
	s.nextAlloc += uint64(size)
	if s.nextAlloc == 0 {
		s.nextAlloc = 1 // never hand out the null address
	}
	array := expr.NewArray(addr, size, object)
	s.heap = s.heap.Set(addr, array)
	return expr.NewConstantExpr64(addr), array
}

func (s *State) loadArray(addr uint64) (*expr.Array, bool) {
	v, ok := s.heap.Get(addr)
	if !ok {
		return nil, false
	}
	return v.(*expr.Array), true
}

func (s *State) storeArray(addr uint64, a *expr.Array) {
	s.heap = s.heap.Set(addr, a)
}

func (s *State) String() string {
	return fmt.Sprintf("state#%d status=%s frames=%d", s.id, s.status, len(s.stack))
}
