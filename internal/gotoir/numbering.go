package gotoir

import "github.com/twmb/algoimpl/go/graph"

// Number assigns every instruction in fn a LocationNumber equal to its
// index in Body, and a LoopNumber: the index of the nearest enclosing
// loop header, or -1 outside any loop.
//
// Loop headers are found by a depth-first search over the control-flow
// graph that marks back-edges (an edge to an ancestor still on the DFS
// stack); the edge's target is the loop header. An instruction's loop
// number is the header of the innermost loop reachable from it whose
// back-edge has not yet been retired by the time the DFS finishes,
// i.e. the last header still on the stack when the instruction was
// first visited.
func Number(fn *Function) {
	for i := range fn.Body {
		fn.Body[i].LocationNumber = i
		fn.Body[i].LoopNumber = -1
	}
	if len(fn.Body) == 0 {
		return
	}

	g := graph.New(graph.Directed)
	nodes := make([]graph.Node, len(fn.Body))
	for i := range fn.Body {
		nodes[i] = g.MakeNode()
		*nodes[i].Value = i
	}
	for i, instr := range fn.Body {
		for _, succ := range successors(fn, i, instr) {
			g.MakeEdge(nodes[i], nodes[succ])
		}
	}

	onStack := make([]bool, len(fn.Body))
	visited := make([]bool, len(fn.Body))
	var stack []int

	var visit func(i int)
	visit = func(i int) {
		visited[i] = true
		onStack[i] = true
		stack = append(stack, i)

		for _, succ := range successors(fn, i, fn.Body[i]) {
			if onStack[succ] {
				// Back-edge succ is the loop header; every instruction
				// still on the DFS stack from succ down to i (inclusive)
				// belongs to that loop, innermost header wins.
				for depth := len(stack) - 1; depth >= 0; depth-- {
					idx := stack[depth]
					if fn.Body[idx].LoopNumber == -1 {
						fn.Body[idx].LoopNumber = succ
					}
					if idx == succ {
						break
					}
				}
				continue
			}
			if !visited[succ] {
				visit(succ)
			}
		}

		stack = stack[:len(stack)-1]
		onStack[i] = false
	}

	for i := range fn.Body {
		if !visited[i] {
			visit(i)
		}
	}
}

// successors returns the indices instr may transfer control to.
func successors(fn *Function, i int, instr Instruction) []int {
	switch instr.Kind {
	case Goto:
		if instr.Guard == nil {
			return instr.Targets
		}
		// Conditional goto falls through when the guard is false.
		out := append([]int{}, instr.Targets...)
		if i+1 < len(fn.Body) {
			out = append(out, i+1)
		}
		return out
	case Return:
		return nil
	default:
		if i+1 < len(fn.Body) {
			return []int{i + 1}
		}
		return nil
	}
}
