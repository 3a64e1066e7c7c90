package z3_test

import (
	"testing"

	"github.com/boundedmc/bmc/internal/smt"
	"github.com/boundedmc/bmc/internal/smt/z3"
)

func mustCloseSolver(t *testing.T, s *z3.Solver) {
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
	})
}

func TestSolver_CheckSat(t *testing.T) {
	t.Run("ConstantTrue", func(t *testing.T) {
		s := z3.NewSolver()
		mustCloseSolver(t, s)

		v, err := s.MkBVInt(1, false, 1)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.AssertAST(v); err != nil {
			t.Fatal(err)
		}
		if result, err := s.CheckSat(); err != nil {
			t.Fatal(err)
		} else if result != smt.Sat {
			t.Fatalf("expected sat, got %s", result)
		}
	})

	t.Run("ConstantFalse", func(t *testing.T) {
		s := z3.NewSolver()
		mustCloseSolver(t, s)

		v, err := s.MkBVInt(0, false, 1)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.AssertAST(v); err != nil {
			t.Fatal(err)
		}
		if result, err := s.CheckSat(); err != nil {
			t.Fatal(err)
		} else if result != smt.Unsat {
			t.Fatalf("expected unsat, got %s", result)
		}
	})

	t.Run("Arithmetic", func(t *testing.T) {
		s := z3.NewSolver()
		mustCloseSolver(t, s)

		x, err := s.MkSymbol("x", smt.BVSort(16))
		if err != nil {
			t.Fatal(err)
		}
		c200, err := s.MkBVInt(200, false, 16)
		if err != nil {
			t.Fatal(err)
		}
		sum, err := s.MkFuncApp(smt.BVADD, x, c200)
		if err != nil {
			t.Fatal(err)
		}
		c1200, err := s.MkBVInt(1200, false, 16)
		if err != nil {
			t.Fatal(err)
		}
		eq, err := s.MkFuncApp(smt.EQ, sum, c1200)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.AssertAST(eq); err != nil {
			t.Fatal(err)
		}
		if result, err := s.CheckSat(); err != nil {
			t.Fatal(err)
		} else if result != smt.Sat {
			t.Fatalf("expected sat, got %s", result)
		}
		got, err := s.GetBV(x)
		if err != nil {
			t.Fatal(err)
		}
		if got != 1000 {
			t.Fatalf("expected x=1000, got %d", got)
		}
	})

	t.Run("PushPopIsLIFO", func(t *testing.T) {
		s := z3.NewSolver()
		mustCloseSolver(t, s)

		x, err := s.MkSymbol("x", smt.BVSort(8))
		if err != nil {
			t.Fatal(err)
		}
		c10, err := s.MkBVInt(10, false, 8)
		if err != nil {
			t.Fatal(err)
		}
		eqTen, err := s.MkFuncApp(smt.EQ, x, c10)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.AssertAST(eqTen); err != nil {
			t.Fatal(err)
		}

		if err := s.PushCtx(); err != nil {
			t.Fatal(err)
		}
		c11, err := s.MkBVInt(11, false, 8)
		if err != nil {
			t.Fatal(err)
		}
		eqEleven, err := s.MkFuncApp(smt.EQ, x, c11)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.AssertAST(eqEleven); err != nil {
			t.Fatal(err)
		}
		// x == 10 /\ x == 11 is unsatisfiable.
		if result, err := s.CheckSat(); err != nil {
			t.Fatal(err)
		} else if result != smt.Unsat {
			t.Fatalf("expected unsat, got %s", result)
		}

		if err := s.PopCtx(); err != nil {
			t.Fatal(err)
		}
		// Popping the x==11 assertion should leave x==10 satisfiable again;
		// eqTen was built before the push and remains usable after the pop.
		if result, err := s.CheckSat(); err != nil {
			t.Fatal(err)
		} else if result != smt.Sat {
			t.Fatalf("expected sat after pop, got %s", result)
		}
	})

	t.Run("Extract", func(t *testing.T) {
		s := z3.NewSolver()
		mustCloseSolver(t, s)

		src, err := s.MkBVInt(0xAABB, false, 16)
		if err != nil {
			t.Fatal(err)
		}
		hi, err := s.MkExtract(src, 8, 8)
		if err != nil {
			t.Fatal(err)
		}
		want, err := s.MkBVInt(0xAA, false, 8)
		if err != nil {
			t.Fatal(err)
		}
		eq, err := s.MkFuncApp(smt.EQ, hi, want)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.AssertAST(eq); err != nil {
			t.Fatal(err)
		}
		if result, err := s.CheckSat(); err != nil {
			t.Fatal(err)
		} else if result != smt.Sat {
			t.Fatalf("expected sat, got %s", result)
		}
	})

	t.Run("Array", func(t *testing.T) {
		s := z3.NewSolver()
		mustCloseSolver(t, s)

		arr, err := s.MkSymbol("a", smt.ArraySort(smt.BVSort(64), smt.BVSort(8)))
		if err != nil {
			t.Fatal(err)
		}
		idx, err := s.MkBVInt(0, false, 64)
		if err != nil {
			t.Fatal(err)
		}
		val, err := s.MkBVInt(10, false, 8)
		if err != nil {
			t.Fatal(err)
		}
		updated, err := s.MkFuncApp(smt.STORE, arr, idx, val)
		if err != nil {
			t.Fatal(err)
		}
		selected, err := s.MkFuncApp(smt.SELECT, updated, idx)
		if err != nil {
			t.Fatal(err)
		}
		eq, err := s.MkFuncApp(smt.EQ, selected, val)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.AssertAST(eq); err != nil {
			t.Fatal(err)
		}
		if result, err := s.CheckSat(); err != nil {
			t.Fatal(err)
		} else if result != smt.Sat {
			t.Fatalf("expected sat, got %s", result)
		}
	})
}
