package graph

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStepComputesTransposedMatvec(t *testing.T) {
	adjacency := mat.NewDense(2, 2, []float64{
		0, 2,
		0, 0,
	})
	state := mat.NewVecDense(2, []float64{3, 0})
	next := mat.NewVecDense(2, nil)

	Step(adjacency, state, next)

	if got := next.AtVec(0); got != 0 {
		t.Fatalf("next[0] = %v, want 0", got)
	}
	if got := next.AtVec(1); got != 6 {
		t.Fatalf("next[1] = %v, want 6", got)
	}
}

func TestPropagateZeroStepsReturnsInput(t *testing.T) {
	adjacency := mat.NewDense(2, 2, []float64{0, 1, 0, 0})
	state := mat.NewVecDense(2, []float64{7, 8})

	out := Propagate(adjacency, state, 0)

	if out.AtVec(0) != 7 || out.AtVec(1) != 8 {
		t.Fatalf("zero steps changed state: got (%v, %v)", out.AtVec(0), out.AtVec(1))
	}
}

func TestPropagateChainsSteps(t *testing.T) {
	// 1 -> 2 -> 3 line graph with unit weights: value travels one hop per step.
	adjacency := mat.NewDense(3, 3, []float64{
		0, 1, 0,
		0, 0, 1,
		0, 0, 0,
	})
	state := mat.NewVecDense(3, []float64{5, 0, 0})

	out := Propagate(adjacency, state, 2)

	if got := out.AtVec(2); got != 5 {
		t.Fatalf("value did not reach the tail: got %v, want 5", got)
	}
	if out.AtVec(0) != 0 || out.AtVec(1) != 0 {
		t.Fatalf("upstream entries should have drained: got (%v, %v)", out.AtVec(0), out.AtVec(1))
	}
}
