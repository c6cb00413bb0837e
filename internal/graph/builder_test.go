package graph

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestBuildAdjacencyBlockPlacement(t *testing.T) {
	sizes := []int{2, 2, 1}
	w1 := mat.NewDense(2, 2, []float64{
		1, 2,
		3, 4,
	})
	w2 := mat.NewDense(2, 1, []float64{5, 6})

	adjacency := buildAdjacency(sizes, []*mat.Dense{w1, w2}, 1)

	rows, cols := adjacency.Dims()
	if rows != 5 || cols != 5 {
		t.Fatalf("adjacency dims = %dx%d, want 5x5", rows, cols)
	}

	// First transition occupies rows [0,2), cols [2,4).
	wantW1 := [][2]int{{0, 2}, {0, 3}, {1, 2}, {1, 3}}
	wantVals := []float64{1, 2, 3, 4}
	for i, pos := range wantW1 {
		if got := adjacency.At(pos[0], pos[1]); got != wantVals[i] {
			t.Fatalf("adjacency[%d,%d] = %v, want %v", pos[0], pos[1], got, wantVals[i])
		}
	}

	// Second transition occupies rows [2,4), cols [4,5).
	if got := adjacency.At(2, 4); got != 5 {
		t.Fatalf("adjacency[2,4] = %v, want 5", got)
	}
	if got := adjacency.At(3, 4); got != 6 {
		t.Fatalf("adjacency[3,4] = %v, want 6", got)
	}

	if got := adjacency.At(4, 4); got != 1 {
		t.Fatalf("output self-loop = %v, want 1", got)
	}
}

func TestBuildAdjacencySelfLoopsPerOutput(t *testing.T) {
	sizes := []int{1, 3}
	w := mat.NewDense(1, 3, []float64{1, 1, 1})

	adjacency := buildAdjacency(sizes, []*mat.Dense{w}, 3)

	for i := 0; i < 3; i++ {
		idx := 4 - 1 - i
		if got := adjacency.At(idx, idx); got != 1 {
			t.Fatalf("self-loop at %d = %v, want 1", idx, got)
		}
	}
	if got := adjacency.At(0, 0); got != 0 {
		t.Fatalf("input neuron must not self-loop, got %v", got)
	}
}

func TestBuildAdjacencyLeavesOtherEntriesZero(t *testing.T) {
	sizes := []int{2, 2, 2}
	w1 := mat.NewDense(2, 2, []float64{1, 1, 1, 1})
	w2 := mat.NewDense(2, 2, []float64{1, 1, 1, 1})

	adjacency := buildAdjacency(sizes, []*mat.Dense{w1, w2}, 2)

	nonzero := 0
	rows, cols := adjacency.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if adjacency.At(i, j) != 0 {
				nonzero++
			}
		}
	}
	// Two 2x2 blocks plus two self-loops.
	if nonzero != 10 {
		t.Fatalf("nonzero entries = %d, want 10", nonzero)
	}
}
