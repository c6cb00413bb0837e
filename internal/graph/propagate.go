package graph

import "gonum.org/v1/gonum/mat"

// Step advances the latent state by one propagation step, writing the
// transposed matrix-vector product into next. state and next must not alias.
func Step(adjacency *mat.Dense, state, next *mat.VecDense) {
	next.MulVec(adjacency.T(), state)
}

// Propagate applies Step the given number of times, ping-ponging between the
// input vector and a scratch buffer. The input vector may be overwritten; the
// returned vector holds the final state.
func Propagate(adjacency *mat.Dense, state *mat.VecDense, steps int) *mat.VecDense {
	current := state
	scratch := mat.NewVecDense(state.Len(), nil)
	for i := 0; i < steps; i++ {
		Step(adjacency, current, scratch)
		current, scratch = scratch, current
	}
	return current
}
