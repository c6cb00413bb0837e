package graph

import "gonum.org/v1/gonum/mat"

// buildAdjacency assembles the layered weight matrices into a single N x N
// adjacency matrix over every neuron in the network. Layer k's weights occupy
// the block whose rows cover layer k's neurons and whose columns cover layer
// k+1's neurons; the row offset advances by the size of each layer placed.
// Output neurons get a unit self-loop so their values survive further steps.
func buildAdjacency(sizes []int, weights []*mat.Dense, outputDim int) *mat.Dense {
	n := totalNeurons(sizes)
	adjacency := mat.NewDense(n, n, nil)

	offset := 0
	for k, w := range weights {
		prev := sizes[k]
		units := sizes[k+1]
		block := adjacency.Slice(offset, offset+prev, offset+prev, offset+prev+units).(*mat.Dense)
		block.Copy(w)
		offset += prev
	}

	for i := 0; i < outputDim; i++ {
		adjacency.Set(n-1-i, n-1-i, 1)
	}
	return adjacency
}

func totalNeurons(sizes []int) int {
	total := 0
	for _, size := range sizes {
		total += size
	}
	return total
}
