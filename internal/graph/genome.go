package graph

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"neurograph/internal/model"
)

// ToGenome snapshots the network's parameters into a persistable genome.
func (n *Network) ToGenome(id string) model.Genome {
	layers := make([]model.LayerParams, len(n.weights))
	for k, w := range n.weights {
		rows, cols := w.Dims()
		weights := make([]float64, 0, rows*cols)
		for i := 0; i < rows; i++ {
			weights = append(weights, w.RawRowView(i)...)
		}
		bias := make([]float64, cols)
		for j := 0; j < cols; j++ {
			bias[j] = n.biases[k].AtVec(j)
		}
		layers[k] = model.LayerParams{Rows: rows, Cols: cols, Weights: weights, Bias: bias}
	}
	return model.Genome{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
		ID:              id,
		InputNeurons:    n.cfg.InputDim,
		HiddenUnits:     n.HiddenUnits(),
		OutputNeurons:   n.cfg.OutputDim,
		ExtraNeurons:    n.ExtraNeurons(),
		RetainState:     n.cfg.RetainState,
		UseBias:         n.cfg.UseBias,
		Layers:          layers,
	}
}

// FromGenome reconstructs a runtime network from a persisted genome,
// validating the layer shapes against the recorded dimensions.
func FromGenome(genome model.Genome) (*Network, error) {
	cfg := Config{
		InputDim:    genome.InputNeurons,
		HiddenUnits: append([]int(nil), genome.HiddenUnits...),
		OutputDim:   genome.OutputNeurons,
		UseBias:     genome.UseBias,
		RetainState: genome.RetainState,
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("genome %s: %w", genome.ID, err)
	}

	sizes := cfg.layerSizes()
	if len(genome.Layers) != len(sizes)-1 {
		return nil, fmt.Errorf("genome %s: %w: has %d layers, dimensions imply %d",
			genome.ID, ErrShapeMismatch, len(genome.Layers), len(sizes)-1)
	}

	n := &Network{
		cfg:   cfg,
		sizes: sizes,
		total: totalNeurons(sizes),
	}
	for k, layer := range genome.Layers {
		prev := sizes[k]
		units := sizes[k+1]
		if layer.Rows != prev || layer.Cols != units {
			return nil, fmt.Errorf("genome %s: %w: layer %d is %dx%d, want %dx%d",
				genome.ID, ErrShapeMismatch, k, layer.Rows, layer.Cols, prev, units)
		}
		if len(layer.Weights) != prev*units {
			return nil, fmt.Errorf("genome %s: %w: layer %d has %d weights, want %d",
				genome.ID, ErrShapeMismatch, k, len(layer.Weights), prev*units)
		}
		w := mat.NewDense(prev, units, append([]float64(nil), layer.Weights...))

		b := mat.NewVecDense(units, nil)
		if len(layer.Bias) > 0 {
			if len(layer.Bias) != units {
				return nil, fmt.Errorf("genome %s: %w: layer %d has %d bias entries, want %d",
					genome.ID, ErrShapeMismatch, k, len(layer.Bias), units)
			}
			for j, v := range layer.Bias {
				b.SetVec(j, v)
			}
		}
		n.weights = append(n.weights, w)
		n.biases = append(n.biases, b)
	}
	n.adjacency = buildAdjacency(sizes, n.weights, cfg.OutputDim)
	if cfg.RetainState {
		n.state = mat.NewVecDense(n.total, nil)
	}
	return n, nil
}
