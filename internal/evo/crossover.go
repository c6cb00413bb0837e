package evo

import (
	"context"
	"fmt"
	"math/rand"

	"neurograph/internal/model"
)

// Crossover combines two parent genomes into a child.
type Crossover interface {
	Name() string
	Combine(ctx context.Context, first, second model.Genome, childID string) (model.Genome, error)
}

// SplitPointCrossover flattens all weight entries across layers, draws one
// split index, and takes the prefix from the first parent and the suffix from
// the second. Bias entries get their own split. Parents must share shapes.
type SplitPointCrossover struct {
	Rand *rand.Rand
}

func (SplitPointCrossover) Name() string {
	return "split_point_crossover"
}

func (op SplitPointCrossover) Combine(_ context.Context, first, second model.Genome, childID string) (model.Genome, error) {
	if op.Rand == nil {
		return model.Genome{}, fmt.Errorf("random source is required")
	}
	if err := sameShape(first, second); err != nil {
		return model.Genome{}, err
	}

	child := first.Clone(childID)

	totalWeights := first.ParameterCount()
	if totalWeights == 0 {
		return model.Genome{}, ErrNoParameters
	}
	weightSplit := op.Rand.Intn(totalWeights + 1)

	totalBias := 0
	for _, layer := range first.Layers {
		totalBias += len(layer.Bias)
	}
	biasSplit := 0
	if totalBias > 0 {
		biasSplit = op.Rand.Intn(totalBias + 1)
	}

	weightIdx := 0
	biasIdx := 0
	for l := range child.Layers {
		for i := range child.Layers[l].Weights {
			if weightIdx >= weightSplit {
				child.Layers[l].Weights[i] = second.Layers[l].Weights[i]
			}
			weightIdx++
		}
		for i := range child.Layers[l].Bias {
			if biasIdx >= biasSplit {
				child.Layers[l].Bias[i] = second.Layers[l].Bias[i]
			}
			biasIdx++
		}
	}
	return child, nil
}

func sameShape(first, second model.Genome) error {
	if first.InputNeurons != second.InputNeurons ||
		first.OutputNeurons != second.OutputNeurons ||
		len(first.HiddenUnits) != len(second.HiddenUnits) ||
		len(first.Layers) != len(second.Layers) {
		return fmt.Errorf("parents %s and %s have incompatible shapes", first.ID, second.ID)
	}
	for i := range first.HiddenUnits {
		if first.HiddenUnits[i] != second.HiddenUnits[i] {
			return fmt.Errorf("parents %s and %s have incompatible shapes", first.ID, second.ID)
		}
	}
	for l := range first.Layers {
		if first.Layers[l].Rows != second.Layers[l].Rows ||
			first.Layers[l].Cols != second.Layers[l].Cols ||
			len(first.Layers[l].Bias) != len(second.Layers[l].Bias) {
			return fmt.Errorf("parents %s and %s have incompatible shapes", first.ID, second.ID)
		}
	}
	return nil
}
