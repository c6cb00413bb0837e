package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"neurograph/internal/model"
)

var ErrNoParameters = errors.New("genome has no parameters")

// Defaults for masked perturbation. Weight entries vastly outnumber bias
// entries, so the weight mask is much sparser.
const (
	DefaultWeightMutationProb = 1e-4
	DefaultBiasMutationProb   = 1e-2
	DefaultMaxMagnitude       = 0.5
)

// MaskedPerturbation draws an independent mask over every weight and bias
// entry and shifts masked entries by a uniform delta in [-MaxMagnitude,
// +MaxMagnitude]. Zero-valued fields fall back to the defaults above.
type MaskedPerturbation struct {
	Rand         *rand.Rand
	WeightProb   float64
	BiasProb     float64
	MaxMagnitude float64
}

func (op *MaskedPerturbation) Name() string {
	return "masked_perturbation"
}

func (op *MaskedPerturbation) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if op.Rand == nil {
		return model.Genome{}, fmt.Errorf("random source is required")
	}
	weightProb := op.WeightProb
	if weightProb == 0 {
		weightProb = DefaultWeightMutationProb
	}
	biasProb := op.BiasProb
	if biasProb == 0 {
		biasProb = DefaultBiasMutationProb
	}
	magnitude := op.MaxMagnitude
	if magnitude == 0 {
		magnitude = DefaultMaxMagnitude
	}
	if weightProb < 0 || weightProb > 1 {
		return model.Genome{}, fmt.Errorf("weight mutation probability must be in [0, 1], got %v", weightProb)
	}
	if biasProb < 0 || biasProb > 1 {
		return model.Genome{}, fmt.Errorf("bias mutation probability must be in [0, 1], got %v", biasProb)
	}
	if magnitude < 0 {
		return model.Genome{}, fmt.Errorf("max magnitude must be >= 0, got %v", magnitude)
	}
	if genome.ParameterCount() == 0 {
		return model.Genome{}, ErrNoParameters
	}

	mutated := genome.Clone(genome.ID)
	for l := range mutated.Layers {
		weights := mutated.Layers[l].Weights
		for i := range weights {
			if op.Rand.Float64() < weightProb {
				weights[i] += (op.Rand.Float64() - 0.5) * 2 * magnitude
			}
		}
		if !mutated.UseBias {
			continue
		}
		bias := mutated.Layers[l].Bias
		for i := range bias {
			if op.Rand.Float64() < biasProb {
				bias[i] += (op.Rand.Float64() - 0.5) * 2 * magnitude
			}
		}
	}
	return mutated, nil
}

// PerturbRandomWeight nudges a single uniformly chosen weight entry by a
// delta in [-MaxDelta, +MaxDelta].
type PerturbRandomWeight struct {
	Rand     *rand.Rand
	MaxDelta float64
}

func (op *PerturbRandomWeight) Name() string {
	return "perturb_random_weight"
}

func (op *PerturbRandomWeight) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if op.Rand == nil {
		return model.Genome{}, fmt.Errorf("random source is required")
	}
	if op.MaxDelta <= 0 {
		return model.Genome{}, fmt.Errorf("max delta must be > 0, got %v", op.MaxDelta)
	}
	total := genome.ParameterCount()
	if total == 0 {
		return model.Genome{}, ErrNoParameters
	}

	mutated := genome.Clone(genome.ID)
	target := op.Rand.Intn(total)
	for l := range mutated.Layers {
		weights := mutated.Layers[l].Weights
		if target < len(weights) {
			weights[target] += (op.Rand.Float64()*2 - 1) * op.MaxDelta
			return mutated, nil
		}
		target -= len(weights)
	}
	return model.Genome{}, fmt.Errorf("weight index out of range")
}
