package evo

import (
	"fmt"
	"math"
	"math/rand"

	"neurograph/internal/model"
)

// Selector chooses parents from ranked genomes for replication.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []ScoredGenome, eliteCount int) (model.Genome, error)
}

// EliteSelector picks uniformly from the top elite set.
type EliteSelector struct{}

func (EliteSelector) Name() string {
	return "elite"
}

func (EliteSelector) PickParent(rng *rand.Rand, ranked []ScoredGenome, eliteCount int) (model.Genome, error) {
	if rng == nil {
		return model.Genome{}, fmt.Errorf("random source is required")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return model.Genome{}, fmt.Errorf("invalid elite count: %d", eliteCount)
	}
	return ranked[rng.Intn(eliteCount)].Genome, nil
}

// TournamentSelector samples candidates and picks the best fitness among them.
type TournamentSelector struct {
	PoolSize       int
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredGenome, eliteCount int) (model.Genome, error) {
	if rng == nil {
		return model.Genome{}, fmt.Errorf("random source is required")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return model.Genome{}, fmt.Errorf("invalid elite count: %d", eliteCount)
	}

	poolSize := s.PoolSize
	if poolSize <= 0 {
		poolSize = eliteCount * 2
	}
	if poolSize < eliteCount {
		poolSize = eliteCount
	}
	if poolSize > len(ranked) {
		poolSize = len(ranked)
	}

	tournamentSize := s.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}
	if tournamentSize > poolSize {
		tournamentSize = poolSize
	}

	best := ranked[rng.Intn(poolSize)]
	for i := 1; i < tournamentSize; i++ {
		candidate := ranked[rng.Intn(poolSize)]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best.Genome, nil
}

// SoftmaxSelector draws parents with probability proportional to the softmax
// of range-normalized fitness, so every genome keeps a nonzero chance while
// strong scorers dominate.
type SoftmaxSelector struct{}

func (SoftmaxSelector) Name() string {
	return "softmax"
}

func (SoftmaxSelector) PickParent(rng *rand.Rand, ranked []ScoredGenome, eliteCount int) (model.Genome, error) {
	if rng == nil {
		return model.Genome{}, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return model.Genome{}, fmt.Errorf("ranked population is empty")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return model.Genome{}, fmt.Errorf("invalid elite count: %d", eliteCount)
	}

	probabilities := softmaxProbabilities(ranked)
	pick := rng.Float64()
	acc := 0.0
	for i, p := range probabilities {
		acc += p
		if pick <= acc {
			return ranked[i].Genome, nil
		}
	}
	return ranked[len(ranked)-1].Genome, nil
}

func softmaxProbabilities(ranked []ScoredGenome) []float64 {
	mean := 0.0
	lowest := ranked[0].Fitness
	highest := ranked[0].Fitness
	for _, item := range ranked {
		mean += item.Fitness
		if item.Fitness < lowest {
			lowest = item.Fitness
		}
		if item.Fitness > highest {
			highest = item.Fitness
		}
	}
	mean /= float64(len(ranked))
	span := highest - lowest

	total := 0.0
	weights := make([]float64, len(ranked))
	for i, item := range ranked {
		score := 0.0
		if span > 0 {
			score = (item.Fitness - mean) / span
		}
		weights[i] = math.Exp(score)
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}
