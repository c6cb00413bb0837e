package evo

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"neurograph/internal/model"
	"neurograph/internal/scape"
)

type ScoredGenome struct {
	Genome  model.Genome
	Fitness float64
	Trace   scape.Trace
}

type RunResult struct {
	BestByGeneration []float64
	FinalPopulation  []ScoredGenome
	BestGenome       model.Genome
	BestFitness      float64
}

// GenomeFactory mints a fresh random genome; the monitor uses it to inject
// new blood every generation.
type GenomeFactory func(rng *rand.Rand, id string) (model.Genome, error)

// DefaultFreshFraction is the share of each generation replaced by brand new
// random genomes.
const DefaultFreshFraction = 0.10

type MonitorConfig struct {
	Scape          scape.Scape
	Mutation       Operator
	Crossover      Crossover
	Selector       Selector
	GenomeFactory  GenomeFactory
	PopulationSize int
	EliteCount     int
	FreshFraction  float64
	Generations    int
	Workers        int
	Seed           int64
}

type PopulationMonitor struct {
	cfg MonitorConfig
	rng *rand.Rand
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Scape == nil {
		return nil, fmt.Errorf("scape is required")
	}
	if cfg.Mutation == nil {
		return nil, fmt.Errorf("mutation operator is required")
	}
	if cfg.GenomeFactory == nil && cfg.FreshFraction > 0 {
		return nil, fmt.Errorf("genome factory is required when fresh fraction is > 0")
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.EliteCount <= 0 || cfg.EliteCount > cfg.PopulationSize {
		return nil, fmt.Errorf("elite count must be in [1, population size]")
	}
	if cfg.FreshFraction < 0 || cfg.FreshFraction >= 1 {
		return nil, fmt.Errorf("fresh fraction must be in [0, 1)")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Selector == nil {
		cfg.Selector = SoftmaxSelector{}
	}

	return &PopulationMonitor{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (m *PopulationMonitor) Run(ctx context.Context, initial []model.Genome) (RunResult, error) {
	if len(initial) != m.cfg.PopulationSize {
		return RunResult{}, fmt.Errorf("initial population mismatch: got=%d want=%d", len(initial), m.cfg.PopulationSize)
	}

	population := make([]model.Genome, len(initial))
	copy(population, initial)

	bestHistory := make([]float64, 0, m.cfg.Generations)
	var bestGenome model.Genome
	bestFitness := math.Inf(-1)
	var scored []ScoredGenome

	for gen := 0; gen < m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		var err error
		scored, err = m.evaluatePopulation(ctx, population)
		if err != nil {
			return RunResult{}, err
		}

		sort.Slice(scored, func(i, j int) bool {
			return scored[i].Fitness > scored[j].Fitness
		})
		bestHistory = append(bestHistory, scored[0].Fitness)
		if scored[0].Fitness > bestFitness {
			bestFitness = scored[0].Fitness
			bestGenome = scored[0].Genome.Clone(scored[0].Genome.ID)
		}

		population, err = m.nextGeneration(ctx, scored, gen)
		if err != nil {
			return RunResult{}, err
		}
	}

	return RunResult{
		BestByGeneration: bestHistory,
		FinalPopulation:  scored,
		BestGenome:       bestGenome,
		BestFitness:      bestFitness,
	}, nil
}

func (m *PopulationMonitor) evaluatePopulation(ctx context.Context, population []model.Genome) ([]ScoredGenome, error) {
	type job struct {
		idx    int
		genome model.Genome
	}
	type result struct {
		idx    int
		scored ScoredGenome
		err    error
	}

	jobs := make(chan job)
	results := make(chan result, len(population))

	workerCount := m.cfg.Workers
	if workerCount > len(population) {
		workerCount = len(population)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}

				fitness, trace, err := m.evaluateGenome(ctx, j.genome)
				if err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				results <- result{idx: j.idx, scored: ScoredGenome{Genome: j.genome, Fitness: fitness, Trace: trace}}
			}
		}()
	}

	for i := range population {
		jobs <- job{idx: i, genome: population[i]}
	}
	close(jobs)

	wg.Wait()
	close(results)

	scored := make([]ScoredGenome, len(population))
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		scored[res.idx] = res.scored
	}

	return scored, nil
}

func (m *PopulationMonitor) evaluateGenome(ctx context.Context, genome model.Genome) (float64, scape.Trace, error) {
	agent, err := newNetworkAgent(genome)
	if err != nil {
		return 0, nil, err
	}
	fitness, trace, err := m.cfg.Scape.Evaluate(ctx, agent)
	if err != nil {
		return 0, nil, err
	}
	return float64(fitness), trace, nil
}

func (m *PopulationMonitor) nextGeneration(ctx context.Context, ranked []ScoredGenome, generation int) ([]model.Genome, error) {
	next := make([]model.Genome, 0, m.cfg.PopulationSize)
	nextGeneration := generation + 1

	for i := 0; i < m.cfg.EliteCount; i++ {
		next = append(next, ranked[i].Genome.Clone(ranked[i].Genome.ID))
	}

	freshCount := int(math.Round(m.cfg.FreshFraction * float64(m.cfg.PopulationSize)))
	if freshCount > m.cfg.PopulationSize-len(next) {
		freshCount = m.cfg.PopulationSize - len(next)
	}

	for len(next) < m.cfg.PopulationSize-freshCount {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parent, err := m.cfg.Selector.PickParent(m.rng, ranked, m.cfg.EliteCount)
		if err != nil {
			return nil, err
		}
		childID := fmt.Sprintf("%s-g%d-i%d", parent.ID, nextGeneration, len(next))

		var child model.Genome
		if m.cfg.Crossover != nil {
			mate, err := m.cfg.Selector.PickParent(m.rng, ranked, m.cfg.EliteCount)
			if err != nil {
				return nil, err
			}
			child, err = m.cfg.Crossover.Combine(ctx, parent, mate, childID)
			if err != nil {
				return nil, err
			}
		} else {
			child = parent.Clone(childID)
		}

		mutated, err := m.cfg.Mutation.Apply(ctx, child)
		if err != nil {
			return nil, err
		}
		next = append(next, mutated)
	}

	for len(next) < m.cfg.PopulationSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fresh, err := m.cfg.GenomeFactory(m.rng, fmt.Sprintf("fresh-g%d-i%d", nextGeneration, len(next)))
		if err != nil {
			return nil, err
		}
		next = append(next, fresh)
	}

	return next, nil
}
