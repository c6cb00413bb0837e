package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"neurograph/internal/evo"
	"neurograph/internal/model"
	"neurograph/internal/scape"
	"neurograph/internal/scapeid"
	"neurograph/internal/storage"
)

type Config struct {
	Store storage.Store
}

// DefaultTopGenomeLimit bounds how many ranked genomes a run checkpoints.
const DefaultTopGenomeLimit = 5

type EvolutionConfig struct {
	RunID          string
	ScapeName      string
	PopulationSize int
	Generations    int
	EliteCount     int
	FreshFraction  float64
	Workers        int
	Seed           int64
	Mutation       evo.Operator
	Crossover      evo.Crossover
	Selector       evo.Selector
	GenomeFactory  evo.GenomeFactory
	Initial        []model.Genome
	TopGenomeLimit int
}

type EvolutionResult struct {
	RunID            string
	BestByGeneration []float64
	BestFinalFitness float64
	BestGenome       model.Genome
	TopFinal         []evo.ScoredGenome
}

// Polis hosts scapes and runs evolution against the configured store.
type Polis struct {
	store storage.Store

	mu      sync.RWMutex
	scapes  map[string]scape.Scape
	started bool
}

func NewPolis(cfg Config) *Polis {
	return &Polis{
		store:  cfg.Store,
		scapes: make(map[string]scape.Scape),
	}
}

func (p *Polis) Init(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return err
	}
	p.started = true
	return nil
}

func (p *Polis) Reset(ctx context.Context) error {
	p.mu.Lock()
	p.started = false
	p.scapes = make(map[string]scape.Scape)
	p.mu.Unlock()

	if resetter, ok := p.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	return p.Init(ctx)
}

func (p *Polis) RegisterScape(s scape.Scape) error {
	if s == nil {
		return fmt.Errorf("scape is nil")
	}
	name := scapeid.Normalize(s.Name())
	if name == "" {
		return fmt.Errorf("scape name is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return fmt.Errorf("polis is not initialized")
	}
	p.scapes[name] = s
	return nil
}

func (p *Polis) GetScape(name string) (scape.Scape, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.scapes[scapeid.Normalize(name)]
	return s, ok
}

func (p *Polis) RegisteredScapes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.scapes))
	for name := range p.scapes {
		names = append(names, name)
	}
	return names
}

func (p *Polis) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

func (p *Polis) RunEvolution(ctx context.Context, cfg EvolutionConfig) (EvolutionResult, error) {
	if len(cfg.Initial) != cfg.PopulationSize {
		return EvolutionResult{}, fmt.Errorf("initial population mismatch: got=%d want=%d", len(cfg.Initial), cfg.PopulationSize)
	}
	if cfg.Mutation == nil {
		return EvolutionResult{}, fmt.Errorf("mutation operator is required")
	}
	if cfg.ScapeName == "" {
		return EvolutionResult{}, fmt.Errorf("scape name is required")
	}
	if cfg.EliteCount <= 0 {
		cfg.EliteCount = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.TopGenomeLimit <= 0 {
		cfg.TopGenomeLimit = DefaultTopGenomeLimit
	}
	if cfg.FreshFraction == 0 && cfg.GenomeFactory != nil {
		cfg.FreshFraction = evo.DefaultFreshFraction
	}
	if cfg.GenomeFactory == nil {
		cfg.FreshFraction = 0
	}

	scapeName := scapeid.Normalize(cfg.ScapeName)
	p.mu.RLock()
	targetScape, ok := p.scapes[scapeName]
	started := p.started
	p.mu.RUnlock()

	if !started {
		return EvolutionResult{}, fmt.Errorf("polis is not initialized")
	}
	if !ok {
		return EvolutionResult{}, fmt.Errorf("scape not registered: %s", cfg.ScapeName)
	}

	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		Scape:          targetScape,
		Mutation:       cfg.Mutation,
		Crossover:      cfg.Crossover,
		Selector:       cfg.Selector,
		GenomeFactory:  cfg.GenomeFactory,
		PopulationSize: cfg.PopulationSize,
		EliteCount:     cfg.EliteCount,
		FreshFraction:  cfg.FreshFraction,
		Generations:    cfg.Generations,
		Workers:        cfg.Workers,
		Seed:           cfg.Seed,
	})
	if err != nil {
		return EvolutionResult{}, err
	}

	result, err := monitor.Run(ctx, cfg.Initial)
	if err != nil {
		return EvolutionResult{}, err
	}

	if err := p.persistRun(ctx, runID, scapeName, cfg, result); err != nil {
		return EvolutionResult{}, err
	}

	topCount := cfg.TopGenomeLimit
	if topCount > len(result.FinalPopulation) {
		topCount = len(result.FinalPopulation)
	}
	return EvolutionResult{
		RunID:            runID,
		BestByGeneration: result.BestByGeneration,
		BestFinalFitness: result.BestFitness,
		BestGenome:       result.BestGenome,
		TopFinal:         result.FinalPopulation[:topCount],
	}, nil
}

func (p *Polis) persistRun(ctx context.Context, runID, scapeName string, cfg EvolutionConfig, result evo.RunResult) error {
	versions := model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}

	run := model.RunRecord{
		VersionedRecord:  versions,
		ID:               runID,
		Scape:            scapeName,
		Seed:             cfg.Seed,
		PopulationSize:   cfg.PopulationSize,
		Generations:      cfg.Generations,
		FinalBestFitness: result.BestFitness,
		CreatedAtUTC:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := p.store.SaveRun(ctx, run); err != nil {
		return err
	}
	if err := p.store.SaveFitnessHistory(ctx, runID, result.BestByGeneration); err != nil {
		return err
	}

	best := result.BestGenome
	best.VersionedRecord = versions
	if err := p.store.SaveGenome(ctx, best); err != nil {
		return err
	}

	topCount := cfg.TopGenomeLimit
	if topCount > len(result.FinalPopulation) {
		topCount = len(result.FinalPopulation)
	}
	top := make([]model.TopGenomeRecord, 0, topCount)
	genomeIDs := make([]string, 0, len(result.FinalPopulation))
	for i, scored := range result.FinalPopulation {
		genomeIDs = append(genomeIDs, scored.Genome.ID)
		if i >= topCount {
			continue
		}
		genome := scored.Genome
		genome.VersionedRecord = versions
		top = append(top, model.TopGenomeRecord{
			VersionedRecord: versions,
			Rank:            i + 1,
			Fitness:         scored.Fitness,
			Genome:          genome,
		})
	}
	if err := p.store.SaveTopGenomes(ctx, runID, top); err != nil {
		return err
	}

	population := model.Population{
		VersionedRecord: versions,
		ID:              runID,
		GenomeIDs:       genomeIDs,
		Generation:      cfg.Generations,
	}
	if err := p.store.SavePopulation(ctx, population); err != nil {
		return err
	}

	return p.updateScapeSummary(ctx, scapeName, result.BestFitness)
}

func (p *Polis) updateScapeSummary(ctx context.Context, scapeName string, fitness float64) error {
	summary, ok, err := p.store.GetScapeSummary(ctx, scapeName)
	if err != nil {
		return err
	}
	if !ok {
		summary = model.ScapeSummary{
			VersionedRecord: model.VersionedRecord{
				SchemaVersion: storage.CurrentSchemaVersion,
				CodecVersion:  storage.CurrentCodecVersion,
			},
			Name:        scapeName,
			Description: fmt.Sprintf("best observed fitness for scape %s", scapeName),
		}
	}
	if fitness > summary.BestFitness {
		summary.BestFitness = fitness
	}
	return p.store.SaveScapeSummary(ctx, summary)
}
