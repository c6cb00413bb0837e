// Package neurograph is the programmatic facade over the evolution platform:
// it owns store construction, scape registration and request defaulting so
// both the CLI and embedding callers share one entry point.
package neurograph

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"neurograph/internal/evo"
	"neurograph/internal/graph"
	"neurograph/internal/model"
	"neurograph/internal/platform"
	"neurograph/internal/scape"
	"neurograph/internal/scapeid"
	"neurograph/internal/storage"
)

const defaultDBPath = "neurograph.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
	polis *platform.Polis
}

type RunRequest struct {
	Scape          string
	Population     int
	Generations    int
	Seed           int64
	Workers        int
	Selection      string
	HiddenUnits    []int
	UseBias        bool
	RetainState    bool
	FreshFraction  float64
	Crossover      bool
	WeightMutProb  float64
	BiasMutProb    float64
	MutMagnitude   float64
	TopGenomeLimit int
}

type RunSummary struct {
	RunID            string
	Scape            string
	BestByGeneration []float64
	FinalBestFitness float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Scape            string
	Seed             int64
	Population       int
	Generations      int
	FinalBestFitness float64
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type TopGenomesRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
}

type ExportSummary struct {
	RunID      string
	GenomeID   string
	Fitness    float64
	GenomeJSON []byte
}

type BenchRequest struct {
	InputDim    int
	HiddenUnits []int
	OutputDim   int
	Iterations  int
	Seed        int64
}

type BenchReport struct {
	InputDim      int
	HiddenUnits   []int
	OutputDim     int
	TotalNeurons  int
	Iterations    int
	NormalPerOp   time.Duration
	GraphPerOp    time.Duration
	MaxDivergence float64
}

type ScapeSummaryItem struct {
	Name        string
	Description string
	BestFitness float64
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensurePolis(ctx)
	return err
}

func (c *Client) Reset(ctx context.Context) error {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return err
	}
	return p.Reset(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Scape == "" {
		req.Scape = "xor"
	}
	if req.Population <= 0 {
		req.Population = 50
	}
	if req.Generations <= 0 {
		req.Generations = 100
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.Selection == "" {
		req.Selection = "softmax"
	}
	if req.FreshFraction < 0 || req.FreshFraction >= 1 {
		return RunSummary{}, errors.New("fresh fraction must be in [0, 1)")
	}
	if req.FreshFraction == 0 {
		req.FreshFraction = evo.DefaultFreshFraction
	}

	selector, err := selectionFromName(req.Selection)
	if err != nil {
		return RunSummary{}, err
	}

	scapeName := scapeid.Normalize(req.Scape)
	inputDim, outputDim, defaultHidden, err := scapeDimensions(scapeName)
	if err != nil {
		return RunSummary{}, err
	}
	hidden := req.HiddenUnits
	if len(hidden) == 0 {
		hidden = defaultHidden
	}

	p, err := c.ensurePolis(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	if err := registerDefaultScapes(p); err != nil {
		return RunSummary{}, err
	}

	factory := genomeFactory(graph.Config{
		InputDim:    inputDim,
		HiddenUnits: hidden,
		OutputDim:   outputDim,
		UseBias:     req.UseBias,
		RetainState: req.RetainState,
	})

	seedRng := rand.New(rand.NewSource(req.Seed))
	initial := make([]model.Genome, 0, req.Population)
	for i := 0; i < req.Population; i++ {
		genome, err := factory(seedRng, fmt.Sprintf("seed-%d", i))
		if err != nil {
			return RunSummary{}, err
		}
		initial = append(initial, genome)
	}

	eliteCount := req.Population / 5
	if eliteCount < 1 {
		eliteCount = 1
	}

	mutation := &evo.MaskedPerturbation{
		Rand:         rand.New(rand.NewSource(req.Seed + 1000)),
		WeightProb:   req.WeightMutProb,
		BiasProb:     req.BiasMutProb,
		MaxMagnitude: req.MutMagnitude,
	}
	var crossover evo.Crossover
	if req.Crossover {
		crossover = &evo.SplitPointCrossover{Rand: rand.New(rand.NewSource(req.Seed + 2000))}
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%d-%d", scapeName, req.Seed, now.Unix())

	result, err := p.RunEvolution(ctx, platform.EvolutionConfig{
		RunID:          runID,
		ScapeName:      scapeName,
		PopulationSize: req.Population,
		Generations:    req.Generations,
		EliteCount:     eliteCount,
		FreshFraction:  req.FreshFraction,
		Workers:        req.Workers,
		Seed:           req.Seed,
		Mutation:       mutation,
		Crossover:      crossover,
		Selector:       selector,
		GenomeFactory:  factory,
		Initial:        initial,
		TopGenomeLimit: req.TopGenomeLimit,
	})
	if err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            result.RunID,
		Scape:            scapeName,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		FinalBestFitness: result.BestFinalFitness,
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}

	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	out := make([]RunItem, 0, len(runs))
	for _, run := range runs {
		out = append(out, RunItem{
			RunID:            run.ID,
			CreatedAtUTC:     run.CreatedAtUTC,
			Scape:            run.Scape,
			Seed:             run.Seed,
			Population:       run.PopulationSize,
			Generations:      run.Generations,
			FinalBestFitness: run.FinalBestFitness,
		})
	}
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) TopGenomes(ctx context.Context, req TopGenomesRequest) ([]model.TopGenomeRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	top, ok, err := c.store.GetTopGenomes(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("top genomes not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(top) > req.Limit {
		top = top[:req.Limit]
	}
	out := make([]model.TopGenomeRecord, len(top))
	copy(out, top)
	return out, nil
}

// Export serializes the best genome of a run to its portable JSON form.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}

	top, ok, err := c.store.GetTopGenomes(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok || len(top) == 0 {
		return ExportSummary{}, fmt.Errorf("no genomes recorded for run id: %s", runID)
	}

	data, err := storage.EncodeGenome(top[0].Genome)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{
		RunID:      runID,
		GenomeID:   top[0].Genome.ID,
		Fitness:    top[0].Fitness,
		GenomeJSON: data,
	}, nil
}

func (c *Client) ScapeSummary(ctx context.Context, scapeName string) (ScapeSummaryItem, error) {
	if scapeName == "" {
		return ScapeSummaryItem{}, errors.New("scape name is required")
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return ScapeSummaryItem{}, err
	}

	summary, ok, err := c.store.GetScapeSummary(ctx, scapeid.Normalize(scapeName))
	if err != nil {
		return ScapeSummaryItem{}, err
	}
	if !ok {
		return ScapeSummaryItem{}, fmt.Errorf("scape summary not found: %s", scapeName)
	}
	return ScapeSummaryItem{
		Name:        summary.Name,
		Description: summary.Description,
		BestFitness: summary.BestFitness,
	}, nil
}

// Bench times the reference forward pass against the propagation kernel on
// one network and reports the worst observed divergence between the two.
func (c *Client) Bench(ctx context.Context, req BenchRequest) (BenchReport, error) {
	if req.InputDim <= 0 {
		req.InputDim = 3
	}
	if req.OutputDim <= 0 {
		req.OutputDim = 2
	}
	if len(req.HiddenUnits) == 0 {
		req.HiddenUnits = []int{3, 5, 5, 3}
	}
	if req.Iterations <= 0 {
		req.Iterations = 1000
	}

	rng := rand.New(rand.NewSource(req.Seed))
	net, err := graph.New(graph.Config{
		InputDim:    req.InputDim,
		HiddenUnits: req.HiddenUnits,
		OutputDim:   req.OutputDim,
	}, rng)
	if err != nil {
		return BenchReport{}, err
	}

	input := mat.NewDense(1, req.InputDim, nil)
	for j := 0; j < req.InputDim; j++ {
		input.Set(0, j, rng.Float64()*2-1)
	}

	start := time.Now()
	var reference *mat.Dense
	for i := 0; i < req.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return BenchReport{}, err
		}
		reference, err = net.NormalForward(input)
		if err != nil {
			return BenchReport{}, err
		}
	}
	normalElapsed := time.Since(start)

	start = time.Now()
	var propagated *mat.Dense
	for i := 0; i < req.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return BenchReport{}, err
		}
		propagated, err = net.GraphForward(input)
		if err != nil {
			return BenchReport{}, err
		}
	}
	graphElapsed := time.Since(start)

	maxDivergence := 0.0
	for j := 0; j < req.OutputDim; j++ {
		delta := reference.At(0, j) - propagated.At(0, j)
		if delta < 0 {
			delta = -delta
		}
		if delta > maxDivergence {
			maxDivergence = delta
		}
	}

	return BenchReport{
		InputDim:      req.InputDim,
		HiddenUnits:   append([]int(nil), req.HiddenUnits...),
		OutputDim:     req.OutputDim,
		TotalNeurons:  net.TotalNeurons(),
		Iterations:    req.Iterations,
		NormalPerOp:   normalElapsed / time.Duration(req.Iterations),
		GraphPerOp:    graphElapsed / time.Duration(req.Iterations),
		MaxDivergence: maxDivergence,
	}, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return "", err
	}
	if latest {
		runs, err := c.store.ListRuns(ctx)
		if err != nil {
			return "", err
		}
		if len(runs) == 0 {
			return "", errors.New("no runs available")
		}
		return runs[0].ID, nil
	}
	if runID == "" {
		return "", errors.New("run id or latest is required")
	}
	return runID, nil
}

func (c *Client) ensurePolis(ctx context.Context) (*platform.Polis, error) {
	if c.polis != nil {
		return c.polis, nil
	}
	p := platform.NewPolis(platform.Config{Store: c.store})
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	c.polis = p
	return c.polis, nil
}

func registerDefaultScapes(p *platform.Polis) error {
	if err := p.RegisterScape(scape.XORScape{}); err != nil {
		return err
	}
	return p.RegisterScape(scape.CartPoleLiteScape{})
}

func genomeFactory(cfg graph.Config) evo.GenomeFactory {
	return func(rng *rand.Rand, id string) (model.Genome, error) {
		net, err := graph.New(cfg, rng)
		if err != nil {
			return model.Genome{}, err
		}
		return net.ToGenome(id), nil
	}
}

func scapeDimensions(scapeName string) (inputDim, outputDim int, defaultHidden []int, err error) {
	switch scapeName {
	case "xor":
		return 2, 1, []int{3}, nil
	case "cart-pole-lite":
		return 2, 1, []int{4}, nil
	default:
		return 0, 0, nil, fmt.Errorf("unsupported scape: %s", scapeName)
	}
}

func selectionFromName(name string) (evo.Selector, error) {
	switch name {
	case "elite":
		return evo.EliteSelector{}, nil
	case "tournament":
		return evo.TournamentSelector{TournamentSize: 3}, nil
	case "softmax":
		return evo.SoftmaxSelector{}, nil
	default:
		return nil, fmt.Errorf("unsupported selection strategy: %s", name)
	}
}
