package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"neurograph/internal/platform"
	"neurograph/internal/storage"
	api "neurograph/pkg/neurograph"
)

const defaultDBPath = "neurograph.db"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "top":
		return runTop(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "scape-summary":
		return runScapeSummary(ctx, args[1:])
	case "bench":
		return runBench(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: neurographctl <init|reset|run|runs|fitness|top|export|scape-summary|bench> [flags]", msg)
}

func storeFlags(fs *flag.FlagSet) (storeKind, dbPath *string) {
	storeKind = fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath = fs.String("db-path", defaultDBPath, "sqlite database path")
	return storeKind, dbPath
}

func newClient(storeKind, dbPath string) (*api.Client, func(), error) {
	client, err := api.New(api.Options{StoreKind: storeKind, DBPath: dbPath})
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	polis := platform.NewPolis(platform.Config{Store: store})
	if err := polis.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	polis := platform.NewPolis(platform.Config{Store: store})
	if err := polis.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	scapeName := fs.String("scape", "xor", "scape name: xor|cart-pole-lite")
	population := fs.Int("pop", 50, "population size")
	generations := fs.Int("gens", 100, "generation count")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 4, "worker count")
	selection := fs.String("selection", "softmax", "parent selection strategy: elite|tournament|softmax")
	hidden := fs.String("hidden", "", "comma separated hidden layer sizes (empty uses scape default)")
	useBias := fs.Bool("bias", false, "evolve per-layer bias terms")
	retainState := fs.Bool("retain-state", false, "carry neuron state across forward calls")
	freshFraction := fs.Float64("fresh-fraction", 0.0, "share of each generation replaced by fresh random genomes (0 uses default)")
	crossover := fs.Bool("crossover", false, "enable split point crossover")
	weightMutProb := fs.Float64("weight-mut-prob", 0.0, "per-entry weight mutation probability (0 uses default)")
	biasMutProb := fs.Float64("bias-mut-prob", 0.0, "per-entry bias mutation probability (0 uses default)")
	mutMagnitude := fs.Float64("mut-magnitude", 0.0, "mutation delta bound (0 uses default)")
	topLimit := fs.Int("top-limit", 0, "ranked genomes to checkpoint per run (0 uses default)")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	hiddenUnits, err := parseHiddenUnits(*hidden)
	if err != nil {
		return err
	}

	client, closeClient, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeClient()

	summary, err := client.Run(ctx, api.RunRequest{
		Scape:          *scapeName,
		Population:     *population,
		Generations:    *generations,
		Seed:           *seed,
		Workers:        *workers,
		Selection:      *selection,
		HiddenUnits:    hiddenUnits,
		UseBias:        *useBias,
		RetainState:    *retainState,
		FreshFraction:  *freshFraction,
		Crossover:      *crossover,
		WeightMutProb:  *weightMutProb,
		BiasMutProb:    *biasMutProb,
		MutMagnitude:   *mutMagnitude,
		TopGenomeLimit: *topLimit,
	})
	if err != nil {
		return err
	}

	fmt.Printf("run completed run_id=%s scape=%s pop=%d gens=%d seed=%d\n", summary.RunID, summary.Scape, *population, *generations, *seed)
	for i, best := range summary.BestByGeneration {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	fmt.Printf("final_best_fitness=%.6f\n", summary.FinalBestFitness)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, closeClient, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeClient()

	items, err := client.Runs(ctx, api.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	for _, item := range items {
		fmt.Printf("run_id=%s created=%s scape=%s seed=%d pop=%d gens=%d final_best=%.6f\n",
			item.RunID, item.CreatedAtUTC, item.Scape, item.Seed, item.Population, item.Generations, item.FinalBestFitness)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "max generations to print (0 prints all)")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, closeClient, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeClient()

	history, err := client.FitnessHistory(ctx, api.FitnessHistoryRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runTop(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "max genomes to print (0 prints all)")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, closeClient, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeClient()

	top, err := client.TopGenomes(ctx, api.TopGenomesRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	for _, record := range top {
		fmt.Printf("rank=%d fitness=%.6f genome_id=%s params=%d\n",
			record.Rank, record.Fitness, record.Genome.ID, record.Genome.ParameterCount())
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	outPath := fs.String("out", "", "output file path (empty writes to stdout)")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, closeClient, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeClient()

	export, err := client.Export(ctx, api.ExportRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *outPath == "" {
		fmt.Println(string(export.GenomeJSON))
		return nil
	}
	if err := os.WriteFile(*outPath, export.GenomeJSON, 0o644); err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s genome_id=%s fitness=%.6f path=%s\n", export.RunID, export.GenomeID, export.Fitness, *outPath)
	return nil
}

func runScapeSummary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scape-summary", flag.ContinueOnError)
	scapeName := fs.String("scape", "", "scape name")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, closeClient, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeClient()

	item, err := client.ScapeSummary(ctx, *scapeName)
	if err != nil {
		return err
	}
	fmt.Printf("scape=%s best_fitness=%.6f description=%q\n", item.Name, item.BestFitness, item.Description)
	return nil
}

func runBench(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	inputDim := fs.Int("input", 3, "input dimension")
	hidden := fs.String("hidden", "3,5,5,3", "comma separated hidden layer sizes")
	outputDim := fs.Int("output", 2, "output dimension")
	iterations := fs.Int("iters", 1000, "iterations per kernel")
	seed := fs.Int64("seed", 1, "rng seed")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	hiddenUnits, err := parseHiddenUnits(*hidden)
	if err != nil {
		return err
	}

	client, closeClient, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeClient()

	report, err := client.Bench(ctx, api.BenchRequest{
		InputDim:    *inputDim,
		HiddenUnits: hiddenUnits,
		OutputDim:   *outputDim,
		Iterations:  *iterations,
		Seed:        *seed,
	})
	if err != nil {
		return err
	}
	fmt.Printf("bench input=%d hidden=%v output=%d neurons=%d iters=%d\n",
		report.InputDim, report.HiddenUnits, report.OutputDim, report.TotalNeurons, report.Iterations)
	fmt.Printf("normal_forward_per_op=%s\n", report.NormalPerOp)
	fmt.Printf("graph_forward_per_op=%s\n", report.GraphPerOp)
	fmt.Printf("max_divergence=%g\n", report.MaxDivergence)
	return nil
}

func parseHiddenUnits(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	fields := strings.Split(raw, ",")
	units := make([]int, 0, len(fields))
	for _, field := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid hidden layer size: %q", field)
		}
		units = append(units, n)
	}
	return units, nil
}
