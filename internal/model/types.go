package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// LayerParams holds the dense parameters of one layer transition.
// Weights is row-major with Rows*Cols entries; Bias has Cols entries and is
// all zeros when the genome was built without bias.
type LayerParams struct {
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	Weights []float64 `json:"weights"`
	Bias    []float64 `json:"bias,omitempty"`
}

// Genome is the persisted form of a graph network: its layer sizes plus the
// full parameter stack. Runtime networks are reconstructed from it.
type Genome struct {
	VersionedRecord
	ID            string        `json:"id"`
	InputNeurons  int           `json:"input_neurons"`
	HiddenUnits   []int         `json:"hidden_units"`
	OutputNeurons int           `json:"output_neurons"`
	ExtraNeurons  int           `json:"extra_neurons"`
	RetainState   bool          `json:"retain_state"`
	UseBias       bool          `json:"use_bias"`
	Layers        []LayerParams `json:"layers"`
}

// Clone deep-copies the genome under a new ID.
func (g Genome) Clone(id string) Genome {
	out := g
	out.ID = id
	out.HiddenUnits = append([]int(nil), g.HiddenUnits...)
	out.Layers = make([]LayerParams, len(g.Layers))
	for i, layer := range g.Layers {
		out.Layers[i] = LayerParams{
			Rows:    layer.Rows,
			Cols:    layer.Cols,
			Weights: append([]float64(nil), layer.Weights...),
			Bias:    append([]float64(nil), layer.Bias...),
		}
	}
	return out
}

// ParameterCount returns the number of weight entries across all layers.
func (g Genome) ParameterCount() int {
	total := 0
	for _, layer := range g.Layers {
		total += len(layer.Weights)
	}
	return total
}

type Population struct {
	VersionedRecord
	ID         string   `json:"id"`
	GenomeIDs  []string `json:"genome_ids"`
	Generation int      `json:"generation"`
}

type ScapeSummary struct {
	VersionedRecord
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BestFitness float64 `json:"best_fitness"`
}

// RunRecord describes one evolution run and its outcome.
type RunRecord struct {
	VersionedRecord
	ID               string  `json:"id"`
	Scape            string  `json:"scape"`
	Seed             int64   `json:"seed"`
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// TopGenomeRecord checkpoints a ranked genome at the end of a run.
type TopGenomeRecord struct {
	VersionedRecord
	Rank    int     `json:"rank"`
	Fitness float64 `json:"fitness"`
	Genome  Genome  `json:"genome"`
}
