package graph

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidConfig = errors.New("invalid network configuration")
	ErrShapeMismatch = errors.New("shape mismatch")
)

// EquivalenceTolerance bounds the allowed divergence between the reference
// forward pass and the graph forward pass when bias is disabled.
const EquivalenceTolerance = 1e-6

type Config struct {
	InputDim    int
	HiddenUnits []int
	OutputDim   int
	UseBias     bool
	RetainState bool
}

func (c Config) validate() error {
	if c.InputDim <= 0 {
		return fmt.Errorf("%w: input dim must be > 0, got %d", ErrInvalidConfig, c.InputDim)
	}
	if c.OutputDim <= 0 {
		return fmt.Errorf("%w: output dim must be > 0, got %d", ErrInvalidConfig, c.OutputDim)
	}
	for i, units := range c.HiddenUnits {
		if units <= 0 {
			return fmt.Errorf("%w: hidden layer %d must have > 0 units, got %d", ErrInvalidConfig, i, units)
		}
	}
	return nil
}

func (c Config) layerSizes() []int {
	sizes := make([]int, 0, len(c.HiddenUnits)+2)
	sizes = append(sizes, c.InputDim)
	sizes = append(sizes, c.HiddenUnits...)
	sizes = append(sizes, c.OutputDim)
	return sizes
}

// Network is a feed-forward network held in two equivalent forms: the layered
// weight matrices used by the reference forward pass, and one flat adjacency
// matrix over all neurons used by the propagation kernel.
type Network struct {
	cfg   Config
	sizes []int
	total int

	weights []*mat.Dense
	biases  []*mat.VecDense

	adjacency *mat.Dense

	state *mat.VecDense
}

// New constructs a network with weights drawn uniformly from
// [-sqrt(prev*units), +sqrt(prev*units)] per layer transition. The random
// source is required; all randomness in the module flows through injected
// sources so runs stay reproducible.
func New(cfg Config, rng *rand.Rand) (*Network, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	sizes := cfg.layerSizes()
	n := &Network{
		cfg:   cfg,
		sizes: sizes,
		total: totalNeurons(sizes),
	}
	for k := 0; k < len(sizes)-1; k++ {
		prev := sizes[k]
		units := sizes[k+1]
		bound := math.Sqrt(float64(prev * units))

		w := mat.NewDense(prev, units, nil)
		for i := 0; i < prev; i++ {
			for j := 0; j < units; j++ {
				w.Set(i, j, symmetricUniform(rng, bound))
			}
		}
		b := mat.NewVecDense(units, nil)
		if cfg.UseBias {
			for j := 0; j < units; j++ {
				b.SetVec(j, symmetricUniform(rng, bound))
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

func symmetricUniform(rng *rand.Rand, bound float64) float64 {
	return (rng.Float64()*2 - 1) * bound
}

// NormalForward is the reference pass: a pure chain of linear maps over the
// layered weights, with bias added per row when enabled. No activations are
// applied anywhere. Accepts any batch size.
func (n *Network) NormalForward(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != n.cfg.InputDim {
		return nil, fmt.Errorf("%w: input has %d features, want %d", ErrShapeMismatch, cols, n.cfg.InputDim)
	}

	z := mat.DenseCopyOf(x)
	for k, w := range n.weights {
		_, units := w.Dims()
		next := mat.NewDense(rows, units, nil)
		next.Mul(z, w)
		if n.cfg.UseBias {
			bias := n.biases[k]
			for i := 0; i < rows; i++ {
				for j := 0; j < units; j++ {
					next.Set(i, j, next.At(i, j)+bias.AtVec(j))
				}
			}
		}
		z = next
	}
	return z, nil
}

// GraphForward runs the propagation kernel for the first row of x: the row is
// zero-padded into the full state vector, stepped StepsRequired times through
// the adjacency matrix, and the trailing output entries are read back out.
// Bias terms are not represented in the adjacency matrix and do not
// participate. Returns a 1 x OutputDim matrix.
func (n *Network) GraphForward(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if rows < 1 {
		return nil, fmt.Errorf("%w: input batch is empty", ErrShapeMismatch)
	}
	if cols != n.cfg.InputDim {
		return nil, fmt.Errorf("%w: input has %d features, want %d", ErrShapeMismatch, cols, n.cfg.InputDim)
	}

	outputs := n.propagateRow(mat.Row(nil, 0, x), true)
	out := mat.NewDense(1, n.cfg.OutputDim, nil)
	for j, v := range outputs {
		out.Set(0, j, v)
	}
	return out, nil
}

// Forward is the batch-1 entry point used by evaluation harnesses.
func (n *Network) Forward(input []float64) ([]float64, error) {
	if len(input) != n.cfg.InputDim {
		return nil, fmt.Errorf("%w: input has %d features, want %d", ErrShapeMismatch, len(input), n.cfg.InputDim)
	}
	return n.propagateRow(input, true), nil
}

func (n *Network) propagateRow(input []float64, persist bool) []float64 {
	state := mat.NewVecDense(n.total, nil)
	if n.cfg.RetainState && n.state != nil {
		state.CopyVec(n.state)
	}
	for i, v := range input {
		state.SetVec(i, v)
	}

	final := Propagate(n.adjacency, state, n.StepsRequired())
	if persist && n.cfg.RetainState {
		n.state.CopyVec(final)
	}

	outputs := make([]float64, n.cfg.OutputDim)
	for j := range outputs {
		outputs[j] = final.AtVec(n.total - n.cfg.OutputDim + j)
	}
	return outputs
}

// Verify checks that the graph pass reproduces the reference pass for the
// first row of x within the given tolerance. The guarantee only exists with
// bias disabled: the graph pass ignores bias terms by construction.
func (n *Network) Verify(x *mat.Dense, tolerance float64) error {
	if n.cfg.UseBias {
		return fmt.Errorf("verification requires bias disabled: graph propagation ignores bias terms")
	}
	if tolerance <= 0 {
		tolerance = EquivalenceTolerance
	}

	reference, err := n.NormalForward(x)
	if err != nil {
		return err
	}
	got := n.propagateRow(mat.Row(nil, 0, x), false)
	for j, v := range got {
		want := reference.At(0, j)
		if math.Abs(v-want) > tolerance {
			return fmt.Errorf("output %d diverges: reference=%g graph=%g tolerance=%g", j, want, v, tolerance)
		}
	}
	return nil
}

// ResetState zeroes the retained latent state. The neuron count is taken for
// interface compatibility with callers that track it; a mismatch is an error
// rather than a silent resize.
func (n *Network) ResetState(totalNeurons int) error {
	if totalNeurons != n.total {
		return fmt.Errorf("%w: reset for %d neurons, network has %d", ErrShapeMismatch, totalNeurons, n.total)
	}
	if n.state != nil {
		n.state.Zero()
	}
	return nil
}

// RebuildAdjacency refreshes the adjacency matrix from the layered weights.
// Callers that edit Weights in place must invoke it before the next graph
// pass.
func (n *Network) RebuildAdjacency() {
	n.adjacency = buildAdjacency(n.sizes, n.weights, n.cfg.OutputDim)
}

// Weights exposes the layered weight matrices for in-place editing.
func (n *Network) Weights() []*mat.Dense { return n.weights }

// Biases exposes the layered bias vectors for in-place editing. They are all
// zeros when the network was built without bias.
func (n *Network) Biases() []*mat.VecDense { return n.biases }

// Adjacency exposes the current adjacency matrix. Treat it as read-only;
// it is derived state, rebuilt from the weights.
func (n *Network) Adjacency() *mat.Dense { return n.adjacency }

func (n *Network) InputNeurons() int  { return n.cfg.InputDim }
func (n *Network) OutputNeurons() int { return n.cfg.OutputDim }

// ExtraNeurons is the hidden neuron count: everything that is neither input
// nor output.
func (n *Network) ExtraNeurons() int { return n.total - n.cfg.InputDim - n.cfg.OutputDim }

func (n *Network) HiddenUnits() []int { return append([]int(nil), n.cfg.HiddenUnits...) }
func (n *Network) RetainState() bool  { return n.cfg.RetainState }
func (n *Network) UseBias() bool      { return n.cfg.UseBias }
func (n *Network) TotalNeurons() int  { return n.total }

// StepsRequired is the exact number of propagation steps that carries an
// input to the outputs: one per hidden layer plus the final output hop.
func (n *Network) StepsRequired() int { return len(n.cfg.HiddenUnits) + 1 }
