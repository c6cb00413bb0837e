package graph

import (
	"errors"
	"testing"
)

func TestGenomeRoundTrip(t *testing.T) {
	n := newTestNetwork(t, Config{InputDim: 3, HiddenUnits: []int{4, 2}, OutputDim: 2, UseBias: true}, 61)

	genome := n.ToGenome("round-trip")
	if genome.InputNeurons != 3 || genome.OutputNeurons != 2 || genome.ExtraNeurons != 6 {
		t.Fatalf("genome dimensions wrong: %+v", genome)
	}
	if genome.SchemaVersion != 1 || genome.CodecVersion != 1 {
		t.Fatalf("genome versions wrong: %+v", genome.VersionedRecord)
	}

	rebuilt, err := FromGenome(genome)
	if err != nil {
		t.Fatalf("FromGenome: %v", err)
	}

	input := []float64{1, -2, 0.5}
	want, err := n.Forward(input)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	got, err := rebuilt.Forward(input)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	for j := range want {
		if want[j] != got[j] {
			t.Fatalf("output %d: %v != %v after round trip", j, want[j], got[j])
		}
	}
}

func TestFromGenomeRejectsBadShapes(t *testing.T) {
	n := newTestNetwork(t, Config{InputDim: 2, HiddenUnits: []int{3}, OutputDim: 1}, 67)

	missing := n.ToGenome("missing-layer")
	missing.Layers = missing.Layers[:1]
	if _, err := FromGenome(missing); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("missing layer: err = %v, want ErrShapeMismatch", err)
	}

	wrongDims := n.ToGenome("wrong-dims")
	wrongDims.Layers[0].Rows = 5
	if _, err := FromGenome(wrongDims); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("wrong dims: err = %v, want ErrShapeMismatch", err)
	}

	truncated := n.ToGenome("truncated-weights")
	truncated.Layers[1].Weights = truncated.Layers[1].Weights[:1]
	if _, err := FromGenome(truncated); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("truncated weights: err = %v, want ErrShapeMismatch", err)
	}

	invalid := n.ToGenome("invalid-dims")
	invalid.OutputNeurons = 0
	if _, err := FromGenome(invalid); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("invalid dims: err = %v, want ErrInvalidConfig", err)
	}
}

func TestFromGenomePreservesRetainState(t *testing.T) {
	n := newTestNetwork(t, Config{InputDim: 2, HiddenUnits: []int{2}, OutputDim: 1, RetainState: true}, 71)

	rebuilt, err := FromGenome(n.ToGenome("retained"))
	if err != nil {
		t.Fatalf("FromGenome: %v", err)
	}
	if !rebuilt.RetainState() {
		t.Fatalf("retain flag dropped in round trip")
	}
}
