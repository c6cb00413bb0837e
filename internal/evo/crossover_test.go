package evo

import (
	"context"
	"math/rand"
	"testing"

	"neurograph/internal/model"
)

func constantGenome(id string, value float64) model.Genome {
	fill := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = value
		}
		return out
	}
	return model.Genome{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
		ID:              id,
		InputNeurons:    2,
		HiddenUnits:     []int{3},
		OutputNeurons:   1,
		ExtraNeurons:    3,
		Layers: []model.LayerParams{
			{Rows: 2, Cols: 3, Weights: fill(6), Bias: fill(3)},
			{Rows: 3, Cols: 1, Weights: fill(3), Bias: fill(1)},
		},
	}
}

func TestSplitPointCrossoverTakesPrefixAndSuffix(t *testing.T) {
	first := constantGenome("ones", 1)
	second := constantGenome("twos", 2)

	op := SplitPointCrossover{Rand: rand.New(rand.NewSource(9))}
	child, err := op.Combine(context.Background(), first, second, "child")
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if child.ID != "child" {
		t.Fatalf("child ID = %s, want child", child.ID)
	}

	flat := flattenWeights(child)
	seenSecond := false
	for i, v := range flat {
		switch v {
		case 1:
			if seenSecond {
				t.Fatalf("entry %d from first parent after the split", i)
			}
		case 2:
			seenSecond = true
		default:
			t.Fatalf("entry %d = %v, not from either parent", i, v)
		}
	}

	var flatBias []float64
	for _, layer := range child.Layers {
		flatBias = append(flatBias, layer.Bias...)
	}
	seenSecond = false
	for i, v := range flatBias {
		switch v {
		case 1:
			if seenSecond {
				t.Fatalf("bias %d from first parent after the split", i)
			}
		case 2:
			seenSecond = true
		default:
			t.Fatalf("bias %d = %v, not from either parent", i, v)
		}
	}
}

func TestSplitPointCrossoverLeavesParentsUntouched(t *testing.T) {
	first := constantGenome("ones", 1)
	second := constantGenome("twos", 2)

	op := SplitPointCrossover{Rand: rand.New(rand.NewSource(10))}
	if _, err := op.Combine(context.Background(), first, second, "child"); err != nil {
		t.Fatalf("Combine: %v", err)
	}
	for _, v := range flattenWeights(first) {
		if v != 1 {
			t.Fatalf("first parent mutated: %v", v)
		}
	}
	for _, v := range flattenWeights(second) {
		if v != 2 {
			t.Fatalf("second parent mutated: %v", v)
		}
	}
}

func TestSplitPointCrossoverRejectsShapeMismatch(t *testing.T) {
	first := constantGenome("ones", 1)
	second := constantGenome("twos", 2)
	second.Layers[0].Cols = 4

	op := SplitPointCrossover{Rand: rand.New(rand.NewSource(11))}
	if _, err := op.Combine(context.Background(), first, second, "child"); err == nil {
		t.Fatalf("expected shape mismatch error")
	}
}

func TestSplitPointCrossoverRequiresRandomSource(t *testing.T) {
	op := SplitPointCrossover{}
	if _, err := op.Combine(context.Background(), constantGenome("a", 1), constantGenome("b", 2), "c"); err == nil {
		t.Fatalf("expected error for nil random source")
	}
}
