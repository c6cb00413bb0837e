package scape

import (
	"context"
	"math"
	"testing"
)

func xorTruth(in []float64) float64 {
	if (in[0] > 0.5) != (in[1] > 0.5) {
		return 1
	}
	return 0
}

func TestXORPerfectPredictor(t *testing.T) {
	agent := &scriptedAgent{
		id:   "oracle",
		step: func(in []float64) ([]float64, error) { return []float64{xorTruth(in)}, nil },
	}

	fitness, trace, err := XORScape{}.Evaluate(context.Background(), agent)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if math.Abs(float64(fitness)-1e6) > 1 {
		t.Fatalf("perfect predictor fitness = %v, want ~1e6", fitness)
	}
	if trace["sse"].(float64) != 0 {
		t.Fatalf("sse = %v, want 0", trace["sse"])
	}
}

func TestXORConstantPredictorScoresLower(t *testing.T) {
	constant := &scriptedAgent{
		id:   "constant",
		step: func(in []float64) ([]float64, error) { return []float64{0.5}, nil },
	}
	oracle := &scriptedAgent{
		id:   "oracle",
		step: func(in []float64) ([]float64, error) { return []float64{xorTruth(in)}, nil },
	}

	constFitness, _, err := XORScape{}.Evaluate(context.Background(), constant)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	oracleFitness, _, err := XORScape{}.Evaluate(context.Background(), oracle)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if constFitness >= oracleFitness {
		t.Fatalf("constant %v should score below oracle %v", constFitness, oracleFitness)
	}
}

func TestXORModeCaseCounts(t *testing.T) {
	agent := &scriptedAgent{
		id:   "counter",
		step: func(in []float64) ([]float64, error) { return []float64{0}, nil },
	}

	cases := map[string]int{"gt": 4, "validation": 6, "test": 8, "benchmark": 8}
	for mode, want := range cases {
		_, trace, err := (XORScape{}).EvaluateMode(context.Background(), agent, mode)
		if err != nil {
			t.Fatalf("EvaluateMode(%s): %v", mode, err)
		}
		if got := trace["cases"].(int); got != want {
			t.Fatalf("mode %s cases = %d, want %d", mode, got, want)
		}
	}
}

func TestXORResetsEpisodicAgentOnce(t *testing.T) {
	agent := &scriptedAgent{
		id:   "episodic",
		step: func(in []float64) ([]float64, error) { return []float64{0}, nil },
	}
	if _, _, err := (XORScape{}).Evaluate(context.Background(), agent); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if agent.resets != 1 {
		t.Fatalf("resets = %d, want 1", agent.resets)
	}
}

func TestXORRejectsWrongOutputArity(t *testing.T) {
	agent := &scriptedAgent{
		id:   "empty",
		step: func(in []float64) ([]float64, error) { return nil, nil },
	}
	if _, _, err := (XORScape{}).Evaluate(context.Background(), agent); err == nil {
		t.Fatalf("expected error for empty output")
	}
}
