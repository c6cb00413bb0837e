package scape

import "context"

type Fitness float64

type Trace map[string]any

type Agent interface {
	ID() string
}

// StepAgent maps one observation to one action vector.
type StepAgent interface {
	Agent
	RunStep(ctx context.Context, input []float64) ([]float64, error)
}

// EpisodicAgent additionally carries latent state that must be cleared
// between episodes.
type EpisodicAgent interface {
	StepAgent
	ResetEpisode() error
}

type Scape interface {
	Name() string
	Evaluate(ctx context.Context, agent Agent) (Fitness, Trace, error)
}

// ModeAwareScape optionally exposes evaluation mode routing for gt/validation/test flows.
type ModeAwareScape interface {
	Scape
	EvaluateMode(ctx context.Context, agent Agent, mode string) (Fitness, Trace, error)
}

func resetIfEpisodic(agent StepAgent) error {
	episodic, ok := agent.(EpisodicAgent)
	if !ok {
		return nil
	}
	return episodic.ResetEpisode()
}
