package evo

import (
	"context"

	"neurograph/internal/graph"
	"neurograph/internal/model"
)

// networkAgent wraps a reconstructed network so scapes can drive it one
// observation at a time.
type networkAgent struct {
	id  string
	net *graph.Network
}

func newNetworkAgent(genome model.Genome) (*networkAgent, error) {
	net, err := graph.FromGenome(genome)
	if err != nil {
		return nil, err
	}
	return &networkAgent{id: genome.ID, net: net}, nil
}

func (a *networkAgent) ID() string { return a.id }

func (a *networkAgent) RunStep(ctx context.Context, input []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.net.Forward(input)
}

func (a *networkAgent) ResetEpisode() error {
	return a.net.ResetState(a.net.TotalNeurons())
}
