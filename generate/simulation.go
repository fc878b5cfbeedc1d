package generate

import (
	"context"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/dealer"
)

// Simulation bundles the hooks of a run into one value.
type Simulation interface {
	// Initial runs once before the loop and may draw from the dealer.
	Initial(ctx context.Context, d *dealer.Dealer) error
	Accept(deal bridge.Deal) bool
	Do(ctx context.Context, deal bridge.Deal) error
	Final(tries int)
}

// RunSimulation runs sim against d. Hooks set in cfg are replaced by the
// simulation's.
func RunSimulation(ctx context.Context, d *dealer.Dealer, sim Simulation, cfg Config) (Result, error) {
	cfg.Initial = func() error { return sim.Initial(ctx, d) }
	cfg.Accept = sim.Accept
	cfg.Do = func(deal bridge.Deal) error { return sim.Do(ctx, deal) }
	cfg.Final = sim.Final
	return Run(ctx, d, cfg)
}
