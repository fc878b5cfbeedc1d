package main

import (
	"fmt"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/dealer"
	"github.com/lox/redeal/generate"
	"github.com/lox/redeal/internal/config"
	"github.com/lox/redeal/payoff"
)

// LeadCmd runs an opening lead simulation: every accepted deal is solved
// for each card the leader holds, and leads are compared pairwise.
type LeadCmd struct {
	Config     string   `short:"c" type:"existingfile" help:"HCL run file with a lead block"`
	Contract   string   `help:"Contract and declarer, e.g. 3NS"`
	Vul        bool     `help:"Declarer is vulnerable"`
	Scoring    string   `enum:"imps,matchpoints" default:"imps" help:"Scoring used to compare leads (imps, matchpoints)"`
	Hand       string   `help:"The leader's hand, e.g. 'K32 QJ4 T987 652'"`
	Count      int      `short:"n" help:"Number of deals to simulate (default 10)"`
	MaxTries   int      `name:"max" help:"Try budget for the whole run"`
	Seed       *int64   `help:"Random seed for reproducible runs"`
	Solver     string   `help:"Double-dummy engine command"`
	SolverArgs []string `help:"Arguments for the engine command"`
	Verbose    bool     `short:"v" help:"Log each simulated deal"`
}

func (c *LeadCmd) Run(g *Globals) error {
	cfg, err := c.runConfig()
	if err != nil {
		return err
	}
	contract, declarer, err := bridge.ParseContractDeclarer(cfg.Lead.Contract, cfg.Lead.Vul)
	if err != nil {
		return err
	}
	p, err := cfg.Predeal()
	if err != nil {
		return err
	}
	accept, err := cfg.Accept()
	if err != nil {
		return err
	}

	seed := runSeed(cfg.Seed)
	d, err := dealer.Prepare(p, dealer.WithSeed(seed), dealer.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	if leader := declarer.Next(); d.Predealt(leader).NumCards() != bridge.PerSuit {
		return fmt.Errorf("%w: pass --hand or predeal %s in the run file", generate.ErrLeaderNotPredealt, leader.Name())
	}

	procs, closeSolvers, err := startSolvers(g.Ctx, cfg.Solver.Command, cfg.Solver.Args, 1, g.Logger)
	if err != nil {
		return err
	}
	defer closeSolvers()

	diff := payoff.IMPs
	if cfg.Lead.Scoring == "matchpoints" {
		diff = payoff.Matchpoints
	}
	sim := generate.NewOpeningLead(accept, contract, declarer, procs[0], diff, g.Out, g.Logger)
	g.Logger.Info("Simulating leads", "contract", contract, "declarer", declarer.Name(), "leader", sim.Leader().Name(), "deals", cfg.Deals, "seed", seed)

	_, err = generate.RunSimulation(g.Ctx, d, sim, generate.Config{
		Count:    cfg.Deals,
		MaxTries: cfg.MaxTries,
		Stop:     g.Stop,
		Verbose:  cfg.Verbose,
		Clock:    g.Clock,
		Logger:   g.Logger,
	})
	return err
}

func (c *LeadCmd) runConfig() (*config.Config, error) {
	cfg := config.Default()
	if c.Config != "" {
		var err error
		if cfg, err = config.Load(c.Config); err != nil {
			return nil, err
		}
	}
	if c.Contract != "" {
		cfg.Lead = &config.LeadConfig{Contract: c.Contract, Scoring: c.Scoring, Vul: c.Vul}
	}
	if cfg.Lead == nil {
		return nil, fmt.Errorf("no contract: pass --contract or add a lead block to the run file")
	}
	if c.Solver != "" {
		cfg.Solver = &config.SolverConfig{Command: c.Solver, Args: c.SolverArgs}
	}
	if cfg.Solver == nil {
		return nil, errNoSolver
	}
	if c.Count > 0 {
		cfg.Deals = c.Count
	}
	if c.MaxTries > 0 {
		cfg.MaxTries = c.MaxTries
	}
	if c.Seed != nil {
		cfg.Seed = c.Seed
	}
	if c.Verbose {
		cfg.Verbose = true
	}
	if c.Hand != "" {
		_, declarer, err := bridge.ParseContractDeclarer(cfg.Lead.Contract, cfg.Lead.Vul)
		if err != nil {
			return nil, err
		}
		cfg.Predeals = append(cfg.Predeals, config.PredealConfig{Seat: declarer.Next().String(), Hand: c.Hand})
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
