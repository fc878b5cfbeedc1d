package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/dds"
	"github.com/lox/redeal/dealer"
	"github.com/lox/redeal/generate"
	"github.com/lox/redeal/internal/archive"
	"github.com/lox/redeal/internal/config"
	"github.com/lox/redeal/internal/randutil"
	"github.com/lox/redeal/internal/statistics"
)

// DealCmd generates deals. Flags override the run file.
type DealCmd struct {
	Config   string        `short:"c" type:"existingfile" help:"HCL run file"`
	Count    int           `short:"n" help:"Number of deals to generate (default 10)"`
	MaxTries int           `name:"max" help:"Try budget for the whole run (default 1000 per deal)"`
	Seed     *int64        `help:"Random seed for reproducible runs"`
	North    string        `short:"N" help:"Predeal North, e.g. 'AK32 KQ2 A32 432'"`
	East     string        `short:"E" help:"Predeal East"`
	South    string        `short:"S" help:"Predeal South"`
	West     string        `short:"W" help:"Predeal West"`
	Stack    string        `help:"Smartstack one seat as SEAT:SHAPE:EVALUATOR:MIN-MAX, e.g. 'N:balanced:hcp:15-17'"`
	Format   string        `short:"f" enum:"diagram,short,pbn" default:"diagram" help:"Output format (diagram, short, pbn)"`
	Show     string        `help:"Seats to show in diagrams, e.g. NS"`
	Archive  string        `help:"Write accepted deals to a TOML archive"`
	Stats    bool          `help:"Print HCP statistics per seat"`
	Verbose  bool          `short:"v" help:"Log each accepted deal and periodic progress"`
	Progress time.Duration `default:"2s" help:"Progress interval when verbose"`

	Solve      string   `help:"Solve every deal double-dummy in a contract, e.g. 3NS, and summarise the results"`
	Solver     string   `help:"Double-dummy engine command"`
	SolverArgs []string `help:"Arguments for the engine command"`
	Workers    int      `default:"1" help:"Number of engine processes used with --solve"`
}

func (c *DealCmd) Run(g *Globals) error {
	cfg, err := c.runConfig()
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
	show, err := parseSeats(c.Show)
	if err != nil {
		return err
	}

	seed := runSeed(cfg.Seed)
	d, err := dealer.Prepare(p, dealer.WithSeed(seed), dealer.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	g.Logger.Info("Dealing", "deals", cfg.Deals, "seed", seed)

	var arch *archive.Archive
	if cfg.Archive != "" {
		arch = archive.New(seed, g.Clock.Now())
	}
	var hcp [bridge.NumSeats]statistics.Statistics
	var solve []bridge.Deal

	found := 0
	run := generate.Config{
		Count:    cfg.Deals,
		MaxTries: cfg.MaxTries,
		Accept:   accept,
		Do: func(deal bridge.Deal) error {
			found++
			if arch != nil {
				arch.Add(deal)
			}
			for _, seat := range bridge.Seats {
				hcp[seat].Add(float64(deal.Hand(seat).HCP()))
			}
			if c.Solve != "" {
				solve = append(solve, deal)
			}
			return c.print(g.Out, found, deal, show)
		},
		Stop:    g.Stop,
		Verbose: cfg.Verbose,
		Clock:   g.Clock,
		Logger:  g.Logger,
	}
	if cfg.Verbose {
		run.ProgressInterval = c.Progress
		run.OnProgress = func(p generate.Progress) {
			g.Logger.Info("Progress", "found", p.Found, "tries", p.Tries, "elapsed", p.Elapsed.Round(time.Millisecond))
		}
	}
	res, err := generate.Run(g.Ctx, d, run)
	exhausted := generate.IsExhausted(err)
	if err != nil && !exhausted {
		return err
	}

	if arch != nil {
		arch.Tries = res.Tries
		if err := arch.Save(cfg.Archive); err != nil {
			return err
		}
		g.Logger.Info("Archived deals", "path", cfg.Archive, "run", arch.RunID, "deals", arch.Found)
	}
	if c.Stats && res.Found > 0 {
		printHCPStats(g.Out, hcp)
	}
	if len(solve) > 0 {
		if err := c.solve(g, cfg, solve); err != nil {
			return err
		}
	}
	fmt.Fprintln(g.Out, dimStyle.Render(fmt.Sprintf("%d deals in %d tries (%s)", res.Found, res.Tries, res.Elapsed.Round(time.Millisecond))))
	return err
}

// solve runs the collected deals through the engine and prints trick and
// score statistics for the --solve contract.
func (c *DealCmd) solve(g *Globals, cfg *config.Config, deals []bridge.Deal) error {
	contract, declarer, err := bridge.ParseContractDeclarer(c.Solve, false)
	if err != nil {
		return err
	}
	if cfg.Solver == nil {
		return errNoSolver
	}
	procs, closeSolvers, err := startSolvers(g.Ctx, cfg.Solver.Command, cfg.Solver.Args, c.Workers, g.Logger)
	if err != nil {
		return err
	}
	defer closeSolvers()

	solvers := make([]bridge.TrickSolver, len(procs))
	for i, p := range procs {
		solvers[i] = p
	}
	tricks, err := dds.SolveAll(g.Ctx, solvers, deals, contract.Strain, declarer)
	if err != nil {
		return err
	}

	var trickStats, scoreStats statistics.Statistics
	made := 0
	for _, n := range tricks {
		trickStats.Add(float64(n))
		scoreStats.Add(float64(contract.Score(n)))
		if n >= contract.Level+6 {
			made++
		}
	}
	fmt.Fprintf(g.Out, "%s by %s: %s tricks (±%.2f), makes %s, mean score %s\n",
		headerStyle.Render(contract.String()), declarer.Name(),
		valueStyle.Render(fmt.Sprintf("%.2f", trickStats.Mean())), trickStats.StdError(),
		valueStyle.Render(fmt.Sprintf("%.1f%%", 100*float64(made)/float64(len(tricks)))),
		valueStyle.Render(fmt.Sprintf("%+.1f", scoreStats.Mean())))
	return nil
}

// runConfig loads the run file, if any, and applies flag overrides.
func (c *DealCmd) runConfig() (*config.Config, error) {
	cfg := config.Default()
	if c.Config != "" {
		var err error
		if cfg, err = config.Load(c.Config); err != nil {
			return nil, err
		}
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
	if c.Archive != "" {
		cfg.Archive = c.Archive
	}
	if c.Verbose {
		cfg.Verbose = true
	}
	if c.Solver != "" {
		cfg.Solver = &config.SolverConfig{Command: c.Solver, Args: c.SolverArgs}
	}
	if c.Solve != "" {
		if _, _, err := bridge.ParseContractDeclarer(c.Solve, false); err != nil {
			return nil, err
		}
		if cfg.Solver == nil {
			return nil, errNoSolver
		}
	}
	for _, flag := range []struct{ seat, hand string }{
		{"N", c.North}, {"E", c.East}, {"S", c.South}, {"W", c.West},
	} {
		if flag.hand != "" {
			cfg.Predeals = append(cfg.Predeals, config.PredealConfig{Seat: flag.seat, Hand: flag.hand})
		}
	}
	if c.Stack != "" {
		pc, err := parseStackFlag(c.Stack)
		if err != nil {
			return nil, err
		}
		cfg.Predeals = append(cfg.Predeals, pc)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseStackFlag parses SEAT:SHAPE:EVALUATOR:MIN-MAX.
func parseStackFlag(s string) (config.PredealConfig, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return config.PredealConfig{}, fmt.Errorf("invalid --stack %q: want SEAT:SHAPE:EVALUATOR:MIN-MAX", s)
	}
	lo, hi, ok := strings.Cut(parts[3], "-")
	if !ok {
		return config.PredealConfig{}, fmt.Errorf("invalid --stack range %q", parts[3])
	}
	minV, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return config.PredealConfig{}, fmt.Errorf("invalid --stack range %q: %w", parts[3], err)
	}
	maxV, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return config.PredealConfig{}, fmt.Errorf("invalid --stack range %q: %w", parts[3], err)
	}
	return config.PredealConfig{
		Seat: parts[0],
		SmartStack: &config.SmartStackConfig{
			Shape:     parts[1],
			Evaluator: parts[2],
			Min:       minV,
			Max:       maxV,
		},
	}, nil
}

func parseSeats(s string) ([]bridge.Seat, error) {
	var seats []bridge.Seat
	for _, r := range strings.ToUpper(s) {
		seat, err := bridge.ParseSeat(string(r))
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, nil
}

func (c *DealCmd) print(w io.Writer, n int, deal bridge.Deal, show []bridge.Seat) error {
	var err error
	switch c.Format {
	case "short":
		_, err = fmt.Fprintln(w, deal.String())
	case "pbn":
		_, err = fmt.Fprintln(w, deal.PBN())
	default:
		_, err = fmt.Fprintf(w, "%s\n%s\n", headerStyle.Render(fmt.Sprintf("Deal %d", n)), deal.Diagram(show...))
	}
	return err
}

func printHCPStats(w io.Writer, hcp [bridge.NumSeats]statistics.Statistics) {
	fmt.Fprintln(w, headerStyle.Render("HCP"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Seat\tMean\tStdDev\tMedian\t95% CI")
	for _, seat := range bridge.Seats {
		s := &hcp[seat]
		lo, hi := s.ConfidenceInterval95()
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.1f\t[%.2f, %.2f]\n",
			seatStyle.Render(seat.Name()),
			valueStyle.Render(fmt.Sprintf("%.2f", s.Mean())),
			s.StdDev(), s.Median(), lo, hi)
	}
	tw.Flush()
}

// runSeed returns the configured seed, or a random one when none is set.
func runSeed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return randutil.Seed()
}
