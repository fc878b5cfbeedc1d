// Package config loads HCL run files describing a dealing run: what each
// seat is predealt, which deals to accept and how many to produce.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/dealer"
	"github.com/lox/redeal/smartstack"
)

// Config is a complete run file.
type Config struct {
	Deals    int    `hcl:"deals,optional"`
	MaxTries int    `hcl:"max_tries,optional"`
	Seed     *int64 `hcl:"seed,optional"`
	Verbose  bool   `hcl:"verbose,optional"`
	Archive  string `hcl:"archive,optional"`
	LogLevel string `hcl:"log_level,optional"`

	Predeals []PredealConfig `hcl:"predeal,block"`
	Accepts  []AcceptConfig  `hcl:"accept,block"`
	Lead     *LeadConfig     `hcl:"lead,block"`
	Solver   *SolverConfig   `hcl:"solver,block"`
}

// PredealConfig fixes one seat: either a hand or a smartstack.
type PredealConfig struct {
	Seat       string            `hcl:"seat,label"`
	Hand       string            `hcl:"hand,optional"`
	SmartStack *SmartStackConfig `hcl:"smartstack,block"`
}

// SmartStackConfig describes a smartstack. Evaluator names a standard
// evaluator (hcp, qp, controls); Weights overrides it.
type SmartStackConfig struct {
	Shape     string `hcl:"shape"`
	Evaluator string `hcl:"evaluator,optional"`
	Weights   []int  `hcl:"weights,optional"`
	Min       int    `hcl:"min"`
	Max       int    `hcl:"max"`
}

// AcceptConfig constrains one seat's hand. Ranges are [min, max] pairs;
// unset constraints accept anything.
type AcceptConfig struct {
	Seat     string `hcl:"seat,label"`
	Shape    string `hcl:"shape,optional"`
	HCP      []int  `hcl:"hcp,optional"`
	QP       []int  `hcl:"qp,optional"`
	Controls []int  `hcl:"controls,optional"`
	Spades   []int  `hcl:"spades,optional"`
	Hearts   []int  `hcl:"hearts,optional"`
	Diamonds []int  `hcl:"diamonds,optional"`
	Clubs    []int  `hcl:"clubs,optional"`
}

// LeadConfig sets up an opening lead simulation.
type LeadConfig struct {
	Contract string `hcl:"contract"`
	Scoring  string `hcl:"scoring,optional"`
	Vul      bool   `hcl:"vulnerable,optional"`
}

// SolverConfig names the double-dummy engine command.
type SolverConfig struct {
	Command string   `hcl:"command"`
	Args    []string `hcl:"args,optional"`
}

// Default returns the settings used when no run file is given.
func Default() *Config {
	return &Config{
		Deals:    10,
		LogLevel: "info",
	}
}

// Load reads and validates a run file.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes and validates run file source.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	def := Default()
	if config.Deals == 0 {
		config.Deals = def.Deals
	}
	if config.LogLevel == "" {
		config.LogLevel = def.LogLevel
	}
	if config.Lead != nil && config.Lead.Scoring == "" {
		config.Lead.Scoring = "imps"
	}
	for _, p := range config.Predeals {
		if p.SmartStack != nil && p.SmartStack.Evaluator == "" && len(p.SmartStack.Weights) == 0 {
			p.SmartStack.Evaluator = "hcp"
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the run file for errors that do not need a dealer.
func (c *Config) Validate() error {
	if c.Deals < 0 {
		return fmt.Errorf("invalid deals: %d", c.Deals)
	}
	if c.MaxTries < 0 {
		return fmt.Errorf("invalid max_tries: %d", c.MaxTries)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}

	seen := make(map[bridge.Seat]bool)
	for _, p := range c.Predeals {
		seat, err := bridge.ParseSeat(p.Seat)
		if err != nil {
			return fmt.Errorf("predeal: %w", err)
		}
		if seen[seat] {
			return fmt.Errorf("predeal %s given twice", seat.Name())
		}
		seen[seat] = true
		if (p.Hand == "") == (p.SmartStack == nil) {
			return fmt.Errorf("predeal %s: exactly one of hand or smartstack is required", seat.Name())
		}
		if p.SmartStack != nil {
			if p.SmartStack.Min > p.SmartStack.Max {
				return fmt.Errorf("predeal %s: smartstack min %d above max %d", seat.Name(), p.SmartStack.Min, p.SmartStack.Max)
			}
			if _, err := bridge.ParseShapeExpr(p.SmartStack.Shape); err != nil {
				return fmt.Errorf("predeal %s: %w", seat.Name(), err)
			}
			if _, err := evaluator(p.SmartStack); err != nil {
				return fmt.Errorf("predeal %s: %w", seat.Name(), err)
			}
		}
	}

	for _, a := range c.Accepts {
		seat, err := bridge.ParseSeat(a.Seat)
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		if a.Shape != "" {
			if _, err := bridge.ParseShapeExpr(a.Shape); err != nil {
				return fmt.Errorf("accept %s: %w", seat.Name(), err)
			}
		}
		for name, r := range a.ranges() {
			if _, err := toRange(r); err != nil {
				return fmt.Errorf("accept %s: %s: %w", seat.Name(), name, err)
			}
		}
	}

	if c.Lead != nil {
		if _, _, err := bridge.ParseContractDeclarer(c.Lead.Contract, c.Lead.Vul); err != nil {
			return fmt.Errorf("lead: %w", err)
		}
		switch c.Lead.Scoring {
		case "imps", "matchpoints":
		default:
			return fmt.Errorf("lead: invalid scoring %q", c.Lead.Scoring)
		}
	}
	if c.Solver != nil && c.Solver.Command == "" {
		return fmt.Errorf("solver: command is required")
	}
	return nil
}

func (a AcceptConfig) ranges() map[string][]int {
	return map[string][]int{
		"hcp":      a.HCP,
		"qp":       a.QP,
		"controls": a.Controls,
		"spades":   a.Spades,
		"hearts":   a.Hearts,
		"diamonds": a.Diamonds,
		"clubs":    a.Clubs,
	}
}

// toRange converts an optional [min, max] pair. A nil pair accepts
// everything.
func toRange(r []int) (bridge.Range, error) {
	switch {
	case r == nil:
		return bridge.AtLeast(0), nil
	case len(r) != 2:
		return bridge.Range{}, fmt.Errorf("want [min, max], got %d values", len(r))
	case r[0] > r[1]:
		return bridge.Range{}, fmt.Errorf("min %d above max %d", r[0], r[1])
	}
	return bridge.Between(r[0], r[1]), nil
}

func evaluator(s *SmartStackConfig) (bridge.Evaluator, error) {
	if len(s.Weights) > 0 {
		return bridge.NewEvaluator(s.Weights...)
	}
	switch strings.ToLower(s.Evaluator) {
	case "hcp":
		return bridge.HCP, nil
	case "qp":
		return bridge.QP, nil
	case "controls":
		return bridge.Controls, nil
	}
	return bridge.Evaluator{}, fmt.Errorf("unknown evaluator %q", s.Evaluator)
}

// Predeal builds the dealer predeal described by the run file.
func (c *Config) Predeal() (dealer.Predeal, error) {
	var p dealer.Predeal
	for _, pc := range c.Predeals {
		seat, err := bridge.ParseSeat(pc.Seat)
		if err != nil {
			return dealer.Predeal{}, fmt.Errorf("predeal: %w", err)
		}
		if pc.SmartStack == nil {
			if err := p.SetCards(seat, pc.Hand); err != nil {
				return dealer.Predeal{}, err
			}
			continue
		}
		shape, err := bridge.ParseShapeExpr(pc.SmartStack.Shape)
		if err != nil {
			return dealer.Predeal{}, fmt.Errorf("predeal %s: %w", seat.Name(), err)
		}
		eval, err := evaluator(pc.SmartStack)
		if err != nil {
			return dealer.Predeal{}, fmt.Errorf("predeal %s: %w", seat.Name(), err)
		}
		stack, err := smartstack.New(shape, eval, bridge.Between(pc.SmartStack.Min, pc.SmartStack.Max))
		if err != nil {
			return dealer.Predeal{}, fmt.Errorf("predeal %s: %w", seat.Name(), err)
		}
		p.SetStack(seat, stack)
	}
	return p, nil
}

type seatFilter struct {
	seat     bridge.Seat
	shape    *bridge.Shape
	hcp      bridge.Range
	qp       bridge.Range
	controls bridge.Range
	lengths  [bridge.NumSuits]bridge.Range
}

func (f seatFilter) accept(d bridge.Deal) bool {
	h := d.Hand(f.seat)
	if f.shape != nil && !f.shape.Accepts(h) {
		return false
	}
	if !f.hcp.Contains(h.HCP()) || !f.qp.Contains(h.QP()) || !f.controls.Contains(h.Controls()) {
		return false
	}
	for suit, r := range f.lengths {
		if !r.Contains(h.Len(bridge.Suit(suit))) {
			return false
		}
	}
	return true
}

// Accept compiles the accept blocks into a predicate that holds when every
// block does. It returns nil when there are no accept blocks.
func (c *Config) Accept() (func(bridge.Deal) bool, error) {
	if len(c.Accepts) == 0 {
		return nil, nil
	}
	filters := make([]seatFilter, 0, len(c.Accepts))
	for _, a := range c.Accepts {
		seat, err := bridge.ParseSeat(a.Seat)
		if err != nil {
			return nil, fmt.Errorf("accept: %w", err)
		}
		f := seatFilter{seat: seat}
		if a.Shape != "" {
			if f.shape, err = bridge.ParseShapeExpr(a.Shape); err != nil {
				return nil, fmt.Errorf("accept %s: %w", seat.Name(), err)
			}
		}
		if f.hcp, err = toRange(a.HCP); err != nil {
			return nil, fmt.Errorf("accept %s: hcp: %w", seat.Name(), err)
		}
		if f.qp, err = toRange(a.QP); err != nil {
			return nil, fmt.Errorf("accept %s: qp: %w", seat.Name(), err)
		}
		if f.controls, err = toRange(a.Controls); err != nil {
			return nil, fmt.Errorf("accept %s: controls: %w", seat.Name(), err)
		}
		for i, r := range [][]int{a.Spades, a.Hearts, a.Diamonds, a.Clubs} {
			if f.lengths[i], err = toRange(r); err != nil {
				return nil, fmt.Errorf("accept %s: %s: %w", seat.Name(), bridge.Suit(i), err)
			}
		}
		filters = append(filters, f)
	}
	return func(d bridge.Deal) bool {
		for _, f := range filters {
			if !f.accept(d) {
				return false
			}
		}
		return true
	}, nil
}
