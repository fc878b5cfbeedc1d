package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/dds"
	"github.com/lox/redeal/dealer"
	"github.com/lox/redeal/payoff"
)

// maxLeadSearch bounds the draws OpeningLead.Initial makes while looking
// for a first accepted deal.
const maxLeadSearch = 100000

// ErrLeaderNotPredealt is returned when the leader's whole hand is not fixed
// by the predeal. Leads are compared card by card, so every deal must give
// the leader the same 13 cards.
var ErrLeaderNotPredealt = errors.New("leader's hand must be fully predealt")

// OpeningLead compares the leader's possible opening leads against a
// contract. Each accepted deal is solved for every lead and the results are
// folded into a payoff table scored from the leader's side.
type OpeningLead struct {
	accept   func(bridge.Deal) bool
	contract bridge.Contract
	leader   bridge.Seat
	solver   dds.Solver
	diff     payoff.DiffFunc
	out      io.Writer
	logger   *log.Logger

	table *payoff.Table
}

// NewOpeningLead creates the simulation. The leader is declarer's
// left-hand opponent; diff is usually payoff.IMPs or payoff.Matchpoints.
// The report is written to out when the run ends.
func NewOpeningLead(accept func(bridge.Deal) bool, contract bridge.Contract, declarer bridge.Seat, solver dds.Solver, diff payoff.DiffFunc, out io.Writer, logger *log.Logger) *OpeningLead {
	if accept == nil {
		accept = func(bridge.Deal) bool { return true }
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &OpeningLead{
		accept:   accept,
		contract: contract,
		leader:   declarer.Next(),
		solver:   solver,
		diff:     diff,
		out:      out,
		logger:   logger.WithPrefix("lead"),
	}
}

// Leader returns the seat on lead.
func (s *OpeningLead) Leader() bridge.Seat { return s.leader }

// Table returns the payoff table, nil before Initial.
func (s *OpeningLead) Table() *payoff.Table { return s.table }

// Initial finds a first accepted deal and sets up one table entry per
// distinct lead from the leader's hand.
func (s *OpeningLead) Initial(ctx context.Context, d *dealer.Dealer) error {
	if n := d.Predealt(s.leader).NumCards(); n != bridge.PerSuit {
		return fmt.Errorf("%w: %s has %d predealt cards", ErrLeaderNotPredealt, s.leader.Name(), n)
	}
	for range maxLeadSearch {
		deal, err := d.Deal()
		if err != nil {
			return err
		}
		if !s.accept(deal) {
			continue
		}
		leads, err := s.solver.ValidLeads(ctx, deal, s.contract.Strain, s.leader)
		if err != nil {
			return fmt.Errorf("valid leads: %w", err)
		}
		sort.Slice(leads, func(i, j int) bool { return leads[i] < leads[j] })
		entries := make([]string, len(leads))
		for i, c := range leads {
			entries[i] = c.String()
		}
		// Scores are declarer's; negate them to score the defence.
		s.table, err = payoff.New(entries, func(a, b float64) float64 {
			return s.diff(-float64(s.contract.Score(int(a))), -float64(s.contract.Score(int(b))))
		})
		return err
	}
	return &dealer.ExhaustedError{Tries: maxLeadSearch}
}

// Accept applies the caller's predicate.
func (s *OpeningLead) Accept(deal bridge.Deal) bool { return s.accept(deal) }

// Do solves every lead on deal and records declarer's tricks.
func (s *OpeningLead) Do(ctx context.Context, deal bridge.Deal) error {
	tricks, err := deal.DDAllLeads(ctx, s.solver, s.contract.Strain, s.leader)
	if err != nil {
		return fmt.Errorf("all leads: %w", err)
	}
	all := dds.Expand(deal.Hand(s.leader), tricks)
	raw := make(map[string]float64, len(all))
	for c, n := range all {
		raw[c.String()] = float64(n)
	}
	return s.table.Add(raw)
}

// Final writes the payoff report.
func (s *OpeningLead) Final(int) {
	if s.table == nil || s.out == nil {
		return
	}
	fmt.Fprintf(s.out, "%s on lead against %s (%d deals)\n", s.leader.Name(), s.contract, s.table.Deals())
	if err := s.table.Report(s.out); err != nil {
		s.logger.Error("Failed to write lead report", "error", err)
	}
}
