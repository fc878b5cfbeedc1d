// Package dds talks to an external double-dummy solver.
//
// The solver is a black box: given a deal, a strain and a seat it reports
// declarer's trick count under perfect play, or the trick count after each
// possible opening lead. Faults reported by the engine surface as *Error
// values carrying the engine's status code; a trick count of zero is always
// a real result.
package dds

import (
	"context"
	"errors"
	"fmt"

	"github.com/lox/redeal/bridge"
)

// ErrUnavailable is returned when the solver engine cannot be started or
// has gone away.
var ErrUnavailable = errors.New("dds: solver unavailable")

// Solver computes double-dummy results.
type Solver interface {
	bridge.TrickSolver
	bridge.LeadSolver
	// ValidLeads returns leader's distinct legal opening leads: one card
	// from each run of touching cards.
	ValidLeads(ctx context.Context, deal bridge.Deal, strain bridge.Strain, leader bridge.Seat) ([]bridge.Card, error)
}

// Fault is a status code reported by the solver engine.
type Fault int

// Engine status codes.
const (
	FaultNone              Fault = 1
	FaultUnknown           Fault = -1
	FaultZeroCards         Fault = -2
	FaultTargetTooHigh     Fault = -3
	FaultDuplicateCards    Fault = -4
	FaultTargetTooLow      Fault = -5
	FaultTargetOver13      Fault = -7
	FaultSolutionsTooFew   Fault = -8
	FaultSolutionsTooMany  Fault = -9
	FaultTooManyCards      Fault = -10
	FaultBadCurrentTrick   Fault = -12
	FaultPlayedCardRemains Fault = -13
	FaultWrongRemaining    Fault = -14
	FaultThreadIndex       Fault = -15
)

var faultMessages = map[Fault]string{
	FaultNone:              "no fault",
	FaultUnknown:           "unknown fault",
	FaultZeroCards:         "zero cards",
	FaultTargetTooHigh:     "target > tricks left",
	FaultDuplicateCards:    "duplicated cards",
	FaultTargetTooLow:      "target < -1",
	FaultTargetOver13:      "target > 13",
	FaultSolutionsTooFew:   "solutions < 1",
	FaultSolutionsTooMany:  "solutions > 3",
	FaultTooManyCards:      "> 52 cards",
	FaultBadCurrentTrick:   "invalid current trick suit or rank",
	FaultPlayedCardRemains: "card played in current trick is also remaining",
	FaultWrongRemaining:    "wrong number of remaining cards in a hand",
	FaultThreadIndex:       "thread index out of range",
}

func (f Fault) String() string {
	if msg, ok := faultMessages[f]; ok {
		return msg
	}
	return fmt.Sprintf("fault %d", int(f))
}

// Error is a fault reported by the engine for one request.
type Error struct {
	Op   string
	Code Fault
}

func (e *Error) Error() string {
	return fmt.Sprintf("dds %s failed with status %d (%s)", e.Op, int(e.Code), e.Code)
}

// Runs splits leader's holding in suit into runs of touching cards,
// highest first. Cards in one run are equivalent as opening leads.
func Runs(h bridge.Hand, suit bridge.Suit) [][]bridge.Card {
	var runs [][]bridge.Card
	var cur []bridge.Card
	hol := h.Holding(suit)
	for r := bridge.Ace; r <= bridge.Two; r++ {
		if hol.Has(r) {
			cur = append(cur, bridge.NewCard(suit, r))
			continue
		}
		if len(cur) > 0 {
			runs = append(runs, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}

// Expand copies each run's result to every card of the run, so that the
// map has an entry for every card leader holds. Runs with no solved card
// are left out.
func Expand(h bridge.Hand, tricks map[bridge.Card]int) map[bridge.Card]int {
	out := make(map[bridge.Card]int, h.NumCards())
	for _, suit := range bridge.Suits {
		for _, run := range Runs(h, suit) {
			n, ok := 0, false
			for _, c := range run {
				if n, ok = tricks[c]; ok {
					break
				}
			}
			if !ok {
				continue
			}
			for _, c := range run {
				out[c] = n
			}
		}
	}
	return out
}
