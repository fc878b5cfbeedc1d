package bridge

import (
	"fmt"
	"math"
)

// Evaluator is an additive per-rank weighting. Weights are indexed by rank,
// Ace first.
type Evaluator struct {
	weights [PerSuit]int
}

// Standard evaluators.
var (
	HCP      = MustEvaluator(4, 3, 2, 1)
	QP       = MustEvaluator(3, 2, 1)
	Controls = MustEvaluator(2, 1)
)

// NewEvaluator creates an evaluator from weights listed from the Ace down.
// Ranks not listed weigh zero.
func NewEvaluator(weights ...int) (Evaluator, error) {
	if len(weights) > PerSuit {
		return Evaluator{}, fmt.Errorf("evaluator has %d weights, at most %d allowed", len(weights), PerSuit)
	}
	var e Evaluator
	copy(e.weights[:], weights)
	return e, nil
}

// MustEvaluator creates an evaluator and panics on error.
func MustEvaluator(weights ...int) Evaluator {
	e, err := NewEvaluator(weights...)
	if err != nil {
		panic(err)
	}
	return e
}

// Weights returns the per-rank weights, Ace first.
func (e Evaluator) Weights() [PerSuit]int { return e.weights }

// Holding returns the sum of the weights of the held ranks.
func (e Evaluator) Holding(h Holding) int {
	total := 0
	for _, r := range h.Ranks() {
		total += e.weights[r]
	}
	return total
}

// Hand returns the sum of the evaluation of each holding.
func (e Evaluator) Hand(h Hand) int {
	total := 0
	for _, hol := range h.suits {
		total += e.Holding(hol)
	}
	return total
}

// Range is an inclusive range of evaluator totals.
type Range struct {
	Min int
	Max int
}

// Between returns the range [lo, hi].
func Between(lo, hi int) Range { return Range{Min: lo, Max: hi} }

// Exactly returns the range containing only v.
func Exactly(v int) Range { return Range{Min: v, Max: v} }

// AtLeast returns the range [v, +inf).
func AtLeast(v int) Range { return Range{Min: v, Max: math.MaxInt} }

// AtMost returns the range (-inf, v].
func AtMost(v int) Range { return Range{Min: math.MinInt, Max: v} }

// Contains reports whether v lies in the range.
func (r Range) Contains(v int) bool { return v >= r.Min && v <= r.Max }

func (r Range) String() string {
	switch {
	case r.Min == r.Max:
		return fmt.Sprintf("=%d", r.Min)
	case r.Min == math.MinInt:
		return fmt.Sprintf("<=%d", r.Max)
	case r.Max == math.MaxInt:
		return fmt.Sprintf(">=%d", r.Min)
	default:
		return fmt.Sprintf("%d..%d", r.Min, r.Max)
	}
}
