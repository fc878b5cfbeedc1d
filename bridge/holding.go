package bridge

import (
	"fmt"
	"math/bits"
	"strings"
)

// Holding is the set of ranks one hand holds in one suit, bit i set for
// Rank(i). The Ace is bit 0.
type Holding uint16

// FullHolding contains all thirteen ranks.
const FullHolding Holding = 1<<PerSuit - 1

// NewHolding creates a holding from ranks.
func NewHolding(ranks ...Rank) Holding {
	var h Holding
	for _, r := range ranks {
		h |= 1 << r
	}
	return h
}

// ParseHolding parses ranks such as "AKT2"; "-" or "" is a void.
func ParseHolding(s string) (Holding, error) {
	if s == "-" {
		return 0, nil
	}
	var h Holding
	for i := 0; i < len(s); i++ {
		r, err := ParseRank(s[i])
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidHand, err)
		}
		if h.Has(r) {
			return 0, fmt.Errorf("%w: rank %s repeated in %q", ErrInvalidHand, r, s)
		}
		h |= 1 << r
	}
	return h, nil
}

// Len returns the number of cards in the holding.
func (h Holding) Len() int { return bits.OnesCount16(uint16(h)) }

// Has reports whether the holding contains the rank.
func (h Holding) Has(r Rank) bool { return h&(1<<r) != 0 }

// With returns the holding with the rank added.
func (h Holding) With(r Rank) Holding { return h | 1<<r }

// Union returns the ranks held in either holding.
func (h Holding) Union(other Holding) Holding { return h | other }

// Intersect returns the ranks held in both holdings.
func (h Holding) Intersect(other Holding) Holding { return h & other }

// Without returns the holding minus the ranks of other.
func (h Holding) Without(other Holding) Holding { return h &^ other }

// Ranks returns the held ranks, highest first.
func (h Holding) Ranks() []Rank {
	ranks := make([]Rank, 0, h.Len())
	for m := uint16(h); m != 0; m &= m - 1 {
		ranks = append(ranks, Rank(bits.TrailingZeros16(m)))
	}
	return ranks
}

// String returns the ranks highest first, or "" for a void.
func (h Holding) String() string {
	var sb strings.Builder
	for m := uint16(h); m != 0; m &= m - 1 {
		sb.WriteByte(rankChars[bits.TrailingZeros16(m)])
	}
	return sb.String()
}

// halfLosers counts losing-trick-count losers in half units.
func (h Holding) halfLosers() int {
	n := h.Len()
	if n == 0 {
		return 0
	}
	losers := 0
	if !h.Has(Ace) {
		losers += 2
	}
	if n >= 2 && !h.Has(King) {
		losers += 2
	}
	if n >= 3 {
		if !h.Has(Queen) {
			losers += 2
		} else if losers == 4 && !h.Has(Jack) && !h.Has(Ten) {
			losers++
		}
	}
	return losers
}

// Losers returns the losing-trick count of the holding. Qxx with neither
// Jack nor Ten counts half a loser more than Qxx with one of them.
func (h Holding) Losers() float64 { return float64(h.halfLosers()) / 2 }
