package bridge

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidHand is returned for malformed hand specifications.
var ErrInvalidHand = errors.New("invalid hand")

// Hand is an immutable 4-tuple of holdings, one per suit.
type Hand struct {
	suits [NumSuits]Holding
}

// NewHand creates a hand from at most 13 distinct cards.
func NewHand(cards ...Card) (Hand, error) {
	if len(cards) > PerSuit {
		return Hand{}, fmt.Errorf("%w: %d cards, at most %d allowed", ErrInvalidHand, len(cards), PerSuit)
	}
	var h Hand
	for _, c := range cards {
		if int(c) >= DeckSize {
			return Hand{}, fmt.Errorf("%w: card %d out of range", ErrInvalidHand, c)
		}
		if h.Contains(c) {
			return Hand{}, fmt.Errorf("%w: card %s repeated", ErrInvalidHand, c)
		}
		h.suits[c.Suit()] = h.suits[c.Suit()].With(c.Rank())
	}
	return h, nil
}

// HandFromHoldings creates a hand from its spade, heart, diamond and club
// holdings.
func HandFromHoldings(spades, hearts, diamonds, clubs Holding) (Hand, error) {
	h := Hand{suits: [NumSuits]Holding{spades, hearts, diamonds, clubs}}
	for i, hol := range h.suits {
		if hol&^FullHolding != 0 {
			return Hand{}, fmt.Errorf("%w: bad holding in suit %s", ErrInvalidHand, Suit(i))
		}
	}
	if h.NumCards() > PerSuit {
		return Hand{}, fmt.Errorf("%w: %d cards, at most %d allowed", ErrInvalidHand, h.NumCards(), PerSuit)
	}
	return h, nil
}

// ParseHand parses the short notation "AK432 K87 QJT54 -": four
// whitespace-separated holdings in suit order, "-" for a void.
func ParseHand(s string) (Hand, error) {
	groups := strings.Fields(s)
	if len(groups) != NumSuits {
		return Hand{}, fmt.Errorf("%w: %q has %d suit groups, want %d", ErrInvalidHand, s, len(groups), NumSuits)
	}
	var hs [NumSuits]Holding
	for i, g := range groups {
		h, err := ParseHolding(g)
		if err != nil {
			return Hand{}, err
		}
		hs[i] = h
	}
	return HandFromHoldings(hs[0], hs[1], hs[2], hs[3])
}

// MustParseHand parses a hand and panics on error (for tests and constants).
func MustParseHand(s string) Hand {
	h, err := ParseHand(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse hand '%s': %v", s, err))
	}
	return h
}

// Holding returns the holding in the given suit.
func (h Hand) Holding(s Suit) Holding { return h.suits[s] }

// Spades returns the spade holding.
func (h Hand) Spades() Holding { return h.suits[Spades] }

// Hearts returns the heart holding.
func (h Hand) Hearts() Holding { return h.suits[Hearts] }

// Diamonds returns the diamond holding.
func (h Hand) Diamonds() Holding { return h.suits[Diamonds] }

// Clubs returns the club holding.
func (h Hand) Clubs() Holding { return h.suits[Clubs] }

// Len returns the length of the hand in the given suit.
func (h Hand) Len(s Suit) int { return h.suits[s].Len() }

// Shape returns the suit lengths in suit order.
func (h Hand) Shape() [NumSuits]int {
	return [NumSuits]int{h.suits[0].Len(), h.suits[1].Len(), h.suits[2].Len(), h.suits[3].Len()}
}

// NumCards returns the number of cards in the hand.
func (h Hand) NumCards() int {
	n := 0
	for _, hol := range h.suits {
		n += hol.Len()
	}
	return n
}

// Contains reports whether the hand holds the card.
func (h Hand) Contains(c Card) bool { return h.suits[c.Suit()].Has(c.Rank()) }

// Cards returns the cards in canonical order.
func (h Hand) Cards() []Card {
	cards := make([]Card, 0, h.NumCards())
	for s, hol := range h.suits {
		for _, r := range hol.Ranks() {
			cards = append(cards, NewCard(Suit(s), r))
		}
	}
	return cards
}

// Set returns the hand as a card bitset.
func (h Hand) Set() CardSet {
	var cs CardSet
	for s, hol := range h.suits {
		cs |= CardSet(hol) << (uint(s) * PerSuit)
	}
	return cs
}

// HCP returns the high-card point count (4-3-2-1).
func (h Hand) HCP() int { return HCP.Hand(h) }

// QP returns the quick-point count (3-2-1).
func (h Hand) QP() int { return QP.Hand(h) }

// Controls returns the control count (A=2, K=1).
func (h Hand) Controls() int { return Controls.Hand(h) }

// Losers returns the losing-trick count.
func (h Hand) Losers() float64 {
	half := 0
	for _, hol := range h.suits {
		half += hol.halfLosers()
	}
	return float64(half) / 2
}

func (h Hand) sortedShape() [NumSuits]int {
	shape := h.Shape()
	sort.Sort(sort.Reverse(sort.IntSlice(shape[:])))
	return shape
}

// Longest returns the length of the longest suit.
func (h Hand) Longest() int { return h.sortedShape()[0] }

// Second returns the length of the second longest suit.
func (h Hand) Second() int { return h.sortedShape()[1] }

// Third returns the length of the third longest suit.
func (h Hand) Third() int { return h.sortedShape()[2] }

// Shortest returns the length of the shortest suit.
func (h Hand) Shortest() int { return h.sortedShape()[3] }

// String returns the short notation accepted by ParseHand.
func (h Hand) String() string {
	parts := make([]string, NumSuits)
	for i, hol := range h.suits {
		if hol == 0 {
			parts[i] = "-"
		} else {
			parts[i] = hol.String()
		}
	}
	return strings.Join(parts, " ")
}

// Symbols returns the hand on one line with suit symbols, e.g. "♠AK4♥…".
func (h Hand) Symbols() string {
	var sb strings.Builder
	for i, hol := range h.suits {
		sb.WriteString(suitSymbols[i])
		sb.WriteString(hol.String())
	}
	return sb.String()
}

// Diagram returns the hand with one suit per line.
func (h Hand) Diagram() []string {
	lines := make([]string, NumSuits)
	for i, hol := range h.suits {
		lines[i] = suitSymbols[i] + hol.String()
	}
	return lines
}

// PBN returns the dot-separated holdings used in PBN deal strings.
func (h Hand) PBN() string {
	parts := make([]string, NumSuits)
	for i, hol := range h.suits {
		parts[i] = hol.String()
	}
	return strings.Join(parts, ".")
}
