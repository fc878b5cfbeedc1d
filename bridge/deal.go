package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrInvalidDeal is returned when hands overlap or do not form a full deal.
var ErrInvalidDeal = errors.New("invalid deal")

// TrickSolver computes double-dummy trick counts for declarer.
type TrickSolver interface {
	Tricks(ctx context.Context, deal Deal, strain Strain, declarer Seat) (int, error)
}

// LeadSolver reports declarer's tricks for every card the leader may
// lead.
type LeadSolver interface {
	AllLeads(ctx context.Context, deal Deal, strain Strain, leader Seat) (map[Card]int, error)
}

type ddKey struct {
	strain   Strain
	declarer Seat
}

// ddMemo caches solver results for the lifetime of one deal.
type ddMemo struct {
	mu     sync.Mutex
	tricks map[ddKey]int
}

// Deal is four hands in seat order (N, E, S, W). Deals are values; copies
// share the solver memo.
type Deal struct {
	hands [NumSeats]Hand
	memo  *ddMemo
}

// NewDeal creates a deal from four pairwise disjoint hands.
func NewDeal(hands [NumSeats]Hand) (Deal, error) {
	var seen CardSet
	for i, h := range hands {
		set := h.Set()
		if dup := seen & set; dup != 0 {
			return Deal{}, fmt.Errorf("%w: %s shares cards with another seat", ErrInvalidDeal, Seat(i).Name())
		}
		seen |= set
	}
	return Deal{hands: hands, memo: &ddMemo{tricks: make(map[ddKey]int)}}, nil
}

// Hand returns the hand held by the seat.
func (d Deal) Hand(s Seat) Hand { return d.hands[s] }

// Hands returns the four hands in seat order.
func (d Deal) Hands() [NumSeats]Hand { return d.hands }

// North returns North's hand.
func (d Deal) North() Hand { return d.hands[North] }

// East returns East's hand.
func (d Deal) East() Hand { return d.hands[East] }

// South returns South's hand.
func (d Deal) South() Hand { return d.hands[South] }

// West returns West's hand.
func (d Deal) West() Hand { return d.hands[West] }

// Validate checks that the deal has four 13-card hands that partition the
// full deck.
func (d Deal) Validate() error {
	var seen CardSet
	for i, h := range d.hands {
		if n := h.NumCards(); n != PerSuit {
			return fmt.Errorf("%w: %s has %d cards", ErrInvalidDeal, Seat(i).Name(), n)
		}
		set := h.Set()
		if seen&set != 0 {
			return fmt.Errorf("%w: %s shares cards with another seat", ErrInvalidDeal, Seat(i).Name())
		}
		seen |= set
	}
	if seen != 1<<DeckSize-1 {
		return fmt.Errorf("%w: hands do not cover the deck", ErrInvalidDeal)
	}
	return nil
}

// String returns the four hands on one line, using suit symbols.
func (d Deal) String() string {
	parts := make([]string, NumSeats)
	for i, h := range d.hands {
		parts[i] = h.Symbols()
	}
	return strings.Join(parts, " ")
}

// PBN returns the deal as a PBN deal string starting with North.
func (d Deal) PBN() string {
	parts := make([]string, NumSeats)
	for i, h := range d.hands {
		parts[i] = h.PBN()
	}
	return "N:" + strings.Join(parts, " ")
}

// ParsePBN parses a PBN deal string such as "N:AKQ.… … … …". Hands are
// listed clockwise from the named seat.
func ParsePBN(s string) (Deal, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[1] != ':' {
		return Deal{}, fmt.Errorf("%w: missing seat prefix in %q", ErrInvalidDeal, s)
	}
	first, err := ParseSeat(s[:1])
	if err != nil {
		return Deal{}, fmt.Errorf("%w: %v", ErrInvalidDeal, err)
	}
	fields := strings.Fields(s[2:])
	if len(fields) != NumSeats {
		return Deal{}, fmt.Errorf("%w: %d hands, want %d", ErrInvalidDeal, len(fields), NumSeats)
	}
	var hands [NumSeats]Hand
	for i, f := range fields {
		suits := strings.Split(f, ".")
		if len(suits) != NumSuits {
			return Deal{}, fmt.Errorf("%w: %q has %d suits", ErrInvalidHand, f, len(suits))
		}
		var hs [NumSuits]Holding
		for j, part := range suits {
			if hs[j], err = ParseHolding(part); err != nil {
				return Deal{}, err
			}
		}
		h, err := HandFromHoldings(hs[0], hs[1], hs[2], hs[3])
		if err != nil {
			return Deal{}, err
		}
		hands[(int(first)+i)%NumSeats] = h
	}
	return NewDeal(hands)
}

// Diagram renders the deal in compass layout. When seats are given, only
// those hands are shown.
func (d Deal) Diagram(seats ...Seat) string {
	show := [NumSeats]bool{true, true, true, true}
	if len(seats) > 0 {
		show = [NumSeats]bool{}
		for _, s := range seats {
			show[s] = true
		}
	}
	const indent = "       "
	var sb strings.Builder
	if show[North] {
		for _, line := range d.hands[North].Diagram() {
			sb.WriteString(indent + line + "\n")
		}
	}
	west, east := d.hands[West].Diagram(), d.hands[East].Diagram()
	for i := range west {
		w, e := "", ""
		if show[West] {
			w = west[i]
		}
		if show[East] {
			e = east[i]
		}
		sb.WriteString(padRight(w, 14) + e + "\n")
	}
	if show[South] {
		for _, line := range d.hands[South].Diagram() {
			sb.WriteString(indent + line + "\n")
		}
	}
	return sb.String()
}

func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// DDTricks returns declarer's double-dummy trick count, asking the solver
// at most once per (strain, declarer) for this deal.
func (d Deal) DDTricks(ctx context.Context, solver TrickSolver, strain Strain, declarer Seat) (int, error) {
	key := ddKey{strain: strain, declarer: declarer}
	if d.memo != nil {
		d.memo.mu.Lock()
		tricks, ok := d.memo.tricks[key]
		d.memo.mu.Unlock()
		if ok {
			return tricks, nil
		}
	}
	tricks, err := solver.Tricks(ctx, d, strain, declarer)
	if err != nil {
		return 0, err
	}
	if d.memo != nil {
		d.memo.mu.Lock()
		d.memo.tricks[key] = tricks
		d.memo.mu.Unlock()
	}
	return tricks, nil
}

// DDScore returns declarer's double-dummy score in the contract.
func (d Deal) DDScore(ctx context.Context, solver TrickSolver, contract Contract, declarer Seat) (int, error) {
	tricks, err := d.DDTricks(ctx, solver, contract.Strain, declarer)
	if err != nil {
		return 0, err
	}
	return contract.Score(tricks), nil
}

// DDAllLeads returns declarer's double-dummy tricks after each possible
// opening lead by leader.
func (d Deal) DDAllLeads(ctx context.Context, solver LeadSolver, strain Strain, leader Seat) (map[Card]int, error) {
	return solver.AllLeads(ctx, d, strain, leader)
}
