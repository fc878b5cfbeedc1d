// Package bridge models the 52-card deck, hands and deals of contract bridge,
// together with the shape patterns, additive evaluators and contract scoring
// used to describe and score constrained deals.
package bridge

import (
	"fmt"
	"strings"
)

// Suit is one of the four suits, in their natural bridge order.
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// Domain sizes.
const (
	NumSuits = 4
	NumSeats = 4
	PerSuit  = 13
	DeckSize = NumSuits * PerSuit
)

const (
	suitChars = "SHDC"
	rankChars = "AKQJT98765432"
)

var suitSymbols = [NumSuits]string{"♠", "♥", "♦", "♣"}

// Suits lists the suits in natural order.
var Suits = [NumSuits]Suit{Spades, Hearts, Diamonds, Clubs}

// String returns the single-letter suit name ("S", "H", "D", "C").
func (s Suit) String() string {
	if s >= NumSuits {
		return "?"
	}
	return string(suitChars[s])
}

// Symbol returns the unicode suit symbol.
func (s Suit) Symbol() string {
	if s >= NumSuits {
		return "?"
	}
	return suitSymbols[s]
}

// ParseSuit parses a single suit letter, case-insensitively.
func ParseSuit(c byte) (Suit, error) {
	i := strings.IndexByte(suitChars, upper(c))
	if i < 0 {
		return 0, fmt.Errorf("unknown suit '%c'", c)
	}
	return Suit(i), nil
}

// Rank is a card rank. Index 0 is the Ace, 12 is the Two, so that ranks
// compare descending in the canonical order.
type Rank uint8

const (
	Ace Rank = iota
	King
	Queen
	Jack
	Ten
	Nine
	Eight
	Seven
	Six
	Five
	Four
	Three
	Two
)

// String returns the rank character (A, K, Q, J, T, 9..2).
func (r Rank) String() string {
	if r >= PerSuit {
		return "?"
	}
	return string(rankChars[r])
}

// ParseRank parses a single rank character, case-insensitively.
func ParseRank(c byte) (Rank, error) {
	i := strings.IndexByte(rankChars, upper(c))
	if i < 0 {
		return 0, fmt.Errorf("unknown rank '%c'", c)
	}
	return Rank(i), nil
}

// Card packs a suit and rank as suit*13 + rank. Ordering cards by value
// orders them by suit and then by rank descending.
type Card uint8

// NewCard creates a card from suit and rank.
func NewCard(suit Suit, rank Rank) Card {
	return Card(uint8(suit)*PerSuit + uint8(rank))
}

// Suit returns the suit of the card.
func (c Card) Suit() Suit { return Suit(uint8(c) / PerSuit) }

// Rank returns the rank of the card.
func (c Card) Rank() Rank { return Rank(uint8(c) % PerSuit) }

// Index returns the position of the card in the canonical deck (0-51).
func (c Card) Index() int { return int(c) }

// String returns the card as suit letter followed by rank, e.g. "SA".
func (c Card) String() string {
	if int(c) >= DeckSize {
		return "??"
	}
	return c.Suit().String() + c.Rank().String()
}

// ParseCard parses a card written as suit then rank, e.g. "SA" or "hT".
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid card string: %q", s)
	}
	suit, err := ParseSuit(s[0])
	if err != nil {
		return 0, err
	}
	rank, err := ParseRank(s[1])
	if err != nil {
		return 0, err
	}
	return NewCard(suit, rank), nil
}

// FullDeck returns the 52 cards in canonical order.
func FullDeck() []Card {
	cards := make([]Card, DeckSize)
	for i := range cards {
		cards[i] = Card(i)
	}
	return cards
}

// CardSet is a bitset over the 52 cards, bit i for Card(i).
type CardSet uint64

// NewCardSet creates a CardSet from a slice of cards.
func NewCardSet(cards []Card) CardSet {
	var cs CardSet
	for _, c := range cards {
		cs.Add(c)
	}
	return cs
}

// Add adds a card to the set.
func (cs *CardSet) Add(c Card) { *cs |= 1 << c }

// Contains reports whether the card is in the set.
func (cs CardSet) Contains(c Card) bool { return cs&(1<<c) != 0 }

// Seat is one of the four compass positions.
type Seat uint8

const (
	North Seat = iota
	East
	South
	West
)

const seatChars = "NESW"

var seatNames = [NumSeats]string{"North", "East", "South", "West"}

// Seats lists the seats in dealing order.
var Seats = [NumSeats]Seat{North, East, South, West}

// String returns the single-letter seat name.
func (s Seat) String() string {
	if s >= NumSeats {
		return "?"
	}
	return string(seatChars[s])
}

// Name returns the full seat name, e.g. "North".
func (s Seat) Name() string {
	if s >= NumSeats {
		return "?"
	}
	return seatNames[s]
}

// Next returns the seat to the left, which leads against a contract declared
// by s.
func (s Seat) Next() Seat { return (s + 1) % NumSeats }

// Partner returns the seat opposite.
func (s Seat) Partner() Seat { return (s + 2) % NumSeats }

// ParseSeat parses a seat letter or full seat name.
func ParseSeat(s string) (Seat, error) {
	if s == "" {
		return 0, fmt.Errorf("empty seat")
	}
	i := strings.IndexByte(seatChars, upper(s[0]))
	if i < 0 || (len(s) > 1 && !strings.EqualFold(s, seatNames[i])) {
		return 0, fmt.Errorf("unknown seat %q", s)
	}
	return Seat(i), nil
}

// Strain is a contract denomination: one of the four suits or no-trump.
type Strain uint8

const (
	StrainClubs Strain = iota
	StrainDiamonds
	StrainHearts
	StrainSpades
	NoTrump
)

const strainChars = "CDHSN"

// Strains lists the five denominations in ascending bidding order.
var Strains = [5]Strain{StrainClubs, StrainDiamonds, StrainHearts, StrainSpades, NoTrump}

// String returns the strain letter ("C", "D", "H", "S", "N").
func (s Strain) String() string {
	if int(s) >= len(strainChars) {
		return "?"
	}
	return string(strainChars[s])
}

// Trump returns the trump suit, or false for no-trump.
func (s Strain) Trump() (Suit, bool) {
	switch s {
	case StrainSpades:
		return Spades, true
	case StrainHearts:
		return Hearts, true
	case StrainDiamonds:
		return Diamonds, true
	case StrainClubs:
		return Clubs, true
	default:
		return 0, false
	}
}

// IsMinor reports whether the strain scores 20 per trick.
func (s Strain) IsMinor() bool { return s == StrainClubs || s == StrainDiamonds }

// ParseStrain parses a strain letter; "NT" is accepted for no-trump.
func ParseStrain(s string) (Strain, error) {
	if strings.EqualFold(s, "NT") {
		return NoTrump, nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("unknown strain %q", s)
	}
	i := strings.IndexByte(strainChars, upper(s[0]))
	if i < 0 {
		return 0, fmt.Errorf("unknown strain %q", s)
	}
	return Strain(i), nil
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
