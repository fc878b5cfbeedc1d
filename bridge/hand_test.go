package bridge

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHand(t *testing.T) {
	t.Parallel()
	h, err := ParseHand("AK432 K87 QJT54 -")
	require.NoError(t, err)
	assert.Equal(t, [NumSuits]int{5, 3, 5, 0}, h.Shape())
	assert.Equal(t, 13, h.NumCards())
	assert.Equal(t, 13, h.HCP())
	assert.True(t, h.Contains(NewCard(Spades, Ace)))
	assert.False(t, h.Contains(NewCard(Clubs, Ace)))
	assert.Equal(t, 5, h.Longest())
	assert.Equal(t, 5, h.Second())
	assert.Equal(t, 3, h.Third())
	assert.Equal(t, 0, h.Shortest())
}

func TestParseHandErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
	}{
		{name: "three groups", input: "AK432 K87 QJT54"},
		{name: "five groups", input: "A K Q J T"},
		{name: "bad rank", input: "AK1 - - -"},
		{name: "repeated rank", input: "AA - - -"},
		{name: "too many cards", input: "AKQJT98765432 A - -"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseHand(tc.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidHand)
		})
	}
}

func TestHandRoundTrip(t *testing.T) {
	t.Parallel()
	for _, s := range []string{
		"AK432 K87 QJT54 -",
		"- - - AKQJT98765432",
		"T9 8765 432 AKQJ",
	} {
		h := MustParseHand(s)
		assert.Equal(t, s, h.String())
		back, err := ParseHand(h.String())
		require.NoError(t, err)
		assert.Equal(t, h, back)
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		deck := FullDeck()
		rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
		h, err := NewHand(deck[:13]...)
		require.NoError(t, err)
		back, err := ParseHand(h.String())
		require.NoError(t, err)
		assert.Equal(t, h, back)
		assert.ElementsMatch(t, deck[:13], back.Cards())
	}
}

func TestNewHandRejectsDuplicates(t *testing.T) {
	t.Parallel()
	_, err := NewHand(NewCard(Spades, Ace), NewCard(Spades, Ace))
	assert.ErrorIs(t, err, ErrInvalidHand)

	_, err = NewHand(FullDeck()[:14]...)
	assert.ErrorIs(t, err, ErrInvalidHand)
}

func TestHandCardsOrder(t *testing.T) {
	t.Parallel()
	h := MustParseHand("KA - 2 -")
	assert.Equal(t, []Card{NewCard(Spades, Ace), NewCard(Spades, King), NewCard(Diamonds, Two)}, h.Cards())
	assert.Equal(t, "♠AK♥♦2♣", h.Symbols())
	assert.Equal(t, "AK..2.", h.PBN())
}

func TestLosers(t *testing.T) {
	t.Parallel()
	tests := []struct {
		holding string
		want    float64
	}{
		{"-", 0},
		{"A", 0},
		{"K", 1},
		{"AK", 0},
		{"KQ", 1},
		{"32", 2},
		{"AKQ", 0},
		{"AKQ32", 0},
		{"Q32", 2.5},
		{"QJ2", 2},
		{"QT2", 2},
		{"AQ2", 1},
		{"432", 3},
	}
	for _, tc := range tests {
		h, err := ParseHolding(tc.holding)
		require.NoError(t, err)
		assert.Equal(t, tc.want, h.Losers(), tc.holding)
	}

	hand := MustParseHand("AKQ32 Q32 K2 43")
	assert.Equal(t, 0+2.5+1+2, hand.Losers())
}
