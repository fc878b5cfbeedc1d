package smartstack

import (
	"testing"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binomial(n, k int) uint64 {
	if k < 0 || k > n {
		return 0
	}
	r := uint64(1)
	for i := 1; i <= k; i++ {
		r = r * uint64(n-k+i) / uint64(i)
	}
	return r
}

func TestNewRejectsNil(t *testing.T) {
	t.Parallel()
	_, err := New(nil, bridge.HCP, bridge.Exactly(10))
	assert.Error(t, err)
	_, err = New(bridge.Balanced, nil, bridge.Exactly(10))
	assert.Error(t, err)
	_, err = New(bridge.Balanced, bridge.HCP, nil)
	assert.Error(t, err)
}

func TestUnconstrainedStackCoversAllHands(t *testing.T) {
	t.Parallel()
	s, err := New(bridge.MustShape("xxxx"), bridge.HCP, bridge.AtLeast(0))
	require.NoError(t, err)
	sampler, err := s.Compile(nil)
	require.NoError(t, err)
	assert.Equal(t, binomial(52, 13), sampler.Total())

	want := float64(binomial(13, 4)*binomial(13, 3)*binomial(13, 3)*binomial(13, 3)) / float64(binomial(52, 13))
	assert.InDelta(t, want, sampler.Probability([bridge.NumSuits]int{4, 3, 3, 3}), 1e-12)
	assert.Zero(t, sampler.Probability([bridge.NumSuits]int{13, 1, 0, 0}))
}

func TestStackExactness(t *testing.T) {
	t.Parallel()
	s, err := New(bridge.MustShape("4441"), bridge.HCP, bridge.Exactly(16))
	require.NoError(t, err)
	sampler, err := s.Compile(nil)
	require.NoError(t, err)
	assert.Greater(t, sampler.Patterns(), 0)
	assert.InDelta(t, 1.0, sampler.Probability([bridge.NumSuits]int{4, 4, 4, 1}), 1e-12)

	rng := randutil.New(1)
	for range 2000 {
		h := sampler.Draw(rng)
		require.Equal(t, [bridge.NumSuits]int{4, 4, 4, 1}, h.Shape(), h.String())
		require.Equal(t, 16, h.HCP(), h.String())
	}
}

func TestStackRespectsPredealt(t *testing.T) {
	t.Parallel()
	s, err := New(bridge.Balanced, bridge.HCP, bridge.Between(15, 17))
	require.NoError(t, err)
	predealt := bridge.MustParseHand("AKQ2 AJ2 KQ2 432").Cards()
	sampler, err := s.Compile(predealt)
	require.NoError(t, err)

	used := bridge.NewCardSet(predealt)
	rng := randutil.New(2)
	for range 1000 {
		h := sampler.Draw(rng)
		require.True(t, bridge.Balanced.Accepts(h))
		require.True(t, bridge.Between(15, 17).Contains(h.HCP()))
		require.Zero(t, h.Set()&used, h.String())
	}
}

func TestCompileCachedPerPredealt(t *testing.T) {
	t.Parallel()
	s, err := New(bridge.Balanced, bridge.HCP, bridge.Between(15, 17))
	require.NoError(t, err)
	a := bridge.MustParseHand("AKQ2 - - -").Cards()
	b := bridge.MustParseHand("- AKQ2 - -").Cards()

	first, err := s.Compile(a)
	require.NoError(t, err)
	again, err := s.Compile([]bridge.Card{a[3], a[1], a[0], a[2]})
	require.NoError(t, err)
	assert.Same(t, first, again)

	other, err := s.Compile(b)
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestEmptyStack(t *testing.T) {
	t.Parallel()
	s, err := New(bridge.MustShape("4441"), bridge.HCP, bridge.Exactly(38))
	require.NoError(t, err)
	_, err = s.Compile(nil)
	assert.ErrorIs(t, err, ErrEmptyStack)

	spades, err := New(bridge.MustShape("7xxx"), bridge.HCP, bridge.AtLeast(0))
	require.NoError(t, err)
	_, err = spades.Compile(bridge.MustParseHand("AKQJT98 - - -").Cards())
	assert.ErrorIs(t, err, ErrEmptyStack)
}

func TestCustomScorer(t *testing.T) {
	t.Parallel()
	// Number of suits headed by AKQ.
	solid := ScorerFunc(func(h bridge.Holding) int {
		top := bridge.NewHolding(bridge.Ace, bridge.King, bridge.Queen)
		if h.Intersect(top) == top {
			return 1
		}
		return 0
	})
	s, err := New(bridge.MustShape("xxxx"), solid, bridge.AtLeast(2))
	require.NoError(t, err)
	sampler, err := s.Compile(nil)
	require.NoError(t, err)
	rng := randutil.New(3)
	for range 200 {
		h := sampler.Draw(rng)
		n := 0
		for _, suit := range bridge.Suits {
			n += solid(h.Holding(suit))
		}
		require.GreaterOrEqual(t, n, 2, h.String())
	}
}

// Sixteen cards remain undealt; exactly seven 4-4-4-1 hands with 17 HCP can
// be built from them. Each must be drawn equally often.
func TestStackUniformity(t *testing.T) {
	t.Parallel()
	left := bridge.MustParseHand("AK32 AQ32 KJ32 -").Cards()
	left = append(left, bridge.MustParseHand("- - - A432").Cards()...)
	remaining := bridge.NewCardSet(left)
	var predealt []bridge.Card
	for _, c := range bridge.FullDeck() {
		if !remaining.Contains(c) {
			predealt = append(predealt, c)
		}
	}
	require.Len(t, predealt, 36)

	shape := bridge.MustShape("(4441)")
	target := bridge.Exactly(17)

	// Brute force: choose the 3 cards left out.
	expected := make(map[string]int)
	for i := 0; i < len(left); i++ {
		for j := i + 1; j < len(left); j++ {
			for k := j + 1; k < len(left); k++ {
				var cards []bridge.Card
				for x, c := range left {
					if x != i && x != j && x != k {
						cards = append(cards, c)
					}
				}
				h, err := bridge.NewHand(cards...)
				require.NoError(t, err)
				if shape.Accepts(h) && target.Contains(h.HCP()) {
					expected[h.String()] = 0
				}
			}
		}
	}
	require.Len(t, expected, 7)

	s, err := New(shape, bridge.HCP, target)
	require.NoError(t, err)
	sampler, err := s.Compile(predealt)
	require.NoError(t, err)
	require.Equal(t, uint64(7), sampler.Total())

	const draws = 14000
	rng := randutil.New(20240601)
	for range draws {
		h := sampler.Draw(rng)
		_, ok := expected[h.String()]
		require.True(t, ok, "unexpected hand %s", h)
		expected[h.String()]++
	}

	mean := float64(draws) / float64(len(expected))
	chi2 := 0.0
	for _, n := range expected {
		d := float64(n) - mean
		chi2 += d * d / mean
	}
	// 99.9th percentile of chi-square with 6 degrees of freedom.
	assert.Less(t, chi2, 22.46)
}
