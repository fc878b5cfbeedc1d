// Package smartstack samples hands uniformly from the set of hands that
// match a shape and an additive evaluator target, without rejection.
package smartstack

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/lox/redeal/bridge"
)

// ErrEmptyStack is returned when no hand satisfies the stack's constraints
// given the predealt cards.
var ErrEmptyStack = errors.New("smartstack: no hand satisfies the constraints")

// Scorer values a single-suit holding. Hand values are the sum over suits.
// bridge.Evaluator implements Scorer.
type Scorer interface {
	Holding(h bridge.Holding) int
}

// ScorerFunc adapts a function to Scorer. The function must be additive
// across suits for the sampler to be exact.
type ScorerFunc func(h bridge.Holding) int

// Holding calls f(h).
func (f ScorerFunc) Holding(h bridge.Holding) int { return f(h) }

// Target is the accepted set of hand values. bridge.Range implements Target.
type Target interface {
	Contains(v int) bool
}

// Stack is a SmartStack specification: a shape, a scorer and the accepted
// hand values. The compiled sampler is cached per predealt-card set.
type Stack struct {
	shape  *bridge.Shape
	scorer Scorer
	target Target

	mu       sync.Mutex
	key      [bridge.NumSuits]bridge.Holding
	compiled *Sampler
}

// New validates and creates a stack specification.
func New(shape *bridge.Shape, scorer Scorer, target Target) (*Stack, error) {
	switch {
	case shape == nil:
		return nil, errors.New("smartstack: nil shape")
	case scorer == nil:
		return nil, errors.New("smartstack: nil scorer")
	case target == nil:
		return nil, errors.New("smartstack: nil target")
	}
	return &Stack{shape: shape, scorer: scorer, target: target}, nil
}

// Shape returns the stack's shape.
func (s *Stack) Shape() *bridge.Shape { return s.shape }

// Scorer returns the stack's scorer.
func (s *Stack) Scorer() Scorer { return s.scorer }

// Target returns the stack's accepted values.
func (s *Stack) Target() Target { return s.target }

func (s *Stack) String() string {
	return fmt.Sprintf("smartstack(%d shapes, %v)", s.shape.Len(), s.target)
}

// Compile builds the weighted sampler for hands that avoid the predealt
// cards. Calling it again with the same set of cards returns the cached
// sampler; a different set rebuilds it.
func (s *Stack) Compile(predealt []bridge.Card) (*Sampler, error) {
	var key [bridge.NumSuits]bridge.Holding
	for _, c := range predealt {
		key[c.Suit()] = key[c.Suit()].With(c.Rank())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.compiled != nil && s.key == key {
		return s.compiled, nil
	}
	sampler, err := s.build(key)
	if err != nil {
		return nil, err
	}
	s.key = key
	s.compiled = sampler
	return sampler, nil
}

// bucket holds the holdings of one suit sharing a length and a value.
type bucket struct {
	length   int
	value    int
	holdings []bridge.Holding
}

// combo is one bucket per suit; every hand built from it has the same
// shape and value.
type combo struct {
	buckets [bridge.NumSuits]*bucket
	weight  uint64
}

func (c combo) lengths() [bridge.NumSuits]int {
	var l [bridge.NumSuits]int
	for i, b := range c.buckets {
		l[i] = b.length
	}
	return l
}

func (s *Stack) build(used [bridge.NumSuits]bridge.Holding) (*Sampler, error) {
	minLs, maxLs := s.shape.MinLengths(), s.shape.MaxLengths()

	// byLen[suit][length] lists that suit's buckets of the given length.
	var byLen [bridge.NumSuits][bridge.PerSuit + 1][]*bucket
	for suit := range bridge.NumSuits {
		index := make(map[[2]int]*bucket)
		for h := bridge.Holding(0); h <= bridge.FullHolding; h++ {
			if h.Intersect(used[suit]) != 0 {
				continue
			}
			n := h.Len()
			if n < minLs[suit] || n > maxLs[suit] {
				continue
			}
			v := s.scorer.Holding(h)
			k := [2]int{n, v}
			b, ok := index[k]
			if !ok {
				b = &bucket{length: n, value: v}
				index[k] = b
				byLen[suit][n] = append(byLen[suit][n], b)
			}
			b.holdings = append(b.holdings, h)
		}
	}

	var combos []combo
	for l0 := minLs[0]; l0 <= maxLs[0]; l0++ {
		for l1 := minLs[1]; l1 <= maxLs[1] && l0+l1 <= bridge.PerSuit; l1++ {
			for l2 := minLs[2]; l2 <= maxLs[2] && l0+l1+l2 <= bridge.PerSuit; l2++ {
				l3 := bridge.PerSuit - l0 - l1 - l2
				if l3 < minLs[3] || l3 > maxLs[3] {
					continue
				}
				if !s.shape.Contains([bridge.NumSuits]int{l0, l1, l2, l3}) {
					continue
				}
				for _, b0 := range byLen[0][l0] {
					for _, b1 := range byLen[1][l1] {
						for _, b2 := range byLen[2][l2] {
							for _, b3 := range byLen[3][l3] {
								if !s.target.Contains(b0.value + b1.value + b2.value + b3.value) {
									continue
								}
								combos = append(combos, combo{
									buckets: [bridge.NumSuits]*bucket{b0, b1, b2, b3},
									weight: uint64(len(b0.holdings)) * uint64(len(b1.holdings)) *
										uint64(len(b2.holdings)) * uint64(len(b3.holdings)),
								})
							}
						}
					}
				}
			}
		}
	}
	if len(combos) == 0 {
		return nil, ErrEmptyStack
	}

	cumsum := make([]uint64, len(combos))
	var total uint64
	for i, c := range combos {
		total += c.weight
		cumsum[i] = total
	}
	return &Sampler{combos: combos, cumsum: cumsum, total: total}, nil
}

// Sampler draws hands uniformly from a compiled stack. It is read-only
// after construction and safe for concurrent use with separate sources.
type Sampler struct {
	combos []combo
	cumsum []uint64
	total  uint64
}

// Total returns the number of distinct hands the sampler can produce.
func (s *Sampler) Total() uint64 { return s.total }

// Patterns returns the number of (shape, per-suit value) combinations with
// at least one hand.
func (s *Sampler) Patterns() int { return len(s.combos) }

// Probability returns the chance that a drawn hand has the given suit
// lengths.
func (s *Sampler) Probability(lengths [bridge.NumSuits]int) float64 {
	var w uint64
	for _, c := range s.combos {
		if c.lengths() == lengths {
			w += c.weight
		}
	}
	return float64(w) / float64(s.total)
}

// Draw returns a hand chosen uniformly among all hands the stack accepts.
func (s *Sampler) Draw(rng *rand.Rand) bridge.Hand {
	r := rng.Uint64N(s.total)
	i := sort.Search(len(s.cumsum), func(i int) bool { return s.cumsum[i] > r })
	c := s.combos[i]

	var hs [bridge.NumSuits]bridge.Holding
	for suit, b := range c.buckets {
		hs[suit] = b.holdings[rng.IntN(len(b.holdings))]
	}
	h, err := bridge.HandFromHoldings(hs[0], hs[1], hs[2], hs[3])
	if err != nil {
		panic(fmt.Sprintf("smartstack: drew invalid hand: %v", err))
	}
	return h
}
