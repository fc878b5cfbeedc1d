// Package dealer turns a predeal specification into random deals.
package dealer

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/internal/randutil"
	"github.com/lox/redeal/smartstack"
)

// Option configures a Dealer.
type Option func(*Dealer)

// WithRand sets the random source.
func WithRand(rng *rand.Rand) Option {
	return func(d *Dealer) { d.rng = rng }
}

// WithSeed seeds a reproducible random source.
func WithSeed(seed int64) Option {
	return func(d *Dealer) { d.rng = randutil.New(seed) }
}

// WithAccept makes Deal redraw until accept returns true, giving up after
// maxTries draws. maxTries must be positive.
func WithAccept(accept func(bridge.Deal) bool, maxTries int) Option {
	return func(d *Dealer) {
		d.accept = accept
		d.maxTries = maxTries
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(d *Dealer) { d.logger = logger }
}

// Dealer produces random deals consistent with a predeal. A Dealer is not
// safe for concurrent use; give each goroutine its own.
type Dealer struct {
	fixed     [bridge.NumSeats]bridge.Hand
	stackSeat bridge.Seat
	sampler   *smartstack.Sampler
	remaining []bridge.Card

	pool     []bridge.Card
	rng      *rand.Rand
	accept   func(bridge.Deal) bool
	maxTries int
	logger   *log.Logger
}

// Prepare validates p and builds a dealer for it. At most one seat may use
// a SmartStack, and no card may be predealt twice. A stack that no hand can
// satisfy is reported here as smartstack.ErrEmptyStack.
func Prepare(p Predeal, opts ...Option) (*Dealer, error) {
	d := &Dealer{}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = randutil.New(randutil.Seed())
	}
	if d.logger == nil {
		d.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	d.logger = d.logger.WithPrefix("dealer")
	if d.accept != nil && d.maxTries <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTries, d.maxTries)
	}

	var stack *smartstack.Stack
	var used bridge.CardSet
	var predealt []bridge.Card
	for _, seat := range bridge.Seats {
		spec := p.seats[seat]
		if spec.stack != nil {
			if stack != nil {
				return nil, fmt.Errorf("%w: %s and %s", ErrMultipleStacks, d.stackSeat.Name(), seat.Name())
			}
			stack = spec.stack
			d.stackSeat = seat
			continue
		}
		for _, c := range spec.hand.Cards() {
			if used.Contains(c) {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateCard, c)
			}
			used.Add(c)
			predealt = append(predealt, c)
		}
		d.fixed[seat] = spec.hand
	}

	for _, c := range bridge.FullDeck() {
		if !used.Contains(c) {
			d.remaining = append(d.remaining, c)
		}
	}
	d.pool = make([]bridge.Card, 0, len(d.remaining))

	if stack != nil {
		sampler, err := stack.Compile(predealt)
		if err != nil {
			return nil, fmt.Errorf("smartstack for %s: %w", d.stackSeat.Name(), err)
		}
		d.sampler = sampler
		d.logger.Debug("compiled smartstack", "seat", d.stackSeat, "hands", sampler.Total(), "patterns", sampler.Patterns())
	}
	d.logger.Debug("prepared", "predealt", len(predealt), "remaining", len(d.remaining))
	return d, nil
}

// Reseed replaces the random source with one seeded from seed.
func (d *Dealer) Reseed(seed int64) { d.rng = randutil.New(seed) }

// Predealt returns the cards fixed for seat. A SmartStack seat has none.
func (d *Dealer) Predealt(seat bridge.Seat) bridge.Hand { return d.fixed[seat] }

// Remaining returns the number of cards not fixed by the predeal.
func (d *Dealer) Remaining() int { return len(d.remaining) }

// StackSeat returns the seat dealt from the SmartStack, if any.
func (d *Dealer) StackSeat() (bridge.Seat, bool) { return d.stackSeat, d.sampler != nil }

// Deal returns the next random deal. With an accept predicate it redraws
// until the predicate holds and returns an *ExhaustedError once the try
// budget is spent.
func (d *Dealer) Deal() (bridge.Deal, error) {
	if d.accept == nil {
		return d.deal()
	}
	for try := 1; try <= d.maxTries; try++ {
		deal, err := d.deal()
		if err != nil {
			return bridge.Deal{}, err
		}
		if d.accept(deal) {
			return deal, nil
		}
	}
	return bridge.Deal{}, &ExhaustedError{Tries: d.maxTries}
}

func (d *Dealer) deal() (bridge.Deal, error) {
	var hands [bridge.NumSeats]bridge.Hand
	d.pool = d.pool[:0]
	if d.sampler != nil {
		stacked := d.sampler.Draw(d.rng)
		hands[d.stackSeat] = stacked
		taken := stacked.Set()
		for _, c := range d.remaining {
			if !taken.Contains(c) {
				d.pool = append(d.pool, c)
			}
		}
	} else {
		d.pool = append(d.pool, d.remaining...)
	}

	// Fisher-Yates
	for i := len(d.pool) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.pool[i], d.pool[j] = d.pool[j], d.pool[i]
	}

	next := 0
	for _, seat := range bridge.Seats {
		if d.sampler != nil && seat == d.stackSeat {
			continue
		}
		need := bridge.PerSuit - d.fixed[seat].NumCards()
		cards := append(d.fixed[seat].Cards(), d.pool[next:next+need]...)
		next += need
		h, err := bridge.NewHand(cards...)
		if err != nil {
			return bridge.Deal{}, err
		}
		hands[seat] = h
	}
	return bridge.NewDeal(hands)
}
