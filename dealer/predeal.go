package dealer

import (
	"fmt"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/smartstack"
)

// Predeal fixes what some seats receive before each deal: either a known
// (possibly partial) hand or a SmartStack. The zero value predeals nothing.
type Predeal struct {
	seats [bridge.NumSeats]seatSpec
}

type seatSpec struct {
	hand  bridge.Hand
	stack *smartstack.Stack
}

// Set gives seat the cards of hand in every deal. Hands with fewer than 13
// cards are completed from the undealt cards.
func (p *Predeal) Set(seat bridge.Seat, hand bridge.Hand) {
	p.seats[seat] = seatSpec{hand: hand}
}

// SetCards parses cards in short notation ("AK2 QJ - T9876") and gives
// them to seat.
func (p *Predeal) SetCards(seat bridge.Seat, cards string) error {
	h, err := bridge.ParseHand(cards)
	if err != nil {
		return fmt.Errorf("predeal %s: %w", seat.Name(), err)
	}
	p.Set(seat, h)
	return nil
}

// SetStack deals seat a hand from stack in every deal.
func (p *Predeal) SetStack(seat bridge.Seat, stack *smartstack.Stack) {
	p.seats[seat] = seatSpec{stack: stack}
}

// Hand returns the cards predealt to seat.
func (p *Predeal) Hand(seat bridge.Seat) bridge.Hand { return p.seats[seat].hand }

// Stack returns the stack assigned to seat, or nil.
func (p *Predeal) Stack(seat bridge.Seat) *smartstack.Stack { return p.seats[seat].stack }
