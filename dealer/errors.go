package dealer

import (
	"errors"
	"fmt"
)

var (
	// ErrMultipleStacks is returned when more than one seat uses a SmartStack.
	ErrMultipleStacks = errors.New("at most one seat may use a smartstack")
	// ErrDuplicateCard is returned when a card is predealt to two seats.
	ErrDuplicateCard = errors.New("card predealt twice")
	// ErrInvalidTries is returned when an accept predicate is given no try
	// budget.
	ErrInvalidTries = errors.New("invalid try budget")
	// ErrExhausted is returned when the try budget runs out before enough
	// deals were accepted.
	ErrExhausted = errors.New("try budget exhausted")
)

// ExhaustedError reports how far a run got before its budget ran out.
type ExhaustedError struct {
	Tries  int
	Found  int
	Wanted int
}

func (e *ExhaustedError) Error() string {
	if e.Wanted > 0 {
		return fmt.Sprintf("%v: found %d of %d deals after %d tries", ErrExhausted, e.Found, e.Wanted, e.Tries)
	}
	return fmt.Sprintf("%v: no deal accepted after %d tries", ErrExhausted, e.Tries)
}

// Unwrap returns ErrExhausted.
func (e *ExhaustedError) Unwrap() error { return ErrExhausted }
