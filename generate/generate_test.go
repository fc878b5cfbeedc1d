package generate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/dealer"
)

func newDealer(t *testing.T, seed int64) *dealer.Dealer {
	t.Helper()
	d, err := dealer.Prepare(dealer.Predeal{}, dealer.WithSeed(seed))
	require.NoError(t, err)
	return d
}

func TestRunAlwaysReject(t *testing.T) {
	t.Parallel()
	finalTries := -1
	var done int
	res, err := Run(context.Background(), newDealer(t, 1), Config{
		Count:    3,
		MaxTries: 250,
		Accept:   func(bridge.Deal) bool { return false },
		Do:       func(bridge.Deal) error { done++; return nil },
		Final:    func(tries int) { finalTries = tries },
	})
	require.ErrorIs(t, err, dealer.ErrExhausted)
	assert.True(t, IsExhausted(err))
	var exhausted *dealer.ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 250, exhausted.Tries)
	assert.Equal(t, 0, exhausted.Found)
	assert.Equal(t, 3, exhausted.Wanted)

	assert.Equal(t, 250, res.Tries)
	assert.Equal(t, 0, res.Found)
	assert.Equal(t, 250, finalTries)
	assert.Zero(t, done)
}

func TestRunAlwaysAccept(t *testing.T) {
	t.Parallel()
	var initial, callbacks int
	finalTries := -1
	res, err := Run(context.Background(), newDealer(t, 2), Config{
		Count:   5,
		Accept:  func(bridge.Deal) bool { return true },
		Initial: func() error { initial++; return nil },
		Do: func(d bridge.Deal) error {
			callbacks++
			return d.Validate()
		},
		Final: func(tries int) { finalTries = tries },
	})
	require.NoError(t, err)
	assert.Equal(t, 1, initial)
	assert.Equal(t, 5, callbacks)
	assert.Equal(t, 5, res.Found)
	assert.Equal(t, 5, res.Tries)
	assert.Equal(t, 5, finalTries)
	assert.False(t, res.Cancelled)
}

func TestRunDefaultBudget(t *testing.T) {
	t.Parallel()
	res, err := Run(context.Background(), newDealer(t, 3), Config{
		Count:  2,
		Accept: func(bridge.Deal) bool { return false },
	})
	assert.ErrorIs(t, err, dealer.ErrExhausted)
	assert.Equal(t, 2*DefaultTriesPerDeal, res.Tries)
}

func TestRunFiltersDeals(t *testing.T) {
	t.Parallel()
	var seen []bridge.Deal
	res, err := Run(context.Background(), newDealer(t, 4), Config{
		Count:  10,
		Accept: func(d bridge.Deal) bool { return d.North().HCP() >= 12 },
		Do:     func(d bridge.Deal) error { seen = append(seen, d); return nil },
	})
	require.NoError(t, err)
	require.Len(t, seen, 10)
	for _, d := range seen {
		assert.GreaterOrEqual(t, d.North().HCP(), 12)
	}
	assert.GreaterOrEqual(t, res.Tries, 10)
}

func TestRunStopFlag(t *testing.T) {
	t.Parallel()
	var stop atomic.Bool
	finalCalled := false
	res, err := Run(context.Background(), newDealer(t, 5), Config{
		Count: 100,
		Stop:  &stop,
		Do: func(bridge.Deal) error {
			stop.Store(true)
			return nil
		},
		Final: func(int) { finalCalled = true },
	})
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, 1, res.Found)
	assert.Equal(t, 1, res.Tries)
	assert.True(t, finalCalled)
}

func TestRunContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	finalCalled := false
	res, err := Run(ctx, newDealer(t, 6), Config{
		Count: 100,
		Do: func(bridge.Deal) error {
			cancel()
			return nil
		},
		Final: func(int) { finalCalled = true },
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.Cancelled)
	assert.Equal(t, 1, res.Found)
	assert.True(t, finalCalled)
}

func TestRunHookErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	finalCalled := false
	_, err := Run(context.Background(), newDealer(t, 7), Config{
		Count:   1,
		Initial: func() error { return boom },
		Final:   func(int) { finalCalled = true },
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, finalCalled)

	res, err := Run(context.Background(), newDealer(t, 7), Config{
		Count: 3,
		Do:    func(bridge.Deal) error { return boom },
		Final: func(int) { finalCalled = true },
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, res.Found)
	assert.True(t, finalCalled)

	_, err = Run(context.Background(), newDealer(t, 7), Config{Count: -1})
	assert.Error(t, err)
}

type failingSource struct{ err error }

func (s failingSource) Deal() (bridge.Deal, error) { return bridge.Deal{}, s.err }

func TestRunSourceError(t *testing.T) {
	t.Parallel()
	boom := errors.New("no deal")
	res, err := Run(context.Background(), failingSource{err: boom}, Config{Count: 1})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, res.Tries)
}

// clockSource advances a mock clock by one second on selected tries.
type clockSource struct {
	t     *testing.T
	d     *dealer.Dealer
	clock *quartz.Mock
	at    map[int]bool
	tries int
}

func (s *clockSource) Deal() (bridge.Deal, error) {
	s.tries++
	if s.at[s.tries] {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.clock.Advance(time.Second).MustWait(ctx)
	}
	return s.d.Deal()
}

func TestRunProgress(t *testing.T) {
	t.Parallel()
	mockClock := quartz.NewMock(t)
	src := &clockSource{t: t, d: newDealer(t, 8), clock: mockClock, at: map[int]bool{10: true, 20: true}}

	var progress []Progress
	res, err := Run(context.Background(), src, Config{
		Count:            1,
		MaxTries:         30,
		Accept:           func(bridge.Deal) bool { return false },
		ProgressInterval: time.Second,
		OnProgress:       func(p Progress) { progress = append(progress, p) },
		Clock:            mockClock,
	})
	require.ErrorIs(t, err, dealer.ErrExhausted)
	assert.Equal(t, 30, res.Tries)
	assert.Equal(t, 2*time.Second, res.Elapsed)

	require.Len(t, progress, 2)
	assert.Equal(t, 10, progress[0].Tries)
	assert.Equal(t, time.Second, progress[0].Elapsed)
	assert.Equal(t, 20, progress[1].Tries)
	assert.Equal(t, 2*time.Second, progress[1].Elapsed)
}
