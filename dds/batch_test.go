package dds

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/dealer"
)

type hcpSolver struct {
	calls atomic.Int32
	fail  bool
}

func (s *hcpSolver) Tricks(_ context.Context, d bridge.Deal, _ bridge.Strain, declarer bridge.Seat) (int, error) {
	s.calls.Add(1)
	if s.fail {
		return 0, &Error{Op: "tricks", Code: FaultUnknown}
	}
	return fakeTricks(d, declarer), nil
}

func TestSolveAll(t *testing.T) {
	t.Parallel()
	d, err := dealer.Prepare(dealer.Predeal{}, dealer.WithSeed(11))
	require.NoError(t, err)
	deals := make([]bridge.Deal, 50)
	for i := range deals {
		deals[i], err = d.Deal()
		require.NoError(t, err)
	}

	a, b := &hcpSolver{}, &hcpSolver{}
	tricks, err := SolveAll(context.Background(), []bridge.TrickSolver{a, b}, deals, bridge.NoTrump, bridge.South)
	require.NoError(t, err)
	require.Len(t, tricks, len(deals))
	for i, deal := range deals {
		assert.Equal(t, fakeTricks(deal, bridge.South), tricks[i])
	}
	assert.Equal(t, int32(len(deals)), a.calls.Load()+b.calls.Load())

	// Results are memoised on the deals.
	_, err = SolveAll(context.Background(), []bridge.TrickSolver{a}, deals, bridge.NoTrump, bridge.South)
	require.NoError(t, err)
	assert.Equal(t, int32(len(deals)), a.calls.Load()+b.calls.Load())
}

func TestSolveAllError(t *testing.T) {
	t.Parallel()
	d, err := dealer.Prepare(dealer.Predeal{}, dealer.WithSeed(12))
	require.NoError(t, err)
	deals := make([]bridge.Deal, 10)
	for i := range deals {
		deals[i], err = d.Deal()
		require.NoError(t, err)
	}

	_, err = SolveAll(context.Background(), []bridge.TrickSolver{&hcpSolver{fail: true}}, deals, bridge.StrainSpades, bridge.North)
	var ddsErr *Error
	assert.True(t, errors.As(err, &ddsErr))

	_, err = SolveAll(context.Background(), nil, deals, bridge.NoTrump, bridge.North)
	assert.Error(t, err)
}
