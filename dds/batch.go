package dds

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/lox/redeal/bridge"
)

// SolveAll computes declarer's tricks for every deal, spreading the deals
// over the given solvers with one worker per solver. Results are in deal
// order. The first error cancels the remaining work.
func SolveAll(ctx context.Context, solvers []bridge.TrickSolver, deals []bridge.Deal, strain bridge.Strain, declarer bridge.Seat) ([]int, error) {
	if len(solvers) == 0 {
		return nil, errors.New("dds: no solvers")
	}
	tricks := make([]int, len(deals))
	jobs := make(chan int)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range deals {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for _, solver := range solvers {
		g.Go(func() error {
			for i := range jobs {
				n, err := deals[i].DDTricks(ctx, solver, strain, declarer)
				if err != nil {
					return err
				}
				tricks[i] = n
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tricks, nil
}
