package main

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/lox/redeal/dds"
)

// startSolvers launches n engine processes. The returned function closes
// them all.
func startSolvers(ctx context.Context, command string, args []string, n int, logger *log.Logger) ([]*dds.Process, func(), error) {
	if n < 1 {
		n = 1
	}
	procs := make([]*dds.Process, 0, n)
	closeAll := func() {
		for _, p := range procs {
			if err := p.Close(); err != nil {
				logger.Warn("Failed to stop solver", "id", p.ID, "error", err)
			}
		}
	}
	for range n {
		p := dds.NewProcess(command, args, logger)
		if err := p.Start(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		procs = append(procs, p)
	}
	logger.Debug("Started solvers", "command", command, "count", n)
	return procs, closeAll, nil
}

var errNoSolver = errors.New("no solver configured: pass --solver or add a solver block to the run file")
