package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/log"
)

// setupInterrupts asks a run to stop at the first interrupt, so partial
// results are still reported, and cancels the returned context at the
// second.
func setupInterrupts(logger *log.Logger) (context.Context, *atomic.Bool, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	stop := new(atomic.Bool)

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigChan:
				if stop.Swap(true) {
					logger.Warn("Received second signal, aborting", "signal", sig.String())
					cancel()
					return
				}
				logger.Info("Received signal, finishing up", "signal", sig.String())
			case <-done:
				return
			}
		}
	}()

	return ctx, stop, func() {
		signal.Stop(sigChan)
		close(done)
		cancel()
	}
}
