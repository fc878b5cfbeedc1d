// Package generate drives a dealer until enough deals pass an acceptance
// predicate or the try budget runs out.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/dealer"
)

// DefaultTriesPerDeal is the try budget per requested deal when
// Config.MaxTries is zero.
const DefaultTriesPerDeal = 1000

// Source produces deals. *dealer.Dealer implements Source.
type Source interface {
	Deal() (bridge.Deal, error)
}

// Progress is a snapshot of a running loop.
type Progress struct {
	Found   int
	Tries   int
	Elapsed time.Duration
}

// Config controls one run of the loop. Only Count is required.
type Config struct {
	Count    int
	MaxTries int

	// Accept filters deals; nil accepts everything.
	Accept func(bridge.Deal) bool
	// Do is called for every accepted deal. An error stops the run.
	Do func(bridge.Deal) error
	// Initial runs once before the first deal.
	Initial func() error
	// Final runs once after the loop with the number of tries used,
	// whether the loop finished, ran out of tries or was cancelled.
	Final func(tries int)

	// Stop is polled once per try; setting it ends the run early.
	Stop *atomic.Bool

	Verbose          bool
	ProgressInterval time.Duration
	OnProgress       func(Progress)

	Clock  quartz.Clock
	Logger *log.Logger
}

// Result summarises a run.
type Result struct {
	Found     int
	Tries     int
	Cancelled bool
	Elapsed   time.Duration
}

// Run draws deals from src until cfg.Count are accepted, cfg.MaxTries are
// used, or the run is cancelled. Running out of tries returns a
// *dealer.ExhaustedError alongside the partial Result. Cancellation through
// ctx returns ctx.Err(); cancellation through cfg.Stop returns no error.
// Errors from src or cfg.Do abort the run.
func Run(ctx context.Context, src Source, cfg Config) (res Result, err error) {
	if cfg.Count < 0 {
		return res, fmt.Errorf("invalid deal count %d", cfg.Count)
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = DefaultTriesPerDeal * cfg.Count
	}
	if cfg.MaxTries < 0 {
		return res, fmt.Errorf("invalid try budget %d", cfg.MaxTries)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	logger = logger.WithPrefix("generate")

	start := clock.Now()
	if cfg.Initial != nil {
		if err := cfg.Initial(); err != nil {
			return res, fmt.Errorf("initial hook: %w", err)
		}
	}
	defer func() {
		res.Elapsed = clock.Since(start)
		if cfg.Final != nil {
			cfg.Final(res.Tries)
		}
	}()

	var ticks <-chan time.Time
	if cfg.ProgressInterval > 0 && cfg.OnProgress != nil {
		ticker := clock.NewTicker(cfg.ProgressInterval, "generate", "progress")
		defer ticker.Stop()
		ticks = ticker.C
	}

	for res.Found < cfg.Count && res.Tries < cfg.MaxTries {
		if err := ctx.Err(); err != nil {
			res.Cancelled = true
			logger.Debug("cancelled", "found", res.Found, "tries", res.Tries)
			return res, err
		}
		if cfg.Stop != nil && cfg.Stop.Load() {
			res.Cancelled = true
			logger.Debug("stopped", "found", res.Found, "tries", res.Tries)
			return res, nil
		}
		select {
		case <-ticks:
			cfg.OnProgress(Progress{Found: res.Found, Tries: res.Tries, Elapsed: clock.Since(start)})
		default:
		}

		deal, err := src.Deal()
		res.Tries++
		if err != nil {
			return res, fmt.Errorf("deal %d: %w", res.Tries, err)
		}
		if cfg.Accept != nil && !cfg.Accept(deal) {
			continue
		}
		res.Found++
		if cfg.Verbose {
			logger.Info("found deal", "found", res.Found, "tries", res.Tries)
		}
		if cfg.Do != nil {
			if err := cfg.Do(deal); err != nil {
				return res, fmt.Errorf("deal %d: %w", res.Found, err)
			}
		}
	}

	if res.Found < cfg.Count {
		logger.Warn("try budget exhausted", "found", res.Found, "wanted", cfg.Count, "tries", res.Tries)
		return res, &dealer.ExhaustedError{Tries: res.Tries, Found: res.Found, Wanted: cfg.Count}
	}
	logger.Debug("done", "found", res.Found, "tries", res.Tries)
	return res, nil
}

// IsExhausted reports whether err means the try budget ran out.
func IsExhausted(err error) bool { return errors.Is(err, dealer.ErrExhausted) }
