package main

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `help:"Show version"`
	LogLevel string           `short:"l" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`

	Deal  DealCmd  `cmd:"" help:"Generate deals matching predeals and constraints"`
	Shape ShapeCmd `cmd:"" help:"List the suit-length patterns matched by a shape expression"`
	Score ScoreCmd `cmd:"" help:"Score a contract, or compare two scores in IMPs"`
	Lead  LeadCmd  `cmd:"" help:"Compare opening leads against a contract with a double-dummy solver"`
}

// Globals carries what every command needs from main.
type Globals struct {
	Ctx    context.Context
	Stop   *atomic.Bool
	Out    io.Writer
	Logger *log.Logger
	Clock  quartz.Clock
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("redeal"),
		kong.Description("Constrained random bridge deal generator"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	logger := newLogger(os.Stderr, cli.LogLevel)
	sigCtx, stop, cleanup := setupInterrupts(logger)

	err := ctx.Run(&Globals{
		Ctx:    sigCtx,
		Stop:   stop,
		Out:    os.Stdout,
		Logger: logger,
		Clock:  quartz.NewReal(),
	})
	cleanup()
	ctx.FatalIfErrorf(err)
}
