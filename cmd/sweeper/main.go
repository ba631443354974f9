// Command sweeper runs the scheduled transitions of the auction engine:
// ending expired auctions, expiring unpaid winners and expiring unanswered
// waterfall offers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/iliyamo/live-auction/internal/app"
	"github.com/iliyamo/live-auction/internal/config"
	"github.com/iliyamo/live-auction/internal/scheduler"
	"github.com/iliyamo/live-auction/internal/utils"
)

func main() {
	sweepCfg := config.LoadSweeperConfig()
	cliApp := &cli.App{
		Name:  "sweeper",
		Usage: "run scheduled auction sweeps",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "interval", Value: sweepCfg.Interval, Usage: "time between sweep rounds"},
			&cli.IntFlag{Name: "batch", Value: sweepCfg.Batch, Usage: "maximum auctions or offers per sweep"},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "sweep on every interval until interrupted",
				Action: func(c *cli.Context) error {
					return withRunner(c, func(ctx context.Context, r *scheduler.Runner) error {
						err := r.Run(ctx)
						if ctx.Err() != nil {
							return nil
						}
						return err
					})
				},
			},
			{
				Name:  "once",
				Usage: "run a single sweep round and exit",
				Action: func(c *cli.Context) error {
					return withRunner(c, func(ctx context.Context, r *scheduler.Runner) error {
						return r.RunOnce(ctx)
					})
				},
			},
		},
	}
	if err := cliApp.Run(os.Args); err != nil {
		utils.Fatal("sweeper failed", map[string]any{"error": err.Error()})
	}
}

func withRunner(c *cli.Context, fn func(ctx context.Context, r *scheduler.Runner) error) error {
	cfg := config.Load()
	utils.SetLogLevel(cfg.LogLevel)
	a, err := app.Build(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, scheduler.NewRunner(a.Service, c.Duration("interval"), c.Int("batch")))
}
