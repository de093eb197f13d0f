package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"astrascore/internal/app"
	"astrascore/internal/config"
)

func main() {
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:  "astrascore",
		Usage: "scoreboards and festival standings",
		Commands: []*cli.Command{
			serveCommand(),
			seedCommand(),
			reconcileCommand(),
			festivalCommand(),
			boardCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// withApp loads the configuration, opens the store and hands the wired app to
// fn. The store is closed when fn returns.
func withApp(c *cli.Context, fn func(a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	a, err := app.New(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close store", "error", err)
		}
	}()
	return fn(a)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API with the timer scheduler and festival reconciler",
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app.App) error {
				return a.Serve(c.Context)
			})
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "write the demo events into a store that was never initialized",
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app.App) error {
				did, err := a.Events.Seed(c.Context)
				if err != nil {
					return err
				}
				if did {
					fmt.Fprintln(c.App.Writer, "demo events written")
				} else {
					fmt.Fprintln(c.App.Writer, "store already initialized, nothing written")
				}
				return nil
			})
		},
	}
}

func reconcileCommand() *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "re-project festival boards into standalone events",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "festival", Usage: "only reconcile this festival id"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app.App) error {
				var (
					n   int
					err error
				)
				if id := c.String("festival"); id != "" {
					n, err = a.Festivals.Reconcile(c.Context, id)
				} else {
					n, err = a.Festivals.ReconcileAll(c.Context)
				}
				fmt.Fprintf(c.App.Writer, "%d boards written\n", n)
				return err
			})
		},
	}
}

func festivalCommand() *cli.Command {
	return &cli.Command{
		Name:  "festival",
		Usage: "festival maintenance",
		Subcommands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "save festivals from a YAML file (one festival per document)",
				ArgsUsage: "<file.yaml>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("expected exactly one YAML file", 2)
					}
					f, err := os.Open(c.Args().First())
					if err != nil {
						return err
					}
					defer f.Close()

					return withApp(c, func(a *app.App) error {
						saved, err := app.ImportFestivals(c.Context, a.Festivals, f)
						for _, fest := range saved {
							fmt.Fprintf(c.App.Writer, "%s\t%s\n", fest.ID, fest.Name)
						}
						return err
					})
				},
			},
		},
	}
}

func boardCommand() *cli.Command {
	return &cli.Command{
		Name:  "board",
		Usage: "show an event's scoreboard in the terminal, refreshed on every change",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "event id", Required: true},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app.App) error {
				return app.FollowBoard(c.Context, a.Events, c.String("id"), a.Config.PollInterval, c.App.Writer)
			})
		},
	}
}
