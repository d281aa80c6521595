// Package app is the main cmd app
package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/htol/bookstore/config"
	"github.com/htol/bookstore/logger"
	"github.com/htol/bookstore/repo"
	"github.com/htol/bookstore/seed"
	"github.com/htol/bookstore/suggest"
	"github.com/htol/bookstore/telemetry"
)

const usage = "usage: bookstore [-p port] [-c config.yaml] <serve|migrate [up|down]|seed|shell>"

func CLI(args []string) int {
	app := appEnv{in: os.Stdin, out: os.Stdout}
	if err := app.fromArgs(args); err != nil {
		fmt.Println(err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.run(ctx); err != nil {
		logger.Error("Runtime error", "error", err)
		return 1
	}
	return 0
}

type appEnv struct {
	config  *config.Config
	cmd     string
	cmdArgs []string
	in      io.Reader
	out     io.Writer
}

func (app *appEnv) fromArgs(args []string) error {
	fl := flag.NewFlagSet("bookstore", flag.ContinueOnError)
	fl.Usage = func() { fmt.Fprintln(fl.Output(), usage) }

	port := fl.Int("p", 0, "Port number (overrides config)")
	configPath := fl.String("c", os.Getenv("CONFIG_FILE"), "Path to YAML config file")

	if err := fl.Parse(args); err != nil {
		return err
	}

	if fl.NArg() < 1 {
		fl.Usage()
		return fmt.Errorf("please provide a command to run")
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return err
	}
	// CLI flags override config file and environment variables
	if *port > 0 {
		cfg.Server.Port = *port
	}

	app.cmd = fl.Arg(0)
	app.cmdArgs = fl.Args()[1:]
	app.config = cfg
	return nil
}

func (app *appEnv) run(ctx context.Context) error {
	logger.Init(app.config.LogLevel)

	switch app.cmd {
	case "serve", "migrate", "seed", "shell":
	default:
		return fmt.Errorf("unknown command %s", app.cmd)
	}

	storage, err := repo.Open(app.config.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logger.Error("Error closing storage", "error", err)
		}
	}()

	switch app.cmd {
	case "migrate":
		return app.migrate(ctx, storage)
	case "seed":
		if err := storage.Migrate(ctx); err != nil {
			return err
		}
		_, err := seed.Run(ctx, storage, seed.DefaultOptions())
		return err
	case "serve":
		if err := storage.Migrate(ctx); err != nil {
			return err
		}
		shutdown, err := telemetry.Init(app.config.Tracing)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("Error flushing traces", "error", err)
			}
		}()
		return NewServer(storage, app.config).ListenAndServe(ctx)
	case "shell":
		if err := storage.Migrate(ctx); err != nil {
			return err
		}
		sh := newShell(newService(storage, app.config), app.config.Dashboard.PageSize, app.in, app.out,
			suggest.WithDebounce(time.Duration(app.config.Dashboard.SuggestDebounce)*time.Millisecond),
			suggest.WithMinLength(app.config.Dashboard.SuggestMinLength),
		)
		return sh.Run(ctx)
	}
	return nil
}

func (app *appEnv) migrate(ctx context.Context, storage *repo.Repo) error {
	direction := "up"
	if len(app.cmdArgs) > 0 {
		direction = app.cmdArgs[0]
	}

	switch direction {
	case "up":
		if err := storage.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("Migration up completed", "driver", storage.Driver())
	case "down":
		if err := storage.Drop(ctx); err != nil {
			return err
		}
		logger.Info("Migration down completed", "driver", storage.Driver())
	default:
		return fmt.Errorf("unknown migrate direction %q (want up or down)", direction)
	}
	return nil
}
