package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"catbattle/internal/config"
	"catbattle/internal/serverapp"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

var cli struct {
	Config  string `short:"c" help:"Configuration file path" default:"catbattle.yml" type:"path"`
	EnvFile string `help:"Dotenv file loaded before the config" default:".env"`
}

func main() {
	kong.Parse(&cli, kong.Description("Serve cat card battle progress over HTTP."))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	if err := godotenv.Load(cli.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", cli.EnvFile, err)
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := cfg.Log.NewLogger(stdout)

	app, err := serverapp.Open(serverapp.Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer app.Close()
	logger.Info("storage ready", "backend", cfg.Storage.Backend, "key", cfg.Storage.Key)

	srv := app.Server()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTP.Addr, "routes", len(srv.Routes()))
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
