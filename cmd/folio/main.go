// Command folio serves the portfolio site.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"

	"github.com/eringen/folio"
)

const shutdownGrace = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := folio.LoadConfig()
	if err != nil {
		return eris.Wrap(err, "loading configuration")
	}

	logger, err := folio.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "initialising logger")
	}

	flush, err := folio.InitSentry(logger, cfg.SentryDSN, cfg.Environment)
	if err != nil {
		return eris.Wrap(err, "initialising sentry")
	}
	defer flush()

	app := folio.New(cfg, folio.WithLogger(logger))
	if err := app.Open(); err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.WithError(err).Error("closing app")
		}
	}()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- app.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}
	logger.Info("http server shut down cleanly")
	return nil
}
