package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/paramgw/internal/observability"
)

// run starts the application and blocks until a shutdown signal arrives or
// the server fails.
func run(app *application, logger observability.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", observability.String("signal", sig.String()))
	case runErr = <-errCh:
		logger.Error("HTTP server failed", observability.Error(runErr))
	}

	app.shutdown(logger)
	return runErr
}

// shutdown stops every component in reverse start order.
func (app *application) shutdown(logger observability.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout.Duration())
	defer cancel()

	app.checker.SetDraining(true)

	if err := app.server.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop HTTP server gracefully", observability.Error(err))
	}

	if app.watcher != nil {
		if err := app.watcher.Stop(); err != nil {
			logger.Error("failed to stop template watcher", observability.Error(err))
		}
	}
	app.store.Stop()

	if app.rateLimiter != nil {
		app.rateLimiter.Stop()
	}

	if app.redisSource != nil {
		if err := app.redisSource.Close(); err != nil {
			logger.Error("failed to close redis client", observability.Error(err))
		}
	}

	if err := app.tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	logger.Info("paramgw stopped")
}
