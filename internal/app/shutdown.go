package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown stops the HTTP server, lets the in-flight settlement pass
// drain, and closes storage and the publisher.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.probe.SetReady(false)

	// Signal the engine; Run returns after the current pass finishes.
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	a.wg.Wait()

	err = a.publisher.Close()
	if err != nil {
		a.logger.Error("publisher-close-error", zap.Error(err))
	}

	err = a.store.Close()
	if err != nil {
		a.logger.Error("wager-store-close-error", zap.Error(err))
	}

	err = a.ledger.Close()
	if err != nil {
		a.logger.Error("ledger-close-error", zap.Error(err))
	}

	a.feedCache.Close()

	a.logger.Info("application-shutdown-complete")
	return nil
}
