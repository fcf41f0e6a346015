package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically expires stale sessions and prunes records past their
// retention window.
//
// It holds the store's lock only for the duration of each pass, never while
// sleeping between intervals.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper for the given store.
func NewSweeper(store *Store, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Run executes sweep passes on the configured interval until ctx is
// cancelled. Call from a dedicated goroutine.
func (sw *Sweeper) Run(ctx context.Context) {
	sw.logger.Info("session sweeper started",
		slog.Duration("interval", sw.interval))

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			expired, deleted := sw.store.Sweep()
			if expired > 0 || deleted > 0 {
				sw.logger.Info("sweep pass completed",
					slog.Int("expired", expired),
					slog.Int("deleted", deleted))
			}
		}
	}
}
