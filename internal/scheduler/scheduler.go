package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"deadline_sync/internal/domain"
)

// Syncer defines the interface for sync operations.
type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncStats, error)
}

// SyncFunc adapts a plain function to Syncer.
type SyncFunc func(ctx context.Context) (*domain.SyncStats, error)

func (f SyncFunc) Sync(ctx context.Context) (*domain.SyncStats, error) {
	return f(ctx)
}

type Scheduler struct {
	syncer     Syncer
	interval   time.Duration
	runTimeout time.Duration
	logger     *slog.Logger
}

func NewScheduler(syncer Syncer, interval, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:     syncer,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

// Start syncs immediately and then once per interval until ctx is done.
// A failed run is logged and the next one still happens.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "run_timeout", s.runTimeout)

	s.runSync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	syncCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	stats, err := s.syncer.Sync(syncCtx)
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		s.logger.Error("portal session expired, log in again", "error", err)
	case err != nil:
		s.logger.Error("sync failed", "error", err)
	default:
		s.logger.Info("scheduled sync finished",
			"created", stats.Created,
			"failed", stats.Failed,
			"next_run", time.Now().Add(s.interval),
		)
	}
}
