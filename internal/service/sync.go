package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"deadline_sync/internal/config"
	"deadline_sync/internal/domain"
)

type SyncOptions struct {
	DryRun bool
	// SkipConfirm delivers every pending item without asking.
	SkipConfirm bool
}

type SyncService struct {
	source    DeadlineSource
	ledger    Ledger
	confirmer Confirmer
	delivery  *delivery
	logger    *slog.Logger
	now       func() time.Time
}

func NewSyncService(
	source DeadlineSource,
	ledger Ledger,
	publisher Publisher,
	confirmer Confirmer,
	logger *slog.Logger,
	cfg config.RemindersConfig,
) *SyncService {
	logger = logger.With("source", source.ID())
	return &SyncService{
		source:    source,
		ledger:    ledger,
		confirmer: confirmer,
		delivery: &delivery{
			ledger:    ledger,
			publisher: publisher,
			cfg:       cfg,
			now:       time.Now,
			logger:    logger,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Sync runs one portal pass: discover, drop what the ledger already has,
// confirm, create reminders. The run is logged in the ledger whatever the
// outcome.
func (s *SyncService) Sync(ctx context.Context, opts SyncOptions) (*domain.SyncStats, error) {
	startTime := s.now()

	runID, err := s.ledger.StartRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}

	s.logger.Info("starting sync",
		"source_name", s.source.Name(),
		"run_id", runID,
		"dry_run", opts.DryRun,
	)

	stats, err := s.run(ctx, opts)
	if err != nil {
		if ferr := s.ledger.FailRun(ctx, runID, err.Error()); ferr != nil {
			s.logger.Error("failed to record failed run", "run_id", runID, "error", ferr)
		}
		return stats, err
	}

	stats.Duration = s.now().Sub(startTime)

	if err := s.ledger.CompleteRun(ctx, runID, stats.Created); err != nil {
		return stats, fmt.Errorf("complete run: %w", err)
	}

	s.logger.Info("sync completed",
		"discovered", stats.Discovered,
		"already_synced", stats.AlreadySynced,
		"created", stats.Created,
		"failed", stats.Failed,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *SyncService) run(ctx context.Context, opts SyncOptions) (*domain.SyncStats, error) {
	stats := &domain.SyncStats{DryRun: opts.DryRun}

	if err := s.source.Open(ctx); err != nil {
		return stats, fmt.Errorf("open %s: %w", s.source.Name(), err)
	}
	defer s.source.Close()

	items, err := s.discover(ctx)
	if err != nil {
		return stats, err
	}
	stats.Discovered = len(items)

	pending, err := s.delivery.pending(ctx, items)
	if err != nil {
		return stats, fmt.Errorf("filter synced: %w", err)
	}
	stats.AlreadySynced = len(items) - len(pending)

	s.logger.Info("deadlines to sync", "count", len(pending))

	if len(pending) == 0 {
		return stats, nil
	}

	if opts.DryRun {
		for _, item := range pending {
			s.logger.Info("would create reminder",
				"course", item.CourseName,
				"title", item.Title,
				"due", item.DueDate,
			)
		}
		return stats, nil
	}

	if !opts.SkipConfirm && s.confirmer != nil {
		pending, err = s.confirmer.Confirm(ctx, pending)
		if err != nil {
			return stats, fmt.Errorf("confirm: %w", err)
		}
	}

	stats.Created, stats.Failed = s.delivery.deliver(ctx, pending)
	return stats, nil
}

func (s *SyncService) discover(ctx context.Context) ([]domain.DeadlineItem, error) {
	courses, err := s.source.FetchCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch courses: %w", err)
	}

	s.logger.Info("fetched courses", "count", len(courses))

	var items []domain.DeadlineItem
	for _, course := range courses {
		deadlines, err := s.source.FetchDeadlines(ctx, course)
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return nil, fmt.Errorf("fetch deadlines: %w", err)
		}
		if err != nil {
			s.logger.Warn("skipping course", "course_id", course.ID, "error", err)
			continue
		}

		s.logger.Debug("fetched deadlines", "course_id", course.ID, "count", len(deadlines))
		items = append(items, deadlines...)
	}
	return items, nil
}
