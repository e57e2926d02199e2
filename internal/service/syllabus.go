package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"deadline_sync/internal/config"
	"deadline_sync/internal/document"
	"deadline_sync/internal/domain"
)

type IngestOptions struct {
	Path   string
	Course string
	DryRun bool
}

// SyllabusService feeds dates confirmed from a course document into the same
// ledger and reminder system as the portal sync.
type SyllabusService struct {
	extractor CandidateExtractor
	reviewer  Reviewer
	delivery  *delivery
	readText  func(path string) (string, error)
	now       func() time.Time
	logger    *slog.Logger
}

func NewSyllabusService(
	extractor CandidateExtractor,
	reviewer Reviewer,
	ledger Ledger,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.RemindersConfig,
) *SyllabusService {
	logger = logger.With("source", domain.OriginDocument)
	return &SyllabusService{
		extractor: extractor,
		reviewer:  reviewer,
		delivery: &delivery{
			ledger:    ledger,
			publisher: publisher,
			cfg:       cfg,
			now:       time.Now,
			logger:    logger,
		},
		readText: document.ExtractText,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *SyllabusService) Ingest(ctx context.Context, opts IngestOptions) (*domain.SyncStats, error) {
	startTime := s.now()
	course := strings.TrimSpace(opts.Course)
	if course == "" {
		return nil, fmt.Errorf("course name is required")
	}

	text, err := s.readText(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	stats := &domain.SyncStats{DryRun: opts.DryRun}

	candidates := s.extractor.Extract(text, s.now())
	stats.Discovered = len(candidates)

	s.logger.Info("extracted candidates", "path", opts.Path, "count", len(candidates))

	if len(candidates) == 0 {
		return stats, nil
	}

	decisions, err := s.reviewer.Review(ctx, course, candidates)
	if err != nil {
		return stats, fmt.Errorf("review: %w", err)
	}

	items := make([]domain.DeadlineItem, 0, len(decisions))
	for _, d := range decisions {
		items = append(items, domain.PromoteCandidate(d.Candidate, course, d.Title, d.Kind))
	}

	pending, err := s.delivery.pending(ctx, items)
	if err != nil {
		return stats, fmt.Errorf("filter synced: %w", err)
	}
	stats.AlreadySynced = len(items) - len(pending)

	if opts.DryRun {
		for _, item := range pending {
			s.logger.Info("would create reminder", "title", item.Title, "due", item.DueDate)
		}
	} else {
		stats.Created, stats.Failed = s.delivery.deliver(ctx, pending)
	}

	stats.Duration = s.now().Sub(startTime)

	s.logger.Info("syllabus ingested",
		"course", course,
		"accepted", len(items),
		"already_synced", stats.AlreadySynced,
		"created", stats.Created,
		"failed", stats.Failed,
	)
	return stats, nil
}
