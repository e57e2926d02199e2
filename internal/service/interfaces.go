package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"deadline_sync/internal/domain"
)

type DeadlineSource interface {
	ID() string
	Name() string
	Open(ctx context.Context) error
	Close() error
	FetchCourses(ctx context.Context) ([]domain.Course, error)
	FetchDeadlines(ctx context.Context, course domain.Course) ([]domain.DeadlineItem, error)
}

type Ledger interface {
	IsSynced(ctx context.Context, externalID string) (bool, error)
	MarkSynced(ctx context.Context, item domain.DeadlineItem) error
	StartRun(ctx context.Context) (int64, error)
	CompleteRun(ctx context.Context, id int64, created int) error
	FailRun(ctx context.Context, id int64, message string) error
}

type Publisher interface {
	Publish(ctx context.Context, req *domain.ReminderRequest) error
	Close() error
}

// Confirmer lets the operator pick which pending items get reminders.
type Confirmer interface {
	Confirm(ctx context.Context, items []domain.DeadlineItem) ([]domain.DeadlineItem, error)
}

type CandidateExtractor interface {
	Extract(text string, ref time.Time) []domain.CandidateDate
}

// Reviewer walks the operator through extracted candidates and returns the
// accepted ones.
type Reviewer interface {
	Review(ctx context.Context, course string, candidates []domain.CandidateDate) ([]domain.ReviewDecision, error)
}
