// Package ledger records which deadlines were already turned into reminders
// and keeps an audit row per sync run.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"deadline_sync/internal/domain"
)

type Ledger struct {
	db        *sqlx.DB
	reminders *ReminderStore
	runs      *RunStore
	tm        *TransactionManager
	now       func() time.Time
}

// Open connects to the configured database and prepares the schema.
func Open(ctx context.Context, cfg Config) (*Ledger, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func New(db *sqlx.DB) *Ledger {
	return &Ledger{
		db:        db,
		reminders: NewReminderStore(db),
		runs:      NewRunStore(db),
		tm:        NewTransactionManager(db),
		now:       time.Now,
	}
}

func (l *Ledger) IsSynced(ctx context.Context, externalID string) (bool, error) {
	return l.reminders.Exists(ctx, externalID)
}

// MarkSynced records item as delivered. Recording the same fingerprint twice
// fails with domain.ErrConstraintViolation.
func (l *Ledger) MarkSynced(ctx context.Context, item domain.DeadlineItem) error {
	return l.reminders.Insert(ctx, &domain.SyncRecord{
		ID:         uuid.NewString(),
		ExternalID: item.ID,
		Title:      item.Title,
		CourseName: item.CourseName,
		DueDate:    item.DueDate.UTC(),
		CreatedAt:  l.now().UTC(),
		Origin:     item.Origin,
	})
}

func (l *Ledger) ListSynced(ctx context.Context) ([]domain.SyncRecord, error) {
	return l.reminders.List(ctx)
}

func (l *Ledger) StartRun(ctx context.Context) (int64, error) {
	return l.runs.Start(ctx, l.now())
}

func (l *Ledger) CompleteRun(ctx context.Context, id int64, created int) error {
	return l.runs.Complete(ctx, id, l.now(), created)
}

func (l *Ledger) FailRun(ctx context.Context, id int64, message string) error {
	return l.runs.Fail(ctx, id, l.now(), message)
}

func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]domain.SyncRunLog, error) {
	return l.runs.List(ctx, limit)
}

// Stats summarises the ledger for the status command.
type Stats struct {
	Total    int
	ByOrigin map[domain.Origin]int
	Upcoming int
	LastRun  *domain.SyncRunLog
}

func (l *Ledger) Stats(ctx context.Context) (*Stats, error) {
	byOrigin, err := l.reminders.CountByOrigin(ctx)
	if err != nil {
		return nil, err
	}
	upcoming, err := l.reminders.CountDueAfter(ctx, l.now())
	if err != nil {
		return nil, err
	}
	runs, err := l.runs.List(ctx, 1)
	if err != nil {
		return nil, err
	}

	st := &Stats{ByOrigin: byOrigin, Upcoming: upcoming}
	for _, n := range byOrigin {
		st.Total += n
	}
	if len(runs) > 0 {
		st.LastRun = &runs[0]
	}
	return st, nil
}

// ResetAll clears both tables in one transaction.
func (l *Ledger) ResetAll(ctx context.Context) error {
	return l.tm.WithTransaction(ctx, func(ctx context.Context) error {
		if err := l.reminders.DeleteAll(ctx); err != nil {
			return err
		}
		return l.runs.DeleteAll(ctx)
	})
}

func (l *Ledger) Close() error {
	return l.db.Close()
}
