package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"deadline_sync/internal/domain"
)

// RunStore persists sync_logs.
type RunStore struct {
	db *sqlx.DB
}

func NewRunStore(db *sqlx.DB) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) Start(ctx context.Context, at time.Time) (int64, error) {
	exec := GetExecutor(ctx, s.db)
	query := exec.Rebind(`
		INSERT INTO sync_logs (started_at, status, reminders_created)
		VALUES (?, ?, 0)
		RETURNING id`)

	var id int64
	if err := exec.QueryRowxContext(ctx, query, at.UTC(), domain.RunInProgress).Scan(&id); err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

func (s *RunStore) Complete(ctx context.Context, id int64, at time.Time, created int) error {
	return s.finish(ctx, id, at, domain.RunSuccess, created, nil)
}

func (s *RunStore) Fail(ctx context.Context, id int64, at time.Time, message string) error {
	return s.finish(ctx, id, at, domain.RunFailed, 0, &message)
}

func (s *RunStore) finish(ctx context.Context, id int64, at time.Time, status domain.RunStatus, created int, message *string) error {
	exec := GetExecutor(ctx, s.db)
	query := exec.Rebind(`
		UPDATE sync_logs
		SET completed_at = ?, status = ?, reminders_created = ?, error_message = ?
		WHERE id = ?`)

	res, err := exec.ExecContext(ctx, query, at.UTC(), status, created, message, id)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// List returns up to limit runs, newest first.
func (s *RunStore) List(ctx context.Context, limit int) ([]domain.SyncRunLog, error) {
	exec := GetExecutor(ctx, s.db)
	query := exec.Rebind(`
		SELECT id, started_at, completed_at, status, reminders_created, error_message
		FROM sync_logs
		ORDER BY id DESC
		LIMIT ?`)

	var runs []domain.SyncRunLog
	if err := sqlx.SelectContext(ctx, exec, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (s *RunStore) DeleteAll(ctx context.Context) error {
	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, `DELETE FROM sync_logs`); err != nil {
		return fmt.Errorf("clear sync logs: %w", err)
	}
	return nil
}
