package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"deadline_sync/internal/domain"
)

// ReminderStore persists synced_reminders, one row per delivered fingerprint.
type ReminderStore struct {
	db *sqlx.DB
}

func NewReminderStore(db *sqlx.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

func (s *ReminderStore) Exists(ctx context.Context, externalID string) (bool, error) {
	exec := GetExecutor(ctx, s.db)

	var n int
	query := exec.Rebind(`SELECT COUNT(*) FROM synced_reminders WHERE external_id = ?`)
	if err := sqlx.GetContext(ctx, exec, &n, query, externalID); err != nil {
		return false, fmt.Errorf("lookup %s: %w", externalID, err)
	}
	return n > 0, nil
}

// Insert records rec. A second insert for the same external id returns
// domain.ErrConstraintViolation and leaves the first row untouched.
func (s *ReminderStore) Insert(ctx context.Context, rec *domain.SyncRecord) error {
	query := `
		INSERT INTO synced_reminders (id, external_id, title, course_name, due_date, created_at, source)
		VALUES (:id, :external_id, :title, :course_name, :due_date, :created_at, :source)
		ON CONFLICT (external_id) DO NOTHING`

	res, err := sqlx.NamedExecContext(ctx, GetExecutor(ctx, s.db), query, rec)
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.ExternalID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.ExternalID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s already synced", domain.ErrConstraintViolation, rec.ExternalID)
	}
	return nil
}

func (s *ReminderStore) List(ctx context.Context) ([]domain.SyncRecord, error) {
	var records []domain.SyncRecord
	query := `
		SELECT id, external_id, title, course_name, due_date, created_at, source
		FROM synced_reminders
		ORDER BY due_date ASC`

	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &records, query); err != nil {
		return nil, fmt.Errorf("list synced reminders: %w", err)
	}
	return records, nil
}

func (s *ReminderStore) CountByOrigin(ctx context.Context) (map[domain.Origin]int, error) {
	rows, err := GetExecutor(ctx, s.db).QueryxContext(ctx,
		`SELECT source, COUNT(*) FROM synced_reminders GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Origin]int)
	for rows.Next() {
		var (
			origin domain.Origin
			n      int
		)
		if err := rows.Scan(&origin, &n); err != nil {
			return nil, err
		}
		counts[origin] = n
	}
	return counts, rows.Err()
}

func (s *ReminderStore) CountDueAfter(ctx context.Context, t time.Time) (int, error) {
	exec := GetExecutor(ctx, s.db)

	var n int
	query := exec.Rebind(`SELECT COUNT(*) FROM synced_reminders WHERE due_date > ?`)
	if err := sqlx.GetContext(ctx, exec, &n, query, t.UTC()); err != nil {
		return 0, fmt.Errorf("count upcoming: %w", err)
	}
	return n, nil
}

func (s *ReminderStore) DeleteAll(ctx context.Context) error {
	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, `DELETE FROM synced_reminders`); err != nil {
		return fmt.Errorf("clear synced reminders: %w", err)
	}
	return nil
}
