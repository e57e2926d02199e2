package domain

import "time"

// SyncRecord marks one deadline as delivered to the reminder system.
type SyncRecord struct {
	ID         string    `db:"id"`
	ExternalID string    `db:"external_id"`
	Title      string    `db:"title"`
	CourseName string    `db:"course_name"`
	DueDate    time.Time `db:"due_date"`
	CreatedAt  time.Time `db:"created_at"`
	Origin     Origin    `db:"source"`
}

type RunStatus string

const (
	RunInProgress RunStatus = "in_progress"
	RunSuccess    RunStatus = "success"
	RunFailed     RunStatus = "failed"
)

// SyncRunLog is the audit row of one sync invocation.
type SyncRunLog struct {
	ID           int64      `db:"id"`
	StartedAt    time.Time  `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	Status       RunStatus  `db:"status"`
	ItemsCreated int        `db:"reminders_created"`
	ErrorMessage *string    `db:"error_message"`
}

// SyncStats holds statistics about a sync operation.
type SyncStats struct {
	Discovered    int
	AlreadySynced int
	Created       int
	Failed        int
	DryRun        bool
	Duration      time.Duration
}
