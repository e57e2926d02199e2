package domain

import "time"

// ReminderRequest is what gets handed to the reminder system for one item.
type ReminderRequest struct {
	ExternalID string    `json:"external_id"`
	List       string    `json:"list"`
	Title      string    `json:"title"`
	Notes      string    `json:"notes"`
	DueAt      time.Time `json:"due_at"`
	RemindAt   time.Time `json:"remind_at"`
	Kind       Kind      `json:"kind"`
	Origin     Origin    `json:"origin"`
	CourseName string    `json:"course_name"`
}

// NewReminderRequest schedules the reminder advanceDays before the due date,
// but never earlier than now.
func NewReminderRequest(item DeadlineItem, list string, advanceDays int, now time.Time) ReminderRequest {
	notes := item.Description
	if notes == "" {
		notes = "Due: " + item.DueDate.Format("Jan 2, 2006")
	}

	remindAt := item.DueDate.AddDate(0, 0, -advanceDays)
	if remindAt.Before(now) {
		remindAt = now
	}

	return ReminderRequest{
		ExternalID: item.ID,
		List:       list,
		Title:      item.CourseName + ": " + item.Title,
		Notes:      notes,
		DueAt:      item.DueDate,
		RemindAt:   remindAt,
		Kind:       item.Kind,
		Origin:     item.Origin,
		CourseName: item.CourseName,
	}
}
