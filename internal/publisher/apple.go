package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"deadline_sync/internal/domain"
)

// ScriptRunner executes one AppleScript program and returns its output.
type ScriptRunner interface {
	Run(ctx context.Context, script string) (string, error)
}

type osascript struct{}

func (osascript) Run(ctx context.Context, script string) (string, error) {
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("osascript: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// AppleReminders creates items in the macOS Reminders app.
type AppleReminders struct {
	runner  ScriptRunner
	loc     *time.Location
	logger  *slog.Logger
	ensured map[string]bool
}

func NewAppleReminders(logger *slog.Logger) *AppleReminders {
	return NewAppleRemindersWithRunner(osascript{}, time.Local, logger)
}

func NewAppleRemindersWithRunner(runner ScriptRunner, loc *time.Location, logger *slog.Logger) *AppleReminders {
	return &AppleReminders{
		runner:  runner,
		loc:     loc,
		logger:  logger,
		ensured: make(map[string]bool),
	}
}

// EnsureList creates the named list when Reminders does not have it yet.
func (a *AppleReminders) EnsureList(ctx context.Context, name string) error {
	if a.ensured[name] {
		return nil
	}

	script := fmt.Sprintf(`tell application "Reminders"
	if not (exists list "%[1]s") then
		make new list with properties {name:"%[1]s"}
	end if
end tell`, escape(name))

	if _, err := a.runner.Run(ctx, script); err != nil {
		return fmt.Errorf("ensure list %q: %w", name, err)
	}
	a.ensured[name] = true
	return nil
}

func (a *AppleReminders) Publish(ctx context.Context, req *domain.ReminderRequest) error {
	if err := a.EnsureList(ctx, req.List); err != nil {
		return err
	}

	if _, err := a.runner.Run(ctx, a.reminderScript(req)); err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}

	a.logger.Debug("created reminder",
		"external_id", req.ExternalID,
		"list", req.List,
	)
	return nil
}

func (a *AppleReminders) Close() error { return nil }

func (a *AppleReminders) reminderScript(req *domain.ReminderRequest) string {
	var sb strings.Builder
	sb.WriteString(appleDate("dueDate", req.DueAt.In(a.loc)))
	sb.WriteString(appleDate("remindDate", req.RemindAt.In(a.loc)))
	fmt.Fprintf(&sb, `tell application "Reminders"
	tell list "%s"
		make new reminder with properties {name:"%s", body:"%s", due date:dueDate, remind me date:remindDate}
	end tell
end tell`, escape(req.List), escape(req.Title), escape(req.Notes))
	return sb.String()
}

// appleDate builds a date variable field by field, since date literals
// depend on the machine locale. Day is reset first so that changing the
// month never overflows.
func appleDate(name string, t time.Time) string {
	seconds := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return fmt.Sprintf(`set %[1]s to current date
set day of %[1]s to 1
set year of %[1]s to %[2]d
set month of %[1]s to %[3]d
set day of %[1]s to %[4]d
set time of %[1]s to %[5]d
`, name, t.Year(), int(t.Month()), t.Day(), seconds)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
