package brightspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{"native long form", "November 5, 2026", time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC)},
		{"native iso", "2026-11-05", time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC)},
		{"explicit with time", "Due on Nov 5, 2026 at 11:59 PM", time.Date(2026, 11, 5, 23, 59, 0, 0, time.UTC)},
		{"explicit time without at", "Due on Nov 5, 2026 11:59 PM", time.Date(2026, 11, 5, 23, 59, 0, 0, time.UTC)},
		{"explicit time after comma", "Closes Nov 5, 2026, 4:00 PM", time.Date(2026, 11, 5, 16, 0, 0, 0, time.UTC)},
		{"explicit noon am", "Available until Dec 1, 2026 at 12:30 AM", time.Date(2026, 12, 1, 0, 30, 0, 0, time.UTC)},
		{"slash in sentence", "Ends 11/20/2026 (end of day)", time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)},
		{"iso in sentence", "closes 2026-12-03 at midnight", time.Date(2026, 12, 3, 0, 0, 0, 0, time.UTC)},
		{"relative days", "due in 3 days", now.AddDate(0, 0, 3)},
		{"relative one day", "1 day left", now.AddDate(0, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.text, now, time.UTC)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestParseDate_Failures(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	for _, text := range []string{"", "   ", "Not submitted", "Quiz 1"} {
		_, ok := ParseDate(text, now, time.UTC)
		assert.False(t, ok, text)
	}
}

func TestParseDate_ExplicitBeforeRelative(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	got, ok := ParseDate("Extended 2 days to 11/20/2026", now, time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC), got)
}

func TestDateMatchers_Independent(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	_, ok := matchMonthDayYear("Feb 30, 2026", now, time.UTC)
	assert.False(t, ok, "impossible day must not normalize")

	got, ok := matchMonthDayYear("Week 3 2026 then March 4, 2026", now, time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), got)

	_, ok = matchSlashDate("13/40/2026", now, time.UTC)
	assert.False(t, ok)

	got, ok = matchISODate("x 2026-01-31 y", now, time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), got)

	_, ok = matchRelativeDays("no number here", now, time.UTC)
	assert.False(t, ok)
}
