package syllabus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Thursday.
var refTime = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func TestScanPhrases(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantText string
		want     time.Time
		hasTime  bool
	}{
		{"month day year with time", "Exam on November 20, 2026 at 2:30 PM sharp", "November 20, 2026 at 2:30 PM", time.Date(2026, 11, 20, 14, 30, 0, 0, time.UTC), true},
		{"month day folded time", "Final exam December 14 at 9:00 AM in the gym", "December 14 at 9:00 AM", time.Date(2026, 12, 14, 9, 0, 0, 0, time.UTC), true},
		{"ordinal day", "Due Nov 3rd", "Nov 3rd", time.Date(2026, 11, 3, 12, 0, 0, 0, time.UTC), false},
		{"iso with clock", "Quiz on 2026-11-03T09:15.", "2026-11-03T09:15", time.Date(2026, 11, 3, 9, 15, 0, 0, time.UTC), true},
		{"numeric without year", "Reading due 10/15", "10/15", time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC), false},
		{"numeric rolls to next year", "Reading due 9/15", "9/15", time.Date(2027, 9, 15, 12, 0, 0, 0, time.UTC), false},
		{"numeric short year", "Held 12/01/26", "12/01/26", time.Date(2026, 12, 1, 12, 0, 0, 0, time.UTC), false},
		{"day month", "Presentations on the 5th of December", "5th of December", time.Date(2026, 12, 5, 12, 0, 0, 0, time.UTC), false},
		{"month name rolls to next year", "Final exam March 4", "March 4", time.Date(2027, 3, 4, 12, 0, 0, 0, time.UTC), false},
		{"weekday", "Project due Friday", "Friday", time.Date(2026, 10, 2, 12, 0, 0, 0, time.UTC), false},
		{"next weekday", "Meet next Thursday at 10:00", "next Thursday at 10:00", time.Date(2026, 10, 8, 10, 0, 0, 0, time.UTC), true},
		{"tomorrow", "Submit tomorrow by 9am", "tomorrow by 9am", time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC), true},
		{"in weeks", "Essay in 2 weeks", "in 2 weeks", time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phrases := scanPhrases(tt.text, refTime, time.UTC)

			require.Len(t, phrases, 1)
			assert.Equal(t, tt.wantText, phrases[0].text)
			assert.Equal(t, tt.want, phrases[0].date)
			assert.Equal(t, tt.hasTime, phrases[0].hasTime)
		})
	}
}

func TestScanPhrases_NoMatch(t *testing.T) {
	for _, text := range []string{
		"",
		"Office hours are posted online",
		"February 30",
		"Chapter 12 covers 2026 results",
		"Worth 13/40 of the grade",
	} {
		assert.Empty(t, scanPhrases(text, refTime, time.UTC), text)
	}
}

func TestScanPhrases_SeveralInOrder(t *testing.T) {
	phrases := scanPhrases("Quiz 1 on Oct 14; Quiz 2 on Oct 28.\nFinal exam 2026-12-10", refTime, time.UTC)

	require.Len(t, phrases, 3)
	assert.Equal(t, "Oct 14", phrases[0].text)
	assert.Equal(t, "Oct 28", phrases[1].text)
	assert.Equal(t, "2026-12-10", phrases[2].text)
	assert.Less(t, phrases[0].end, phrases[1].start)
}

func TestScanPhrases_WeekdayJoinsItsDate(t *testing.T) {
	phrases := scanPhrases("The midterm is scheduled for Friday, November 6th.", refTime, time.UTC)

	require.Len(t, phrases, 1)
	assert.Equal(t, time.Date(2026, 11, 6, 12, 0, 0, 0, time.UTC), phrases[0].date)
	assert.Contains(t, phrases[0].text, "November 6th")
}

func TestScanPhrases_SkipsBareClockTimes(t *testing.T) {
	phrases := scanPhrases("Lectures run 10:00 to 11:30. Quiz on Oct 14.", refTime, time.UTC)

	require.Len(t, phrases, 1)
	assert.Equal(t, "Oct 14", phrases[0].text)
}

func TestParseExpression(t *testing.T) {
	p, ok := parseExpression("January 20, 2027", refTime, time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2027, 1, 20, 12, 0, 0, 0, time.UTC), p.date)

	_, ok = parseExpression("Section 4", refTime, time.UTC)
	assert.False(t, ok)
}

func TestTimeWithin(t *testing.T) {
	h, m, ok := timeWithin("Oct 30 at 12 a.m.")
	require.True(t, ok)
	assert.Equal(t, 0, h)
	assert.Equal(t, 0, m)

	_, _, ok = timeWithin("5th of December")
	assert.False(t, ok)
}

func TestTrimSpan(t *testing.T) {
	text := " Oct 28.;"
	start, end := trimSpan(text, 0, len(text))
	assert.Equal(t, "Oct 28", text[start:end])

	text = "at 9 a.m."
	start, end = trimSpan(text, 0, len(text))
	assert.Equal(t, "at 9 a.m.", text[start:end])
}

func TestTimeSuffix(t *testing.T) {
	h, m, _, ok := timeSuffix(", 11:59 pm")
	require.True(t, ok)
	assert.Equal(t, 23, h)
	assert.Equal(t, 59, m)

	_, _, _, ok = timeSuffix(" 25:00")
	assert.False(t, ok)

	_, _, _, ok = timeSuffix(" students")
	assert.False(t, ok)
}
