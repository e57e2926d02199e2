package brightspace

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// dateMatcher is one rule of the due-date grammar. Rules are tried in the
// order of dateGrammar and the first one that yields a date wins.
type dateMatcher struct {
	name  string
	match func(text string, now time.Time, loc *time.Location) (time.Time, bool)
}

var dateGrammar = []dateMatcher{
	{name: "native", match: matchNative},
	{name: "month-day-year", match: matchMonthDayYear},
	{name: "slash", match: matchSlashDate},
	{name: "iso", match: matchISODate},
	{name: "relative-days", match: matchRelativeDays},
}

var (
	monthDayYearRe = regexp.MustCompile(`(?i)(\w+)\s+(\d{1,2}),?\s+(\d{4})(?:,?\s+(?:at\s+)?(\d{1,2}):(\d{2})\s*(AM|PM)?)?`)
	slashDateRe    = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	isoDateRe      = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	relativeDaysRe = regexp.MustCompile(`(?i)(\d+)\s*days?`)
)

// ParseDate reads a due date out of a cell or label scraped from the portal.
// Precedence: native parse of the whole text, then the explicit formats
// "Month D, YYYY[ [at] H:MM AM/PM]", "M/D/YYYY" and "YYYY-MM-DD" found anywhere
// in the text, then "N days" relative to now.
func ParseDate(text string, now time.Time, loc *time.Location) (time.Time, bool) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	for _, m := range dateGrammar {
		if t, ok := m.match(clean, now, loc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func matchNative(text string, _ time.Time, loc *time.Location) (time.Time, bool) {
	t, err := dateparse.ParseIn(text, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func matchMonthDayYear(text string, _ time.Time, loc *time.Location) (time.Time, bool) {
	for _, m := range monthDayYearRe.FindAllStringSubmatch(text, -1) {
		month, ok := lookupMonth(m[1])
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])

		hour, minute := 0, 0
		if m[4] != "" {
			hour, _ = strconv.Atoi(m[4])
			minute, _ = strconv.Atoi(m[5])
			hour = to24Hour(hour, m[6])
		}

		if t, ok := buildDate(year, month, day, hour, minute, loc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func matchSlashDate(text string, _ time.Time, loc *time.Location) (time.Time, bool) {
	m := slashDateRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	return buildDate(year, time.Month(month), day, 0, 0, loc)
}

func matchISODate(text string, _ time.Time, loc *time.Location) (time.Time, bool) {
	m := isoDateRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return buildDate(year, time.Month(month), day, 0, 0, loc)
}

func matchRelativeDays(text string, now time.Time, _ *time.Location) (time.Time, bool) {
	m := relativeDaysRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	days, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, days), true
}

// buildDate rejects values time.Date would silently normalize, like Feb 30.
func buildDate(year int, month time.Month, day, hour, minute int, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, hour, minute, 0, 0, loc)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func to24Hour(hour int, meridiem string) int {
	switch strings.ToUpper(meridiem) {
	case "PM":
		if hour < 12 {
			return hour + 12
		}
	case "AM":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

func lookupMonth(word string) (time.Month, bool) {
	w := strings.ToLower(word)
	if len(w) < 3 {
		return 0, false
	}
	m, ok := months[w[:3]]
	return m, ok
}
