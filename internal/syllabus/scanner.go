package syllabus

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
)

// impliedHour is used when a phrase names a day but no time of day.
const impliedHour = 12

// naturalParser reads English date expressions: month names, weekdays,
// "tomorrow", "in 2 weeks" and the like. Neighbouring pieces such as
// "Friday, November 6th" come back as a single match.
var naturalParser = newNaturalParser()

func newNaturalParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	return w
}

// rollover says how a phrase that left something unsaid moves forward when it
// would otherwise land before the reference instant.
type rollover int

const (
	rollNone rollover = iota
	rollYear
	rollWeek
)

// phrase is one date expression found in free text.
type phrase struct {
	start, end int
	text       string
	date       time.Time
	hasTime    bool
}

// reading is what a match yields before the time of day is settled.
type reading struct {
	day          time.Time
	hour, minute int
	hasTime      bool
	roll         rollover
}

// numericRule covers the all-digit forms. The English rules only know the
// day-first slash order, and course outlines here write month first.
type numericRule struct {
	re      *regexp.Regexp
	resolve func(m []string, ref time.Time, loc *time.Location) (reading, bool)
}

var numericRules = []numericRule{
	{
		re:      regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ](\d{1,2}):(\d{2}))?\b`),
		resolve: resolveISO,
	},
	{
		re:      regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?\b`),
		resolve: resolveNumeric,
	},
}

var (
	meridiemTimeRe = regexp.MustCompile(`(?i)^(?:\s*,)?\s*(?:(?:at|by|before|@)\s*)?(\d{1,2})(?::(\d{2}))?\s*([ap])(?:m\b|\.m\.)`)
	clockTimeRe    = regexp.MustCompile(`(?i)^(?:\s*,)?\s*(?:(?:at|by|before|@)\s*)?(\d{1,2}):(\d{2})\b`)

	innerMeridiemRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([ap])(?:m\b|\.m\.)`)
	innerClockRe    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)

	trailingYearRe = regexp.MustCompile(`^,?\s*((?:19|20)\d{2})\b`)
	innerYearRe    = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	dayNumberRe    = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\b`)

	monthWordRe   = regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`)
	weekdayWordRe = regexp.MustCompile(`(?i)\b(?:mon|tues?|wed(?:nes)?|thu(?:rs)?|fri|sat(?:ur)?|sun)(?:day)?\b`)
	dayWordRe     = regexp.MustCompile(`(?i)\b(?:today|tonight|tomorrow|tmr|days?|weeks?|months?)\b`)
)

// scanPhrases finds every date expression in text. Matches never overlap:
// the leftmost one wins and, among those starting at the same place, the
// longest. Dates without a year are moved forward so they do not fall
// before ref.
func scanPhrases(text string, ref time.Time, loc *time.Location) []phrase {
	found := naturalPhrases(text, ref, loc)
	found = append(found, numericPhrases(text, ref, loc)...)

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].start != found[j].start {
			return found[i].start < found[j].start
		}
		return found[i].end-found[i].start > found[j].end-found[j].start
	})

	var out []phrase
	lastEnd := 0
	for _, p := range found {
		if p.start < lastEnd {
			continue
		}
		out = append(out, p)
		lastEnd = p.end
	}
	return out
}

// naturalPhrases walks text one parser match at a time. A bare time of day
// like "10:00" is skipped since it names no day.
func naturalPhrases(text string, ref time.Time, loc *time.Location) []phrase {
	var out []phrase
	base := ref.In(loc)

	for offset := 0; offset < len(text); {
		r, err := naturalParser.Parse(text[offset:], base)
		if err != nil || r == nil {
			break
		}

		start, end := trimSpan(text, offset+r.Index, offset+r.Index+len(r.Text))
		next := end
		if next <= offset {
			next = offset + 1
		}

		if p, ok := naturalPhrase(text, start, end, r.Time, ref, loc); ok {
			out = append(out, p)
			next = max(next, p.end)
		}
		offset = next
	}
	return out
}

func naturalPhrase(text string, start, end int, parsed, ref time.Time, loc *time.Location) (phrase, bool) {
	if start >= end {
		return phrase{}, false
	}
	span := text[start:end]

	hasMonth := monthWordRe.MatchString(span)
	hasWeekday := weekdayWordRe.MatchString(span)
	if !hasMonth && !hasWeekday && !dayWordRe.MatchString(span) {
		return phrase{}, false
	}

	day := parsed.In(loc)
	r := reading{day: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)}

	if hasMonth {
		// A month word needs its day number, and that number must survive
		// as is; "February 30" would otherwise come back as March 2.
		m := dayNumberRe.FindStringSubmatch(span)
		if m == nil || atoi(m[1]) != r.day.Day() {
			return phrase{}, false
		}
		r.roll = rollYear
	} else if hasWeekday {
		r.roll = rollWeek
	}

	year := ""
	if m := innerYearRe.FindStringSubmatch(span); m != nil {
		year = m[1]
	} else if m := trailingYearRe.FindStringSubmatchIndex(text[end:]); m != nil {
		year = text[end+m[2] : end+m[3]]
		end += m[1]
	}
	if year != "" {
		d, ok := calendarDay(atoi(year), r.day.Month(), r.day.Day(), loc)
		if !ok {
			return phrase{}, false
		}
		r.day, r.roll = d, rollNone
	}

	if h, mi, ok := timeWithin(span); ok {
		r.hour, r.minute, r.hasTime = h, mi, true
	} else if h, mi, n, ok := timeSuffix(text[end:]); ok {
		r.hour, r.minute, r.hasTime = h, mi, true
		end += n
	}

	return phrase{
		start:   start,
		end:     end,
		text:    text[start:end],
		date:    settle(r, ref, loc),
		hasTime: r.hasTime,
	}, true
}

func numericPhrases(text string, ref time.Time, loc *time.Location) []phrase {
	var found []phrase
	for _, rule := range numericRules {
		for _, idx := range rule.re.FindAllStringSubmatchIndex(text, -1) {
			r, ok := rule.resolve(submatches(text, idx), ref, loc)
			if !ok {
				continue
			}

			end := idx[1]
			if !r.hasTime {
				if h, mi, n, ok := timeSuffix(text[end:]); ok {
					r.hour, r.minute, r.hasTime = h, mi, true
					end += n
				}
			}

			found = append(found, phrase{
				start:   idx[0],
				end:     end,
				text:    text[idx[0]:end],
				date:    settle(r, ref, loc),
				hasTime: r.hasTime,
			})
		}
	}
	return found
}

// parseExpression reads the first date expression in s.
func parseExpression(s string, ref time.Time, loc *time.Location) (phrase, bool) {
	phrases := scanPhrases(s, ref, loc)
	if len(phrases) == 0 {
		return phrase{}, false
	}
	return phrases[0], true
}

func settle(r reading, ref time.Time, loc *time.Location) time.Time {
	hour, minute := impliedHour, 0
	if r.hasTime {
		hour, minute = r.hour, r.minute
	}
	t := time.Date(r.day.Year(), r.day.Month(), r.day.Day(), hour, minute, 0, 0, loc)

	if t.Before(ref) {
		switch r.roll {
		case rollYear:
			t = t.AddDate(1, 0, 0)
		case rollWeek:
			t = t.AddDate(0, 0, 7)
		}
	}
	return t
}

// trimSpan drops the separators a parser match may carry on either side.
// A closing "a.m." keeps its dot.
func trimSpan(text string, start, end int) (int, int) {
	for start < end && strings.ContainsRune(" \t\r\n,;:()[]\"'", rune(text[start])) {
		start++
	}
	for end > start {
		c := text[end-1]
		if c == '.' && !strings.HasSuffix(strings.ToLower(text[start:end]), ".m.") {
			end--
			continue
		}
		if !strings.ContainsRune(" \t\r\n,;:!?()[]\"'", rune(c)) {
			break
		}
		end--
	}
	return start, end
}

// timeWithin reads the time of day the parser already folded into a match,
// as in "December 14 at 9:00 AM".
func timeWithin(span string) (hour, minute int, ok bool) {
	if m := innerMeridiemRe.FindStringSubmatch(span); m != nil {
		return meridiemTime(m[1], m[2], m[3])
	}
	if m := innerClockRe.FindStringSubmatch(span); m != nil {
		hour, minute = atoi(m[1]), atoi(m[2])
		if hour > 23 || minute > 59 {
			return 0, 0, false
		}
		return hour, minute, true
	}
	return 0, 0, false
}

func timeSuffix(rest string) (hour, minute, n int, ok bool) {
	if m := meridiemTimeRe.FindStringSubmatch(rest); m != nil {
		hour, minute, ok = meridiemTime(m[1], m[2], m[3])
		if !ok {
			return 0, 0, 0, false
		}
		return hour, minute, len(m[0]), true
	}

	if m := clockTimeRe.FindStringSubmatch(rest); m != nil {
		hour, minute = atoi(m[1]), atoi(m[2])
		if hour > 23 || minute > 59 {
			return 0, 0, 0, false
		}
		return hour, minute, len(m[0]), true
	}

	return 0, 0, 0, false
}

func meridiemTime(hourText, minuteText, half string) (hour, minute int, ok bool) {
	hour = atoi(hourText)
	if minuteText != "" {
		minute = atoi(minuteText)
	}
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, 0, false
	}
	if strings.EqualFold(half, "p") && hour < 12 {
		hour += 12
	}
	if strings.EqualFold(half, "a") && hour == 12 {
		hour = 0
	}
	return hour, minute, true
}

func resolveISO(m []string, _ time.Time, loc *time.Location) (reading, bool) {
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, ok := calendarDay(year, time.Month(month), atoi(m[3]), loc)
	if !ok {
		return reading{}, false
	}

	r := reading{day: day}
	if m[4] != "" {
		r.hour, r.minute = atoi(m[4]), atoi(m[5])
		if r.hour > 23 || r.minute > 59 {
			return reading{}, false
		}
		r.hasTime = true
	}
	return r, true
}

func resolveNumeric(m []string, ref time.Time, loc *time.Location) (reading, bool) {
	year, roll := ref.In(loc).Year(), rollYear
	if m[3] != "" {
		year, roll = atoi(m[3]), rollNone
		if len(m[3]) == 2 {
			year += 2000
		}
	}

	day, ok := calendarDay(year, time.Month(atoi(m[1])), atoi(m[2]), loc)
	return reading{day: day, roll: roll}, ok
}

// calendarDay rejects values time.Date would silently normalize, like Feb 30.
func calendarDay(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func submatches(text string, idx []int) []string {
	m := make([]string, len(idx)/2)
	for i := range m {
		if idx[2*i] >= 0 {
			m[i] = text[idx[2*i]:idx[2*i+1]]
		}
	}
	return m
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
