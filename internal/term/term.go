// Package term decides whether a course name belongs to the running term.
//
// The policy is deliberately permissive: a course with no term label at all is
// treated as current, and only a name carrying some other year is rejected.
package term

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var yearPattern = regexp.MustCompile(`20[0-2][0-9]`)

// Band is one of the three four-month terms.
type Band int

const (
	Winter Band = iota // January to April
	Summer             // May to August
	Fall               // September to December
)

func (b Band) String() string {
	switch b {
	case Winter:
		return "winter"
	case Summer:
		return "summer"
	default:
		return "fall"
	}
}

// BandOf returns the term band for the month of t.
func BandOf(t time.Time) Band {
	switch m := t.Month(); {
	case m <= time.April:
		return Winter
	case m <= time.August:
		return Summer
	default:
		return Fall
	}
}

// Markers lists the textual labels a course name may carry for the band and
// year, including abbreviated and French forms.
func Markers(band Band, year int) []string {
	y := strconv.Itoa(year)
	yy := y[len(y)-2:]

	switch band {
	case Winter:
		return []string{
			"Winter " + y, "W" + y, "WIN " + y, "W" + yy,
			y + "W", y + " Winter", "Winter" + y, "Hiver " + y,
		}
	case Summer:
		return []string{
			"Summer " + y, "S" + y, "SUM " + y, "S" + yy,
			y + "S", y + " Summer", "Summer" + y, "Été " + y,
			"Spring " + y, "SP" + y,
		}
	default:
		return []string{
			"Fall " + y, "F" + y, "FAL " + y, "F" + yy,
			y + "F", y + " Fall", "Fall" + y, "Automne " + y,
			"Autumn " + y, "A" + y,
		}
	}
}

// IsCurrent reports whether a course named name should be treated as part of
// the term running at now.
func IsCurrent(name string, now time.Time) bool {
	year := now.Year()
	upper := strings.ToUpper(name)

	for _, marker := range Markers(BandOf(now), year) {
		if strings.Contains(upper, strings.ToUpper(marker)) {
			return true
		}
	}

	y := strconv.Itoa(year)
	if strings.Contains(upper, y) {
		return true
	}

	// Unlabeled names stay in; only another year pushes a course out.
	return !yearPattern.MatchString(name)
}
