package domain

import (
	"strings"
	"time"
)

// Confidence ranks how likely an extracted date is a real deadline.
// The zero value ranks below every named level.
type Confidence int

const (
	ConfidenceLow Confidence = iota + 1
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "unknown"
	}
}

// CandidateDate is a date found in document text that still needs a human
// to confirm it.
type CandidateDate struct {
	Text           string
	Date           time.Time
	Context        string
	Confidence     Confidence
	SuggestedTitle string
}

// PromoteCandidate turns a confirmed candidate into a document item scoped to
// the given course name. An empty title falls back to the suggested one.
func PromoteCandidate(c CandidateDate, scope, title string, kind Kind) DeadlineItem {
	title = strings.TrimSpace(title)
	if title == "" {
		title = c.SuggestedTitle
	}
	return DeadlineItem{
		ID:         DocumentFingerprint(scope, c.Date),
		CourseID:   DocumentCourseID,
		CourseName: scope,
		Title:      title,
		DueDate:    c.Date,
		Kind:       kind,
		Origin:     OriginDocument,
	}
}

// ReviewDecision is an operator-accepted candidate with the title and kind
// they settled on.
type ReviewDecision struct {
	Candidate CandidateDate
	Title     string
	Kind      Kind
}
