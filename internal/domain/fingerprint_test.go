package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPortalFingerprint_IgnoresTitleCaseAndWhitespace(t *testing.T) {
	due := time.Date(2026, 11, 5, 23, 59, 0, 0, time.UTC)

	a := PortalFingerprint("12345", "Lab Report 2", due)
	b := PortalFingerprint("12345", "  lab report 2 ", due)

	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestPortalFingerprint_IgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2026, 11, 5, 8, 0, 0, 0, time.UTC)
	night := time.Date(2026, 11, 5, 23, 59, 59, 0, time.UTC)

	assert.Equal(t,
		PortalFingerprint("12345", "Essay", morning),
		PortalFingerprint("12345", "Essay", night),
	)
}

func TestPortalFingerprint_DistinguishesCourseAndDay(t *testing.T) {
	due := time.Date(2026, 11, 5, 12, 0, 0, 0, time.UTC)

	base := PortalFingerprint("12345", "Essay", due)
	assert.NotEqual(t, base, PortalFingerprint("99999", "Essay", due))
	assert.NotEqual(t, base, PortalFingerprint("12345", "Essay", due.AddDate(0, 0, 1)))
	assert.NotEqual(t, base, PortalFingerprint("12345", "Essay 2", due))
}

func TestPortalFingerprint_KnownValue(t *testing.T) {
	// sha256("42-quiz 1-2026-01-15")[:16]
	due := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, shortHash("42-quiz 1-2026-01-15"), PortalFingerprint("42", "Quiz 1", due))
}

func TestPortalFingerprint_UsesUTCDay(t *testing.T) {
	toronto, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Skipf("tz data unavailable: %v", err)
	}

	// 23:59 EST on Nov 5 is 04:59 UTC on Nov 6.
	late := time.Date(2026, 11, 5, 23, 59, 0, 0, toronto)

	assert.Equal(t, shortHash("42-essay-2026-11-06"), PortalFingerprint("42", "Essay", late))
	assert.Equal(t, PortalFingerprint("42", "Essay", late.UTC()), PortalFingerprint("42", "Essay", late))
	assert.NotEqual(t, shortHash("42-essay-2026-11-05"), PortalFingerprint("42", "Essay", late))
}

func TestDocumentFingerprint_ExactInstant(t *testing.T) {
	due := time.Date(2026, 11, 20, 12, 0, 0, 0, time.UTC)
	sameInstant := due.In(time.FixedZone("EST", -5*3600))

	assert.Equal(t, DocumentFingerprint("ECON 1000", due), DocumentFingerprint("ECON 1000", sameInstant))
	assert.NotEqual(t, DocumentFingerprint("ECON 1000", due), DocumentFingerprint("ECON 1000", due.Add(time.Hour)))
	assert.NotEqual(t, DocumentFingerprint("ECON 1000", due), DocumentFingerprint("MATH 1000", due))
}

func TestPromoteCandidate(t *testing.T) {
	c := CandidateDate{
		Text:           "November 20",
		Date:           time.Date(2026, 11, 20, 12, 0, 0, 0, time.UTC),
		Confidence:     ConfidenceHigh,
		SuggestedTitle: "Midterm exam",
	}

	item := PromoteCandidate(c, "ECON 1000", "  ", KindExam)

	assert.Equal(t, "Midterm exam", item.Title)
	assert.Equal(t, OriginDocument, item.Origin)
	assert.Equal(t, DocumentCourseID, item.CourseID)
	assert.Equal(t, DocumentFingerprint("ECON 1000", c.Date), item.ID)
}

func TestConfidence_Order(t *testing.T) {
	assert.Less(t, ConfidenceLow, ConfidenceMedium)
	assert.Less(t, ConfidenceMedium, ConfidenceHigh)
	assert.Equal(t, "high", ConfidenceHigh.String())
}
