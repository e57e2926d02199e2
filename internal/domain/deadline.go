package domain

import "time"

type Kind string

const (
	KindAssignment Kind = "assignment"
	KindQuiz       Kind = "quiz"
	KindExam       Kind = "exam"
	KindDiscussion Kind = "discussion"
	KindReading    Kind = "reading"
	KindOther      Kind = "other"
)

// ParseKind maps free text to a Kind, falling back to KindOther.
func ParseKind(s string) Kind {
	switch k := Kind(s); k {
	case KindAssignment, KindQuiz, KindExam, KindDiscussion, KindReading:
		return k
	default:
		return KindOther
	}
}

// Origin tells which ingestion path produced an item. The values match the
// ones stored in existing ledger files.
type Origin string

const (
	OriginPortal   Origin = "brightspace"
	OriginDocument Origin = "syllabus"
)

// DocumentCourseID is the course id given to items confirmed from a document.
const DocumentCourseID = "syllabus"

// DeadlineItem is a dated obligation ready to be turned into a reminder.
// ID is a content fingerprint, see PortalFingerprint and DocumentFingerprint.
type DeadlineItem struct {
	ID          string
	CourseID    string
	CourseName  string
	Title       string
	DueDate     time.Time
	Description string
	Kind        Kind
	Origin      Origin
}

// NewPortalItem builds a portal item with its fingerprint filled in.
func NewPortalItem(course Course, title string, due time.Time, kind Kind) DeadlineItem {
	return DeadlineItem{
		ID:         PortalFingerprint(course.ID, title, due),
		CourseID:   course.ID,
		CourseName: course.Name,
		Title:      title,
		DueDate:    due,
		Kind:       kind,
		Origin:     OriginPortal,
	}
}
