// Package syllabus finds candidate deadlines in free document text.
package syllabus

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"deadline_sync/internal/domain"
)

// contextRadius is how many bytes of text around a match are shown to the
// reviewer.
const contextRadius = 60

var academicKeywordRe = regexp.MustCompile(`(?i)assignment|quiz|exam|midterm|final|due|deadline|project|essay|submission|test`)

// academicPatterns are due-date phrasings common in course outlines. Group 1
// is the date expression.
var academicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:assignment|project|essay|lab|quiz|homework)\s*\d*\s*(?:due|deadline)[:\s]+([A-Za-z]+\s+\d+(?:,?\s*\d{4})?)`),
	regexp.MustCompile(`(?i)due[:\s]+([A-Za-z]+\s+\d+(?:,?\s*\d{4})?)`),
	regexp.MustCompile(`(?i)(?:midterm|final|exam)\s*(?:on|:)\s*([A-Za-z]+\s+\d+(?:,?\s*\d{4})?)`),
}

// titlePatterns are tried in order; the first match names the item.
var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(assignment\s*\d*)`),
	regexp.MustCompile(`(?i)\b(quiz\s*\d*)`),
	regexp.MustCompile(`(?i)\b(midterm\s*(?:exam)?)`),
	regexp.MustCompile(`(?i)\b(final\s*(?:exam)?)`),
	regexp.MustCompile(`(?i)\b(project\s*\d*)`),
	regexp.MustCompile(`(?i)\b(essay)`),
	regexp.MustCompile(`(?i)\b(lab\s*\d*)`),
	regexp.MustCompile(`(?i)\b(presentation)`),
	regexp.MustCompile(`(?i)\b(report)`),
	regexp.MustCompile(`(?i)\b(exam\s*\d*)`),
	regexp.MustCompile(`(?i)\b(homework\s*\d*)`),
	regexp.MustCompile(`(?i)\b(test\s*\d*)`),
}

// Work the portal already tracks as submissions.
var assignmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bassignment\s*\d*`),
	regexp.MustCompile(`(?i)\bhomework\s*\d*`),
	regexp.MustCompile(`(?i)\bhw\s*\d+`),
	regexp.MustCompile(`(?i)\bproblem\s*set\s*\d*`),
	regexp.MustCompile(`(?i)\blab\s*(?:report)?\s*\d*`),
	regexp.MustCompile(`(?i)\bworksheet\s*\d*`),
	regexp.MustCompile(`(?i)\bexercise\s*\d*`),
}

// Checked before assignmentPatterns and wins over them.
var keepPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bmidterm`),
	regexp.MustCompile(`(?i)\bfinal\s*(?:exam)?`),
	regexp.MustCompile(`(?i)\bexam\s*\d*`),
	regexp.MustCompile(`(?i)\btest\s*\d*`),
	regexp.MustCompile(`(?i)\bquiz\s*\d*`),
	regexp.MustCompile(`(?i)\breading`),
	regexp.MustCompile(`(?i)\bpresentation`),
	regexp.MustCompile(`(?i)\bproject\s*(?:proposal|milestone|presentation)`),
	regexp.MustCompile(`(?i)\boffice\s*hours`),
	regexp.MustCompile(`(?i)\blecture`),
	regexp.MustCompile(`(?i)\btutorial`),
	regexp.MustCompile(`(?i)\bseminar`),
}

var sentenceBreakRe = regexp.MustCompile(`[.!?]\s+\p{Lu}|[;\n]`)

// Extractor turns document text into candidate deadlines for review.
type Extractor struct {
	loc *time.Location
	now func() time.Time
}

func NewExtractor(loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.Local
	}
	return &Extractor{loc: loc, now: time.Now}
}

type candidate struct {
	domain.CandidateDate
	focus string
}

// Extract returns the future dates found in text, at most one per calendar
// day, without the ones that look like portal assignments. Year-less dates
// are read forward from ref. The result is ordered by date.
func (e *Extractor) Extract(text string, ref time.Time) []domain.CandidateDate {
	now := e.now()

	var found []candidate
	for _, p := range scanPhrases(text, ref, e.loc) {
		if !p.date.After(now) {
			continue
		}
		ctx := contextAround(text, p.start)
		focus := focusAround(text, p.start, p.end)
		found = append(found, candidate{
			CandidateDate: domain.CandidateDate{
				Text:           p.text,
				Date:           p.date,
				Context:        ctx,
				Confidence:     assessConfidence(ctx, p.hasTime),
				SuggestedTitle: suggestTitle(focus),
			},
			focus: focus,
		})
	}

	found = append(found, e.academicMatches(text, ref, now)...)

	var out []domain.CandidateDate
	for _, c := range dedupeByDay(found, e.loc) {
		if isAssignmentLike(c.focus, c.SuggestedTitle) {
			continue
		}
		out = append(out, c.CandidateDate)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (e *Extractor) academicMatches(text string, ref, now time.Time) []candidate {
	var found []candidate
	for _, re := range academicPatterns {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			p, ok := parseExpression(text[idx[2]:idx[3]], ref, e.loc)
			if !ok || !p.date.After(now) {
				continue
			}
			focus := focusAround(text, idx[0], idx[1])
			found = append(found, candidate{
				CandidateDate: domain.CandidateDate{
					Text:           text[idx[0]:idx[1]],
					Date:           p.date,
					Context:        contextAround(text, idx[0]),
					Confidence:     domain.ConfidenceHigh,
					SuggestedTitle: suggestTitle(focus),
				},
				focus: focus,
			})
		}
	}
	return found
}

func assessConfidence(context string, hasTime bool) domain.Confidence {
	keyword := academicKeywordRe.MatchString(context)
	switch {
	case keyword && hasTime:
		return domain.ConfidenceHigh
	case keyword || hasTime:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// dedupeByDay keeps one candidate per calendar day: the most confident, or
// the first seen on a tie. Days keep the position of their first candidate.
func dedupeByDay(found []candidate, loc *time.Location) []candidate {
	var out []candidate
	index := make(map[string]int)

	for _, c := range found {
		key := c.Date.In(loc).Format(time.DateOnly)
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, c)
			continue
		}
		if c.Confidence > out[i].Confidence {
			out[i] = c
		}
	}
	return out
}

func isAssignmentLike(focus, title string) bool {
	text := focus + " " + title
	for _, re := range keepPatterns {
		if re.MatchString(text) {
			return false
		}
	}
	for _, re := range assignmentPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func suggestTitle(text string) string {
	for _, re := range titlePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return "Deadline"
}

// SuggestKind guesses the reminder kind from a title.
func SuggestKind(title string) domain.Kind {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "midterm"), strings.Contains(t, "final"),
		strings.Contains(t, "exam"), strings.Contains(t, "test"):
		return domain.KindExam
	case strings.Contains(t, "quiz"):
		return domain.KindQuiz
	case strings.Contains(t, "reading"):
		return domain.KindReading
	case strings.Contains(t, "discussion"):
		return domain.KindDiscussion
	case t == "deadline":
		return domain.KindOther
	default:
		return domain.KindAssignment
	}
}

// contextAround returns the text within contextRadius bytes of pos with
// whitespace collapsed.
func contextAround(text string, pos int) string {
	from := runeStart(text, max(0, pos-contextRadius))
	to := runeStart(text, min(len(text), pos+contextRadius))
	return strings.Join(strings.Fields(text[from:to]), " ")
}

// focusAround returns the sentence holding text[start:end]. Sentences end at
// terminal punctuation followed by a capitalised word, at semicolons and at
// line breaks.
func focusAround(text string, start, end int) string {
	from, to := 0, len(text)

	for _, loc := range sentenceBreakRe.FindAllStringIndex(text, -1) {
		stop, next := loc[0], loc[1]
		if c := text[loc[0]]; c != ';' && c != '\n' {
			_, size := utf8.DecodeLastRuneInString(text[:loc[1]])
			stop, next = loc[0]+1, loc[1]-size
		}

		if stop >= end {
			to = stop
			break
		}
		if next <= start {
			from = next
		}
	}

	return strings.Join(strings.Fields(text[from:to]), " ")
}

func runeStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}
