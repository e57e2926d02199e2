package brightspace

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"deadline_sync/internal/domain"
)

// deadlineView is one page of a course that lists dated work.
type deadlineView struct {
	name string
	path func(courseID string) string
	scan func(root *goquery.Selection, course domain.Course, p *scanParams) []domain.DeadlineItem
}

// scanParams carries what the pure scanners need besides the DOM.
type scanParams struct {
	now time.Time
	loc *time.Location
}

// listingLayout describes a table-like listing: which elements are rows,
// where the title lives and where a due date may be, in priority order.
type listingLayout struct {
	rows          string
	title         string
	dateLocations []string
}

var (
	dropboxLayout = listingLayout{
		rows:          "table tbody tr, .d2l-table tbody tr, .d_ich",
		title:         "a, .d2l-link, .d2l-heading",
		dateLocations: []string{".d2l-dates", `[class*="date"]`, "td:nth-child(2)", "td:nth-child(3)"},
	}
	quizLayout = listingLayout{
		rows:          "table tbody tr, .d2l-table tbody tr",
		title:         "a, .d2l-link",
		dateLocations: []string{"td"},
	}
)

const calendarEvents = `.d2l-calendar-event, [class*="event"]`

var deadlineViews = []deadlineView{
	{
		name: "dropbox",
		path: func(id string) string { return "/d2l/lms/dropbox/user/folders_list.d2l?ou=" + id },
		scan: listingScanner(dropboxLayout, domain.KindAssignment),
	},
	{
		name: "quizzes",
		path: func(id string) string { return "/d2l/lms/quizzing/user/quizzes_list.d2l?ou=" + id },
		scan: listingScanner(quizLayout, domain.KindQuiz),
	},
	{
		name: "calendar",
		path: func(id string) string { return "/d2l/le/calendar/" + id },
		scan: scanCalendar,
	},
}

func listingScanner(layout listingLayout, kind domain.Kind) func(*goquery.Selection, domain.Course, *scanParams) []domain.DeadlineItem {
	return func(root *goquery.Selection, course domain.Course, p *scanParams) []domain.DeadlineItem {
		var items []domain.DeadlineItem

		root.Find(layout.rows).Each(func(_ int, row *goquery.Selection) {
			title := cleanText(row.Find(layout.title).First().Text())
			if title == "" {
				return
			}

			due, ok := layout.findDate(row, p)
			if !ok || !due.After(p.now) {
				return
			}

			items = append(items, domain.NewPortalItem(course, title, due, kind))
		})

		return items
	}
}

// findDate walks the candidate locations in order and returns the first one
// whose text parses as a date.
func (l listingLayout) findDate(row *goquery.Selection, p *scanParams) (time.Time, bool) {
	for _, sel := range l.dateLocations {
		var (
			due   time.Time
			found bool
		)
		row.Find(sel).EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			due, found = ParseDate(cell.Text(), p.now, p.loc)
			return !found
		})
		if found {
			return due, true
		}
	}
	return time.Time{}, false
}

func scanCalendar(root *goquery.Selection, course domain.Course, p *scanParams) []domain.DeadlineItem {
	var items []domain.DeadlineItem

	root.Find(calendarEvents).Each(func(_ int, event *goquery.Selection) {
		title := cleanText(event.Text())
		attr, ok := event.Attr("data-date")
		if title == "" || !ok {
			return
		}

		due, ok := matchNative(strings.TrimSpace(attr), p.now, p.loc)
		if !ok || !due.After(p.now) {
			return
		}

		items = append(items, domain.NewPortalItem(course, title, due, domain.KindOther))
	})

	return items
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
