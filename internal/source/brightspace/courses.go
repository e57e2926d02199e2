package brightspace

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"deadline_sync/internal/domain"
	"deadline_sync/internal/term"
)

const (
	pinnedCoursesPath = "/d2l/le/manageCourses/widget/myCourses/6605/PinnedCourses"
	homePath          = "/d2l/home"
)

var (
	courseLinkRe = regexp.MustCompile(`/d2l/(?:home|le/content)/(\d+)`)
	homeLinkRe   = regexp.MustCompile(`/d2l/home/(\d+)`)
)

// courseStrategy is one way of finding enrolled courses on one portal view.
// Selectors are alternatives: the first one matching at least one element is
// the only one used.
type courseStrategy struct {
	name       string
	path       string
	selectors  []string
	idPattern  *regexp.Regexp
	filterTerm bool // the pinned widget is already limited to current courses
}

var courseStrategies = []courseStrategy{
	{
		name: "pinned",
		path: pinnedCoursesPath,
		selectors: []string{
			".d2l-card",
			".course-card",
			`[class*="course-card"]`,
			"d2l-enrollment-card",
			`[class*="enrollment"]`,
			".d2l-datalist-item",
		},
		idPattern: courseLinkRe,
	},
	{
		name:       "homepage",
		path:       homePath,
		selectors:  []string{".d2l-card", `[class*="course-card"]`, "d2l-card"},
		idPattern:  courseLinkRe,
		filterTerm: true,
	},
	{
		name:       "link-scan",
		path:       homePath,
		selectors:  []string{`a[href*="/d2l/home/"]`},
		idPattern:  homeLinkRe,
		filterTerm: true,
	},
}

// extract runs the strategy over an already fetched view. Elements without a
// usable link or course id are skipped.
func (st courseStrategy) extract(root *goquery.Selection, baseURL string, now time.Time) []domain.Course {
	elements := st.locate(root)
	if elements == nil {
		return nil
	}

	var courses []domain.Course
	seen := make(map[string]bool)

	elements.Each(func(_ int, el *goquery.Selection) {
		link := linkOf(el)
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		m := st.idPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[1]

		name := firstLine(el.Text())
		if name == "" || seen[id] {
			return
		}
		if st.filterTerm && !term.IsCurrent(name, now) {
			return
		}

		seen[id] = true
		courses = append(courses, domain.Course{
			ID:   id,
			Name: name,
			URL:  resolveURL(baseURL, href),
		})
	})

	return courses
}

func (st courseStrategy) locate(root *goquery.Selection) *goquery.Selection {
	for _, sel := range st.selectors {
		if found := root.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func linkOf(el *goquery.Selection) *goquery.Selection {
	if el.Is("a") {
		return el
	}
	return el.Find("a").First()
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

func resolveURL(baseURL, href string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return strings.TrimRight(baseURL, "/") + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return strings.TrimRight(baseURL, "/") + href
	}
	return base.ResolveReference(ref).String()
}
