package brightspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"deadline_sync/internal/domain"
)

const (
	SourceID   = "brightspace"
	SourceName = "Brightspace"
)

// Config holds Brightspace source configuration.
type Config struct {
	BaseURL           string
	Location          *time.Location
	PageTimeout       time.Duration
	CoursePageTimeout time.Duration
}

// Source discovers courses and deadlines on a Brightspace portal. It holds at
// most one open session at a time and must not be shared between goroutines:
// the session is a single browsing context reused across navigations.
type Source struct {
	provider          SessionProvider
	session           Session
	baseURL           string
	loc               *time.Location
	pageTimeout       time.Duration
	coursePageTimeout time.Duration
	now               func() time.Time
	logger            *slog.Logger
}

// New creates a new Brightspace source.
func New(cfg Config, provider SessionProvider, logger *slog.Logger) *Source {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Source{
		provider:          provider,
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		loc:               loc,
		pageTimeout:       cfg.PageTimeout,
		coursePageTimeout: cfg.CoursePageTimeout,
		now:               time.Now,
		logger:            logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// Open loads the saved session and checks it is still signed in.
func (s *Source) Open(ctx context.Context) error {
	if s.session != nil {
		return nil
	}

	sess, err := s.provider.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return fmt.Errorf("%w: no saved session, log in first", domain.ErrNotAuthenticated)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}

	if !s.provider.Valid(ctx, sess) {
		_ = sess.Close()
		return fmt.Errorf("%w: session expired, log in again", domain.ErrNotAuthenticated)
	}

	s.session = sess
	return nil
}

// Close releases the session. It is safe to call more than once.
func (s *Source) Close() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}

// FetchCourses returns the courses of the current term using the open session.
func (s *Source) FetchCourses(ctx context.Context) ([]domain.Course, error) {
	return s.DiscoverCourses(ctx, s.session)
}

// FetchDeadlines returns the upcoming deadlines of one course using the open session.
func (s *Source) FetchDeadlines(ctx context.Context, course domain.Course) ([]domain.DeadlineItem, error) {
	if s.session == nil {
		return nil, fmt.Errorf("%w: session not open", domain.ErrNotAuthenticated)
	}
	return s.DiscoverDeadlines(ctx, s.session, course), nil
}

// DiscoverCourses tries each course strategy in order and returns the
// courses found by the first one that finds any.
func (s *Source) DiscoverCourses(ctx context.Context, sess Session) ([]domain.Course, error) {
	if sess == nil || !s.provider.Valid(ctx, sess) {
		return nil, domain.ErrNotAuthenticated
	}

	now := s.now()
	views := make(map[string]*goquery.Document)

	for _, st := range courseStrategies {
		doc, ok := views[st.path]
		if !ok {
			var err error
			doc, err = s.fetch(ctx, sess, st.path, s.coursePageTimeout)
			if err != nil {
				s.logger.Warn("course view unavailable",
					"strategy", st.name,
					"error", &domain.DiscoveryError{View: st.name, Err: err},
				)
				continue
			}
			views[st.path] = doc
		}

		courses := st.extract(doc.Selection, s.baseURL, now)
		s.logger.Debug("course strategy finished", "strategy", st.name, "courses", len(courses))
		if len(courses) > 0 {
			s.logger.Info("found current courses", "strategy", st.name, "count", len(courses))
			return courses, nil
		}
	}

	s.logger.Info("found current courses", "count", 0)
	return nil, nil
}

// DiscoverDeadlines visits every deadline view of a course one after
// another. A view that fails contributes nothing; the others still run.
// Items are deduplicated by fingerprint and the first view to produce an
// item keeps it. Without a session there is nothing to visit.
func (s *Source) DiscoverDeadlines(ctx context.Context, sess Session, course domain.Course) []domain.DeadlineItem {
	if sess == nil {
		s.logger.Warn("deadline views skipped",
			"course_id", course.ID,
			"error", &domain.DiscoveryError{View: "deadlines", CourseID: course.ID, Err: domain.ErrNotAuthenticated},
		)
		return nil
	}

	params := &scanParams{now: s.now(), loc: s.loc}

	var items []domain.DeadlineItem
	seen := make(map[string]bool)

	for _, view := range deadlineViews {
		doc, err := s.fetch(ctx, sess, view.path(course.ID), s.pageTimeout)
		if err != nil {
			s.logger.Warn("deadline view unavailable",
				"course_id", course.ID,
				"view", view.name,
				"error", &domain.DiscoveryError{View: view.name, CourseID: course.ID, Err: err},
			)
			continue
		}

		found := view.scan(doc.Selection, course, params)
		added := 0
		for _, item := range found {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			items = append(items, item)
			added++
		}

		s.logger.Debug("deadline view scanned",
			"course_id", course.ID,
			"view", view.name,
			"found", len(found),
			"added", added,
		)
	}

	s.logger.Info("found upcoming items", "course", course.Name, "count", len(items))
	return items
}

func (s *Source) fetch(ctx context.Context, sess Session, path string, timeout time.Duration) (*goquery.Document, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return sess.Fetch(ctx, s.baseURL+path)
}
