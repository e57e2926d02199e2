package brightspace

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
)

// ErrNoSession is returned by a SessionProvider when no saved session exists.
var ErrNoSession = errors.New("no saved session")

// Session is a pre-authenticated browsing context. Pages come back as parsed
// DOM documents with Url set to the final location after redirects.
type Session interface {
	Fetch(ctx context.Context, rawURL string) (*goquery.Document, error)
	Close() error
}

// SessionProvider loads the saved session and checks whether it still works.
type SessionProvider interface {
	Load(ctx context.Context) (Session, error)
	Valid(ctx context.Context, s Session) bool
}

// HTTPStatusError is returned for non-2xx page responses.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// SessionConfig holds settings for the cookie-backed session.
type SessionConfig struct {
	BaseURL        string
	StateFile      string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// storageState is the subset of a browser storage-state export we need.
type storageState struct {
	Cookies []stateCookie `json:"cookies"`
}

type stateCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

// CookieSessionProvider restores a browser login from a storage-state file and
// replays its cookies over plain HTTP.
type CookieSessionProvider struct {
	cfg    SessionConfig
	logger *slog.Logger
}

func NewCookieSessionProvider(cfg SessionConfig, logger *slog.Logger) *CookieSessionProvider {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &CookieSessionProvider{
		cfg:    cfg,
		logger: logger.With("component", "session"),
	}
}

// Exists reports whether a saved session file is present.
func (p *CookieSessionProvider) Exists() bool {
	_, err := os.Stat(p.cfg.StateFile)
	return err == nil
}

func (p *CookieSessionProvider) Load(ctx context.Context) (Session, error) {
	data, err := os.ReadFile(p.cfg.StateFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session state: %w", err)
	}

	var state storageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	loadCookies(jar, state.Cookies)

	p.logger.Debug("session loaded", "cookies", len(state.Cookies))

	return &httpSession{
		client: &http.Client{
			Timeout: p.cfg.Timeout,
			Jar:     jar,
		},
		maxAttempts:    p.cfg.MaxAttempts,
		initialBackoff: p.cfg.InitialBackoff,
		maxBackoff:     p.cfg.MaxBackoff,
		logger:         p.logger,
	}, nil
}

// Valid opens the portal home page and looks at where it ended up. A
// redirect to a sign-in page means the cookies have expired.
func (p *CookieSessionProvider) Valid(ctx context.Context, s Session) bool {
	if s == nil {
		return false
	}

	doc, err := s.Fetch(ctx, strings.TrimRight(p.cfg.BaseURL, "/")+"/d2l/home")
	if err != nil {
		p.logger.Error("session validation failed", "error", err)
		return false
	}

	valid := sessionLooksValid(doc, p.cfg.BaseURL)
	p.logger.Info("session checked", "valid", valid)
	return valid
}

func sessionLooksValid(doc *goquery.Document, baseURL string) bool {
	final := ""
	if doc.Url != nil {
		final = strings.ToLower(doc.Url.String())
	}

	for _, marker := range []string{"login", "adfs", "auth", "idp"} {
		if strings.Contains(final, marker) {
			return false
		}
	}

	if base, err := url.Parse(baseURL); err == nil && doc.Url != nil {
		if strings.EqualFold(doc.Url.Host, base.Host) && strings.HasPrefix(doc.Url.Path, "/d2l") {
			return true
		}
	}

	return doc.Find(`.d2l-page-header, .d2l-homepage, [class*="homepage"], [class*="course"]`).Length() > 0
}

func loadCookies(jar http.CookieJar, cookies []stateCookie) {
	byHost := make(map[string][]*http.Cookie)
	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		if host == "" {
			continue
		}
		cookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if strings.HasPrefix(c.Domain, ".") {
			cookie.Domain = host
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		byHost[host] = append(byHost[host], cookie)
	}

	for host, list := range byHost {
		jar.SetCookies(&url.URL{Scheme: "https", Host: host, Path: "/"}, list)
	}
}

type httpSession struct {
	client         *http.Client
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func (s *httpSession) Fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	var doc *goquery.Document
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		doc, err = s.doRequest(ctx, rawURL)
		if err == nil {
			return doc, nil
		}

		if !retryable(err) || attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"url", rawURL,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, err
}

func (s *httpSession) doRequest(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Encoding", "br, gzip")
	req.Header.Set("User-Agent", "DeadlineSync/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc.Url = resp.Request.URL

	return doc, nil
}

func (s *httpSession) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *httpSession) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if s.maxBackoff > 0 && backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func decodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip body: %w", err)
		}
		return zr, nil
	default:
		return resp.Body, nil
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return true
}
