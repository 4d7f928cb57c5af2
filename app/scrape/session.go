package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// ErrSessionBroken marks a session that must be discarded and recreated.
var ErrSessionBroken = errors.New("scrape session broken")

const maxConsecutiveFailures = 3

type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s (%s)", e.Code, http.StatusText(e.Code), e.URL)
}

type Page struct {
	URL         string
	ContentType string
	Body        []byte
}

// Session is a stateful browsing context shared by consecutive fetches.
type Session interface {
	Get(ctx context.Context, url string, timeout time.Duration) (*Page, error)
	Close() error
}

type SessionOptions struct {
	UserAgent         string
	RequestsPerSecond float64
}

var _ Session = (*HTTPSession)(nil)

// HTTPSession keeps cookies between requests and paces them politely.
type HTTPSession struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string

	mu       sync.Mutex
	closed   bool
	failures int
}

func NewHTTPSession(opts SessionOptions) (*HTTPSession, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &HTTPSession{
		client: &http.Client{
			Jar: jar,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: opts.UserAgent,
	}, nil
}

func (s *HTTPSession) Get(ctx context.Context, url string, timeout time.Duration) (*Page, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, ErrSessionBroken)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, s.transportFailure(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.resetFailures()
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, s.transportFailure(url, err)
	}

	s.resetFailures()

	return &Page{URL: url, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

func (s *HTTPSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.client.CloseIdleConnections()
	return nil
}

// transportFailure counts connection-level errors. Timeouts stay transient; a run of
// other failures means the connection pool or cookies are unusable.
func (s *HTTPSession) transportFailure(url string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	s.mu.Lock()
	s.failures++
	failures := s.failures
	s.mu.Unlock()

	if failures >= maxConsecutiveFailures {
		slog.Warn("Session marked broken", "url", url, "consecutive_failures", failures, "error", err)
		return fmt.Errorf("failed to fetch %s: %w: %v", url, ErrSessionBroken, err)
	}
	return fmt.Errorf("failed to fetch %s: %w", url, err)
}

func (s *HTTPSession) resetFailures() {
	s.mu.Lock()
	s.failures = 0
	s.mu.Unlock()
}

// Document parses a page as HTML, converting its charset to UTF-8 first.
func Document(page *Page) (*goquery.Document, error) {
	reader, err := charset.NewReader(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset of %s: %w", page.URL, err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML of %s: %w", page.URL, err)
	}
	return doc, nil
}

// FetchDocument is Get followed by Document.
func FetchDocument(ctx context.Context, s Session, url string, timeout time.Duration) (*goquery.Document, error) {
	page, err := s.Get(ctx, url, timeout)
	if err != nil {
		return nil, err
	}
	return Document(page)
}
