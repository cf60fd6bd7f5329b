// Package fetch retrieves single HTML pages for extraction.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/robots"
)

// DefaultMaxBytes caps response bodies; larger pages are truncated.
const DefaultMaxBytes = 20 << 20

var (
	ErrUnsupportedScheme      = errors.New("unsupported URL scheme")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrTooManyRedirects       = errors.New("too many redirects")
	ErrDisallowed             = errors.New("disallowed by robots.txt")
)

// StatusError is a non-success HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("unexpected status: %d", e.Code) }

// Page is a fetched document.
type Page struct {
	// URL is the address after redirects.
	URL         string
	ContentType string
	Body        []byte
	// Cached is set when the body was served from the page cache.
	Cached bool
}

// Client wraps http.Client with timeouts, bounded retry on transient
// errors and an optional revalidating page cache.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// MaxBytes caps the body size; zero selects DefaultMaxBytes.
	MaxBytes int64
	Cache    *cache.PageCache
	// BypassCache fetches fresh without conditional headers but still
	// stores the response.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxConcurrent limits in-flight requests. Zero means unlimited.
	MaxConcurrent int
	// Robots, when set, is consulted before each fetch. A robots.txt that
	// cannot be retrieved blocks the fetch. Requests to one host are spaced
	// by its Crawl-delay, capped at MaxCrawlDelay.
	Robots *robots.Manager
	// MaxCrawlDelay caps a site's Crawl-delay. Zero means 10s.
	MaxCrawlDelay time.Duration

	limiter     chan struct{}
	limiterOnce sync.Once

	paceMu sync.Mutex
	nextAt map[string]time.Time
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirect()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirect()}
}

// Get fetches rawURL, retrying 5xx responses and timeouts.
func (c *Client) Get(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}
	if c.Robots != nil {
		ok, delay, err := c.Robots.Check(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDisallowed, rawURL, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
		}
		if err := c.pace(ctx, u.Host, delay); err != nil {
			return nil, err
		}
	}

	var stored *cache.PageMeta
	if c.Cache != nil && !c.BypassCache {
		if m, err := c.Cache.Meta(ctx, rawURL); err == nil {
			stored = m
		}
	}
	attempts := max(c.MaxAttempts, 1)
	var lastErr error
	for i := 0; i < attempts; i++ {
		page, status, err := c.tryOnce(ctx, rawURL, stored)
		if err == nil {
			return c.settle(ctx, rawURL, page, status)
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			break
		}
		log.Debug().Err(err).Str("url", rawURL).Int("attempt", i+1).Msg("retrying fetch")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", rawURL, lastErr)
}

// settle stores fresh responses and answers 304 from the cache.
func (c *Client) settle(ctx context.Context, rawURL string, page *response, status int) (*Page, error) {
	if c.Cache == nil {
		return &page.Page, nil
	}
	if status == http.StatusNotModified {
		body, err := c.Cache.Body(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("cached body: %w", err)
		}
		page.Body, page.Cached = body, true
		if m, err := c.Cache.Meta(ctx, rawURL); err == nil && page.ContentType == "" {
			page.ContentType = m.ContentType
		}
		return &page.Page, nil
	}
	meta := cache.PageMeta{URL: rawURL, ContentType: page.ContentType}
	meta.ETag, meta.LastModified = page.etag, page.lastModified
	if err := c.Cache.Save(ctx, meta, page.Body); err != nil {
		log.Warn().Err(err).Str("url", rawURL).Msg("page cache save failed")
	}
	return &page.Page, nil
}

// pace waits until host may be contacted again and reserves the next slot
// delay later.
func (c *Client) pace(ctx context.Context, host string, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	limit := c.MaxCrawlDelay
	if limit <= 0 {
		limit = 10 * time.Second
	}
	delay = min(delay, limit)

	c.paceMu.Lock()
	if c.nextAt == nil {
		c.nextAt = make(map[string]time.Time)
	}
	now := time.Now()
	start := now
	if next, ok := c.nextAt[host]; ok && next.After(now) {
		start = next
	}
	c.nextAt[host] = start.Add(delay)
	c.paceMu.Unlock()

	wait := start.Sub(now)
	if wait <= 0 {
		return nil
	}
	log.Debug().Str("host", host).Dur("wait", wait).Msg("crawl delay")
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type response struct {
	Page
	etag         string
	lastModified string
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, stored *cache.PageMeta) (*response, int, error) {
	c.acquire()
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if stored != nil {
		if stored.ETag != "" {
			req.Header.Set("If-None-Match", stored.ETag)
		}
		if stored.LastModified != "" {
			req.Header.Set("If-Modified-Since", stored.LastModified)
		}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	out := &response{
		Page:         Page{URL: resp.Request.URL.String(), ContentType: resp.Header.Get("Content-Type")},
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	}
	switch {
	case resp.StatusCode == http.StatusNotModified:
		return out, resp.StatusCode, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, resp.StatusCode, &StatusError{Code: resp.StatusCode}
	case !isHTMLContentType(out.ContentType):
		return nil, resp.StatusCode, fmt.Errorf("%w: %s", ErrUnsupportedContentType, out.ContentType)
	}
	limit := c.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	out.Body, err = io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return out, resp.StatusCode, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500
}

func (c *Client) checkRedirect() func(req *http.Request, via []*http.Request) error {
	hops := c.RedirectMaxHops
	if hops <= 0 {
		hops = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= hops {
			return ErrTooManyRedirects
		}
		if !isHTTPScheme(req.URL) {
			return ErrUnsupportedScheme
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// isHTMLContentType accepts HTML and XHTML. An absent header is allowed.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return ct == "" || strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	<-c.limiter
}
