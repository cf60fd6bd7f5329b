// Package robots decides whether a page URL may be fetched under the
// site's robots.txt.
package robots

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// maxRobotsBytes caps the robots.txt body read.
const maxRobotsBytes = 512 << 10

// Rules is a parsed robots.txt.
type Rules struct {
	Groups []Group
}

// Group is one User-agent block.
type Group struct {
	Agents     []string
	Allow      []string
	Disallow   []string
	CrawlDelay *time.Duration
}

// Manager fetches robots.txt once per host and remembers it for
// EntryExpiry. It is safe for concurrent use.
type Manager struct {
	HTTPClient  *http.Client
	UserAgent   string
	EntryExpiry time.Duration

	mu     sync.Mutex
	mem    map[string]memEntry
	flight singleflight.Group
	now    func() time.Time
}

type memEntry struct {
	rules  Rules
	expiry time.Time
}

// Allowed reports whether pageURL may be fetched by the manager's agent.
func (m *Manager) Allowed(ctx context.Context, pageURL string) (bool, error) {
	ok, _, err := m.Check(ctx, pageURL)
	return ok, err
}

// Check reports whether pageURL may be fetched and the crawl delay the site
// asks of the manager's agent (zero when none is set).
func (m *Manager) Check(ctx context.Context, pageURL string) (bool, time.Duration, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse url: %w", err)
	}
	rules, err := m.Rules(ctx, robotsURL(u))
	if err != nil {
		return false, 0, err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	var delay time.Duration
	if d := rules.CrawlDelayFor(m.UserAgent); d != nil {
		delay = *d
	}
	return rules.IsAllowed(m.UserAgent, path), delay, nil
}

// Rules returns the parsed rules at robotsURL. A missing robots.txt (any
// 4xx) yields empty rules, which allow everything.
func (m *Manager) Rules(ctx context.Context, robotsURL string) (Rules, error) {
	if r, ok := m.lookup(robotsURL); ok {
		return r, nil
	}
	v, err, _ := m.flight.Do(robotsURL, func() (any, error) {
		rules, err := m.download(ctx, robotsURL)
		if err != nil {
			return Rules{}, err
		}
		m.store(robotsURL, rules)
		return rules, nil
	})
	if err != nil {
		return Rules{}, err
	}
	return v.(Rules), nil
}

func (m *Manager) download(ctx context.Context, robotsURL string) (Rules, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, fmt.Errorf("new request: %w", err)
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}
	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rules{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return Rules{}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Rules{}, fmt.Errorf("robots.txt: unexpected status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return Rules{}, fmt.Errorf("read robots: %w", err)
	}
	return Parse(string(data)), nil
}

func (m *Manager) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

func (m *Manager) lookup(key string) (Rules, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ent, ok := m.mem[key]
	if !ok || !m.clock().Before(ent.expiry) {
		return Rules{}, false
	}
	return ent.rules, true
}

func (m *Manager) store(key string, rules Rules) {
	exp := m.EntryExpiry
	if exp <= 0 {
		exp = 30 * time.Minute
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mem == nil {
		m.mem = make(map[string]memEntry)
	}
	m.mem[key] = memEntry{rules: rules, expiry: m.clock().Add(exp)}
}

func robotsURL(u *url.URL) string {
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	current := Group{}
	flush := func() {
		if len(current.Agents) == 0 && len(current.Allow) == 0 && len(current.Disallow) == 0 && current.CrawlDelay == nil {
			return
		}
		groups = append(groups, current)
		current = Group{}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		key, val, ok := strings.Cut(line, ":")
		if !ok || key == "" {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "user-agent", "useragent":
			if len(current.Allow) > 0 || len(current.Disallow) > 0 || current.CrawlDelay != nil {
				flush()
			}
			current.Agents = append(current.Agents, strings.ToLower(val))
		case "allow":
			current.Allow = append(current.Allow, val)
		case "disallow":
			current.Disallow = append(current.Disallow, val)
		case "crawl-delay", "crawldelay":
			if d, err := time.ParseDuration(val + "s"); err == nil && val != "" {
				current.CrawlDelay = &d
			}
		}
	}
	flush()
	return Rules{Groups: groups}
}

// IsAllowed evaluates path (optionally with a query) for userAgent.
//
// The group whose agent token is the longest substring of userAgent wins,
// with "*" as the weakest match. Inside the group the matching directive
// with the longest pattern (ignoring '*' and a trailing '$') decides; on a
// tie Allow wins. Without a matching directive the path is allowed.
func (r Rules) IsAllowed(userAgent, path string) bool {
	idx := r.groupFor(userAgent)
	if idx < 0 {
		return true
	}
	grp := r.Groups[idx]

	bestScore := -1
	bestAllow := true
	evaluate := func(patterns []string, allow bool) {
		for _, p := range patterns {
			if p == "" || !patternMatches(p, path) {
				continue
			}
			score := patternSpecificity(p)
			if score > bestScore || (score == bestScore && allow && !bestAllow) {
				bestScore, bestAllow = score, allow
			}
		}
	}
	evaluate(grp.Disallow, false)
	evaluate(grp.Allow, true)
	return bestScore == -1 || bestAllow
}

// CrawlDelayFor returns the crawl delay of the group matching userAgent.
func (r Rules) CrawlDelayFor(userAgent string) *time.Duration {
	idx := r.groupFor(userAgent)
	if idx < 0 {
		return nil
	}
	return r.Groups[idx].CrawlDelay
}

func (r Rules) groupFor(userAgent string) int {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	bestIdx, bestScore := -1, -1
	for i, g := range r.Groups {
		for _, a := range g.Agents {
			token := strings.TrimSpace(a)
			var score int
			switch {
			case token == "":
				continue
			case token == "*":
				score = 0
			case strings.Contains(ua, token):
				score = len(token)
			default:
				continue
			}
			if score > bestScore {
				bestScore, bestIdx = score, i
			}
		}
	}
	return bestIdx
}

// patternMatches anchors pattern at the start of path. '*' matches any
// sequence and a trailing '$' anchors the end.
func patternMatches(pattern, path string) bool {
	anchorEnd := strings.HasSuffix(pattern, "$")
	p := strings.TrimSuffix(pattern, "$")
	var b strings.Builder
	b.WriteString("^")
	for i, part := range strings.Split(p, "*") {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	if anchorEnd {
		b.WriteString("$")
	}
	return regexp.MustCompile(b.String()).MatchString(path)
}

func patternSpecificity(pattern string) int {
	return len(strings.ReplaceAll(strings.TrimSuffix(pattern, "$"), "*", ""))
}
