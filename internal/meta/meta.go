// Package meta reads document metadata from the <head> of a page.
package meta

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"golang.org/x/net/html"
)

// Metadata has a fixed key set. A nil field is absent and serializes as
// null.
type Metadata struct {
	Title       *string  `json:"title"`
	Author      *string  `json:"author"`
	URL         *string  `json:"url"`
	Hostname    *string  `json:"hostname"`
	Date        *string  `json:"date"`
	Sitename    *string  `json:"sitename"`
	Description *string  `json:"description"`
	Categories  []string `json:"categories"`
	Tags        []string `json:"tags"`
	License     *string  `json:"license"`
	ID          *string  `json:"id"`
	Fingerprint *string  `json:"fingerprint"`
}

// String returns a pointer to s, or nil when s is blank.
func String(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences p, returning "" for nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// FromDocument collects what the page declares about itself. pageURL is
// used when the page carries no canonical URL.
func FromDocument(doc *html.Node, pageURL string) Metadata {
	var md Metadata
	if doc == nil {
		md.URL = String(pageURL)
		md.Hostname = hostname(pageURL)
		return md
	}
	d := goquery.NewDocumentFromNode(doc)

	md.Title = first(
		metaContent(d, `meta[property="og:title"]`),
		metaContent(d, `meta[name="twitter:title"]`),
		d.Find("head title").First().Text(),
		d.Find("h1").First().Text(),
	)
	md.Author = first(
		metaContent(d, `meta[name="author"]`),
		metaContent(d, `meta[property="article:author"]`),
		d.Find(`[rel="author"]`).First().Text(),
	)
	md.URL = first(
		attr(d, `link[rel="canonical"]`, "href"),
		metaContent(d, `meta[property="og:url"]`),
		pageURL,
	)
	md.Hostname = hostname(Value(md.URL))
	md.Date = normalizeDate(Value(first(
		metaContent(d, `meta[property="article:published_time"]`),
		metaContent(d, `meta[name="date"]`),
		metaContent(d, `meta[itemprop="datePublished"]`),
		attr(d, "time[datetime]", "datetime"),
	)))
	md.Sitename = first(
		metaContent(d, `meta[property="og:site_name"]`),
		metaContent(d, `meta[name="application-name"]`),
	)
	md.Description = first(
		metaContent(d, `meta[name="description"]`),
		metaContent(d, `meta[property="og:description"]`),
	)
	md.Categories = collect(d, `meta[property="article:section"]`)
	md.Tags = collect(d, `meta[property="article:tag"]`)
	if len(md.Tags) == 0 {
		md.Tags = splitList(metaContent(d, `meta[name="keywords"]`))
	}
	md.License = first(
		attr(d, `link[rel="license"]`, "href"),
		d.Find(`a[rel="license"]`).First().Text(),
	)
	return md
}

func first(values ...string) *string {
	for _, v := range values {
		if p := String(v); p != nil {
			return p
		}
	}
	return nil
}

func metaContent(d *goquery.Document, sel string) string {
	return attr(d, sel, "content")
}

func attr(d *goquery.Document, sel, name string) string {
	v, _ := d.Find(sel).First().Attr(name)
	return v
}

func collect(d *goquery.Document, sel string) []string {
	var out []string
	d.Find(sel).Each(func(_ int, s *goquery.Selection) {
		if v := strings.TrimSpace(s.AttrOr("content", "")); v != "" {
			out = append(out, v)
		}
	})
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func hostname(raw string) *string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return String(strings.TrimPrefix(u.Hostname(), "www."))
}

// normalizeDate renders parseable dates as YYYY-MM-DD and drops the rest.
func normalizeDate(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := dateparse.ParseAny(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return String(t.Format("2006-01-02"))
}
