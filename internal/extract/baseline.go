package extract

import (
	"encoding/json"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hyperifyio/goextract/internal/tree"
)

// rxArticleBody reads the article body out of JSON-LD blocks that do not
// decode as JSON.
var rxArticleBody = regexp.MustCompile(`(?is)"articlebody"\s*:\s*"(.+?)"\s*,\s*"`)

const baselineNoise = "aside, footer, script, style"

// Baseline scrapes a document without canonicalization: the JSON-LD article
// body, else the first article element, else the distinct texts of quote,
// code and paragraph elements. It never fails; an unusable document yields
// an empty body. The document is not modified.
func Baseline(doc *html.Node) (*tree.Node, string) {
	body := tree.New(tree.Body)
	if doc == nil {
		return body, ""
	}
	d := goquery.NewDocumentFromNode(doc)

	var jsonBody string
	d.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		jsonBody = articleBody(s.Text())
		return jsonBody == ""
	})
	if jsonBody != "" {
		addParagraph(body, jsonBody)
		return body, TextOf(body)
	}

	if art := d.Find("article").First(); art.Length() > 0 {
		clean := art.Clone()
		clean.Find(baselineNoise).Remove()
		if text := normalizeWhitespace(clean.Text()); text != "" {
			addParagraph(body, text)
			return body, TextOf(body)
		}
	}

	seen := make(map[string]struct{})
	d.Find("blockquote, code, p, pre, q, quote").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("aside, footer").Length() > 0 {
			return
		}
		entry := normalizeWhitespace(s.Text())
		if entry == "" {
			return
		}
		if _, dup := seen[entry]; dup {
			return
		}
		seen[entry] = struct{}{}
		addParagraph(body, entry)
	})
	return body, TextOf(body)
}

func addParagraph(body *tree.Node, text string) {
	p := tree.New(tree.P)
	p.Text = text
	body.Append(p)
}

// articleBody returns the first article body string found in a JSON-LD
// block, searching nested objects and graphs.
func articleBody(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(strings.ToLower(raw), `"articlebody"`) {
		return ""
	}
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err == nil {
		return articleBodyIn(data)
	}
	m := rxArticleBody.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	if s, err := strconv.Unquote(`"` + m[1] + `"`); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(strings.ReplaceAll(m[1], `\"`, `"`))
}

func articleBodyIn(v any) string {
	switch x := v.(type) {
	case map[string]any:
		for key, val := range x {
			if s, ok := val.(string); ok && strings.EqualFold(key, "articlebody") {
				if s = strings.TrimSpace(s); s != "" {
					return htmlText(s)
				}
			}
		}
		for _, key := range slices.Sorted(maps.Keys(x)) {
			if s := articleBodyIn(x[key]); s != "" {
				return s
			}
		}
	case []any:
		for _, item := range x {
			if s := articleBodyIn(item); s != "" {
				return s
			}
		}
	}
	return ""
}

// htmlText flattens article bodies that embed paragraph markup.
func htmlText(s string) string {
	if !strings.Contains(s, "<p>") {
		return s
	}
	frag, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return normalizeWhitespace(frag.Text())
}

// normalizeWhitespace collapses blank line runs and intra-line whitespace.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := collapseSpaces(line)
		if trimmed == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, trimmed)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	return strings.Join(out, "\n")
}
