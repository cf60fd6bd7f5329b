package fallback

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hyperifyio/goextract/internal/extract"
)

// landmarkNoise never carries article content.
const landmarkNoise = "script, style, noscript, nav, footer, aside, iframe, form"

// Landmark takes the first <main>, else <article>, else <body> and drops
// navigation and consent banners. It catches pages whose containers the
// primary rules do not recognise.
type Landmark struct {
	Options extract.Options
}

func (Landmark) Name() string { return "landmark" }

func (l Landmark) Extract(doc *html.Node) (Candidate, bool) {
	if doc == nil {
		return Candidate{}, false
	}
	d := goquery.NewDocumentFromNode(doc)
	var region *goquery.Selection
	for _, sel := range []string{"main", "article", "body"} {
		if s := d.Find(sel).First(); s.Length() > 0 {
			region = s
			break
		}
	}
	if region == nil {
		return Candidate{}, false
	}
	region = region.Clone()
	region.Find(landmarkNoise).Remove()
	region.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return isConsentBanner(s.Get(0))
	}).Remove()

	body := canonicalize(region.Get(0), l.Options)
	if len(body.Children) == 0 {
		return Candidate{}, false
	}
	return Candidate{Name: l.Name(), Body: body, Text: extract.TextOf(body)}, true
}

// isConsentBanner reports whether the element looks like a cookie or
// consent banner.
func isConsentBanner(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && !strings.HasPrefix(key, "data-") && key != "aria-label" && key != "role" {
			continue
		}
		val := strings.ToLower(attr.Val)
		if containsAny(val, "cookie", "consent", "gdpr") {
			return true
		}
	}
	return false
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
