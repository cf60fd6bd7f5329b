package fallback

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/go-shiori/dom"
	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/hyperifyio/goextract/internal/extract"
)

// Readability runs go-readability over the uncleaned document.
type Readability struct {
	// PageURL resolves relative links; may be nil.
	PageURL *url.URL
	Options extract.Options
}

func (Readability) Name() string { return "readability" }

// Extract renders doc, lets readability pick the article and converts the
// article markup into a canonical body. Output without any paragraph is
// marked Reject.
func (r Readability) Extract(doc *html.Node) (Candidate, bool) {
	if doc == nil {
		return Candidate{}, false
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		log.Debug().Err(err).Msg("readability: render")
		return Candidate{}, false
	}
	pageURL := r.PageURL
	if pageURL == nil {
		pageURL = &url.URL{}
	}
	article, err := readability.FromReader(&buf, pageURL)
	if err != nil {
		log.Debug().Err(err).Msg("readability: no article")
		return Candidate{}, false
	}
	if strings.TrimSpace(article.Content) == "" {
		return Candidate{}, false
	}
	content, err := html.Parse(strings.NewReader(article.Content))
	if err != nil {
		return Candidate{}, false
	}
	verdict := Accept
	if len(dom.GetElementsByTagName(content, "p")) == 0 {
		verdict = Reject
	}
	body := canonicalize(content, r.Options)
	return Candidate{Name: r.Name(), Body: body, Text: extract.TextOf(body), Verdict: verdict}, true
}
