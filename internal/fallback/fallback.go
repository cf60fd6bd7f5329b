// Package fallback wraps external content extractors whose results the
// arbitration step compares against the primary extraction.
package fallback

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/hyperifyio/goextract/internal/canon"
	"github.com/hyperifyio/goextract/internal/extract"
	"github.com/hyperifyio/goextract/internal/tree"
)

// Verdict is an extractor's own opinion of its output.
type Verdict uint8

const (
	Accept Verdict = iota
	// Reject means the extractor's boilerplate classifier discarded the
	// page; arbitration must not pick the candidate.
	Reject
)

func (v Verdict) String() string {
	if v == Reject {
		return "reject"
	}
	return "accept"
}

// Candidate is a canonical body produced by an external extractor.
type Candidate struct {
	Name    string
	Body    *tree.Node
	Text    string
	Verdict Verdict
}

// Oracle is an external extractor. Implementations must not modify doc and
// report false when they produce nothing.
type Oracle interface {
	Name() string
	Extract(doc *html.Node) (Candidate, bool)
}

// Static offers a precomputed body, for callers that ran an extractor
// out of process.
type Static struct {
	Label string
	Body  *tree.Node
}

func (s Static) Name() string { return s.Label }

func (s Static) Extract(*html.Node) (Candidate, bool) {
	if s.Body == nil {
		return Candidate{}, false
	}
	return Candidate{Name: s.Label, Body: s.Body, Text: extract.TextOf(s.Body)}, true
}

// Run asks every oracle in order and returns the candidates they produced.
// A panicking oracle is logged and skipped.
func Run(doc *html.Node, oracles ...Oracle) []Candidate {
	var out []Candidate
	for _, o := range oracles {
		if c, ok := safeExtract(o, doc); ok {
			out = append(out, c)
		}
	}
	return out
}

func safeExtract(o Oracle, doc *html.Node) (c Candidate, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("oracle", o.Name()).Interface("panic", r).Msg("fallback extractor failed")
			c, ok = Candidate{}, false
		}
	}()
	return o.Extract(doc)
}

// canonicalize maps extractor HTML output onto a canonical body.
func canonicalize(h *html.Node, opts extract.Options) *tree.Node {
	root := tree.FromHTML(h)
	if root == nil {
		return tree.New(tree.Body)
	}
	canon.Clean(root, opts.Canon())
	canon.Rewrite(root, opts.Canon())
	return extract.Collect(root, opts)
}
