// Package arbitrate chooses the final body among the primary extraction,
// external candidates and the baseline, then applies the size gates.
package arbitrate

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/goextract/internal/extract"
	"github.com/hyperifyio/goextract/internal/fallback"
	"github.com/hyperifyio/goextract/internal/tree"
)

// Kind is the outcome of a pipeline run. Everything except Accepted is a
// rejection.
type Kind uint8

const (
	Accepted Kind = iota
	InputInvalid
	LanguageMismatch
	Undersized
	Oversized
	Duplicate
)

var kindNames = [...]string{
	Accepted:         "accepted",
	InputInvalid:     "input_invalid",
	LanguageMismatch: "language_mismatch",
	Undersized:       "undersized",
	Oversized:        "oversized",
	Duplicate:        "duplicate",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Defaults for Config fields left at zero.
const (
	DefaultMinExtractedSize     = 250
	DefaultMinOutputSize        = 1
	DefaultMinOutputCommentSize = 1
	DefaultFallbackRatio        = 2.0
)

// Config holds the arbitration thresholds. Zero values select defaults;
// MaxTreeSize zero disables the node ceiling.
type Config struct {
	MinExtractedSize     int
	MinOutputSize        int
	MinOutputCommentSize int
	MaxTreeSize          int
	// FallbackRatio is how many times longer one body must be than the
	// other before length alone decides.
	FallbackRatio float64
	// Focus shifts the rescue and candidate rules towards precision or
	// recall.
	Focus extract.Focus
}

func (c Config) withDefaults() Config {
	if c.MinExtractedSize <= 0 {
		c.MinExtractedSize = DefaultMinExtractedSize
	}
	if c.MinOutputSize <= 0 {
		c.MinOutputSize = DefaultMinOutputSize
	}
	if c.MinOutputCommentSize <= 0 {
		c.MinOutputCommentSize = DefaultMinOutputCommentSize
	}
	if c.FallbackRatio <= 1 {
		c.FallbackRatio = DefaultFallbackRatio
	}
	return c
}

// Input gathers everything the decision needs.
type Input struct {
	Body *tree.Node
	Text string
	// Sure is the primary extractor's confidence in its container match.
	Sure         bool
	CommentsText string
	// Candidates come from fallback oracles, in preference order.
	Candidates []fallback.Candidate
	// Cheap skips candidate comparison and applies the baseline rescue.
	Cheap        bool
	Baseline     *tree.Node
	BaselineText string
}

// Result is the chosen body or a rejection kind.
type Result struct {
	Kind Kind
	Body *tree.Node
	Text string
	// Source names the strategy whose body won.
	Source string
}

// Rejected reports whether the result carries a rejection.
func (r Result) Rejected() bool { return r.Kind != Accepted }

// Decide picks the final body and applies the size gates. The chosen body
// may have cosmetic tags stripped in place.
func Decide(in Input, cfg Config) Result {
	cfg = cfg.withDefaults()
	res := Result{Kind: Accepted, Body: in.Body, Text: in.Text, Source: "primary"}
	if res.Body == nil {
		res.Body, res.Text = tree.New(tree.Body), ""
	}
	length := runeLen(res.Text)

	precise := cfg.Focus == extract.FavorPrecision
	switch {
	case in.Cheap:
		if !precise && !in.Sure && length < cfg.MinExtractedSize && runeLen(in.BaselineText) > length {
			res.Body, res.Text, res.Source = in.Baseline, in.BaselineText, "baseline"
		}
	case cfg.Focus == extract.FavorRecall && length > cfg.MinExtractedSize*10:
		// a body this long is kept without comparison
	default:
		for _, c := range in.Candidates {
			if c.Verdict == fallback.Reject {
				continue
			}
			cl := runeLen(c.Text)
			if candidateIsUsable(res.Body, c.Body, cl, length, cfg) {
				res.Body, res.Text, res.Source = c.Body, c.Text, c.Name
				length = cl
			}
			if length >= cfg.MinExtractedSize {
				break
			}
		}
	}

	if res.Body == nil || len(res.Body.Children) == 0 || strings.TrimSpace(res.Text) == "" {
		if precise {
			res.Body, res.Text = tree.New(tree.Body), ""
		} else {
			res.Body, res.Text, res.Source = in.Baseline, in.BaselineText, "baseline"
		}
		if res.Body == nil {
			res.Body = tree.New(tree.Body)
		}
	}

	if cfg.MaxTreeSize > 0 && res.Body.CountElements() > cfg.MaxTreeSize {
		tree.StripTags(res.Body, "hi")
		if res.Body.CountElements() > cfg.MaxTreeSize {
			return Result{Kind: Oversized, Source: res.Source}
		}
	}
	if runeLen(res.Text) < cfg.MinOutputSize && runeLen(in.CommentsText) < cfg.MinOutputCommentSize {
		return Result{Kind: Undersized, Source: res.Source}
	}
	return res
}

// candidateIsUsable decides whether a fallback candidate replaces the
// current body. Under recall any non-empty candidate replaces a body shorter
// than MinExtractedSize.
func candidateIsUsable(current, candidate *tree.Node, lenCandidate, lenCurrent int, cfg Config) bool {
	if cfg.Focus == extract.FavorRecall && lenCandidate > 0 && lenCandidate != lenCurrent &&
		lenCurrent < cfg.MinExtractedSize {
		return true
	}
	ratio := cfg.FallbackRatio
	switch {
	case lenCandidate == 0 || lenCandidate == lenCurrent:
		return false
	case lenCurrent == 0:
		return true
	case float64(lenCurrent) > ratio*float64(lenCandidate):
		return false
	case float64(lenCandidate) > ratio*float64(lenCurrent):
		return true
	}
	if lenCandidate > cfg.MinExtractedSize*2 {
		paragraphs := current.Descendants("p")
		pText := 0
		for _, p := range paragraphs {
			pText += runeLen(p.IterText(" "))
		}
		if pText == 0 || len(current.Descendants("table")) > len(paragraphs) {
			return true
		}
	}
	return cfg.Focus == extract.FavorRecall && lenCandidate > lenCurrent &&
		len(current.Descendants("head")) == 0 && hasSubheadings(candidate)
}

// hasSubheadings reports whether n carries h2 to h4 headings.
func hasSubheadings(n *tree.Node) bool {
	if n == nil {
		return false
	}
	for _, h := range n.Descendants("head") {
		switch h.Attr("rend") {
		case "h2", "h3", "h4":
			return true
		}
	}
	return false
}

func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
