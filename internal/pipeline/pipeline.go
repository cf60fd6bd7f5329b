// Package pipeline runs one parsed HTML document through cleaning,
// extraction, arbitration and the dedup and language gates.
package pipeline

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/hyperifyio/goextract/internal/arbitrate"
	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/canon"
	"github.com/hyperifyio/goextract/internal/extract"
	"github.com/hyperifyio/goextract/internal/fallback"
	"github.com/hyperifyio/goextract/internal/langid"
	"github.com/hyperifyio/goextract/internal/meta"
	"github.com/hyperifyio/goextract/internal/metrics"
	"github.com/hyperifyio/goextract/internal/serialize"
	"github.com/hyperifyio/goextract/internal/tree"
)

// ErrRejected is returned for every discarded document. The concrete error
// is a *Rejection carrying the reason.
var ErrRejected = errors.New("document rejected")

// Rejection reports why a document produced no output.
type Rejection struct {
	Kind arbitrate.Kind
}

func (r *Rejection) Error() string { return "document rejected: " + r.Kind.String() }

func (r *Rejection) Is(target error) bool { return target == ErrRejected }

// KindOf returns the rejection kind carried by err, or Accepted when err is
// not a rejection.
func KindOf(err error) arbitrate.Kind {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Kind
	}
	return arbitrate.Accepted
}

// Options configure a pipeline. The zero value is usable; DefaultOptions
// gives the command line defaults.
type Options struct {
	Format            serialize.Format
	IncludeComments   bool
	IncludeTables     bool
	IncludeImages     bool
	IncludeFormatting bool
	IncludeLinks      bool
	Deduplicate       bool
	// Focus leans extraction towards precision or recall.
	Focus extract.Focus

	// TargetLanguage is an ISO 639-1 code; empty disables both language checks.
	TargetLanguage string

	MinExtractedSize        int
	MinExtractedCommentSize int
	MinOutputSize           int
	MinOutputCommentSize    int
	MaxTreeSize             int
	FallbackRatio           float64

	// SkipFallback disables the external extractors and uses the cheaper
	// baseline rescue instead.
	SkipFallback bool

	RecordID      string
	OriginalURL   string
	PruneSelector string
	// URLBlacklist rejects documents whose URL is listed.
	URLBlacklist []string
	// WithMetadata rejects documents missing a title, date or URL.
	WithMetadata bool
}

// DefaultOptions mirrors the command line defaults.
func DefaultOptions() Options {
	return Options{
		Format:                  serialize.Text,
		IncludeComments:         true,
		IncludeTables:           true,
		MinExtractedSize:        arbitrate.DefaultMinExtractedSize,
		MinExtractedCommentSize: 1,
		MinOutputSize:           arbitrate.DefaultMinOutputSize,
		MinOutputCommentSize:    arbitrate.DefaultMinOutputCommentSize,
		FallbackRatio:           arbitrate.DefaultFallbackRatio,
	}
}

// Deps are the collaborators shared between pipelines.
type Deps struct {
	// Dedup is shared across documents; nil disables deduplication.
	Dedup *cache.Dedup
	// Oracles are the fallback extractors in preference order. Nil selects
	// readability then the landmark extractor.
	Oracles []fallback.Oracle
	// Language identifies body text; nil selects whatlanggo.
	Language langid.Oracle
	Logger   *zerolog.Logger
}

// Document is an accepted extraction.
type Document struct {
	Body         *tree.Node
	Comments     *tree.Node
	Text         string
	CommentsText string
	Metadata     meta.Metadata
	// Source names the strategy whose body was kept.
	Source string
	// Language is the detected code when a target language was set.
	Language string
}

// Serializable returns the view consumed by the serializer.
func (d *Document) Serializable() serialize.Document {
	return serialize.Document{Body: d.Body, Comments: d.Comments, Metadata: d.Metadata}
}

// Extractor runs the pipeline. It is safe for concurrent use when its
// oracles are.
type Extractor struct {
	opts      Options
	dedup     *cache.Dedup
	oracles   []fallback.Oracle
	gate      *langid.Gate
	prune     canon.Selector
	blacklist map[string]bool
	log       zerolog.Logger
}

// New validates opts and builds an Extractor.
func New(opts Options, deps Deps) (*Extractor, error) {
	if opts.Format == "" {
		opts.Format = serialize.Text
	}
	if _, err := serialize.ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	prune, err := canon.CompileSelector(opts.PruneSelector)
	if err != nil {
		return nil, err
	}
	oracle := deps.Language
	if oracle == nil {
		oracle = langid.Whatlang{}
	}
	gate, err := langid.NewGate(oracle, opts.TargetLanguage)
	if err != nil {
		return nil, err
	}
	e := &Extractor{
		opts:      opts,
		dedup:     deps.Dedup,
		oracles:   deps.Oracles,
		gate:      gate,
		prune:     prune,
		blacklist: make(map[string]bool, len(opts.URLBlacklist)),
		log:       log.Logger,
	}
	if deps.Logger != nil {
		e.log = *deps.Logger
	}
	gate.Log = e.log
	for _, u := range opts.URLBlacklist {
		if u = strings.TrimSpace(u); u != "" {
			e.blacklist[u] = true
		}
	}
	if e.oracles == nil && !opts.SkipFallback {
		var page *url.URL
		if opts.OriginalURL != "" {
			page, _ = url.Parse(opts.OriginalURL)
		}
		eo := e.extractOptions()
		e.oracles = []fallback.Oracle{
			fallback.Readability{PageURL: page, Options: eo},
			fallback.Landmark{Options: eo},
		}
	}
	return e, nil
}

// Options returns the effective options.
func (e *Extractor) Options() Options { return e.opts }

func (e *Extractor) extractOptions() extract.Options {
	return extract.Options{
		IncludeComments:   e.opts.IncludeComments,
		IncludeTables:     e.opts.IncludeTables,
		IncludeImages:     e.opts.IncludeImages,
		IncludeFormatting: e.opts.IncludeFormatting,
		IncludeLinks:      e.opts.IncludeLinks,
		Deduplicate:       e.opts.Deduplicate && e.dedup != nil,
		Focus:             e.opts.Focus,
		MinExtractedSize:  e.opts.MinExtractedSize,
	}
}

func (e *Extractor) arbitrateConfig() arbitrate.Config {
	return arbitrate.Config{
		MinExtractedSize:     e.opts.MinExtractedSize,
		MinOutputSize:        e.opts.MinOutputSize,
		MinOutputCommentSize: e.opts.MinOutputCommentSize,
		MaxTreeSize:          e.opts.MaxTreeSize,
		FallbackRatio:        e.opts.FallbackRatio,
		Focus:                e.opts.Focus,
	}
}

// Extract runs the pipeline over doc. The prune selector, when set, edits
// doc in place. md supplies metadata gathered by the caller; the record id,
// fingerprint and URL are filled in. Every discarded document returns an
// error matching ErrRejected.
func (e *Extractor) Extract(doc *html.Node, md meta.Metadata) (*Document, error) {
	if doc == nil || !hasElement(doc) {
		return nil, e.reject(arbitrate.InputInvalid, "no parseable markup")
	}
	if md.URL == nil {
		md.URL = meta.String(e.opts.OriginalURL)
	}
	if md.URL != nil && e.blacklist[*md.URL] {
		return nil, e.reject(arbitrate.InputInvalid, "url blacklisted")
	}
	if e.opts.WithMetadata && (md.Title == nil || md.Date == nil || md.URL == nil) {
		return nil, e.reject(arbitrate.InputInvalid, "missing essential metadata")
	}
	if n := e.prune.Apply(doc); n > 0 {
		e.log.Debug().Int("removed", n).Msg("pruned by selector")
	}
	if e.gate.Target != "" && !langid.CheckDeclared(doc, e.gate.Target, false) {
		return nil, e.reject(arbitrate.LanguageMismatch, "declared language differs")
	}

	eo := e.extractOptions()
	root := tree.FromHTML(doc)
	canon.Clean(root, eo.Canon())
	canon.Rewrite(root, eo.Canon())

	var comments *tree.Node
	var commentsText string
	if e.opts.IncludeComments {
		comments, commentsText = extract.Comments(root, e.dedup, eo)
		if utf8.RuneCountInString(commentsText) < e.opts.MinExtractedCommentSize {
			e.log.Debug().Int("chars", utf8.RuneCountInString(commentsText)).Msg("not enough comments")
		}
	} else if e.opts.Focus == extract.FavorPrecision {
		extract.RemoveComments(root)
	}
	primary := extract.Content(root, e.dedup, eo)
	baseline, baselineText := extract.Baseline(doc)

	in := arbitrate.Input{
		Body:         primary.Body,
		Text:         primary.Text,
		Sure:         primary.Sure,
		CommentsText: commentsText,
		Cheap:        e.opts.SkipFallback,
		Baseline:     baseline,
		BaselineText: baselineText,
	}
	if !e.opts.SkipFallback {
		in.Candidates = fallback.Run(doc, e.oracles...)
	}
	res := arbitrate.Decide(in, e.arbitrateConfig())
	if res.Rejected() {
		return nil, e.reject(res.Kind, "arbitration")
	}

	if e.opts.Deduplicate && e.dedup != nil && e.dedup.TestDocument(res.Text) {
		metrics.RecordDuplicate()
		return nil, e.reject(arbitrate.Duplicate, "document already seen")
	}
	lang, ok := e.gate.Allow(res.Text, commentsText)
	if !ok {
		return nil, e.reject(arbitrate.LanguageMismatch, "detected "+lang)
	}

	if e.opts.RecordID != "" {
		md.ID = meta.String(e.opts.RecordID)
	}
	md.Fingerprint = meta.String(cache.Fingerprint(res.Text))

	metrics.RecordOutcome(arbitrate.Accepted.String())
	if res.Source != "primary" {
		metrics.RecordSource(res.Source)
	}
	metrics.ObserveLength(utf8.RuneCountInString(res.Text))
	e.log.Debug().Str("source", res.Source).Int("chars", utf8.RuneCountInString(res.Text)).
		Str("url", meta.Value(md.URL)).Msg("document accepted")

	return &Document{
		Body:         res.Body,
		Comments:     comments,
		Text:         res.Text,
		CommentsText: commentsText,
		Metadata:     md,
		Source:       res.Source,
		Language:     lang,
	}, nil
}

// Render encodes an accepted document in the configured format.
func (e *Extractor) Render(d *Document) (string, error) {
	if d == nil {
		return "", fmt.Errorf("render: %w", ErrRejected)
	}
	return serialize.Render(d.Serializable(), e.opts.Format, serialize.Options{
		IncludeFormatting: e.opts.IncludeFormatting,
		IncludeLinks:      e.opts.IncludeLinks,
	})
}

// Process extracts doc and renders the result.
func (e *Extractor) Process(doc *html.Node, md meta.Metadata) (string, error) {
	d, err := e.Extract(doc, md)
	if err != nil {
		return "", err
	}
	return e.Render(d)
}

func (e *Extractor) reject(kind arbitrate.Kind, reason string) error {
	metrics.RecordOutcome(kind.String())
	e.log.Info().Str("kind", kind.String()).Str("reason", reason).Msg("discarding document")
	return &Rejection{Kind: kind}
}

func hasElement(n *html.Node) bool {
	if n.Type == html.ElementNode {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasElement(c) {
			return true
		}
	}
	return false
}
