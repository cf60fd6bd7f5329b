package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/hyperifyio/goextract/internal/arbitrate"
	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/extract"
	"github.com/hyperifyio/goextract/internal/fallback"
	"github.com/hyperifyio/goextract/internal/langid"
	"github.com/hyperifyio/goextract/internal/meta"
	"github.com/hyperifyio/goextract/internal/serialize"
	"github.com/hyperifyio/goextract/internal/tree"
)

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func quiet() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// newExtractor builds an extractor without external fallback oracles.
func newExtractor(t *testing.T, opts Options, deps Deps) *Extractor {
	t.Helper()
	if deps.Oracles == nil {
		deps.Oracles = []fallback.Oracle{}
	}
	deps.Logger = quiet()
	e, err := New(opts, deps)
	require.NoError(t, err)
	return e
}

func longParagraph(seed string) string {
	return strings.TrimSpace(strings.Repeat(seed+" is a sentence long enough to count as real article text. ", 6))
}

const headlineDoc = `<html><body><article><h1>Test headline</h1><p>Test</p></article></body></html>`

func TestExtract_HeadlineXML(t *testing.T) {
	opts := DefaultOptions()
	opts.Format = serialize.XML
	e := newExtractor(t, opts, Deps{})

	out, err := e.Process(parse(t, headlineDoc), meta.Metadata{})
	require.NoError(t, err)
	assert.Contains(t, out, `<main><head rend="h1">Test headline</head><p>Test</p></main>`)
}

func TestExtract_HeadlineTEI(t *testing.T) {
	opts := DefaultOptions()
	opts.Format = serialize.XMLTEI
	e := newExtractor(t, opts, Deps{})

	out, err := e.Process(parse(t, headlineDoc), meta.Metadata{})
	require.NoError(t, err)
	assert.Contains(t, out, `<div type="entry"><fw type="header" rend="h1">Test headline</fw><p>Test</p></div>`)
}

func TestExtract_EmptyDocumentIsUndersized(t *testing.T) {
	for _, skip := range []bool{true, false} {
		opts := DefaultOptions()
		opts.SkipFallback = skip
		e := newExtractor(t, opts, Deps{})

		_, err := e.Extract(parse(t, `<html><body></body></html>`), meta.Metadata{})
		require.ErrorIs(t, err, ErrRejected)
		assert.Equal(t, arbitrate.Undersized, KindOf(err))
	}
}

func TestExtract_NilDocument(t *testing.T) {
	e := newExtractor(t, DefaultOptions(), Deps{})
	_, err := e.Extract(nil, meta.Metadata{})
	require.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, arbitrate.InputInvalid, KindOf(err))
}

func TestExtract_JSONLDBaseline(t *testing.T) {
	opts := DefaultOptions()
	opts.SkipFallback = true
	e := newExtractor(t, opts, Deps{})
	src := `<html><head><script type="application/ld+json">{"@type":"NewsArticle","articleBody":"Hello world","author":"x"}</script></head><body></body></html>`

	d, err := e.Extract(parse(t, src), meta.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "baseline", d.Source)
	out, err := e.Render(d)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", out)
}

func TestExtract_CSVWithoutComments(t *testing.T) {
	opts := DefaultOptions()
	opts.Format = serialize.CSV
	opts.IncludeComments = false
	e := newExtractor(t, opts, Deps{})

	out, err := e.Process(parse(t, headlineDoc), meta.Metadata{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\t\n"), "%q", out)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestExtract_DedupAcrossDocuments(t *testing.T) {
	opts := DefaultOptions()
	opts.Deduplicate = true
	opts.SkipFallback = true
	e := newExtractor(t, opts, Deps{Dedup: cache.NewDedup(0, 0, -1)})
	src := `<html><body><article><p>` + longParagraph("Dedup") + `</p></article></body></html>`

	first, err := e.Extract(parse(t, src), meta.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, longParagraph("Dedup"), first.Text)

	// The paragraph is now dropped by the node filter; the baseline rescue
	// finds the same text and the document check rejects it.
	_, err = e.Extract(parse(t, src), meta.Metadata{})
	require.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, arbitrate.Duplicate, KindOf(err))
}

func TestExtract_ImagesSurviveDedup(t *testing.T) {
	src := `<html><body><article><p>` + longParagraph("Before") + `</p><img src="https://example.org/a.jpg" alt="A"><p>` +
		longParagraph("After") + `</p></article></body></html>`
	for _, dedup := range []bool{false, true} {
		opts := DefaultOptions()
		opts.Format = serialize.XML
		opts.IncludeImages = true
		opts.Deduplicate = dedup
		opts.SkipFallback = true
		e := newExtractor(t, opts, Deps{Dedup: cache.NewDedup(0, 0, -1)})

		out, err := e.Process(parse(t, src), meta.Metadata{})
		require.NoError(t, err)
		assert.Contains(t, out, `<graphic`, "dedup=%v", dedup)
		assert.Contains(t, out, `src="https://example.org/a.jpg"`, "dedup=%v", dedup)
	}
}

func TestExtract_FallbackCandidateWins(t *testing.T) {
	long := tree.New(tree.Body)
	for _, seed := range []string{"one", "two", "three"} {
		p := tree.New(tree.P)
		p.Text = longParagraph(seed)
		long.Append(p)
	}
	e := newExtractor(t, DefaultOptions(), Deps{Oracles: []fallback.Oracle{fallback.Static{Label: "stored", Body: long}}})

	d, err := e.Extract(parse(t, headlineDoc), meta.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "stored", d.Source)
	assert.Contains(t, d.Text, "three is a sentence")
}

type fixedLanguage string

func (f fixedLanguage) Detect(string) (string, error) {
	if f == "" {
		return "", langid.ErrUnavailable
	}
	return string(f), nil
}

func TestExtract_LanguageGate(t *testing.T) {
	opts := DefaultOptions()
	opts.TargetLanguage = "en"

	e := newExtractor(t, opts, Deps{Language: fixedLanguage("de")})
	_, err := e.Extract(parse(t, headlineDoc), meta.Metadata{})
	assert.Equal(t, arbitrate.LanguageMismatch, KindOf(err))

	e = newExtractor(t, opts, Deps{Language: fixedLanguage("en")})
	d, err := e.Extract(parse(t, headlineDoc), meta.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "en", d.Language)

	e = newExtractor(t, opts, Deps{Language: fixedLanguage("")})
	_, err = e.Extract(parse(t, headlineDoc), meta.Metadata{})
	assert.NoError(t, err, "an unavailable oracle lets documents pass")
}

func TestExtract_DeclaredLanguage(t *testing.T) {
	opts := DefaultOptions()
	opts.TargetLanguage = "en"
	e := newExtractor(t, opts, Deps{Language: fixedLanguage("en")})
	src := `<html><head><meta http-equiv="content-language" content="de"></head><body><article><p>Test</p></article></body></html>`

	_, err := e.Extract(parse(t, src), meta.Metadata{})
	assert.Equal(t, arbitrate.LanguageMismatch, KindOf(err))
}

func TestExtract_MetadataFields(t *testing.T) {
	opts := DefaultOptions()
	opts.RecordID = "rec-1"
	opts.OriginalURL = "https://example.org/post"
	e := newExtractor(t, opts, Deps{})

	d, err := e.Extract(parse(t, headlineDoc), meta.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "rec-1", meta.Value(d.Metadata.ID))
	assert.Equal(t, "https://example.org/post", meta.Value(d.Metadata.URL))
	assert.Equal(t, cache.Fingerprint(d.Text), meta.Value(d.Metadata.Fingerprint))
}

func TestExtract_URLBlacklistAndRequiredMetadata(t *testing.T) {
	opts := DefaultOptions()
	opts.URLBlacklist = []string{"https://example.org/spam"}
	e := newExtractor(t, opts, Deps{})
	_, err := e.Extract(parse(t, headlineDoc), meta.Metadata{URL: meta.String("https://example.org/spam")})
	assert.Equal(t, arbitrate.InputInvalid, KindOf(err))

	opts = DefaultOptions()
	opts.WithMetadata = true
	e = newExtractor(t, opts, Deps{})
	_, err = e.Extract(parse(t, headlineDoc), meta.Metadata{Title: meta.String("T")})
	assert.Equal(t, arbitrate.InputInvalid, KindOf(err))
}

func TestExtract_PruneSelector(t *testing.T) {
	opts := DefaultOptions()
	opts.PruneSelector = "p.promo"
	e := newExtractor(t, opts, Deps{})
	src := `<html><body><article><h1>Title</h1><p>Body text</p><p class="promo">Buy now</p></article></body></html>`

	d, err := e.Extract(parse(t, src), meta.Metadata{})
	require.NoError(t, err)
	assert.NotContains(t, d.Text, "Buy now")
	assert.Contains(t, d.Text, "Body text")
}

func TestExtract_Comments(t *testing.T) {
	e := newExtractor(t, DefaultOptions(), Deps{})
	src := `<html><body><article><p>Main text</p></article><div class="comments"><p>Nice post</p></div></body></html>`

	d, err := e.Extract(parse(t, src), meta.Metadata{})
	require.NoError(t, err)
	require.NotNil(t, d.Comments)
	assert.Equal(t, "Nice post", d.CommentsText)
	assert.NotContains(t, d.Text, "Nice post")
}

func TestExtract_PrecisionDropsCommentSections(t *testing.T) {
	src := `<html><body><div><p>` + longParagraph("Story") + `</p></div>` +
		`<div id="comments"><p>Nice post from a reader.</p></div></body></html>`
	for _, focus := range []extract.Focus{extract.Balanced, extract.FavorPrecision} {
		t.Run(focus.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.IncludeComments = false
			opts.SkipFallback = true
			opts.Focus = focus
			d, err := newExtractor(t, opts, Deps{}).Extract(parse(t, src), meta.Metadata{})
			require.NoError(t, err)
			assert.Contains(t, d.Text, "Story")
			if focus == extract.FavorPrecision {
				assert.NotContains(t, d.Text, "Nice post")
			} else {
				assert.Contains(t, d.Text, "Nice post")
			}
		})
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(Options{Format: "pdf"}, Deps{})
	assert.ErrorIs(t, err, serialize.ErrUnknownFormat)

	_, err = New(Options{PruneSelector: "[["}, Deps{})
	assert.Error(t, err)

	_, err = New(Options{TargetLanguage: "not a language!"}, Deps{})
	assert.Error(t, err)
}

func TestRejection(t *testing.T) {
	err := error(&Rejection{Kind: arbitrate.Oversized})
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Equal(t, arbitrate.Oversized, KindOf(err))
	assert.Equal(t, arbitrate.Accepted, KindOf(errors.New("other")))
}
