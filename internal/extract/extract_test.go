package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/canon"
	"github.com/hyperifyio/goextract/internal/tree"
)

const sampleText = "The harbour renovation continued through the winter months while the city council debated the budget. "

func parseDoc(t testing.TB, src string) *html.Node {
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func canonical(t testing.TB, src string, opts Options) *tree.Node {
	root := tree.FromHTML(parseDoc(t, src))
	canon.Clean(root, opts.Canon())
	canon.Rewrite(root, opts.Canon())
	return root
}

func TestContent_HeadlineAndParagraph(t *testing.T) {
	root := canonical(t, `<html><body><article><h1>Test headline</h1><p>Test</p></article></body></html>`, Options{})
	res := Content(root, nil, Options{})

	require.Len(t, res.Body.Children, 2)
	head, p := res.Body.Children[0], res.Body.Children[1]
	assert.Equal(t, tree.Head, head.Tag)
	assert.Equal(t, "h1", head.Attr("rend"))
	assert.Equal(t, "Test headline", head.Text)
	assert.Equal(t, tree.P, p.Tag)
	assert.Equal(t, "Test", p.Text)
	assert.False(t, res.Sure, "short bodies are not a confident match")
}

func TestContent_DiscardsBoilerplate(t *testing.T) {
	src := `<html><body>
<div class="entry-content">
<p>` + strings.Repeat(sampleText, 2) + `</p>
<div class="share-buttons"><p>Share this story now</p></div>
<p>` + strings.Repeat(sampleText, 2) + `</p>
<ul><li>First point of the article</li><li>Second point of the article</li></ul>
</div>
</body></html>`
	res := Content(canonical(t, src, Options{}), nil, Options{})

	require.Len(t, res.Body.Children, 3)
	assert.Equal(t, tree.P, res.Body.Children[0].Tag)
	assert.Equal(t, tree.P, res.Body.Children[1].Tag)
	list := res.Body.Children[2]
	require.Equal(t, tree.List, list.Tag)
	require.Len(t, list.Children, 2)
	assert.Equal(t, "Second point of the article", list.Children[1].Text)
	assert.NotContains(t, res.Text, "Share this story")
	assert.True(t, res.Sure)
}

func TestContent_LinkMenuRemoved(t *testing.T) {
	src := `<html><body><article>
<div><a href="/">Home</a> <a href="/news">News</a> <a href="/sport">Sport</a> <a href="/about">About</a></div>
<p>` + strings.Repeat(sampleText, 3) + `</p>
</article></body></html>`
	res := Content(canonical(t, src, Options{}), nil, Options{})
	assert.NotContains(t, res.Text, "Sport")
	assert.Contains(t, res.Text, "harbour renovation")
}

func TestContent_Links(t *testing.T) {
	src := `<html><body><article><p>Read the <a href="https://example.org/x">full report</a> online today.</p></article></body></html>`

	res := Content(canonical(t, src, Options{}), nil, Options{})
	require.Len(t, res.Body.Children, 1)
	assert.Empty(t, res.Body.Children[0].Children)
	assert.Equal(t, "Read the full report online today.", res.Body.Children[0].Text)

	opts := Options{IncludeLinks: true}
	res = Content(canonical(t, src, opts), nil, opts)
	require.Len(t, res.Body.Children, 1)
	refs := res.Body.Children[0].Descendants("ref")
	require.Len(t, refs, 1)
	assert.Equal(t, "https://example.org/x", refs[0].Attr("target"))
	assert.Equal(t, "full report", refs[0].Text)
}

func TestContent_Tables(t *testing.T) {
	src := `<html><body><article><p>` + sampleText + `</p>
<table><tr><th>Name</th><th>Value</th></tr><tr><td>Alpha</td><td>1</td></tr></table>
</article></body></html>`

	res := Content(canonical(t, src, Options{}), nil, Options{})
	assert.Empty(t, res.Body.Descendants("table"))

	opts := Options{IncludeTables: true}
	res = Content(canonical(t, src, opts), nil, opts)
	tables := res.Body.Descendants("table")
	require.Len(t, tables, 1)
	require.Len(t, tables[0].Children, 2)
	header := tables[0].Children[0]
	require.Len(t, header.Children, 2)
	assert.Equal(t, "head", header.Children[0].Attr("role"))
	assert.Equal(t, "Alpha", tables[0].Children[1].Children[0].Text)
}

func TestContent_RecoversWildText(t *testing.T) {
	src := `<html><body><div><p>` + sampleText + `</p><p>Another short remark.</p></div></body></html>`
	res := Content(canonical(t, src, Options{}), nil, Options{})

	require.Len(t, res.Body.Children, 2)
	assert.Equal(t, "Another short remark.", res.Body.Children[1].Text)
	assert.False(t, res.Sure)
}

func TestContent_Focus(t *testing.T) {
	long := `<p>` + strings.Repeat(sampleText, 3) + `</p>`
	cases := []struct {
		name    string
		src     string
		focus   Focus
		want    string
		present bool
	}{
		{"teaser pruned", `<article>` + long + `<div class="teaser"><p>Subscribe to read the teaser.</p></div>` + long + `</article>`, Balanced, "teaser", false},
		{"teaser kept under recall", `<article>` + long + `<div class="teaser"><p>Subscribe to read the teaser.</p></div>` + long + `</article>`, FavorRecall, "teaser", true},
		{"header kept", `<article><header><p>Kicker above the story</p></header>` + long + `</article>`, Balanced, "Kicker", true},
		{"header pruned under precision", `<article><header><p>Kicker above the story</p></header>` + long + `</article>`, FavorPrecision, "Kicker", false},
		{"link block pruned under precision", `<article>` + long + `<p class="linkline">Press contacts and imprint</p>` + long + `</article>`, FavorPrecision, "Press contacts", false},
		{"wild lists need recall", `<div>` + long + `<ul><li>Wild list entry</li></ul></div>`, Balanced, "Wild list entry", false},
		{"wild lists under recall", `<div>` + long + `<ul><li>Wild list entry</li></ul></div>`, FavorRecall, "Wild list entry", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			opts := Options{Focus: c.focus}
			res := Content(canonical(t, `<html><body>`+c.src+`</body></html>`, opts), nil, opts)
			assert.Contains(t, res.Text, "harbour renovation")
			if c.present {
				assert.Contains(t, res.Text, c.want)
			} else {
				assert.NotContains(t, res.Text, c.want)
			}
		})
	}
}

func TestParseFocus(t *testing.T) {
	for in, want := range map[string]Focus{"": Balanced, "balanced": Balanced, "Precision": FavorPrecision, " recall ": FavorRecall} {
		got, err := ParseFocus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFocus("maximal")
	assert.Error(t, err)
	assert.Equal(t, "recall", FavorRecall.String())
}

func TestContent_DedupAcrossCalls(t *testing.T) {
	d := cache.NewDedup(cache.DefaultCapacity, cache.DefaultRepetitionLimit, cache.DefaultMinCheckSize)
	opts := Options{Deduplicate: true}
	src := `<html><body><article><p>` + strings.Repeat(sampleText, 3) + `</p></article></body></html>`

	first := Content(canonical(t, src, opts), d, opts)
	require.Len(t, first.Body.Children, 1)
	assert.True(t, first.Sure)

	second := Content(canonical(t, src, opts), d, opts)
	assert.Empty(t, second.Body.Children, "the repeated paragraph is dropped once the limit is reached")
	assert.Empty(t, second.Text)
}

func TestComments_RemovedFromBody(t *testing.T) {
	src := `<html><body>
<article><p>` + strings.Repeat(sampleText, 3) + `</p>
<div id="comments"><p>Great article, thanks for writing it.</p><p>I disagree with the second point.</p></div>
</article></body></html>`
	root := canonical(t, src, Options{})

	comments, text := Comments(root, nil, Options{})
	require.NotNil(t, comments)
	assert.Equal(t, tree.Comments, comments.Tag)
	require.Len(t, comments.Children, 2)
	assert.Contains(t, text, "I disagree")

	res := Content(root, nil, Options{})
	assert.NotContains(t, res.Text, "Great article")
}

func TestCollect(t *testing.T) {
	root := canonical(t, `<html><body><div><h2>Title</h2><p>First</p><ul><li>Item</li></ul></div></body></html>`, Options{})
	body := Collect(root, Options{})
	require.Len(t, body.Children, 3)
	assert.Equal(t, tree.Head, body.Children[0].Tag)
	assert.Equal(t, tree.List, body.Children[2].Tag)
	assert.Empty(t, Collect(nil, Options{}).Children)
}

func TestComments_None(t *testing.T) {
	root := canonical(t, `<html><body><article><p>Only body text.</p></article></body></html>`, Options{})
	comments, text := Comments(root, nil, Options{})
	assert.Nil(t, comments)
	assert.Empty(t, text)
}

func TestBaseline_JSONLD(t *testing.T) {
	doc := parseDoc(t, `<html><head><script type="application/ld+json">{"@type":"NewsArticle","articleBody":"Hello world","author":"Jane"}</script></head><body><p>Other text</p></body></html>`)
	body, text := Baseline(doc)
	assert.Equal(t, "Hello world", text)
	require.Len(t, body.Children, 1)

	doc = parseDoc(t, `<html><head><script type="application/ld+json">{"@graph":[{"@type":"WebPage"},{"articleBody":"Nested body"}]}</script></head><body></body></html>`)
	_, text = Baseline(doc)
	assert.Equal(t, "Nested body", text)

	doc = parseDoc(t, `<html><head><script type="application/ld+json">{"articleBody":"Hello world","author": oops}</script></head><body></body></html>`)
	_, text = Baseline(doc)
	assert.Equal(t, "Hello world", text)
}

func TestBaseline_JSONLDFirstBodyOnly(t *testing.T) {
	doc := parseDoc(t, `<html><head>
<script type="application/ld+json">{"@type":"WebSite","name":"Site"}</script>
<script type="application/ld+json">{"@type":"NewsArticle","articleBody":"Hello world"}</script>
<script type="application/ld+json">{"@type":"Article","articleBody":"Hello world"}</script>
</head><body></body></html>`)
	body, text := Baseline(doc)
	assert.Equal(t, "Hello world", text)
	assert.Len(t, body.Children, 1)
}

func TestBaseline_ArticleAndParagraphs(t *testing.T) {
	_, text := Baseline(parseDoc(t, `<html><body><article><b>The article consists of this text.</b><aside>Related</aside></article></body></html>`))
	assert.Equal(t, "The article consists of this text.", text)

	body, text := Baseline(parseDoc(t, `<html><body><p>One</p><p>One</p><blockquote>Two</blockquote><footer><p>Skip</p></footer></body></html>`))
	require.Len(t, body.Children, 2)
	assert.Equal(t, "One Two", text)
}

func TestBaseline_Empty(t *testing.T) {
	body, text := Baseline(nil)
	assert.Empty(t, body.Children)
	assert.Empty(t, text)

	_, text = Baseline(parseDoc(t, `<html><body></body></html>`))
	assert.Empty(t, text)
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b\n\nc", normalizeWhitespace("\n  a \t b \n\n\n  c  \n\n"))
}
