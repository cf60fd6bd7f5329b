package serialize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/goextract/internal/meta"
	"github.com/hyperifyio/goextract/internal/tree"
)

func node(tag tree.Tag, text string, children ...*tree.Node) *tree.Node {
	n := tree.New(tag)
	n.Text = text
	n.Append(children...)
	return n
}

func headline() Document {
	head := node(tree.Head, "Test headline")
	head.SetAttr("rend", "h1")
	return Document{Body: node(tree.Body, "", head, node(tree.P, "Test"))}
}

func TestRender_XML(t *testing.T) {
	out, err := Render(headline(), XML, Options{})
	require.NoError(t, err)
	assert.Equal(t, `<doc><main><head rend="h1">Test headline</head><p>Test</p></main></doc>`, out)
}

func TestRender_TEI(t *testing.T) {
	doc := headline()
	doc.Metadata.Title = meta.String("Test headline")
	doc.Metadata.URL = meta.String("https://example.org/a")
	out, err := Render(doc, XMLTEI, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, `<TEI xmlns="http://www.tei-c.org/ns/1.0">`)
	assert.Contains(t, out, `<text><body><div type="entry"><fw type="header" rend="h1">Test headline</fw><p>Test</p></div></body></text>`)
	assert.Contains(t, out, `<ptr type="URL" target="https://example.org/a"/>`)
	assert.NotContains(t, out, "<back>")
}

func TestRender_TEIComments(t *testing.T) {
	doc := headline()
	doc.Comments = node(tree.Comments, "", node(tree.P, "First!"))
	out, err := Render(doc, XMLTEI, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, `<back><div type="comments"><p>First!</p></div></back>`)
}

func TestRender_PrunesBeforeXML(t *testing.T) {
	g := tree.New(tree.Graphic)
	g.SetAttr("src", "a.png")
	body := node(tree.Body, "", node(tree.P, ""), node(tree.List, "", node(tree.Item, "")), g, node(tree.P, "kept"))
	out, err := Render(Document{Body: body}, XML, Options{})
	require.NoError(t, err)
	assert.Equal(t, `<doc><main><graphic src="a.png"/><p>kept</p></main></doc>`, out)
	assert.Len(t, body.Children, 4, "the input document is not modified")
}

func TestRender_XMLUnwrapsElementsAndEscapes(t *testing.T) {
	span := tree.NewElement("span")
	span.Text = "inner"
	span.Tail = " & after"
	p := node(tree.P, "a < b ", span)
	out, err := Render(Document{Body: node(tree.Body, "", p)}, XML, Options{})
	require.NoError(t, err)
	assert.Equal(t, `<doc><main><p>a &lt; b inner &amp; after</p></main></doc>`, out)
}

func TestRender_XMLMetadataAttributes(t *testing.T) {
	doc := headline()
	doc.Metadata.Title = meta.String("T")
	doc.Metadata.Tags = []string{"a", "b"}
	out, err := Render(doc, XML, Options{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<doc title="T" tags="a;b">`), out)
}

func TestRender_Text(t *testing.T) {
	hi := node(tree.Hi, "bold")
	hi.SetAttr("rend", "#b")
	hi.Tail = " words"
	ref := node(tree.Ref, "link")
	ref.SetAttr("target", "https://example.org")
	list := node(tree.List, "", node(tree.Item, "one"), node(tree.Item, "two"))
	quote := node(tree.Quote, "quoted")
	head := node(tree.Head, "Title")
	head.SetAttr("rend", "h2")
	body := node(tree.Body, "", head, node(tree.P, "Some ", hi), node(tree.P, "See ", ref), list, quote)

	plain, err := Render(Document{Body: body}, Text, Options{})
	require.NoError(t, err)
	assert.Equal(t, "## Title\nSome bold words\nSee link\n- one\n- two\n> quoted", plain)

	rich, err := Render(Document{Body: body}, Text, Options{IncludeFormatting: true, IncludeLinks: true})
	require.NoError(t, err)
	assert.Contains(t, rich, "Some **bold** words")
	assert.Contains(t, rich, "See [link](https://example.org)")
}

func TestRender_TextTableAndBreaks(t *testing.T) {
	row := node(tree.Row, "", node(tree.Cell, "a"), node(tree.Cell, "b"))
	lb := tree.New(tree.Lb)
	lb.Tail = "second line"
	body := node(tree.Body, "", node(tree.Table, "", row), node(tree.P, "first line", lb))
	out, err := Render(Document{Body: body, Comments: node(tree.Comments, "", node(tree.P, "a comment"))}, Text, Options{})
	require.NoError(t, err)
	assert.Equal(t, "a | b\nfirst line\nsecond line\na comment", out)
}

func TestRender_CSV(t *testing.T) {
	doc := headline()
	doc.Metadata.URL = meta.String("https://example.org/a")
	out, err := Render(doc, CSV, Options{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\t\n"), "empty comments column ends the line after a tab")
	fields := strings.Split(strings.TrimSuffix(out, "\n"), "\t")
	require.Len(t, fields, 8)
	assert.Equal(t, "null", fields[0])
	assert.Equal(t, "https://example.org/a", fields[1])
	assert.Equal(t, `# Test headline\nTest`, fields[6])
	assert.Equal(t, "", fields[7])
}

func TestRender_JSON(t *testing.T) {
	doc := headline()
	doc.Metadata.Title = meta.String("Test headline")
	out, err := Render(doc, JSON, Options{})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Test headline", got["title"])
	assert.Equal(t, "# Test headline\nTest", got["text"])
	for _, key := range []string{"author", "url", "hostname", "date", "sitename", "description", "categories", "tags", "license", "id", "fingerprint", "comments"} {
		v, ok := got[key]
		assert.True(t, ok, "key %s present", key)
		assert.Nil(t, v, "key %s is null", key)
	}
}

func TestRender_JSONKeepsMarkup(t *testing.T) {
	doc := headline()
	doc.Metadata.Title = meta.String("Q&A: <tags> explained")
	out, err := Render(doc, JSON, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, `"title":"Q&A: <tags> explained"`)
	assert.NotContains(t, out, `\u003c`)
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("TXT")
	require.NoError(t, err)
	assert.Equal(t, Text, f)
	f, err = ParseFormat("xmltei")
	require.NoError(t, err)
	assert.Equal(t, XMLTEI, f)
	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = Render(headline(), Format("pdf"), Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestEveryTagHasAnXMLForm(t *testing.T) {
	for tag := tree.Element; tag <= tree.Comments; tag++ {
		_, ok := xmlElement(tag)
		assert.True(t, ok, "xml %v", tag)
		_, ok = teiElement(tag)
		assert.True(t, ok, "tei %v", tag)
	}
	_, ok := xmlElement(tree.Comments + 1)
	assert.False(t, ok)
}
