package canon

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/hyperifyio/goextract/internal/tree"
)

func load(t *testing.T, src string) *tree.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return tree.FromHTML(doc)
}

// dump renders a tree with tags, attributes, text and tail so two trees can
// be compared structurally.
func dump(n *tree.Node) string {
	var b strings.Builder
	var walk func(*tree.Node, int)
	walk = func(cur *tree.Node, depth int) {
		fmt.Fprintf(&b, "%s<%s", strings.Repeat(" ", depth), cur.TagName())
		for _, a := range cur.Attrs {
			fmt.Fprintf(&b, " %s=%q", a.Key, a.Val)
		}
		fmt.Fprintf(&b, "> %q %q\n", cur.Text, cur.Tail)
		for _, c := range cur.Children {
			walk(c, depth+1)
		}
	}
	walk(n, 0)
	return b.String()
}

const sample = `<html><head><title>t</title><script>var x;</script></head><body>
<nav><a href="/">Home</a></nav>
<div class="post">
  <h2 id="x">Heading</h2>
  <p>Some <em>italic</em> and <strong>bold</strong> and <kbd>keys</kbd> <sub>2</sub><sup>3</sup> <u>u</u></p>
  <p>Line<br>break<hr></p>
  <ul><li><a href="/a" class="c">first</a></li><li>second</li></ul>
  <dl><dt>term</dt><dd>def</dd></dl>
  <blockquote>quoted</blockquote>
  <pre><code>x := 1</code></pre>
  <q>short</q>
  <p><s>old</s> <strike>older</strike> <del>oldest</del></p>
  <p><img src="pic.png" alt="A"></p>
  <table><tr><th>h</th><td><a href="/t">cell link</a></td></tr></table>
  <span></span><p> </p>
</div>
<footer>bye</footer>
</body></html>`

func allOn() Options {
	return Options{IncludeTables: true, IncludeImages: true, IncludeFormatting: true, IncludeLinks: true}
}

func TestRewrite_Idempotent(t *testing.T) {
	for _, opts := range []Options{{}, allOn(), {IncludeTables: true}, {IncludeLinks: true}} {
		root := load(t, sample)
		Clean(root, opts)
		Rewrite(root, opts)
		first := dump(root)
		Rewrite(root, opts)
		assert.Equal(t, first, dump(root), "options %+v", opts)
	}
}

func TestRewrite_AllFeatures(t *testing.T) {
	root := load(t, sample)
	opts := allOn()
	Clean(root, opts)
	Rewrite(root, opts)

	heads := root.Iter("head")
	require.Len(t, heads, 1)
	assert.Equal(t, "h2", heads[0].Attr("rend"))
	assert.Len(t, heads[0].Attrs, 1)

	rends := map[string]bool{}
	for _, hi := range root.Iter("hi") {
		rends[hi.Attr("rend")] = true
	}
	for _, r := range []string{"#i", "#b", "#t", "#sub", "#sup", "#u"} {
		assert.True(t, rends[r], "missing rend %s", r)
	}

	assert.Len(t, root.Iter("lb"), 2)
	assert.Len(t, root.Iter("list"), 2)
	assert.Len(t, root.Iter("item"), 4)
	assert.Len(t, root.Iter("quote"), 2)
	assert.Len(t, root.Iter("code"), 1)
	assert.Len(t, root.Iter("del"), 3)
	for _, d := range root.Iter("del") {
		assert.Equal(t, "overstrike", d.Attr("rend"))
	}

	refs := root.Iter("ref")
	require.Len(t, refs, 2)
	assert.Equal(t, "/a", refs[0].Attr("target"))
	assert.False(t, refs[0].HasAttr("class"))
	assert.False(t, refs[0].HasAttr("href"))

	graphics := root.Iter("graphic")
	require.Len(t, graphics, 1)
	assert.Equal(t, "pic.png", graphics[0].Attr("src"))

	cells := root.Iter("cell")
	require.Len(t, cells, 2)
	assert.Equal(t, "head", cells[0].Attr("role"))

	assert.Empty(t, root.Iter("script"))
	assert.Empty(t, root.Iter("nav"))
	assert.Empty(t, root.Iter("footer"))
	assert.Empty(t, root.Iter("span"))
}

func TestRewrite_Defaults(t *testing.T) {
	root := load(t, sample)
	var opts Options
	Clean(root, opts)
	Rewrite(root, opts)

	assert.Empty(t, root.Iter("hi"))
	assert.Empty(t, root.Iter("graphic"))
	assert.Empty(t, root.Iter("table"))
	assert.Empty(t, root.Iter("a"))
	// anchors inside lists are kept as refs for link density checks
	require.Len(t, root.Iter("ref"), 1)

	p := root.Iter("p")[0]
	assert.Equal(t, "Some italic and bold and keys 23 u", p.IterText(""))
}

func TestRewrite_StripsBareAnchors(t *testing.T) {
	root := load(t, `<html><body><article><p>see <a href="/x">this</a> page</p></article></body></html>`)
	Rewrite(root, Options{})
	p := root.Iter("p")[0]
	assert.Empty(t, p.Children)
	assert.Equal(t, "see this page", p.Text)
}

func TestClean_KeepsTailOfRemovedSections(t *testing.T) {
	root := load(t, `<html><body><p>before<button>x</button>after</p></body></html>`)
	Clean(root, Options{})
	p := root.Iter("p")[0]
	assert.Equal(t, "beforeafter", p.IterText(""))
}

func TestSelector_Apply(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><body><div class="ads">buy</div><p id="keep">text</p></body></html>`))
	require.NoError(t, err)

	sel, err := CompileSelector("div.ads")
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Apply(doc))

	root := tree.FromHTML(doc)
	assert.Empty(t, root.Iter("div"))
	assert.Len(t, root.Iter("p"), 1)

	doc, err = html.Parse(strings.NewReader(`<html><body><div class="ads">a</div><aside id="promo">b</aside><p>c</p></body></html>`))
	require.NoError(t, err)
	group, err := CompileSelector("div.ads, #promo")
	require.NoError(t, err)
	assert.Equal(t, 2, group.Apply(doc))
	root = tree.FromHTML(doc)
	assert.Empty(t, root.Iter("div", "aside"))

	_, err = CompileSelector("div[")
	assert.Error(t, err)
	assert.Equal(t, 0, Selector{}.Apply(doc))
}
