// Package canon reduces a source element tree to the canonical vocabulary:
// it removes unwanted sections, strips presentational wrappers and rewrites
// the remaining tags.
package canon

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/goextract/internal/tree"
)

// Options selects which optional structures survive canonicalization.
type Options struct {
	IncludeTables     bool
	IncludeImages     bool
	IncludeFormatting bool
	IncludeLinks      bool
}

var (
	cleanedTags = []string{
		"aside", "embed", "footer", "form", "head", "iframe", "menu", "object", "script",
		"applet", "audio", "canvas", "figure", "map", "picture", "svg", "video",
		"area", "blink", "button", "datalist", "dialog", "frame", "frameset", "fieldset",
		"link", "input", "ins", "label", "legend", "marquee", "math", "menuitem", "nav",
		"noscript", "optgroup", "option", "output", "param", "progress", "rp", "rt", "rtc",
		"select", "source", "style", "track", "textarea", "time", "use",
	}
	strippedTags = []string{
		"abbr", "acronym", "address", "bdi", "bdo", "big", "cite", "data", "dfn", "font",
		"hgroup", "img", "ins", "mark", "meta", "ruby", "small", "template", "tbody",
		"tfoot", "thead",
	}
	prunedWhenEmpty = []string{
		"article", "b", "blockquote", "dd", "div", "dt", "em", "h1", "h2", "h3", "h4",
		"h5", "h6", "i", "li", "main", "p", "pre", "q", "section", "span", "strong",
	}

	listTags       = []string{"ul", "ol", "dl"}
	itemTags       = []string{"dd", "dt", "li"}
	headTags       = []string{"h1", "h2", "h3", "h4", "h5", "h6"}
	lineBreakTags  = []string{"br", "hr"}
	quoteTags      = []string{"blockquote", "pre", "q"}
	deletedTags    = []string{"del", "s", "strike"}
	formattingTags = []string{"em", "i", "b", "strong", "u", "kbd", "samp", "tt", "var", "sub", "sup"}

	hiRend = map[string]string{
		"em": "#i", "i": "#i",
		"b": "#b", "strong": "#b",
		"u":   "#u",
		"kbd": "#t", "samp": "#t", "tt": "#t", "var": "#t",
		"sub": "#sub",
		"sup": "#sup",
	}

	rxImageFile = regexp.MustCompile(`(?i)[^\s]+\.(avif|bmp|gif|ico|jpe?g|png|svg|tiff?|webp)(\b|$)`)
)

// Clean removes unwanted subtrees, strips wrapper elements and drops empty
// blocks. It mutates root in place.
func Clean(root *tree.Node, opts Options) {
	clean := toSet(cleanedTags)
	strip := toSet(strippedTags)
	if !opts.IncludeTables {
		for _, name := range []string{"table", "td", "th", "tr"} {
			clean[name] = struct{}{}
		}
	} else {
		// a figure wrapping a table must not take the table with it
		for _, fig := range elements(root, "figure") {
			if len(fig.Descendants("table")) > 0 {
				fig.Name = "div"
			}
		}
	}
	if opts.IncludeImages {
		for _, name := range []string{"figure", "picture", "source"} {
			delete(clean, name)
		}
		delete(strip, "img")
	}

	for _, n := range root.Descendants() {
		if n.Tag != tree.Element {
			continue
		}
		if _, ok := clean[n.Name]; ok {
			n.Remove(true)
			continue
		}
		if _, ok := strip[n.Name]; ok {
			n.Strip()
		}
	}

	nodes := root.Descendants(prunedWhenEmpty...)
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.Tag == tree.Element && len(n.Children) == 0 && strings.TrimSpace(n.Text) == "" {
			n.Remove(true)
		}
	}
}

// Rewrite maps source elements onto canonical tags. Only source elements are
// touched, so running it on an already canonical tree changes nothing.
func Rewrite(root *tree.Node, opts Options) {
	for _, list := range elements(root, listTags...) {
		list.Tag, list.Name = tree.List, ""
		for _, item := range elements(list, itemTags...) {
			item.Tag, item.Name = tree.Item, ""
		}
		for _, a := range elements(list, "a") {
			a.Tag, a.Name = tree.Ref, ""
		}
	}

	for _, a := range elements(root, "a") {
		if a.HasAncestor("div") || (opts.IncludeTables && a.HasAncestor("table")) {
			a.Tag, a.Name = tree.Ref, ""
		}
	}

	if opts.IncludeImages {
		for _, img := range elements(root, "img") {
			img.Tag, img.Name = tree.Graphic, ""
			resolveImageSource(img)
		}
	}

	if !opts.IncludeLinks {
		for _, a := range elements(root, "a") {
			a.Strip()
		}
	} else {
		for _, n := range root.Iter() {
			switch {
			case n.Tag == tree.Element && n.Name == "a":
				n.Tag, n.Name = tree.Ref, ""
				retarget(n)
			case n.Tag == tree.Ref && n.HasAttr("href"):
				retarget(n)
			}
		}
	}

	for _, h := range elements(root, headTags...) {
		level := h.Name
		h.Tag, h.Name = tree.Head, ""
		h.ClearAttrs()
		h.SetAttr("rend", level)
	}

	for _, lb := range elements(root, lineBreakTags...) {
		lb.Tag, lb.Name = tree.Lb, ""
		lb.ClearAttrs()
	}

	for _, q := range elements(root, quoteTags...) {
		if q.Name == "pre" && isCodeBlock(q) {
			q.Tag, q.Name = tree.Code, ""
			for _, inner := range elements(q, "code") {
				inner.Strip()
			}
			continue
		}
		q.Tag, q.Name = tree.Quote, ""
	}
	for _, c := range elements(root, "code") {
		c.Tag, c.Name = tree.Code, ""
	}

	if !opts.IncludeFormatting {
		for _, n := range elements(root, formattingTags...) {
			n.Strip()
		}
	} else {
		for _, n := range elements(root, formattingTags...) {
			rend := hiRend[n.Name]
			n.Tag, n.Name = tree.Hi, ""
			n.ClearAttrs()
			n.SetAttr("rend", rend)
		}
	}

	for _, d := range elements(root, deletedTags...) {
		d.Tag, d.Name = tree.Del, ""
		d.ClearAttrs()
		d.SetAttr("rend", "overstrike")
	}

	for _, n := range root.Iter() {
		if n.Tag != tree.Element {
			continue
		}
		switch n.Name {
		case "body":
			n.Tag, n.Name = tree.Body, ""
		case "div":
			n.Tag, n.Name = tree.Div, ""
		case "p":
			n.Tag, n.Name = tree.P, ""
		case "table":
			n.Tag, n.Name = tree.Table, ""
		case "tr":
			n.Tag, n.Name = tree.Row, ""
		case "td":
			n.Tag, n.Name = tree.Cell, ""
		case "th":
			n.Tag, n.Name = tree.Cell, ""
			n.SetAttr("role", "head")
		}
	}
}

// elements returns the source elements below root (inclusive) with one of names.
func elements(root *tree.Node, names ...string) []*tree.Node {
	var out []*tree.Node
	for _, n := range root.Iter(names...) {
		if n.Tag == tree.Element {
			out = append(out, n)
		}
	}
	return out
}

func retarget(n *tree.Node) {
	href, ok := n.Attr("href"), n.HasAttr("href")
	n.ClearAttrs()
	if ok {
		n.SetAttr("target", href)
	}
}

func isCodeBlock(pre *tree.Node) bool {
	if strings.Contains(pre.Attr("class"), "hljs") || pre.HasAttr("lang") {
		return true
	}
	return len(pre.Children) == 1 && pre.Children[0].Is("code") && strings.TrimSpace(pre.Text) == ""
}

func resolveImageSource(img *tree.Node) {
	if src := img.Attr("src"); src != "" && rxImageFile.MatchString(src) {
		return
	}
	for _, key := range []string{"data-src", "data-original", "data-lazy-src", "data-srcset"} {
		v := strings.TrimSpace(img.Attr(key))
		if v == "" {
			continue
		}
		if fields := strings.Fields(v); len(fields) > 0 && rxImageFile.MatchString(fields[0]) {
			img.SetAttr("src", fields[0])
			return
		}
	}
}

func toSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, s := range names {
		m[s] = struct{}{}
	}
	return m
}
