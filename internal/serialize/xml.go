package serialize

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/hyperifyio/goextract/internal/meta"
	"github.com/hyperifyio/goextract/internal/tree"
)

const teiNamespace = "http://www.tei-c.org/ns/1.0"

// element describes how a canonical tag is written: an element name with
// fixed attributes and attribute renames, or unwrap to emit only its
// content.
type element struct {
	name   string
	fixed  [][2]string
	rename map[string]string
	unwrap bool
}

// xmlElement maps a tag for the generic XML format. Every tag must be
// listed here.
func xmlElement(t tree.Tag) (element, bool) {
	switch t {
	case tree.Element, tree.Body, tree.Comments:
		return element{unwrap: true}, true
	case tree.Div, tree.P, tree.Head, tree.List, tree.Item, tree.Lb, tree.Quote,
		tree.Code, tree.Hi, tree.Del, tree.Ref, tree.Graphic, tree.Table, tree.Row, tree.Cell:
		return element{name: t.String()}, true
	}
	return element{}, false
}

// teiElement maps a tag onto the TEI vocabulary.
func teiElement(t tree.Tag) (element, bool) {
	switch t {
	case tree.Element, tree.Body, tree.Comments, tree.Div:
		return element{unwrap: true}, true
	case tree.Head:
		return element{name: "fw", fixed: [][2]string{{"type", "header"}}}, true
	case tree.Graphic:
		return element{name: "graphic", rename: map[string]string{"src": "url", "alt": "desc"}}, true
	case tree.P, tree.List, tree.Item, tree.Lb, tree.Quote, tree.Code, tree.Hi, tree.Del,
		tree.Ref, tree.Table, tree.Row, tree.Cell:
		return element{name: t.String()}, true
	}
	return element{}, false
}

type mapper func(tree.Tag) (element, bool)

// appendChildren writes the children of n below parent using m. The text
// and tail of unwrapped nodes are kept in place.
func appendChildren(parent *etree.Element, n *tree.Node, m mapper) error {
	for _, c := range n.Children {
		if err := appendNode(parent, c, m); err != nil {
			return err
		}
	}
	return nil
}

func appendNode(parent *etree.Element, n *tree.Node, m mapper) error {
	el, ok := m(n.Tag)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownTag, n.Tag)
	}
	if el.unwrap {
		addText(parent, n.Text)
		if err := appendChildren(parent, n, m); err != nil {
			return err
		}
		addText(parent, n.Tail)
		return nil
	}
	out := parent.CreateElement(el.name)
	for _, kv := range el.fixed {
		out.CreateAttr(kv[0], kv[1])
	}
	for _, a := range n.Attrs {
		key := a.Key
		if renamed, ok := el.rename[key]; ok {
			key = renamed
		}
		out.CreateAttr(key, a.Val)
	}
	if n.Text != "" {
		out.SetText(n.Text)
	}
	if err := appendChildren(out, n, m); err != nil {
		return err
	}
	if n.Tail != "" {
		out.SetTail(n.Tail)
	}
	return nil
}

// addText appends character data after the last child of parent.
func addText(parent *etree.Element, s string) {
	if s == "" {
		return
	}
	if len(parent.Child) == 0 {
		parent.SetText(parent.Text() + s)
		return
	}
	if last, ok := parent.Child[len(parent.Child)-1].(*etree.Element); ok {
		last.SetTail(last.Tail() + s)
		return
	}
	parent.CreateText(s)
}

func renderXML(doc Document) (string, error) {
	x := etree.NewDocument()
	root := x.CreateElement("doc")
	for _, kv := range metadataAttrs(doc.Metadata) {
		root.CreateAttr(kv[0], kv[1])
	}
	if err := appendChildren(root.CreateElement("main"), doc.Body, xmlElement); err != nil {
		return "", err
	}
	if doc.Comments != nil {
		if err := appendChildren(root.CreateElement("comments"), doc.Comments, xmlElement); err != nil {
			return "", err
		}
	}
	return x.WriteToString()
}

// metadataAttrs lists the present metadata fields in a fixed order.
func metadataAttrs(md meta.Metadata) [][2]string {
	var out [][2]string
	add := func(k string, v *string) {
		if v != nil {
			out = append(out, [2]string{k, *v})
		}
	}
	add("title", md.Title)
	add("author", md.Author)
	add("url", md.URL)
	add("hostname", md.Hostname)
	add("date", md.Date)
	add("sitename", md.Sitename)
	add("description", md.Description)
	if len(md.Categories) > 0 {
		out = append(out, [2]string{"categories", strings.Join(md.Categories, ";")})
	}
	if len(md.Tags) > 0 {
		out = append(out, [2]string{"tags", strings.Join(md.Tags, ";")})
	}
	add("license", md.License)
	add("id", md.ID)
	add("fingerprint", md.Fingerprint)
	return out
}

func renderTEI(doc Document) (string, error) {
	md := doc.Metadata
	x := etree.NewDocument()
	root := x.CreateElement("TEI")
	root.CreateAttr("xmlns", teiNamespace)

	file := root.CreateElement("teiHeader").CreateElement("fileDesc")
	title := file.CreateElement("titleStmt")
	title.CreateElement("title").SetText(meta.Value(md.Title))
	if md.Author != nil {
		title.CreateElement("author").SetText(*md.Author)
	}
	pub := file.CreateElement("publicationStmt")
	if md.Sitename != nil {
		pub.CreateElement("publisher").SetText(*md.Sitename)
	}
	if md.License != nil {
		pub.CreateElement("availability").CreateElement("p").SetText(*md.License)
	}
	if md.Sitename == nil && md.License == nil {
		pub.CreateElement("p")
	}
	source := file.CreateElement("sourceDesc")
	source.CreateElement("bibl").SetText(strings.Join(nonEmpty(meta.Value(md.Title), meta.Value(md.Author), meta.Value(md.Sitename), meta.Value(md.Date)), ", "))
	if md.URL != nil {
		ptr := source.CreateElement("ptr")
		ptr.CreateAttr("type", "URL")
		ptr.CreateAttr("target", *md.URL)
	}

	text := root.CreateElement("text")
	entry := text.CreateElement("body").CreateElement("div")
	entry.CreateAttr("type", "entry")
	if err := appendChildren(entry, doc.Body, teiElement); err != nil {
		return "", err
	}
	if doc.Comments != nil {
		back := text.CreateElement("back").CreateElement("div")
		back.CreateAttr("type", "comments")
		if err := appendChildren(back, doc.Comments, teiElement); err != nil {
			return "", err
		}
	}
	return x.WriteToString()
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
