package extract

import (
	"strings"
	"unicode"

	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/filter"
	"github.com/hyperifyio/goextract/internal/tree"
)

// walker turns source nodes of a located region into output blocks.
type walker struct {
	dedup *cache.Dedup
	opts  Options
	// loose harvests the own text of div containers and orphan tails.
	loose bool
	// only restricts handling to the listed tags when non-nil.
	only map[tree.Tag]bool
}

// inline tags allowed inside an output block of the given kind.
var (
	paragraphInline = map[tree.Tag]bool{tree.Lb: true, tree.Hi: true, tree.Ref: true, tree.Del: true, tree.Code: true, tree.Graphic: true}
	itemInline      = map[tree.Tag]bool{tree.Lb: true, tree.Hi: true, tree.Ref: true, tree.Del: true, tree.Code: true, tree.Graphic: true, tree.List: true, tree.Item: true}
	quoteInline     = map[tree.Tag]bool{tree.Lb: true, tree.Hi: true, tree.Ref: true, tree.Del: true, tree.Code: true}
)

// collect walks the descendants of region and appends the produced blocks
// to body.
func (w *walker) collect(region, body *tree.Node) {
	for _, n := range region.Descendants() {
		if n.Done {
			continue
		}
		if w.only != nil && !w.only[n.Tag] {
			continue
		}
		if out := w.handle(n); out != nil {
			body.Append(out)
		}
		if out := w.orphanTail(n); out != nil {
			body.Append(out)
		}
	}
}

func (w *walker) handle(n *tree.Node) *tree.Node {
	switch n.Tag {
	case tree.P:
		return w.block(n, paragraphInline)
	case tree.Head:
		return w.block(n, quoteInline)
	case tree.Quote:
		return w.block(n, quoteInline)
	case tree.Code:
		return w.code(n)
	case tree.List:
		return w.list(n)
	case tree.Lb:
		return w.lineBreak(n)
	case tree.Hi, tree.Ref, tree.Del:
		return w.formatting(n)
	case tree.Table:
		if w.opts.IncludeTables {
			return w.table(n)
		}
		n.MarkDone()
		return nil
	case tree.Graphic:
		if w.opts.IncludeImages {
			return w.graphic(n)
		}
		return nil
	case tree.Div:
		return w.container(n)
	case tree.Item, tree.Row, tree.Cell:
		// reached only when detached from their parent structure
		return w.block(n, paragraphInline)
	}
	return nil
}

// flatten strips every descendant of n whose tag is not allowed and applies
// the link, formatting and image switches.
func (w *walker) flatten(n *tree.Node, allowed map[tree.Tag]bool) {
	for _, d := range n.Descendants() {
		switch {
		case d.Tag == tree.Graphic && !(w.opts.IncludeImages && allowed[tree.Graphic]):
			d.Remove(true)
		case d.Tag == tree.Ref && !w.opts.IncludeLinks:
			d.Strip()
		case d.Tag == tree.Hi && !w.opts.IncludeFormatting:
			d.Strip()
		case !allowed[d.Tag]:
			d.Strip()
		}
	}
}

// finish trims a produced block and checks it still carries text.
func finish(out *tree.Node) *tree.Node {
	tidy(out)
	trimTrailing(out)
	if filter.ProcessNode(out, nil, false) == nil {
		return nil
	}
	if !filter.TextCharsTest(out.IterText("")) && len(out.Iter("graphic")) == 0 {
		return nil
	}
	return out
}

// block copies n with its inline content as a single output block.
func (w *walker) block(n *tree.Node, allowed map[tree.Tag]bool) *tree.Node {
	out := n.Clone()
	n.MarkDone()
	out.Tail = ""
	if out.Tag == tree.Item || out.Tag == tree.Row || out.Tag == tree.Cell {
		out.Tag = tree.P
	}
	w.flatten(out, allowed)
	return finish(out)
}

// code keeps the verbatim text of a code block.
func (w *walker) code(n *tree.Node) *tree.Node {
	out := tree.New(tree.Code)
	out.Text = n.IterText("")
	n.MarkDone()
	return finish(out)
}

func (w *walker) list(n *tree.Node) *tree.Node {
	out := tree.New(tree.List)
	if t := collapseSpaces(n.Text); t != "" {
		item := tree.New(tree.Item)
		item.Text = t
		out.Append(item)
	}
	for _, c := range n.Children {
		var item *tree.Node
		if c.Tag == tree.Item {
			item = c.Clone()
			item.Tail = ""
			w.flatten(item, itemInline)
			item = finish(item)
		} else if t := collapseSpaces(c.IterText(" ")); t != "" {
			item = tree.New(tree.Item)
			item.Text = t
			item = finish(item)
		}
		if item != nil {
			out.Append(item)
		}
		if t := collapseSpaces(c.Tail); t != "" && c.Tag != tree.Item {
			extra := tree.New(tree.Item)
			extra.Text = t
			if extra = finish(extra); extra != nil {
				out.Append(extra)
			}
		}
	}
	n.MarkDone()
	if len(out.Children) == 0 {
		return nil
	}
	return out
}

// lineBreak turns the text following a break into a paragraph.
func (w *walker) lineBreak(n *tree.Node) *tree.Node {
	n.Done = true
	tail := collapseSpaces(n.Tail)
	n.Tail = ""
	if tail == "" {
		return nil
	}
	p := tree.New(tree.P)
	p.Text = tail
	return finish(p)
}

// formatting wraps a stray inline element in a paragraph.
func (w *walker) formatting(n *tree.Node) *tree.Node {
	out := n.Clone()
	n.MarkDone()
	out.Tail = ""
	p := tree.New(tree.P)
	p.Append(out)
	w.flatten(p, paragraphInline)
	return finish(p)
}

func (w *walker) table(n *tree.Node) *tree.Node {
	out := tree.New(tree.Table)
	for _, row := range n.Descendants("row") {
		if nearest(row, tree.Table) != n {
			continue
		}
		r := tree.New(tree.Row)
		filled := false
		for _, cell := range row.Children {
			if cell.Tag != tree.Cell {
				continue
			}
			c := cell.Clone()
			c.Tail = ""
			w.flatten(c, paragraphInline)
			tidy(c)
			if filter.ProcessNode(c, nil, false) == nil {
				c = tree.New(tree.Cell)
				if cell.Attr("role") != "" {
					c.SetAttr("role", cell.Attr("role"))
				}
			} else {
				filled = true
			}
			r.Append(c)
		}
		if filled {
			out.Append(r)
		}
	}
	n.MarkDone()
	if len(out.Children) == 0 {
		return nil
	}
	return out
}

func (w *walker) graphic(n *tree.Node) *tree.Node {
	n.Done = true
	if n.Attr("src") == "" {
		return nil
	}
	out := tree.New(tree.Graphic)
	for _, k := range []string{"src", "alt", "title"} {
		if v := n.Attr(k); v != "" {
			out.SetAttr(k, v)
		}
	}
	return out
}

// container harvests the own text of a div in loose mode.
func (w *walker) container(n *tree.Node) *tree.Node {
	if !w.loose {
		return nil
	}
	t := collapseSpaces(n.Text)
	n.Text = ""
	if t == "" {
		return nil
	}
	p := tree.New(tree.P)
	p.Text = t
	return finish(p)
}

// orphanTail emits the text following n inside a container.
func (w *walker) orphanTail(n *tree.Node) *tree.Node {
	if !w.loose || n.Parent == nil || n.Tail == "" {
		return nil
	}
	switch n.Parent.Tag {
	case tree.Div, tree.Element, tree.Body, tree.Comments:
	default:
		return nil
	}
	t := collapseSpaces(n.Tail)
	n.Tail = ""
	if t == "" {
		return nil
	}
	p := tree.New(tree.P)
	p.Text = t
	return finish(p)
}

// accept runs the dedup test on the blocks of body, once per fragment that
// enters the output. Blocks without text, such as graphics, are kept.
func (w *walker) accept(body *tree.Node) {
	if !w.opts.Deduplicate || w.dedup == nil {
		return
	}
	for _, block := range append([]*tree.Node(nil), body.Children...) {
		if block.Tag == tree.List {
			for _, item := range append([]*tree.Node(nil), block.Children...) {
				if filter.ProcessNode(item, w.dedup, true) == nil {
					item.Remove(false)
				}
			}
			if len(block.Children) == 0 {
				block.Remove(false)
			}
			continue
		}
		if strings.TrimSpace(TextOf(block)) == "" {
			continue
		}
		if filter.ProcessNode(block, w.dedup, true) == nil {
			block.Remove(false)
		}
	}
}

// trimTrailing drops the whitespace that ends the text of n.
func trimTrailing(n *tree.Node) {
	if len(n.Children) == 0 {
		n.Text = strings.TrimRightFunc(n.Text, unicode.IsSpace)
		return
	}
	last := n.Children[len(n.Children)-1]
	if last.Tail != "" {
		last.Tail = strings.TrimRightFunc(last.Tail, unicode.IsSpace)
		return
	}
	trimTrailing(last)
}

func nearest(n *tree.Node, tag tree.Tag) *tree.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Tag == tag {
			return p
		}
	}
	return nil
}
