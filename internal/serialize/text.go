package serialize

import (
	"strings"

	"github.com/hyperifyio/goextract/internal/tree"
)

// hiMarkers maps rend values to markdown emphasis.
var hiMarkers = map[string]string{
	"#b":   "**",
	"#i":   "*",
	"#u":   "__",
	"#t":   "`",
	"#sub": "~",
	"#sup": "^",
}

func renderText(doc Document, opts Options) string {
	out := PlainText(doc.Body, opts)
	if doc.Comments != nil {
		if c := PlainText(doc.Comments, opts); c != "" {
			out += "\n" + c
		}
	}
	return out
}

// PlainText renders a canonical subtree as line-oriented text.
func PlainText(n *tree.Node, opts Options) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	writeText(&b, n, opts)
	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimRight(line, " \t"); strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func writeText(b *strings.Builder, n *tree.Node, opts Options) {
	switch n.Tag {
	case tree.Body, tree.Comments, tree.Div, tree.Element:
		writeInline(b, n, opts)
	case tree.P, tree.Row:
		b.WriteByte('\n')
		writeInline(b, n, opts)
		b.WriteByte('\n')
	case tree.Head:
		b.WriteString("\n" + strings.Repeat("#", headLevel(n)) + " ")
		writeInline(b, n, opts)
		b.WriteByte('\n')
	case tree.List, tree.Table:
		b.WriteByte('\n')
		writeInline(b, n, opts)
		b.WriteByte('\n')
	case tree.Item:
		b.WriteString("\n- ")
		writeInline(b, n, opts)
		b.WriteByte('\n')
	case tree.Cell:
		writeInline(b, n, opts)
		if n.Next() != nil {
			b.WriteString(" | ")
		}
	case tree.Lb:
		b.WriteByte('\n')
		b.WriteString(n.Text)
	case tree.Quote:
		var q strings.Builder
		writeInline(&q, n, opts)
		b.WriteByte('\n')
		for _, line := range strings.Split(strings.TrimSpace(q.String()), "\n") {
			b.WriteString("> " + line + "\n")
		}
	case tree.Code:
		b.WriteString("\n```\n")
		writeInline(b, n, opts)
		b.WriteString("\n```\n")
	case tree.Hi:
		marker := ""
		if opts.IncludeFormatting {
			marker = hiMarkers[n.Attr("rend")]
		}
		b.WriteString(marker)
		writeInline(b, n, opts)
		b.WriteString(marker)
	case tree.Del:
		marker := ""
		if opts.IncludeFormatting {
			marker = "~~"
		}
		b.WriteString(marker)
		writeInline(b, n, opts)
		b.WriteString(marker)
	case tree.Ref:
		target := n.Attr("target")
		if !opts.IncludeLinks || target == "" {
			writeInline(b, n, opts)
			break
		}
		b.WriteByte('[')
		writeInline(b, n, opts)
		b.WriteString("](" + target + ")")
	case tree.Graphic:
		if src := n.Attr("src"); src != "" {
			b.WriteString("![" + n.Attr("alt") + "](" + src + ")")
		}
	}
	b.WriteString(n.Tail)
}

// writeInline writes the text of n followed by its children.
func writeInline(b *strings.Builder, n *tree.Node, opts Options) {
	b.WriteString(n.Text)
	for _, c := range n.Children {
		writeText(b, c, opts)
	}
}

func headLevel(n *tree.Node) int {
	rend := n.Attr("rend")
	if len(rend) == 2 && rend[0] == 'h' && rend[1] >= '1' && rend[1] <= '6' {
		return int(rend[1] - '0')
	}
	return 1
}
