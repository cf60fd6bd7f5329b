package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperifyio/goextract/internal/tree"
)

// keptAttrs are the rendering hints that survive into the output tree.
var keptAttrs = map[string]bool{
	"rend": true, "target": true, "role": true,
	"src": true, "alt": true, "title": true,
}

// foldSpaces folds every whitespace run of s into one space.
func foldSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}

// collapseSpaces is foldSpaces followed by a trim.
func collapseSpaces(s string) string {
	return strings.TrimSpace(foldSpaces(s))
}

// tidy folds whitespace in the subtree of n and drops attributes that carry
// no rendering meaning. Code keeps its text verbatim.
func tidy(n *tree.Node) {
	for _, d := range n.Iter() {
		if d.Tag == tree.Code {
			d.Text = strings.Trim(d.Text, "\r\n")
		} else if !d.HasAncestor("code") {
			d.Text = foldSpaces(d.Text)
		}
		d.Tail = foldSpaces(d.Tail)
		attrs := d.Attrs[:0]
		for _, a := range d.Attrs {
			if keptAttrs[a.Key] {
				attrs = append(attrs, a)
			}
		}
		d.Attrs = attrs
	}
}

// runeLen is the trimmed length of s in runes.
func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// TextOf returns the flattened text used for size decisions.
func TextOf(n *tree.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.IterText(" "))
}
