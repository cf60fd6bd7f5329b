// Package filter decides whether single nodes are admissible content.
package filter

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/tree"
)

// rxBoilerplate matches whole lines made of share, print and social labels.
var rxBoilerplate = regexp.MustCompile(`(?i)^\W*(Drucken|E-?Mail|Facebook|Flipboard|Google|Instagram|Linkedin|Mail|PDF|Pinterest|Pocket|Print|QQ|Reddit|Twitter|WeChat|WeiBo|Whatsapp|Xing|Mehr zum Thema:?|More on this.{0,8})$`)

// TextCharsTest reports whether s holds anything besides whitespace.
func TextCharsTest(s string) bool {
	return strings.TrimSpace(s) != ""
}

// TextFilter reports whether the node's text, or its tail when the text is
// empty, is blank or a boilerplate label.
func TextFilter(n *tree.Node) bool {
	s := n.Text
	if s == "" {
		s = n.Tail
	}
	if !TextCharsTest(s) {
		return true
	}
	for _, line := range strings.Split(s, "\n") {
		if rxBoilerplate.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

// ProcessNode trims a candidate node and returns it, or nil when the node
// must be discarded: already consumed, structurally empty, boilerplate, or a
// duplicate when dedup is on. The cache is only tested, never written to
// separately.
func ProcessNode(n *tree.Node, dedup *cache.Dedup, deduplicate bool) *tree.Node {
	if n == nil || n.Done {
		return nil
	}
	if len(n.Children) == 0 && n.Text == "" && n.Tail == "" {
		return nil
	}
	n.Text, n.Tail = strings.TrimSpace(n.Text), strings.TrimSpace(n.Tail)
	if n.Tag != tree.Lb && n.Text == "" && n.Tail != "" {
		n.Text, n.Tail = n.Tail, ""
	}
	if n.Text != "" || n.Tail != "" {
		if TextFilter(n) {
			return nil
		}
		if deduplicate && dedup != nil && dedup.TestNode(n) {
			return nil
		}
	}
	return n
}
