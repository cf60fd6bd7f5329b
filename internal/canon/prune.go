package canon

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Selector removes user-chosen sections from a parsed document before it is
// converted. The zero value removes nothing.
type Selector struct {
	group cascadia.SelectorGroup
}

// CompileSelector parses a CSS selector group such as "div.ads, #comments".
func CompileSelector(css string) (Selector, error) {
	if css == "" {
		return Selector{}, nil
	}
	group, err := cascadia.ParseGroup(css)
	if err != nil {
		return Selector{}, fmt.Errorf("prune selector %q: %w", css, err)
	}
	return Selector{group: group}, nil
}

// Apply detaches every node of doc matched by the selector and returns the
// number of removed subtrees.
func (s Selector) Apply(doc *html.Node) int {
	if len(s.group) == 0 || doc == nil {
		return 0
	}
	matches := cascadia.QueryAll(doc, s.group)
	removed := 0
	for _, n := range matches {
		if n.Parent == nil {
			continue
		}
		n.Parent.RemoveChild(n)
		removed++
	}
	return removed
}
