// Package selector holds the structural predicates used to locate body and
// comment regions and to discard boilerplate sections of a canonical tree.
package selector

import (
	"strings"

	"github.com/hyperifyio/goextract/internal/tree"
)

// Rule matches a single node.
type Rule func(*tree.Node) bool

// Query returns the first descendant of root, in document order, matching r.
func Query(root *tree.Node, r Rule) *tree.Node {
	for _, n := range root.Descendants() {
		if r(n) {
			return n
		}
	}
	return nil
}

// QueryAll returns every descendant of root matching r. A match nested in an
// earlier match is still reported.
func QueryAll(root *tree.Node, r Rule) []*tree.Node {
	var out []*tree.Node
	for _, n := range root.Descendants() {
		if r(n) {
			out = append(out, n)
		}
	}
	return out
}

// AnyOf combines rules with logical or.
func AnyOf(rules ...Rule) Rule {
	return func(n *tree.Node) bool {
		for _, r := range rules {
			if r(n) {
				return true
			}
		}
		return false
	}
}

// cond is an attribute test.
type cond func(n *tree.Node) bool

func eq(attr, val string) cond {
	return func(n *tree.Node) bool { return n.Attr(attr) == val }
}

func has(attr, sub string) cond {
	return func(n *tree.Node) bool { return strings.Contains(n.Attr(attr), sub) }
}

// hasFold is has over the lower-cased attribute value; sub must be lower case.
func hasFold(attr, sub string) cond {
	return func(n *tree.Node) bool { return strings.Contains(strings.ToLower(n.Attr(attr)), sub) }
}

func prefix(attr, p string) cond {
	return func(n *tree.Node) bool { return strings.HasPrefix(n.Attr(attr), p) }
}

func prefixFold(attr, p string) cond {
	return func(n *tree.Node) bool { return strings.HasPrefix(strings.ToLower(n.Attr(attr)), p) }
}

// both applies c to the id and class attributes.
func both(mk func(attr, v string) cond, v string) cond {
	a, b := mk("id", v), mk("class", v)
	return func(n *tree.Node) bool { return a(n) || b(n) }
}

// match builds a rule accepting nodes named in tags (any node when tags is
// empty) for which at least one condition holds.
func match(tags []string, conds ...cond) Rule {
	return func(n *tree.Node) bool {
		if len(tags) > 0 && !n.Is(tags...) {
			return false
		}
		for _, c := range conds {
			if c(n) {
				return true
			}
		}
		return false
	}
}

func named(tags ...string) Rule {
	return func(n *tree.Node) bool { return n.Is(tags...) }
}
