package tree

import (
	"strings"

	"golang.org/x/net/html"
)

// FromHTML converts a parsed HTML tree into source elements. A document node
// is unwrapped to its root element. Comment, doctype and other non-element
// nodes are dropped; text nodes become Text or Tail of the enclosing element.
func FromHTML(h *html.Node) *Node {
	for h != nil && h.Type == html.DocumentNode {
		var root *html.Node
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				root = c
				break
			}
		}
		h = root
	}
	if h == nil || h.Type != html.ElementNode {
		return nil
	}
	return convert(h)
}

func convert(h *html.Node) *Node {
	n := NewElement(h.Data)
	for _, a := range h.Attr {
		if a.Namespace != "" {
			continue
		}
		n.SetAttr(strings.ToLower(a.Key), a.Val)
	}
	var last *Node
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if last == nil {
				n.Text += c.Data
			} else {
				last.Tail += c.Data
			}
		case html.ElementNode:
			child := convert(c)
			child.Parent = n
			n.Children = append(n.Children, child)
			last = child
		}
	}
	return n
}
