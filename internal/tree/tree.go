package tree

import (
	"strings"
)

// Tag identifies the kind of a canonical node. Element marks a source element
// that has not been mapped onto the canonical vocabulary; its original name is
// kept in Node.Name.
type Tag uint8

const (
	Element Tag = iota
	Body
	Div
	P
	Head
	List
	Item
	Lb
	Quote
	Code
	Hi
	Del
	Ref
	Graphic
	Table
	Row
	Cell
	Comments
)

var tagNames = [...]string{
	Element:  "element",
	Body:     "body",
	Div:      "div",
	P:        "p",
	Head:     "head",
	List:     "list",
	Item:     "item",
	Lb:       "lb",
	Quote:    "quote",
	Code:     "code",
	Hi:       "hi",
	Del:      "del",
	Ref:      "ref",
	Graphic:  "graphic",
	Table:    "table",
	Row:      "row",
	Cell:     "cell",
	Comments: "comments",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "element"
}

// Attr is a single rendering hint. Keys are unique within a node.
type Attr struct {
	Key string
	Val string
}

// Node is an element of the reduced document model. Text holds the content
// before the first child and Tail the content that follows the node inside its
// parent. An empty string means absent.
type Node struct {
	Tag      Tag
	Name     string
	Text     string
	Tail     string
	Attrs    []Attr
	Children []*Node
	Parent   *Node
	// Done marks a source node consumed by an earlier extraction pass.
	Done bool
}

// New returns a detached canonical node.
func New(tag Tag) *Node {
	return &Node{Tag: tag}
}

// NewElement returns a detached source element with the given HTML name.
func NewElement(name string) *Node {
	return &Node{Tag: Element, Name: strings.ToLower(name)}
}

// TagName returns the canonical name, or the source name for elements.
func (n *Node) TagName() string {
	if n == nil {
		return ""
	}
	if n.Tag == Element {
		return n.Name
	}
	return n.Tag.String()
}

// Is reports whether the node's name is one of names.
func (n *Node) Is(names ...string) bool {
	name := n.TagName()
	for _, s := range names {
		if s == name {
			return true
		}
	}
	return false
}

func (n *Node) Attr(key string) string {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func (n *Node) HasAttr(key string) bool {
	for _, a := range n.Attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

func (n *Node) SetAttr(key, val string) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Val = val
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
}

func (n *Node) ClearAttrs() {
	n.Attrs = nil
}

// Append attaches children at the end, detaching them from any previous parent.
func (n *Node) Append(children ...*Node) {
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.Parent != nil {
			c.Parent.detach(c)
		}
		c.Parent = n
		n.Children = append(n.Children, c)
	}
}

// Index returns the position of n among its parent's children, or -1.
func (n *Node) Index() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// Next returns the following sibling or nil.
func (n *Node) Next() *Node {
	i := n.Index()
	if i < 0 || i+1 >= len(n.Parent.Children) {
		return nil
	}
	return n.Parent.Children[i+1]
}

func (n *Node) detach(c *Node) {
	for i, x := range n.Children {
		if x == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			break
		}
	}
	c.Parent = nil
}

// Remove deletes n and its subtree from its parent. With keepTail the tail
// text is moved onto the preceding sibling or the parent.
func (n *Node) Remove(keepTail bool) {
	parent := n.Parent
	if parent == nil {
		return
	}
	if keepTail && n.Tail != "" {
		parent.appendTextAt(n.Index(), n.Tail)
	}
	parent.detach(n)
	n.Tail = ""
}

// Strip removes n from the tree while keeping its content: the text is
// merged into the preceding text, the children take its place and the tail
// follows the last promoted child.
func (n *Node) Strip() {
	parent := n.Parent
	if parent == nil {
		return
	}
	idx := n.Index()
	children := n.Children
	if len(children) == 0 {
		parent.appendTextAt(idx, n.Text+n.Tail)
		parent.detach(n)
		return
	}
	parent.appendTextAt(idx, n.Text)
	last := children[len(children)-1]
	last.Tail += n.Tail

	merged := make([]*Node, 0, len(parent.Children)+len(children)-1)
	merged = append(merged, parent.Children[:idx]...)
	for _, c := range children {
		c.Parent = parent
		merged = append(merged, c)
	}
	merged = append(merged, parent.Children[idx+1:]...)
	parent.Children = merged
	n.Children = nil
	n.Parent = nil
}

// appendTextAt appends s to whatever text precedes child position idx.
func (n *Node) appendTextAt(idx int, s string) {
	if s == "" {
		return
	}
	if idx <= 0 {
		n.Text += s
		return
	}
	n.Children[idx-1].Tail += s
}

// Clone returns a deep copy detached from any parent.
func (n *Node) Clone() *Node {
	c := &Node{Tag: n.Tag, Name: n.Name, Text: n.Text, Tail: n.Tail, Done: n.Done}
	if len(n.Attrs) > 0 {
		c.Attrs = append([]Attr(nil), n.Attrs...)
	}
	for _, child := range n.Children {
		cc := child.Clone()
		cc.Parent = c
		c.Children = append(c.Children, cc)
	}
	return c
}

// Iter returns n and its descendants in document order, restricted to the
// given names when any are passed. The slice is a snapshot, so callers may
// mutate the tree while ranging over it.
func (n *Node) Iter(names ...string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		if len(names) == 0 || cur.Is(names...) {
			out = append(out, cur)
		}
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// Descendants is Iter without the node itself.
func (n *Node) Descendants(names ...string) []*Node {
	all := n.Iter(names...)
	if len(all) > 0 && all[0] == n {
		return all[1:]
	}
	return all
}

// IterText concatenates the text of n and its subtree, excluding n's own
// tail, joining non-empty pieces with sep.
func (n *Node) IterText(sep string) string {
	var parts []string
	var walk func(*Node, bool)
	walk = func(cur *Node, withTail bool) {
		if cur.Text != "" {
			parts = append(parts, cur.Text)
		}
		for _, c := range cur.Children {
			walk(c, true)
		}
		if withTail && cur.Tail != "" {
			parts = append(parts, cur.Tail)
		}
	}
	walk(n, false)
	return strings.Join(parts, sep)
}

// IsEmpty reports whether n has no children, no text and no tail.
func (n *Node) IsEmpty() bool {
	return len(n.Children) == 0 && n.Text == "" && n.Tail == ""
}

// CountElements returns the number of nodes below n.
func (n *Node) CountElements() int {
	total := 0
	for _, c := range n.Children {
		total += 1 + c.CountElements()
	}
	return total
}

// MarkDone flags n and its whole subtree as consumed.
func (n *Node) MarkDone() {
	n.Done = true
	for _, c := range n.Children {
		c.MarkDone()
	}
}

// HasAncestor reports whether any ancestor of n carries one of names.
func (n *Node) HasAncestor(names ...string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Is(names...) {
			return true
		}
	}
	return false
}

// StripTags structurally removes every descendant of root named in names.
func StripTags(root *Node, names ...string) {
	for _, n := range root.Descendants(names...) {
		n.Strip()
	}
}

// Prune removes, bottom-up, every descendant that is empty. Graphics are kept
// since they carry meaning without text.
func Prune(root *Node) {
	for i := len(root.Children) - 1; i >= 0; i-- {
		c := root.Children[i]
		Prune(c)
		if c.Tag != Graphic && c.IsEmpty() {
			c.Remove(false)
		}
	}
}
