package filter

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/goextract/internal/tree"
)

const (
	linkDensityRatio = 0.8
	shortLinkLen     = 10
	// repeated link blocks shorter than this are treated as templated chrome
	backtrackMaxLen   = 100
	backtrackMinCount = 3

	// precise variants trade recall for cleaner output
	preciseParagraphLimit = 200
	preciseShortLinkLen   = 50
	preciseBacktrackLen   = 200
)

// LinkDensity reports whether n is dominated by link text. It also returns
// the non-empty links it found. When precise is set, longer paragraphs and
// longer links count against the node.
func LinkDensity(n *tree.Node, precise bool) ([]*tree.Node, bool) {
	links := n.Descendants("ref")
	if len(links) == 0 {
		return nil, false
	}
	isLast := n.Next() == nil
	limit := 100
	switch {
	case n.Tag == tree.P && precise:
		limit = preciseParagraphLimit
	case n.Tag == tree.P && isLast:
		limit = 60
	case n.Tag == tree.P:
		limit = 30
	case isLast:
		limit = 300
	}

	textLen := runeLen(n.IterText(""))
	if textLen >= limit {
		return nil, false
	}
	shortLen := shortLinkLen
	if precise {
		shortLen = preciseShortLinkLen
	}
	linkLen, short, nonEmpty := linkInfo(links, shortLen)
	if len(nonEmpty) == 0 {
		return nonEmpty, true
	}
	if float64(linkLen) > linkDensityRatio*float64(textLen) ||
		(len(nonEmpty) > 1 && float64(short)/float64(len(nonEmpty)) > linkDensityRatio) {
		return nonEmpty, true
	}
	return nonEmpty, false
}

// TableLinkDensity reports whether a long table is mostly links.
func TableLinkDensity(table *tree.Node) bool {
	links := table.Descendants("ref")
	if len(links) == 0 {
		return false
	}
	textLen := runeLen(table.IterText(""))
	if textLen <= 250 {
		return false
	}
	linkLen, _, nonEmpty := linkInfo(links, shortLinkLen)
	if len(nonEmpty) == 0 {
		return true
	}
	if textLen <= 1000 {
		return float64(linkLen) > 0.8*float64(textLen)
	}
	return float64(linkLen) > 0.5*float64(textLen)
}

// DeleteByLinkDensity removes the descendants of root named in names that
// fail LinkDensity. With backtracking, short link blocks repeated at least
// three times are removed as well.
func DeleteByLinkDensity(root *tree.Node, backtracking, precise bool, names ...string) int {
	var doomed []*tree.Node
	seen := map[string][]*tree.Node{}
	for _, n := range root.Descendants(names...) {
		links, high := LinkDensity(n, precise)
		if high {
			doomed = append(doomed, n)
			continue
		}
		if backtracking && len(links) > 0 {
			text := strings.TrimSpace(n.IterText(""))
			seen[text] = append(seen[text], n)
		}
	}
	maxLen := backtrackMaxLen
	if precise {
		maxLen = preciseBacktrackLen
	}
	for text, nodes := range seen {
		if l := runeLen(text); l > 0 && l < maxLen && len(nodes) >= backtrackMinCount {
			doomed = append(doomed, nodes...)
		}
	}
	for i := len(doomed) - 1; i >= 0; i-- {
		doomed[i].Remove(true)
	}
	return len(doomed)
}

func linkInfo(links []*tree.Node, shortLen int) (linkLen, short int, nonEmpty []*tree.Node) {
	for _, l := range links {
		n := runeLen(l.IterText(""))
		if n == 0 {
			continue
		}
		linkLen += n
		if n < shortLen {
			short++
		}
		nonEmpty = append(nonEmpty, l)
	}
	return linkLen, short, nonEmpty
}

func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
