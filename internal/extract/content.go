package extract

import (
	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/filter"
	"github.com/hyperifyio/goextract/internal/selector"
	"github.com/hyperifyio/goextract/internal/tree"
)

// looseFactor scales MinExtractedSize into the paragraph text threshold
// below which div containers contribute their own text. Precision uses 1.
const looseFactor = 3

// wildTags are the source tags harvested when no rule produced a body.
// Recall adds the loose containers in recallWildTags.
var (
	wildTags = map[tree.Tag]bool{
		tree.P: true, tree.Quote: true, tree.Code: true, tree.Table: true,
	}
	recallWildTags = map[tree.Tag]bool{
		tree.P: true, tree.Quote: true, tree.Code: true, tree.Table: true,
		tree.List: true, tree.Lb: true, tree.Div: true,
	}
)

// Result is the outcome of primary extraction.
type Result struct {
	Body *tree.Node
	Text string
	// Sure is set when a content rule produced a body of sufficient size.
	Sure bool
}

// Content extracts the main body of a canonical tree. Matched regions are
// consumed from root. When no rule yields enough text, a body is recovered
// from the loose text of the whole document and Sure is false.
func Content(root *tree.Node, dedup *cache.Dedup, opts Options) Result {
	backup := root.Clone()
	w := &walker{dedup: dedup, opts: opts}
	body := tree.New(tree.Body)

	for _, rule := range selector.Content {
		region := selector.Query(root, rule)
		if region == nil {
			continue
		}
		w.prune(region)
		if len(region.Children) == 0 && collapseSpaces(region.Text) == "" {
			continue
		}
		factor := looseFactor
		if opts.Focus == FavorPrecision {
			factor = 1
		}
		w.loose = paragraphTextLen(root) < opts.minExtracted()*factor
		w.collect(region, body)
		for len(body.Children) > 0 {
			last := body.Children[len(body.Children)-1]
			if last.Tag != tree.Head && last.Tag != tree.Ref {
				break
			}
			last.Remove(false)
		}
		if len(body.Children) > 1 {
			break
		}
	}

	text := TextOf(body)
	sure := true
	if len(body.Children) == 0 || runeLen(text) < opts.minExtracted() {
		sure = false
		if wild := recoverWild(backup, w); runeLen(TextOf(wild)) > runeLen(text) {
			body = wild
		}
	}
	w.accept(body)
	return Result{Body: body, Text: TextOf(body), Sure: sure}
}

// recoverWild harvests paragraphs, quotes, code and tables (plus lists,
// line breaks and divs under recall) from the whole pruned document into a
// fresh body.
func recoverWild(doc *tree.Node, parent *walker) *tree.Node {
	only := wildTags
	if parent.opts.Focus == FavorRecall {
		only = recallWildTags
	}
	w := &walker{dedup: parent.dedup, opts: parent.opts, loose: true, only: only}
	w.prune(doc)
	body := tree.New(tree.Body)
	w.collect(doc, body)
	return body
}

// Collect converts every block of a canonical tree into a fresh body
// without locating a container first.
func Collect(root *tree.Node, opts Options) *tree.Node {
	w := &walker{opts: opts, loose: true}
	body := tree.New(tree.Body)
	if root != nil {
		w.collect(root, body)
	}
	return body
}

// prune removes boilerplate sections and link-heavy blocks from region.
func (w *walker) prune(region *tree.Node) {
	precise := w.opts.Focus == FavorPrecision
	removeMatching(region, selector.Discard...)
	if !w.opts.IncludeImages {
		removeMatching(region, selector.DiscardImage...)
	}
	if w.opts.Focus != FavorRecall {
		removeMatching(region, selector.Teaser...)
	}
	if precise {
		removeMatching(region, selector.PrecisionDiscard...)
	}
	for range 2 {
		filter.DeleteByLinkDensity(region, true, precise, "div")
		filter.DeleteByLinkDensity(region, false, precise, "list")
		filter.DeleteByLinkDensity(region, false, precise, "p")
	}
	if w.opts.IncludeTables || precise {
		tables := region.Descendants("table")
		for i := len(tables) - 1; i >= 0; i-- {
			if filter.TableLinkDensity(tables[i]) {
				tables[i].Remove(true)
			}
		}
	}
	if precise {
		for len(region.Children) > 0 {
			last := region.Children[len(region.Children)-1]
			if last.Tag != tree.Head {
				break
			}
			last.Remove(true)
		}
	}
}

// RemoveComments drops whole comment sections from root.
func RemoveComments(root *tree.Node) {
	removeMatching(root, selector.RemovedComments...)
}

func removeMatching(root *tree.Node, rules ...selector.Rule) {
	for _, n := range selector.QueryAll(root, selector.AnyOf(rules...)) {
		n.Remove(true)
	}
}

func paragraphTextLen(root *tree.Node) int {
	total := 0
	for _, p := range root.Descendants("p") {
		total += runeLen(p.IterText(""))
	}
	return total
}
