package extract

import (
	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/selector"
	"github.com/hyperifyio/goextract/internal/tree"
)

// commentTags are the source tags a comment section contributes.
var commentTags = map[tree.Tag]bool{
	tree.Quote: true, tree.Code: true, tree.Del: true, tree.Head: true,
	tree.Hi: true, tree.Lb: true, tree.List: true, tree.P: true,
}

// Comments extracts the first comment section found in root and removes it
// from the tree so body extraction does not see it again. It returns nil
// and an empty string when no section carries text.
func Comments(root *tree.Node, dedup *cache.Dedup, opts Options) (*tree.Node, string) {
	w := &walker{dedup: dedup, opts: opts}
	body := tree.New(tree.Comments)
	for _, rule := range selector.Comments {
		region := selector.Query(root, rule)
		if region == nil {
			continue
		}
		removeMatching(region, selector.DiscardComments...)
		tree.StripTags(region, "span")
		for _, n := range region.Descendants() {
			if n.Done || !commentTags[n.Tag] {
				continue
			}
			var out *tree.Node
			if n.Tag == tree.Head || n.Tag == tree.Hi || n.Tag == tree.Del {
				// headings and inline runs become plain comment paragraphs
				out = w.block(n, quoteInline)
				if out != nil {
					out.Tag = tree.P
					out.ClearAttrs()
				}
			} else {
				out = w.handle(n)
			}
			if out != nil {
				body.Append(out)
			}
		}
		if len(body.Children) > 0 {
			region.Remove(false)
			break
		}
	}
	w.accept(body)
	if len(body.Children) == 0 {
		return nil, ""
	}
	return body, TextOf(body)
}
