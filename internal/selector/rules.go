package selector

var blockTags = []string{"article", "div", "main", "section"}

// Content lists body container rules in priority order. Extraction uses the
// first rule that yields a usable match.
var Content = []Rule{
	match(blockTags,
		eq("class", "post"), eq("class", "entry"),
		has("class", "post-text"), has("class", "post_text"),
		has("class", "post-body"), has("class", "post-entry"), has("class", "postentry"),
		has("class", "post-content"), has("class", "post_content"),
		hasFold("class", "postcontent"), has("class", "post_inner_wrapper"),
		has("class", "article-text"), hasFold("class", "articletext"),
		both(has, "entry-content"), both(has, "article-content"),
		both(has, "article__content"), both(has, "article-body"), both(has, "article__body"),
		eq("itemprop", "articleBody"),
		hasFold("id", "articlebody"), hasFold("class", "articlebody"),
		eq("id", "articleContent"), has("class", "ArticleContent"),
		has("class", "page-content"), has("class", "text-content"),
		both(has, "body-text"), has("class", "article__container"), both(has, "art-content"),
	),
	named("article"),
	match(blockTags,
		has("class", "post-bodycopy"), has("class", "storycontent"), has("class", "story-content"),
		eq("class", "postarea"), eq("class", "art-postcontent"),
		has("class", "theme-content"), has("class", "blog-content"), has("class", "section-content"),
		has("class", "single-content"), has("class", "single-post"),
		has("class", "main-column"), has("class", "wpb_text_column"),
		prefix("id", "primary"), prefix("class", "article "),
		eq("class", "text"), eq("id", "article"), eq("class", "cell"),
		eq("id", "story"), eq("class", "story"),
		both(has, "story-body"), has("class", "field-body"),
		hasFold("class", "fulltext"), eq("role", "article"),
	),
	match(blockTags,
		both(has, "content-main"), has("class", "content_main"),
		both(has, "content-body"), has("id", "contentBody"), has("class", "content__body"),
		hasFold("id", "main-content"), hasFold("class", "main-content"),
		hasFold("class", "page-content"),
		eq("id", "content"), eq("class", "content"),
	),
	AnyOf(
		match([]string{"article", "div", "section"},
			prefix("class", "main"), prefix("id", "main"), prefix("role", "main")),
		named("main"),
	),
}

// Comments lists comment section rules in priority order.
var Comments = []Rule{
	match([]string{"div", "list", "section"},
		both(has, "commentlist"), has("class", "comment-page"),
		has("id", "comment-list"), has("class", "comment-list"),
		has("class", "comments-list"), has("class", "comments-content"), has("class", "post-comments"),
	),
	match([]string{"div", "section", "list"},
		prefix("id", "comments"), prefixFold("class", "comments"),
		prefix("id", "comment-"), prefix("class", "comment-"),
		has("class", "article-comments"),
	),
	match([]string{"div", "section", "list"},
		prefix("id", "comol"), prefix("id", "disqus_thread"), prefix("id", "dsq-comments"),
	),
	match([]string{"div", "section"},
		prefix("id", "social"), has("class", "comment"),
	),
}

// Discard matches boilerplate sections inside a body container: footers,
// related and social blocks, navigation, comment debris and hidden elements.
var Discard = []Rule{
	match(nil, both(has, "footer"), both(has, "bottom")),
	match([]string{"div", "item", "list", "p", "section", "span"},
		has("id", "related"), hasFold("class", "related"),
		both(has, "viral"),
		both(prefix, "shar"), has("class", "share-"),
		both(has, "social"), has("class", "sociable"),
		both(has, "syndication"),
		prefix("id", "jp-"), prefix("id", "dpsp-content"),
		both(has, "newsletter"), both(has, "cookie"), both(has, "tags"),
		both(has, "sidebar"), both(has, "banner"),
		has("class", "meta"),
		both(has, "menu"),
		both(prefix, "nav"), has("id", "navigation"), hasFold("class", "navigation"),
		has("role", "navigation"), has("class", "navbox"), prefix("class", "post-nav"),
		both(has, "breadcrumb"), both(has, "bread-crumb"),
		both(has, "author"), both(has, "button"), both(has, "caption"),
		hasFold("class", "byline"), has("class", "rating"), prefix("class", "widget"),
		has("class", "attachment"), has("class", "timestamp"),
		has("class", "user-info"), has("class", "user-profile"),
		has("class", "-ad-"), has("class", "-icon"),
		has("class", "article-infos"), hasFold("class", "infoline"),
	),
	match(nil,
		eq("class", "comments-title"), has("class", "comments-title"), has("class", "nocomments"),
		both(prefix, "reply-"), has("class", "-reply-"), has("class", "message"),
		both(has, "akismet"),
	),
	match(nil,
		prefix("class", "hide-"), has("class", "hide-print"), has("id", "hidden"),
		has("style", "hidden"), has("hidden", "hidden"), has("class", "noprint"),
		has("style", "display:none"), has("class", " hidden"),
	),
}

// DiscardComments removes reply forms and comment chrome inside a comments
// section.
var DiscardComments = []Rule{
	match([]string{"div", "section"}, prefix("id", "respond")),
	named("cite", "quote"),
	match(nil,
		eq("class", "comments-title"), has("class", "comments-title"), has("class", "nocomments"),
		both(prefix, "reply-"), has("class", "-reply-"), has("class", "message"),
		has("class", "signin"), both(has, "akismet"), has("style", "display:none"),
	),
}

// DiscardImage removes caption blocks when images are not kept.
var DiscardImage = []Rule{
	match([]string{"div", "item", "list", "p", "section", "span"}, both(has, "caption")),
}

// Teaser matches article teasers. Recall-focused extraction keeps them.
var Teaser = []Rule{
	match([]string{"div", "item", "list", "p", "section", "span"},
		hasFold("id", "teaser"), hasFold("class", "teaser")),
}

// PrecisionDiscard is pruned only when extraction favours precision.
var PrecisionDiscard = []Rule{
	named("header"),
	match([]string{"div", "item", "list", "p", "section", "span"},
		both(has, "bottom"), both(has, "link"), has("style", "border")),
}

// RemovedComments matches whole comment sections, dropped before
// precision-focused extraction when comments are not wanted.
var RemovedComments = []Rule{
	match([]string{"div", "list", "section"},
		prefixFold("id", "comment"), prefixFold("class", "comment"),
		has("class", "article-comments"), has("class", "post-comments"),
		prefix("id", "comol"), prefix("id", "disqus_thread"), prefix("id", "dsq-comments")),
}
