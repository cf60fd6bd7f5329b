package langid

import (
	"regexp"
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

var rxDeclaredLang = regexp.MustCompile(`[a-z]{2}`)

// CheckDeclared compares the languages a page declares in its markup with
// target. Content-Language and og:locale meta elements are consulted
// first; the html lang attribute only when strict, since it is often left
// at a template default. Pages declaring nothing pass.
func CheckDeclared(doc *html.Node, target string, strict bool) bool {
	if doc == nil || target == "" {
		return true
	}
	for _, sel := range []string{`meta[http-equiv="content-language"]`, `meta[property="og:locale"]`} {
		metas := dom.QuerySelectorAll(doc, sel)
		if len(metas) == 0 {
			continue
		}
		for _, m := range metas {
			if declares(dom.GetAttribute(m, "content"), target) {
				return true
			}
		}
		return false
	}
	if strict {
		root := doc
		if dom.TagName(root) != "html" {
			if nodes := dom.GetElementsByTagName(doc, "html"); len(nodes) > 0 {
				root = nodes[0]
			}
		}
		if dom.HasAttribute(root, "lang") {
			return declares(dom.GetAttribute(root, "lang"), target)
		}
	}
	return true
}

func declares(value, target string) bool {
	for _, code := range rxDeclaredLang.FindAllString(strings.ToLower(value), -1) {
		if code == target {
			return true
		}
	}
	return false
}
