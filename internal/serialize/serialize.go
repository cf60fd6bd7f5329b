// Package serialize lowers an extracted document to its output encodings.
package serialize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperifyio/goextract/internal/meta"
	"github.com/hyperifyio/goextract/internal/tree"
)

// Format is an output encoding.
type Format string

const (
	Text   Format = "text"
	CSV    Format = "csv"
	JSON   Format = "json"
	XML    Format = "xml"
	XMLTEI Format = "xmltei"
)

// Formats lists every supported encoding.
var Formats = []Format{Text, CSV, JSON, XML, XMLTEI}

var (
	ErrUnknownFormat = errors.New("unknown output format")
	ErrUnknownTag    = errors.New("tag has no serialized form")
)

// ParseFormat accepts a format name; "txt" is an alias of text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Text, CSV, JSON, XML, XMLTEI:
		return f, nil
	case "txt", "":
		return Text, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Options are the rendering switches shared by every format.
type Options struct {
	IncludeFormatting bool
	IncludeLinks      bool
}

// Document is what gets serialized. Comments is nil when absent.
type Document struct {
	Body     *tree.Node
	Comments *tree.Node
	Metadata meta.Metadata
}

// Render encodes doc in the requested format.
func Render(doc Document, format Format, opts Options) (string, error) {
	if doc.Body == nil {
		doc.Body = tree.New(tree.Body)
	}
	switch format {
	case Text:
		return renderText(doc, opts), nil
	case CSV:
		return renderCSV(doc, opts)
	case JSON:
		return renderJSON(doc, opts)
	case XML:
		return renderXML(pruned(doc))
	case XMLTEI:
		return renderTEI(pruned(doc))
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// pruned returns a copy of doc without empty nodes.
func pruned(doc Document) Document {
	out := doc
	out.Body = doc.Body.Clone()
	tree.Prune(out.Body)
	if doc.Comments != nil {
		out.Comments = doc.Comments.Clone()
		tree.Prune(out.Comments)
	}
	return out
}
