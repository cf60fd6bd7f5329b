package serialize

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperifyio/goextract/internal/meta"
)

// NullToken stands for absent metadata in CSV records.
const NullToken = "null"

func renderCSV(doc Document, opts Options) (string, error) {
	md := doc.Metadata
	comments := ""
	if doc.Comments != nil {
		comments = PlainText(doc.Comments, opts)
	}
	record := []string{
		orNull(md.ID), orNull(md.URL), orNull(md.Fingerprint), orNull(md.Hostname),
		orNull(md.Title), orNull(md.Date),
		flattenLines(PlainText(doc.Body, opts)), flattenLines(comments),
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Comma = '\t'
	if err := w.Write(record); err != nil {
		return "", fmt.Errorf("csv: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("csv: %w", err)
	}
	return b.String(), nil
}

func orNull(p *string) string {
	if p == nil {
		return NullToken
	}
	return *p
}

// flattenLines keeps a record on one line.
func flattenLines(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}

// record is the flat JSON shape: every metadata key plus the texts.
type record struct {
	meta.Metadata
	Text     string  `json:"text"`
	Comments *string `json:"comments"`
}

func renderJSON(doc Document, opts Options) (string, error) {
	r := record{Metadata: doc.Metadata, Text: PlainText(doc.Body, opts)}
	if doc.Comments != nil {
		c := PlainText(doc.Comments, opts)
		r.Comments = &c
	}
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return "", fmt.Errorf("json: %w", err)
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
