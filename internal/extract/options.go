package extract

import (
	"fmt"
	"strings"

	"github.com/hyperifyio/goextract/internal/canon"
)

// DefaultMinExtractedSize is the body length below which extraction falls
// back to wild text recovery.
const DefaultMinExtractedSize = 250

// Focus trades extracted text volume against accuracy.
type Focus int

const (
	Balanced Focus = iota
	// FavorPrecision prunes more aggressively and skips the baseline rescue.
	FavorPrecision
	// FavorRecall keeps teasers, harvests more wild text and accepts fallback
	// bodies more readily.
	FavorRecall
)

var focusNames = [...]string{Balanced: "balanced", FavorPrecision: "precision", FavorRecall: "recall"}

func (f Focus) String() string {
	if f >= 0 && int(f) < len(focusNames) {
		return focusNames[f]
	}
	return fmt.Sprintf("Focus(%d)", int(f))
}

// ParseFocus maps a focus name to its value. The empty string is Balanced.
func ParseFocus(s string) (Focus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "balanced":
		return Balanced, nil
	case "precision":
		return FavorPrecision, nil
	case "recall":
		return FavorRecall, nil
	}
	return Balanced, fmt.Errorf("unknown focus %q (want balanced, precision or recall)", s)
}

// Options controls which canonical elements survive extraction.
type Options struct {
	IncludeComments   bool
	IncludeTables     bool
	IncludeImages     bool
	IncludeFormatting bool
	IncludeLinks      bool
	Deduplicate       bool
	Focus             Focus
	// MinExtractedSize falls back to DefaultMinExtractedSize when not positive.
	MinExtractedSize int
}

func (o Options) minExtracted() int {
	if o.MinExtractedSize <= 0 {
		return DefaultMinExtractedSize
	}
	return o.MinExtractedSize
}

// Canon returns the rewrite switches matching o.
func (o Options) Canon() canon.Options {
	return canon.Options{
		IncludeTables:     o.IncludeTables,
		IncludeImages:     o.IncludeImages,
		IncludeFormatting: o.IncludeFormatting,
		IncludeLinks:      o.IncludeLinks,
	}
}
