package app

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"github.com/hyperifyio/goextract/internal/serialize"
)

var formatExtensions = map[serialize.Format]string{
	serialize.Text:   ".txt",
	serialize.CSV:    ".csv",
	serialize.JSON:   ".json",
	serialize.XML:    ".xml",
	serialize.XMLTEI: ".tei.xml",
}

// deriveOutputPath returns a stable output file name under dir for input:
// a slug of the input's base name plus a short hash of the full input, so
// equal base names from different directories or hosts do not collide.
func deriveOutputPath(dir, input string, format serialize.Format) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if isURL(input) {
		base = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(input), "https://"), "http://")
	}
	slug := slugify(base)
	if slug == "" {
		slug = "document"
	}
	h := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(h[:])[:12]
	ext, ok := formatExtensions[format]
	if !ok {
		ext = ".txt"
	}
	return filepath.Join(dir, slug+"-"+short+ext)
}

// slugify lowercases s and joins runs of letters and digits with single
// dashes, capped at 60 bytes.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	out := b.String()
	if len(out) > 60 {
		out = strings.TrimRight(out[:60], "-")
	}
	return out
}
