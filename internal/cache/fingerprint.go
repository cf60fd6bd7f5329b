package cache

import (
	"crypto/sha1"
	"encoding/base64"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// minFingerprintTokenLen keeps only words long enough to carry meaning.
const minFingerprintTokenLen = 5

// Fingerprint returns a stable identity for a document text: the base64 SHA-1
// of its sorted, case-folded words of at least five runes. It is attached to
// metadata for corpus-level deduplication and never consulted here.
func Fingerprint(text string) string {
	words := tokens(text, minFingerprintTokenLen)
	sort.Strings(words)
	sum := sha1.Sum([]byte(strings.Join(words, " ")))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// tokens splits text into NFKC-normalized, case-folded words of at least
// minLen runes, in order of appearance.
func tokens(text string, minLen int) []string {
	folded := cases.Fold().String(norm.NFKC.String(text))
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_'
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minLen {
			out = append(out, f)
		}
	}
	return out
}
