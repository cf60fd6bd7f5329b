// Package langid gates documents on the language of their text.
package langid

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// ErrUnavailable is returned by an oracle that cannot classify the text.
var ErrUnavailable = errors.New("language identification unavailable")

// Oracle names the most likely language of a text as an ISO 639-1 code.
type Oracle interface {
	Detect(text string) (string, error)
}

// Gate rejects documents whose detected language differs from Target.
type Gate struct {
	Oracle Oracle
	// Target is the normalized base language, e.g. "en".
	Target string
	Log    zerolog.Logger
}

// NewGate validates target and returns a gate using oracle. An empty target
// yields a gate that accepts everything.
func NewGate(oracle Oracle, target string) (*Gate, error) {
	g := &Gate{Oracle: oracle, Log: log.Logger}
	if strings.TrimSpace(target) == "" {
		return g, nil
	}
	base, err := Normalize(target)
	if err != nil {
		return nil, err
	}
	g.Target = base
	return g, nil
}

// Normalize reduces a BCP 47 tag to its base language code.
func Normalize(code string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", code, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// Allow tests the body text, or the comments when they are strictly
// longer. It returns the detected code, empty when nothing was detected.
// An unavailable oracle lets the document pass.
func (g *Gate) Allow(text, comments string) (string, bool) {
	if g == nil || g.Target == "" {
		return "", true
	}
	sample := text
	if utf8.RuneCountInString(comments) > utf8.RuneCountInString(text) {
		sample = comments
	}
	if g.Oracle == nil {
		g.Log.Warn().Msg("no language oracle configured, skipping language check")
		return "", true
	}
	code, err := g.Oracle.Detect(sample)
	if err != nil {
		g.Log.Warn().Err(err).Msg("language check skipped")
		return "", true
	}
	got, err := Normalize(code)
	if err != nil {
		g.Log.Warn().Err(err).Str("code", code).Msg("language check skipped")
		return "", true
	}
	g.Log.Debug().Str("detected", got).Str("target", g.Target).Msg("language check")
	return got, got == g.Target
}
