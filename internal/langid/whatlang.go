package langid

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Whatlang classifies text with whatlanggo's trigram model.
type Whatlang struct{}

func (Whatlang) Detect(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrUnavailable
	}
	code := whatlanggo.DetectLang(text).Iso6391()
	if code == "" {
		return "", ErrUnavailable
	}
	return code, nil
}
