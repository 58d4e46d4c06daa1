package tts

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxTextLength is the longest text, in runes, accepted for synthesis.
const DefaultMaxTextLength = 5000

// PrepareText trims and NFC-normalises text for the engine.
// A maxLen of zero disables the length check.
func PrepareText(text string, maxLen int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ValidationError(ErrEmptyText)
	}

	text = norm.NFC.String(text)

	if maxLen > 0 {
		if n := utf8.RuneCountInString(text); n > maxLen {
			return "", ValidationError(fmt.Errorf("%w: %d > %d characters", ErrTextTooLong, n, maxLen))
		}
	}
	return text, nil
}

// Preview shortens text for status lines.
func Preview(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	r := []rune(text)
	return string(r[:n]) + "..."
}
