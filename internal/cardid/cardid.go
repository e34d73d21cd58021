// Package cardid derives stable card identifiers from question text.
package cardid

import (
	"encoding/base64"
	"errors"
	"strings"
)

const (
	// PrefixRunes is how much of the normalized text the id covers.
	PrefixRunes = 50
	idPrefix    = "quiz_"
)

// ErrEmptyText is returned when a question has no usable text.
var ErrEmptyText = errors.New("question text is empty")

// Normalize trims the text and collapses every whitespace run to one space,
// so re-rendered or re-indented copies of a question map to the same card.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Derive returns the id for a question. Two questions whose normalized text
// shares the first PrefixRunes runes get the same id and are the same card.
func Derive(text string) (string, error) {
	n := Normalize(text)
	if n == "" {
		return "", ErrEmptyText
	}
	if r := []rune(n); len(r) > PrefixRunes {
		n = string(r[:PrefixRunes])
	}
	return idPrefix + base64.RawStdEncoding.EncodeToString([]byte(n)), nil
}
