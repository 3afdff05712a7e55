package text

import (
	"strings"
	"unicode"
)

// Squash collapses every run of whitespace into a single space and trims the ends.
func Squash(content string) string {
	return strings.Join(strings.Fields(content), " ")
}

// Hashtag turns a free-form category into a hashtag body: lower case,
// words joined by underscores, anything but letters, digits and underscores dropped.
func Hashtag(category string) string {
	words := strings.FieldsFunc(strings.ToLower(category), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	return strings.Join(words, "_")
}
