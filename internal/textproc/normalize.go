package textproc

import (
	"regexp"
	"strings"
)

var (
	blankRunRegex   = regexp.MustCompile(`\n{3,}`)
	horizontalRegex = regexp.MustCompile(`[ \t]+`)
)

// NormalizeText cleans raw OCR output lightly: line endings become plain
// newlines, runs of 3+ newlines collapse to a paragraph break, runs of
// spaces/tabs collapse to a single space, and the result is trimmed.
// Idempotent over any input, including the empty string.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankRunRegex.ReplaceAllString(text, "\n\n")
	text = horizontalRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
