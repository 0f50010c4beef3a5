package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \n\n\n  ", ""},
		{"carriage returns become newlines", "one\rtwo", "one\ntwo"},
		{"excess blank lines collapse", "a\n\n\n\n\nb", "a\n\nb"},
		{"horizontal runs collapse", "a  \t  b", "a b"},
		{"leading and trailing trimmed", "  hello world \n", "hello world"},
		{"paragraph break preserved", "para one\n\npara two", "para one\n\npara two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"a\r\n\r\nb\t\tc",
		"  x \n\n\n\n y  ",
		"multi\n\npara\n\n\ntext   with\tspaces",
	}
	for _, in := range inputs {
		once := NormalizeText(in)
		assert.Equal(t, once, NormalizeText(once), "normalize must be idempotent for %q", in)
	}
}

func TestNormalizeTextNoLongRuns(t *testing.T) {
	inputs := []string{
		"a\n\n\n\n\n\nb",
		"x \t \t y\r\r\rz",
		"lots   of   spaces\n\n\n\nand\n\n\n\n\nnewlines",
	}
	for _, in := range inputs {
		out := NormalizeText(in)
		assert.NotContains(t, out, "\n\n\n")
		assert.NotContains(t, out, "  ")
		assert.NotContains(t, out, "\t")
		assert.False(t, strings.Contains(out, "\r"), "no carriage returns in %q", out)
	}
}
