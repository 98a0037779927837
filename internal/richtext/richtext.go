// Package richtext converts between the HTML-ish note content written by the
// web editor and plain text for the terminal.
package richtext

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict    = bluemonday.StrictPolicy()
	lineBreak = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|h[1-6]|blockquote|pre)>`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// ToPlain strips markup from a stored note. Line breaks and block ends
// become newlines and entities are decoded.
func ToPlain(content string) string {
	text := lineBreak.ReplaceAllString(content, "\n")
	text = html.UnescapeString(strict.Sanitize(text))
	text = strings.ReplaceAll(text, "\u00a0", " ")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	text = blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}

// FromPlain encodes terminal text for storage: special characters are
// escaped and newlines become <br>.
func FromPlain(text string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}

// IsBlank reports whether content has no visible text, such as an editor's
// leftover "<p><br></p>".
func IsBlank(content string) bool {
	return ToPlain(content) == ""
}
