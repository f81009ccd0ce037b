// Package sanitize cleans user-supplied chat text before it reaches retrieval,
// the prompt or the conversation log.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

const (
	MaxInputRunes    = 5000
	MinContextWindow = 1
	MaxContextWindow = 10
)

// control characters other than tab, newline and carriage return
var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// quotes are written as &#x27; and &quot;
var quotes = strings.NewReplacer("&#39;", "&#x27;", "&#34;", "&quot;")

// Input escapes markup, strips control characters and caps the result at
// MaxInputRunes runes.
func Input(s string) string {
	out := quotes.Replace(html.EscapeString(s))
	out = controlChars.ReplaceAllString(out, "")
	return Truncate(out, MaxInputRunes)
}

func Truncate(s string, n int) string {
	if n < 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func ContextWindow(n int) int {
	if n < MinContextWindow {
		return MinContextWindow
	}
	if n > MaxContextWindow {
		return MaxContextWindow
	}
	return n
}
