package tools

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	splitRe      = regexp.MustCompile(`[\s,]+`)
)

// SanitizeInput removes wrapping quotes, collapses whitespace and drops
// trailing punctuation that models tend to append to Action Input.
func SanitizeInput(input string) string {
	s := strings.TrimSpace(input)
	for {
		t := strings.TrimSpace(strings.TrimRight(strings.Trim(s, "\"'`"), ".:;"))
		if t == s {
			break
		}
		s = t
	}
	return whitespaceRe.ReplaceAllString(s, " ")
}

// Fields splits sanitized input on whitespace and commas.
func Fields(input string) []string {
	s := SanitizeInput(input)
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range splitRe.Split(s, -1) {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
