package matcher

import (
	"regexp"
	"strings"
)

var (
	lineBreakHyphen = regexp.MustCompile(`-[ \t]*\r?\n\s*`)
	dashVariants    = regexp.MustCompile("[‐‑‒–—―−﹘﹣－]")
	whitespaceRun   = regexp.MustCompile(`\s+`)
	aliasSeparators = regexp.MustCompile(`[\s\-/]+`)
)

// Normalize prepares document text for matching: uppercase, hyphenated line
// breaks rejoined, dash variants unified to '-', whitespace collapsed.
func Normalize(text string) string {
	s := strings.ToUpper(text)
	s = dashVariants.ReplaceAllString(s, "-")
	s = lineBreakHyphen.ReplaceAllString(s, "-")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// normalizeToken uppercases a user-seen token and collapses its whitespace.
func normalizeToken(token string) string {
	s := strings.ToUpper(token)
	s = dashVariants.ReplaceAllString(s, "-")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
