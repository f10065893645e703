package matcher

import (
	"regexp"
	"strings"
)

// separatorClass tolerates a hyphen, slash or space where the source had whitespace.
const separatorClass = `[-/\s]?`

// GenerateRegexFromModel builds a safe pattern for a confirmed token: metacharacters
// are escaped, internal whitespace accepts any single separator, and word
// boundaries anchor the ends.
func GenerateRegexFromModel(token string) string {
	parts := strings.Fields(normalizeToken(token))
	if len(parts) == 0 {
		return ""
	}
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return wrapBoundaries(strings.Join(parts, separatorClass), parts[0], parts[len(parts)-1])
}

// aliasPattern builds the loose pattern used for alias matching, where hyphens,
// slashes and spaces inside the alias are all interchangeable.
func aliasPattern(alias string) string {
	var parts []string
	for _, p := range aliasSeparators.Split(normalizeToken(alias), -1) {
		if p != "" {
			parts = append(parts, regexp.QuoteMeta(p))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return wrapBoundaries(strings.Join(parts, separatorClass), parts[0], parts[len(parts)-1])
}

// wrapBoundaries adds \b only where the pattern starts or ends with a word character.
func wrapBoundaries(pattern, first, last string) string {
	if isWordByte(first[0]) {
		pattern = `\b` + pattern
	}
	if isWordByte(last[len(last)-1]) {
		pattern += `\b`
	}
	return pattern
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
