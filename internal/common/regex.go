package common

import (
	"regexp"
	"strings"
)

// CompileFold compiles pattern case-insensitively unless it already carries flags.
func CompileFold(pattern string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(pattern, "(?") {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}
