package matcher

import "strings"

var fuzzRules = []func(string) string{
	func(s string) string { return strings.ReplaceAll(s, "O", "0") },
	func(s string) string { return strings.ReplaceAll(s, "0", "O") },
	func(s string) string { return strings.ReplaceAll(s, "I", "1") },
	func(s string) string { return strings.ReplaceAll(s, "1", "I") },
	func(s string) string { return strings.ReplaceAll(s, "-", " ") },
	func(s string) string { return strings.ReplaceAll(s, " ", "-") },
	func(s string) string {
		return strings.NewReplacer(" ", "", "-", "", "/", "").Replace(s)
	},
}

// FuzzAliases returns OCR-confusion variants of a model string: O/0 and I/1 swaps
// and separator changes. The result is deterministic, deduplicated and never
// contains the normalized input itself.
func FuzzAliases(model string) []string {
	base := normalizeToken(model)
	if base == "" {
		return nil
	}

	seen := map[string]bool{base: true}
	var variants []string
	for _, rule := range fuzzRules {
		v := strings.TrimSpace(rule(base))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		variants = append(variants, v)
	}
	return variants
}
