package retrieval

import "strings"

// significantTokens lowercases text and splits it into the set of
// significant tokens spec.md §4.2 defines: non-stopword, length >= 3,
// after stripping non-alphanumeric-dash characters.
func significantTokens(text string) map[string]bool {
	lower := strings.ToLower(text)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= '0' && r <= '9' {
			return false
		}
		return r != '-'
	})

	tokens := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if len(f) < 3 {
			continue
		}
		if stopwords[f] {
			continue
		}
		tokens[f] = true
	}
	return tokens
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "his": true,
	"has": true, "had": true,
	"with": true, "this": true, "that": true, "from": true, "have": true,
	"they": true, "will": true, "what": true, "when": true, "your": true,
	"them": true, "then": true, "than": true, "into": true, "been": true,
	"were": true, "just": true, "like": true, "some": true, "more": true,
	"very": true, "also": true, "about": true, "would": true, "could": true,
}

// singularPlural reports whether a and b are the same word up to a
// trailing "s", for the trigger signal's 0.8-weighted fuzzy match.
func singularPlural(a, b string) bool {
	if a == b {
		return true
	}
	if strings.TrimSuffix(a, "s") == b && strings.HasSuffix(a, "s") {
		return true
	}
	if strings.TrimSuffix(b, "s") == a && strings.HasSuffix(b, "s") {
		return true
	}
	return false
}

// containsSubstring reports whether needle appears as a case-insensitive
// substring of haystack. Used for anti-trigger, domain, and feature checks.
func containsSubstring(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
