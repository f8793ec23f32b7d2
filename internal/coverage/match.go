package coverage

import "strings"

// Matcher decides whether a cell value mentions any of the given terms.
type Matcher func(value string, terms []string) bool

// FoldedContains matches when any term is a case-insensitive substring of value.
// Used by mention counts, Reach/AVE sums and sentiment counts.
func FoldedContains(value string, terms []string) bool {
	lv := strings.ToLower(value)
	for _, t := range terms {
		if strings.Contains(lv, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// ExactContains matches when any term is a case-sensitive substring of value.
// Used by the daily trendline and top source/author rankings.
// Do not merge with FoldedContains without sign-off from report owners.
func ExactContains(value string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(value, t) {
			return true
		}
	}
	return false
}

// KeywordGroup is a set of alternative terms scored together.
type KeywordGroup []string

// Terms builds a keyword group from a primary term and any extra terms.
func Terms(primary string, extra ...string) KeywordGroup {
	return append(KeywordGroup{primary}, extra...)
}

// normalizeTerms drops blank terms. A blank term would match every row.
func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if strings.TrimSpace(t) == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}
