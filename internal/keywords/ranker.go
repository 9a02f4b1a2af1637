package keywords

import (
	"slices"
	"strings"
)

// TopN returns the n highest-scoring keywords, ties broken by term. The input
// slice is not modified. n <= 0 yields an empty slice.
func TopN(keywords []Keyword, n int) []Keyword {
	if n <= 0 {
		return []Keyword{}
	}
	sorted := slices.Clone(keywords)
	slices.SortStableFunc(sorted, compareKeywords)
	if len(sorted) > n {
		sorted = sorted[:n:n]
	}
	if sorted == nil {
		return []Keyword{}
	}
	return sorted
}

func compareKeywords(a, b Keyword) int {
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Term, b.Term)
}
