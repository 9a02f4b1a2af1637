// Package keywords extracts the most representative terms from short texts
// (titles, search queries, product descriptions) by TF-IDF.
//
// Tokens come from a segmenter.Segmenter. Each surviving token is weighted by
// its damped term frequency times its inverse document frequency from a fixed
// Lexicon; terms missing from the IDF table fall back to the table's median.
// Results are ordered by score descending, then by term ascending, so ranking
// is reproducible across runs.
//
// An Analyzer loads its Lexicon at most once and shares it read-only between
// goroutines, so a single Analyzer may serve concurrent callers.
package keywords

// Keyword is a scored candidate term.
type Keyword struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}
