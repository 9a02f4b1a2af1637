package keywords

import (
	"iter"
	"unicode/utf8"
)

// tfDamping scales raw term frequency down relative to IDF magnitudes.
const tfDamping = 0.1

// termCounts holds the raw counts for one document.
type termCounts struct {
	counts  map[string]int
	wordSum int
	tokens  int
}

func countTerms(tokens iter.Seq[string], lex *Lexicon) termCounts {
	tc := termCounts{counts: make(map[string]int)}
	if tokens == nil {
		return tc
	}
	for token := range tokens {
		tc.tokens++
		if !isCandidate(token, lex) {
			continue
		}
		tc.counts[token]++
		tc.wordSum++
	}
	return tc
}

// isCandidate rejects stop words and single-character tokens.
func isCandidate(token string, lex *Lexicon) bool {
	if utf8.RuneCountInString(token) <= 1 {
		return false
	}
	return !lex.IsStopWord(token)
}

func (tc termCounts) frequencies() map[string]float64 {
	freqs := make(map[string]float64, len(tc.counts))
	if tc.wordSum == 0 {
		return freqs
	}
	sum := float64(tc.wordSum)
	for term, count := range tc.counts {
		freqs[term] = float64(count) * tfDamping / sum
	}
	return freqs
}

// TermFrequencies filters tokens against lex and returns each surviving
// term's damped frequency, count*0.1/total. The map is empty when nothing
// survives.
func TermFrequencies(tokens iter.Seq[string], lex *Lexicon) map[string]float64 {
	return countTerms(tokens, lex).frequencies()
}
