package keywords

// Score weights every term in freqs by its IDF, falling back to the lexicon
// median for unknown terms. The result is unordered.
func Score(freqs map[string]float64, lex *Lexicon) []Keyword {
	scored := make([]Keyword, 0, len(freqs))
	for term, tf := range freqs {
		scored = append(scored, Keyword{Term: term, Score: lex.Weight(term) * tf})
	}
	return scored
}
