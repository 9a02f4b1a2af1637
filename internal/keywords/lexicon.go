package keywords

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

const maxLineBytes = 1024 * 1024

// Lexicon is an immutable snapshot of the stop-word set, the IDF table and
// the IDF median used as the fallback weight for unknown terms.
type Lexicon struct {
	stopWords map[string]struct{}
	idf       map[string]float64
	median    float64
	skipped   int
}

// LexiconStats summarises a loaded Lexicon.
type LexiconStats struct {
	StopWords    int     `json:"stop_words"`
	Terms        int     `json:"terms"`
	Median       float64 `json:"idf_median"`
	SkippedLines int     `json:"skipped_lines"`
}

// NewLexicon builds a Lexicon from in-memory values. The inputs are copied.
func NewLexicon(stopWords []string, idf map[string]float64) *Lexicon {
	lex := &Lexicon{
		stopWords: make(map[string]struct{}, len(stopWords)),
		idf:       maps.Clone(idf),
	}
	if lex.idf == nil {
		lex.idf = make(map[string]float64)
	}
	for _, w := range stopWords {
		if w = strings.TrimSpace(w); w != "" {
			lex.stopWords[w] = struct{}{}
		}
	}
	lex.median = idfMedian(lex.idf)
	return lex
}

// LoadLexicon reads a stop-word list and an IDF dictionary.
//
// Stop words are one per line. IDF entries are "<term> <weight>". Malformed
// IDF lines are logged and skipped. A read error stops that stream but the
// entries parsed so far are kept; the returned Lexicon is always usable and
// the error reports what went wrong. Either reader may be nil.
func LoadLexicon(stopWords, idf io.Reader) (*Lexicon, error) {
	logger := slog.Default().With("component", "lexicon")
	lex := &Lexicon{
		stopWords: make(map[string]struct{}),
		idf:       make(map[string]float64),
	}

	var errs []error
	if stopWords != nil {
		if err := readStopWords(stopWords, lex.stopWords); err != nil {
			errs = append(errs, fmt.Errorf("reading stop words: %w", err))
		}
	}
	if idf != nil {
		skipped, err := readIDF(idf, lex.idf, logger)
		lex.skipped = skipped
		if err != nil {
			errs = append(errs, fmt.Errorf("reading idf dictionary: %w", err))
		}
	}
	lex.median = idfMedian(lex.idf)

	logger.Info("lexicon loaded",
		"stop_words", len(lex.stopWords),
		"terms", len(lex.idf),
		"idf_median", lex.median,
		"skipped_lines", lex.skipped,
	)
	return lex, errors.Join(errs...)
}

// IDF returns the dictionary weight of term and whether it is present.
func (l *Lexicon) IDF(term string) (float64, bool) {
	v, ok := l.idf[term]
	return v, ok
}

// Weight returns the IDF of term, or the median when the term is unknown.
func (l *Lexicon) Weight(term string) float64 {
	if v, ok := l.idf[term]; ok {
		return v
	}
	return l.median
}

// IsStopWord reports whether term is excluded from scoring.
func (l *Lexicon) IsStopWord(term string) bool {
	_, ok := l.stopWords[term]
	return ok
}

// Median returns the fallback IDF weight.
func (l *Lexicon) Median() float64 {
	return l.median
}

// Stats returns the lexicon's size counters.
func (l *Lexicon) Stats() LexiconStats {
	return LexiconStats{
		StopWords:    len(l.stopWords),
		Terms:        len(l.idf),
		Median:       l.median,
		SkippedLines: l.skipped,
	}
}

func readStopWords(r io.Reader, set map[string]struct{}) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}
		set[word] = struct{}{}
	}
	return scanner.Err()
}

func readIDF(r io.Reader, table map[string]float64, logger *slog.Logger) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	skipped := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		term, weight, err := parseIDFLine(line)
		if err != nil {
			skipped++
			logger.Warn("skipping malformed idf line", "line", lineNo, "error", err)
			continue
		}
		table[term] = weight
	}
	return skipped, scanner.Err()
}

// parseIDFLine splits on the first space; the remainder must be a finite,
// non-negative float.
func parseIDFLine(line string) (string, float64, error) {
	term, raw, ok := strings.Cut(line, " ")
	if !ok || term == "" {
		return "", 0, fmt.Errorf("missing separator in %q", line)
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("parsing weight for %q: %w", term, err)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return "", 0, fmt.Errorf("non-finite weight %v for %q", weight, term)
	}
	if weight < 0 {
		return "", 0, fmt.Errorf("negative weight %v for %q", weight, term)
	}
	return term, weight, nil
}

// idfMedian returns the element at index len/2 of the ascending values. For
// even counts this is the upper-middle value, not the mean of the two middle
// values; existing score tables depend on it.
func idfMedian(table map[string]float64) float64 {
	if len(table) == 0 {
		return 0
	}
	values := slices.Sorted(maps.Values(table))
	return values[len(values)/2]
}
