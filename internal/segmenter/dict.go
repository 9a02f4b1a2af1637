package segmenter

import (
	"fmt"
	"iter"
	"log/slog"
	"unicode"

	"github.com/go-ego/gse"
)

// Dict is a dictionary-based segmenter for Chinese text. It runs gse with
// HMM enabled so out-of-dictionary words are still grouped, which matches
// jieba's default sentence segmentation.
type Dict struct {
	seg gse.Segmenter
}

// NewDict loads the gse dictionary at path, or the embedded simplified
// Chinese dictionary when path is empty.
func NewDict(path string) (*Dict, error) {
	d := &Dict{}
	var err error
	if path == "" {
		err = d.seg.LoadDictEmbed()
	} else {
		err = d.seg.LoadDict(path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading segmenter dictionary %q: %w", path, err)
	}
	slog.Default().With("component", "segmenter").Info("dictionary segmenter ready", "dict", dictName(path))
	return d, nil
}

// Segment cuts text into words. gse returns runs of whitespace and
// punctuation as tokens of their own; those are dropped here.
func (d *Dict) Segment(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if text == "" {
			return
		}
		for _, token := range d.seg.Cut(text, true) {
			if !isWord(token) {
				continue
			}
			if !yield(token) {
				return
			}
		}
	}
}

// isWord reports whether token holds at least one rune that is neither
// space, punctuation nor a symbol.
func isWord(token string) bool {
	for _, r := range token {
		if !unicode.IsSpace(r) && !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return true
		}
	}
	return false
}

func dictName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
