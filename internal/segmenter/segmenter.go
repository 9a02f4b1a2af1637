// Package segmenter splits raw text into the ordered word tokens scored by the
// keyword analyzer. Two implementations are provided: a dictionary-driven
// Chinese segmenter (gse, jieba-compatible) and a UAX#29 Unicode word
// segmenter for space-delimited languages.
package segmenter

import (
	"fmt"
	"iter"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/config"
)

// Segmenter turns text into an ordered sequence of tokens. Implementations
// must be safe for concurrent use.
type Segmenter interface {
	Segment(text string) iter.Seq[string]
}

// Func adapts a plain function to the Segmenter interface.
type Func func(text string) []string

// Segment calls f and yields its tokens in order.
func (f Func) Segment(text string) iter.Seq[string] {
	return slices.Values(f(text))
}

// Modes accepted by New.
const (
	ModeDict    = "dict"
	ModeUnicode = "unicode"
)

// New builds the segmenter selected by cfg.Mode.
func New(cfg config.SegmenterConfig) (Segmenter, error) {
	switch cfg.Mode {
	case ModeDict, "":
		return NewDict(cfg.DictPath)
	case ModeUnicode:
		return NewUnicode(cfg.Lowercase), nil
	default:
		return nil, fmt.Errorf("unknown segmenter mode %q", cfg.Mode)
	}
}
