package segmenter

import (
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/blevesearch/segment"
)

// Unicode splits text on UAX#29 word boundaries and yields only word-like
// segments (letters, numbers, kana, ideographs). Ideographs come back one
// character per token, so it is a poor fit for Chinese.
type Unicode struct {
	lowercase bool
	log       *slog.Logger
}

// NewUnicode returns a Unicode segmenter. With lowercase set, every token is
// folded to lower case.
func NewUnicode(lowercase bool) *Unicode {
	return &Unicode{
		lowercase: lowercase,
		log:       slog.Default().With("component", "segmenter"),
	}
}

// Segment yields tokens lazily as the underlying scanner advances.
func (u *Unicode) Segment(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if text == "" {
			return
		}
		u.scan(strings.NewReader(text), yield)
	}
}

// scan feeds word segments from r to yield. A scanner error ends the
// sequence early and is logged, since iter.Seq has no error channel.
func (u *Unicode) scan(r io.Reader, yield func(string) bool) {
	s := segment.NewWordSegmenter(r)
	for s.Segment() {
		if s.Type() == segment.None {
			continue
		}
		token := s.Text()
		if u.lowercase {
			token = strings.ToLower(token)
		}
		if !yield(token) {
			return
		}
	}
	if err := s.Err(); err != nil {
		log := u.log
		if log == nil {
			log = slog.Default()
		}
		log.Warn("unicode segmentation stopped early", "error", err)
	}
}
