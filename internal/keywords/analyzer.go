package keywords

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/segmenter"
	apperrors "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/errors"
)

// LexiconLoader produces the Lexicon an Analyzer scores against. It may
// return a partial Lexicon together with an error; a nil Lexicon means
// nothing usable was loaded.
type LexiconLoader func(ctx context.Context) (*Lexicon, error)

// Result is an extraction plus the counts behind it.
type Result struct {
	Keywords        []Keyword `json:"keywords"`
	Tokens          int       `json:"tokens"`
	Candidates      int       `json:"candidates"`
	OutOfVocabulary int       `json:"out_of_vocabulary"`
}

// Analyzer extracts keywords from short texts. The zero value is not
// usable; construct one with New.
type Analyzer struct {
	seg     segmenter.Segmenter
	load    LexiconLoader
	once    sync.Once
	lexicon atomic.Pointer[Lexicon]
	loadErr error
	logger  *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the analyzer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithLexicon installs lex up front; the loader is never called.
func WithLexicon(lex *Lexicon) Option {
	return func(a *Analyzer) {
		a.lexicon.Store(lex)
		a.once.Do(func() {})
	}
}

// New returns an Analyzer that segments with seg and loads its Lexicon on
// first use through load.
func New(seg segmenter.Segmenter, load LexiconLoader, opts ...Option) *Analyzer {
	a := &Analyzer{
		seg:    seg,
		load:   load,
		logger: slog.Default().With("component", "keyword-analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ensureLoaded runs the loader exactly once. The Lexicon it yields, partial
// or not, is the one every later call sees.
func (a *Analyzer) ensureLoaded(ctx context.Context) (*Lexicon, error) {
	a.once.Do(func() {
		lex, err := a.load(context.WithoutCancel(ctx))
		if err != nil {
			a.loadErr = fmt.Errorf("%w: %w", apperrors.ErrLexiconUnavailable, err)
			if lex != nil {
				a.logger.Warn("lexicon loaded with errors", "error", err, "terms", lex.Stats().Terms)
			} else {
				a.logger.Error("lexicon load failed", "error", err)
			}
		}
		if lex != nil {
			a.lexicon.Store(lex)
		}
	})
	lex := a.lexicon.Load()
	if lex == nil {
		if a.loadErr != nil {
			return nil, a.loadErr
		}
		return nil, apperrors.ErrLexiconUnavailable
	}
	return lex, nil
}

// Warm loads the Lexicon now instead of on the first extraction. It reports
// any load error, including one that still left a partial Lexicon in place.
func (a *Analyzer) Warm(ctx context.Context) error {
	if _, err := a.ensureLoaded(ctx); err != nil {
		return err
	}
	return a.loadErr
}

// Lexicon returns the loaded snapshot, or nil before the first load.
func (a *Analyzer) Lexicon() *Lexicon {
	return a.lexicon.Load()
}

// Analyze returns up to topN keywords of content, best first. Empty content
// and topN <= 0 give an empty slice. If the Lexicon cannot be loaded the
// failure is logged and the result is empty.
func (a *Analyzer) Analyze(content string, topN int) []Keyword {
	kws, err := a.AnalyzeContext(context.Background(), content, topN)
	if err != nil {
		a.logger.Error("keyword analysis failed", "error", err)
		return []Keyword{}
	}
	return kws
}

// AnalyzeContext is Analyze with the load error and cancellation surfaced.
func (a *Analyzer) AnalyzeContext(ctx context.Context, content string, topN int) ([]Keyword, error) {
	res, err := a.Detail(ctx, content, topN)
	if err != nil {
		return []Keyword{}, err
	}
	return res.Keywords, nil
}

// Detail runs the pipeline and also reports token, candidate and
// out-of-vocabulary counts.
func (a *Analyzer) Detail(ctx context.Context, content string, topN int) (Result, error) {
	if topN < 0 {
		topN = 0
	}
	lex, err := a.ensureLoaded(ctx)
	if err != nil {
		return Result{Keywords: []Keyword{}}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{Keywords: []Keyword{}}, err
	}

	tc := a.countContent(content, lex)
	res := Result{
		Keywords:   TopN(Score(tc.frequencies(), lex), topN),
		Tokens:     tc.tokens,
		Candidates: len(tc.counts),
	}
	for term := range tc.counts {
		if _, ok := lex.IDF(term); !ok {
			res.OutOfVocabulary++
		}
	}
	return res, nil
}

func (a *Analyzer) countContent(content string, lex *Lexicon) termCounts {
	if content == "" {
		return termCounts{counts: map[string]int{}}
	}
	return countTerms(a.seg.Segment(content), lex)
}
