package keywords

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/resource"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/segmenter"
	apperrors "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/errors"
)

// fields segments on whitespace so fixtures control the token stream exactly.
var fields = segmenter.Func(strings.Fields)

type countingSegmenter struct {
	calls atomic.Int64
}

func (c *countingSegmenter) Segment(text string) iter.Seq[string] {
	c.calls.Add(1)
	return slices.Values(strings.Fields(text))
}

func fixtureLexicon() *Lexicon {
	return NewLexicon(
		[]string{"的", "the", "and"},
		map[string]float64{"甲乙": 1.0, "丙丁": 1.5, "曹操": 2.0},
	)
}

func staticLoader(lex *Lexicon) LexiconLoader {
	return func(context.Context) (*Lexicon, error) { return lex, nil }
}

func scores(kws []Keyword) map[string]float64 {
	m := make(map[string]float64, len(kws))
	for _, kw := range kws {
		m[kw.Term] = kw.Score
	}
	return m
}

func TestScoreFormula(t *testing.T) {
	lex := fixtureLexicon()
	require.Equal(t, 1.5, lex.Median())

	a := New(fields, staticLoader(lex))
	got := scores(a.Analyze("曹操 曹操 的诗", 10))

	require.Len(t, got, 2)
	assert.InDelta(t, 2.0*(2*0.1/3), got["曹操"], 1e-12)
	assert.InDelta(t, 1.5*(1*0.1/3), got["的诗"], 1e-12)
}

func TestTermFrequencies(t *testing.T) {
	lex := fixtureLexicon()

	freqs := TermFrequencies(slices.Values([]string{"曹操", "的", "a", "曹操", "the", "三国", "。"}), lex)
	assert.Len(t, freqs, 2)
	assert.InDelta(t, 2*0.1/3, freqs["曹操"], 1e-12)
	assert.InDelta(t, 1*0.1/3, freqs["三国"], 1e-12)

	assert.Empty(t, TermFrequencies(slices.Values([]string{"的", "a", "the"}), lex))
	assert.Empty(t, TermFrequencies(nil, lex))
}

func TestScoreEmitsOneKeywordPerTerm(t *testing.T) {
	lex := fixtureLexicon()
	got := Score(map[string]float64{"曹操": 0.1, "未知": 0.2}, lex)
	assert.ElementsMatch(t, []Keyword{
		{Term: "曹操", Score: 2.0 * 0.1},
		{Term: "未知", Score: 1.5 * 0.2},
	}, got)
}

func TestTopN(t *testing.T) {
	in := []Keyword{
		{Term: "b", Score: 1},
		{Term: "c", Score: 3},
		{Term: "a", Score: 1},
		{Term: "d", Score: 2},
	}
	original := slices.Clone(in)

	assert.Equal(t, []Keyword{{"c", 3}, {"d", 2}, {"a", 1}, {"b", 1}}, TopN(in, 10))
	assert.Equal(t, []Keyword{{"c", 3}, {"d", 2}, {"a", 1}}, TopN(in, 3))
	assert.Equal(t, original, in, "input must not be reordered")

	for _, n := range []int{0, -1, -100} {
		got := TopN(in, n)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
	assert.Empty(t, TopN(nil, 3))
}

func TestAnalyzeEdgeCases(t *testing.T) {
	seg := &countingSegmenter{}
	a := New(seg, staticLoader(fixtureLexicon()))

	got := a.Analyze("", 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, seg.calls.Load(), "empty content must not reach the segmenter")

	assert.Empty(t, a.Analyze("曹操 三国演义", 0))
	assert.Empty(t, a.Analyze("曹操 三国演义", -5))
	assert.Empty(t, a.Analyze("的 the a 。", 5))
}

func TestAnalyzeFiltersStopWordsAndSingleCharacters(t *testing.T) {
	lex := NewLexicon([]string{"高频"}, map[string]float64{"高频": 100, "x": 100, "诗": 100, "曹操": 1})
	a := New(fields, staticLoader(lex))

	got := a.Analyze(strings.Repeat("高频 x 诗 ", 50)+"曹操", 10)
	assert.Equal(t, []string{"曹操"}, terms(got))
}

func TestAnalyzeLengthInvariant(t *testing.T) {
	a := New(fields, staticLoader(fixtureLexicon()))
	content := "曹操 曹操 三国演义 人民文学 的 a 英语 六年级 英语"
	const distinct = 5

	for n := 0; n <= distinct+3; n++ {
		assert.Len(t, a.Analyze(content, n), min(n, distinct), "topN=%d", n)
	}
}

func TestAnalyzeIsDeterministicAndPrefixStable(t *testing.T) {
	a := New(fields, staticLoader(fixtureLexicon()))
	// every unknown term occurs once, so all of them tie on score
	content := "英语 六年级 下册 大气 环境 雪国 法律 适用 书籍 曹操"

	full := a.Analyze(content, 20)
	for i := 0; i < 20; i++ {
		require.Equal(t, full, a.Analyze(content, 20))
	}
	for k := 0; k <= len(full); k++ {
		assert.Equal(t, full[:k], a.Analyze(content, k))
	}

	assert.Equal(t, "曹操", full[0].Term)
	rest := terms(full[1:])
	assert.True(t, slices.IsSorted(rest), "ties must be broken by term: %v", rest)
}

func TestAnalyzeLoadsLexiconOnceUnderConcurrency(t *testing.T) {
	var loads atomic.Int64
	release := make(chan struct{})
	loader := func(context.Context) (*Lexicon, error) {
		loads.Add(1)
		<-release
		return fixtureLexicon(), nil
	}
	a := New(fields, loader)

	const callers = 32
	results := make([][]Keyword, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.Analyze("曹操 曹操 的诗 三国", 5)
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), loads.Load())
	for i := 1; i < callers; i++ {
		assert.Equal(t, results[0], results[i])
	}
	assert.Len(t, results[0], 3)
}

func TestAnalyzeWithFailedLoader(t *testing.T) {
	var loads atomic.Int64
	boom := errors.New("bucket missing")
	a := New(fields, func(context.Context) (*Lexicon, error) {
		loads.Add(1)
		return nil, boom
	})

	assert.Empty(t, a.Analyze("曹操 三国", 5))
	_, err := a.AnalyzeContext(context.Background(), "曹操 三国", 5)
	assert.ErrorIs(t, err, apperrors.ErrLexiconUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, a.Warm(context.Background()), boom)
	assert.Equal(t, int64(1), loads.Load(), "a failed load is not retried")
	assert.Nil(t, a.Lexicon())
}

func TestAnalyzeWithPartialLexicon(t *testing.T) {
	boom := errors.New("truncated")
	a := New(fields, func(context.Context) (*Lexicon, error) {
		return fixtureLexicon(), boom
	})

	assert.ErrorIs(t, a.Warm(context.Background()), boom)
	kws, err := a.AnalyzeContext(context.Background(), "曹操 三国", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"曹操", "三国"}, terms(kws))
}

func TestWithLexiconSkipsLoader(t *testing.T) {
	a := New(fields, func(context.Context) (*Lexicon, error) {
		t.Fatal("loader must not run")
		return nil, nil
	}, WithLexicon(fixtureLexicon()))

	require.NoError(t, a.Warm(context.Background()))
	assert.Len(t, a.Analyze("曹操 三国", 5), 2)
}

func TestAnalyzeContextCancelled(t *testing.T) {
	a := New(fields, staticLoader(fixtureLexicon()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	kws, err := a.AnalyzeContext(ctx, "曹操 三国", 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, kws)
	assert.NotNil(t, a.Lexicon(), "the lexicon still loads under a cancelled context")
}

func TestDetailCounts(t *testing.T) {
	a := New(fields, staticLoader(fixtureLexicon()))
	res, err := a.Detail(context.Background(), "曹操 曹操 的 三国 甲乙 x", 1)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Tokens)
	assert.Equal(t, 3, res.Candidates)
	assert.Equal(t, 1, res.OutOfVocabulary)
	assert.Equal(t, []string{"曹操"}, terms(res.Keywords))
}

func TestStoreLoader(t *testing.T) {
	store := resource.NewFS(fstest.MapFS{
		"stop.txt": {Data: []byte("的\n")},
		"idf.txt":  {Data: []byte("曹操 9.3\n英语 6.2\n")},
	}, "test")

	lex, err := StoreLoader(store, "stop.txt", "idf.txt")(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LexiconStats{StopWords: 1, Terms: 2, Median: 9.3}, lex.Stats())

	lex, err = StoreLoader(store, "missing.txt", "idf.txt")(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, lex.Stats().StopWords)

	lex, err = StoreLoader(store, "stop.txt", "missing.txt")(context.Background())
	assert.ErrorIs(t, err, resource.ErrNotFound)
	assert.Nil(t, lex)
}

func TestEmbeddedLoader(t *testing.T) {
	lex, err := EmbeddedLoader()(context.Background())
	require.NoError(t, err)
	stats := lex.Stats()
	assert.Positive(t, stats.Terms)
	assert.Positive(t, stats.StopWords)
	assert.Zero(t, stats.SkippedLines)
	assert.True(t, lex.IsStopWord("的"))
}

func TestDefaultAnalyzer(t *testing.T) {
	for _, title := range []string{"三国演义 人民文学", "曹操的诗", "汪汪队立大功中英双语有声故事书(10册)"} {
		got := Analyze(title, 5)
		assert.LessOrEqual(t, len(got), 5, title)
		for _, kw := range got {
			assert.Greater(t, len([]rune(kw.Term)), 1, title)
			assert.False(t, Default().Lexicon().IsStopWord(kw.Term), title)
			assert.Positive(t, kw.Score, title)
		}
	}
}

func terms(kws []Keyword) []string {
	out := make([]string, len(kws))
	for i, kw := range kws {
		out[i] = kw.Term
	}
	return out
}

func BenchmarkAnalyze(b *testing.B) {
	a := New(fields, staticLoader(fixtureLexicon()))
	content := strings.Repeat("曹操 三国演义 人民文学 的 英语 六年级 ", 8)
	b.ReportAllocs()
	b.SetBytes(int64(len(content)))
	for b.Loop() {
		_ = a.Analyze(content, 5)
	}
}

func BenchmarkAnalyzeParallel(b *testing.B) {
	a := New(fields, staticLoader(fixtureLexicon()))
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = a.Analyze(fmt.Sprintf("曹操 三国演义 词%d", i%64), 5)
			i++
		}
	})
}
