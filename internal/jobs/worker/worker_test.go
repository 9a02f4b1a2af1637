package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/jobs"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/segmenter"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/metrics"
)

type fakeStore struct {
	saved   []jobs.JobResult
	failed  map[string]string
	saveErr error
}

func (f *fakeStore) SaveResult(_ context.Context, r jobs.JobResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, jobID, reason string) error {
	if f.failed == nil {
		f.failed = map[string]string{}
	}
	f.failed[jobID] = reason
	return nil
}

type sink struct {
	keys   []string
	values []any
}

func (s *sink) Track(key string, value any) {
	s.keys = append(s.keys, key)
	s.values = append(s.values, value)
}

type failingExtractor struct{ err error }

func (f failingExtractor) Detail(context.Context, string, int) (keywords.Result, error) {
	return keywords.Result{}, f.err
}

func analyzer() *keywords.Analyzer {
	lex := keywords.NewLexicon([]string{"的"}, map[string]float64{"曹操": 9.3, "三国": 5.0})
	return keywords.New(segmenter.Func(strings.Fields), nil, keywords.WithLexicon(lex))
}

func encode(t *testing.T, job jobs.ExtractionJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestHandleMessageCompletesJob(t *testing.T) {
	store, results := &fakeStore{}, &sink{}
	agg := analytics.NewAggregator(nil)
	m := metrics.New(prometheus.NewRegistry())
	handle := HandleMessage(analyzer(), store, results, WithEvents(agg), WithMetrics(m))

	job := jobs.ExtractionJob{JobID: "j1", DocumentID: "doc-1", Content: "曹操 的 三国 曹操", TopN: 1, EnqueuedAt: time.Now().UTC()}
	require.NoError(t, handle(context.Background(), []byte("doc-1"), encode(t, job)))

	require.Len(t, store.saved, 1)
	got := store.saved[0]
	assert.Equal(t, jobs.StatusCompleted, got.Status)
	require.Len(t, got.Keywords, 1)
	assert.Equal(t, "曹操", got.Keywords[0].Term)
	assert.NotNil(t, got.CompletedAt)

	assert.Equal(t, []string{"doc-1"}, results.keys)
	assert.Equal(t, int64(1), agg.Stats().JobExtractions)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsProcessedTotal.WithLabelValues("COMPLETED")))
}

func TestHandleMessageAcksUndecodable(t *testing.T) {
	store, results := &fakeStore{}, &sink{}
	handle := HandleMessage(analyzer(), store, results)

	assert.NoError(t, handle(context.Background(), nil, []byte("{not json")))
	assert.Empty(t, store.saved)
	assert.Empty(t, results.keys)
}

func TestHandleMessageMarksFailure(t *testing.T) {
	store, results := &fakeStore{}, &sink{}
	agg := analytics.NewAggregator(nil)
	boom := errors.New("lexicon unavailable")
	handle := HandleMessage(failingExtractor{err: boom}, store, results, WithEvents(agg))

	job := jobs.ExtractionJob{JobID: "j2", Content: "x", TopN: 3}
	require.NoError(t, handle(context.Background(), nil, encode(t, job)))

	assert.Equal(t, map[string]string{"j2": boom.Error()}, store.failed)
	require.Len(t, results.values, 1)
	assert.Equal(t, jobs.StatusFailed, results.values[0].(jobs.JobResult).Status)
	assert.Equal(t, "j2", results.keys[0], "job id keys results without a document")
	assert.Equal(t, int64(1), agg.Stats().FailedJobs)
}

func TestHandleMessageReturnsStoreErrors(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("db down")}
	results := &sink{}
	handle := HandleMessage(analyzer(), store, results)

	err := handle(context.Background(), nil, encode(t, jobs.ExtractionJob{JobID: "j3", Content: "曹操", TopN: 2}))
	assert.ErrorIs(t, err, store.saveErr)
	assert.Empty(t, results.keys, "nothing is published for an unsaved result")
}
