package analytics

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/kafka"
)

// latencyWindow bounds how many recent latencies feed the percentiles.
const latencyWindow = 10000

// AggregatedStats summarises every event the Aggregator has seen.
type AggregatedStats struct {
	TotalExtractions     int64       `json:"total_extractions"`
	APIExtractions       int64       `json:"api_extractions"`
	JobExtractions       int64       `json:"job_extractions"`
	FailedJobs           int64       `json:"failed_jobs"`
	CacheHits            int64       `json:"cache_hits"`
	CacheMisses          int64       `json:"cache_misses"`
	EmptyResults         int64       `json:"empty_results"`
	AvgKeywords          float64     `json:"avg_keywords"`
	OutOfVocabularyRate  float64     `json:"out_of_vocabulary_rate"`
	AvgLatencyUs         float64     `json:"avg_latency_us"`
	P50LatencyUs         int64       `json:"p50_latency_us"`
	P95LatencyUs         int64       `json:"p95_latency_us"`
	P99LatencyUs         int64       `json:"p99_latency_us"`
	TopKeywords          []TermCount `json:"top_keywords"`
	ExtractionsPerMinute float64     `json:"extractions_per_minute"`
}

// TermCount is how often a keyword was returned.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Aggregator folds extraction events into running statistics. It is safe
// for concurrent use.
type Aggregator struct {
	mu         sync.RWMutex
	stats      AggregatedStats
	returned   int64
	candidates int64
	oov        int64
	latencies  []int64
	next       int
	termCounts map[string]int64
	startTime  time.Time
	now        func() time.Time

	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewAggregator returns an Aggregator. consumer may be nil when events are
// fed through Record only.
func NewAggregator(consumer *kafka.Consumer) *Aggregator {
	return &Aggregator{
		latencies:  make([]int64, 0, 1024),
		termCounts: make(map[string]int64),
		startTime:  time.Now(),
		now:        time.Now,
		consumer:   consumer,
		logger:     slog.Default().With("component", "analytics-aggregator"),
	}
}

// NewKafkaAggregator returns an Aggregator fed by the events on topic.
func NewKafkaAggregator(cfg config.KafkaConfig, topic string) *Aggregator {
	a := NewAggregator(nil)
	a.consumer = kafka.NewConsumer(cfg, topic, HandleEvent(a))
	return a
}

// Start consumes events until ctx is cancelled. Without a consumer it just
// waits for ctx.
func (a *Aggregator) Start(ctx context.Context) error {
	a.logger.Info("analytics aggregator starting", "kafka", a.consumer != nil)
	if a.consumer == nil {
		<-ctx.Done()
		return nil
	}
	return a.consumer.Start(ctx)
}

// HandleEvent decodes Kafka messages into Record calls. Undecodable
// messages are logged and acknowledged.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ExtractionEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "key", string(key), "error", err)
			return nil
		}
		agg.Record(event)
		return nil
	}
}

// Track makes the Aggregator usable as an in-process Tracker.
func (a *Aggregator) Track(event ExtractionEvent) {
	a.Record(event)
}

func (a *Aggregator) Record(event ExtractionEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if event.Type == EventJobFailed {
		a.stats.FailedJobs++
		return
	}

	a.stats.TotalExtractions++
	switch event.Source {
	case SourceJob:
		a.stats.JobExtractions++
	default:
		a.stats.APIExtractions++
		if event.CacheHit {
			a.stats.CacheHits++
		} else {
			a.stats.CacheMisses++
		}
	}
	if event.Returned == 0 {
		a.stats.EmptyResults++
	}
	a.returned += int64(event.Returned)
	if !event.CacheHit {
		a.candidates += int64(event.Candidates)
		a.oov += int64(event.OutOfVocabulary)
	}
	for _, term := range event.Keywords {
		a.termCounts[term]++
	}

	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, event.LatencyUs)
	} else {
		a.latencies[a.next] = event.LatencyUs
		a.next = (a.next + 1) % latencyWindow
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := a.stats
	if stats.TotalExtractions > 0 {
		stats.AvgKeywords = float64(a.returned) / float64(stats.TotalExtractions)
	}
	if a.candidates > 0 {
		stats.OutOfVocabularyRate = float64(a.oov) / float64(a.candidates)
	}
	if len(a.latencies) > 0 {
		sorted := slices.Sorted(slices.Values(a.latencies))
		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyUs = float64(sum) / float64(len(sorted))
		stats.P50LatencyUs = percentile(sorted, 50)
		stats.P95LatencyUs = percentile(sorted, 95)
		stats.P99LatencyUs = percentile(sorted, 99)
	}
	stats.TopKeywords = topTerms(a.termCounts, 10)
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.ExtractionsPerMinute = float64(stats.TotalExtractions) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topTerms returns the n most frequent terms, ties broken by term.
func topTerms(counts map[string]int64, n int) []TermCount {
	result := make([]TermCount, 0, len(counts))
	for _, term := range slices.Sorted(maps.Keys(counts)) {
		result = append(result, TermCount{Term: term, Count: counts[term]})
	}
	slices.SortStableFunc(result, func(a, b TermCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
