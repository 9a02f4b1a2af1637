// Package collector batches events in memory and flushes them to Kafka in
// bulk. The worker uses it for the extraction results topic.
package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/kafka"
)

// BatchCollector flushes when the buffer reaches batchSize events or every
// flushInterval, whichever comes first. Failed batches are re-queued up to
// three batches' worth; anything beyond that is dropped.
type BatchCollector struct {
	producer      kafka.Publisher
	mu            sync.Mutex
	flushMu       sync.Mutex
	buffer        []kafka.Event
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
}

func NewBatchCollector(producer kafka.Publisher, batchSize int, flushInterval time.Duration) *BatchCollector {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &BatchCollector{
		producer:      producer,
		buffer:        make([]kafka.Event, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "batch-collector"),
		done:          make(chan struct{}),
	}
}

// Run flushes on a timer until ctx is cancelled, then flushes once more with
// a short deadline and returns.
func (bc *BatchCollector) Run(ctx context.Context) error {
	defer close(bc.done)
	bc.logger.Info("batch collector started",
		"batch_size", bc.batchSize,
		"flush_interval", bc.flushInterval,
	)
	ticker := time.NewTicker(bc.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			bc.Flush(ctx)
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			bc.Flush(flushCtx)
			cancel()
			return nil
		}
	}
}

// Track buffers an event, flushing in the background once the batch is full.
func (bc *BatchCollector) Track(key string, value any) {
	bc.mu.Lock()
	bc.buffer = append(bc.buffer, kafka.Event{Key: key, Value: value})
	full := len(bc.buffer) >= bc.batchSize
	bc.mu.Unlock()

	if full {
		go bc.Flush(context.Background())
	}
}

// Done is closed when Run returns.
func (bc *BatchCollector) Done() <-chan struct{} {
	return bc.done
}

func (bc *BatchCollector) BufferLen() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.buffer)
}

// Flush publishes everything buffered so far.
func (bc *BatchCollector) Flush(ctx context.Context) {
	bc.flushMu.Lock()
	defer bc.flushMu.Unlock()

	bc.mu.Lock()
	if len(bc.buffer) == 0 {
		bc.mu.Unlock()
		return
	}
	batch := bc.buffer
	bc.buffer = make([]kafka.Event, 0, bc.batchSize)
	bc.mu.Unlock()

	if err := bc.producer.PublishBatch(ctx, batch); err != nil {
		bc.logger.Error("batch flush failed", "batch_size", len(batch), "error", err)
		bc.mu.Lock()
		bc.buffer = append(batch, bc.buffer...)
		if limit := bc.batchSize * 3; len(bc.buffer) > limit {
			bc.logger.Warn("buffer overflow, events dropped", "dropped", len(bc.buffer)-limit)
			bc.buffer = bc.buffer[:limit]
		}
		bc.mu.Unlock()
		return
	}
	bc.logger.Debug("batch flushed", "events", len(batch))
}
