package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/kafka"
)

// Tracker accepts extraction events without blocking the caller.
type Tracker interface {
	Track(event ExtractionEvent)
}

// Collector buffers events in a channel and publishes them to Kafka from a
// single goroutine. Events that do not fit in the buffer are dropped.
type Collector struct {
	producer  kafka.Publisher
	eventCh   chan ExtractionEvent
	logger    *slog.Logger
	done      chan struct{}
	closeOnce sync.Once
}

func NewCollector(producer kafka.Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan ExtractionEvent, bufferSize),
		logger:   slog.Default().With("component", "analytics-collector"),
		done:     make(chan struct{}),
	}
}

// Start publishes buffered events until ctx is cancelled or Close is called.
// Whatever is still buffered at that point is published before returning.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

func (c *Collector) Track(event ExtractionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the publisher goroutine. Track
// must not be called after Close.
func (c *Collector) Close() {
	c.closeOnce.Do(func() { close(c.eventCh) })
	<-c.done
}

func (c *Collector) drainRemaining() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(ctx, event)
		default:
			return
		}
	}
}

func (c *Collector) publish(ctx context.Context, event ExtractionEvent) {
	if err := c.producer.Publish(ctx, kafka.Event{Key: event.Source, Value: event}); err != nil {
		c.logger.Error("failed to publish analytics event", "error", err)
	}
}
