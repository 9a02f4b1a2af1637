package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func TestProducerPublish(t *testing.T) {
	w := &memWriter{}
	p := NewProducerWithWriter(w, "jobs")

	require.NoError(t, p.Publish(context.Background(), Event{Key: "doc-1", Value: map[string]int{"top_n": 3}}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "doc-1", string(w.msgs[0].Key))
	assert.JSONEq(t, `{"top_n":3}`, string(w.msgs[0].Value))
}

func TestProducerPublishBatch(t *testing.T) {
	w := &memWriter{}
	p := NewProducerWithWriter(w, "jobs")

	require.NoError(t, p.PublishBatch(context.Background(), nil))
	assert.Empty(t, w.msgs)

	err := p.PublishBatch(context.Background(), []Event{{Key: "a", Value: 1}, {Key: "b", Value: make(chan int)}})
	assert.Error(t, err)
	assert.Empty(t, w.msgs, "nothing is written when an event cannot be encoded")

	w.err = errors.New("broker down")
	assert.ErrorIs(t, p.PublishBatch(context.Background(), []Event{{Key: "a", Value: 1}}), w.err)
}

type memReader struct {
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
	closed    bool
}

func (r *memReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *memReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *memReader) Close() error {
	r.closed = true
	return nil
}

func TestConsumerCommitsOnlyHandledMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &memReader{
		msgs:   []kafka.Message{{Offset: 1, Value: []byte("ok")}, {Offset: 2, Value: []byte("bad")}, {Offset: 3, Value: []byte("ok")}},
		cancel: cancel,
	}
	var handled []string
	c := NewConsumerWithReader(r, "jobs", func(_ context.Context, _ []byte, value []byte) error {
		handled = append(handled, string(value))
		if string(value) == "bad" {
			return errors.New("rejected")
		}
		return nil
	})

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, []string{"ok", "bad", "ok"}, handled)
	assert.Equal(t, []int64{1, 3}, r.committed)
	assert.True(t, r.closed)
}

func TestDecodeJSON(t *testing.T) {
	type job struct {
		ID string `json:"id"`
	}
	got, err := DecodeJSON[job]([]byte(`{"id":"j1"}`))
	require.NoError(t, err)
	assert.Equal(t, "j1", got.ID)

	_, err = DecodeJSON[job]([]byte(`{`))
	assert.Error(t, err)
}
