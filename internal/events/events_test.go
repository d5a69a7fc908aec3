package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirmalhandloom/storefront/internal/identity"
	"github.com/nirmalhandloom/storefront/internal/store"
)

type captureWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *captureWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *captureWriter) messages() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProducer_PublishEvent(t *testing.T) {
	t.Parallel()

	w := &captureWriter{}
	p := &Producer{writer: w}

	require.NoError(t, p.PublishEvent(context.Background(), TopicCheckout, "sess-1", "payment_succeeded", map[string]string{"payment_id": "pay_1"}))

	msgs := w.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, TopicCheckout, msgs[0].Topic)
	assert.Equal(t, "sess-1", string(msgs[0].Key))
	assert.Equal(t, "event_type", msgs[0].Headers[0].Key)
	assert.Equal(t, "payment_succeeded", string(msgs[0].Headers[0].Value))
	assert.JSONEq(t, `{"payment_id":"pay_1"}`, string(msgs[0].Value))
}

func TestProducer_WriteError(t *testing.T) {
	t.Parallel()

	p := &Producer{writer: &captureWriter{err: errors.New("broker down")}}
	err := p.PublishEvent(context.Background(), TopicCart, "k", "t", struct{}{})
	assert.ErrorContains(t, err, "broker down")
}

func TestRelay_ForwardsStoreChangesInOrder(t *testing.T) {
	t.Parallel()

	w := &captureWriter{}
	r := newRelay(&Producer{writer: w}, 16, discard())

	l := r.StoreListener("device")
	l(store.Change{Kind: store.CartItemAdded, IDs: []identity.ID{"a"}, CartCount: 1})
	l(store.Change{Kind: store.CartItemRemoved, IDs: []identity.ID{"a"}})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))

	msgs := w.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, string(store.CartItemAdded), string(msgs[0].Headers[0].Value))
	assert.Equal(t, string(store.CartItemRemoved), string(msgs[1].Headers[0].Value))

	var c store.Change
	require.NoError(t, json.Unmarshal(msgs[0].Value, &c))
	assert.Equal(t, 1, c.CartCount)
	assert.True(t, w.closed)
}

func TestRelay_NilProducerDiscards(t *testing.T) {
	t.Parallel()

	r := NewRelay(nil, 1, discard())
	r.Publish(TopicCart, "k", "t", nil)
	r.Publish(TopicCart, "k", "t", nil)
	require.NoError(t, r.Close(context.Background()))

	r.Publish(TopicCart, "k", "after_close", nil)
}
