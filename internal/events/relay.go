package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nirmalhandloom/storefront/internal/store"
)

type Event struct {
	Topic string
	Key   string
	Type  string
	Body  any
}

type publisher interface {
	PublishEvent(ctx context.Context, topic, key, eventType string, event any) error
	Close() error
}

// Relay hands events to the producer on a background goroutine so that
// store listeners and checkout callbacks never wait on the broker. When the
// buffer is full new events are dropped and logged.
type Relay struct {
	pub   publisher
	queue chan Event
	log   *slog.Logger
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewRelay starts the relay. A nil producer gives a relay that discards
// everything.
func NewRelay(p *Producer, buffer int, log *slog.Logger) *Relay {
	if p == nil {
		return newRelay(nil, buffer, log)
	}
	return newRelay(p, buffer, log)
}

func newRelay(p publisher, buffer int, log *slog.Logger) *Relay {
	if buffer <= 0 {
		buffer = 256
	}
	r := &Relay{
		pub:   p,
		queue: make(chan Event, buffer),
		log:   log.With("component", "events"),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Relay) run() {
	defer close(r.done)
	for ev := range r.queue {
		if r.pub == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.pub.PublishEvent(ctx, ev.Topic, ev.Key, ev.Type, ev.Body); err != nil {
			r.log.Warn("event_publish_failed", "topic", ev.Topic, "type", ev.Type, "error", err)
		}
		cancel()
	}
}

// Publish queues one event without blocking.
func (r *Relay) Publish(topic, key, eventType string, body any) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.log.Warn("event_dropped", "topic", topic, "type", eventType, "reason", "closed")
		return
	}
	select {
	case r.queue <- Event{Topic: topic, Key: key, Type: eventType, Body: body}:
	default:
		r.log.Warn("event_dropped", "topic", topic, "type", eventType, "reason", "buffer full")
	}
}

// StoreListener forwards every store change to the cart topic.
func (r *Relay) StoreListener(key string) store.Listener {
	return func(c store.Change) {
		r.Publish(TopicCart, key, string(c.Kind), c)
	}
}

// Close drains queued events and closes the producer.
func (r *Relay) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if r.pub == nil {
		return nil
	}
	return r.pub.Close()
}
