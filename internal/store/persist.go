package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nirmalhandloom/storefront/internal/identity"
	"github.com/nirmalhandloom/storefront/internal/models"
	"github.com/nirmalhandloom/storefront/internal/storage"
)

const writeTimeout = 5 * time.Second

type flushWaiter struct {
	target uint64
	done   chan struct{}
}

// writeBehind saves the latest value per key on a single goroutine. Values
// queued for the same key before the writer gets to them are coalesced.
type writeBehind struct {
	kv  storage.KV
	log *slog.Logger

	mu      sync.Mutex
	pending map[string]string
	queued  uint64
	written uint64
	waiters []flushWaiter
	closed  bool

	wake chan struct{}
	done chan struct{}
}

func newWriteBehind(kv storage.KV, log *slog.Logger) *writeBehind {
	w := &writeBehind{
		kv:      kv,
		log:     log,
		pending: make(map[string]string),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *writeBehind) enqueue(key, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending[key] = value
	w.queued++
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writeBehind) run() {
	defer close(w.done)
	for range w.wake {
		w.drain()
	}
	w.drain()
}

func (w *writeBehind) drain() {
	w.mu.Lock()
	batch := w.pending
	upto := w.queued
	w.pending = make(map[string]string)
	w.mu.Unlock()

	for key, value := range batch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := w.kv.Set(ctx, key, value); err != nil {
			w.log.Warn("snapshot_write_failed", "key", key, "error", err)
		}
		cancel()
	}

	w.mu.Lock()
	if upto > w.written {
		w.written = upto
	}
	kept := w.waiters[:0]
	for _, wt := range w.waiters {
		if wt.target <= w.written {
			close(wt.done)
			continue
		}
		kept = append(kept, wt)
	}
	w.waiters = kept
	w.mu.Unlock()
}

func (w *writeBehind) flush(ctx context.Context) error {
	w.mu.Lock()
	if w.written >= w.queued || w.closed {
		w.mu.Unlock()
		return nil
	}
	wt := flushWaiter{target: w.queued, done: make(chan struct{})}
	w.waiters = append(w.waiters, wt)
	select {
	case w.wake <- struct{}{}:
	default:
	}
	w.mu.Unlock()

	select {
	case <-wt.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *writeBehind) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.wake)
	w.mu.Unlock()
	<-w.done
}

// storedLine decodes both our own snapshots and older ones that carried the
// raw product fields, so identity is resolved the same way as on insert.
type storedLine struct {
	models.Product
	Quantity int `json:"quantity"`
}

func readKey(ctx context.Context, kv storage.KV, key string, log *slog.Logger) (string, bool) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("snapshot_read_failed", "key", key, "error", err)
		}
		return "", false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return "", false
	}
	return raw, true
}

func loadCart(ctx context.Context, kv storage.KV, log *slog.Logger) []models.LineItem {
	raw, ok := readKey(ctx, kv, storage.KeyCart, log)
	if !ok {
		return nil
	}
	var stored []storedLine
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.Warn("snapshot_corrupt", "key", storage.KeyCart, "error", err)
		return nil
	}

	var items []models.LineItem
	index := make(map[identity.ID]int, len(stored))
	for _, sl := range stored {
		id := identity.Of(sl.Product)
		if id.Empty() {
			continue
		}
		q := sl.Quantity
		if q < 1 {
			q = 1
		}
		if i, dup := index[id]; dup {
			items[i].Quantity += q
			continue
		}
		index[id] = len(items)
		items = append(items, models.LineItem{ID: id, Snapshot: models.SnapshotOf(sl.Product), Quantity: q})
	}
	return items
}

func loadWishlist(ctx context.Context, kv storage.KV, log *slog.Logger) []models.WishlistEntry {
	raw, ok := readKey(ctx, kv, storage.KeyWishlist, log)
	if !ok {
		return nil
	}
	var stored []models.Product
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.Warn("snapshot_corrupt", "key", storage.KeyWishlist, "error", err)
		return nil
	}

	var entries []models.WishlistEntry
	seen := make(map[identity.ID]struct{}, len(stored))
	for _, p := range stored {
		id := identity.Of(p)
		if id.Empty() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		entries = append(entries, models.WishlistEntry{ID: id, Snapshot: models.SnapshotOf(p)})
	}
	return entries
}
