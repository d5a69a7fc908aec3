// Package store holds the shopper's cart and wishlist.
//
// In-memory state is authoritative. Every mutation is visible to the caller
// and to subscribers as soon as it returns, and is then queued for a
// write-behind save to durable storage. Storage failures are logged and never
// reach callers.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nirmalhandloom/storefront/internal/identity"
	"github.com/nirmalhandloom/storefront/internal/models"
	"github.com/nirmalhandloom/storefront/internal/pricing"
	"github.com/nirmalhandloom/storefront/internal/storage"
)

type ChangeKind string

const (
	CartItemAdded       ChangeKind = "cart_item_added"
	CartQuantityChanged ChangeKind = "cart_quantity_changed"
	CartItemRemoved     ChangeKind = "cart_item_removed"
	CartItemsSettled    ChangeKind = "cart_items_settled"
	WishlistAdded       ChangeKind = "wishlist_item_added"
	WishlistRemoved     ChangeKind = "wishlist_item_removed"
)

// Change describes one mutation. IDs lists every identity it touched.
type Change struct {
	Kind          ChangeKind    `json:"type"`
	IDs           []identity.ID `json:"ids"`
	Quantity      int           `json:"quantity,omitempty"`
	CartCount     int           `json:"cart_count"`
	WishlistCount int           `json:"wishlist_count"`
}

// Listener is called synchronously after each mutation, in mutation order.
// It may read the store but must not mutate it.
type Listener func(Change)

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

type Store struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	cart     []models.LineItem
	wishlist []models.WishlistEntry

	listeners map[int]Listener
	nextSub   int

	writer *writeBehind
	log    *slog.Logger
}

// New rehydrates both collections from kv and starts the background writer.
func New(ctx context.Context, kv storage.KV, opts ...Option) *Store {
	s := &Store{
		listeners: make(map[int]Listener),
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("component", "store")

	s.cart = loadCart(ctx, kv, s.log)
	s.wishlist = loadWishlist(ctx, kv, s.log)
	if s.cart == nil {
		s.cart = []models.LineItem{}
	}
	if s.wishlist == nil {
		s.wishlist = []models.WishlistEntry{}
	}
	s.writer = newWriteBehind(kv, s.log)
	return s
}

func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// begin locks the store for a mutation. notifyMu is always taken before mu;
// listeners run holding notifyMu alone, so they can read the store.
func (s *Store) begin() {
	s.notifyMu.Lock()
	s.mu.Lock()
}

// abort ends a mutation that changed nothing.
func (s *Store) abort() {
	s.mu.Unlock()
	s.notifyMu.Unlock()
}

// commit ends a mutation started with begin. It queues persistence for the
// touched collection, releases mu and notifies listeners before releasing
// notifyMu.
func (s *Store) commit(c Change, cartDirty, wishlistDirty bool) {
	if cartDirty {
		s.enqueue(storage.KeyCart, s.cart)
	}
	if wishlistDirty {
		s.enqueue(storage.KeyWishlist, s.wishlist)
	}
	c.CartCount = countOf(s.cart)
	c.WishlistCount = len(s.wishlist)

	listeners := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextSub; i++ {
		if l, ok := s.listeners[i]; ok {
			listeners = append(listeners, l)
		}
	}

	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, l := range listeners {
		s.safeNotify(l, c)
	}
}

func (s *Store) safeNotify(l Listener, c Change) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("listener_panic", "change", c.Kind, "panic", r)
		}
	}()
	l(c)
}

func (s *Store) enqueue(key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("snapshot_encode_failed", "key", key, "error", err)
		return
	}
	s.writer.enqueue(key, string(b))
}

// Flush waits until every mutation made before the call has been written.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// Close flushes pending writes and stops the writer. Mutations after Close
// stay in memory only.
func (s *Store) Close(ctx context.Context) error {
	err := s.writer.flush(ctx)
	s.writer.close()
	return err
}

func countOf(items []models.LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Count is the cart badge number: the sum of all quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countOf(s.cart)
}

func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Total(s.cart)
}
