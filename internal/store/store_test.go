package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirmalhandloom/storefront/internal/identity"
	"github.com/nirmalhandloom/storefront/internal/models"
	"github.com/nirmalhandloom/storefront/internal/storage"
)

func saree(id string, price float64) models.Product {
	return models.Product{
		ID:       identity.Key(id),
		Name:     "Kanjivaram " + id,
		Price:    price,
		Discount: 20,
		Image:    "/img/" + id + ".jpg",
		Category: models.CategoryRef{Name: "Saree"},
	}
}

func newStore(t *testing.T, kv storage.KV) *Store {
	t.Helper()
	s := New(context.Background(), kv)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})
	return s
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func TestAddToCart_MergesSameProduct(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	p := saree("a1", 1000)

	s.AddToCart(p)
	item, ok := s.AddToCart(p)
	require.True(t, ok)

	cart := s.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 2, s.Count())
}

func TestAddToCart_AlternateIdentifierHitsSameLine(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	s.AddToCart(models.Product{ID: "65f0", Name: "Patola", Price: 900})
	s.AddToCart(models.Product{LegacyID: "65f0", Name: "Patola", Price: 900})

	cart := s.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity)
	assert.Equal(t, 2, s.QuantityOf(models.Product{LegacyID: "65f0"}))

	assert.True(t, s.RemoveFromCart(identity.Of(models.Product{LegacyID: "65f0"})))
	assert.Empty(t, s.Cart())
}

func TestAddToCart_SnapshotsPriceAtInsertion(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	p := saree("a1", 1000)
	s.AddToCart(p)

	p.Price = 5000
	p.Discount = 0
	s.AddToCart(p)

	item, ok := s.Item("a1")
	require.True(t, ok)
	assert.Equal(t, 1000.0, item.Price)
	assert.Equal(t, 20.0, item.Discount)
	assert.Equal(t, 2, item.Quantity)
}

func TestAddToCart_NoIdentifierIsIgnored(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	_, ok := s.AddToCart(models.Product{Name: "nameless"})
	assert.False(t, ok)
	assert.Empty(t, s.Cart())
}

func TestUpdateQuantity_FloorIsOne(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	s.AddToCart(saree("a1", 100))

	item, ok := s.UpdateQuantity("a1", -1)
	require.True(t, ok)
	assert.Equal(t, 1, item.Quantity)

	item, _ = s.UpdateQuantity("a1", 3)
	assert.Equal(t, 4, item.Quantity)

	item, _ = s.UpdateQuantity("a1", -10)
	assert.Equal(t, 1, item.Quantity)
	require.Len(t, s.Cart(), 1)
}

func TestUpdateQuantity_UnknownIDIsNoop(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	_, ok := s.UpdateQuantity("ghost", 1)
	assert.False(t, ok)
	assert.Empty(t, s.Cart())
}

func TestRemoveFromCart_Idempotent(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	s.AddToCart(saree("a1", 100))
	s.AddToCart(saree("b2", 200))

	assert.True(t, s.RemoveFromCart("a1"))
	before := s.Cart()
	assert.False(t, s.RemoveFromCart("a1"))
	assert.False(t, s.RemoveFromCart("never"))
	assert.Equal(t, before, s.Cart())
}

func TestRemoveItems_OnlyTouchesGivenIDs(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	s.AddToCart(saree("a", 100))
	s.AddToCart(saree("b", 100))
	s.AddToCart(saree("c", 100))

	n := s.RemoveItems("a", "b", "zz")
	assert.Equal(t, 2, n)

	cart := s.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, identity.ID("c"), cart[0].ID)
	assert.Zero(t, s.RemoveItems("a"))
}

func TestWishlist_SetSemantics(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	p := saree("w1", 100)

	assert.True(t, s.AddToWishlist(p))
	assert.False(t, s.AddToWishlist(models.Product{LegacyID: "w1"}))
	assert.Len(t, s.Wishlist(), 1)
	assert.Equal(t, 1, s.WishlistLen())
	assert.True(t, s.IsInWishlist("w1"))

	assert.True(t, s.RemoveFromWishlist("w1"))
	assert.False(t, s.RemoveFromWishlist("w1"))
	assert.False(t, s.IsInWishlist("w1"))

	assert.True(t, s.AddToWishlist(p))
	assert.True(t, s.IsInWishlist("w1"))
}

func TestWishlist_UnaffectedByCart(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	p := saree("x", 100)
	s.AddToWishlist(p)
	s.AddToCart(p)
	s.RemoveItems("x")

	assert.True(t, s.IsInWishlist("x"))
}

func TestSubscribe_NotifiedInOrder(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())

	var got []Change
	unsubscribe := s.Subscribe(func(c Change) {
		got = append(got, c)
		// reads are allowed from inside a listener
		_ = s.Count()
	})

	s.AddToCart(saree("a", 100))
	s.AddToCart(saree("a", 100))
	s.UpdateQuantity("a", -1)
	s.AddToWishlist(saree("a", 100))
	s.RemoveFromCart("a")

	require.Len(t, got, 5)
	assert.Equal(t, CartItemAdded, got[0].Kind)
	assert.Equal(t, CartQuantityChanged, got[1].Kind)
	assert.Equal(t, 2, got[1].CartCount)
	assert.Equal(t, CartQuantityChanged, got[2].Kind)
	assert.Equal(t, 1, got[2].Quantity)
	assert.Equal(t, WishlistAdded, got[3].Kind)
	assert.Equal(t, 1, got[3].WishlistCount)
	assert.Equal(t, CartItemRemoved, got[4].Kind)
	assert.Equal(t, 0, got[4].CartCount)

	unsubscribe()
	s.AddToCart(saree("b", 1))
	assert.Len(t, got, 5)
}

func TestSubscribe_ConcurrentMutationsWithReadingListener(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())

	var mu sync.Mutex
	last := 0
	s.Subscribe(func(c Change) {
		time.Sleep(time.Millisecond)
		n := s.Count()
		mu.Lock()
		last = n
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 20; i++ {
					s.AddToCart(saree(string(rune('a'+g)), 100))
					_ = s.IsInWishlist("a")
				}
			}(g)
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent mutations with a reading listener did not finish")
	}
	assert.Equal(t, 160, s.Count())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 160, last)
}

func TestSubscribe_NoopMutationsDoNotNotify(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	s.AddToCart(saree("a", 100))

	calls := 0
	s.Subscribe(func(Change) { calls++ })

	s.UpdateQuantity("a", -1)
	s.RemoveFromCart("ghost")
	s.RemoveFromWishlist("ghost")
	assert.Zero(t, calls)
}

func TestSubscribe_PanickingListenerDoesNotBreakStore(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	s.Subscribe(func(Change) { panic("boom") })

	assert.NotPanics(t, func() { s.AddToCart(saree("a", 1)) })
	assert.Equal(t, 1, s.Count())
}

func TestPersistence_RoundTrip(t *testing.T) {
	t.Parallel()

	kv := storage.NewMemory()
	s := New(context.Background(), kv)
	s.AddToCart(saree("a", 1000))
	s.AddToCart(saree("a", 1000))
	s.AddToCart(models.Product{LegacyID: "7", Name: "Chanderi", Price: 500})
	s.AddToWishlist(saree("w", 10))
	require.NoError(t, s.Close(context.Background()))

	again := newStore(t, kv)
	cart := again.Cart()
	require.Len(t, cart, 2)
	assert.Equal(t, identity.ID("a"), cart[0].ID)
	assert.Equal(t, 2, cart[0].Quantity)
	assert.Equal(t, 1000.0, cart[0].Price)
	assert.Equal(t, "Saree", cart[0].Category.Name)
	assert.Equal(t, identity.ID("7"), cart[1].ID)
	assert.True(t, again.IsInWishlist("w"))
}

func TestPersistence_EmptyCollectionsAreWrittenAsArrays(t *testing.T) {
	t.Parallel()

	kv := storage.NewMemory()
	s := newStore(t, kv)
	s.AddToCart(saree("a", 1))
	s.RemoveFromCart("a")
	flush(t, s)

	raw, err := kv.Get(context.Background(), storage.KeyCart)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestRehydrate_CorruptOrMissingIsEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cart     string
		wishlist string
	}{
		{name: "corrupt json", cart: `[{"id":"a",`, wishlist: `not json`},
		{name: "wrong shape", cart: `{"id":"a"}`, wishlist: `42`},
		{name: "null", cart: `null`, wishlist: `null`},
		{name: "empty", cart: ``, wishlist: `   `},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			kv := storage.NewMemory()
			ctx := context.Background()
			require.NoError(t, kv.Set(ctx, storage.KeyCart, tt.cart))
			require.NoError(t, kv.Set(ctx, storage.KeyWishlist, tt.wishlist))

			var s *Store
			require.NotPanics(t, func() { s = newStore(t, kv) })
			assert.Empty(t, s.Cart())
			assert.Empty(t, s.Wishlist())

			s.AddToCart(saree("a", 1))
			assert.Equal(t, 1, s.Count())
		})
	}
}

func TestRehydrate_NormalizesLegacySnapshots(t *testing.T) {
	t.Parallel()

	kv := storage.NewMemory()
	ctx := context.Background()
	legacy := `[
		{"_id":"m1","id":3,"name":"Banarsi","price":100,"discount":0,"category":{"name":"Saree"},"quantity":2},
		{"id":"m1","name":"Banarsi","price":100,"quantity":1},
		{"id":9,"name":"Cotton","price":50,"category":"Fabric","quantity":0},
		{"name":"orphan","quantity":4}
	]`
	require.NoError(t, kv.Set(ctx, storage.KeyCart, legacy))
	require.NoError(t, kv.Set(ctx, storage.KeyWishlist, `[{"id":1},{"_id":"1"},{"name":"x"}]`))

	s := newStore(t, kv)
	cart := s.Cart()
	require.Len(t, cart, 2)
	assert.Equal(t, identity.ID("m1"), cart[0].ID)
	assert.Equal(t, 3, cart[0].Quantity)
	assert.Equal(t, identity.ID("9"), cart[1].ID)
	assert.Equal(t, 1, cart[1].Quantity)
	assert.Equal(t, "Fabric", cart[1].Category.Name)

	assert.Len(t, s.Wishlist(), 1)
}

type failingKV struct {
	storage.KV
	mu    sync.Mutex
	fails int
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.fails++
	f.mu.Unlock()
	return errors.New("disk full")
}

func TestPersistence_WriteFailureKeepsMemoryState(t *testing.T) {
	t.Parallel()

	kv := &failingKV{KV: storage.NewMemory()}
	s := newStore(t, kv)

	s.AddToCart(saree("a", 1))
	s.AddToWishlist(saree("a", 1))
	flush(t, s)

	assert.Equal(t, 1, s.Count())
	assert.True(t, s.IsInWishlist("a"))
	kv.mu.Lock()
	assert.Positive(t, kv.fails)
	kv.mu.Unlock()
}

func TestReadYourWrites_BeforeFlush(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	for i := 0; i < 50; i++ {
		s.AddToCart(saree("a", 1))
		assert.Equal(t, i+1, s.Count())
	}
}

func TestConcurrentMutations(t *testing.T) {
	t.Parallel()

	s := newStore(t, storage.NewMemory())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s.AddToCart(saree("a", 1))
			}
		}()
	}
	wg.Wait()

	cart := s.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, 200, cart[0].Quantity)
}

func TestFlush_RespectsContext(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	kv := &blockingKV{KV: storage.NewMemory(), release: block}
	s := New(context.Background(), kv)
	t.Cleanup(func() {
		close(block)
		_ = s.Close(context.Background())
	})

	s.AddToCart(saree("a", 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)
	assert.Equal(t, 1, s.Count())
}

type blockingKV struct {
	storage.KV
	release chan struct{}
}

func (b *blockingKV) Set(ctx context.Context, key, value string) error {
	<-b.release
	return b.KV.Set(ctx, key, value)
}
