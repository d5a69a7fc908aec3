package store

import (
	"github.com/nirmalhandloom/storefront/internal/identity"
	"github.com/nirmalhandloom/storefront/internal/models"
)

func (s *Store) indexOf(id identity.ID) int {
	for i := range s.cart {
		if s.cart[i].ID == id {
			return i
		}
	}
	return -1
}

// AddToCart merges p into the cart: an existing line gains one unit, a new
// line starts at one with the product's current price fields. A product
// without any identifier is ignored and reported with ok=false.
func (s *Store) AddToCart(p models.Product) (item models.LineItem, ok bool) {
	id := identity.Of(p)
	if id.Empty() {
		s.log.Warn("add_to_cart_ignored", "reason", "product has no identifier", "name", p.Name)
		return models.LineItem{}, false
	}

	s.begin()
	kind := CartQuantityChanged
	if i := s.indexOf(id); i >= 0 {
		s.cart[i].Quantity++
		item = s.cart[i]
	} else {
		item = models.LineItem{ID: id, Snapshot: models.SnapshotOf(p), Quantity: 1}
		s.cart = append(s.cart, item)
		kind = CartItemAdded
	}
	s.commit(Change{Kind: kind, IDs: []identity.ID{id}, Quantity: item.Quantity}, true, false)
	return item, true
}

// RemoveFromCart deletes the line for id. Removing an absent id is a no-op.
func (s *Store) RemoveFromCart(id identity.ID) bool {
	s.begin()
	i := s.indexOf(id)
	if i < 0 {
		s.abort()
		return false
	}
	s.cart = append(s.cart[:i:i], s.cart[i+1:]...)
	s.commit(Change{Kind: CartItemRemoved, IDs: []identity.ID{id}}, true, false)
	return true
}

// UpdateQuantity adds delta to the line's quantity with a floor of 1.
// Reaching the floor never removes the line; use RemoveFromCart for that.
func (s *Store) UpdateQuantity(id identity.ID, delta int) (models.LineItem, bool) {
	s.begin()
	i := s.indexOf(id)
	if i < 0 {
		s.abort()
		return models.LineItem{}, false
	}
	q := s.cart[i].Quantity + delta
	if q < 1 {
		q = 1
	}
	if q == s.cart[i].Quantity {
		item := s.cart[i]
		s.abort()
		return item, true
	}
	s.cart[i].Quantity = q
	item := s.cart[i]
	s.commit(Change{Kind: CartQuantityChanged, IDs: []identity.ID{id}, Quantity: q}, true, false)
	return item, true
}

// RemoveItems drops every line whose identity is in ids, in one mutation.
// Lines added after ids was captured are left alone.
func (s *Store) RemoveItems(ids ...identity.ID) int {
	drop := make(map[identity.ID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.begin()
	kept := make([]models.LineItem, 0, len(s.cart))
	var removed []identity.ID
	for _, it := range s.cart {
		if _, ok := drop[it.ID]; ok {
			removed = append(removed, it.ID)
			continue
		}
		kept = append(kept, it)
	}
	if len(removed) == 0 {
		s.abort()
		return 0
	}
	s.cart = kept
	s.commit(Change{Kind: CartItemsSettled, IDs: removed}, true, false)
	return len(removed)
}

// Cart returns a copy of the line items in insertion order.
func (s *Store) Cart() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LineItem, len(s.cart))
	copy(out, s.cart)
	return out
}

func (s *Store) Item(id identity.ID) (models.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.cart[i], true
	}
	return models.LineItem{}, false
}

// QuantityOf resolves p's identity and returns its cart quantity (0 if absent).
func (s *Store) QuantityOf(p models.Product) int {
	it, ok := s.Item(identity.Of(p))
	if !ok {
		return 0
	}
	return it.Quantity
}
