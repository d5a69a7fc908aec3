package store

import (
	"github.com/nirmalhandloom/storefront/internal/identity"
	"github.com/nirmalhandloom/storefront/internal/models"
)

func (s *Store) wishIndex(id identity.ID) int {
	for i := range s.wishlist {
		if s.wishlist[i].ID == id {
			return i
		}
	}
	return -1
}

// AddToWishlist inserts p unless it is already saved. It reports whether the
// wishlist changed.
func (s *Store) AddToWishlist(p models.Product) bool {
	id := identity.Of(p)
	if id.Empty() {
		s.log.Warn("add_to_wishlist_ignored", "reason", "product has no identifier", "name", p.Name)
		return false
	}

	s.begin()
	if s.wishIndex(id) >= 0 {
		s.abort()
		return false
	}
	s.wishlist = append(s.wishlist, models.WishlistEntry{ID: id, Snapshot: models.SnapshotOf(p)})
	s.commit(Change{Kind: WishlistAdded, IDs: []identity.ID{id}}, false, true)
	return true
}

func (s *Store) RemoveFromWishlist(id identity.ID) bool {
	s.begin()
	i := s.wishIndex(id)
	if i < 0 {
		s.abort()
		return false
	}
	s.wishlist = append(s.wishlist[:i:i], s.wishlist[i+1:]...)
	s.commit(Change{Kind: WishlistRemoved, IDs: []identity.ID{id}}, false, true)
	return true
}

func (s *Store) IsInWishlist(id identity.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishIndex(id) >= 0
}

func (s *Store) Wishlist() []models.WishlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.WishlistEntry, len(s.wishlist))
	copy(out, s.wishlist)
	return out
}

// WishlistLen is the wishlist badge number.
func (s *Store) WishlistLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.wishlist)
}
