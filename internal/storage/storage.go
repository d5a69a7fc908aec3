// Package storage is the durable key -> JSON-string store that backs the
// storefront's client-side state (`cart`, `wishlist`, `userInfo`).
package storage

import (
	"context"
	"errors"
)

const (
	KeyCart     = "cart"
	KeyWishlist = "wishlist"
	KeyUserInfo = "userInfo"
)

var ErrNotFound = errors.New("storage: key not found")

type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
