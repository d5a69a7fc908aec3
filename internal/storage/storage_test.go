package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirmalhandloom/storefront/internal/db"
)

func newGormKV(t *testing.T) *GormKV {
	t.Helper()

	gdb, err := db.Open(context.Background(), "file::memory:")
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	kv, err := NewGormKV(gdb)
	require.NoError(t, err)
	return kv
}

func TestKV_Implementations(t *testing.T) {
	t.Parallel()

	impls := map[string]func(t *testing.T) KV{
		"memory": func(t *testing.T) KV { return NewMemory() },
		"gorm":   func(t *testing.T) KV { return newGormKV(t) },
	}

	for name, mk := range impls {
		mk := mk
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			kv := mk(t)
			ctx := context.Background()

			_, err := kv.Get(ctx, KeyCart)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Set(ctx, KeyCart, `[{"id":"a","quantity":1}]`))
			got, err := kv.Get(ctx, KeyCart)
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"a","quantity":1}]`, got)

			require.NoError(t, kv.Set(ctx, KeyCart, `[]`))
			got, err = kv.Get(ctx, KeyCart)
			require.NoError(t, err)
			assert.Equal(t, `[]`, got)

			require.NoError(t, kv.Delete(ctx, KeyCart))
			_, err = kv.Get(ctx, KeyCart)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Delete(ctx, KeyWishlist))
		})
	}
}
