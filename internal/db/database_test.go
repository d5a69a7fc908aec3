package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "")
	require.Error(t, err)
}

func TestOpen_InMemorySQLite(t *testing.T) {
	t.Parallel()

	gdb, err := Open(context.Background(), "file::memory:")
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestIsPostgres(t *testing.T) {
	t.Parallel()

	assert.True(t, isPostgres("postgres://u:p@localhost:5432/db"))
	assert.True(t, isPostgres("postgresql://localhost/db"))
	assert.False(t, isPostgres("file:storefront.db"))
}
