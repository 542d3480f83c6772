package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "sqlite", "")
	require.Error(t, err)

	_, err = Open(context.Background(), "mongo", "mongodb://localhost")
	require.ErrorContains(t, err, "unsupported database driver")
}
