package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	sqliteStore, err := Open(ctx, Options{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	redisStore, err := Open(ctx, Options{Driver: "redis", RedisAddr: mr.Addr()})
	require.NoError(t, err)

	stores := map[string]Store{
		"sqlite": sqliteStore,
		"redis":  redisStore,
		"memory": NewMemory(),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(ctx, "access_token")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, "access_token", "a1"))
			require.NoError(t, s.Set(ctx, "refresh_token", "r1"))

			v, ok, err := s.Get(ctx, "access_token")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "a1", v)

			require.NoError(t, s.Set(ctx, "access_token", "a2"))
			v, _, err = s.Get(ctx, "access_token")
			require.NoError(t, err)
			assert.Equal(t, "a2", v)

			require.NoError(t, s.Delete(ctx, "access_token", "refresh_token", "never_set"))
			for _, k := range []string{"access_token", "refresh_token"} {
				_, ok, err = s.Get(ctx, k)
				require.NoError(t, err)
				assert.False(t, ok, k)
			}

			require.NoError(t, s.Delete(ctx))
		})
	}
}

func TestStore_EmptyValueIsPresent(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "notified", ""))
			v, ok, err := s.Get(ctx, "notified")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "", v)
		})
	}
}

func TestGormStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "vend.db")

	s, err := OpenGorm(ctx, "sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "user", `{"id":1}`))
	require.NoError(t, s.Close())

	s, err = OpenGorm(ctx, "sqlite", dsn)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, v)
}

func TestRedisStore_UsesPrefix(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	s, err := OpenRedis(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "access_token", "a1"))
	got, err := mr.Get("vend:access_token")
	require.NoError(t, err)
	assert.Equal(t, "a1", got)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "etcd"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestOpen_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), Options{Driver: "redis", RedisAddr: addr})
	assert.Error(t, err)
}
