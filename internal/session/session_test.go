package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/virtual_vend/internal/storage"
	"github.com/Skotchmaster/virtual_vend/models"
	"github.com/Skotchmaster/virtual_vend/pkg/vendclient"
)

var _ vendclient.TokenStore = (*Session)(nil)

func newSession(t *testing.T) (*Session, storage.Store) {
	t.Helper()
	st, err := storage.Open(context.Background(), storage.Options{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st), st
}

func TestSaveSignIn_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)

	valid, err := s.Valid(ctx)
	require.NoError(t, err)
	assert.False(t, valid)

	require.NoError(t, s.SaveSignIn(ctx, &models.SignInResult{
		Access:  "a1",
		Refresh: "r1",
		User:    models.User{ID: 3, Username: "alice", Role: models.RoleBuyer, Deposit: models.Cents(75)},
	}))

	access, err := s.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", access)

	refresh, err := s.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", refresh)

	u, ok, err := s.User(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, u.Deposit.Equal(models.Cents(75)))

	valid, err = s.Valid(ctx)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestUser_CorruptSnapshotIsAbsent(t *testing.T) {
	ctx := context.Background()
	s, st := newSession(t)

	require.NoError(t, st.Set(ctx, KeyUser, "{not json"))
	_, ok, err := s.User(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set(ctx, KeyUser, "{}"))
	_, ok, err = s.User(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValid_RequiresAccessToken(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)

	require.NoError(t, s.SaveUser(ctx, models.User{ID: 1, Username: "bob", Role: models.RoleSeller}))
	valid, err := s.Valid(ctx)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestNotifiedAndClear(t *testing.T) {
	ctx := context.Background()
	s, st := newSession(t)

	notified, err := s.Notified(ctx)
	require.NoError(t, err)
	assert.False(t, notified)

	require.NoError(t, s.SaveSignIn(ctx, &models.SignInResult{
		Access: "a", Refresh: "r", User: models.User{ID: 1, Username: "bob"},
	}))
	require.NoError(t, s.MarkNotified(ctx))

	notified, err = s.Notified(ctx)
	require.NoError(t, err)
	assert.True(t, notified)

	require.NoError(t, s.Clear(ctx))
	for _, k := range []string{KeyAccessToken, KeyRefreshToken, KeyUser, KeyNotified} {
		_, ok, err := st.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}
}
