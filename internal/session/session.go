// Package session persists the signed-in user's credentials and profile
// snapshot in a storage.Store. It satisfies vendclient.TokenStore.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Skotchmaster/virtual_vend/internal/storage"
	"github.com/Skotchmaster/virtual_vend/models"
)

const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
	KeyNotified     = "notified"
)

type Session struct {
	store storage.Store
}

func New(store storage.Store) *Session {
	return &Session{store: store}
}

func (s *Session) get(ctx context.Context, key string) (string, error) {
	v, _, err := s.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("session %s: %w", key, err)
	}
	return v, nil
}

func (s *Session) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyAccessToken)
}

func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyRefreshToken)
}

func (s *Session) SetAccessToken(ctx context.Context, token string) error {
	return s.store.Set(ctx, KeyAccessToken, token)
}

func (s *Session) SetRefreshToken(ctx context.Context, token string) error {
	return s.store.Set(ctx, KeyRefreshToken, token)
}

// SaveSignIn stores the token pair and user snapshot from a sign-in.
func (s *Session) SaveSignIn(ctx context.Context, res *models.SignInResult) error {
	if err := s.SetAccessToken(ctx, res.Access); err != nil {
		return err
	}
	if err := s.SetRefreshToken(ctx, res.Refresh); err != nil {
		return err
	}
	return s.SaveUser(ctx, res.User)
}

// User returns ok=false when no snapshot is stored or it cannot be decoded.
func (s *Session) User(ctx context.Context) (models.User, bool, error) {
	raw, ok, err := s.store.Get(ctx, KeyUser)
	if err != nil {
		return models.User{}, false, fmt.Errorf("session user: %w", err)
	}
	if !ok || raw == "" {
		return models.User{}, false, nil
	}

	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return models.User{}, false, nil
	}
	if u.IsZero() {
		return models.User{}, false, nil
	}
	return u, true, nil
}

func (s *Session) SaveUser(ctx context.Context, u models.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.store.Set(ctx, KeyUser, string(raw))
}

func (s *Session) Notified(ctx context.Context) (bool, error) {
	v, err := s.get(ctx, KeyNotified)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

func (s *Session) MarkNotified(ctx context.Context) error {
	return s.store.Set(ctx, KeyNotified, "true")
}

// Clear removes everything a sign-in left behind.
func (s *Session) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyUser, KeyNotified)
}

// Valid reports whether a user snapshot and both tokens are stored.
func (s *Session) Valid(ctx context.Context) (bool, error) {
	_, ok, err := s.User(ctx)
	if err != nil || !ok {
		return false, err
	}
	for _, key := range []string{KeyAccessToken, KeyRefreshToken} {
		token, err := s.get(ctx, key)
		if err != nil {
			return false, err
		}
		if token == "" {
			return false, nil
		}
	}
	return true, nil
}
