package vendclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/virtual_vend/pkg/logging"
)

// refreshAccess trades the stored refresh token for a new access token.
// The token store is written only when the backend accepted the refresh.
func (c *Client) refreshAccess(ctx context.Context) (string, error) {
	l := logging.FromContext(ctx).With("component", "vendclient", "op", "refresh")

	refresh, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: read refresh token: %w", ErrSessionExpired, err)
	}

	res, err := c.Refresh(ctx, refresh)
	if err != nil {
		l.Warn("refresh_failed", "reason", "backend rejected refresh", "error", err)
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	if res.Access == "" {
		l.Warn("refresh_failed", "reason", "empty access token")
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, errors.New("refresh response has no access token"))
	}

	if err := c.tokens.SetAccessToken(ctx, res.Access); err != nil {
		return "", fmt.Errorf("store access token: %w", err)
	}
	if res.Refresh != "" {
		if err := c.tokens.SetRefreshToken(ctx, res.Refresh); err != nil {
			return "", fmt.Errorf("store refresh token: %w", err)
		}
	}

	l.Info("refresh_success")
	return res.Access, nil
}
