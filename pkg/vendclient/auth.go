package vendclient

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/virtual_vend/models"
)

func (c *Client) SignIn(ctx context.Context, username, password string) (*models.SignInResult, error) {
	var res models.SignInResult
	err := c.doJSON(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/api/signin/",
		Body:   models.SignInRequest{Username: username, Password: password},
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) SignUp(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	var user models.User
	err := c.doJSON(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/api/user/",
		Body:   models.SignUpRequest{Username: username, Password: password, Role: role},
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh is a plain call: it never goes through the bearer/401 handling itself.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*models.RefreshResult, error) {
	var res models.RefreshResult
	err := c.doJSON(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/api/refresh/",
		Body:   models.RefreshRequest{Refresh: refreshToken},
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.doJSON(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/api/logout/",
		Body:   models.LogoutRequest{RefreshToken: refreshToken},
		Auth:   true,
	}, nil)
}

func (c *Client) LogoutAll(ctx context.Context) error {
	return c.doJSON(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/api/logout/all/",
		Auth:   true,
	}, nil)
}
