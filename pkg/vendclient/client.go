// Package vendclient is a typed client for the Virtual Vend REST backend.
//
// Authenticated calls attach the stored access token as a bearer credential.
// When the backend answers 401 on the first attempt, the client exchanges the
// stored refresh token for a new access token, stores it and replays the
// original request exactly once. A refresh failure is returned wrapped in
// ErrSessionExpired and nothing is retried further.
//
// A Client is safe for concurrent use as long as its TokenStore is.
package vendclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/virtual_vend/pkg/logging"
)

const HeaderRequestID = "X-Request-ID"

// TokenStore holds the credential pair between requests.
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetAccessToken(ctx context.Context, token string) error
	SetRefreshToken(ctx context.Context, token string) error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func NewClient(baseURL string, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 60 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes one backend call. Body is encoded as JSON.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header

	// Auth routes the call through the bearer and refresh handling.
	Auth bool

	// Retried is set once the request has been replayed after a refresh.
	// A retried request that fails with 401 again is not refreshed a second time.
	Retried bool
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) JSON(dest any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Do sends req. For authenticated requests a first 401 triggers one refresh
// and one replay; Do marks req as Retried before replaying it.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	if !req.Auth {
		return c.send(ctx, req, body, "")
	}

	access, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("read access token: %w", err)
	}

	resp, err := c.send(ctx, req, body, access)
	if err == nil {
		return resp, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || req.Retried {
		return nil, err
	}

	req.Retried = true
	access, err = c.refreshAccess(ctx)
	if err != nil {
		return nil, err
	}

	return c.send(ctx, req, body, access)
}

func (c *Client) send(ctx context.Context, req *Request, body []byte, bearer string) (*Response, error) {
	rid := uuid.NewString()
	l := logging.FromContext(ctx).With(
		"component", "vendclient",
		"method", req.Method,
		"path", req.Path,
		"request_id", rid,
	)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(HeaderRequestID, rid)
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		l.Warn("request_failed", "reason", "transport error", "error", err)
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	l.Debug("request_completed",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"retried", req.Retried,
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, raw)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       raw,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, req *Request, dest any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return resp.JSON(dest)
}

func encodeBody(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.([]byte); ok {
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return b, nil
}
