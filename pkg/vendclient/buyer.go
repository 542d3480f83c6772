package vendclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/virtual_vend/models"
)

func (c *Client) Deposit(ctx context.Context, amount decimal.Decimal) error {
	return c.doJSON(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/api/deposit/",
		Body:   models.DepositRequest{Amount: amount},
		Auth:   true,
	}, nil)
}

func (c *Client) Buy(ctx context.Context, productID, quantity int) (*models.Purchase, error) {
	var p models.Purchase
	err := c.doJSON(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/api/buy/",
		Body:   models.BuyRequest{ProductID: productID, Quantity: quantity},
		Auth:   true,
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ResetDeposit(ctx context.Context) error {
	return c.doJSON(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/api/reset/",
		Auth:   true,
	}, nil)
}

func (c *Client) ActiveSessions(ctx context.Context) (int, error) {
	var res models.ActiveSessions
	err := c.doJSON(ctx, &Request{
		Method: http.MethodGet,
		Path:   "/api/active-sessions/",
		Auth:   true,
	}, &res)
	if err != nil {
		return 0, err
	}

	n, err := res.ActiveSessions.Int64()
	if err != nil {
		return 0, fmt.Errorf("parse active sessions %q: %w", res.ActiveSessions, err)
	}
	return int(n), nil
}
