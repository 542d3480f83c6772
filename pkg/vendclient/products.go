package vendclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Skotchmaster/virtual_vend/models"
)

func productPath(id int) string {
	return fmt.Sprintf("/api/product/%d/", id)
}

func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := c.doJSON(ctx, &Request{Method: http.MethodGet, Path: "/api/product/get/"}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	var created models.Product
	err := c.doJSON(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/api/product/",
		Body:   p,
		Auth:   true,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	if p.ID == nil {
		return nil, ErrMissingProductID
	}

	var updated models.Product
	err := c.doJSON(ctx, &Request{
		Method: http.MethodPut,
		Path:   productPath(*p.ID),
		Body:   p,
		Auth:   true,
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	return c.doJSON(ctx, &Request{
		Method: http.MethodDelete,
		Path:   productPath(id),
		Auth:   true,
	}, nil)
}
