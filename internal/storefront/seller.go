package storefront

import (
	"context"
	"slices"
	"strings"

	"github.com/Skotchmaster/virtual_vend/models"
	"github.com/Skotchmaster/virtual_vend/pkg/vendclient"
)

// AddProduct lists a new product for the signed-in seller.
func (s *Storefront) AddProduct(ctx context.Context, draft models.Product) (*models.Product, error) {
	u, err := s.currentUser(models.RoleSeller)
	if err != nil {
		return nil, err
	}

	done, err := s.loading.Begin(ActionAddProduct)
	if err != nil {
		return nil, err
	}
	defer done()

	if strings.TrimSpace(draft.ProductName) == "" || !draft.Cost.IsPositive() || draft.AmountAvailable <= 0 {
		s.notify(Notice{Title: "Error", Message: "Please fill all the fields", Level: LevelError})
		return nil, ErrIncompleteProduct
	}
	draft.ID = nil
	draft.SellerID = u.ID

	created, err := s.backend.CreateProduct(ctx, draft)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	s.mu.Lock()
	s.products = append(s.products, *created)
	s.mu.Unlock()

	s.notify(Notice{Title: "Success", Message: "Product added successfully", Level: LevelSuccess})
	return created, nil
}

// owned returns the local copy of product id if the signed-in seller owns it.
func (s *Storefront) owned(id int) (models.Product, error) {
	u, err := s.currentUser(models.RoleSeller)
	if err != nil {
		return models.Product{}, err
	}
	p, ok := s.product(id)
	if !ok {
		return models.Product{}, ErrUnknownProduct
	}
	if p.SellerID != u.ID {
		return models.Product{}, ErrNotOwner
	}
	return p, nil
}

func (s *Storefront) UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	if p.ID == nil {
		return nil, vendclient.ErrMissingProductID
	}
	current, err := s.owned(*p.ID)
	if err != nil {
		return nil, err
	}

	done, err := s.loading.Begin(ActionUpdateProduct)
	if err != nil {
		return nil, err
	}
	defer done()

	p.SellerID = current.SellerID
	updated, err := s.backend.UpdateProduct(ctx, p)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	s.mu.Lock()
	for i := range s.products {
		if s.products[i].HasID(*p.ID) {
			s.products[i] = *updated
		}
	}
	s.mu.Unlock()

	s.notify(Notice{Title: "Success", Message: "Product updated successfully", Level: LevelSuccess})
	return updated, nil
}

func (s *Storefront) DeleteProduct(ctx context.Context, id int) error {
	if _, err := s.owned(id); err != nil {
		return err
	}

	done, err := s.loading.Begin(ActionDeleteProduct)
	if err != nil {
		return err
	}
	defer done()

	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		return s.fail(ctx, err)
	}

	s.mu.Lock()
	s.products = slices.DeleteFunc(s.products, func(p models.Product) bool { return p.HasID(id) })
	s.mu.Unlock()

	s.notify(Notice{Title: "Success", Message: "Product deleted successfully", Level: LevelSuccess})
	return nil
}
