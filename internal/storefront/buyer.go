package storefront

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/virtual_vend/models"
)

func (s *Storefront) Deposit(ctx context.Context, amount decimal.Decimal) error {
	if _, err := s.currentUser(models.RoleBuyer); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	done, err := s.loading.Begin(ActionDeposit)
	if err != nil {
		return err
	}
	defer done()

	if err := s.backend.Deposit(ctx, amount); err != nil {
		return s.fail(ctx, err)
	}

	s.mu.Lock()
	s.balance = s.balance.Add(amount)
	s.mu.Unlock()

	s.notify(Notice{Title: "Deposit successful", Message: "Balance updated!", Level: LevelSuccess})
	return s.persistBalance(ctx)
}

// Buy purchases quantity units. The balance becomes the change reported by
// the backend and the local stock drops by quantity.
func (s *Storefront) Buy(ctx context.Context, productID, quantity int) (*models.Purchase, error) {
	if _, err := s.currentUser(models.RoleBuyer); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, ErrInvalidAmount
	}

	p, ok := s.product(productID)
	if !ok {
		return nil, ErrUnknownProduct
	}
	if !p.Available() {
		return nil, ErrSoldOut
	}

	done, err := s.loading.Begin(ActionBuy)
	if err != nil {
		return nil, err
	}
	defer done()

	purchase, err := s.backend.Buy(ctx, productID, quantity)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	s.mu.Lock()
	s.balance = purchase.Change
	for i := range s.products {
		if s.products[i].HasID(productID) {
			s.products[i].AmountAvailable = max(s.products[i].AmountAvailable-quantity, 0)
		}
	}
	s.mu.Unlock()

	s.notify(Notice{Title: "Purchase successful", Message: "Product purchased!", Level: LevelSuccess})
	return purchase, s.persistBalance(ctx)
}

func (s *Storefront) ResetBalance(ctx context.Context) error {
	if _, err := s.currentUser(models.RoleBuyer); err != nil {
		return err
	}

	done, err := s.loading.Begin(ActionResetBalance)
	if err != nil {
		return err
	}
	defer done()

	if err := s.backend.ResetDeposit(ctx); err != nil {
		return s.fail(ctx, err)
	}

	s.mu.Lock()
	s.balance = decimal.Zero
	s.mu.Unlock()

	s.notify(Notice{Title: "Success", Message: "Balance reset successfully", Level: LevelSuccess})
	return s.persistBalance(ctx)
}
