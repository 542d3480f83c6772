package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

type User struct {
	ID       int             `json:"id"`
	Username string          `json:"username"`
	Role     Role            `json:"role"`
	Deposit  decimal.Decimal `json:"deposit"`
}

func (u User) IsZero() bool {
	return u.ID == 0 && u.Username == ""
}

type Product struct {
	ID              *int            `json:"id,omitempty"`
	ProductName     string          `json:"product_name"`
	SellerID        int             `json:"seller_id"`
	AmountAvailable int             `json:"amount_available"`
	Cost            decimal.Decimal `json:"cost"`
}

// Available reports whether at least one unit can be bought.
func (p Product) Available() bool {
	return p.AmountAvailable > 0
}

func (p Product) HasID(id int) bool {
	return p.ID != nil && *p.ID == id
}

func IntPtr(v int) *int {
	return &v
}

// Cents converts a coin value to a currency amount, so Cents(25) is 0.25.
func Cents(n int64) decimal.Decimal {
	return decimal.New(n, -2)
}

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignInResult struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}

type SignUpRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type RefreshResult struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type BuyRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type Purchase struct {
	TotalPrice  decimal.Decimal `json:"total_price"`
	ProductName string          `json:"product_name"`
	Change      decimal.Decimal `json:"change"`
}

// ActiveSessions accepts the count either as a JSON number or a numeric string.
type ActiveSessions struct {
	ActiveSessions json.Number `json:"active_sessions"`
}
