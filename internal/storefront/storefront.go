// Package storefront holds the client-side state of the vending machine
// screen: the signed-in user, the product list, the running balance and
// the multi-session banner. Every action calls the backend first and only
// updates local state once the backend has accepted it.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/virtual_vend/internal/session"
	"github.com/Skotchmaster/virtual_vend/models"
	"github.com/Skotchmaster/virtual_vend/pkg/logging"
	"github.com/Skotchmaster/virtual_vend/pkg/vendclient"
)

var (
	ErrLoginRequired     = errors.New("login required")
	ErrNotBuyer          = errors.New("only buyers can do this")
	ErrNotSeller         = errors.New("only sellers can do this")
	ErrNotOwner          = errors.New("product belongs to another seller")
	ErrSoldOut           = errors.New("product is sold out")
	ErrUnknownProduct    = errors.New("unknown product")
	ErrIncompleteProduct = errors.New("product fields are incomplete")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Coins are the deposit buttons, in cents.
var Coins = []int64{5, 10, 20, 50, 100}

// Backend is the subset of *vendclient.Client the storefront drives.
type Backend interface {
	SignIn(ctx context.Context, username, password string) (*models.SignInResult, error)
	SignUp(ctx context.Context, username, password string, role models.Role) (*models.User, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context) error

	Products(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int) error

	Deposit(ctx context.Context, amount decimal.Decimal) error
	Buy(ctx context.Context, productID, quantity int) (*models.Purchase, error)
	ResetDeposit(ctx context.Context) error
	ActiveSessions(ctx context.Context) (int, error)
}

type Storefront struct {
	backend  Backend
	session  *session.Session
	notifier Notifier
	loading  *LoadingStates

	mu        sync.Mutex
	signedIn  bool
	user      models.User
	products  []models.Product
	balance   decimal.Decimal
	showAlert bool
}

// State is a copy of the storefront at one point in time.
type State struct {
	SignedIn  bool
	User      models.User
	Products  []models.Product
	Balance   decimal.Decimal
	ShowAlert bool
}

func New(backend Backend, sess *session.Session, notifier Notifier) *Storefront {
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	return &Storefront{
		backend:  backend,
		session:  sess,
		notifier: notifier,
		loading:  NewLoadingStates(),
	}
}

func (s *Storefront) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		SignedIn:  s.signedIn,
		User:      s.user,
		Products:  slices.Clone(s.products),
		Balance:   s.balance,
		ShowAlert: s.showAlert,
	}
}

func (s *Storefront) Loading() *LoadingStates { return s.loading }

func (s *Storefront) notify(n Notice) { s.notifier.Notify(n) }

// currentUser returns the signed-in user, checking the role when one is given.
func (s *Storefront) currentUser(role models.Role) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.signedIn {
		return models.User{}, ErrLoginRequired
	}
	switch {
	case role == models.RoleBuyer && s.user.Role != models.RoleBuyer:
		return models.User{}, ErrNotBuyer
	case role == models.RoleSeller && s.user.Role != models.RoleSeller:
		return models.User{}, ErrNotSeller
	}
	return s.user, nil
}

func (s *Storefront) product(id int) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.products, func(p models.Product) bool { return p.HasID(id) })
	if i < 0 {
		return models.Product{}, false
	}
	return s.products[i], true
}

func (s *Storefront) resetState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signedIn = false
	s.user = models.User{}
	s.products = nil
	s.balance = decimal.Zero
	s.showAlert = false
}

// endSession wipes stored credentials and in-memory state.
func (s *Storefront) endSession(ctx context.Context) error {
	s.resetState()
	if err := s.session.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// persistBalance writes the user snapshot with the current balance,
// the way the screen keeps its stored copy in step with the display.
func (s *Storefront) persistBalance(ctx context.Context) error {
	s.mu.Lock()
	s.user.Deposit = s.balance
	u := s.user
	s.mu.Unlock()

	if err := s.session.SaveUser(ctx, u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Storefront) fail(ctx context.Context, err error) error {
	return s.failWith(ctx, "Error", err)
}

// failWith reports a backend failure. An expired session signs the user out.
func (s *Storefront) failWith(ctx context.Context, title string, err error) error {
	l := logging.FromContext(ctx).With("component", "storefront")

	if errors.Is(err, vendclient.ErrSessionExpired) {
		l.Warn("session_expired", "error", err)
		if cerr := s.endSession(ctx); cerr != nil {
			l.Error("session_clear_failed", "error", cerr)
		}
		s.notify(Notice{Title: "Session expired", Message: "Please login again", Level: LevelError})
		return fmt.Errorf("%w: %w", ErrLoginRequired, err)
	}

	l.Warn("action_failed", "title", title, "error", err)
	s.notify(Notice{Title: title, Message: vendclient.Message(err), Level: LevelError})
	return err
}
