package storefront

import (
	"errors"
	"fmt"
	"sync"
)

var ErrBusy = errors.New("action already in progress")

type Action string

const (
	ActionSignIn        Action = "signIn"
	ActionSignUp        Action = "signUp"
	ActionLogout        Action = "logout"
	ActionDeposit       Action = "deposit"
	ActionBuy           Action = "buy"
	ActionResetBalance  Action = "resetBalance"
	ActionAddProduct    Action = "addProduct"
	ActionUpdateProduct Action = "updateProduct"
	ActionDeleteProduct Action = "deleteProduct"
	ActionFetchProducts Action = "fetchProducts"
	ActionFetchSessions Action = "fetchSessions"
)

// LoadingStates tracks which actions are in flight. An action that is
// already running cannot be started again until it finishes.
type LoadingStates struct {
	mu     sync.Mutex
	active map[Action]bool
}

func NewLoadingStates() *LoadingStates {
	return &LoadingStates{active: make(map[Action]bool)}
}

// Begin marks a as running. Call done when it finishes.
func (l *LoadingStates) Begin(a Action) (done func(), err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active[a] {
		return nil, fmt.Errorf("%w: %s", ErrBusy, a)
	}
	l.active[a] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, a)
			l.mu.Unlock()
		})
	}, nil
}

func (l *LoadingStates) IsLoading(a Action) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[a]
}
