package storefront

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/virtual_vend/models"
	"github.com/Skotchmaster/virtual_vend/pkg/logging"
)

func (s *Storefront) SignIn(ctx context.Context, username, password string) (models.User, error) {
	done, err := s.loading.Begin(ActionSignIn)
	if err != nil {
		return models.User{}, err
	}
	defer done()

	res, err := s.backend.SignIn(ctx, username, password)
	if err != nil {
		return models.User{}, s.failWith(ctx, "Login Failed", err)
	}
	if err := s.session.SaveSignIn(ctx, res); err != nil {
		return models.User{}, fmt.Errorf("save sign-in: %w", err)
	}

	s.mu.Lock()
	s.signedIn = true
	s.user = res.User
	s.balance = res.User.Deposit
	s.mu.Unlock()

	logging.FromContext(ctx).Info("sign_in_success", "user_id", res.User.ID, "role", res.User.Role)
	return res.User, nil
}

// SignUp registers a new account. role defaults to buyer.
func (s *Storefront) SignUp(ctx context.Context, username, password string, role models.Role) (models.User, error) {
	done, err := s.loading.Begin(ActionSignUp)
	if err != nil {
		return models.User{}, err
	}
	defer done()

	if role == "" {
		role = models.RoleBuyer
	}

	u, err := s.backend.SignUp(ctx, username, password, role)
	if err != nil {
		return models.User{}, s.failWith(ctx, "Signup Failed", err)
	}

	s.notify(Notice{Title: "Signup Success", Message: "Please login to continue", Level: LevelSuccess})
	return *u, nil
}

// Resume restores the stored session without calling the backend. Without a
// stored user and both tokens it clears storage and returns ErrLoginRequired.
func (s *Storefront) Resume(ctx context.Context) error {
	valid, err := s.session.Valid(ctx)
	if err != nil {
		return err
	}
	if !valid {
		if err := s.endSession(ctx); err != nil {
			return err
		}
		return ErrLoginRequired
	}

	u, _, err := s.session.User(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.signedIn = true
	s.user = u
	s.balance = u.Deposit
	s.mu.Unlock()
	return nil
}

// Open resumes the session, then loads the active-session banner and the
// product list.
func (s *Storefront) Open(ctx context.Context) error {
	if err := s.Resume(ctx); err != nil {
		return err
	}
	if err := s.refreshAlert(ctx); err != nil {
		return err
	}
	if err := s.LoadProducts(ctx); err != nil {
		return err
	}

	logging.FromContext(ctx).Debug("storefront_opened", "user_id", s.State().User.ID)
	return nil
}

// refreshAlert shows the banner when other sessions of this user are active
// and it has not been dismissed yet. Only an expired session is fatal.
func (s *Storefront) refreshAlert(ctx context.Context) error {
	done, err := s.loading.Begin(ActionFetchSessions)
	if err != nil {
		return err
	}
	defer done()

	n, err := s.backend.ActiveSessions(ctx)
	if err != nil {
		ferr := s.fail(ctx, err)
		if s.signedOut() {
			return ferr
		}
		return nil
	}

	notified, err := s.session.Notified(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.showAlert = n > 1 && !notified
	s.mu.Unlock()
	return nil
}

func (s *Storefront) signedOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.signedIn
}

func (s *Storefront) LoadProducts(ctx context.Context) error {
	done, err := s.loading.Begin(ActionFetchProducts)
	if err != nil {
		return err
	}
	defer done()

	items, err := s.backend.Products(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	s.mu.Lock()
	s.products = items
	s.mu.Unlock()
	return nil
}

// DismissAlert hides the multi-session banner for the rest of this session.
func (s *Storefront) DismissAlert(ctx context.Context) error {
	if err := s.session.MarkNotified(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.showAlert = false
	s.mu.Unlock()
	return nil
}

func (s *Storefront) Logout(ctx context.Context) error {
	return s.logout(ctx, func() error {
		refresh, err := s.session.RefreshToken(ctx)
		if err != nil {
			return err
		}
		return s.backend.Logout(ctx, refresh)
	})
}

// LogoutAll ends every session of the user, on every device.
func (s *Storefront) LogoutAll(ctx context.Context) error {
	return s.logout(ctx, func() error { return s.backend.LogoutAll(ctx) })
}

func (s *Storefront) logout(ctx context.Context, call func() error) error {
	done, err := s.loading.Begin(ActionLogout)
	if err != nil {
		return err
	}
	defer done()

	if _, err := s.currentUser(""); err != nil {
		return err
	}
	if err := call(); err != nil {
		return s.fail(ctx, err)
	}
	return s.endSession(ctx)
}
