// Package testserver runs an in-process Virtual Vend backend for tests.
// It speaks the same REST dialect as the real service: bearer access
// tokens, refresh tokens traded at /api/refresh/, and error bodies of the
// form {"error": "..."} or {"field": ["..."]}.
package testserver

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/virtual_vend/models"
	"github.com/Skotchmaster/virtual_vend/pkg/logging"
)

type account struct {
	models.User
	passwordHash string
	refreshIDs   []string
}

type Server struct {
	URL string

	secret []byte

	mu            sync.Mutex
	users         map[int]*account
	products      map[int]models.Product
	nextUserID    int
	nextProductID int

	sessions    map[int][]string
	blacklist   map[string]bool
	gen         int
	failRefresh bool
	deny        bool
	rotate      bool
	refreshHits int
}

type tWriter struct{ t testing.TB }

func (w tWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// New starts a backend that is shut down when t finishes.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:        []byte("testserver-secret"),
		users:         make(map[int]*account),
		products:      make(map[int]models.Product),
		nextUserID:    1,
		nextProductID: 1,
		sessions:      make(map[int][]string),
		blacklist:     make(map[string]bool),
	}

	var w io.Writer = io.Discard
	if testing.Verbose() {
		w = tWriter{t}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logging.NewWithWriter(w, "debug")))
	s.routes(e)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	s.URL = srv.URL
	return s
}

func (s *Server) routes(e *echo.Echo) {
	api := e.Group("/api")

	api.POST("/user/", s.signUp)
	api.POST("/signin/", s.signIn)
	api.POST("/refresh/", s.refresh)
	api.GET("/product/get/", s.listProducts)

	private := api.Group("", s.requireAuth)
	private.POST("/logout/", s.logout)
	private.POST("/logout/all/", s.logoutAll)
	private.GET("/active-sessions/", s.activeSessions)

	seller := private.Group("", requireRole(models.RoleSeller, s))
	seller.POST("/product/", s.createProduct)
	seller.PUT("/product/:id/", s.updateProduct)
	seller.DELETE("/product/:id/", s.deleteProduct)

	buyer := private.Group("", requireRole(models.RoleBuyer, s))
	buyer.POST("/deposit/", s.deposit)
	buyer.POST("/buy/", s.buy)
	buyer.POST("/reset/", s.reset)
}

// Seed registers a user directly, bypassing the signup endpoint.
func (s *Server) Seed(username, password string, role models.Role, deposit decimal.Decimal) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertUser(username, string(hash), role, deposit)
}

func (s *Server) insertUser(username, hash string, role models.Role, deposit decimal.Decimal) models.User {
	u := &account{
		User: models.User{
			ID:       s.nextUserID,
			Username: username,
			Role:     role,
			Deposit:  deposit,
		},
		passwordHash: hash,
	}
	s.nextUserID++
	s.users[u.ID] = u
	return u.User
}

func (s *Server) AddProduct(sellerID int, name string, cost decimal.Decimal, amount int) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertProduct(models.Product{
		ProductName:     name,
		SellerID:        sellerID,
		AmountAvailable: amount,
		Cost:            cost,
	})
}

func (s *Server) insertProduct(p models.Product) models.Product {
	p.ID = models.IntPtr(s.nextProductID)
	s.nextProductID++
	s.products[*p.ID] = p
	return p
}

func (s *Server) Product(id int) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Server) Deposit(userID int) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		return u.Deposit
	}
	return decimal.Zero
}

func (s *Server) ActiveSessions(userID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions[userID])
}

// InvalidateAccessTokens makes every access token issued so far answer 401,
// as if they had all expired. Refresh tokens stay valid.
func (s *Server) InvalidateAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
}

// FailRefresh makes /api/refresh/ reject every token.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// AlwaysUnauthorized makes every authenticated endpoint answer 401.
func (s *Server) AlwaysUnauthorized(deny bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deny = deny
}

// RotateRefresh makes /api/refresh/ also return a new refresh token.
func (s *Server) RotateRefresh(rotate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotate = rotate
}

func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshHits
}
