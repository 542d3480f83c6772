package testserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/virtual_vend/models"
	"github.com/Skotchmaster/virtual_vend/pkg/logging"
)

var nickel = decimal.New(5, -2)

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// fieldErrors writes {"field": ["message"], ...} keeping the argument order.
func fieldErrors(c echo.Context, pairs ...string) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(pairs[i])
		v, _ := json.Marshal([]string{pairs[i+1]})
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return c.JSONBlob(http.StatusBadRequest, buf.Bytes())
}

func (s *Server) signUp(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "sign_up")

	var req models.SignUpRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("sign_up_failed", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	var missing []string
	if req.Username == "" {
		missing = append(missing, "username", "This field is required.")
	}
	if req.Password == "" {
		missing = append(missing, "password", "This field is required.")
	}
	if len(missing) > 0 {
		l.Warn("sign_up_failed", "status", 400, "reason", "missing fields")
		return fieldErrors(c, missing...)
	}
	if req.Role == "" {
		req.Role = models.RoleBuyer
	}
	if !req.Role.Valid() {
		return fieldErrors(c, "role", strconv.Quote(string(req.Role))+" is not a valid choice.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		l.Error("sign_up_failed", "status", 500, "reason", "cannot hash password", "error", err)
		return fail(c, http.StatusInternalServerError, "cannot hash password")
	}

	s.mu.Lock()
	for _, u := range s.users {
		if u.Username == req.Username {
			s.mu.Unlock()
			l.Warn("sign_up_failed", "status", 400, "reason", "username taken")
			return fail(c, http.StatusBadRequest, "Username already exists")
		}
	}
	user := s.insertUser(req.Username, string(hash), req.Role, decimal.Zero)
	s.mu.Unlock()

	l.Info("sign_up_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (s *Server) signIn(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "sign_in")

	var req models.SignInRequest
	if err := c.Bind(&req); err != nil || req.Username == "" || req.Password == "" {
		l.Warn("sign_in_failed", "status", 400, "reason", "missing credentials")
		return fail(c, http.StatusBadRequest, "Username and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var acc *account
	for _, u := range s.users {
		if u.Username == req.Username {
			acc = u
			break
		}
	}
	if acc == nil {
		l.Warn("sign_in_failed", "status", 404, "reason", "unknown user")
		return fail(c, http.StatusNotFound, "User not found")
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.passwordHash), []byte(req.Password)) != nil {
		l.Warn("sign_in_failed", "status", 401, "reason", "wrong password")
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}

	access, _, err := signToken(s.secret, acc.ID, s.gen, tokenAccess, accessTTL)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "cannot sign token")
	}
	refresh, rc, err := signToken(s.secret, acc.ID, s.gen, tokenRefresh, refreshTTL)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "cannot sign token")
	}

	s.sessions[acc.ID] = append(s.sessions[acc.ID], access)
	acc.refreshIDs = append(acc.refreshIDs, rc.ID)

	l.Info("sign_in_success", "user_id", acc.ID)
	return c.JSON(http.StatusOK, models.SignInResult{
		Access:  access,
		Refresh: refresh,
		User:    acc.User,
	})
}

func (s *Server) refresh(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "refresh")

	var req models.RefreshRequest
	if err := c.Bind(&req); err != nil || req.Refresh == "" {
		return fail(c, http.StatusBadRequest, "Refresh token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshHits++

	claims, err := parseToken(req.Refresh, s.secret, tokenRefresh)
	switch {
	case s.failRefresh:
		err = errors.New("refresh disabled")
	case err == nil && s.blacklist[claims.ID]:
		err = errors.New("token is blacklisted")
	}
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "error", err)
		return fail(c, http.StatusUnauthorized, "Invalid or expired refresh token")
	}

	access, _, err := signToken(s.secret, claims.UserID, s.gen, tokenAccess, accessTTL)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "cannot sign token")
	}
	res := models.RefreshResult{Access: access}

	if s.rotate {
		refresh, rc, err := signToken(s.secret, claims.UserID, s.gen, tokenRefresh, refreshTTL)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "cannot sign token")
		}
		s.blacklist[claims.ID] = true
		if acc, ok := s.users[claims.UserID]; ok {
			acc.refreshIDs = append(acc.refreshIDs, rc.ID)
		}
		res.Refresh = refresh
	}

	l.Info("refresh_success", "user_id", claims.UserID)
	return c.JSON(http.StatusOK, res)
}

func (s *Server) logout(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "logout")
	uid := c.Get(ctxUserID).(int)
	bearer := c.Get(ctxToken).(string)

	var req models.LogoutRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	claims, err := parseToken(req.RefreshToken, s.secret, tokenRefresh)
	if err != nil {
		l.Warn("logout_failed", "status", 400, "reason", "bad refresh token", "error", err)
		return fail(c, http.StatusBadRequest, "Token is invalid or expired")
	}

	s.mu.Lock()
	s.blacklist[claims.ID] = true
	s.sessions[uid] = slices.DeleteFunc(s.sessions[uid], func(tok string) bool { return tok == bearer })
	s.mu.Unlock()

	l.Info("logout_success", "user_id", uid)
	return c.JSON(http.StatusOK, "Logged out successfully")
}

func (s *Server) logoutAll(c echo.Context) error {
	uid := c.Get(ctxUserID).(int)

	s.mu.Lock()
	if acc, ok := s.users[uid]; ok {
		for _, id := range acc.refreshIDs {
			s.blacklist[id] = true
		}
	}
	delete(s.sessions, uid)
	s.mu.Unlock()

	logging.FromContext(c.Request().Context()).Info("logout_all_success", "user_id", uid)
	return c.JSON(http.StatusOK, "All sessions logged out successfully")
}

func (s *Server) activeSessions(c echo.Context) error {
	uid := c.Get(ctxUserID).(int)

	s.mu.Lock()
	n := len(s.sessions[uid])
	s.mu.Unlock()

	return c.JSON(http.StatusOK, echo.Map{"active_sessions": n})
}

func (s *Server) listProducts(c echo.Context) error {
	s.mu.Lock()
	items := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		items = append(items, p)
	}
	s.mu.Unlock()

	slices.SortFunc(items, func(a, b models.Product) int { return *a.ID - *b.ID })
	return c.JSON(http.StatusOK, items)
}

func validCost(cost decimal.Decimal) bool {
	return !cost.IsNegative() && cost.Mod(nickel).IsZero()
}

func (s *Server) createProduct(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "create_product")
	uid := c.Get(ctxUserID).(int)

	var req models.Product
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.ProductName == "" {
		return fieldErrors(c, "product_name", "This field is required.")
	}
	if req.AmountAvailable < 0 {
		return fieldErrors(c, "amount_available", "Ensure this value is greater than or equal to 0.")
	}
	if !validCost(req.Cost) {
		l.Warn("product_create_error", "status", 400, "reason", "cost not a multiple of 5 cents")
		return fail(c, http.StatusBadRequest, "Cost must be in multiples of 5 cents.")
	}

	req.ID = nil
	req.SellerID = uid

	s.mu.Lock()
	created := s.insertProduct(req)
	s.mu.Unlock()

	l.Info("create_product_success", "product_id", *created.ID)
	return c.JSON(http.StatusCreated, created)
}

type productPatch struct {
	ProductName     *string          `json:"product_name"`
	AmountAvailable *int             `json:"amount_available"`
	Cost            *decimal.Decimal `json:"cost"`
}

// ownedProduct loads the product at :id and checks the caller sells it.
// The returned error has already been written to the response.
func (s *Server) ownedProduct(c echo.Context) (models.Product, bool, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return models.Product{}, false, fail(c, http.StatusNotFound, "Product not found")
	}
	uid := c.Get(ctxUserID).(int)

	s.mu.Lock()
	p, ok := s.products[id]
	s.mu.Unlock()

	if !ok {
		return models.Product{}, false, fail(c, http.StatusNotFound, "Product not found")
	}
	if p.SellerID != uid {
		return models.Product{}, false, fail(c, http.StatusForbidden, "You do not have permission to modify this product")
	}
	return p, true, nil
}

func (s *Server) updateProduct(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "update_product")

	p, ok, err := s.ownedProduct(c)
	if !ok {
		return err
	}

	var patch productPatch
	if err := (&echo.DefaultBinder{}).BindBody(c, &patch); err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if patch.ProductName != nil {
		p.ProductName = *patch.ProductName
	}
	if patch.AmountAvailable != nil {
		if *patch.AmountAvailable < 0 {
			return fieldErrors(c, "amount_available", "Ensure this value is greater than or equal to 0.")
		}
		p.AmountAvailable = *patch.AmountAvailable
	}
	if patch.Cost != nil {
		if !validCost(*patch.Cost) {
			return fail(c, http.StatusBadRequest, "Cost must be in multiples of 5 cents.")
		}
		p.Cost = *patch.Cost
	}

	s.mu.Lock()
	s.products[*p.ID] = p
	s.mu.Unlock()

	l.Info("update_product_success", "product_id", *p.ID)
	return c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProduct(c echo.Context) error {
	p, ok, err := s.ownedProduct(c)
	if !ok {
		return err
	}

	s.mu.Lock()
	delete(s.products, *p.ID)
	s.mu.Unlock()

	logging.FromContext(c.Request().Context()).Info("delete_product_success", "product_id", *p.ID)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deposit(c echo.Context) error {
	uid := c.Get(ctxUserID).(int)

	var req models.DepositRequest
	if err := c.Bind(&req); err != nil || !req.Amount.IsPositive() {
		return fail(c, http.StatusBadRequest, "Amount is required")
	}

	s.mu.Lock()
	u := s.users[uid]
	u.Deposit = u.Deposit.Add(req.Amount)
	s.mu.Unlock()

	return c.JSON(http.StatusOK, echo.Map{"message": "Deposit successful"})
}

func (s *Server) buy(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "buy")
	uid := c.Get(ctxUserID).(int)

	var req models.BuyRequest
	if err := c.Bind(&req); err != nil || req.ProductID == 0 || req.Quantity <= 0 {
		return fail(c, http.StatusBadRequest, "Product ID and quantity are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[req.ProductID]
	if !ok {
		return fail(c, http.StatusNotFound, "Product not found")
	}
	if p.AmountAvailable < req.Quantity {
		l.Warn("buy_failed", "status", 400, "reason", "insufficient stock", "product_id", req.ProductID)
		return fail(c, http.StatusBadRequest, "Insufficient stock")
	}

	u := s.users[uid]
	total := p.Cost.Mul(decimal.NewFromInt(int64(req.Quantity)))
	if u.Deposit.LessThan(total) {
		l.Warn("buy_failed", "status", 400, "reason", "insufficient deposit", "product_id", req.ProductID)
		return fail(c, http.StatusBadRequest, "Insufficient deposit")
	}

	u.Deposit = u.Deposit.Sub(total)
	p.AmountAvailable -= req.Quantity
	s.products[*p.ID] = p

	l.Info("buy_success", "product_id", *p.ID, "quantity", req.Quantity)
	return c.JSON(http.StatusOK, models.Purchase{
		TotalPrice:  total,
		ProductName: p.ProductName,
		Change:      u.Deposit,
	})
}

func (s *Server) reset(c echo.Context) error {
	uid := c.Get(ctxUserID).(int)

	s.mu.Lock()
	s.users[uid].Deposit = decimal.Zero
	s.mu.Unlock()

	return c.JSON(http.StatusOK, echo.Map{"message": "Deposit reset successfully"})
}
