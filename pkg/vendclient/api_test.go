package vendclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/virtual_vend/models"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   string
}

func stubServer(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{r.Method, r.URL.Path, r.Header.Get("Authorization"), string(raw)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSignIn(t *testing.T) {
	srv, calls := stubServer(t, http.StatusOK,
		`{"access":"a","refresh":"r","user":{"id":3,"username":"alice","role":"buyer","deposit":"0.75"}}`)
	c := NewClient(srv.URL, &memTokens{})

	res, err := c.SignIn(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "a", res.Access)
	assert.Equal(t, "r", res.Refresh)
	assert.Equal(t, models.RoleBuyer, res.User.Role)
	assert.True(t, res.User.Deposit.Equal(decimal.RequireFromString("0.75")))

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/signin/", got.path)
	assert.Empty(t, got.auth)
	assert.JSONEq(t, `{"username":"alice","password":"secret"}`, got.body)
}

func TestSignUp(t *testing.T) {
	srv, calls := stubServer(t, http.StatusCreated, `{"id":9,"username":"bob","role":"seller","deposit":0}`)
	c := NewClient(srv.URL, &memTokens{})

	user, err := c.SignUp(context.Background(), "bob", "pw", models.RoleSeller)
	require.NoError(t, err)
	assert.Equal(t, 9, user.ID)
	assert.True(t, user.Deposit.IsZero())
	assert.Equal(t, "/api/user/", (*calls)[0].path)
	assert.JSONEq(t, `{"username":"bob","password":"pw","role":"seller"}`, (*calls)[0].body)
}

func TestProducts(t *testing.T) {
	srv, calls := stubServer(t, http.StatusOK, `[
		{"id":1,"product_name":"Cola","seller_id":2,"amount_available":5,"cost":"0.50"},
		{"id":2,"product_name":"Chips","seller_id":2,"amount_available":0,"cost":1.25}
	]`)
	c := NewClient(srv.URL, &memTokens{access: "a"})

	items, err := c.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].HasID(1))
	assert.True(t, items[0].Cost.Equal(models.Cents(50)))
	assert.False(t, items[1].Available())
	assert.True(t, items[1].Cost.Equal(models.Cents(125)))
	assert.Empty(t, (*calls)[0].auth)
}

func TestCreateAndUpdateProduct(t *testing.T) {
	srv, calls := stubServer(t, http.StatusOK,
		`{"id":4,"product_name":"Tea","seller_id":2,"amount_available":3,"cost":"0.35"}`)
	c := NewClient(srv.URL, &memTokens{access: "a"})
	ctx := context.Background()

	p := models.Product{ProductName: "Tea", AmountAvailable: 3, Cost: models.Cents(35)}
	created, err := c.CreateProduct(ctx, p)
	require.NoError(t, err)
	assert.True(t, created.HasID(4))

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte((*calls)[0].body), &sent))
	assert.NotContains(t, sent, "id")
	assert.Equal(t, "Bearer a", (*calls)[0].auth)

	_, err = c.UpdateProduct(ctx, *created)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, (*calls)[1].method)
	assert.Equal(t, "/api/product/4/", (*calls)[1].path)

	_, err = c.UpdateProduct(ctx, p)
	assert.ErrorIs(t, err, ErrMissingProductID)
	assert.Len(t, *calls, 2)
}

func TestDeleteProduct(t *testing.T) {
	srv, calls := stubServer(t, http.StatusNoContent, ``)
	c := NewClient(srv.URL, &memTokens{access: "a"})

	require.NoError(t, c.DeleteProduct(context.Background(), 12))
	assert.Equal(t, http.MethodDelete, (*calls)[0].method)
	assert.Equal(t, "/api/product/12/", (*calls)[0].path)
}

func TestDepositBuyReset(t *testing.T) {
	srv, calls := stubServer(t, http.StatusOK, `{"total_price":"0.50","product_name":"Cola","change":"0.25"}`)
	c := NewClient(srv.URL, &memTokens{access: "a"})
	ctx := context.Background()

	require.NoError(t, c.Deposit(ctx, models.Cents(25)))
	assert.Equal(t, "/api/deposit/", (*calls)[0].path)
	assert.JSONEq(t, `{"amount":"0.25"}`, (*calls)[0].body)

	p, err := c.Buy(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Cola", p.ProductName)
	assert.True(t, p.Change.Equal(models.Cents(25)))
	assert.True(t, p.TotalPrice.Equal(models.Cents(50)))
	assert.JSONEq(t, `{"product_id":1,"quantity":1}`, (*calls)[1].body)

	require.NoError(t, c.ResetDeposit(ctx))
	assert.Equal(t, "/api/reset/", (*calls)[2].path)
	assert.Empty(t, (*calls)[2].body)
}

func TestActiveSessions_NumberOrString(t *testing.T) {
	for name, reply := range map[string]string{
		"number": `{"active_sessions": 3}`,
		"string": `{"active_sessions": "3"}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := stubServer(t, http.StatusOK, reply)
			c := NewClient(srv.URL, &memTokens{access: "a"})

			n, err := c.ActiveSessions(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 3, n)
		})
	}
}

func TestLogout(t *testing.T) {
	srv, calls := stubServer(t, http.StatusOK, `{}`)
	c := NewClient(srv.URL, &memTokens{access: "a", refresh: "r"})
	ctx := context.Background()

	require.NoError(t, c.Logout(ctx, "r"))
	assert.JSONEq(t, `{"refresh_token":"r"}`, (*calls)[0].body)

	require.NoError(t, c.LogoutAll(ctx))
	assert.Equal(t, "/api/logout/all/", (*calls)[1].path)
}
