package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/virtual_vend/internal/storefront"
	"github.com/Skotchmaster/virtual_vend/internal/testserver"
	"github.com/Skotchmaster/virtual_vend/models"
)

type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T, ts *testserver.Server) *cli {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "vend.db")
	return &cli{t: t, base: []string{"--api", ts.URL, "--store", "sqlite", "--dsn", dsn, "--log-level", "error"}}
}

func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{stdout: &stdout, stderr: &stderr}

	root := newRootCmd(a)
	root.SetArgs(append(append([]string{}, c.base...), args...))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	a.close()
	return stdout.String(), stderr.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, stderr, err := c.run(args...)
	require.NoError(c.t, err, stderr)
	return out
}

func TestCLI_BuyerFlow(t *testing.T) {
	ts := testserver.New(t)
	seller := ts.Seed("sam", "pw", models.RoleSeller, decimal.Zero)
	cola := ts.AddProduct(seller.ID, "Cola", models.Cents(50), 3)
	c := newCLI(t, ts)

	assert.Contains(t, c.mustRun("signup", "alice", "-p", "pw"), "Created alice (buyer)")
	assert.Contains(t, c.mustRun("login", "alice", "-p", "pw"), "Signed in as alice (buyer)")

	assert.Contains(t, c.mustRun("deposit", "25", "10"), "Your Balance: $0.35")

	who := c.mustRun("whoami")
	assert.Contains(t, who, "alice (buyer)")
	assert.Contains(t, who, "Balance: $0.35")
	assert.Contains(t, who, "Access token expires")

	c.mustRun("deposit", "20")
	assert.Contains(t, c.mustRun("buy", "1"), "Bought 1 x Cola for $0.50, change $0.05")

	status := c.mustRun("status")
	assert.Contains(t, status, "Your Balance: $0.05")
	assert.Contains(t, status, "Qty: 2")

	p, ok := ts.Product(*cola.ID)
	require.True(t, ok)
	assert.Equal(t, 2, p.AmountAvailable)

	assert.Contains(t, c.mustRun("reset"), "Your Balance: $0.00")

	assert.Contains(t, c.mustRun("logout"), "Logged out")
	assert.Contains(t, c.mustRun("whoami"), "Not signed in")

	_, _, err := c.run("deposit", "5")
	assert.ErrorIs(t, err, storefront.ErrLoginRequired)
}

func TestCLI_SellerFlow(t *testing.T) {
	ts := testserver.New(t)
	ts.Seed("sam", "pw", models.RoleSeller, decimal.Zero)
	c := newCLI(t, ts)

	c.mustRun("login", "sam", "-p", "pw")
	assert.Contains(t, c.mustRun("product", "add", "--name", "Tea", "--cost", "0.35", "--qty", "4"), "Added product 1")

	assert.Contains(t, c.mustRun("product", "edit", "1", "--cost", "0.40"), "Updated product 1")
	p, ok := ts.Product(1)
	require.True(t, ok)
	assert.True(t, p.Cost.Equal(models.Cents(40)))
	assert.Equal(t, "Tea", p.ProductName)

	assert.Contains(t, c.mustRun("products"), "edit, delete")

	assert.Contains(t, c.mustRun("product", "delete", "1"), "Deleted product 1")
	_, ok = ts.Product(1)
	assert.False(t, ok)

	_, stderr, err := c.run("product", "add", "--name", "Tea")
	require.ErrorIs(t, err, storefront.ErrIncompleteProduct)
	assert.Contains(t, stderr, "Please fill all the fields")

	_, _, err = c.run("deposit", "5")
	assert.ErrorIs(t, err, storefront.ErrNotBuyer)
}

func TestCLI_ProductsWithoutLogin(t *testing.T) {
	ts := testserver.New(t)
	seller := ts.Seed("sam", "pw", models.RoleSeller, decimal.Zero)
	ts.AddProduct(seller.ID, "Chips", models.Cents(125), 0)
	c := newCLI(t, ts)

	out := c.mustRun("products")
	assert.Contains(t, out, "Chips")
	assert.Contains(t, out, "$1.25")
	assert.Contains(t, out, "SOLD OUT")
}

func TestCLI_RejectsBadInput(t *testing.T) {
	ts := testserver.New(t)
	c := newCLI(t, ts)

	_, _, err := c.run("deposit", "abc")
	assert.ErrorContains(t, err, "invalid coin")

	_, _, err = c.run("signup", "bob", "-p", "pw", "--role", "admin")
	assert.ErrorContains(t, err, "role must be buyer or seller")

	_, _, err = c.run("--store", "etcd", "whoami")
	assert.Error(t, err)
}
