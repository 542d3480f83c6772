// Package render draws the storefront as plain text for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/virtual_vend/internal/storefront"
	"github.com/Skotchmaster/virtual_vend/models"
)

const AlertText = "Heads up! You already have active sessions. If that's not you, please logout quickly!"

func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func Coin(cents int64) string {
	return fmt.Sprintf("%d¢", cents)
}

func BuyerPanel(w io.Writer, balance decimal.Decimal) error {
	coins := make([]string, len(storefront.Coins))
	for i, c := range storefront.Coins {
		coins[i] = "[" + Coin(c) + "]"
	}
	_, err := fmt.Fprintf(w, "Your Balance: %s\nDeposit: %s\n", Money(balance), strings.Join(coins, " "))
	return err
}

func AlertBanner(w io.Writer) error {
	_, err := fmt.Fprintf(w, "! %s\n", AlertText)
	return err
}

// BuyAction is the label of the buy control for a buyer looking at p.
func BuyAction(p models.Product, loading *storefront.LoadingStates) string {
	switch {
	case !p.Available():
		return "buy (unavailable)"
	case loading != nil && loading.IsLoading(storefront.ActionBuy):
		return "buy (busy)"
	default:
		return "buy"
	}
}

func sellerActions(loading *storefront.LoadingStates) string {
	edit, del := "edit", "delete"
	if loading != nil && loading.IsLoading(storefront.ActionUpdateProduct) {
		edit += " (busy)"
	}
	if loading != nil && loading.IsLoading(storefront.ActionDeleteProduct) {
		del += " (busy)"
	}
	return edit + ", " + del
}

// ProductGrid lists products with the actions u may take on each.
func ProductGrid(w io.Writer, products []models.Product, u models.User, loading *storefront.LoadingStates) error {
	if len(products) == 0 {
		_, err := fmt.Fprintln(w, "No products available.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tSTATUS\tACTIONS")
	for _, p := range products {
		id := "-"
		if p.ID != nil {
			id = fmt.Sprint(*p.ID)
		}

		status := ""
		if !p.Available() {
			status = "SOLD OUT"
		}

		actions := "-"
		switch {
		case u.Role == models.RoleBuyer:
			actions = BuyAction(p, loading)
		case u.Role == models.RoleSeller && p.SellerID == u.ID:
			actions = sellerActions(loading)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\tQty: %d\t%s\t%s\n", id, p.ProductName, Money(p.Cost), p.AmountAvailable, status, actions)
	}
	return tw.Flush()
}

// Storefront draws the whole screen for st.
func Storefront(w io.Writer, st storefront.State, loading *storefront.LoadingStates) error {
	if !st.SignedIn {
		_, err := fmt.Fprintln(w, "Not signed in. Run `vend login` to continue.")
		return err
	}

	if _, err := fmt.Fprintf(w, "Signed in as %s (%s)\n", st.User.Username, st.User.Role); err != nil {
		return err
	}
	if st.ShowAlert {
		if err := AlertBanner(w); err != nil {
			return err
		}
	}
	if st.User.Role == models.RoleBuyer {
		if err := BuyerPanel(w, st.Balance); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return ProductGrid(w, st.Products, st.User, loading)
}

func Notice(w io.Writer, n storefront.Notice) error {
	prefix := ""
	if n.Level == storefront.LevelError {
		prefix = "error: "
	}
	if n.Message == "" {
		_, err := fmt.Fprintf(w, "%s%s\n", prefix, n.Title)
		return err
	}
	_, err := fmt.Fprintf(w, "%s%s: %s\n", prefix, n.Title, n.Message)
	return err
}
