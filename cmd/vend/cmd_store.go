package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/virtual_vend/internal/render"
	"github.com/Skotchmaster/virtual_vend/internal/storefront"
	"github.com/Skotchmaster/virtual_vend/models"
)

// vend status
func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show balance, banner and products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sf.Open(cmd.Context()); err != nil {
				return err
			}
			return render.Storefront(a.stdout, a.sf.State(), a.sf.Loading())
		},
	}
}

// vend products
func productsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List products; works without signing in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.sf.Resume(ctx); err != nil && !errors.Is(err, storefront.ErrLoginRequired) {
				return err
			}
			if err := a.sf.LoadProducts(ctx); err != nil {
				return err
			}
			st := a.sf.State()
			return render.ProductGrid(a.stdout, st.Products, st.User, a.sf.Loading())
		},
	}
}

// vend deposit <cents>...
func depositCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "deposit <cents>...",
		Short:   "Deposit one or more coins, in cents",
		Example: "  vend deposit 25 10",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coins := make([]int64, len(args))
			for i, arg := range args {
				n, err := strconv.ParseInt(arg, 10, 64)
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid coin %q: want a positive number of cents", arg)
				}
				coins[i] = n
			}

			ctx := cmd.Context()
			if err := a.sf.Resume(ctx); err != nil {
				return err
			}
			for _, c := range coins {
				if err := a.sf.Deposit(ctx, models.Cents(c)); err != nil {
					return err
				}
			}
			return render.BuyerPanel(a.stdout, a.sf.State().Balance)
		},
	}
}

// vend buy <product-id> [--qty n]
func buyCmd(a *app) *cobra.Command {
	var qty int
	cmd := &cobra.Command{
		Use:   "buy <product-id>",
		Short: "Buy a product with the deposited balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[0])
			}

			ctx := cmd.Context()
			if err := a.sf.Open(ctx); err != nil {
				return err
			}
			p, err := a.sf.Buy(ctx, id, qty)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Bought %d x %s for %s, change %s\n",
				qty, p.ProductName, render.Money(p.TotalPrice), render.Money(p.Change))
			return nil
		},
	}
	cmd.Flags().IntVar(&qty, "qty", 1, "quantity to buy")
	return cmd
}

// vend reset
func resetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the deposited balance to zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.sf.Resume(ctx); err != nil {
				return err
			}
			if err := a.sf.ResetBalance(ctx); err != nil {
				return err
			}
			return render.BuyerPanel(a.stdout, a.sf.State().Balance)
		},
	}
}
