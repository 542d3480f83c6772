package main

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/virtual_vend/models"
)

type productFlags struct {
	name string
	cost string
	qty  int
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "product name")
	cmd.Flags().StringVar(&f.cost, "cost", "", "price, e.g. 0.50")
	cmd.Flags().IntVar(&f.qty, "qty", 0, "amount available")
}

func parseCost(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid cost %q: %w", s, err)
	}
	return d, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return id, nil
}

// vend product add|edit|delete
func productCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage your products (sellers)",
	}

	var add productFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "List a new product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cost, err := parseCost(add.cost)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.sf.Resume(ctx); err != nil {
				return err
			}
			p, err := a.sf.AddProduct(ctx, models.Product{
				ProductName:     add.name,
				Cost:            cost,
				AmountAvailable: add.qty,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Added product %d\n", *p.ID)
			return nil
		},
	}
	add.register(addCmd)

	var edit productFlags
	editCmd := &cobra.Command{
		Use:   "edit <product-id>",
		Short: "Change name, cost or amount of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.sf.Open(ctx); err != nil {
				return err
			}

			var p models.Product
			for _, item := range a.sf.State().Products {
				if item.HasID(id) {
					p = item
				}
			}
			if p.ID == nil {
				return fmt.Errorf("product %d not found", id)
			}

			if cmd.Flags().Changed("name") {
				p.ProductName = edit.name
			}
			if cmd.Flags().Changed("cost") {
				if p.Cost, err = parseCost(edit.cost); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("qty") {
				p.AmountAvailable = edit.qty
			}

			if _, err := a.sf.UpdateProduct(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Updated product %d\n", id)
			return nil
		},
	}
	edit.register(editCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <product-id>",
		Short: "Remove a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.sf.Open(ctx); err != nil {
				return err
			}
			if err := a.sf.DeleteProduct(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Deleted product %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(addCmd, editCmd, deleteCmd)
	return cmd
}
