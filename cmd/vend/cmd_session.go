package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/virtual_vend/internal/render"
	"github.com/Skotchmaster/virtual_vend/internal/storefront"
	"github.com/Skotchmaster/virtual_vend/models"
	"github.com/Skotchmaster/virtual_vend/pkg/vendclient"
)

// vend login <username> -p <password>
func loginCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and store the session locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.sf.SignIn(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Signed in as %s (%s)\n", u.Username, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// vend signup <username> -p <password> [--role seller]
func signupCmd(a *app) *cobra.Command {
	var password, role string
	cmd := &cobra.Command{
		Use:   "signup <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := models.Role(role)
			if !r.Valid() {
				return fmt.Errorf("role must be buyer or seller, got %q", role)
			}
			u, err := a.sf.SignUp(cmd.Context(), args[0], password, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Created %s (%s)\n", u.Username, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&role, "role", string(models.RoleBuyer), "buyer or seller")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// vend logout [--all]
func logoutCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session, or every session with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.sf.Resume(ctx); err != nil {
				return err
			}
			logout := a.sf.Logout
			if all {
				logout = a.sf.LogoutAll
			}
			if err := logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Logged out")
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "log out from all devices")
	return cmd
}

// vend whoami
func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored user and token expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.sf.Resume(ctx); err != nil {
				if errors.Is(err, storefront.ErrLoginRequired) {
					fmt.Fprintln(a.stdout, "Not signed in")
					return nil
				}
				return err
			}

			st := a.sf.State()
			fmt.Fprintf(a.stdout, "%s (%s) id=%d\n", st.User.Username, st.User.Role, st.User.ID)
			if st.User.Role == models.RoleBuyer {
				fmt.Fprintf(a.stdout, "Balance: %s\n", render.Money(st.Balance))
			}

			access, err := a.session.AccessToken(ctx)
			if err != nil {
				return err
			}
			if exp, err := vendclient.TokenExpiry(access); err == nil {
				fmt.Fprintf(a.stdout, "Access token expires %s\n", exp.Local().Format(time.RFC3339))
			}
			return nil
		},
	}
}

// vend alert dismiss
func alertCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Manage the active-sessions banner",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dismiss",
		Short: "Hide the active-sessions banner until next login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sf.Resume(cmd.Context()); err != nil {
				return err
			}
			return a.sf.DismissAlert(cmd.Context())
		},
	})
	return cmd
}
