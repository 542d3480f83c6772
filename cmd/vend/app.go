package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/virtual_vend/internal/render"
	"github.com/Skotchmaster/virtual_vend/internal/session"
	"github.com/Skotchmaster/virtual_vend/internal/storage"
	"github.com/Skotchmaster/virtual_vend/internal/storefront"
	"github.com/Skotchmaster/virtual_vend/pkg/config"
	"github.com/Skotchmaster/virtual_vend/pkg/logging"
	"github.com/Skotchmaster/virtual_vend/pkg/vendclient"
)

// app is everything a command needs, built once per invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	flags struct {
		api      string
		store    string
		dsn      string
		logLevel string
	}

	cfg     config.Config
	logger  *slog.Logger
	store   storage.Store
	session *session.Session
	client  *vendclient.Client
	sf      *storefront.Storefront
}

func (a *app) boot(cmd *cobra.Command) error {
	// a missing .env is fine, the environment may carry everything
	_ = godotenv.Load(".env")

	cfg := config.Load()
	if cmd.Flags().Changed("api") {
		cfg.APIURL = a.flags.api
	}
	if cmd.Flags().Changed("store") {
		cfg.StoreDriver = a.flags.store
	}
	if cmd.Flags().Changed("dsn") {
		cfg.StoreDSN = a.flags.dsn
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.NewWithWriter(a.stderr, cfg.LogLevel).With("app", "vend")
	slog.SetDefault(a.logger)
	ctx := logging.IntoContext(cmd.Context(), a.logger)
	cmd.SetContext(ctx)

	store, err := storage.Open(ctx, storage.Options{
		Driver:        cfg.StoreDriver,
		DSN:           cfg.StoreDSN,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.store = store

	a.session = session.New(store)
	a.client = vendclient.NewClient(cfg.APIURL, a.session, vendclient.WithTimeout(cfg.HTTPTimeout))
	a.sf = storefront.New(a.client, a.session, storefront.NotifierFunc(func(n storefront.Notice) {
		_ = render.Notice(a.stderr, n)
	}))

	a.logger.Debug("booted", "api", cfg.APIURL, "store", cfg.StoreDriver)
	return nil
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil && a.logger != nil {
		a.logger.Warn("store_close_failed", "error", err)
	}
	a.store = nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "vend",
		Short:         "Virtual Vend terminal client",
		Long:          "vend talks to a Virtual Vend backend: buyers deposit coins and buy products, sellers manage their listings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.boot(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.api, "api", "", "backend base URL (VEND_API_URL)")
	pf.StringVar(&a.flags.store, "store", "", "session store driver: sqlite, postgres, redis or memory (VEND_STORE_DRIVER)")
	pf.StringVar(&a.flags.dsn, "dsn", "", "session store DSN (VEND_STORE_DSN)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")

	// Session
	root.AddCommand(loginCmd(a))
	root.AddCommand(signupCmd(a))
	root.AddCommand(logoutCmd(a))
	root.AddCommand(whoamiCmd(a))
	root.AddCommand(alertCmd(a))

	// Storefront
	root.AddCommand(statusCmd(a))
	root.AddCommand(productsCmd(a))
	root.AddCommand(depositCmd(a))
	root.AddCommand(buyCmd(a))
	root.AddCommand(resetCmd(a))
	root.AddCommand(productCmd(a))

	return root
}
