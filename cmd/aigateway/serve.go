package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pario-ai/aigateway/pkg/catalog"
	"github.com/pario-ai/aigateway/pkg/config"
	"github.com/pario-ai/aigateway/pkg/cost"
	"github.com/pario-ai/aigateway/pkg/driver"
	"github.com/pario-ai/aigateway/pkg/driver/azureopenai"
	"github.com/pario-ai/aigateway/pkg/gateway"
	"github.com/pario-ai/aigateway/pkg/ledger"
	"github.com/pario-ai/aigateway/pkg/logging"
	"github.com/pario-ai/aigateway/pkg/quota"
	"github.com/pario-ai/aigateway/pkg/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, closer, err := logging.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			defer func() { _ = closer.Close() }()
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := openLedger(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			pricer := cost.New(cat)
			drivers, err := buildDrivers(cfg, pricer, logger)
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			gw := gateway.New(cat, drivers, pricer, gateway.WithLogger(logger))
			quotas := quota.NewService(store, quota.WithLogger(logger))
			debits := quota.NewDebiter(quotas, cfg.Quota.Workers, cfg.Quota.QueueSize, logger)
			srv := server.New(cfg, gw, quotas, debits, logger)

			err = runServer(ctx, srv, debits)
			logger.Info("aigateway stopped")
			return err
		},
	}
}

type listener interface {
	ListenAndServe(ctx context.Context) error
}

type debitPool interface {
	Run(ctx context.Context) error
}

// runServer runs the listener and the debit pool until ctx is done or the
// listener fails. The pool drains only after the listener has stopped.
func runServer(ctx context.Context, srv listener, debits debitPool) error {
	g, gctx := errgroup.WithContext(ctx)
	drainCtx, drain := context.WithCancel(context.Background())
	g.Go(func() error {
		defer drain()
		return srv.ListenAndServe(gctx)
	})
	g.Go(func() error { return debits.Run(drainCtx) })
	return g.Wait()
}

func openLedger(ctx context.Context, cfg *config.Config) (ledger.Store, error) {
	store, err := ledger.Open(ctx, cfg.Ledger.DSN, ledger.Options{
		Database: cfg.Ledger.Database,
		Prefix:   cfg.Ledger.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return store, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.Path == "" {
		return catalog.Default(), nil
	}
	cat := catalog.FromFile(cfg.Catalog.Path)
	if err := cat.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

// buildDrivers creates one driver per configured provider.
func buildDrivers(cfg *config.Config, pricer driver.Pricer, logger *slog.Logger) (*driver.Registry, error) {
	reg := driver.NewRegistry()
	for _, p := range cfg.Providers {
		switch p.Type {
		case "", azureopenai.Name:
			opts := []azureopenai.Option{
				azureopenai.WithName(p.Name),
				azureopenai.WithHTTPClient(providerHTTPClient(p)),
				azureopenai.WithPricer(pricer),
				azureopenai.WithLogger(logger.With("provider", p.Name)),
			}
			if p.APIVersion != "" {
				opts = append(opts, azureopenai.WithAPIVersion(p.APIVersion))
			}
			if len(p.Deployments) > 0 {
				opts = append(opts, azureopenai.WithDeployments(p.Deployments))
			}
			reg.Register(azureopenai.New(p.Endpoint, p.APIKey, opts...))
		default:
			return nil, fmt.Errorf("provider %q: unsupported type %q", p.Name, p.Type)
		}
	}
	return reg, nil
}

func providerHTTPClient(p config.ProviderConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if p.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Timeout: p.Timeout, Transport: transport}
}
