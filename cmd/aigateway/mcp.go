package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pario-ai/aigateway/pkg/config"
	"github.com/pario-ai/aigateway/pkg/cost"
	"github.com/pario-ai/aigateway/pkg/logging"
	"github.com/pario-ai/aigateway/pkg/mcp"
	"github.com/pario-ai/aigateway/pkg/quota"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve quota and cost inspection tools over MCP (stdio)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			// stdout carries the protocol; logs go to stderr or the log file.
			logger, closer, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

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
			srv := mcp.New(quota.NewService(store, quota.WithLogger(logger)), cat, cost.New(cat), logger, version)
			return srv.Run(ctx, os.Stdin, os.Stdout)
		},
	}
}
