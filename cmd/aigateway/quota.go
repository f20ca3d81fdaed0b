package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pario-ai/aigateway/pkg/config"
	"github.com/pario-ai/aigateway/pkg/gateway"
	"github.com/pario-ai/aigateway/pkg/models"
	"github.com/pario-ai/aigateway/pkg/quota"
)

type quotaFlags struct {
	useCase  string
	provider string
	model    string
}

func (f *quotaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.useCase, "use-case", "", "use case (client_id) the quota belongs to")
	cmd.Flags().StringVar(&f.provider, "provider", "azure_openai", "provider name")
	cmd.Flags().StringVar(&f.model, "model", "", "model name")
	_ = cmd.MarkFlagRequired("use-case")
	_ = cmd.MarkFlagRequired("model")
}

func (f *quotaFlags) key() quota.Key {
	return quota.Key{UseCaseID: f.useCase, ProviderName: f.provider, ModelName: f.model}
}

func newQuotaCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Manage token quotas in the ledger",
	}

	var (
		createFlags quotaFlags
		limit       int64
		name        string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a quota, disabling any previous one for the same tuple",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQuotas(cmd.Context(), *configPath, func(cfg *config.Config, svc *quota.Service) error {
				if err := validateTuple(cfg, createFlags.provider, createFlags.model); err != nil {
					return err
				}
				q, err := svc.Create(cmd.Context(), quota.CreateRequest{
					Unit:     models.QuotaUnitTokens,
					Limit:    limit,
					UseCase:  models.UseCase{ID: createFlags.useCase, Name: name},
					Provider: models.ProviderRef{Name: createFlags.provider, Model: models.ModelRef{Name: createFlags.model}},
				})
				if err != nil {
					return err
				}
				return writeQuotas(cmd.OutOrStdout(), []models.Quota{q})
			})
		},
	}
	createFlags.register(createCmd)
	createCmd.Flags().Int64Var(&limit, "limit", 0, "token limit")
	createCmd.Flags().StringVar(&name, "name", "", "use case display name")
	_ = createCmd.MarkFlagRequired("limit")

	var (
		listFlags quotaFlags
		all       bool
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show quotas of a tuple",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQuotas(cmd.Context(), *configPath, func(_ *config.Config, svc *quota.Service) error {
				var enabled *bool
				if !all {
					v := true
					enabled = &v
				}
				qs, err := svc.Retrieve(cmd.Context(), listFlags.key(), enabled)
				if err != nil {
					return err
				}
				return writeQuotas(cmd.OutOrStdout(), qs)
			})
		},
	}
	listFlags.register(listCmd)
	listCmd.Flags().BoolVar(&all, "all", false, "include disabled quotas")

	var disableFlags quotaFlags
	disableCmd := &cobra.Command{
		Use:   "disable",
		Short: "Disable the active quota of a tuple",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQuotas(cmd.Context(), *configPath, func(_ *config.Config, svc *quota.Service) error {
				q, err := svc.Update(cmd.Context(), disableFlags.key(), nil, false)
				if err != nil {
					return err
				}
				return writeQuotas(cmd.OutOrStdout(), []models.Quota{q})
			})
		},
	}
	disableFlags.register(disableCmd)

	cmd.AddCommand(createCmd, listCmd, disableCmd)
	return cmd
}

func withQuotas(ctx context.Context, configPath string, fn func(*config.Config, *quota.Service) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	store, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(cfg, quota.NewService(store, quota.WithLogger(discardLogger())))
}

func validateTuple(cfg *config.Config, provider, model string) error {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	if err := gateway.ValidateProviderName(cat, provider); err != nil {
		return err
	}
	return gateway.ValidateModelName(cat, model)
}

func writeQuotas(out io.Writer, qs []models.Quota) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSE CASE\tPROVIDER\tMODEL\tLIMIT\tBALANCE\tENABLED\tCREATED")
	for _, q := range qs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%t\t%s\n",
			q.ID, q.UseCase.ID, q.Provider.Name, q.Provider.Model.Name,
			q.Limit, q.Balance, q.Enabled, q.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
