package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pario-ai/aigateway/pkg/catalog"
	"github.com/pario-ai/aigateway/pkg/config"
	"github.com/pario-ai/aigateway/pkg/cost"
	"github.com/pario-ai/aigateway/pkg/models"
)

type costRow struct {
	Model string
	Cost  *models.Cost
}

func newCostCmd(configPath *string) *cobra.Command {
	var (
		model            string
		promptTokens     int
		completionTokens int
	)

	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Estimate the text cost of a token usage per model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			usage := models.Usage{PromptTokens: promptTokens, TotalTokens: promptTokens + completionTokens}
			if completionTokens > 0 {
				usage.CompletionTokens = &completionTokens
			}
			fmt.Fprint(cmd.OutOrStdout(), formatCostTable(estimate(cat, model, usage)))
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model name (default: every priced text model)")
	cmd.Flags().IntVar(&promptTokens, "prompt-tokens", 1000, "prompt tokens")
	cmd.Flags().IntVar(&completionTokens, "completion-tokens", 0, "completion tokens")
	return cmd
}

// estimate prices usage against model, or against every model of the
// catalog when model is empty. Unpriced models are skipped.
func estimate(cat catalog.Provider, model string, usage models.Usage) []costRow {
	calc := cost.New(cat)
	var names []string
	if model != "" {
		names = []string{model}
	} else {
		for _, p := range cat.Providers() {
			for _, m := range p.Models {
				names = append(names, m.Name)
			}
		}
	}

	var rows []costRow
	for _, n := range names {
		if c := calc.Add(n, usage, cost.Text); c != nil {
			rows = append(rows, costRow{Model: n, Cost: c})
		}
	}
	return rows
}

func formatCostTable(rows []costRow) string {
	if len(rows) == 0 {
		return "No priced model found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-28s %10s %12s %12s %12s\n",
		"MODEL", "CURRENCY", "PROMPT", "COMPLETION", "TOTAL")
	b.WriteString(strings.Repeat("-", 78) + "\n")
	for _, r := range rows {
		t := r.Cost.Token
		fmt.Fprintf(&b, "%-28s %10s %12.6f %12.6f %12.6f\n",
			r.Model, t.Price.Currency, derefOr(t.Prompt, t.Total), derefOr(t.Completion, 0), t.Total)
	}
	return b.String()
}

func derefOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
