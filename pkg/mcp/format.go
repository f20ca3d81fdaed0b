package mcp

import (
	"fmt"
	"strings"

	"github.com/pario-ai/aigateway/pkg/models"
)

func formatQuotas(qs []models.Quota) string {
	if len(qs) == 0 {
		return "No quota found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-20s %-22s %12s %12s %6s %8s\n",
		"ID", "Use Case", "Model", "Limit", "Balance", "Used%", "Enabled")
	b.WriteString(strings.Repeat("-", 122) + "\n")
	for _, q := range qs {
		pct := float64(0)
		if q.Limit > 0 {
			pct = float64(q.Limit-q.Balance) / float64(q.Limit) * 100
		}
		fmt.Fprintf(&b, "%-36s %-20s %-22s %12d %12d %5.1f%% %8t\n",
			q.ID, q.UseCase.ID, q.Provider.Name+"/"+q.Provider.Model.Name,
			q.Limit, q.Balance, pct, q.Enabled)
	}
	return b.String()
}

// formatProviders lists models, keeping only genType when it is set.
func formatProviders(providers []models.Provider, genType models.GenerationType) string {
	var b strings.Builder
	rows := 0
	for _, p := range providers {
		for _, m := range p.Models {
			if genType != "" && m.Category.GenerationType != genType {
				continue
			}
			if rows == 0 {
				fmt.Fprintf(&b, "%-16s %-26s %-10s %10s %8s\n",
					"Provider", "Model", "Type", "Context", "Enabled")
				b.WriteString(strings.Repeat("-", 74) + "\n")
			}
			window := "-"
			if m.ContextWindow != nil {
				window = fmt.Sprint(*m.ContextWindow)
			}
			fmt.Fprintf(&b, "%-16s %-26s %-10s %10s %8t\n",
				p.Name, m.Name, m.Category.GenerationType, window, m.Enabled)
			rows++
		}
	}
	if rows == 0 {
		return "No models found."
	}
	return b.String()
}

func formatCost(model string, usage models.Usage, c *models.TokenCost) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cost estimate for %s\n", model)
	fmt.Fprintf(&b, "  Prompt tokens:     %d\n", usage.PromptTokens)
	fmt.Fprintf(&b, "  Completion tokens: %d\n", usage.Completion())
	if c.Prompt != nil {
		fmt.Fprintf(&b, "  Prompt cost:       %.6f %s\n", *c.Prompt, c.Price.Currency)
	}
	if c.Completion != nil {
		fmt.Fprintf(&b, "  Completion cost:   %.6f %s\n", *c.Completion, c.Price.Currency)
	}
	fmt.Fprintf(&b, "  Total:             %.6f %s\n", c.Total, c.Price.Currency)
	return b.String()
}
