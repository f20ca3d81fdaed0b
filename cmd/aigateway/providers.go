package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pario-ai/aigateway/pkg/config"
	"github.com/pario-ai/aigateway/pkg/models"
)

func newProvidersCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List catalog providers and models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			return writeProviders(cmd.OutOrStdout(), cat.Providers())
		},
	}
}

func writeProviders(out io.Writer, providers []models.Provider) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tMODEL\tTYPE\tCONTEXT\tENABLED")
	for _, p := range providers {
		for _, m := range p.Models {
			window := "-"
			if m.ContextWindow != nil {
				window = fmt.Sprint(*m.ContextWindow)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
				p.Name, m.Name, m.Category.GenerationType, window, m.Enabled)
		}
	}
	return w.Flush()
}
