package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "aigateway",
		Short:         "AI gateway with per-client token quotas",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "aigateway.yaml", "path to config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newQuotaCmd(&configPath),
		newProvidersCmd(&configPath),
		newCostCmd(&configPath),
		newMCPCmd(&configPath),
	)
	return root
}
