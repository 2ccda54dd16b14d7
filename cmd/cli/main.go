package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "biasaudit-cli",
		Short:        "Audit risk scores for demographic bias from the terminal",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newAuditCmd(),
		newGenerateCmd(),
		newAnalyzeCmd(),
		newMigrateCmd(),
		newHistoryCmd(),
	)
	return rootCmd
}

func main() {
	// Environment only matters for analyze, migrate and history
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
