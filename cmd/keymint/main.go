package main

import (
	"os"

	"github.com/spf13/cobra"

	"keymint/internal/interfaces/cli/generate"
	"keymint/internal/interfaces/cli/migrate"
	"keymint/internal/interfaces/cli/sweep"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "keymint",
		Short: "Keymint - license key management core",
		Long:  `Keymint manages license keys, per-instance activations and batch key generation, with migration and maintenance tooling.`,
	}

	rootCmd.AddCommand(
		migrate.NewCommand(),
		generate.NewCommand(),
		sweep.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
