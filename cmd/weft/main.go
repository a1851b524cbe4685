package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/weft/internal/cli"
	"github.com/example/weft/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "weft",
		Short:   "weft - production tracking for the spinning mill",
		Version: version.String(),
		Long: `weft is a CLI tool for tracking yarn production batches through the
spinning chain, linking their lineage back to fiber intake, and deriving
per-machine analytics: yield, OEE, downtime patterns, and fleet health.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.SeedCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.BatchCmd())
	rootCmd.AddCommand(cli.LineageCmd())
	rootCmd.AddCommand(cli.MachineCmd())
	rootCmd.AddCommand(cli.DowntimeCmd())
	rootCmd.AddCommand(cli.OEECmd())
	rootCmd.AddCommand(cli.FleetCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
