package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/weft/internal/wire"
)

// FleetCmd returns the fleet command
func FleetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Plant-wide machine health",
		Long:  `Aggregate per-machine analytics into a fleet report, most-at-risk machines first.`,
	}

	cmd.AddCommand(fleetHealthCmd())

	return cmd
}

func fleetHealthCmd() *cobra.Command {
	var line string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show the fleet health report",
		Long: `Assemble today's health row for every active machine: current OEE,
availability, maintenance risk, MTBF, and 30-day failure count.

Examples:
  weft fleet health
  weft fleet health --line PP1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := wire.FleetService().FleetHealth(context.Background(), line)
			if err != nil {
				return fmt.Errorf("failed to build fleet report: %w", err)
			}

			if len(rows) == 0 {
				fmt.Println("No active machines found.")
				fmt.Println()
				fmt.Println("Register machines first:")
				fmt.Println("  weft machine register --line PP1 --code RING-01 --type spinning")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "RISK\tMACHINE\tSECTION\tLINE\tOEE\tAVAIL\tMTBF\tFAILS(30D)")
			fmt.Fprintln(w, "----\t-------\t-------\t----\t---\t-----\t----\t----------")
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%.1f\t%.0f h\t%d\n",
					riskCell(row.RiskLevel),
					row.Code,
					row.Section,
					row.Line,
					row.OEEToday,
					row.Availability,
					row.MTBFHours,
					row.Failures30d,
				)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&line, "line", "", "Narrow the report to one production line")

	return cmd
}
