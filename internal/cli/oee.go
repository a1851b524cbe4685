package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/weft/internal/jalali"
	"github.com/example/weft/internal/ports/primary"
	"github.com/example/weft/internal/wire"
)

// OEECmd returns the oee command
func OEECmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oee",
		Short: "Machine effectiveness analytics",
		Long:  `Compute daily OEE breakdowns and metric timeseries for ring machines.`,
	}

	cmd.AddCommand(oeeShowCmd())
	cmd.AddCommand(oeeRangeCmd())
	cmd.AddCommand(oeeTimeseriesCmd())

	return cmd
}

func oeeShowCmd() *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "show [machine]",
		Short: "Show one machine-day OEE breakdown",
		Long: `Compute the OEE breakdown for a machine on one day (default today).

Examples:
  weft oee show RING-01
  weft oee show RING-01 --date 2026-08-29`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now()
			if dateStr != "" {
				parsed, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", dateStr, err)
				}
				date = parsed
			}

			daily, err := wire.OEEService().ComputeOEE(context.Background(), args[0], date)
			if err != nil {
				return fmt.Errorf("failed to compute OEE: %w", err)
			}

			fmt.Printf("OEE for %s on %s (%s)\n", args[0], date.Format("2006-01-02"), jalali.Display(date))
			fmt.Println()
			fmt.Printf("  Availability: %6.2f%%  (%d min downtime)\n", daily.Availability, daily.DowntimeMin)
			fmt.Printf("  Performance:  %6.2f%%\n", daily.Performance)
			fmt.Printf("  Quality:      %6.2f%%  (%.1f breaks/1000 spindles)\n", daily.Quality, daily.BreakageRatePer1000)
			fmt.Printf("  OEE:          %6.2f%%\n", daily.OEE)
			fmt.Println()
			fmt.Printf("Completed spinning batches: %d\n", daily.BatchCount)

			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Production date (YYYY-MM-DD, default today)")

	return cmd
}

func oeeRangeCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "range [machine]",
		Short: "Show a machine's daily OEE over a trailing window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			iter, err := wire.OEEService().OEERange(ctx, args[0], days)
			if err != nil {
				return fmt.Errorf("failed to open OEE range: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "DATE\tJALALI\tAVAIL\tPERF\tQUAL\tOEE\tDOWNTIME\tBATCHES")
			fmt.Fprintln(w, "----\t------\t-----\t----\t----\t---\t--------\t-------")

			for {
				daily, err := iter.Next(ctx)
				if err != nil {
					return fmt.Errorf("OEE range walk failed: %w", err)
				}
				if daily == nil {
					break
				}
				fmt.Fprintf(w, "%s\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%d min\t%d\n",
					daily.Date.Format("2006-01-02"),
					jalali.Display(daily.Date),
					daily.Availability,
					daily.Performance,
					daily.Quality,
					daily.OEE,
					daily.DowntimeMin,
					daily.BatchCount,
				)
			}

			w.Flush()
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Trailing window in days")

	return cmd
}

func oeeTimeseriesCmd() *cobra.Command {
	var (
		metric string
		days   int
	)

	cmd := &cobra.Command{
		Use:   "timeseries [machine]",
		Short: "Show a daily metric timeseries",
		Long: `Aggregate one spinning metric per production day over a trailing
window.

Metrics: output_weight (sum), efficiency_pct (average), breakage_count (sum)

Examples:
  weft oee timeseries RING-01 --metric output_weight --days 14
  weft oee timeseries RING-01 --metric efficiency_pct`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := wire.OEEService().Timeseries(context.Background(), primary.TimeseriesRequest{
				MachineCode: args[0],
				Metric:      metric,
				Days:        days,
			})
			if err != nil {
				return fmt.Errorf("failed to build timeseries: %w", err)
			}

			if len(result.Points) == 0 {
				fmt.Printf("No %s data for %s in the last %d days.\n", result.Metric, args[0], result.Days)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "DATE\tVALUE")
			fmt.Fprintln(w, "----\t-----")
			for _, p := range result.Points {
				fmt.Fprintf(w, "%s\t%.2f\n", p.Date, p.Value)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&metric, "metric", "output_weight", "Metric to aggregate")
	cmd.Flags().IntVar(&days, "days", 30, "Trailing window in days")

	return cmd
}
