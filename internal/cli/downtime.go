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

// DowntimeCmd returns the downtime command
func DowntimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "downtime",
		Short: "Record and analyze machine stoppages",
		Long:  `Open and close downtime records, list a machine's stoppage history, and derive failure patterns.`,
	}

	cmd.AddCommand(downtimeOpenCmd())
	cmd.AddCommand(downtimeCloseCmd())
	cmd.AddCommand(downtimeListCmd())
	cmd.AddCommand(downtimePatternCmd())

	return cmd
}

func downtimeOpenCmd() *cobra.Command {
	var (
		machine  string
		reason   string
		detail   string
		shift    string
		startStr string
	)

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a downtime record",
		Long: `Record the start of a machine stoppage. The record stays open until
closed; duration is derived at close time.

Reasons: mechanical, electrical, material, operator, quality, planned, other

Examples:
  weft downtime open --machine RING-01 --reason mechanical --detail "traveller jam"
  weft downtime open --machine TFO-01 --reason planned --start 2026-08-31T06:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := primary.OpenDowntimeRequest{
				MachineCode:    machine,
				ReasonCategory: reason,
				ReasonDetail:   detail,
				ShiftCode:      shift,
			}
			if startStr != "" {
				start, err := time.Parse(time.RFC3339, startStr)
				if err != nil {
					return fmt.Errorf("invalid start time %q (want RFC3339): %w", startStr, err)
				}
				req.StartTime = start
			}

			dt, err := wire.DowntimeService().OpenDowntime(context.Background(), req)
			if err != nil {
				return fmt.Errorf("failed to open downtime: %w", err)
			}

			fmt.Printf("✓ Opened downtime %s on %s (%s)\n", dt.ID, dt.MachineCode, dt.ReasonCategory)
			return nil
		},
	}

	cmd.Flags().StringVar(&machine, "machine", "", "Machine floor code")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason category")
	cmd.Flags().StringVar(&detail, "detail", "", "Free-text detail")
	cmd.Flags().StringVar(&shift, "shift", "", "Shift code")
	cmd.Flags().StringVar(&startStr, "start", "", "Start time (RFC3339, default now)")
	cmd.MarkFlagRequired("machine")
	cmd.MarkFlagRequired("reason")

	return cmd
}

func downtimeCloseCmd() *cobra.Command {
	var (
		endStr string
		loss   float64
	)

	cmd := &cobra.Command{
		Use:   "close [downtime-id]",
		Short: "Close an open downtime record",
		Long: `Close an open stoppage. Duration is derived from start and end; the
machine's rolling health indicators are refreshed.

Examples:
  weft downtime close 7c9e1a2b-...
  weft downtime close 7c9e1a2b-... --end 2026-08-31T09:45:00Z --loss 18.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := primary.CloseDowntimeRequest{ID: args[0]}
			if endStr != "" {
				end, err := time.Parse(time.RFC3339, endStr)
				if err != nil {
					return fmt.Errorf("invalid end time %q (want RFC3339): %w", endStr, err)
				}
				req.EndTime = end
			}
			if cmd.Flags().Changed("loss") {
				req.ProductionLoss = &loss
			}

			dt, err := wire.DowntimeService().CloseDowntime(context.Background(), req)
			if err != nil {
				return fmt.Errorf("failed to close downtime: %w", err)
			}

			duration := 0
			if dt.DurationMin != nil {
				duration = *dt.DurationMin
			}
			fmt.Printf("✓ Closed downtime %s after %d min\n", dt.ID, duration)
			return nil
		},
	}

	cmd.Flags().StringVar(&endStr, "end", "", "End time (RFC3339, default now)")
	cmd.Flags().Float64Var(&loss, "loss", 0, "Production loss in kg")

	return cmd
}

func downtimeListCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "list [machine]",
		Short: "List a machine's stoppages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := wire.DowntimeService().ListDowntime(context.Background(), args[0], days)
			if err != nil {
				return fmt.Errorf("failed to list downtime: %w", err)
			}

			if len(list) == 0 {
				fmt.Printf("No downtime recorded for %s in the last %d days.\n", args[0], days)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tSTART\tDURATION\tREASON\tDETAIL")
			fmt.Fprintln(w, "--\t-----\t--------\t------\t------")
			for _, dt := range list {
				duration := "open"
				if dt.DurationMin != nil {
					duration = fmt.Sprintf("%d min", *dt.DurationMin)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					dt.ID,
					dt.StartTime,
					duration,
					dt.ReasonCategory,
					dt.ReasonDetail,
				)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Trailing window in days")

	return cmd
}

func downtimePatternCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "pattern [machine]",
		Short: "Analyze a machine's failure pattern",
		Long: `Derive failure statistics for one machine over a trailing window:
MTBF, MTTR, risk classification, reason breakdown, and weekly trend.

Examples:
  weft downtime pattern RING-01
  weft downtime pattern TFO-01 --days 60`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := wire.DowntimeService().AnalyzePattern(context.Background(), args[0], days)
			if err != nil {
				return fmt.Errorf("failed to analyze pattern: %w", err)
			}

			fmt.Printf("Downtime pattern for %s over %d days\n", args[0], pattern.PeriodDays)
			fmt.Println()
			fmt.Printf("  Failures: %d\n", pattern.TotalFailures)
			fmt.Printf("  MTBF: %.1f h\n", pattern.MTBFHours)
			fmt.Printf("  MTTR: %.1f min\n", pattern.MTTRMinutes)
			fmt.Printf("  Risk: %s\n", riskCell(pattern.RiskLevel))

			if len(pattern.ByReason) > 0 {
				fmt.Println()
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "REASON\tCOUNT\tTOTAL")
				fmt.Fprintln(w, "------\t-----\t-----")
				for _, r := range pattern.ByReason {
					fmt.Fprintf(w, "%s\t%d\t%d min\n", r.Reason, r.Count, r.TotalMin)
				}
				w.Flush()
			}

			if len(pattern.WeeklyTrend) > 0 {
				fmt.Println()
				fmt.Println("Weekly trend (oldest first):")
				for _, wk := range pattern.WeeklyTrend {
					fmt.Printf("  %s (%s): %d\n",
						wk.WeekStart.Format("2006-01-02"),
						jalali.Display(wk.WeekStart),
						wk.Count,
					)
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Trailing window in days")

	return cmd
}
