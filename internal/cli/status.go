package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/weft/internal/config"
	"github.com/example/weft/internal/jalali"
	"github.com/example/weft/internal/ports/primary"
	"github.com/example/weft/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's production at a glance",
		Long: `Display today's context: terminal defaults from .weft/config.json (if
present) and the batches recorded today.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			now := time.Now()

			fmt.Printf("weft status — %s (%s)\n", now.Format("2006-01-02"), jalali.Display(now))
			fmt.Println()

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			if cfg, err := config.LoadConfig(cwd); err == nil {
				if cfg.DefaultLine != "" {
					fmt.Printf("  Line: %s\n", cfg.DefaultLine)
				}
				if cfg.DefaultShift != "" {
					fmt.Printf("  Shift: %s\n", cfg.DefaultShift)
				}
				if cfg.OperatorID != "" {
					fmt.Printf("  Operator: %s\n", cfg.OperatorID)
				}
				fmt.Println()
			}

			batches, err := wire.BatchService().ListBatches(ctx, primary.BatchFilters{
				ProductionDate: now.Format("2006-01-02"),
			})
			if err != nil {
				return fmt.Errorf("failed to list today's batches: %w", err)
			}

			if len(batches) == 0 {
				fmt.Println("No batches recorded today.")
				return nil
			}

			byStatus := map[string]int{}
			flagged := 0
			for _, b := range batches {
				byStatus[b.Status]++
				if b.Metadata != nil && len(b.Metadata.AnomalyFlags) > 0 {
					flagged++
				}
			}

			fmt.Printf("Batches today: %d", len(batches))
			for _, status := range []string{"in_progress", "completed", "quality_hold", "cancelled"} {
				if n := byStatus[status]; n > 0 {
					fmt.Printf("  %s: %d", status, n)
				}
			}
			fmt.Println()
			if flagged > 0 {
				fmt.Printf("Batches with anomaly flags: %d\n", flagged)
			}

			return nil
		},
	}
}
