package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/weft/internal/db"
)

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo fixtures",
		Long: `Load a small demo plant into the database: one line, three shifts,
a machine park, a full fiber-to-spinning batch chain with lineage, and a
downtime history. Intended for trying the tool out, not for production
databases.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.GetDB()
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}

			if err := db.SeedFixtures(database); err != nil {
				return fmt.Errorf("failed to seed fixtures: %w", err)
			}

			fmt.Println("✓ Demo fixtures loaded")
			fmt.Println()
			fmt.Println("Try:")
			fmt.Println("  weft batch list")
			fmt.Println("  weft lineage trace SP-*  (see `weft batch list` for the identifier)")
			fmt.Println("  weft fleet health")

			return nil
		},
	}
}
