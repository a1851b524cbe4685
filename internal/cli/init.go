package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/weft/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the weft database",
		Long:  `Initialize the weft database at ~/.weft/weft.db with the required schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := db.GetDBPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}

			fmt.Printf("Initializing weft database at %s\n", dbPath)

			if err := db.InitSchema(); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}

			fmt.Println("✓ Database initialized successfully")
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  weft machine line-add PP1 --name \"Polyester line 1\"")
			fmt.Println("  weft machine register --line PP1 --code RING-01 --type spinning")
			fmt.Println("  weft batch create --stage fiber --fiber-type PES --line PP1")

			return nil
		},
	}
}
