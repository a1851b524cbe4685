package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/weft/internal/ports/primary"
	"github.com/example/weft/internal/wire"
)

// MachineCmd returns the machine command
func MachineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "machine",
		Short: "Manage the plant registry",
		Long:  `Register machines and production lines and inspect the plant layout.`,
	}

	cmd.AddCommand(machineRegisterCmd())
	cmd.AddCommand(machineShowCmd())
	cmd.AddCommand(machineListCmd())
	cmd.AddCommand(lineAddCmd())
	cmd.AddCommand(lineListCmd())

	return cmd
}

func machineRegisterCmd() *cobra.Command {
	var (
		line        string
		code        string
		name        string
		machineType string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a machine on a line",
		Long: `Register a machine on a production line. The machine type fixes which
batch stage it can run.

Examples:
  weft machine register --line PP1 --code RING-03 --name "Ring frame 3" --type spinning
  weft machine register --line PP1 --code DYE-01 --type dyeing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			machine, err := wire.MachineService().RegisterMachine(context.Background(), primary.RegisterMachineRequest{
				LineCode:    line,
				Code:        code,
				Name:        name,
				MachineType: machineType,
			})
			if err != nil {
				return fmt.Errorf("failed to register machine: %w", err)
			}

			fmt.Printf("✓ Registered %s machine %s\n", machine.MachineType, machine.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&line, "line", "", "Production line code")
	cmd.Flags().StringVar(&code, "code", "", "Machine floor code")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&machineType, "type", "", "Machine type (stage it runs)")
	cmd.MarkFlagRequired("line")
	cmd.MarkFlagRequired("code")
	cmd.MarkFlagRequired("type")

	return cmd
}

func machineShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [code]",
		Short: "Show machine details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			machine, err := wire.MachineService().GetMachine(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("machine not found: %w", err)
			}

			fmt.Printf("Machine: %s\n", machine.Code)
			fmt.Printf("Name: %s\n", machine.Name)
			fmt.Printf("Type: %s\n", machine.MachineType)
			fmt.Printf("Status: %s\n", machine.Status)
			fmt.Printf("Created: %s\n", machine.CreatedAt)

			return nil
		},
	}
}

func machineListCmd() *cobra.Command {
	var (
		line   string
		status string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List machines",
		RunE: func(cmd *cobra.Command, args []string) error {
			machines, err := wire.MachineService().ListMachines(context.Background(), primary.MachineFilters{
				LineCode: line,
				Status:   status,
			})
			if err != nil {
				return fmt.Errorf("failed to list machines: %w", err)
			}

			if len(machines) == 0 {
				fmt.Println("No machines found.")
				fmt.Println()
				fmt.Println("Register your first machine:")
				fmt.Println("  weft machine register --line PP1 --code RING-01 --type spinning")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tTYPE\tSTATUS")
			fmt.Fprintln(w, "----\t----\t----\t------")
			for _, m := range machines {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Code, m.Name, m.MachineType, m.Status)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&line, "line", "", "Filter by production line code")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")

	return cmd
}

func lineAddCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "line-add [code]",
		Short: "Register a production line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := wire.MachineService().RegisterLine(context.Background(), primary.RegisterLineRequest{
				Code: args[0],
				Name: name,
			})
			if err != nil {
				return fmt.Errorf("failed to register line: %w", err)
			}

			fmt.Printf("✓ Registered line %s\n", line.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")

	return cmd
}

func lineListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "line-list",
		Short: "List production lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := wire.MachineService().ListLines(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list lines: %w", err)
			}

			if len(lines) == 0 {
				fmt.Println("No production lines found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tSTATUS")
			fmt.Fprintln(w, "----\t----\t------")
			for _, l := range lines {
				fmt.Fprintf(w, "%s\t%s\t%s\n", l.Code, l.Name, l.Status)
			}
			w.Flush()
			return nil
		},
	}
}
