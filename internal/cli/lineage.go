package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/weft/internal/ports/primary"
	"github.com/example/weft/internal/wire"
)

// LineageCmd returns the lineage command
func LineageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineage",
		Short: "Manage batch lineage",
		Long:  `Link batches to their upstream material and trace ancestry back to fiber intake.`,
	}

	cmd.AddCommand(lineageAttachCmd())
	cmd.AddCommand(lineageInputsCmd())
	cmd.AddCommand(lineageTraceCmd())

	return cmd
}

func lineageAttachCmd() *cobra.Command {
	var (
		position int
		weight   float64
	)

	cmd := &cobra.Command{
		Use:   "attach [downstream] [source]",
		Short: "Attach a source batch as an input",
		Long: `Attach a source batch into a numbered input slot of a downstream
batch. Slots start at 1; passage machines merge up to 8 sliver cans,
every other stage takes a single input.

Examples:
  weft lineage attach SP-040610-003 FN-040609-001
  weft lineage attach PS-040610-001 CR-040609-004 --position 3 --weight 55.2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			req := primary.AttachInputRequest{
				DownstreamIdentifier: args[0],
				SourceIdentifier:     args[1],
				Position:             position,
			}
			if cmd.Flags().Changed("weight") {
				req.WeightUsed = &weight
			}

			input, err := wire.LineageService().AttachInput(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to attach input: %w", err)
			}

			fmt.Printf("✓ Attached %s to %s at position %d\n", args[1], args[0], input.Position)
			return nil
		},
	}

	cmd.Flags().IntVar(&position, "position", 1, "Input slot position")
	cmd.Flags().Float64Var(&weight, "weight", 0, "Weight drawn from the source in kg")

	return cmd
}

func lineageInputsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inputs [identifier]",
		Short: "List a batch's direct inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := wire.LineageService().ListInputs(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to list inputs: %w", err)
			}

			if len(inputs) == 0 {
				fmt.Printf("Batch %s has no recorded inputs.\n", args[0])
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "POS\tSOURCE\tSTAGE\tWEIGHT")
			fmt.Fprintln(w, "---\t------\t-----\t------")
			for _, in := range inputs {
				weight := "-"
				if in.WeightUsed != nil {
					weight = fmt.Sprintf("%.1f kg", *in.WeightUsed)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", in.Position, in.SourceIdentifier, in.SourceStage, weight)
			}
			w.Flush()
			return nil
		},
	}
}

func lineageTraceCmd() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "trace [identifier]",
		Short: "Trace a batch's ancestry",
		Long: `Walk a batch's lineage upstream, breadth-first, back toward fiber
intake. Shared ancestors are printed once.

Examples:
  weft lineage trace DY-040612-001
  weft lineage trace SP-040610-003 --depth 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			walker, err := wire.LineageService().ResolveLineage(ctx, args[0], depth)
			if err != nil {
				return fmt.Errorf("failed to resolve lineage: %w", err)
			}

			for {
				node, err := walker.Next(ctx)
				if err != nil {
					return fmt.Errorf("lineage walk failed: %w", err)
				}
				if node == nil {
					return nil
				}

				indent := strings.Repeat("  ", node.Depth)
				if node.Depth == 0 {
					fmt.Printf("%s (%s)\n", node.Identifier, node.Stage)
					continue
				}
				weight := ""
				if node.WeightUsed != nil {
					weight = fmt.Sprintf(", %.1f kg", *node.WeightUsed)
				}
				fmt.Printf("%s└─ %s (%s, slot %d%s)\n", indent, node.Identifier, node.Stage, node.Position, weight)
			}
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 0, "Maximum walk depth (default 10)")

	return cmd
}
