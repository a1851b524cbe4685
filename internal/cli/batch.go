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

// BatchCmd returns the batch command
func BatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Manage production batches",
		Long:  `Create and track production batches through the spinning chain, from fiber intake to dyeing.`,
	}

	cmd.AddCommand(batchCreateCmd())
	cmd.AddCommand(batchShowCmd())
	cmd.AddCommand(batchListCmd())
	cmd.AddCommand(batchUpdateCmd())
	cmd.AddCommand(batchCompleteCmd())
	cmd.AddCommand(batchHoldCmd())
	cmd.AddCommand(batchCancelCmd())
	cmd.AddCommand(batchRecomputeCmd())
	cmd.AddCommand(batchNextIDCmd())

	return cmd
}

// measurementFlags declares the optional measurement flags shared by
// create and update. Values flow into the request only when the operator
// actually set the flag; an untouched flag means "not recorded".
type measurementFlags struct {
	inputWeight  float64
	outputWeight float64
	wasteWeight  float64

	nepsCount int

	evennessCV float64
	draftRatio float64

	twistTPM       float64
	efficiencyPct  float64
	activeSpindles int
	totalSpindles  int
	breakageCount  int

	temperature float64
	ph          float64
	liquorRatio float64
	durationMin int

	qualityResult string
}

func (m *measurementFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&m.inputWeight, "input-weight", 0, "Input weight in kg")
	f.Float64Var(&m.outputWeight, "output-weight", 0, "Output weight in kg")
	f.Float64Var(&m.wasteWeight, "waste-weight", 0, "Waste weight in kg")
	f.IntVar(&m.nepsCount, "neps", 0, "Neps count (carding)")
	f.Float64Var(&m.evennessCV, "evenness-cv", 0, "Evenness CV%% (passage)")
	f.Float64Var(&m.draftRatio, "draft-ratio", 0, "Draft ratio (passage)")
	f.Float64Var(&m.twistTPM, "twist", 0, "Twist in turns per meter (spinning)")
	f.Float64Var(&m.efficiencyPct, "efficiency", 0, "Machine efficiency %% (spinning)")
	f.IntVar(&m.activeSpindles, "active-spindles", 0, "Active spindle count (spinning)")
	f.IntVar(&m.totalSpindles, "total-spindles", 0, "Total spindle count (spinning)")
	f.IntVar(&m.breakageCount, "breakage", 0, "End-break count (spinning)")
	f.Float64Var(&m.temperature, "temperature", 0, "Bath temperature °C (dyeing)")
	f.Float64Var(&m.ph, "ph", 0, "Bath pH (dyeing)")
	f.Float64Var(&m.liquorRatio, "liquor-ratio", 0, "Liquor ratio (dyeing)")
	f.IntVar(&m.durationMin, "duration", 0, "Process duration in minutes (dyeing)")
	f.StringVar(&m.qualityResult, "quality", "", "Quality result: pass or fail (dyeing)")
}

func (m *measurementFlags) floatIf(cmd *cobra.Command, name string, v *float64) *float64 {
	if cmd.Flags().Changed(name) {
		return v
	}
	return nil
}

func (m *measurementFlags) intIf(cmd *cobra.Command, name string, v *int) *int {
	if cmd.Flags().Changed(name) {
		return v
	}
	return nil
}

func batchCreateCmd() *cobra.Command {
	var (
		stageName string
		fiberType string
		pass      int
		line      string
		machine   string
		operator  string
		shift     string
		order     string
		m         measurementFlags
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new production batch",
		Long: `Create a new production batch at one stage of the chain.

The batch number is assigned automatically: stage prefix, Jalali date
bucket, and a per-day sequence (e.g. SP-040610-003).

Examples:
  weft batch create --stage fiber --fiber-type PES --line PP1 --input-weight 520
  weft batch create --stage spinning --machine RING-01 --shift A --efficiency 92 --active-spindles 400
  weft batch create --stage passage --machine PASS-01 --pass 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			req := primary.CreateBatchRequest{
				Stage:          stageName,
				FiberType:      fiberType,
				PassNumber:     pass,
				LineCode:       line,
				MachineCode:    machine,
				OperatorID:     operator,
				ShiftCode:      shift,
				OrderID:        order,
				InputWeight:    m.floatIf(cmd, "input-weight", &m.inputWeight),
				OutputWeight:   m.floatIf(cmd, "output-weight", &m.outputWeight),
				WasteWeight:    m.floatIf(cmd, "waste-weight", &m.wasteWeight),
				NepsCount:      m.intIf(cmd, "neps", &m.nepsCount),
				EvennessCV:     m.floatIf(cmd, "evenness-cv", &m.evennessCV),
				DraftRatio:     m.floatIf(cmd, "draft-ratio", &m.draftRatio),
				TwistTPM:       m.floatIf(cmd, "twist", &m.twistTPM),
				EfficiencyPct:  m.floatIf(cmd, "efficiency", &m.efficiencyPct),
				ActiveSpindles: m.intIf(cmd, "active-spindles", &m.activeSpindles),
				TotalSpindles:  m.intIf(cmd, "total-spindles", &m.totalSpindles),
				BreakageCount:  m.intIf(cmd, "breakage", &m.breakageCount),
				Temperature:    m.floatIf(cmd, "temperature", &m.temperature),
				PH:             m.floatIf(cmd, "ph", &m.ph),
				LiquorRatio:    m.floatIf(cmd, "liquor-ratio", &m.liquorRatio),
				DurationMin:    m.intIf(cmd, "duration", &m.durationMin),
				QualityResult:  m.qualityResult,
			}

			resp, err := wire.BatchService().CreateBatch(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to create batch: %w", err)
			}

			fmt.Printf("✓ Created %s batch %s\n", resp.Batch.Stage, resp.Identifier)
			printAnomalies(resp.Batch.Metadata)
			return nil
		},
	}

	cmd.Flags().StringVar(&stageName, "stage", "", "Production stage (fiber, blowroom, carding, passage, finisher, spinning, winding, tfo, heatset, dyeing)")
	cmd.Flags().StringVar(&fiberType, "fiber-type", "", "Fiber category code for fiber receipts (PES, ACR, WOL, VIS, NYL, COT)")
	cmd.Flags().IntVar(&pass, "pass", 0, "Passage pass number (1 or 2)")
	cmd.Flags().StringVar(&line, "line", "", "Production line code")
	cmd.Flags().StringVar(&machine, "machine", "", "Machine floor code")
	cmd.Flags().StringVar(&operator, "operator", "", "Operator ID")
	cmd.Flags().StringVar(&shift, "shift", "", "Shift code")
	cmd.Flags().StringVar(&order, "order", "", "Customer order ID")
	m.register(cmd)
	cmd.MarkFlagRequired("stage")

	return cmd
}

func batchShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [identifier]",
		Short: "Show batch details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			batch, err := wire.BatchService().GetBatch(ctx, args[0])
			if err != nil {
				return fmt.Errorf("batch not found: %w", err)
			}

			fmt.Printf("Batch: %s\n", batch.Identifier)
			fmt.Printf("Stage: %s", batch.Stage)
			if batch.PassNumber > 0 {
				fmt.Printf(" (pass %d)", batch.PassNumber)
			}
			fmt.Println()
			fmt.Printf("Status: %s\n", batch.Status)
			fmt.Printf("Production date: %s\n", batch.ProductionDate)
			if batch.MachineID != "" {
				fmt.Printf("Machine: %s\n", batch.MachineID)
			}
			if batch.OrderID != "" {
				fmt.Printf("Order: %s\n", batch.OrderID)
			}
			printWeight := func(label string, v *float64) {
				if v != nil {
					fmt.Printf("%s: %.1f kg\n", label, *v)
				}
			}
			printWeight("Input", batch.InputWeight)
			printWeight("Output", batch.OutputWeight)
			printWeight("Waste", batch.WasteWeight)

			if b := batch.Metadata; b != nil {
				fmt.Println()
				fmt.Printf("Derived (v%s, computed %s):\n", b.AIVersion, b.ComputedAt.Format("2006-01-02 15:04"))
				if b.YieldPct != nil {
					fmt.Printf("  Yield: %.2f%%\n", *b.YieldPct)
				}
				if b.WastePct != nil {
					fmt.Printf("  Waste: %.2f%%\n", *b.WastePct)
				}
				for k, v := range b.QualityMetrics {
					fmt.Printf("  %s: %g\n", k, v)
				}
				for k, v := range b.OEE {
					fmt.Printf("  %s: %g\n", k, v)
				}
				for k, v := range b.ProcessParams {
					fmt.Printf("  %s: %g\n", k, v)
				}
				printAnomalies(b)
			}

			return nil
		},
	}
}

func batchListCmd() *cobra.Command {
	var (
		stageName string
		machine   string
		status    string
		date      string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List batches",
		Long:  `List batches with optional filters, most recent first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			batches, err := wire.BatchService().ListBatches(ctx, primary.BatchFilters{
				Stage:          stageName,
				MachineCode:    machine,
				Status:         status,
				ProductionDate: date,
				Limit:          limit,
			})
			if err != nil {
				return fmt.Errorf("failed to list batches: %w", err)
			}

			if len(batches) == 0 {
				fmt.Println("No batches found.")
				fmt.Println()
				fmt.Println("Create your first batch:")
				fmt.Println("  weft batch create --stage fiber --fiber-type PES --line PP1")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "IDENTIFIER\tSTAGE\tSTATUS\tDATE\tOUTPUT\tFLAGS")
			fmt.Fprintln(w, "----------\t-----\t------\t----\t------\t-----")

			for _, b := range batches {
				output := "-"
				if b.OutputWeight != nil {
					output = fmt.Sprintf("%.1f", *b.OutputWeight)
				}
				flags := ""
				if b.Metadata != nil {
					flags = flagSummary(b.Metadata.AnomalyFlags)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					b.Identifier,
					b.Stage,
					b.Status,
					b.ProductionDate,
					output,
					flags,
				)
			}

			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&stageName, "stage", "", "Filter by stage")
	cmd.Flags().StringVar(&machine, "machine", "", "Filter by machine code")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&date, "date", "", "Filter by production date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows")

	return cmd
}

func batchUpdateCmd() *cobra.Command {
	var m measurementFlags

	cmd := &cobra.Command{
		Use:   "update [identifier]",
		Short: "Correct a batch's measurements",
		Long: `Rewrite measurement fields on an existing batch and recompute its
derived metrics. Only the flags you pass change; everything else keeps
its stored value.

Examples:
  weft batch update SP-040610-003 --efficiency 88.5 --breakage 31
  weft batch update DY-040610-001 --quality fail`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			req := primary.UpdateBatchRequest{
				Identifier:     args[0],
				InputWeight:    m.floatIf(cmd, "input-weight", &m.inputWeight),
				OutputWeight:   m.floatIf(cmd, "output-weight", &m.outputWeight),
				WasteWeight:    m.floatIf(cmd, "waste-weight", &m.wasteWeight),
				NepsCount:      m.intIf(cmd, "neps", &m.nepsCount),
				EvennessCV:     m.floatIf(cmd, "evenness-cv", &m.evennessCV),
				DraftRatio:     m.floatIf(cmd, "draft-ratio", &m.draftRatio),
				TwistTPM:       m.floatIf(cmd, "twist", &m.twistTPM),
				EfficiencyPct:  m.floatIf(cmd, "efficiency", &m.efficiencyPct),
				ActiveSpindles: m.intIf(cmd, "active-spindles", &m.activeSpindles),
				TotalSpindles:  m.intIf(cmd, "total-spindles", &m.totalSpindles),
				BreakageCount:  m.intIf(cmd, "breakage", &m.breakageCount),
				Temperature:    m.floatIf(cmd, "temperature", &m.temperature),
				PH:             m.floatIf(cmd, "ph", &m.ph),
				LiquorRatio:    m.floatIf(cmd, "liquor-ratio", &m.liquorRatio),
				DurationMin:    m.intIf(cmd, "duration", &m.durationMin),
				QualityResult:  m.qualityResult,
			}

			batch, err := wire.BatchService().UpdateBatch(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to update batch: %w", err)
			}

			fmt.Printf("✓ Updated batch %s\n", batch.Identifier)
			printAnomalies(batch.Metadata)
			return nil
		},
	}

	m.register(cmd)

	return cmd
}

func batchCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete [identifier]",
		Short: "Mark a batch completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := wire.BatchService().CompleteBatch(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to complete batch: %w", err)
			}

			fmt.Printf("✓ Batch %s completed\n", batch.Identifier)
			printAnomalies(batch.Metadata)
			return nil
		},
	}
}

func batchHoldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hold [identifier]",
		Short: "Place a batch on quality hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.BatchService().HoldBatch(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to hold batch: %w", err)
			}

			fmt.Printf("✓ Batch %s placed on quality hold\n", args[0])
			return nil
		},
	}
}

func batchCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [identifier]",
		Short: "Cancel a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.BatchService().CancelBatch(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to cancel batch: %w", err)
			}

			fmt.Printf("✓ Batch %s cancelled\n", args[0])
			return nil
		},
	}
}

func batchRecomputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute [identifier]",
		Short: "Rebuild a batch's derived metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := wire.BatchService().RecomputeMetrics(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to recompute metrics: %w", err)
			}

			fmt.Printf("✓ Recomputed metrics for %s\n", args[0])
			printAnomalies(bundle)
			return nil
		},
	}
}

func batchNextIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-id [prefix]",
		Short: "Allocate the next identifier for a prefix",
		Long: `Allocate the next identifier in today's bucket for an arbitrary
prefix, without creating a batch. Used for work orders and customer
orders.

Examples:
  weft batch next-id ORD
  weft batch next-id WO`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := wire.BatchService().NextIdentifier(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to allocate identifier: %w", err)
			}

			fmt.Println(id)
			return nil
		},
	}
}
