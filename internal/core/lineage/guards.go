// Package lineage contains the pure business rules for attaching lineage
// edges. Guards evaluate preconditions without side effects; the sqlite
// layer adds the matching UNIQUE constraint so concurrent attaches for the
// same slot cannot silently overwrite each other.
package lineage

import (
	"fmt"

	"github.com/example/weft/internal/core/stage"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// AttachContext provides everything the attach guards need. The service
// layer resolves batches and aggregates before calling in.
type AttachContext struct {
	DownstreamID    string
	DownstreamStage stage.Stage
	DownstreamPass  int // passage pass number; zero elsewhere

	Position         int
	PositionOccupied bool

	SourceID    string
	SourceStage stage.Stage
	SourcePass  int

	// WeightUsed is the weight drawn from the source for this edge;
	// SourceRemaining is the source's output weight minus what earlier
	// edges already consumed. Both nil when the caller does not track
	// weight. Enforcement is the caller's choice.
	WeightUsed      *float64
	SourceRemaining *float64
	EnforceWeight   bool
}

// weightEpsilon absorbs scale noise when comparing consumed weights.
const weightEpsilon = 1e-9

// CanAttachInput evaluates whether a lineage edge may be attached.
// Rules:
//   - downstream stage must accept inputs, and position must fall in
//     [1, max] for that stage
//   - the position slot must be free
//   - the source stage tag must be permitted for the downstream stage
//   - a same-stage source must come from a strictly earlier pass
//   - a batch never feeds itself
//   - when weight tracking is enforced, the edge may not draw more than
//     the source has left
func CanAttachInput(ctx AttachContext) GuardResult {
	max := stage.MaxInputs(ctx.DownstreamStage)
	if max == 0 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("stage %s does not accept lineage inputs", ctx.DownstreamStage),
		}
	}

	if ctx.Position < 1 || ctx.Position > max {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("input position %d out of range [1, %d] for stage %s", ctx.Position, max, ctx.DownstreamStage),
		}
	}

	if ctx.PositionOccupied {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("input position %d already occupied on batch %s", ctx.Position, ctx.DownstreamID),
		}
	}

	if !stage.SourceAllowed(ctx.DownstreamStage, ctx.SourceStage) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("stage %s cannot draw from stage %s", ctx.DownstreamStage, ctx.SourceStage),
		}
	}

	if ctx.SourceID == ctx.DownstreamID {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("batch %s cannot feed itself", ctx.DownstreamID),
		}
	}

	if ctx.SourceStage == ctx.DownstreamStage && ctx.SourcePass >= ctx.DownstreamPass {
		return GuardResult{
			Allowed: false,
			Reason: fmt.Sprintf("same-stage source must come from an earlier pass (source pass %d, downstream pass %d)",
				ctx.SourcePass, ctx.DownstreamPass),
		}
	}

	if ctx.EnforceWeight && ctx.WeightUsed != nil && ctx.SourceRemaining != nil {
		if *ctx.WeightUsed > *ctx.SourceRemaining+weightEpsilon {
			return GuardResult{
				Allowed: false,
				Reason: fmt.Sprintf("weight %.3f kg exceeds remaining %.3f kg on source batch %s",
					*ctx.WeightUsed, *ctx.SourceRemaining, ctx.SourceID),
			}
		}
	}

	return GuardResult{Allowed: true}
}

// CheckWeightConservation reports whether output+waste stays within
// input*(1+epsilon). This is advisory: the engine records the violation in
// reports but never blocks a write on it.
func CheckWeightConservation(input, output, waste, epsilon float64) bool {
	return output+waste <= input*(1+epsilon)
}
