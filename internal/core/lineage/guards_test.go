package lineage

import (
	"testing"

	"github.com/example/weft/internal/core/stage"
)

func fptr(v float64) *float64 { return &v }

func validCtx() AttachContext {
	return AttachContext{
		DownstreamID:    "batch-ps-1",
		DownstreamStage: stage.Passage,
		DownstreamPass:  1,
		Position:        1,
		SourceID:        "batch-cr-1",
		SourceStage:     stage.Carding,
	}
}

func TestCanAttachInput_Allowed(t *testing.T) {
	if res := CanAttachInput(validCtx()); !res.Allowed {
		t.Errorf("expected allowed, got: %s", res.Reason)
	}
}

func TestCanAttachInput_PositionRange(t *testing.T) {
	ctx := validCtx()
	ctx.Position = 0
	if res := CanAttachInput(ctx); res.Allowed {
		t.Error("position 0 should be rejected")
	}

	ctx.Position = 9
	if res := CanAttachInput(ctx); res.Allowed {
		t.Error("position 9 should be rejected when max is 8")
	}

	ctx.Position = 8
	if res := CanAttachInput(ctx); !res.Allowed {
		t.Errorf("position 8 should be allowed: %s", res.Reason)
	}
}

func TestCanAttachInput_OccupiedPosition(t *testing.T) {
	ctx := validCtx()
	ctx.PositionOccupied = true
	if res := CanAttachInput(ctx); res.Allowed {
		t.Error("occupied position should be rejected")
	}
}

func TestCanAttachInput_SourceStage(t *testing.T) {
	ctx := validCtx()
	ctx.SourceStage = stage.Blowroom
	if res := CanAttachInput(ctx); res.Allowed {
		t.Error("passage drawing from blowroom should be rejected")
	}
}

func TestCanAttachInput_SameStageRequiresEarlierPass(t *testing.T) {
	ctx := validCtx()
	ctx.DownstreamPass = 2
	ctx.SourceID = "batch-ps-0"
	ctx.SourceStage = stage.Passage
	ctx.SourcePass = 1
	if res := CanAttachInput(ctx); !res.Allowed {
		t.Errorf("second pass from first pass should be allowed: %s", res.Reason)
	}

	ctx.SourcePass = 2
	if res := CanAttachInput(ctx); res.Allowed {
		t.Error("same pass source should be rejected")
	}

	ctx.SourcePass = 3
	if res := CanAttachInput(ctx); res.Allowed {
		t.Error("later pass source should be rejected")
	}
}

func TestCanAttachInput_SelfReference(t *testing.T) {
	ctx := validCtx()
	ctx.DownstreamPass = 2
	ctx.SourceStage = stage.Passage
	ctx.SourcePass = 1
	ctx.SourceID = ctx.DownstreamID
	if res := CanAttachInput(ctx); res.Allowed {
		t.Error("self reference should be rejected")
	}
}

func TestCanAttachInput_StageWithoutInputs(t *testing.T) {
	ctx := validCtx()
	ctx.DownstreamStage = stage.Fiber
	if res := CanAttachInput(ctx); res.Allowed {
		t.Error("fiber batches take no inputs")
	}
}

func TestCanAttachInput_WeightBudget(t *testing.T) {
	ctx := validCtx()
	ctx.EnforceWeight = true
	ctx.WeightUsed = fptr(120)
	ctx.SourceRemaining = fptr(100)
	if res := CanAttachInput(ctx); res.Allowed {
		t.Error("over-budget weight should be rejected")
	}

	ctx.WeightUsed = fptr(100)
	if res := CanAttachInput(ctx); !res.Allowed {
		t.Errorf("exact remaining weight should be allowed: %s", res.Reason)
	}

	// Without enforcement the same numbers pass.
	ctx.EnforceWeight = false
	ctx.WeightUsed = fptr(120)
	if res := CanAttachInput(ctx); !res.Allowed {
		t.Errorf("unenforced weight should be allowed: %s", res.Reason)
	}
}

func TestCheckWeightConservation(t *testing.T) {
	if !CheckWeightConservation(500, 480, 15, 0.01) {
		t.Error("480+15 within 500*1.01 should hold")
	}
	if CheckWeightConservation(500, 480, 40, 0.01) {
		t.Error("480+40 above 500*1.01 should fail")
	}
}
