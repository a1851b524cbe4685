package app

import (
	"context"
	"testing"

	"github.com/example/weft/internal/apperr"
	"github.com/example/weft/internal/core/identifier"
	"github.com/example/weft/internal/jalali"
	"github.com/example/weft/internal/ports/secondary"
)

// newBatchFixture wires a BatchService against in-memory mocks with one
// line, one shift, and a handful of machines registered.
func newBatchFixture() (*BatchServiceImpl, *mockBatchRepo, *mockCounterRepo, *mockMachineRepo) {
	batchRepo := newMockBatchRepo()
	counterRepo := newMockCounterRepo()
	machineRepo := newMockMachineRepo()

	machineRepo.addLine("line-1", "PP1")
	machineRepo.addShift("shift-a", "line-1", "A")
	machineRepo.addMachine("machine-ring", "line-1", "RING-01", "spinning")
	machineRepo.addMachine("machine-card", "line-1", "CARD-01", "carding")

	svc := NewBatchService(batchRepo, counterRepo, machineRepo)
	return svc, batchRepo, counterRepo, machineRepo
}

func TestCreateBatchAssignsIdentifierAndBundle(t *testing.T) {
	svc, batchRepo, _, _ := newBatchFixture()
	ctx := context.Background()

	resp, err := svc.CreateBatch(ctx, newSpinningRequest())
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	want := identifier.Format("SP", jalali.TodayBucket(), 1)
	if resp.Identifier != want {
		t.Errorf("expected identifier %s, got %s", want, resp.Identifier)
	}
	if resp.Batch.Status != "in_progress" {
		t.Errorf("expected status in_progress, got %s", resp.Batch.Status)
	}
	if resp.Batch.MachineID != "machine-ring" {
		t.Errorf("expected machine machine-ring, got %s", resp.Batch.MachineID)
	}
	if resp.Batch.LineID != "line-1" {
		t.Errorf("expected line resolved from machine, got %q", resp.Batch.LineID)
	}
	if resp.Batch.ShiftID != "shift-a" {
		t.Errorf("expected shift resolved by code, got %q", resp.Batch.ShiftID)
	}

	// The bundle must arrive through the dedicated metadata write path.
	if _, ok := batchRepo.metadataBy[resp.BatchID]; !ok {
		t.Fatal("expected metadata bundle persisted via UpdateMetadata")
	}
	if resp.Batch.Metadata == nil {
		t.Fatal("expected decoded metadata bundle on response")
	}
	if resp.Batch.Metadata.YieldPct == nil {
		t.Error("expected yield in spinning bundle")
	}
	if _, ok := resp.Batch.Metadata.OEE["oee_simple"]; !ok {
		t.Error("expected oee_simple in spinning bundle")
	}
}

func TestCreateBatchUnknownStage(t *testing.T) {
	svc, _, _, _ := newBatchFixture()

	req := newSpinningRequest()
	req.Stage = "weaving"

	_, err := svc.CreateBatch(context.Background(), req)
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown stage, got %v", err)
	}
}

func TestCreateBatchPassNumberRules(t *testing.T) {
	svc, _, _, machineRepo := newBatchFixture()
	machineRepo.addMachine("machine-pass", "line-1", "PASS-01", "passage")
	ctx := context.Background()

	// Passage defaults to pass 1.
	resp, err := svc.CreateBatch(ctx, newBatchRequest("passage", "PASS-01"))
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	if resp.Batch.PassNumber != 1 {
		t.Errorf("expected default pass 1, got %d", resp.Batch.PassNumber)
	}

	req := newBatchRequest("passage", "PASS-01")
	req.PassNumber = 3
	if _, err := svc.CreateBatch(ctx, req); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for pass 3, got %v", err)
	}

	req = newSpinningRequest()
	req.PassNumber = 2
	if _, err := svc.CreateBatch(ctx, req); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for pass on non-passage batch, got %v", err)
	}
}

func TestCreateBatchFiberReceipt(t *testing.T) {
	svc, _, _, _ := newBatchFixture()
	ctx := context.Background()

	req := newBatchRequest("fiber", "")
	req.LineCode = "PP1"
	req.FiberType = "PES"
	req.InputWeight = fptr(520)

	resp, err := svc.CreateBatch(ctx, req)
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	want := identifier.Format("PES", jalali.TodayBucket(), 1)
	if resp.Identifier != want {
		t.Errorf("expected fiber identifier %s, got %s", want, resp.Identifier)
	}

	// A fiber receipt is not produced on a machine.
	req = newBatchRequest("fiber", "RING-01")
	if _, err := svc.CreateBatch(ctx, req); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for fiber with machine, got %v", err)
	}
}

func TestCreateBatchMachineTypeMismatch(t *testing.T) {
	svc, _, _, _ := newBatchFixture()

	req := newBatchRequest("carding", "RING-01")
	_, err := svc.CreateBatch(context.Background(), req)
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for stage/machine mismatch, got %v", err)
	}
}

func TestCreateBatchMissingMachine(t *testing.T) {
	svc, _, _, _ := newBatchFixture()

	req := newBatchRequest("spinning", "")
	if _, err := svc.CreateBatch(context.Background(), req); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for missing machine, got %v", err)
	}

	req = newBatchRequest("spinning", "RING-99")
	if _, err := svc.CreateBatch(context.Background(), req); !apperr.IsNotFound(err) {
		t.Errorf("expected not-found error for unknown machine, got %v", err)
	}
}

func TestCreateBatchRetriesOnIdentifierCollision(t *testing.T) {
	svc, batchRepo, counterRepo, _ := newBatchFixture()
	ctx := context.Background()

	// A legacy row already holds the first sequence while the counter
	// still reads zero.
	bucket := jalali.TodayBucket()
	legacy := newSpinningRecord("legacy", identifier.Format("SP", bucket, 1))
	batchRepo.batches[legacy.ID] = legacy

	resp, err := svc.CreateBatch(ctx, newSpinningRequest())
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	want := identifier.Format("SP", bucket, 2)
	if resp.Identifier != want {
		t.Errorf("expected retry to land on %s, got %s", want, resp.Identifier)
	}
	if got := counterRepo.counters["SP/"+bucket]; got != 2 {
		t.Errorf("expected counter advanced to 2, got %d", got)
	}
}

func TestCreateBatchReseedsCounterFromLegacyRows(t *testing.T) {
	svc, batchRepo, counterRepo, _ := newBatchFixture()
	ctx := context.Background()

	// Rows restored from an old database sit far ahead of the counter.
	bucket := jalali.TodayBucket()
	for _, seq := range []int{1, 14} {
		id := identifier.Format("SP", bucket, seq)
		batchRepo.batches[id] = newSpinningRecord(id, id)
	}

	resp, err := svc.CreateBatch(ctx, newSpinningRequest())
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	want := identifier.Format("SP", bucket, 15)
	if resp.Identifier != want {
		t.Errorf("expected allocation past the legacy rows at %s, got %s", want, resp.Identifier)
	}
	if got := counterRepo.counters["SP/"+bucket]; got != 15 {
		t.Errorf("expected counter reseeded to 15, got %d", got)
	}
}

// conflictingBatchRepo rejects every insert, as if another writer keeps
// winning the identifier race.
type conflictingBatchRepo struct {
	*mockBatchRepo
}

func (r *conflictingBatchRepo) Create(ctx context.Context, batch *secondary.BatchRecord) error {
	return apperr.NewConflictError("identifier "+batch.Identifier+" already taken", nil)
}

func TestCreateBatchGivesUpAfterBoundedRetries(t *testing.T) {
	batchRepo := &conflictingBatchRepo{mockBatchRepo: newMockBatchRepo()}
	machineRepo := newMockMachineRepo()
	machineRepo.addLine("line-1", "PP1")
	machineRepo.addShift("shift-a", "line-1", "A")
	machineRepo.addMachine("machine-ring", "line-1", "RING-01", "spinning")
	svc := NewBatchService(batchRepo, newMockCounterRepo(), machineRepo)

	_, err := svc.CreateBatch(context.Background(), newSpinningRequest())
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict after %d attempts, got %v", identifierAttempts, err)
	}
}

func TestCompleteBatchLifecycle(t *testing.T) {
	svc, _, _, _ := newBatchFixture()
	ctx := context.Background()

	resp, err := svc.CreateBatch(ctx, newSpinningRequest())
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	completed, err := svc.CompleteBatch(ctx, resp.Identifier)
	if err != nil {
		t.Fatalf("CompleteBatch failed: %v", err)
	}
	if completed.Status != "completed" {
		t.Errorf("expected status completed, got %s", completed.Status)
	}
	if completed.CompletedAt == "" {
		t.Error("expected completed_at stamped")
	}

	if _, err := svc.CompleteBatch(ctx, resp.Identifier); !apperr.IsValidation(err) {
		t.Errorf("expected validation error on double complete, got %v", err)
	}
}

func TestHoldBatchOnlyInProgress(t *testing.T) {
	svc, _, _, _ := newBatchFixture()
	ctx := context.Background()

	resp, err := svc.CreateBatch(ctx, newSpinningRequest())
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	if err := svc.HoldBatch(ctx, resp.Identifier); err != nil {
		t.Fatalf("HoldBatch failed: %v", err)
	}

	// A held batch can still be completed, but not held again.
	if err := svc.HoldBatch(ctx, resp.Identifier); !apperr.IsValidation(err) {
		t.Errorf("expected validation error on double hold, got %v", err)
	}
	if _, err := svc.CompleteBatch(ctx, resp.Identifier); err != nil {
		t.Errorf("expected held batch to complete, got %v", err)
	}
}

func TestCancelBatchRules(t *testing.T) {
	svc, _, _, _ := newBatchFixture()
	ctx := context.Background()

	resp, err := svc.CreateBatch(ctx, newSpinningRequest())
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	if err := svc.CancelBatch(ctx, resp.Identifier); err != nil {
		t.Fatalf("CancelBatch failed: %v", err)
	}
	if err := svc.CancelBatch(ctx, resp.Identifier); !apperr.IsValidation(err) {
		t.Errorf("expected validation error on double cancel, got %v", err)
	}

	other, err := svc.CreateBatch(ctx, newSpinningRequest())
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	if _, err := svc.CompleteBatch(ctx, other.Identifier); err != nil {
		t.Fatalf("CompleteBatch failed: %v", err)
	}
	if err := svc.CancelBatch(ctx, other.Identifier); !apperr.IsValidation(err) {
		t.Errorf("expected validation error cancelling a completed batch, got %v", err)
	}
}

func TestUpdateBatchRecomputesBundle(t *testing.T) {
	svc, _, _, _ := newBatchFixture()
	ctx := context.Background()

	resp, err := svc.CreateBatch(ctx, newSpinningRequest())
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	req := newUpdateRequest(resp.Identifier)
	req.EfficiencyPct = fptr(55)

	updated, err := svc.UpdateBatch(ctx, req)
	if err != nil {
		t.Fatalf("UpdateBatch failed: %v", err)
	}
	if updated.EfficiencyPct == nil || *updated.EfficiencyPct != 55 {
		t.Fatalf("expected efficiency rewritten to 55, got %v", updated.EfficiencyPct)
	}
	if updated.Metadata == nil {
		t.Fatal("expected metadata bundle after update")
	}
	if !containsFlag(updated.Metadata.AnomalyFlags, "LOW_EFFICIENCY") {
		t.Errorf("expected LOW_EFFICIENCY flag after efficiency drop, got %v", updated.Metadata.AnomalyFlags)
	}

	if err := svc.CancelBatch(ctx, resp.Identifier); err != nil {
		t.Fatalf("CancelBatch failed: %v", err)
	}
	if _, err := svc.UpdateBatch(ctx, newUpdateRequest(resp.Identifier)); !apperr.IsValidation(err) {
		t.Errorf("expected validation error editing a cancelled batch, got %v", err)
	}
}

func TestNextIdentifierForOrders(t *testing.T) {
	svc, _, _, _ := newBatchFixture()
	ctx := context.Background()

	first, err := svc.NextIdentifier(ctx, "ORD")
	if err != nil {
		t.Fatalf("NextIdentifier failed: %v", err)
	}
	want := identifier.Format("ORD", jalali.TodayBucket(), 1)
	if first != want {
		t.Errorf("expected %s, got %s", want, first)
	}

	second, err := svc.NextIdentifier(ctx, "ORD")
	if err != nil {
		t.Fatalf("NextIdentifier failed: %v", err)
	}
	if second == first {
		t.Errorf("expected a fresh sequence, got %s twice", second)
	}

	if _, err := svc.NextIdentifier(ctx, ""); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty prefix, got %v", err)
	}
}

func containsFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
