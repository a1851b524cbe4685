package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/weft/internal/apperr"
	"github.com/example/weft/internal/core/identifier"
	"github.com/example/weft/internal/core/metrics"
	"github.com/example/weft/internal/core/stage"
	"github.com/example/weft/internal/jalali"
	"github.com/example/weft/internal/ports/primary"
	"github.com/example/weft/internal/ports/secondary"
)

// identifierAttempts bounds the create retry when two writers race the same
// bucket. The counter makes collisions near-impossible; a collision
// reseeds the counter from the stored identifiers before the next attempt.
const identifierAttempts = 3

// BatchServiceImpl implements the BatchService interface.
type BatchServiceImpl struct {
	batchRepo   secondary.BatchRepository
	counterRepo secondary.CounterRepository
	machineRepo secondary.MachineRepository
}

// NewBatchService creates a new BatchService with injected dependencies.
func NewBatchService(
	batchRepo secondary.BatchRepository,
	counterRepo secondary.CounterRepository,
	machineRepo secondary.MachineRepository,
) *BatchServiceImpl {
	return &BatchServiceImpl{
		batchRepo:   batchRepo,
		counterRepo: counterRepo,
		machineRepo: machineRepo,
	}
}

// CreateBatch registers a new batch, assigns its identifier, and computes
// its initial metadata bundle.
func (s *BatchServiceImpl) CreateBatch(ctx context.Context, req primary.CreateBatchRequest) (*primary.CreateBatchResponse, error) {
	st := stage.Stage(req.Stage)
	if !stage.Valid(st) {
		return nil, apperr.NewValidationError("unknown stage %q", req.Stage)
	}

	passNumber := req.PassNumber
	if st == stage.Passage {
		if passNumber == 0 {
			passNumber = 1
		}
		if passNumber < 1 || passNumber > 2 {
			return nil, apperr.NewValidationError("passage pass number must be 1 or 2, got %d", passNumber)
		}
	} else if passNumber != 0 {
		return nil, apperr.NewValidationError("pass number is only valid for passage batches")
	}

	record := &secondary.BatchRecord{
		Stage:          string(st),
		PassNumber:     passNumber,
		OperatorID:     req.OperatorID,
		OrderID:        req.OrderID,
		ProductionDate: time.Now().Format("2006-01-02"),
		Status:         "in_progress",
		InputWeight:    req.InputWeight,
		OutputWeight:   req.OutputWeight,
		WasteWeight:    req.WasteWeight,
		NepsCount:      req.NepsCount,
		EvennessCV:     req.EvennessCV,
		DraftRatio:     req.DraftRatio,
		TwistTPM:       req.TwistTPM,
		EfficiencyPct:  req.EfficiencyPct,
		ActiveSpindles: req.ActiveSpindles,
		TotalSpindles:  req.TotalSpindles,
		BreakageCount:  req.BreakageCount,
		Temperature:    req.Temperature,
		PH:             req.PH,
		LiquorRatio:    req.LiquorRatio,
		DurationMin:    req.DurationMin,
		QualityResult:  req.QualityResult,
	}

	if req.LineCode != "" {
		line, err := s.machineRepo.GetLineByCode(ctx, req.LineCode)
		if err != nil {
			return nil, err
		}
		record.LineID = line.ID
	}

	if st == stage.Fiber {
		if req.MachineCode != "" {
			return nil, apperr.NewValidationError("fiber receipts are not produced on a machine")
		}
	} else {
		if req.MachineCode == "" {
			return nil, apperr.NewValidationError("machine code is required for %s batches", st)
		}
		machine, err := s.machineRepo.GetByCode(ctx, req.MachineCode)
		if err != nil {
			return nil, err
		}
		if machine.MachineType != string(st) {
			return nil, apperr.NewValidationError("machine %s is a %s machine, not %s", machine.Code, machine.MachineType, st)
		}
		record.MachineID = machine.ID
		if record.LineID == "" {
			record.LineID = machine.LineID
		}
	}

	if req.ShiftCode != "" {
		shiftID, err := s.resolveShift(ctx, record.LineID, req.ShiftCode)
		if err != nil {
			return nil, err
		}
		record.ShiftID = shiftID
	}

	prefix := stage.Prefix(st)
	if st == stage.Fiber {
		prefix = stage.FiberPrefix(req.FiberType)
	}

	if err := s.createWithIdentifier(ctx, record, prefix); err != nil {
		return nil, err
	}

	if err := s.recompute(ctx, record); err != nil {
		return nil, err
	}

	created, err := s.batchRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created batch: %w", err)
	}

	return &primary.CreateBatchResponse{
		BatchID:    created.ID,
		Identifier: created.Identifier,
		Batch:      recordToBatch(created),
	}, nil
}

// createWithIdentifier allocates a sequence from the counter and inserts
// the batch, retrying on identifier collision.
func (s *BatchServiceImpl) createWithIdentifier(ctx context.Context, record *secondary.BatchRecord, prefix string) error {
	bucket := jalali.TodayBucket()

	var lastErr error
	for attempt := 0; attempt < identifierAttempts; attempt++ {
		seq, err := s.counterRepo.Next(ctx, prefix, bucket)
		if err != nil {
			return fmt.Errorf("failed to allocate identifier sequence: %w", err)
		}

		record.ID = uuid.NewString()
		record.Identifier = identifier.Format(prefix, bucket, seq)

		err = s.batchRepo.Create(ctx, record)
		if err == nil {
			return nil
		}
		if !apperr.IsConflict(err) {
			return err
		}
		lastErr = err

		// A collision means rows exist that the counter has never seen,
		// e.g. a database restored from before the counter table. Fold
		// the greatest stored identifier back in before retrying.
		if err := s.reseedCounter(ctx, prefix, bucket); err != nil {
			return err
		}
	}

	return apperr.NewConflictError(
		fmt.Sprintf("could not allocate a free identifier for %s-%s after %d attempts", prefix, bucket, identifierAttempts),
		lastErr,
	)
}

// reseedCounter raises the counter floor for a bucket to the greatest
// sequence already stored in batches.
func (s *BatchServiceImpl) reseedCounter(ctx context.Context, prefix, bucket string) error {
	last, err := s.batchRepo.MaxIdentifier(ctx, identifier.Pattern(prefix, bucket)+"%")
	if err != nil {
		return fmt.Errorf("failed to scan identifiers for counter reseed: %w", err)
	}

	seq, ok := identifier.ParseSeq(last)
	if !ok {
		return nil
	}

	return s.counterRepo.Seed(ctx, prefix, bucket, seq)
}

// resolveShift finds a shift by code on the batch's line.
func (s *BatchServiceImpl) resolveShift(ctx context.Context, lineID, code string) (string, error) {
	if lineID == "" {
		return "", apperr.NewValidationError("shift %s cannot be resolved without a line", code)
	}
	shifts, err := s.machineRepo.ListShifts(ctx, lineID)
	if err != nil {
		return "", fmt.Errorf("failed to list shifts: %w", err)
	}
	for _, sh := range shifts {
		if sh.Code == code {
			return sh.ID, nil
		}
	}
	return "", apperr.NewNotFoundError("shift", code)
}

// GetBatch retrieves a batch by its identifier.
func (s *BatchServiceImpl) GetBatch(ctx context.Context, ident string) (*primary.Batch, error) {
	record, err := s.batchRepo.GetByIdentifier(ctx, ident)
	if err != nil {
		return nil, err
	}
	return recordToBatch(record), nil
}

// ListBatches lists batches with optional filters.
func (s *BatchServiceImpl) ListBatches(ctx context.Context, filters primary.BatchFilters) ([]*primary.Batch, error) {
	recordFilters := secondary.BatchFilters{
		Stage:          filters.Stage,
		Status:         filters.Status,
		ProductionDate: filters.ProductionDate,
		Limit:          filters.Limit,
	}

	if filters.MachineCode != "" {
		machine, err := s.machineRepo.GetByCode(ctx, filters.MachineCode)
		if err != nil {
			return nil, err
		}
		recordFilters.MachineID = machine.ID
	}

	records, err := s.batchRepo.List(ctx, recordFilters)
	if err != nil {
		return nil, err
	}

	batches := make([]*primary.Batch, 0, len(records))
	for _, r := range records {
		batches = append(batches, recordToBatch(r))
	}

	return batches, nil
}

// UpdateBatch rewrites a batch's measurements and recomputes its bundle.
func (s *BatchServiceImpl) UpdateBatch(ctx context.Context, req primary.UpdateBatchRequest) (*primary.Batch, error) {
	record, err := s.batchRepo.GetByIdentifier(ctx, req.Identifier)
	if err != nil {
		return nil, err
	}

	if record.Status == "cancelled" {
		return nil, apperr.NewValidationError("batch %s is cancelled and cannot be edited", req.Identifier)
	}

	applyMeasurements(record, req)

	if err := s.batchRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	if err := s.recompute(ctx, record); err != nil {
		return nil, err
	}

	updated, err := s.batchRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated batch: %w", err)
	}

	return recordToBatch(updated), nil
}

// CompleteBatch marks a batch completed and recomputes its bundle.
func (s *BatchServiceImpl) CompleteBatch(ctx context.Context, ident string) (*primary.Batch, error) {
	record, err := s.batchRepo.GetByIdentifier(ctx, ident)
	if err != nil {
		return nil, err
	}

	switch record.Status {
	case "in_progress", "quality_hold":
	case "completed":
		return nil, apperr.NewValidationError("batch %s is already completed", ident)
	default:
		return nil, apperr.NewValidationError("batch %s is %s and cannot be completed", ident, record.Status)
	}

	if err := s.batchRepo.UpdateStatus(ctx, record.ID, "completed", true); err != nil {
		return nil, err
	}

	record.Status = "completed"
	if err := s.recompute(ctx, record); err != nil {
		return nil, err
	}

	completed, err := s.batchRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completed batch: %w", err)
	}

	return recordToBatch(completed), nil
}

// HoldBatch places a batch on quality hold.
func (s *BatchServiceImpl) HoldBatch(ctx context.Context, ident string) error {
	record, err := s.batchRepo.GetByIdentifier(ctx, ident)
	if err != nil {
		return err
	}

	if record.Status != "in_progress" {
		return apperr.NewValidationError("only in-progress batches can be held, %s is %s", ident, record.Status)
	}

	return s.batchRepo.UpdateStatus(ctx, record.ID, "quality_hold", false)
}

// CancelBatch cancels a batch.
func (s *BatchServiceImpl) CancelBatch(ctx context.Context, ident string) error {
	record, err := s.batchRepo.GetByIdentifier(ctx, ident)
	if err != nil {
		return err
	}

	if record.Status == "completed" {
		return apperr.NewValidationError("batch %s is completed and cannot be cancelled", ident)
	}
	if record.Status == "cancelled" {
		return apperr.NewValidationError("batch %s is already cancelled", ident)
	}

	return s.batchRepo.UpdateStatus(ctx, record.ID, "cancelled", false)
}

// RecomputeMetrics rebuilds and persists a batch's metadata bundle.
func (s *BatchServiceImpl) RecomputeMetrics(ctx context.Context, ident string) (*metrics.Bundle, error) {
	record, err := s.batchRepo.GetByIdentifier(ctx, ident)
	if err != nil {
		return nil, err
	}

	bundle, err := s.persistBundle(ctx, record)
	if err != nil {
		return nil, err
	}

	return bundle, nil
}

// NextIdentifier allocates the next identifier for an arbitrary prefix
// without creating a batch. Used for work orders and customer orders.
func (s *BatchServiceImpl) NextIdentifier(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", apperr.NewValidationError("identifier prefix must not be empty")
	}

	bucket := jalali.TodayBucket()
	seq, err := s.counterRepo.Next(ctx, prefix, bucket)
	if err != nil {
		return "", fmt.Errorf("failed to allocate identifier sequence: %w", err)
	}

	return identifier.Format(prefix, bucket, seq), nil
}

// recompute runs the two-phase metadata refresh: compute the bundle from
// the record, then persist it through the dedicated write path.
func (s *BatchServiceImpl) recompute(ctx context.Context, record *secondary.BatchRecord) error {
	_, err := s.persistBundle(ctx, record)
	return err
}

func (s *BatchServiceImpl) persistBundle(ctx context.Context, record *secondary.BatchRecord) (*metrics.Bundle, error) {
	bundle := metrics.Compute(snapshotFromRecord(record), time.Now())

	raw, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata bundle: %w", err)
	}

	if err := s.batchRepo.UpdateMetadata(ctx, record.ID, string(raw)); err != nil {
		return nil, err
	}

	return &bundle, nil
}

// Ensure BatchServiceImpl implements the interface
var _ primary.BatchService = (*BatchServiceImpl)(nil)
