package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/weft/internal/apperr"
	"github.com/example/weft/internal/core/downtime"
	"github.com/example/weft/internal/core/metrics"
	"github.com/example/weft/internal/ports/primary"
	"github.com/example/weft/internal/ports/secondary"
)

// DowntimeServiceImpl implements the DowntimeService interface.
type DowntimeServiceImpl struct {
	downtimeRepo secondary.DowntimeRepository
	machineRepo  secondary.MachineRepository
}

// NewDowntimeService creates a new DowntimeService with injected dependencies.
func NewDowntimeService(
	downtimeRepo secondary.DowntimeRepository,
	machineRepo secondary.MachineRepository,
) *DowntimeServiceImpl {
	return &DowntimeServiceImpl{
		downtimeRepo: downtimeRepo,
		machineRepo:  machineRepo,
	}
}

// OpenDowntime records the start of a stoppage.
func (s *DowntimeServiceImpl) OpenDowntime(ctx context.Context, req primary.OpenDowntimeRequest) (*primary.Downtime, error) {
	if !downtime.ValidReason(downtime.Reason(req.ReasonCategory)) {
		return nil, apperr.NewValidationError("unknown downtime reason %q", req.ReasonCategory)
	}

	machine, err := s.machineRepo.GetByCode(ctx, req.MachineCode)
	if err != nil {
		return nil, err
	}

	start := req.StartTime
	if start.IsZero() {
		start = time.Now()
	}

	record := &secondary.DowntimeRecord{
		ID:             uuid.NewString(),
		LineID:         machine.LineID,
		MachineID:      machine.ID,
		StartTime:      start.Format(time.RFC3339),
		ReasonCategory: req.ReasonCategory,
		ReasonDetail:   req.ReasonDetail,
	}

	if req.ShiftCode != "" {
		shifts, err := s.machineRepo.ListShifts(ctx, machine.LineID)
		if err != nil {
			return nil, fmt.Errorf("failed to list shifts: %w", err)
		}
		for _, sh := range shifts {
			if sh.Code == req.ShiftCode {
				record.ShiftID = sh.ID
				break
			}
		}
		if record.ShiftID == "" {
			return nil, apperr.NewNotFoundError("shift", req.ShiftCode)
		}
	}

	if err := s.downtimeRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	return s.toDowntime(record, machine.Code), nil
}

// CloseDowntime ends an open stoppage, derives its duration, and refreshes
// the machine-health bundle.
func (s *DowntimeServiceImpl) CloseDowntime(ctx context.Context, req primary.CloseDowntimeRequest) (*primary.Downtime, error) {
	record, err := s.downtimeRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if record.EndTime != "" {
		return nil, apperr.NewValidationError("downtime %s is already closed", req.ID)
	}

	start, err := time.Parse(time.RFC3339, record.StartTime)
	if err != nil {
		return nil, fmt.Errorf("failed to parse downtime start: %w", err)
	}

	end := req.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	if !end.After(start) {
		return nil, apperr.NewValidationError("downtime end must be after its start")
	}

	durationMin := int(end.Sub(start).Minutes())
	if err := s.downtimeRepo.Close(ctx, req.ID, end.Format(time.RFC3339), durationMin, req.ProductionLoss); err != nil {
		return nil, err
	}

	if err := s.refreshHealth(ctx, record.MachineID, req.ID); err != nil {
		return nil, err
	}

	closed, err := s.downtimeRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch closed downtime: %w", err)
	}

	return s.toDowntime(closed, s.machineCode(ctx, closed.MachineID)), nil
}

// refreshHealth recomputes the rolling machine-health bundle and persists
// it on the record that just closed. Compute then persist, never inline
// with the close itself.
func (s *DowntimeServiceImpl) refreshHealth(ctx context.Context, machineID, recordID string) error {
	now := time.Now()
	since := now.AddDate(0, 0, -30).Format(time.RFC3339)

	rolling, err := s.downtimeRepo.Rolling(ctx, machineID, since)
	if err != nil {
		return err
	}

	bundle := metrics.ComputeDowntimeHealth(metrics.Rolling30d{
		Count:    rolling.Count,
		TotalMin: rolling.TotalMin,
	}, now)

	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to encode machine-health bundle: %w", err)
	}

	return s.downtimeRepo.UpdateMetadata(ctx, recordID, string(raw))
}

// GetDowntime retrieves one stoppage record.
func (s *DowntimeServiceImpl) GetDowntime(ctx context.Context, id string) (*primary.Downtime, error) {
	record, err := s.downtimeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDowntime(record, s.machineCode(ctx, record.MachineID)), nil
}

// ListDowntime lists a machine's stoppages over the trailing window,
// oldest first.
func (s *DowntimeServiceImpl) ListDowntime(ctx context.Context, machineCode string, days int) ([]*primary.Downtime, error) {
	if days <= 0 {
		days = defaultAnalysisDays
	}

	machine, err := s.machineRepo.GetByCode(ctx, machineCode)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	from := now.AddDate(0, 0, -days).Format(time.RFC3339)
	to := now.Format(time.RFC3339)

	records, err := s.downtimeRepo.ListByMachine(ctx, machine.ID, from, to)
	if err != nil {
		return nil, err
	}

	result := make([]*primary.Downtime, 0, len(records))
	for _, r := range records {
		result = append(result, s.toDowntime(r, machine.Code))
	}

	return result, nil
}

// AnalyzePattern derives the failure pattern for one machine over the
// trailing window.
func (s *DowntimeServiceImpl) AnalyzePattern(ctx context.Context, machineCode string, days int) (*downtime.Pattern, error) {
	if days <= 0 {
		days = defaultAnalysisDays
	}

	machine, err := s.machineRepo.GetByCode(ctx, machineCode)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	from := now.AddDate(0, 0, -days).Format(time.RFC3339)
	to := now.Format(time.RFC3339)

	records, err := s.downtimeRepo.ListByMachine(ctx, machine.ID, from, to)
	if err != nil {
		return nil, err
	}

	events := make([]downtime.Record, 0, len(records))
	for _, r := range records {
		start, err := time.Parse(time.RFC3339, r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse downtime start: %w", err)
		}
		duration := 0
		if r.DurationMin != nil {
			duration = *r.DurationMin
		}
		events = append(events, downtime.Record{
			Start:       start,
			DurationMin: duration,
			Reason:      downtime.Reason(r.ReasonCategory),
		})
	}

	pattern := downtime.Analyze(machine.ID, days, now, events)

	return &pattern, nil
}

func (s *DowntimeServiceImpl) toDowntime(record *secondary.DowntimeRecord, machineCode string) *primary.Downtime {
	return &primary.Downtime{
		ID:             record.ID,
		MachineID:      record.MachineID,
		MachineCode:    machineCode,
		ShiftID:        record.ShiftID,
		StartTime:      record.StartTime,
		EndTime:        record.EndTime,
		DurationMin:    record.DurationMin,
		ReasonCategory: record.ReasonCategory,
		ReasonDetail:   record.ReasonDetail,
		ProductionLoss: record.ProductionLoss,
	}
}

// machineCode resolves a code for display; best-effort.
func (s *DowntimeServiceImpl) machineCode(ctx context.Context, machineID string) string {
	machine, err := s.machineRepo.GetByID(ctx, machineID)
	if err != nil {
		return ""
	}
	return machine.Code
}

// Ensure DowntimeServiceImpl implements the interface
var _ primary.DowntimeService = (*DowntimeServiceImpl)(nil)
