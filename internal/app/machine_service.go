package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/weft/internal/apperr"
	"github.com/example/weft/internal/core/stage"
	"github.com/example/weft/internal/ports/primary"
	"github.com/example/weft/internal/ports/secondary"
)

// MachineServiceImpl implements the MachineService interface.
type MachineServiceImpl struct {
	machineRepo secondary.MachineRepository
}

// NewMachineService creates a new MachineService with injected dependencies.
func NewMachineService(machineRepo secondary.MachineRepository) *MachineServiceImpl {
	return &MachineServiceImpl{machineRepo: machineRepo}
}

// RegisterMachine adds a machine to a production line.
func (s *MachineServiceImpl) RegisterMachine(ctx context.Context, req primary.RegisterMachineRequest) (*primary.Machine, error) {
	mt := stage.Stage(req.MachineType)
	if !stage.Valid(mt) || mt == stage.Fiber {
		return nil, apperr.NewValidationError("unknown machine type %q", req.MachineType)
	}
	if req.Code == "" {
		return nil, apperr.NewValidationError("machine code must not be empty")
	}

	line, err := s.machineRepo.GetLineByCode(ctx, req.LineCode)
	if err != nil {
		return nil, err
	}

	record := &secondary.MachineRecord{
		ID:          uuid.NewString(),
		LineID:      line.ID,
		Code:        req.Code,
		Name:        req.Name,
		MachineType: string(mt),
		Status:      "active",
	}

	if err := s.machineRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	created, err := s.machineRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created machine: %w", err)
	}

	return recordToMachine(created), nil
}

// GetMachine retrieves a machine by its floor code.
func (s *MachineServiceImpl) GetMachine(ctx context.Context, code string) (*primary.Machine, error) {
	record, err := s.machineRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return recordToMachine(record), nil
}

// ListMachines lists machines with optional filters.
func (s *MachineServiceImpl) ListMachines(ctx context.Context, filters primary.MachineFilters) ([]*primary.Machine, error) {
	recordFilters := secondary.MachineFilters{Status: filters.Status}

	if filters.LineCode != "" {
		line, err := s.machineRepo.GetLineByCode(ctx, filters.LineCode)
		if err != nil {
			return nil, err
		}
		recordFilters.LineID = line.ID
	}

	records, err := s.machineRepo.List(ctx, recordFilters)
	if err != nil {
		return nil, err
	}

	machines := make([]*primary.Machine, 0, len(records))
	for _, r := range records {
		machines = append(machines, recordToMachine(r))
	}

	return machines, nil
}

// RegisterLine adds a production line.
func (s *MachineServiceImpl) RegisterLine(ctx context.Context, req primary.RegisterLineRequest) (*primary.Line, error) {
	if req.Code == "" {
		return nil, apperr.NewValidationError("line code must not be empty")
	}

	record := &secondary.LineRecord{
		ID:     uuid.NewString(),
		Code:   req.Code,
		Name:   req.Name,
		Status: "active",
	}

	if err := s.machineRepo.CreateLine(ctx, record); err != nil {
		return nil, err
	}

	return &primary.Line{ID: record.ID, Code: record.Code, Name: record.Name, Status: record.Status}, nil
}

// ListLines lists every production line.
func (s *MachineServiceImpl) ListLines(ctx context.Context) ([]*primary.Line, error) {
	records, err := s.machineRepo.ListLines(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]*primary.Line, 0, len(records))
	for _, r := range records {
		lines = append(lines, &primary.Line{ID: r.ID, Code: r.Code, Name: r.Name, Status: r.Status})
	}

	return lines, nil
}

func recordToMachine(record *secondary.MachineRecord) *primary.Machine {
	return &primary.Machine{
		ID:          record.ID,
		LineID:      record.LineID,
		Code:        record.Code,
		Name:        record.Name,
		MachineType: record.MachineType,
		Status:      record.Status,
		CreatedAt:   record.CreatedAt,
	}
}

// Ensure MachineServiceImpl implements the interface
var _ primary.MachineService = (*MachineServiceImpl)(nil)
