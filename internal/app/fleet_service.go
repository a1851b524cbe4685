package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/weft/internal/core/downtime"
	"github.com/example/weft/internal/core/fleet"
	"github.com/example/weft/internal/ports/primary"
	"github.com/example/weft/internal/ports/secondary"
)

// fleetConcurrency caps how many machines are assessed at once. Each row
// costs a handful of queries; the cap keeps a large plant from hammering
// the database.
const fleetConcurrency = 8

// FleetServiceImpl implements the FleetService interface.
type FleetServiceImpl struct {
	machineRepo secondary.MachineRepository
	oeeService  primary.OEEService
	dtService   primary.DowntimeService
}

// NewFleetService creates a new FleetService with injected dependencies.
func NewFleetService(
	machineRepo secondary.MachineRepository,
	oeeService primary.OEEService,
	dtService primary.DowntimeService,
) *FleetServiceImpl {
	return &FleetServiceImpl{
		machineRepo: machineRepo,
		oeeService:  oeeService,
		dtService:   dtService,
	}
}

// FleetHealth assembles today's health row for every active machine,
// ranked most-at-risk first.
func (s *FleetServiceImpl) FleetHealth(ctx context.Context, lineCode string) ([]fleet.MachineHealth, error) {
	filters := secondary.MachineFilters{Status: "active"}

	if lineCode != "" {
		line, err := s.machineRepo.GetLineByCode(ctx, lineCode)
		if err != nil {
			return nil, err
		}
		filters.LineID = line.ID
	}

	machines, err := s.machineRepo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	lineCodes := map[string]string{}
	lines, err := s.machineRepo.ListLines(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		lineCodes[l.ID] = l.Code
	}

	today := time.Now()
	rows := make([]fleet.MachineHealth, len(machines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fleetConcurrency)
	for i, m := range machines {
		i, m := i, m
		g.Go(func() error {
			rows[i] = s.healthRow(gctx, m, lineCodes[m.LineID], today)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fleet.Rank(rows)

	return rows, nil
}

// healthRow assembles one machine's row. A machine whose analytics fail
// degrades to zeros rather than sinking the whole report.
func (s *FleetServiceImpl) healthRow(ctx context.Context, m *secondary.MachineRecord, lineCode string, today time.Time) fleet.MachineHealth {
	row := fleet.MachineHealth{
		MachineID: m.ID,
		Code:      m.Code,
		Name:      m.Name,
		Section:   m.MachineType,
		Line:      lineCode,
		RiskLevel: downtime.RiskLow,
	}

	if daily, err := s.oeeService.ComputeOEE(ctx, m.Code, today); err == nil {
		row.OEEToday = daily.OEE
		row.Availability = daily.Availability
	}

	if pattern, err := s.dtService.AnalyzePattern(ctx, m.Code, defaultAnalysisDays); err == nil {
		row.RiskLevel = pattern.RiskLevel
		row.MTBFHours = pattern.MTBFHours
		row.Failures30d = pattern.TotalFailures
	}

	return row
}

// Ensure FleetServiceImpl implements the interface
var _ primary.FleetService = (*FleetServiceImpl)(nil)
