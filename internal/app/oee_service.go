package app

import (
	"context"
	"time"

	"github.com/example/weft/internal/apperr"
	"github.com/example/weft/internal/core/oee"
	"github.com/example/weft/internal/ports/primary"
	"github.com/example/weft/internal/ports/secondary"
)

// defaultAnalysisDays is the trailing window used when a caller does not
// specify one.
const defaultAnalysisDays = 30

// OEEServiceImpl implements the OEEService interface.
type OEEServiceImpl struct {
	batchRepo    secondary.BatchRepository
	downtimeRepo secondary.DowntimeRepository
	machineRepo  secondary.MachineRepository
}

// NewOEEService creates a new OEEService with injected dependencies.
func NewOEEService(
	batchRepo secondary.BatchRepository,
	downtimeRepo secondary.DowntimeRepository,
	machineRepo secondary.MachineRepository,
) *OEEServiceImpl {
	return &OEEServiceImpl{
		batchRepo:    batchRepo,
		downtimeRepo: downtimeRepo,
		machineRepo:  machineRepo,
	}
}

// ComputeOEE derives the OEE breakdown for one machine-day.
func (s *OEEServiceImpl) ComputeOEE(ctx context.Context, machineCode string, date time.Time) (*oee.Daily, error) {
	machine, err := s.machineRepo.GetByCode(ctx, machineCode)
	if err != nil {
		return nil, err
	}

	return s.computeForMachine(ctx, machine, date)
}

func (s *OEEServiceImpl) computeForMachine(ctx context.Context, machine *secondary.MachineRecord, date time.Time) (*oee.Daily, error) {
	dateStr := date.Format("2006-01-02")

	downtimeMin, err := s.downtimeRepo.MinutesForMachineDate(ctx, machine.ID, dateStr)
	if err != nil {
		return nil, err
	}

	agg, err := s.batchRepo.SpinningDayAggregates(ctx, machine.ID, dateStr)
	if err != nil {
		return nil, err
	}

	daily := oee.Compute(machine.ID, date, oee.DayAggregates{
		DowntimeMin:         downtimeMin,
		AvgEfficiencyPct:    agg.AvgEfficiencyPct,
		TotalBreakage:       agg.TotalBreakage,
		TotalActiveSpindles: agg.TotalActiveSpindles,
		BatchCount:          agg.BatchCount,
	})

	return &daily, nil
}

// OEERange opens a lazy day-by-day walk over the trailing window, oldest
// day first.
func (s *OEEServiceImpl) OEERange(ctx context.Context, machineCode string, days int) (primary.OEEIterator, error) {
	if days <= 0 {
		days = defaultAnalysisDays
	}

	machine, err := s.machineRepo.GetByCode(ctx, machineCode)
	if err != nil {
		return nil, err
	}

	today := startOfDay(time.Now())
	return &oeeRange{
		svc:       s,
		machine:   machine,
		day:       today.AddDate(0, 0, -(days - 1)),
		remaining: days,
	}, nil
}

// startOfDay returns midnight of t's calendar day in t's location.
// Truncate rounds on absolute time and lands on UTC midnight, which
// names a different day near the offset boundary.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// oeeRange computes one day per Next call instead of materializing the
// whole window. Single-use.
type oeeRange struct {
	svc       *OEEServiceImpl
	machine   *secondary.MachineRecord
	day       time.Time
	remaining int
}

// Next returns the next day's OEE, or nil when the window is exhausted.
func (r *oeeRange) Next(ctx context.Context) (*oee.Daily, error) {
	if r.remaining <= 0 {
		return nil, nil
	}

	daily, err := r.svc.computeForMachine(ctx, r.machine, r.day)
	if err != nil {
		return nil, err
	}

	r.day = r.day.AddDate(0, 0, 1)
	r.remaining--

	return daily, nil
}

// Timeseries aggregates one spinning metric per day over the trailing
// window.
func (s *OEEServiceImpl) Timeseries(ctx context.Context, req primary.TimeseriesRequest) (*primary.Timeseries, error) {
	switch req.Metric {
	case "output_weight", "efficiency_pct", "breakage_count":
	default:
		return nil, apperr.NewValidationError("unknown timeseries metric %q (want output_weight, efficiency_pct, or breakage_count)", req.Metric)
	}

	days := req.Days
	if days <= 0 {
		days = defaultAnalysisDays
	}

	machine, err := s.machineRepo.GetByCode(ctx, req.MachineCode)
	if err != nil {
		return nil, err
	}

	fromDate := time.Now().AddDate(0, 0, -(days - 1)).Format("2006-01-02")
	points, err := s.batchRepo.Timeseries(ctx, machine.ID, req.Metric, fromDate)
	if err != nil {
		return nil, err
	}

	result := &primary.Timeseries{
		MachineID: machine.ID,
		Metric:    req.Metric,
		Days:      days,
		Points:    make([]primary.TimeseriesPoint, 0, len(points)),
	}
	for _, p := range points {
		result.Points = append(result.Points, primary.TimeseriesPoint{Date: p.Date, Value: p.Value})
	}

	return result, nil
}

// Ensure OEEServiceImpl implements the interface
var _ primary.OEEService = (*OEEServiceImpl)(nil)
