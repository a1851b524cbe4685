package primary

import (
	"context"
	"time"

	"github.com/example/weft/internal/core/oee"
)

// OEEService defines the primary port for equipment-effectiveness
// analytics over spinning machines.
type OEEService interface {
	// ComputeOEE derives the OEE breakdown for one machine-day.
	ComputeOEE(ctx context.Context, machineCode string, date time.Time) (*oee.Daily, error)

	// OEERange opens a lazy day-by-day walk over the trailing window,
	// oldest day first. The iterator is single-use.
	OEERange(ctx context.Context, machineCode string, days int) (OEEIterator, error)

	// Timeseries aggregates one spinning metric per day over the
	// trailing window. Unknown metrics are rejected.
	Timeseries(ctx context.Context, req TimeseriesRequest) (*Timeseries, error)
}

// OEEIterator yields one day's OEE at a time. Next returns nil when the
// window is exhausted.
type OEEIterator interface {
	Next(ctx context.Context) (*oee.Daily, error)
}

// TimeseriesRequest contains parameters for a timeseries query.
type TimeseriesRequest struct {
	MachineCode string
	Metric      string // output_weight, efficiency_pct, breakage_count
	Days        int
}

// TimeseriesPoint is one day of an aggregated metric.
type TimeseriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Timeseries is the full query result. JSON keys are the wire contract.
type Timeseries struct {
	MachineID string            `json:"machine_id"`
	Metric    string            `json:"metric"`
	Days      int               `json:"days"`
	Points    []TimeseriesPoint `json:"points"`
}
