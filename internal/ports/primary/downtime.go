package primary

import (
	"context"
	"time"

	"github.com/example/weft/internal/core/downtime"
)

// DowntimeService defines the primary port for machine stoppage tracking
// and pattern analysis.
type DowntimeService interface {
	// OpenDowntime records the start of a stoppage.
	OpenDowntime(ctx context.Context, req OpenDowntimeRequest) (*Downtime, error)

	// CloseDowntime ends an open stoppage, derives its duration, and
	// refreshes the machine-health bundle.
	CloseDowntime(ctx context.Context, req CloseDowntimeRequest) (*Downtime, error)

	// GetDowntime retrieves one stoppage record.
	GetDowntime(ctx context.Context, id string) (*Downtime, error)

	// ListDowntime lists a machine's stoppages over the trailing window,
	// oldest first.
	ListDowntime(ctx context.Context, machineCode string, days int) ([]*Downtime, error)

	// AnalyzePattern derives the failure pattern for one machine over
	// the trailing window.
	AnalyzePattern(ctx context.Context, machineCode string, days int) (*downtime.Pattern, error)
}

// OpenDowntimeRequest contains parameters for opening a stoppage.
type OpenDowntimeRequest struct {
	MachineCode    string
	ShiftCode      string // Optional
	ReasonCategory string
	ReasonDetail   string
	StartTime      time.Time // zero value means now
}

// CloseDowntimeRequest contains parameters for closing a stoppage.
type CloseDowntimeRequest struct {
	ID             string
	EndTime        time.Time // zero value means now
	ProductionLoss *float64  // kg of lost output, optional
}

// Downtime represents a stoppage at the port boundary.
type Downtime struct {
	ID             string
	MachineID      string
	MachineCode    string
	ShiftID        string
	StartTime      string
	EndTime        string
	DurationMin    *int
	ReasonCategory string
	ReasonDetail   string
	ProductionLoss *float64
}
