package primary

import (
	"context"

	"github.com/example/weft/internal/core/fleet"
)

// FleetService defines the primary port for the plant-wide health view.
type FleetService interface {
	// FleetHealth assembles today's health row for every active machine,
	// ranked most-at-risk first. lineCode narrows to one line; empty
	// means the whole plant.
	FleetHealth(ctx context.Context, lineCode string) ([]fleet.MachineHealth, error)
}
