package primary

import "context"

// MachineService defines the primary port for the plant registry.
type MachineService interface {
	// RegisterMachine adds a machine to a production line.
	RegisterMachine(ctx context.Context, req RegisterMachineRequest) (*Machine, error)

	// GetMachine retrieves a machine by its floor code.
	GetMachine(ctx context.Context, code string) (*Machine, error)

	// ListMachines lists machines with optional filters.
	ListMachines(ctx context.Context, filters MachineFilters) ([]*Machine, error)

	// RegisterLine adds a production line.
	RegisterLine(ctx context.Context, req RegisterLineRequest) (*Line, error)

	// ListLines lists every production line.
	ListLines(ctx context.Context) ([]*Line, error)
}

// RegisterMachineRequest contains parameters for registering a machine.
type RegisterMachineRequest struct {
	LineCode    string
	Code        string
	Name        string
	MachineType string // matches a production stage
}

// RegisterLineRequest contains parameters for registering a line.
type RegisterLineRequest struct {
	Code string
	Name string
}

// Machine represents a machine at the port boundary.
type Machine struct {
	ID          string
	LineID      string
	Code        string
	Name        string
	MachineType string
	Status      string
	CreatedAt   string
}

// Line represents a production line at the port boundary.
type Line struct {
	ID     string
	Code   string
	Name   string
	Status string
}

// MachineFilters contains filter options for listing machines.
type MachineFilters struct {
	LineCode string
	Status   string
}
