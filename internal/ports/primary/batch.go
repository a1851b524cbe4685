package primary

import (
	"context"

	"github.com/example/weft/internal/core/metrics"
)

// BatchService defines the primary port for production batch operations.
type BatchService interface {
	// CreateBatch registers a new batch, assigns its identifier, and
	// computes its initial metadata bundle.
	CreateBatch(ctx context.Context, req CreateBatchRequest) (*CreateBatchResponse, error)

	// GetBatch retrieves a batch by its identifier.
	GetBatch(ctx context.Context, identifier string) (*Batch, error)

	// ListBatches lists batches with optional filters.
	ListBatches(ctx context.Context, filters BatchFilters) ([]*Batch, error)

	// UpdateBatch rewrites a batch's measurements and recomputes its
	// metadata bundle.
	UpdateBatch(ctx context.Context, req UpdateBatchRequest) (*Batch, error)

	// CompleteBatch marks a batch completed and recomputes its bundle.
	CompleteBatch(ctx context.Context, identifier string) (*Batch, error)

	// HoldBatch places a batch on quality hold.
	HoldBatch(ctx context.Context, identifier string) error

	// CancelBatch cancels a batch.
	CancelBatch(ctx context.Context, identifier string) error

	// RecomputeMetrics rebuilds and persists a batch's metadata bundle.
	RecomputeMetrics(ctx context.Context, identifier string) (*metrics.Bundle, error)

	// NextIdentifier allocates the next identifier for an arbitrary
	// prefix (work orders, customer orders) without creating a batch.
	NextIdentifier(ctx context.Context, prefix string) (string, error)
}

// CreateBatchRequest contains parameters for creating a batch. Measurement
// fields are optional; nil means not recorded.
type CreateBatchRequest struct {
	Stage       string
	FiberType   string // fiber receipts only; selects the identifier prefix
	PassNumber  int    // passage only
	LineCode    string
	MachineCode string
	OperatorID  string // Optional
	ShiftCode   string // Optional
	OrderID     string // Optional

	InputWeight  *float64
	OutputWeight *float64
	WasteWeight  *float64

	NepsCount *int

	EvennessCV *float64
	DraftRatio *float64

	TwistTPM       *float64
	EfficiencyPct  *float64
	ActiveSpindles *int
	TotalSpindles  *int
	BreakageCount  *int

	Temperature   *float64
	PH            *float64
	LiquorRatio   *float64
	DurationMin   *int
	QualityResult string
}

// CreateBatchResponse contains the result of creating a batch.
type CreateBatchResponse struct {
	BatchID    string
	Identifier string
	Batch      *Batch
}

// UpdateBatchRequest contains the measurement fields an operator may
// correct after creation. Nil fields are left unchanged.
type UpdateBatchRequest struct {
	Identifier string

	InputWeight  *float64
	OutputWeight *float64
	WasteWeight  *float64

	NepsCount *int

	EvennessCV *float64
	DraftRatio *float64

	TwistTPM       *float64
	EfficiencyPct  *float64
	ActiveSpindles *int
	TotalSpindles  *int
	BreakageCount  *int

	Temperature   *float64
	PH            *float64
	LiquorRatio   *float64
	DurationMin   *int
	QualityResult string
}

// Batch represents a batch entity at the port boundary.
type Batch struct {
	ID             string
	Identifier     string
	Stage          string
	PassNumber     int
	LineID         string
	MachineID      string
	OperatorID     string
	ShiftID        string
	OrderID        string
	ProductionDate string
	Status         string
	StartedAt      string
	CompletedAt    string

	InputWeight  *float64
	OutputWeight *float64
	WasteWeight  *float64

	NepsCount *int

	EvennessCV *float64
	DraftRatio *float64

	TwistTPM       *float64
	EfficiencyPct  *float64
	ActiveSpindles *int
	TotalSpindles  *int
	BreakageCount  *int

	Temperature   *float64
	PH            *float64
	LiquorRatio   *float64
	DurationMin   *int
	QualityResult string

	// Metadata is the derived bundle, decoded from storage. Nil when the
	// batch has never been computed.
	Metadata *metrics.Bundle

	CreatedAt string
	UpdatedAt string
}

// BatchFilters contains filter options for listing batches.
type BatchFilters struct {
	Stage          string
	MachineCode    string
	Status         string
	ProductionDate string
	Limit          int
}
