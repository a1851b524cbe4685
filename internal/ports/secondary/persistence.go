// Package secondary defines the secondary ports (driven adapters) for the
// engine. These are the interfaces through which the application drives
// storage. Timestamps are RFC3339 strings, calendar dates are "YYYY-MM-DD";
// records stay calendar-agnostic (Jalali rendering happens only at the
// identifier boundary).
package secondary

import "context"

// BatchRecord represents a production batch as stored in persistence. One
// table holds every stage; stage-only fields are nil outside their stage.
type BatchRecord struct {
	ID         string // row UUID
	Identifier string // human-readable batch number, unique
	Stage      string
	PassNumber int // passage pass (1 or 2); zero elsewhere

	LineID     string
	MachineID  string
	OperatorID string
	ShiftID    string
	OrderID    string

	ProductionDate string // YYYY-MM-DD
	Status         string
	StartedAt      string
	CompletedAt    string

	InputWeight  *float64
	OutputWeight *float64
	WasteWeight  *float64

	// carding
	NepsCount *int

	// passage
	EvennessCV *float64
	DraftRatio *float64

	// spinning
	TwistTPM       *float64
	EfficiencyPct  *float64
	ActiveSpindles *int
	TotalSpindles  *int
	BreakageCount  *int

	// dyeing
	Temperature   *float64
	PH            *float64
	LiquorRatio   *float64
	DurationMin   *int
	QualityResult string

	// Metadata is the serialized derived bundle. Written only through
	// UpdateMetadata so recomputation cannot trigger itself.
	Metadata string

	CreatedAt string
	UpdatedAt string
}

// BatchFilters contains filter options for querying batches.
type BatchFilters struct {
	Stage          string
	MachineID      string
	Status         string
	ProductionDate string
	Limit          int
}

// SpinningDayAggregates are the per-machine, per-day rollups the OEE
// engine consumes, taken over completed spinning batches.
type SpinningDayAggregates struct {
	AvgEfficiencyPct    *float64
	TotalBreakage       int
	TotalActiveSpindles int
	BatchCount          int
}

// TimeseriesPoint is one day of an aggregated metric.
type TimeseriesPoint struct {
	Date  string // YYYY-MM-DD
	Value float64
}

// BatchRepository defines the secondary port for batch persistence.
type BatchRepository interface {
	// Create persists a new batch. An identifier collision surfaces as a
	// conflict error the service retries on.
	Create(ctx context.Context, batch *BatchRecord) error

	// GetByID retrieves a batch by its row ID.
	GetByID(ctx context.Context, id string) (*BatchRecord, error)

	// GetByIdentifier retrieves a batch by its human-readable identifier.
	GetByIdentifier(ctx context.Context, identifier string) (*BatchRecord, error)

	// Update rewrites the operator-editable fields of a batch.
	Update(ctx context.Context, batch *BatchRecord) error

	// UpdateStatus moves a batch through its lifecycle, optionally
	// stamping completed_at.
	UpdateStatus(ctx context.Context, id, status string, setCompleted bool) error

	// UpdateMetadata persists a computed metadata bundle. This is the
	// only write path for the metadata column.
	UpdateMetadata(ctx context.Context, id, metadata string) error

	// List retrieves batches matching the given filters.
	List(ctx context.Context, filters BatchFilters) ([]*BatchRecord, error)

	// SpinningDayAggregates aggregates completed spinning batches for one
	// machine-day.
	SpinningDayAggregates(ctx context.Context, machineID, date string) (*SpinningDayAggregates, error)

	// Timeseries aggregates a spinning metric per day from fromDate
	// (inclusive) for one machine. The column is adapter-validated
	// against a fixed allow-list.
	Timeseries(ctx context.Context, machineID, metric, fromDate string) ([]TimeseriesPoint, error)

	// MaxIdentifier returns the greatest identifier with the given
	// prefix pattern, or "" when none exists.
	MaxIdentifier(ctx context.Context, pattern string) (string, error)
}

// LineageEdgeRecord links a downstream batch to one upstream source slot.
type LineageEdgeRecord struct {
	ID               string // row UUID
	DownstreamID     string
	InputPosition    int
	SourceStage      string
	SourceID         string
	SourceIdentifier string // denormalized for read-without-join reporting
	WeightUsed       *float64
	CreatedAt        string
}

// LineageRepository defines the secondary port for the lineage graph.
type LineageRepository interface {
	// Insert persists a new edge. A duplicate (downstream, position)
	// pair surfaces as a conflict error.
	Insert(ctx context.Context, edge *LineageEdgeRecord) error

	// PositionOccupied reports whether a slot already holds an edge.
	PositionOccupied(ctx context.Context, downstreamID string, position int) (bool, error)

	// ListByDownstream retrieves a batch's direct inputs ordered by
	// position.
	ListByDownstream(ctx context.Context, downstreamID string) ([]*LineageEdgeRecord, error)

	// ConsumedFromSource sums the weight already drawn from a source
	// batch across all edges.
	ConsumedFromSource(ctx context.Context, sourceStage, sourceID string) (float64, error)
}

// CounterRepository defines the secondary port for the per-bucket
// identifier sequence. Next must be atomic under concurrent callers.
type CounterRepository interface {
	// Next increments and returns the sequence for (prefix, bucket),
	// starting at 1 for a fresh bucket.
	Next(ctx context.Context, prefix, bucket string) (int, error)

	// Seed installs a floor for a bucket's sequence if the stored value
	// is lower. Used to fold legacy identifiers into the counter.
	Seed(ctx context.Context, prefix, bucket string, lastSeq int) error
}

// DowntimeRecord is one machine stoppage.
type DowntimeRecord struct {
	ID             string // row UUID
	LineID         string
	MachineID      string
	ShiftID        string
	StartTime      string // RFC3339
	EndTime        string // RFC3339, empty while open
	DurationMin    *int
	ReasonCategory string
	ReasonDetail   string
	ProductionLoss *float64
	Metadata       string
	CreatedAt      string
}

// RollingDowntime is the trailing-window aggregate for one machine.
type RollingDowntime struct {
	Count    int
	TotalMin int
}

// DowntimeRepository defines the secondary port for downtime persistence.
type DowntimeRepository interface {
	// Create persists a new (open or closed) downtime record.
	Create(ctx context.Context, record *DowntimeRecord) error

	// GetByID retrieves a downtime record.
	GetByID(ctx context.Context, id string) (*DowntimeRecord, error)

	// Close stamps the end time, duration, and production loss.
	Close(ctx context.Context, id, endTime string, durationMin int, productionLoss *float64) error

	// UpdateMetadata persists the machine-health bundle. Only write path
	// for the metadata column.
	UpdateMetadata(ctx context.Context, id, metadata string) error

	// ListByMachine retrieves records with start_time in [from, to),
	// oldest first.
	ListByMachine(ctx context.Context, machineID, from, to string) ([]*DowntimeRecord, error)

	// MinutesForMachineDate sums closed durations for one machine on one
	// production date.
	MinutesForMachineDate(ctx context.Context, machineID, date string) (int, error)

	// Rolling aggregates count and minutes of stoppages starting at or
	// after the given instant.
	Rolling(ctx context.Context, machineID, since string) (*RollingDowntime, error)
}

// MachineRecord represents a machine on a production line.
type MachineRecord struct {
	ID          string
	LineID      string
	Code        string
	Name        string
	MachineType string
	Status      string
	CreatedAt   string
	UpdatedAt   string
}

// MachineFilters contains filter options for querying machines.
type MachineFilters struct {
	LineID string
	Status string
}

// LineRecord represents a production line.
type LineRecord struct {
	ID        string
	Code      string
	Name      string
	Status    string
	CreatedAt string
}

// ShiftRecord represents a working shift on a line.
type ShiftRecord struct {
	ID        string
	LineID    string
	Code      string
	Name      string
	CreatedAt string
}

// MachineRepository defines the secondary port for the plant registry:
// machines, production lines, and shifts.
type MachineRepository interface {
	// Create persists a new machine.
	Create(ctx context.Context, machine *MachineRecord) error

	// GetByID retrieves a machine by row ID.
	GetByID(ctx context.Context, id string) (*MachineRecord, error)

	// GetByCode retrieves a machine by its floor code (e.g. RING-01).
	GetByCode(ctx context.Context, code string) (*MachineRecord, error)

	// List retrieves machines matching the given filters.
	List(ctx context.Context, filters MachineFilters) ([]*MachineRecord, error)

	// CreateLine persists a new production line.
	CreateLine(ctx context.Context, line *LineRecord) error

	// GetLineByCode retrieves a production line by code.
	GetLineByCode(ctx context.Context, code string) (*LineRecord, error)

	// ListLines retrieves every production line.
	ListLines(ctx context.Context) ([]*LineRecord, error)

	// CreateShift persists a new shift.
	CreateShift(ctx context.Context, shift *ShiftRecord) error

	// ListShifts retrieves the shifts of a line.
	ListShifts(ctx context.Context, lineID string) ([]*ShiftRecord, error)
}
