package app

import (
	"context"
	"sort"
	"strings"

	"github.com/example/weft/internal/apperr"
	"github.com/example/weft/internal/ports/primary"
	"github.com/example/weft/internal/ports/secondary"
)

// Ensure the mocks implement their interfaces
var (
	_ secondary.BatchRepository    = (*mockBatchRepo)(nil)
	_ secondary.CounterRepository  = (*mockCounterRepo)(nil)
	_ secondary.LineageRepository  = (*mockLineageRepo)(nil)
	_ secondary.DowntimeRepository = (*mockDowntimeRepo)(nil)
	_ secondary.MachineRepository  = (*mockMachineRepo)(nil)
)

// mockBatchRepo implements secondary.BatchRepository in memory.
type mockBatchRepo struct {
	batches    map[string]*secondary.BatchRecord // by ID
	dayAgg     *secondary.SpinningDayAggregates
	points     []secondary.TimeseriesPoint
	metadataBy map[string]string // metadata writes, by batch ID
}

func newMockBatchRepo() *mockBatchRepo {
	return &mockBatchRepo{
		batches:    make(map[string]*secondary.BatchRecord),
		metadataBy: make(map[string]string),
	}
}

func (m *mockBatchRepo) Create(ctx context.Context, batch *secondary.BatchRecord) error {
	for _, b := range m.batches {
		if b.Identifier == batch.Identifier {
			return apperr.NewConflictError("identifier "+batch.Identifier+" already taken", nil)
		}
	}
	clone := *batch
	m.batches[batch.ID] = &clone
	return nil
}

func (m *mockBatchRepo) GetByID(ctx context.Context, id string) (*secondary.BatchRecord, error) {
	b, ok := m.batches[id]
	if !ok {
		return nil, apperr.NewNotFoundError("batch", id)
	}
	clone := *b
	return &clone, nil
}

func (m *mockBatchRepo) GetByIdentifier(ctx context.Context, identifier string) (*secondary.BatchRecord, error) {
	for _, b := range m.batches {
		if b.Identifier == identifier {
			clone := *b
			return &clone, nil
		}
	}
	return nil, apperr.NewNotFoundError("batch", identifier)
}

func (m *mockBatchRepo) Update(ctx context.Context, batch *secondary.BatchRecord) error {
	b, ok := m.batches[batch.ID]
	if !ok {
		return apperr.NewNotFoundError("batch", batch.ID)
	}
	clone := *batch
	clone.Metadata = b.Metadata
	m.batches[batch.ID] = &clone
	return nil
}

func (m *mockBatchRepo) UpdateStatus(ctx context.Context, id, status string, setCompleted bool) error {
	b, ok := m.batches[id]
	if !ok {
		return apperr.NewNotFoundError("batch", id)
	}
	b.Status = status
	if setCompleted {
		b.CompletedAt = "2026-08-31T12:00:00Z"
	}
	return nil
}

func (m *mockBatchRepo) UpdateMetadata(ctx context.Context, id, metadata string) error {
	b, ok := m.batches[id]
	if !ok {
		return apperr.NewNotFoundError("batch", id)
	}
	b.Metadata = metadata
	m.metadataBy[id] = metadata
	return nil
}

func (m *mockBatchRepo) List(ctx context.Context, filters secondary.BatchFilters) ([]*secondary.BatchRecord, error) {
	var result []*secondary.BatchRecord
	for _, b := range m.batches {
		if filters.Stage != "" && b.Stage != filters.Stage {
			continue
		}
		if filters.MachineID != "" && b.MachineID != filters.MachineID {
			continue
		}
		if filters.Status != "" && b.Status != filters.Status {
			continue
		}
		clone := *b
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Identifier < result[j].Identifier })
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (m *mockBatchRepo) SpinningDayAggregates(ctx context.Context, machineID, date string) (*secondary.SpinningDayAggregates, error) {
	if m.dayAgg != nil {
		return m.dayAgg, nil
	}
	return &secondary.SpinningDayAggregates{}, nil
}

func (m *mockBatchRepo) Timeseries(ctx context.Context, machineID, metric, fromDate string) ([]secondary.TimeseriesPoint, error) {
	return m.points, nil
}

func (m *mockBatchRepo) MaxIdentifier(ctx context.Context, pattern string) (string, error) {
	prefix := strings.TrimSuffix(pattern, "%")
	max := ""
	for _, b := range m.batches {
		if strings.HasPrefix(b.Identifier, prefix) && b.Identifier > max {
			max = b.Identifier
		}
	}
	return max, nil
}

// mockCounterRepo implements secondary.CounterRepository in memory.
type mockCounterRepo struct {
	counters map[string]int
}

func newMockCounterRepo() *mockCounterRepo {
	return &mockCounterRepo{counters: make(map[string]int)}
}

func (m *mockCounterRepo) Next(ctx context.Context, prefix, bucket string) (int, error) {
	key := prefix + "/" + bucket
	m.counters[key]++
	return m.counters[key], nil
}

func (m *mockCounterRepo) Seed(ctx context.Context, prefix, bucket string, lastSeq int) error {
	key := prefix + "/" + bucket
	if lastSeq > m.counters[key] {
		m.counters[key] = lastSeq
	}
	return nil
}

// mockLineageRepo implements secondary.LineageRepository in memory.
type mockLineageRepo struct {
	edges []*secondary.LineageEdgeRecord
}

func newMockLineageRepo() *mockLineageRepo {
	return &mockLineageRepo{}
}

func (m *mockLineageRepo) Insert(ctx context.Context, edge *secondary.LineageEdgeRecord) error {
	for _, e := range m.edges {
		if e.DownstreamID == edge.DownstreamID && e.InputPosition == edge.InputPosition {
			return apperr.NewConflictError("input position already occupied", nil)
		}
	}
	clone := *edge
	m.edges = append(m.edges, &clone)
	return nil
}

func (m *mockLineageRepo) PositionOccupied(ctx context.Context, downstreamID string, position int) (bool, error) {
	for _, e := range m.edges {
		if e.DownstreamID == downstreamID && e.InputPosition == position {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockLineageRepo) ListByDownstream(ctx context.Context, downstreamID string) ([]*secondary.LineageEdgeRecord, error) {
	var result []*secondary.LineageEdgeRecord
	for _, e := range m.edges {
		if e.DownstreamID == downstreamID {
			clone := *e
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InputPosition < result[j].InputPosition })
	return result, nil
}

func (m *mockLineageRepo) ConsumedFromSource(ctx context.Context, sourceStage, sourceID string) (float64, error) {
	var sum float64
	for _, e := range m.edges {
		if e.SourceStage == sourceStage && e.SourceID == sourceID && e.WeightUsed != nil {
			sum += *e.WeightUsed
		}
	}
	return sum, nil
}

// mockDowntimeRepo implements secondary.DowntimeRepository in memory.
type mockDowntimeRepo struct {
	records    map[string]*secondary.DowntimeRecord
	metadataBy map[string]string
}

func newMockDowntimeRepo() *mockDowntimeRepo {
	return &mockDowntimeRepo{
		records:    make(map[string]*secondary.DowntimeRecord),
		metadataBy: make(map[string]string),
	}
}

func (m *mockDowntimeRepo) Create(ctx context.Context, record *secondary.DowntimeRecord) error {
	clone := *record
	m.records[record.ID] = &clone
	return nil
}

func (m *mockDowntimeRepo) GetByID(ctx context.Context, id string) (*secondary.DowntimeRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, apperr.NewNotFoundError("downtime record", id)
	}
	clone := *r
	return &clone, nil
}

func (m *mockDowntimeRepo) Close(ctx context.Context, id, endTime string, durationMin int, productionLoss *float64) error {
	r, ok := m.records[id]
	if !ok {
		return apperr.NewNotFoundError("downtime record", id)
	}
	r.EndTime = endTime
	r.DurationMin = &durationMin
	r.ProductionLoss = productionLoss
	return nil
}

func (m *mockDowntimeRepo) UpdateMetadata(ctx context.Context, id, metadata string) error {
	r, ok := m.records[id]
	if !ok {
		return apperr.NewNotFoundError("downtime record", id)
	}
	r.Metadata = metadata
	m.metadataBy[id] = metadata
	return nil
}

func (m *mockDowntimeRepo) ListByMachine(ctx context.Context, machineID, from, to string) ([]*secondary.DowntimeRecord, error) {
	var result []*secondary.DowntimeRecord
	for _, r := range m.records {
		if r.MachineID != machineID {
			continue
		}
		// RFC3339 strings in the same zone compare lexicographically.
		if r.StartTime < from || r.StartTime >= to {
			continue
		}
		clone := *r
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime < result[j].StartTime })
	return result, nil
}

func (m *mockDowntimeRepo) MinutesForMachineDate(ctx context.Context, machineID, date string) (int, error) {
	total := 0
	for _, r := range m.records {
		if r.MachineID == machineID && strings.HasPrefix(r.StartTime, date) && r.DurationMin != nil {
			total += *r.DurationMin
		}
	}
	return total, nil
}

func (m *mockDowntimeRepo) Rolling(ctx context.Context, machineID, since string) (*secondary.RollingDowntime, error) {
	agg := &secondary.RollingDowntime{}
	for _, r := range m.records {
		if r.MachineID != machineID || r.StartTime < since {
			continue
		}
		agg.Count++
		if r.DurationMin != nil {
			agg.TotalMin += *r.DurationMin
		}
	}
	return agg, nil
}

// mockMachineRepo implements secondary.MachineRepository in memory.
type mockMachineRepo struct {
	machines map[string]*secondary.MachineRecord // by ID
	lines    map[string]*secondary.LineRecord    // by code
	shifts   map[string][]*secondary.ShiftRecord // by line ID
}

func newMockMachineRepo() *mockMachineRepo {
	return &mockMachineRepo{
		machines: make(map[string]*secondary.MachineRecord),
		lines:    make(map[string]*secondary.LineRecord),
		shifts:   make(map[string][]*secondary.ShiftRecord),
	}
}

// addMachine seeds a machine directly, bypassing validation.
func (m *mockMachineRepo) addMachine(id, lineID, code, machineType string) {
	m.machines[id] = &secondary.MachineRecord{
		ID: id, LineID: lineID, Code: code, Name: code,
		MachineType: machineType, Status: "active",
	}
}

func (m *mockMachineRepo) addLine(id, code string) {
	m.lines[code] = &secondary.LineRecord{ID: id, Code: code, Name: code, Status: "active"}
}

func (m *mockMachineRepo) addShift(id, lineID, code string) {
	m.shifts[lineID] = append(m.shifts[lineID], &secondary.ShiftRecord{ID: id, LineID: lineID, Code: code, Name: code})
}

func (m *mockMachineRepo) Create(ctx context.Context, machine *secondary.MachineRecord) error {
	for _, existing := range m.machines {
		if existing.Code == machine.Code {
			return apperr.NewConflictError("machine code "+machine.Code+" already taken", nil)
		}
	}
	clone := *machine
	m.machines[machine.ID] = &clone
	return nil
}

func (m *mockMachineRepo) GetByID(ctx context.Context, id string) (*secondary.MachineRecord, error) {
	r, ok := m.machines[id]
	if !ok {
		return nil, apperr.NewNotFoundError("machine", id)
	}
	clone := *r
	return &clone, nil
}

func (m *mockMachineRepo) GetByCode(ctx context.Context, code string) (*secondary.MachineRecord, error) {
	for _, r := range m.machines {
		if r.Code == code {
			clone := *r
			return &clone, nil
		}
	}
	return nil, apperr.NewNotFoundError("machine", code)
}

func (m *mockMachineRepo) List(ctx context.Context, filters secondary.MachineFilters) ([]*secondary.MachineRecord, error) {
	var result []*secondary.MachineRecord
	for _, r := range m.machines {
		if filters.LineID != "" && r.LineID != filters.LineID {
			continue
		}
		if filters.Status != "" && r.Status != filters.Status {
			continue
		}
		clone := *r
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockMachineRepo) CreateLine(ctx context.Context, line *secondary.LineRecord) error {
	if _, ok := m.lines[line.Code]; ok {
		return apperr.NewConflictError("line code "+line.Code+" already taken", nil)
	}
	clone := *line
	m.lines[line.Code] = &clone
	return nil
}

func (m *mockMachineRepo) GetLineByCode(ctx context.Context, code string) (*secondary.LineRecord, error) {
	r, ok := m.lines[code]
	if !ok {
		return nil, apperr.NewNotFoundError("production line", code)
	}
	clone := *r
	return &clone, nil
}

func (m *mockMachineRepo) ListLines(ctx context.Context) ([]*secondary.LineRecord, error) {
	var result []*secondary.LineRecord
	for _, r := range m.lines {
		clone := *r
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockMachineRepo) CreateShift(ctx context.Context, shift *secondary.ShiftRecord) error {
	clone := *shift
	m.shifts[shift.LineID] = append(m.shifts[shift.LineID], &clone)
	return nil
}

func (m *mockMachineRepo) ListShifts(ctx context.Context, lineID string) ([]*secondary.ShiftRecord, error) {
	return m.shifts[lineID], nil
}

// newBatchRequest builds a minimal create request for a stage and machine.
func newBatchRequest(stageName, machineCode string) primary.CreateBatchRequest {
	return primary.CreateBatchRequest{
		Stage:       stageName,
		MachineCode: machineCode,
		ShiftCode:   "A",
		OperatorID:  "op-1",
	}
}

// newSpinningRequest builds a fully-measured spinning create request for
// RING-01.
func newSpinningRequest() primary.CreateBatchRequest {
	req := newBatchRequest("spinning", "RING-01")
	req.InputWeight = fptr(449)
	req.OutputWeight = fptr(430)
	req.TwistTPM = fptr(820)
	req.EfficiencyPct = fptr(92)
	req.ActiveSpindles = iptr(400)
	req.TotalSpindles = iptr(480)
	req.BreakageCount = iptr(12)
	return req
}

// newSpinningRecord builds a stored spinning batch for seeding mocks
// directly.
func newSpinningRecord(id, identifier string) *secondary.BatchRecord {
	return &secondary.BatchRecord{
		ID:             id,
		Identifier:     identifier,
		Stage:          "spinning",
		LineID:         "line-1",
		MachineID:      "machine-ring",
		ProductionDate: "2026-08-31",
		Status:         "in_progress",
		InputWeight:    fptr(449),
		OutputWeight:   fptr(430),
		EfficiencyPct:  fptr(92),
		ActiveSpindles: iptr(400),
		TotalSpindles:  iptr(480),
		BreakageCount:  iptr(12),
	}
}

func newUpdateRequest(identifier string) primary.UpdateBatchRequest {
	return primary.UpdateBatchRequest{Identifier: identifier}
}

func fptr(v float64) *float64 { return &v }

func iptr(v int) *int { return &v }
