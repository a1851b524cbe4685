// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/weft/internal/apperr"
	"github.com/example/weft/internal/ports/secondary"
)

// BatchRepository implements secondary.BatchRepository with SQLite.
type BatchRepository struct {
	db *sql.DB
}

// NewBatchRepository creates a new SQLite batch repository.
func NewBatchRepository(db *sql.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

const batchSelectCols = "id, identifier, stage, pass_number, line_id, machine_id, operator_id, shift_id, order_id, production_date, status, started_at, completed_at, input_weight, output_weight, waste_weight, neps_count, evenness_cv, draft_ratio, twist_tpm, efficiency_pct, active_spindles, total_spindles, breakage_count, temperature, ph, liquor_ratio, duration_min, quality_result, metadata, created_at, updated_at"

// scanBatch scans a batch row into a BatchRecord.
func scanBatch(scanner interface {
	Scan(dest ...any) error
}) (*secondary.BatchRecord, error) {
	var (
		lineID         sql.NullString
		machineID      sql.NullString
		operatorID     sql.NullString
		shiftID        sql.NullString
		orderID        sql.NullString
		startedAt      sql.NullTime
		completedAt    sql.NullTime
		inputWeight    sql.NullFloat64
		outputWeight   sql.NullFloat64
		wasteWeight    sql.NullFloat64
		nepsCount      sql.NullInt64
		evennessCV     sql.NullFloat64
		draftRatio     sql.NullFloat64
		twistTPM       sql.NullFloat64
		efficiencyPct  sql.NullFloat64
		activeSpindles sql.NullInt64
		totalSpindles  sql.NullInt64
		breakageCount  sql.NullInt64
		temperature    sql.NullFloat64
		ph             sql.NullFloat64
		liquorRatio    sql.NullFloat64
		durationMin    sql.NullInt64
		qualityResult  sql.NullString
		metadata       sql.NullString
		createdAt      time.Time
		updatedAt      time.Time
	)

	record := &secondary.BatchRecord{}
	err := scanner.Scan(
		&record.ID, &record.Identifier, &record.Stage, &record.PassNumber,
		&lineID, &machineID, &operatorID, &shiftID, &orderID,
		&record.ProductionDate, &record.Status, &startedAt, &completedAt,
		&inputWeight, &outputWeight, &wasteWeight,
		&nepsCount, &evennessCV, &draftRatio,
		&twistTPM, &efficiencyPct, &activeSpindles, &totalSpindles, &breakageCount,
		&temperature, &ph, &liquorRatio, &durationMin, &qualityResult,
		&metadata, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.LineID = lineID.String
	record.MachineID = machineID.String
	record.OperatorID = operatorID.String
	record.ShiftID = shiftID.String
	record.OrderID = orderID.String
	record.InputWeight = floatPtr(inputWeight)
	record.OutputWeight = floatPtr(outputWeight)
	record.WasteWeight = floatPtr(wasteWeight)
	record.NepsCount = intPtr(nepsCount)
	record.EvennessCV = floatPtr(evennessCV)
	record.DraftRatio = floatPtr(draftRatio)
	record.TwistTPM = floatPtr(twistTPM)
	record.EfficiencyPct = floatPtr(efficiencyPct)
	record.ActiveSpindles = intPtr(activeSpindles)
	record.TotalSpindles = intPtr(totalSpindles)
	record.BreakageCount = intPtr(breakageCount)
	record.Temperature = floatPtr(temperature)
	record.PH = floatPtr(ph)
	record.LiquorRatio = floatPtr(liquorRatio)
	record.DurationMin = intPtr(durationMin)
	record.QualityResult = qualityResult.String
	record.Metadata = metadata.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	if startedAt.Valid {
		record.StartedAt = startedAt.Time.Format(time.RFC3339)
	}
	if completedAt.Valid {
		record.CompletedAt = completedAt.Time.Format(time.RFC3339)
	}

	return record, nil
}

// Create persists a new batch.
func (r *BatchRepository) Create(ctx context.Context, batch *secondary.BatchRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO batches (
			id, identifier, stage, pass_number, line_id, machine_id, operator_id, shift_id, order_id,
			production_date, status, input_weight, output_weight, waste_weight,
			neps_count, evenness_cv, draft_ratio,
			twist_tpm, efficiency_pct, active_spindles, total_spindles, breakage_count,
			temperature, ph, liquor_ratio, duration_min, quality_result, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.Identifier, batch.Stage, batch.PassNumber,
		nullString(batch.LineID), nullString(batch.MachineID), nullString(batch.OperatorID),
		nullString(batch.ShiftID), nullString(batch.OrderID),
		batch.ProductionDate, batch.Status,
		nullFloat(batch.InputWeight), nullFloat(batch.OutputWeight), nullFloat(batch.WasteWeight),
		nullInt(batch.NepsCount), nullFloat(batch.EvennessCV), nullFloat(batch.DraftRatio),
		nullFloat(batch.TwistTPM), nullFloat(batch.EfficiencyPct),
		nullInt(batch.ActiveSpindles), nullInt(batch.TotalSpindles), nullInt(batch.BreakageCount),
		nullFloat(batch.Temperature), nullFloat(batch.PH), nullFloat(batch.LiquorRatio),
		nullInt(batch.DurationMin), nullString(batch.QualityResult), nullString(batch.Metadata),
	)
	if isUniqueViolation(err) {
		return apperr.NewConflictError(fmt.Sprintf("identifier %s already taken", batch.Identifier), err)
	}
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}

	return nil
}

// GetByID retrieves a batch by its row ID.
func (r *BatchRepository) GetByID(ctx context.Context, id string) (*secondary.BatchRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+batchSelectCols+" FROM batches WHERE id = ?",
		id,
	)

	record, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NewNotFoundError("batch", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	return record, nil
}

// GetByIdentifier retrieves a batch by its human-readable identifier.
func (r *BatchRepository) GetByIdentifier(ctx context.Context, identifier string) (*secondary.BatchRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+batchSelectCols+" FROM batches WHERE identifier = ?",
		identifier,
	)

	record, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NewNotFoundError("batch", identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	return record, nil
}

// Update rewrites the operator-editable measurement fields of a batch.
func (r *BatchRepository) Update(ctx context.Context, batch *secondary.BatchRecord) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE batches SET
			input_weight = ?, output_weight = ?, waste_weight = ?,
			neps_count = ?, evenness_cv = ?, draft_ratio = ?,
			twist_tpm = ?, efficiency_pct = ?, active_spindles = ?, total_spindles = ?, breakage_count = ?,
			temperature = ?, ph = ?, liquor_ratio = ?, duration_min = ?, quality_result = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		nullFloat(batch.InputWeight), nullFloat(batch.OutputWeight), nullFloat(batch.WasteWeight),
		nullInt(batch.NepsCount), nullFloat(batch.EvennessCV), nullFloat(batch.DraftRatio),
		nullFloat(batch.TwistTPM), nullFloat(batch.EfficiencyPct),
		nullInt(batch.ActiveSpindles), nullInt(batch.TotalSpindles), nullInt(batch.BreakageCount),
		nullFloat(batch.Temperature), nullFloat(batch.PH), nullFloat(batch.LiquorRatio),
		nullInt(batch.DurationMin), nullString(batch.QualityResult),
		batch.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperr.NewNotFoundError("batch", batch.ID)
	}

	return nil
}

// UpdateStatus moves a batch through its lifecycle.
func (r *BatchRepository) UpdateStatus(ctx context.Context, id, status string, setCompleted bool) error {
	query := "UPDATE batches SET status = ?, updated_at = CURRENT_TIMESTAMP"
	args := []any{status}

	if setCompleted {
		query += ", completed_at = CURRENT_TIMESTAMP"
	}

	query += " WHERE id = ?"
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update batch status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperr.NewNotFoundError("batch", id)
	}

	return nil
}

// UpdateMetadata persists a computed metadata bundle.
func (r *BatchRepository) UpdateMetadata(ctx context.Context, id, metadata string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE batches SET metadata = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		metadata, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update batch metadata: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperr.NewNotFoundError("batch", id)
	}

	return nil
}

// List retrieves batches matching the given filters.
func (r *BatchRepository) List(ctx context.Context, filters secondary.BatchFilters) ([]*secondary.BatchRecord, error) {
	query := "SELECT " + batchSelectCols + " FROM batches WHERE 1=1"
	args := []any{}

	if filters.Stage != "" {
		query += " AND stage = ?"
		args = append(args, filters.Stage)
	}

	if filters.MachineID != "" {
		query += " AND machine_id = ?"
		args = append(args, filters.MachineID)
	}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	if filters.ProductionDate != "" {
		query += " AND production_date = ?"
		args = append(args, filters.ProductionDate)
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var batches []*secondary.BatchRecord
	for rows.Next() {
		record, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, record)
	}

	return batches, nil
}

// SpinningDayAggregates aggregates completed spinning batches for one
// machine-day.
func (r *BatchRepository) SpinningDayAggregates(ctx context.Context, machineID, date string) (*secondary.SpinningDayAggregates, error) {
	var (
		avgEfficiency sql.NullFloat64
		totalBreakage int
		totalSpindles int
		batchCount    int
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT AVG(efficiency_pct), COALESCE(SUM(breakage_count), 0), COALESCE(SUM(active_spindles), 0), COUNT(*)
		FROM batches
		WHERE machine_id = ? AND production_date = ? AND stage = 'spinning' AND status = 'completed'`,
		machineID, date,
	).Scan(&avgEfficiency, &totalBreakage, &totalSpindles, &batchCount)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate spinning day: %w", err)
	}

	return &secondary.SpinningDayAggregates{
		AvgEfficiencyPct:    floatPtr(avgEfficiency),
		TotalBreakage:       totalBreakage,
		TotalActiveSpindles: totalSpindles,
		BatchCount:          batchCount,
	}, nil
}

// timeseriesExprs maps a metric name to its per-day aggregate expression.
// This allow-list is the only way a metric name reaches SQL.
var timeseriesExprs = map[string]string{
	"output_weight":  "COALESCE(SUM(output_weight), 0)",
	"efficiency_pct": "COALESCE(AVG(efficiency_pct), 0)",
	"breakage_count": "COALESCE(SUM(breakage_count), 0)",
}

// Timeseries aggregates a spinning metric per day from fromDate onward.
func (r *BatchRepository) Timeseries(ctx context.Context, machineID, metric, fromDate string) ([]secondary.TimeseriesPoint, error) {
	expr, ok := timeseriesExprs[metric]
	if !ok {
		return nil, apperr.NewValidationError("unsupported timeseries metric %q", metric)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT production_date, `+expr+`
		FROM batches
		WHERE machine_id = ? AND production_date >= ? AND stage = 'spinning' AND status = 'completed'
		GROUP BY production_date
		ORDER BY production_date ASC`,
		machineID, fromDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeseries: %w", err)
	}
	defer rows.Close()

	var points []secondary.TimeseriesPoint
	for rows.Next() {
		var p secondary.TimeseriesPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan timeseries point: %w", err)
		}
		points = append(points, p)
	}

	return points, nil
}

// MaxIdentifier returns the greatest identifier matching the LIKE pattern,
// or "" when none exists.
func (r *BatchRepository) MaxIdentifier(ctx context.Context, pattern string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		"SELECT identifier FROM batches WHERE identifier LIKE ? ORDER BY identifier DESC LIMIT 1",
		pattern,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get max identifier: %w", err)
	}

	return id, nil
}

// Ensure BatchRepository implements the interface
var _ secondary.BatchRepository = (*BatchRepository)(nil)
