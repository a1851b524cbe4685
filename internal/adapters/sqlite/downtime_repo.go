package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/weft/internal/apperr"
	"github.com/example/weft/internal/ports/secondary"
)

// DowntimeRepository implements secondary.DowntimeRepository with SQLite.
type DowntimeRepository struct {
	db *sql.DB
}

// NewDowntimeRepository creates a new SQLite downtime repository.
func NewDowntimeRepository(db *sql.DB) *DowntimeRepository {
	return &DowntimeRepository{db: db}
}

const downtimeSelectCols = "id, line_id, machine_id, shift_id, start_time, end_time, duration_min, reason_category, reason_detail, production_loss, metadata, created_at"

// scanDowntime scans a downtime row into a DowntimeRecord.
func scanDowntime(scanner interface {
	Scan(dest ...any) error
}) (*secondary.DowntimeRecord, error) {
	var (
		lineID         sql.NullString
		shiftID        sql.NullString
		startTime      time.Time
		endTime        sql.NullTime
		durationMin    sql.NullInt64
		reasonDetail   sql.NullString
		productionLoss sql.NullFloat64
		metadata       sql.NullString
		createdAt      time.Time
	)

	record := &secondary.DowntimeRecord{}
	err := scanner.Scan(
		&record.ID, &lineID, &record.MachineID, &shiftID,
		&startTime, &endTime, &durationMin,
		&record.ReasonCategory, &reasonDetail, &productionLoss,
		&metadata, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	record.LineID = lineID.String
	record.ShiftID = shiftID.String
	record.StartTime = startTime.Format(time.RFC3339)
	record.DurationMin = intPtr(durationMin)
	record.ReasonDetail = reasonDetail.String
	record.ProductionLoss = floatPtr(productionLoss)
	record.Metadata = metadata.String
	record.CreatedAt = createdAt.Format(time.RFC3339)

	if endTime.Valid {
		record.EndTime = endTime.Time.Format(time.RFC3339)
	}

	return record, nil
}

// Create persists a new downtime record.
func (r *DowntimeRepository) Create(ctx context.Context, record *secondary.DowntimeRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO downtime_logs (
			id, line_id, machine_id, shift_id, start_time, end_time,
			duration_min, reason_category, reason_detail, production_loss, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, nullString(record.LineID), record.MachineID, nullString(record.ShiftID),
		record.StartTime, nullString(record.EndTime),
		nullInt(record.DurationMin), record.ReasonCategory, nullString(record.ReasonDetail),
		nullFloat(record.ProductionLoss), nullString(record.Metadata),
	)
	if err != nil {
		return fmt.Errorf("failed to create downtime record: %w", err)
	}

	return nil
}

// GetByID retrieves a downtime record.
func (r *DowntimeRepository) GetByID(ctx context.Context, id string) (*secondary.DowntimeRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+downtimeSelectCols+" FROM downtime_logs WHERE id = ?",
		id,
	)

	record, err := scanDowntime(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NewNotFoundError("downtime record", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get downtime record: %w", err)
	}

	return record, nil
}

// Close stamps the end time, duration, and production loss.
func (r *DowntimeRepository) Close(ctx context.Context, id, endTime string, durationMin int, productionLoss *float64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE downtime_logs SET end_time = ?, duration_min = ?, production_loss = ? WHERE id = ?",
		endTime, durationMin, nullFloat(productionLoss), id,
	)
	if err != nil {
		return fmt.Errorf("failed to close downtime record: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperr.NewNotFoundError("downtime record", id)
	}

	return nil
}

// UpdateMetadata persists the machine-health bundle.
func (r *DowntimeRepository) UpdateMetadata(ctx context.Context, id, metadata string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE downtime_logs SET metadata = ? WHERE id = ?",
		metadata, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update downtime metadata: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperr.NewNotFoundError("downtime record", id)
	}

	return nil
}

// ListByMachine retrieves records with start_time in [from, to), oldest
// first.
func (r *DowntimeRepository) ListByMachine(ctx context.Context, machineID, from, to string) ([]*secondary.DowntimeRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+downtimeSelectCols+" FROM downtime_logs WHERE machine_id = ? AND start_time >= ? AND start_time < ? ORDER BY start_time ASC",
		machineID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list downtime records: %w", err)
	}
	defer rows.Close()

	var records []*secondary.DowntimeRecord
	for rows.Next() {
		record, err := scanDowntime(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan downtime record: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}

// MinutesForMachineDate sums closed durations for one machine on one
// production date. The date is read from the stored timestamp prefix:
// start_time carries the writer's zone offset, and its first ten
// characters are the local calendar date that production_date uses.
// DATE() would normalize to UTC and shift early-morning stoppages onto
// the previous day.
func (r *DowntimeRepository) MinutesForMachineDate(ctx context.Context, machineID, date string) (int, error) {
	var minutes int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(duration_min), 0) FROM downtime_logs WHERE machine_id = ? AND substr(start_time, 1, 10) = ?",
		machineID, date,
	).Scan(&minutes)
	if err != nil {
		return 0, fmt.Errorf("failed to sum downtime minutes: %w", err)
	}

	return minutes, nil
}

// Rolling aggregates count and minutes of stoppages starting at or after
// the given instant.
func (r *DowntimeRepository) Rolling(ctx context.Context, machineID, since string) (*secondary.RollingDowntime, error) {
	agg := &secondary.RollingDowntime{}
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(duration_min), 0) FROM downtime_logs WHERE machine_id = ? AND start_time >= ?",
		machineID, since,
	).Scan(&agg.Count, &agg.TotalMin)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rolling downtime: %w", err)
	}

	return agg, nil
}

// Ensure DowntimeRepository implements the interface
var _ secondary.DowntimeRepository = (*DowntimeRepository)(nil)
