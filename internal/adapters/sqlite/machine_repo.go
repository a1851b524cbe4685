package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/weft/internal/apperr"
	"github.com/example/weft/internal/ports/secondary"
)

// MachineRepository implements secondary.MachineRepository with SQLite.
// It covers the whole plant registry: machines, lines, and shifts.
type MachineRepository struct {
	db *sql.DB
}

// NewMachineRepository creates a new SQLite machine repository.
func NewMachineRepository(db *sql.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

const machineSelectCols = "id, line_id, code, name, machine_type, status, created_at, updated_at"

// scanMachine scans a machine row into a MachineRecord.
func scanMachine(scanner interface {
	Scan(dest ...any) error
}) (*secondary.MachineRecord, error) {
	var createdAt, updatedAt time.Time

	record := &secondary.MachineRecord{}
	err := scanner.Scan(
		&record.ID, &record.LineID, &record.Code, &record.Name,
		&record.MachineType, &record.Status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	return record, nil
}

// Create persists a new machine.
func (r *MachineRepository) Create(ctx context.Context, machine *secondary.MachineRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO machines (id, line_id, code, name, machine_type, status) VALUES (?, ?, ?, ?, ?, ?)",
		machine.ID, machine.LineID, machine.Code, machine.Name, machine.MachineType, machine.Status,
	)
	if isUniqueViolation(err) {
		return apperr.NewConflictError(fmt.Sprintf("machine code %s already taken", machine.Code), err)
	}
	if err != nil {
		return fmt.Errorf("failed to create machine: %w", err)
	}

	return nil
}

// GetByID retrieves a machine by row ID.
func (r *MachineRepository) GetByID(ctx context.Context, id string) (*secondary.MachineRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+machineSelectCols+" FROM machines WHERE id = ?",
		id,
	)

	record, err := scanMachine(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NewNotFoundError("machine", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get machine: %w", err)
	}

	return record, nil
}

// GetByCode retrieves a machine by its floor code.
func (r *MachineRepository) GetByCode(ctx context.Context, code string) (*secondary.MachineRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+machineSelectCols+" FROM machines WHERE code = ?",
		code,
	)

	record, err := scanMachine(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NewNotFoundError("machine", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get machine: %w", err)
	}

	return record, nil
}

// List retrieves machines matching the given filters.
func (r *MachineRepository) List(ctx context.Context, filters secondary.MachineFilters) ([]*secondary.MachineRecord, error) {
	query := "SELECT " + machineSelectCols + " FROM machines WHERE 1=1"
	args := []any{}

	if filters.LineID != "" {
		query += " AND line_id = ?"
		args = append(args, filters.LineID)
	}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	query += " ORDER BY code ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	defer rows.Close()

	var machines []*secondary.MachineRecord
	for rows.Next() {
		record, err := scanMachine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan machine: %w", err)
		}
		machines = append(machines, record)
	}

	return machines, nil
}

// CreateLine persists a new production line.
func (r *MachineRepository) CreateLine(ctx context.Context, line *secondary.LineRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO production_lines (id, code, name, status) VALUES (?, ?, ?, ?)",
		line.ID, line.Code, line.Name, line.Status,
	)
	if isUniqueViolation(err) {
		return apperr.NewConflictError(fmt.Sprintf("line code %s already taken", line.Code), err)
	}
	if err != nil {
		return fmt.Errorf("failed to create production line: %w", err)
	}

	return nil
}

// GetLineByCode retrieves a production line by code.
func (r *MachineRepository) GetLineByCode(ctx context.Context, code string) (*secondary.LineRecord, error) {
	var createdAt time.Time
	record := &secondary.LineRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, code, name, status, created_at FROM production_lines WHERE code = ?",
		code,
	).Scan(&record.ID, &record.Code, &record.Name, &record.Status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NewNotFoundError("production line", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get production line: %w", err)
	}

	record.CreatedAt = createdAt.Format(time.RFC3339)

	return record, nil
}

// ListLines retrieves every production line.
func (r *MachineRepository) ListLines(ctx context.Context) ([]*secondary.LineRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, code, name, status, created_at FROM production_lines ORDER BY code ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list production lines: %w", err)
	}
	defer rows.Close()

	var lines []*secondary.LineRecord
	for rows.Next() {
		var createdAt time.Time
		record := &secondary.LineRecord{}
		if err := rows.Scan(&record.ID, &record.Code, &record.Name, &record.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan production line: %w", err)
		}
		record.CreatedAt = createdAt.Format(time.RFC3339)
		lines = append(lines, record)
	}

	return lines, nil
}

// CreateShift persists a new shift.
func (r *MachineRepository) CreateShift(ctx context.Context, shift *secondary.ShiftRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO shifts (id, line_id, code, name) VALUES (?, ?, ?, ?)",
		shift.ID, shift.LineID, shift.Code, shift.Name,
	)
	if isUniqueViolation(err) {
		return apperr.NewConflictError(fmt.Sprintf("shift %s already exists on line", shift.Code), err)
	}
	if err != nil {
		return fmt.Errorf("failed to create shift: %w", err)
	}

	return nil
}

// ListShifts retrieves the shifts of a line.
func (r *MachineRepository) ListShifts(ctx context.Context, lineID string) ([]*secondary.ShiftRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, line_id, code, name, created_at FROM shifts WHERE line_id = ? ORDER BY code ASC",
		lineID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []*secondary.ShiftRecord
	for rows.Next() {
		var createdAt time.Time
		record := &secondary.ShiftRecord{}
		if err := rows.Scan(&record.ID, &record.LineID, &record.Code, &record.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		record.CreatedAt = createdAt.Format(time.RFC3339)
		shifts = append(shifts, record)
	}

	return shifts, nil
}

// Ensure MachineRepository implements the interface
var _ secondary.MachineRepository = (*MachineRepository)(nil)
