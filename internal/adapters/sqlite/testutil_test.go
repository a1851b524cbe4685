// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the SINGLE POINT where the database schema is loaded for
// tests. All test setup uses db.GetSchemaSQL() so tests run against the
// authoritative schema: if repository code references a column that doesn't
// exist, tests fail immediately with "no such column".
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/weft/internal/db"
	"github.com/example/weft/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedLine inserts a test production line and returns its ID.
func seedLine(t *testing.T, db *sql.DB, id, code string) string {
	t.Helper()
	if id == "" {
		id = "line-1"
	}
	if code == "" {
		code = "PP1"
	}
	_, err := db.Exec("INSERT INTO production_lines (id, code, name, status) VALUES (?, ?, 'Test Line', 'active')", id, code)
	if err != nil {
		t.Fatalf("failed to seed production line: %v", err)
	}
	return id
}

// seedShift inserts a test shift and returns its ID.
func seedShift(t *testing.T, db *sql.DB, id, lineID, code string) string {
	t.Helper()
	if id == "" {
		id = "shift-a"
	}
	if lineID == "" {
		lineID = "line-1"
	}
	if code == "" {
		code = "A"
	}
	_, err := db.Exec("INSERT INTO shifts (id, line_id, code, name) VALUES (?, ?, ?, 'Morning')", id, lineID, code)
	if err != nil {
		t.Fatalf("failed to seed shift: %v", err)
	}
	return id
}

// seedMachine inserts a test machine and returns its ID.
func seedMachine(t *testing.T, db *sql.DB, id, lineID, code, machineType string) string {
	t.Helper()
	if id == "" {
		id = "machine-1"
	}
	if lineID == "" {
		lineID = "line-1"
	}
	if code == "" {
		code = "RING-01"
	}
	if machineType == "" {
		machineType = "spinning"
	}
	_, err := db.Exec(
		"INSERT INTO machines (id, line_id, code, name, machine_type, status) VALUES (?, ?, ?, 'Test Machine', ?, 'active')",
		id, lineID, code, machineType,
	)
	if err != nil {
		t.Fatalf("failed to seed machine: %v", err)
	}
	return id
}

// seedBatch inserts a minimal batch row and returns its ID.
func seedBatch(t *testing.T, db *sql.DB, id, identifier, batchStage string) string {
	t.Helper()
	if id == "" {
		id = "batch-1"
	}
	if identifier == "" {
		identifier = "SP-040610-001"
	}
	if batchStage == "" {
		batchStage = "spinning"
	}
	_, err := db.Exec(
		"INSERT INTO batches (id, identifier, stage, production_date, status) VALUES (?, ?, ?, '2026-08-31', 'in_progress')",
		id, identifier, batchStage,
	)
	if err != nil {
		t.Fatalf("failed to seed batch: %v", err)
	}
	return id
}

func fptr(v float64) *float64 { return &v }

func iptr(v int) *int { return &v }

// fullBatchRecord builds a spinning batch record with every measurement
// populated, for round-trip assertions.
func fullBatchRecord(id, identifier string) *secondary.BatchRecord {
	return &secondary.BatchRecord{
		ID:             id,
		Identifier:     identifier,
		Stage:          "spinning",
		ProductionDate: "2026-08-31",
		Status:         "in_progress",
		InputWeight:    fptr(449),
		OutputWeight:   fptr(430),
		WasteWeight:    fptr(12),
		TwistTPM:       fptr(560),
		EfficiencyPct:  fptr(92),
		ActiveSpindles: iptr(400),
		TotalSpindles:  iptr(480),
		BreakageCount:  iptr(12),
	}
}
