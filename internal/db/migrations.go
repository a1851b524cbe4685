package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/weft/internal/core/identifier"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_initial_schema",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "backfill_batch_counters_from_identifiers",
		Up:      migrationV2,
	},
}

// RunMigrations executes all pending migrations
func RunMigrations() error {
	db, err := GetDB()
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}

	// Create schema_version table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	// Get current schema version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	// Run pending migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		fmt.Printf("Running migration %d: %s\n", migration.Version, migration.Name)

		// Begin transaction
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		// Run migration
		if err := migration.Up(db); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		// Record migration
		_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		// Commit transaction
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		fmt.Printf("✓ Migration %d completed\n", migration.Version)
	}

	return nil
}

// migrationV1 creates the initial schema
func migrationV1(db *sql.DB) error {
	if _, err := db.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create initial schema: %w", err)
	}
	return nil
}

// migrationV2 folds pre-counter identifiers into batch_counters so that
// databases migrated from scan-max numbering keep allocating past their
// highest existing sequence instead of colliding at 001.
func migrationV2(db *sql.DB) error {
	rows, err := db.Query("SELECT identifier FROM batches")
	if err != nil {
		return fmt.Errorf("failed to read identifiers: %w", err)
	}
	defer rows.Close()

	type key struct{ prefix, bucket string }
	highest := map[key]int{}

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan identifier: %w", err)
		}

		seq, ok := identifier.ParseSeq(id)
		if !ok {
			// Malformed legacy identifier: nothing to fold in.
			continue
		}

		// PREFIX-BUCKET-SEQ: bucket is second-to-last segment, prefix
		// is everything before it.
		parts := strings.Split(id, "-")
		if len(parts) < 3 {
			continue
		}
		bucket := parts[len(parts)-2]
		prefix := strings.Join(parts[:len(parts)-2], "-")

		k := key{prefix, bucket}
		if seq > highest[k] {
			highest[k] = seq
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate identifiers: %w", err)
	}

	for k, seq := range highest {
		_, err := db.Exec(`
			INSERT INTO batch_counters (prefix, bucket, last_seq)
			VALUES (?, ?, ?)
			ON CONFLICT(prefix, bucket) DO UPDATE SET last_seq = MAX(last_seq, excluded.last_seq)
		`, k.prefix, k.bucket, seq)
		if err != nil {
			return fmt.Errorf("failed to backfill counter %s/%s: %w", k.prefix, k.bucket, err)
		}
	}

	return nil
}
