package db

// SchemaSQL is the complete modern schema for fresh weft installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(): if repository code references a column that
// doesn't exist here, tests fail immediately with "no such column", which
// catches drift at development time instead of on a mill floor.
//
// When adding new columns or tables:
//  1. Add a migration in internal/db/migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Production lines (a mill floor section: PP1, PP2, ...)
CREATE TABLE IF NOT EXISTS production_lines (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('active', 'archived')) DEFAULT 'active',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Shifts (working shifts on a line)
CREATE TABLE IF NOT EXISTS shifts (
	id TEXT PRIMARY KEY,
	line_id TEXT NOT NULL,
	code TEXT NOT NULL,
	name TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (line_id) REFERENCES production_lines(id),
	UNIQUE(line_id, code)
);

-- Machines (one machine per production stage type)
CREATE TABLE IF NOT EXISTS machines (
	id TEXT PRIMARY KEY,
	line_id TEXT NOT NULL,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	machine_type TEXT NOT NULL CHECK(machine_type IN ('blowroom', 'carding', 'passage', 'finisher', 'spinning', 'winding', 'tfo', 'heatset', 'dyeing')),
	status TEXT NOT NULL CHECK(status IN ('active', 'maintenance', 'retired')) DEFAULT 'active',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (line_id) REFERENCES production_lines(id)
);

-- Batches (every production stage shares one table; stage-specific
-- columns are NULL outside their stage)
CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	identifier TEXT NOT NULL UNIQUE,
	stage TEXT NOT NULL CHECK(stage IN ('fiber', 'blowroom', 'carding', 'passage', 'finisher', 'spinning', 'winding', 'tfo', 'heatset', 'dyeing')),
	pass_number INTEGER NOT NULL DEFAULT 0,
	line_id TEXT,
	machine_id TEXT,
	operator_id TEXT,
	shift_id TEXT,
	order_id TEXT,
	production_date TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('in_progress', 'completed', 'quality_hold', 'cancelled')) DEFAULT 'in_progress',
	started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	completed_at DATETIME,
	input_weight REAL,
	output_weight REAL,
	waste_weight REAL,
	neps_count INTEGER,
	evenness_cv REAL,
	draft_ratio REAL,
	twist_tpm REAL,
	efficiency_pct REAL,
	active_spindles INTEGER,
	total_spindles INTEGER,
	breakage_count INTEGER,
	temperature REAL,
	ph REAL,
	liquor_ratio REAL,
	duration_min INTEGER,
	quality_result TEXT,
	metadata TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (line_id) REFERENCES production_lines(id),
	FOREIGN KEY (machine_id) REFERENCES machines(id),
	FOREIGN KEY (shift_id) REFERENCES shifts(id)
);

CREATE INDEX IF NOT EXISTS idx_batches_stage ON batches(stage);
CREATE INDEX IF NOT EXISTS idx_batches_status ON batches(status);
CREATE INDEX IF NOT EXISTS idx_batches_machine_date ON batches(machine_id, production_date);

-- Lineage edges (downstream batch consumes a source batch at a slot)
CREATE TABLE IF NOT EXISTS lineage_edges (
	id TEXT PRIMARY KEY,
	downstream_batch_id TEXT NOT NULL,
	input_position INTEGER NOT NULL,
	source_stage TEXT NOT NULL,
	source_batch_id TEXT NOT NULL,
	source_identifier TEXT NOT NULL,
	weight_used REAL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (downstream_batch_id) REFERENCES batches(id) ON DELETE CASCADE,
	FOREIGN KEY (source_batch_id) REFERENCES batches(id),
	UNIQUE(downstream_batch_id, input_position)
);

CREATE INDEX IF NOT EXISTS idx_lineage_downstream ON lineage_edges(downstream_batch_id);
CREATE INDEX IF NOT EXISTS idx_lineage_source ON lineage_edges(source_stage, source_batch_id);

-- Downtime logs (machine stoppages; end_time NULL while open)
CREATE TABLE IF NOT EXISTS downtime_logs (
	id TEXT PRIMARY KEY,
	line_id TEXT,
	machine_id TEXT NOT NULL,
	shift_id TEXT,
	start_time DATETIME NOT NULL,
	end_time DATETIME,
	duration_min INTEGER,
	reason_category TEXT NOT NULL CHECK(reason_category IN ('mechanical', 'electrical', 'material', 'operator', 'quality', 'planned', 'other')),
	reason_detail TEXT,
	production_loss REAL,
	metadata TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (line_id) REFERENCES production_lines(id),
	FOREIGN KEY (machine_id) REFERENCES machines(id),
	FOREIGN KEY (shift_id) REFERENCES shifts(id)
);

CREATE INDEX IF NOT EXISTS idx_downtime_machine_start ON downtime_logs(machine_id, start_time);
CREATE INDEX IF NOT EXISTS idx_downtime_reason ON downtime_logs(reason_category);

-- Batch counters (atomic per-prefix, per-bucket identifier sequences)
CREATE TABLE IF NOT EXISTS batch_counters (
	prefix TEXT NOT NULL,
	bucket TEXT NOT NULL,
	last_seq INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (prefix, bucket)
);
`

// InitSchema creates the database schema
func InitSchema() error {
	db, err := GetDB()
	if err != nil {
		return err
	}

	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		// Completely fresh install - create modern schema directly and
		// stamp every migration as applied so none re-run.
		_, err = db.Exec(SchemaSQL)
		if err != nil {
			return err
		}
		_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return err
		}
		for _, m := range migrations {
			_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version)
			if err != nil {
				return err
			}
		}
		return nil
	}

	// schema_version table exists - run any pending migrations
	return RunMigrations()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
