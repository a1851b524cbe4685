package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/weft/internal/ports/secondary"
)

// CounterRepository implements secondary.CounterRepository with SQLite.
// The single-statement upsert makes Next atomic: two goroutines (or two
// terminals on the mill floor) can never be handed the same sequence.
type CounterRepository struct {
	db *sql.DB
}

// NewCounterRepository creates a new SQLite counter repository.
func NewCounterRepository(db *sql.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// Next increments and returns the sequence for (prefix, bucket).
func (r *CounterRepository) Next(ctx context.Context, prefix, bucket string) (int, error) {
	var seq int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO batch_counters (prefix, bucket, last_seq)
		VALUES (?, ?, 1)
		ON CONFLICT(prefix, bucket) DO UPDATE SET last_seq = last_seq + 1
		RETURNING last_seq`,
		prefix, bucket,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to advance counter %s/%s: %w", prefix, bucket, err)
	}

	return seq, nil
}

// Seed installs a floor for a bucket's sequence if the stored value is
// lower. Existing higher counters are left alone.
func (r *CounterRepository) Seed(ctx context.Context, prefix, bucket string, lastSeq int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO batch_counters (prefix, bucket, last_seq)
		VALUES (?, ?, ?)
		ON CONFLICT(prefix, bucket) DO UPDATE SET last_seq = MAX(last_seq, excluded.last_seq)`,
		prefix, bucket, lastSeq,
	)
	if err != nil {
		return fmt.Errorf("failed to seed counter %s/%s: %w", prefix, bucket, err)
	}

	return nil
}

// Ensure CounterRepository implements the interface
var _ secondary.CounterRepository = (*CounterRepository)(nil)
