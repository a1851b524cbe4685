package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/weft/internal/apperr"
	"github.com/example/weft/internal/ports/secondary"
)

// LineageRepository implements secondary.LineageRepository with SQLite.
type LineageRepository struct {
	db *sql.DB
}

// NewLineageRepository creates a new SQLite lineage repository.
func NewLineageRepository(db *sql.DB) *LineageRepository {
	return &LineageRepository{db: db}
}

const lineageSelectCols = "id, downstream_batch_id, input_position, source_stage, source_batch_id, source_identifier, weight_used, created_at"

// scanEdge scans a lineage row into a LineageEdgeRecord.
func scanEdge(scanner interface {
	Scan(dest ...any) error
}) (*secondary.LineageEdgeRecord, error) {
	var (
		weightUsed sql.NullFloat64
		createdAt  time.Time
	)

	record := &secondary.LineageEdgeRecord{}
	err := scanner.Scan(
		&record.ID, &record.DownstreamID, &record.InputPosition,
		&record.SourceStage, &record.SourceID, &record.SourceIdentifier,
		&weightUsed, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	record.WeightUsed = floatPtr(weightUsed)
	record.CreatedAt = createdAt.Format(time.RFC3339)

	return record, nil
}

// Insert persists a new lineage edge.
func (r *LineageRepository) Insert(ctx context.Context, edge *secondary.LineageEdgeRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lineage_edges (
			id, downstream_batch_id, input_position, source_stage,
			source_batch_id, source_identifier, weight_used
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		edge.ID, edge.DownstreamID, edge.InputPosition, edge.SourceStage,
		edge.SourceID, edge.SourceIdentifier, nullFloat(edge.WeightUsed),
	)
	if isUniqueViolation(err) {
		return apperr.NewConflictError(fmt.Sprintf("input position %d already occupied", edge.InputPosition), err)
	}
	if err != nil {
		return fmt.Errorf("failed to insert lineage edge: %w", err)
	}

	return nil
}

// PositionOccupied reports whether a slot already holds an edge.
func (r *LineageRepository) PositionOccupied(ctx context.Context, downstreamID string, position int) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM lineage_edges WHERE downstream_batch_id = ? AND input_position = ?",
		downstreamID, position,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check input position: %w", err)
	}

	return count > 0, nil
}

// ListByDownstream retrieves a batch's direct inputs ordered by position.
func (r *LineageRepository) ListByDownstream(ctx context.Context, downstreamID string) ([]*secondary.LineageEdgeRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+lineageSelectCols+" FROM lineage_edges WHERE downstream_batch_id = ? ORDER BY input_position ASC",
		downstreamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list lineage edges: %w", err)
	}
	defer rows.Close()

	var edges []*secondary.LineageEdgeRecord
	for rows.Next() {
		record, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lineage edge: %w", err)
		}
		edges = append(edges, record)
	}

	return edges, nil
}

// ConsumedFromSource sums the weight already drawn from a source batch.
func (r *LineageRepository) ConsumedFromSource(ctx context.Context, sourceStage, sourceID string) (float64, error) {
	var consumed float64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(weight_used), 0) FROM lineage_edges WHERE source_stage = ? AND source_batch_id = ?",
		sourceStage, sourceID,
	).Scan(&consumed)
	if err != nil {
		return 0, fmt.Errorf("failed to sum consumed weight: %w", err)
	}

	return consumed, nil
}

// Ensure LineageRepository implements the interface
var _ secondary.LineageRepository = (*LineageRepository)(nil)
