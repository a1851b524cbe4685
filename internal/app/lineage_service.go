package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/weft/internal/apperr"
	"github.com/example/weft/internal/core/lineage"
	"github.com/example/weft/internal/core/stage"
	"github.com/example/weft/internal/ports/primary"
	"github.com/example/weft/internal/ports/secondary"
)

// defaultWalkDepth bounds upstream traversal when the caller does not ask
// for a specific depth. Ten levels covers the longest production chain
// (fiber through dyeing) with headroom.
const defaultWalkDepth = 10

// LineageServiceImpl implements the LineageService interface.
type LineageServiceImpl struct {
	batchRepo   secondary.BatchRepository
	lineageRepo secondary.LineageRepository
}

// NewLineageService creates a new LineageService with injected dependencies.
func NewLineageService(
	batchRepo secondary.BatchRepository,
	lineageRepo secondary.LineageRepository,
) *LineageServiceImpl {
	return &LineageServiceImpl{
		batchRepo:   batchRepo,
		lineageRepo: lineageRepo,
	}
}

// AttachInput links a source batch into a numbered input slot of a
// downstream batch.
func (s *LineageServiceImpl) AttachInput(ctx context.Context, req primary.AttachInputRequest) (*primary.LineageInput, error) {
	down, err := s.batchRepo.GetByIdentifier(ctx, req.DownstreamIdentifier)
	if err != nil {
		return nil, err
	}

	src, err := s.batchRepo.GetByIdentifier(ctx, req.SourceIdentifier)
	if err != nil {
		return nil, err
	}

	occupied, err := s.lineageRepo.PositionOccupied(ctx, down.ID, req.Position)
	if err != nil {
		return nil, err
	}

	check := lineage.AttachContext{
		DownstreamID:     down.ID,
		DownstreamStage:  stage.Stage(down.Stage),
		DownstreamPass:   down.PassNumber,
		Position:         req.Position,
		PositionOccupied: occupied,
		SourceID:         src.ID,
		SourceStage:      stage.Stage(src.Stage),
		SourcePass:       src.PassNumber,
		WeightUsed:       req.WeightUsed,
	}

	// The weight budget only applies when both sides are measured.
	if req.WeightUsed != nil && src.OutputWeight != nil {
		consumed, err := s.lineageRepo.ConsumedFromSource(ctx, src.Stage, src.ID)
		if err != nil {
			return nil, err
		}
		remaining := *src.OutputWeight - consumed
		check.SourceRemaining = &remaining
		check.EnforceWeight = true
	}

	if result := lineage.CanAttachInput(check); !result.Allowed {
		return nil, apperr.NewValidationError("%s", result.Reason)
	}

	edge := &secondary.LineageEdgeRecord{
		ID:               uuid.NewString(),
		DownstreamID:     down.ID,
		InputPosition:    req.Position,
		SourceStage:      src.Stage,
		SourceID:         src.ID,
		SourceIdentifier: src.Identifier,
		WeightUsed:       req.WeightUsed,
	}

	if err := s.lineageRepo.Insert(ctx, edge); err != nil {
		return nil, err
	}

	return &primary.LineageInput{
		EdgeID:           edge.ID,
		Position:         edge.InputPosition,
		SourceIdentifier: edge.SourceIdentifier,
		SourceStage:      edge.SourceStage,
		WeightUsed:       edge.WeightUsed,
	}, nil
}

// ListInputs retrieves a batch's direct inputs ordered by position.
func (s *LineageServiceImpl) ListInputs(ctx context.Context, ident string) ([]*primary.LineageInput, error) {
	batch, err := s.batchRepo.GetByIdentifier(ctx, ident)
	if err != nil {
		return nil, err
	}

	edges, err := s.lineageRepo.ListByDownstream(ctx, batch.ID)
	if err != nil {
		return nil, err
	}

	inputs := make([]*primary.LineageInput, 0, len(edges))
	for _, e := range edges {
		inputs = append(inputs, &primary.LineageInput{
			EdgeID:           e.ID,
			Position:         e.InputPosition,
			SourceIdentifier: e.SourceIdentifier,
			SourceStage:      e.SourceStage,
			WeightUsed:       e.WeightUsed,
		})
	}

	return inputs, nil
}

// ResolveLineage opens a lazy upstream walk rooted at the given batch.
func (s *LineageServiceImpl) ResolveLineage(ctx context.Context, ident string, maxDepth int) (primary.LineageWalker, error) {
	root, err := s.batchRepo.GetByIdentifier(ctx, ident)
	if err != nil {
		return nil, err
	}

	if maxDepth <= 0 {
		maxDepth = defaultWalkDepth
	}

	w := &lineageWalker{
		lineageRepo: s.lineageRepo,
		maxDepth:    maxDepth,
		visited:     map[string]bool{root.ID: true},
	}
	w.queue = append(w.queue, walkItem{
		batchID: root.ID,
		node: &primary.LineageNode{
			Identifier: root.Identifier,
			Stage:      root.Stage,
		},
	})

	return w, nil
}

type walkItem struct {
	batchID string
	node    *primary.LineageNode
}

// lineageWalker yields ancestry breadth-first, fetching each batch's
// inputs only when that batch is popped. Diamond lineage (the same source
// feeding two slots) is emitted once. Single-use: once Next returns nil
// the walk is exhausted.
type lineageWalker struct {
	lineageRepo secondary.LineageRepository
	queue       []walkItem
	visited     map[string]bool
	maxDepth    int
}

// Next returns the next node in the walk, or nil when done.
func (w *lineageWalker) Next(ctx context.Context) (*primary.LineageNode, error) {
	if len(w.queue) == 0 {
		return nil, nil
	}

	item := w.queue[0]
	w.queue = w.queue[1:]

	if item.node.Depth < w.maxDepth {
		edges, err := w.lineageRepo.ListByDownstream(ctx, item.batchID)
		if err != nil {
			return nil, fmt.Errorf("failed to expand lineage of %s: %w", item.node.Identifier, err)
		}
		for _, e := range edges {
			if w.visited[e.SourceID] {
				continue
			}
			w.visited[e.SourceID] = true
			w.queue = append(w.queue, walkItem{
				batchID: e.SourceID,
				node: &primary.LineageNode{
					Identifier: e.SourceIdentifier,
					Stage:      e.SourceStage,
					Depth:      item.node.Depth + 1,
					Position:   e.InputPosition,
					WeightUsed: e.WeightUsed,
				},
			})
		}
	}

	return item.node, nil
}

// Ensure LineageServiceImpl implements the interface
var _ primary.LineageService = (*LineageServiceImpl)(nil)
