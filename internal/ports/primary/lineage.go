package primary

import "context"

// LineageService defines the primary port for the production lineage graph.
type LineageService interface {
	// AttachInput links a source batch into a numbered input slot of a
	// downstream batch, after guard checks and weight budgeting.
	AttachInput(ctx context.Context, req AttachInputRequest) (*LineageInput, error)

	// ListInputs retrieves a batch's direct inputs ordered by position.
	ListInputs(ctx context.Context, identifier string) ([]*LineageInput, error)

	// ResolveLineage opens a lazy upstream walk rooted at the given
	// batch. The walker is single-use and not restartable.
	ResolveLineage(ctx context.Context, identifier string, maxDepth int) (LineageWalker, error)
}

// AttachInputRequest contains parameters for attaching an input.
type AttachInputRequest struct {
	DownstreamIdentifier string
	SourceIdentifier     string
	Position             int
	WeightUsed           *float64
}

// LineageInput is one edge of the lineage graph at the port boundary.
type LineageInput struct {
	EdgeID           string
	Position         int
	SourceIdentifier string
	SourceStage      string
	WeightUsed       *float64
}

// LineageNode is one batch visited during an upstream walk.
type LineageNode struct {
	Identifier string
	Stage      string
	Depth      int
	Position   int // input slot through which this node was reached; 0 at the root
	WeightUsed *float64
}

// LineageWalker yields upstream ancestry one node at a time,
// breadth-first from the root. Next returns nil when the walk is
// exhausted or the depth limit is reached.
type LineageWalker interface {
	Next(ctx context.Context) (*LineageNode, error)
}
