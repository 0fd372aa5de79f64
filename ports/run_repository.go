package ports

import (
	"context"

	"claimsift/domain/core"
	"claimsift/domain/evaluation"
)

// RunFilters for listing runs
type RunFilters struct {
	Limit  int
	Offset int
}

// RunRepository persists model-selection run summaries
type RunRepository interface {
	SaveRun(ctx context.Context, summary *evaluation.RunSummary) error
	GetRun(ctx context.Context, id core.RunID) (*evaluation.RunSummary, error)
	// ListRuns returns runs newest first
	ListRuns(ctx context.Context, filters RunFilters) ([]*evaluation.RunSummary, error)
}
