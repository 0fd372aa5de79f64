// Package memory provides in-process repositories for tests and
// database-less deployments.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"claimsift/domain/core"
	"claimsift/domain/evaluation"
	"claimsift/internal/errors"
	"claimsift/ports"
)

// RunRepository keeps run summaries in memory. Summaries are deep-copied on
// the way in and out so callers cannot mutate stored runs.
type RunRepository struct {
	mu    sync.RWMutex
	runs  map[core.RunID]*evaluation.RunSummary
	order []core.RunID // insertion order, breaks started_at ties
}

// NewRunRepository creates an empty repository
func NewRunRepository() *RunRepository {
	return &RunRepository{runs: make(map[core.RunID]*evaluation.RunSummary)}
}

var _ ports.RunRepository = (*RunRepository)(nil)

func (r *RunRepository) SaveRun(ctx context.Context, run *evaluation.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if run == nil || run.ID == "" {
		return errors.ValidationError("run summary needs an id")
	}
	stored, err := clone(run)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runs[run.ID]; !exists {
		r.order = append(r.order, run.ID)
	}
	r.runs[run.ID] = stored
	return nil
}

func (r *RunRepository) GetRun(ctx context.Context, id core.RunID) (*evaluation.RunSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	run, ok := r.runs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("run %s", id))
	}
	return clone(run)
}

func (r *RunRepository) ListRuns(ctx context.Context, filters ports.RunFilters) ([]*evaluation.RunSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ordered := make([]*evaluation.RunSummary, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		ordered = append(ordered, r.runs[r.order[i]])
	}
	r.mu.RUnlock()

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartedAt.After(ordered[j].StartedAt)
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(ordered) {
			return []*evaluation.RunSummary{}, nil
		}
		ordered = ordered[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(ordered) {
		ordered = ordered[:filters.Limit]
	}

	out := make([]*evaluation.RunSummary, len(ordered))
	for i, run := range ordered {
		c, err := clone(run)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func clone(run *evaluation.RunSummary) (*evaluation.RunSummary, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return nil, fmt.Errorf("failed to copy run summary: %w", err)
	}
	var out evaluation.RunSummary
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to copy run summary: %w", err)
	}
	return &out, nil
}
