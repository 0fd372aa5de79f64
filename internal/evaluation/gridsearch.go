package evaluation

import (
	"context"
	"fmt"

	"claimsift/domain/evaluation"
	"claimsift/internal"
	"claimsift/internal/errors"
	"claimsift/ports"

	"golang.org/x/sync/errgroup"
)

// SearchResult is a family's sweep plus the winning classifier, already
// trained on the full search input. Model is nil when nothing was selected.
type SearchResult struct {
	*evaluation.GridSearchResult
	Model ports.Classifier
}

// GridSearch sweeps a family's grid and selects by cross-validated recall
type GridSearch struct {
	cv          *CrossValidator
	parallelism int
	logger      *internal.Logger
}

// SearchOption configures a GridSearch
type SearchOption func(*GridSearch)

// WithParallelism evaluates up to n cells concurrently
func WithParallelism(n int) SearchOption {
	return func(g *GridSearch) {
		if n > 0 {
			g.parallelism = n
		}
	}
}

// WithSearchLogger sets the logger; nil selects the default logger
func WithSearchLogger(logger *internal.Logger) SearchOption {
	return func(g *GridSearch) { g.logger = logger }
}

// NewGridSearch creates a sequential grid search driven by cv
func NewGridSearch(cv *CrossValidator, opts ...SearchOption) *GridSearch {
	g := &GridSearch{cv: cv.Quiet(), parallelism: 1}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = internal.OrDefault(g.logger)
	return g
}

// Search evaluates every configuration of family in enumeration order. Each
// cell gets a fresh classifier for cross-validation and another trained on
// the full input for a display accuracy. The best cell has the strictly
// highest non-degenerate recall above 0, so ties keep the earliest cell. The
// winner is rebuilt and trained on the full input; failing that is fatal.
func (g *GridSearch) Search(ctx context.Context, family Family, features [][]float64, labels []int) (*SearchResult, error) {
	if len(features) != len(labels) {
		return nil, errors.LengthMismatch(len(features), len(labels))
	}
	if err := family.Grid.Validate(); err != nil {
		return nil, err
	}

	configs := family.Grid.Configurations()
	g.logger.Info("=== %s grid search ===", family.Name())
	g.logger.Info("Using %d-fold cross-validation, testing %d parameter combinations", g.cv.Folds(), len(configs))

	cells, err := g.evaluateCells(ctx, family, configs, features, labels)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{GridSearchResult: &evaluation.GridSearchResult{Family: family.Name(), Cells: cells}}
	best := -1
	bestRecall := 0.0
	for i := range cells {
		if recall, ok := cells[i].CV.Score(); ok && recall > bestRecall {
			best, bestRecall = i, recall
		}
	}

	if best < 0 {
		g.logger.Warn("No valid %s classifier found", family.Name())
		return result, nil
	}

	winner := cells[best]
	model, err := g.trainFull(family, winner.Config, features, labels)
	if err != nil {
		return nil, errors.TrainingError(family.Name(), err)
	}
	result.Best = &winner
	result.Model = model

	g.logger.Info("Best %s: %s", family.Name(), winner.Config)
	g.logger.Info("  cross-validation accuracy: %.2f%%", winner.CV.MeanAccuracy*100)
	g.logger.Info("  cross-validation recall: %.2f%%", winner.CV.MeanRecall*100)
	return result, nil
}

func (g *GridSearch) evaluateCells(ctx context.Context, family Family, configs []evaluation.Configuration, features [][]float64, labels []int) ([]evaluation.GridCell, error) {
	cells := make([]evaluation.GridCell, len(configs))

	if g.parallelism <= 1 {
		for i, cfg := range configs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			cell, err := g.evaluateCell(family, i, cfg, features, labels)
			if err != nil {
				return nil, err
			}
			cells[i] = cell
			g.logCell(cell)
		}
		return cells, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelism)
	for i, cfg := range configs {
		i, cfg := i, cfg
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			cell, err := g.evaluateCell(family, i, cfg, features, labels)
			if err != nil {
				return err
			}
			cells[i] = cell
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	for _, cell := range cells {
		g.logCell(cell)
	}
	return cells, nil
}

// evaluateCell only fails for input errors that would fail every cell alike
func (g *GridSearch) evaluateCell(family Family, index int, cfg evaluation.Configuration, features [][]float64, labels []int) (evaluation.GridCell, error) {
	cell := evaluation.GridCell{Index: index, Config: cfg}

	clf, err := family.Factory(cfg)
	if err != nil {
		cell.CV = evaluation.CVResult{Degenerate: true}
		cell.FullError = fmt.Sprintf("failed to build classifier: %v", err)
		return cell, nil
	}

	cv, err := g.cv.Evaluate(clf, features, labels)
	if err != nil {
		return cell, err
	}
	cell.CV = *cv

	full, err := g.trainFull(family, cfg, features, labels)
	if err != nil {
		cell.FullError = err.Error()
		return cell, nil
	}
	if cell.FullAccuracy, err = full.Accuracy(features, labels); err != nil {
		cell.FullError = err.Error()
	}
	return cell, nil
}

func (g *GridSearch) trainFull(family Family, cfg evaluation.Configuration, features [][]float64, labels []int) (ports.Classifier, error) {
	clf, err := family.Factory(cfg)
	if err != nil {
		return nil, err
	}
	model := PruneConstantFeatures(clf)
	if err := model.Train(features, labels); err != nil {
		return nil, err
	}
	return model, nil
}

func (g *GridSearch) logCell(cell evaluation.GridCell) {
	switch {
	case cell.CV.Degenerate:
		g.logger.Info("testing %s ..... no successful folds", cell.Config)
	case cell.FullError != "":
		g.logger.Info("testing %s ..... recall: %.2f%% (full-data training failed: %s)", cell.Config, cell.CV.MeanRecall*100, cell.FullError)
	default:
		g.logger.Info("testing %s ..... accuracy: %.2f%%, recall: %.2f%%", cell.Config, cell.FullAccuracy*100, cell.CV.MeanRecall*100)
	}
}
