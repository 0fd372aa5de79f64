package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"claimsift/domain/core"
	"claimsift/domain/evaluation"
	"claimsift/internal/errors"
	"claimsift/ports"

	"github.com/jmoiron/sqlx"
)

// RunRepositoryImpl implements RunRepository for PostgreSQL. The full summary
// is stored as JSONB; grid cells are also flattened into grid_cells for querying.
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// CellRow is one row of grid_cells
type CellRow struct {
	RunID           string  `db:"run_id"`
	Family          string  `db:"family"`
	CellIndex       int     `db:"cell_index"`
	Configuration   string  `db:"configuration"`
	CVRecall        float64 `db:"cv_recall"`
	CVAccuracy      float64 `db:"cv_accuracy"`
	FullAccuracy    float64 `db:"full_accuracy"`
	Degenerate      bool    `db:"degenerate"`
	SuccessfulFolds int     `db:"successful_folds"`
	FullError       string  `db:"full_error"`
	IsBest          bool    `db:"is_best"`
}

// SaveRun inserts or replaces a run and its grid cells in one transaction
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, run *evaluation.RunSummary) error {
	if run == nil || run.ID == "" {
		return errors.ValidationError("run summary needs an id")
	}
	summary, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO model_runs (id, source, started_at, completed_at, record_count, feature_count, matrix_hash, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			record_count = EXCLUDED.record_count,
			feature_count = EXCLUDED.feature_count,
			matrix_hash = EXCLUDED.matrix_hash,
			summary = EXCLUDED.summary
	`, run.ID.String(), run.Source, run.StartedAt, run.CompletedAt, run.RecordCount, run.FeatureCount, run.MatrixHash.String(), summary)
	if err != nil {
		return errors.DatabaseError("failed to save run", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM grid_cells WHERE run_id = $1`, run.ID.String()); err != nil {
		return errors.DatabaseError("failed to clear grid cells", err)
	}

	rows := CellRows(run)
	if len(rows) > 0 {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO grid_cells (run_id, family, cell_index, configuration, cv_recall, cv_accuracy, full_accuracy, degenerate, successful_folds, full_error, is_best)
			VALUES (:run_id, :family, :cell_index, :configuration, :cv_recall, :cv_accuracy, :full_accuracy, :degenerate, :successful_folds, :full_error, :is_best)
		`, rows)
		if err != nil {
			return errors.DatabaseError("failed to save grid cells", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit run", err)
	}
	return nil
}

// GetRun loads a run by id
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*evaluation.RunSummary, error) {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, `SELECT summary FROM model_runs WHERE id = $1`, id.String())
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(fmt.Sprintf("run %s", id))
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load run", err)
	}
	return decodeSummary(raw)
}

// ListRuns returns runs newest first
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, filters ports.RunFilters) ([]*evaluation.RunSummary, error) {
	query := `SELECT summary FROM model_runs ORDER BY started_at DESC, created_at DESC`
	var args []interface{}
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var raws [][]byte
	if err := r.db.SelectContext(ctx, &raws, query, args...); err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}

	runs := make([]*evaluation.RunSummary, 0, len(raws))
	for _, raw := range raws {
		run, err := decodeSummary(raw)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// CellRows flattens every family's grid cells for the grid_cells table
func CellRows(run *evaluation.RunSummary) []CellRow {
	var rows []CellRow
	for _, fam := range run.Families {
		best := ""
		if fam.Best != nil {
			best = fam.Best.String()
		}
		for _, cell := range fam.Cells {
			cfg := cell.Config.String()
			rows = append(rows, CellRow{
				RunID:           run.ID.String(),
				Family:          fam.Family,
				CellIndex:       cell.Index,
				Configuration:   cfg,
				CVRecall:        cell.CV.MeanRecall,
				CVAccuracy:      cell.CV.MeanAccuracy,
				FullAccuracy:    cell.FullAccuracy,
				Degenerate:      cell.CV.Degenerate,
				SuccessfulFolds: cell.CV.Successful,
				FullError:       cell.FullError,
				IsBest:          fam.Found && cfg == best,
			})
		}
	}
	return rows
}

func decodeSummary(raw []byte) (*evaluation.RunSummary, error) {
	var run evaluation.RunSummary
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}
	return &run, nil
}
