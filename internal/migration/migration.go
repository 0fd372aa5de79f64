package migration

import (
	"context"

	"claimsift/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every step is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range Steps() {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return errors.Wrapf(err, "failed to %s", step.Name)
		}
	}
	return nil
}

// Step is one named schema statement
type Step struct {
	Name string
	SQL  string
}

// Steps returns the schema statements in execution order
func Steps() []Step {
	return []Step{
		{Name: "create model_runs table", SQL: createModelRuns},
		{Name: "create grid_cells table", SQL: createGridCells},
		{Name: "create indexes", SQL: createIndexes},
	}
}

const createModelRuns = `
	CREATE TABLE IF NOT EXISTS model_runs (
		id UUID PRIMARY KEY,
		source TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP WITH TIME ZONE NOT NULL,
		completed_at TIMESTAMP WITH TIME ZONE NOT NULL,
		record_count INTEGER NOT NULL,
		feature_count INTEGER NOT NULL,
		matrix_hash TEXT NOT NULL,
		summary JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)
`

const createGridCells = `
	CREATE TABLE IF NOT EXISTS grid_cells (
		run_id UUID NOT NULL REFERENCES model_runs(id) ON DELETE CASCADE,
		family TEXT NOT NULL,
		cell_index INTEGER NOT NULL,
		configuration TEXT NOT NULL,
		cv_recall DOUBLE PRECISION NOT NULL DEFAULT 0,
		cv_accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
		full_accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
		degenerate BOOLEAN NOT NULL DEFAULT FALSE,
		successful_folds INTEGER NOT NULL DEFAULT 0,
		full_error TEXT NOT NULL DEFAULT '',
		is_best BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (run_id, family, cell_index)
	)
`

const createIndexes = `
	CREATE INDEX IF NOT EXISTS idx_model_runs_started_at ON model_runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_grid_cells_family ON grid_cells(family, cv_recall DESC);
`
