package ports

import (
	"context"

	"claimsift/domain/claims"
)

// LoadStats describes what a reader kept and dropped
type LoadStats struct {
	Source  string `json:"source"`
	Rows    int    `json:"rows"`
	Loaded  int    `json:"loaded"`
	Skipped int    `json:"skipped"`
}

// RecordReader loads validated claim records from a source
type RecordReader interface {
	ReadRecords(ctx context.Context) ([]claims.Record, LoadStats, error)
}
