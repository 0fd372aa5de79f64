package ports

import (
	"context"

	"claimsift/domain/dataset"
	"claimsift/domain/evaluation"
)

// FeatureScreener profiles each encoded feature against the labels
type FeatureScreener interface {
	Screen(ctx context.Context, ds *dataset.Dataset) ([]evaluation.FeatureScreen, error)
}
