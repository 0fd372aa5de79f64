package config

import (
	stderrors "errors"
	"testing"
	"time"

	"claimsift/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATA_FILE", "TEST_RATIO", "SPLIT_SEED", "CV_FOLDS", "FIT_MODE", "FAULT_MATCH", "GRID_PARALLELISM", "DATABASE_URL", "FEED_PAGE_SIZE", "FEED_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.2, cfg.Pipeline.TestRatio)
	assert.Equal(t, int64(42), cfg.Pipeline.SplitSeed)
	assert.Equal(t, 3, cfg.Pipeline.Folds)
	assert.Equal(t, FitModeWhole, cfg.Pipeline.FitMode)
	assert.Equal(t, FaultMatchTrimmed, cfg.Pipeline.FaultMatch)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("TEST_RATIO", "0.25")
	t.Setenv("SPLIT_SEED", "7")
	t.Setenv("CV_FOLDS", "5")
	t.Setenv("FIT_MODE", "TRAIN")
	t.Setenv("FAULT_MATCH", "legacy")
	t.Setenv("GRID_PARALLELISM", "4")
	t.Setenv("FEED_PAGE_SIZE", "50")
	t.Setenv("FEED_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.Pipeline.TestRatio)
	assert.Equal(t, int64(7), cfg.Pipeline.SplitSeed)
	assert.Equal(t, 5, cfg.Pipeline.Folds)
	assert.Equal(t, FitModeTrain, cfg.Pipeline.FitMode)
	assert.Equal(t, FaultMatchLegacy, cfg.Pipeline.FaultMatch)
	assert.Equal(t, 4, cfg.Pipeline.GridParallelism)
	assert.Equal(t, 50, cfg.Data.Feed.PageSize)
	assert.Equal(t, 5*time.Second, cfg.Data.Feed.Timeout)
	assert.Equal(t, "claims", cfg.Data.Feed.DataPath)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"ratio too large", "TEST_RATIO", "1.0"},
		{"one fold", "CV_FOLDS", "1"},
		{"unknown fit mode", "FIT_MODE", "holdout"},
		{"unknown fault mode", "FAULT_MATCH", "fuzzy"},
		{"no workers", "GRID_PARALLELISM", "0"},
		{"empty feed page", "FEED_PAGE_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrConfigInvalid))
		})
	}
}
