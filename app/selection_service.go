// Package app orchestrates the end-to-end model-selection run.
package app

import (
	"context"
	"fmt"
	"time"

	"claimsift/domain/claims"
	"claimsift/domain/core"
	"claimsift/domain/dataset"
	"claimsift/domain/evaluation"
	"claimsift/internal"
	"claimsift/internal/config"
	"claimsift/internal/errors"
	harness "claimsift/internal/evaluation"
	"claimsift/internal/features"
	"claimsift/internal/split"
	"claimsift/ports"
)

// RunOptions controls one selection run
type RunOptions struct {
	Source  string
	FitMode string // config.FitModeWhole or config.FitModeTrain
	Split   split.Options
	Folds   int
}

// DefaultRunOptions returns the reference protocol: whole-corpus fit, 80/20
// split with seed 42, 3-fold cross-validation
func DefaultRunOptions() RunOptions {
	return RunOptions{
		FitMode: config.FitModeWhole,
		Split:   split.DefaultOptions(),
		Folds:   harness.DefaultFolds,
	}
}

// RunResult is a completed run: the persisted summary plus the in-memory
// artifacts that are not persisted
type RunResult struct {
	Summary  *evaluation.RunSummary
	Encoding *features.Encoding
	Train    *dataset.Dataset
	Test     *dataset.Dataset
	Models   map[string]ports.Classifier
}

// SelectionService encodes claims, splits them, grid-searches every
// registered family on the training split and scores the winners on the
// held-out split
type SelectionService struct {
	encoder     *features.Encoder
	splitter    *split.Splitter
	families    []harness.Family
	repo        ports.RunRepository
	screener    ports.FeatureScreener
	parallelism int
	logger      *internal.Logger
}

// ServiceOption configures a SelectionService
type ServiceOption func(*SelectionService)

// WithRepository persists every completed run
func WithRepository(repo ports.RunRepository) ServiceOption {
	return func(s *SelectionService) { s.repo = repo }
}

// WithScreener profiles the training features before the grid search
func WithScreener(screener ports.FeatureScreener) ServiceOption {
	return func(s *SelectionService) { s.screener = screener }
}

// WithGridParallelism evaluates up to n grid cells concurrently
func WithGridParallelism(n int) ServiceOption {
	return func(s *SelectionService) { s.parallelism = n }
}

// WithServiceLogger sets the logger
func WithServiceLogger(logger *internal.Logger) ServiceOption {
	return func(s *SelectionService) { s.logger = logger }
}

// NewSelectionService creates a selection service over the given families
func NewSelectionService(encoder *features.Encoder, splitter *split.Splitter, families []harness.Family, opts ...ServiceOption) *SelectionService {
	s := &SelectionService{
		encoder:     encoder,
		splitter:    splitter,
		families:    families,
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = internal.OrDefault(s.logger)
	return s
}

// Families returns the registered family names in evaluation order
func (s *SelectionService) Families() []string {
	names := make([]string, len(s.families))
	for i, f := range s.families {
		names[i] = f.Name()
	}
	return names
}

// RunFromSource loads records from reader and runs the selection protocol on them
func (s *SelectionService) RunFromSource(ctx context.Context, reader ports.RecordReader, opts RunOptions) (*RunResult, error) {
	records, stats, err := reader.ReadRecords(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load claims")
	}
	if opts.Source == "" {
		opts.Source = stats.Source
	}
	return s.Run(ctx, records, opts)
}

// Run executes encode, split, per-family grid search and held-out scoring.
// A family without a winner is reported with Found=false; it does not fail the run.
func (s *SelectionService) Run(ctx context.Context, records []claims.Record, opts RunOptions) (*RunResult, error) {
	started := time.Now()
	if len(records) == 0 {
		return nil, errors.EmptyInput("no claim records to model")
	}
	if opts.Folds == 0 {
		opts.Folds = harness.DefaultFolds
	}
	if opts.FitMode == "" {
		opts.FitMode = config.FitModeWhole
	}

	cv, err := harness.NewCrossValidator(opts.Folds, harness.WithCVLogger(s.logger))
	if err != nil {
		return nil, err
	}

	enc, train, test, fingerprint, err := s.prepare(ctx, records, opts)
	if err != nil {
		return nil, err
	}
	s.logger.Info("dataset loaded: %d training samples, %d test samples", train.RowCount(), test.RowCount())
	s.logDistribution("training set", train.Labels)
	s.logDistribution("test set", test.Labels)

	_, trainPos := train.LabelCounts()
	_, testPos := test.LabelCounts()
	summary := &evaluation.RunSummary{
		ID:              core.NewRunID(),
		StartedAt:       started.UTC(),
		Source:          opts.Source,
		RecordCount:     len(records),
		FixedAges:       enc.FixedAges,
		FeatureCount:    len(train.FeatureNames),
		RemovedFeatures: append([]string{}, enc.RemovedFeatures...),
		FitMode:         opts.FitMode,
		MatrixHash:      fingerprint,
		AgeMin:          enc.AgeMin,
		AgeMax:          enc.AgeMax,
		TrainSize:       train.RowCount(),
		TestSize:        test.RowCount(),
		TrainPositives:  trainPos,
		TestPositives:   testPos,
		Folds:           opts.Folds,
		SplitSeed:       opts.Split.Seed,
	}

	if s.screener != nil {
		screens, err := s.screener.Screen(ctx, train)
		if err != nil {
			return nil, errors.Wrap(err, "failed to screen features")
		}
		summary.Screening = screens
		s.logScreening(screens)
	}

	search := harness.NewGridSearch(cv, harness.WithParallelism(s.parallelism), harness.WithSearchLogger(s.logger))
	models := make(map[string]ports.Classifier, len(s.families))
	for _, family := range s.families {
		fs, model, err := s.selectFamily(ctx, search, family, train, test)
		if err != nil {
			return nil, err
		}
		summary.Families = append(summary.Families, *fs)
		if model != nil {
			models[family.Name()] = model
		}
	}
	s.logFinalResults(summary)

	summary.CompletedAt = time.Now().UTC()
	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, summary); err != nil {
			return nil, errors.Wrap(err, "failed to save run")
		}
		s.logger.Debug("saved run %s", summary.ID)
	}

	return &RunResult{Summary: summary, Encoding: enc, Train: train, Test: test, Models: models}, nil
}

// prepare encodes and splits the records. In whole mode the encoding is fit
// on every record before splitting; in train mode it is fit on the training
// rows only and frozen for the test rows. The fingerprint covers the matrix
// the encoding was fit on.
func (s *SelectionService) prepare(ctx context.Context, records []claims.Record, opts RunOptions) (*features.Encoding, *dataset.Dataset, *dataset.Dataset, core.Hash, error) {
	switch opts.FitMode {
	case config.FitModeWhole:
		enc, ds, err := s.encoder.Fit(records)
		if err != nil {
			return nil, nil, nil, "", errors.Wrap(err, "failed to encode claims")
		}
		train, test, err := s.splitter.SplitDataset(ctx, ds, opts.Split)
		if err != nil {
			return nil, nil, nil, "", err
		}
		return enc, train, test, core.ComputeMatrixHash(ds.FeatureNames, ds.Features, ds.Labels), nil

	case config.FitModeTrain:
		trainIdx, testIdx, err := s.splitter.Indices(ctx, len(records), opts.Split)
		if err != nil {
			return nil, nil, nil, "", err
		}
		enc, train, err := s.encoder.Fit(gather(records, trainIdx))
		if err != nil {
			return nil, nil, nil, "", errors.Wrap(err, "failed to encode training claims")
		}
		test, err := enc.Transform(gather(records, testIdx))
		if err != nil {
			return nil, nil, nil, "", errors.Wrap(err, "failed to encode test claims")
		}
		return enc, train, test, core.ComputeMatrixHash(train.FeatureNames, train.Features, train.Labels), nil
	}
	return nil, nil, nil, "", errors.ValidationError(fmt.Sprintf("unknown fit mode %q", opts.FitMode))
}

func (s *SelectionService) selectFamily(ctx context.Context, search *harness.GridSearch, family harness.Family, train, test *dataset.Dataset) (*evaluation.FamilySummary, ports.Classifier, error) {
	result, err := search.Search(ctx, family, train.Features, train.Labels)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "grid search for %s failed", family.Name())
	}

	fs := &evaluation.FamilySummary{Family: family.Name(), Cells: result.Cells}
	if !result.Found() {
		return fs, nil, nil
	}

	best := result.Best.Config
	fs.Found = true
	fs.Best = &best
	fs.CVRecall = result.Best.CV.MeanRecall
	fs.CVAccuracy = result.Best.CV.MeanAccuracy

	if test.RowCount() == 0 {
		s.logger.Warn("test split is empty; skipping held-out metrics for %s", family.Name())
		return fs, result.Model, nil
	}
	m, err := harness.Score(result.Model, test.Features, test.Labels)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to score %s on the test split", family.Name())
	}
	fs.Test = m
	return fs, result.Model, nil
}

func (s *SelectionService) logDistribution(name string, labels []int) {
	neg, pos := dataset.CountLabels(labels)
	n := len(labels)
	s.logger.Info("%s (%d samples):", name, n)
	s.logger.Info("  non fraud (0): %d (%.1f%%)", neg, percent(neg, n))
	s.logger.Info("  fraud (1):     %d (%.1f%%)", pos, percent(pos, n))
}

// screeningLogLimit caps the features listed in the log
const screeningLogLimit = 5

func (s *SelectionService) logScreening(screens []evaluation.FeatureScreen) {
	s.logger.Info("=== most informative features ===")
	for i, screen := range screens {
		if i == screeningLogLimit {
			break
		}
		s.logger.Info("  %-28s %.4f bits", screen.Feature, screen.MutualInformation)
	}
}

func (s *SelectionService) logFinalResults(summary *evaluation.RunSummary) {
	s.logger.Info("=== final test results ===")
	for _, fs := range summary.Families {
		if !fs.Found {
			s.logger.Info("%s: no model selected", fs.Family)
			continue
		}
		if fs.Test == nil {
			s.logger.Info("%s: selected %s, no test samples", fs.Family, fs.Best)
			continue
		}
		m := fs.Test
		s.logger.Info("%s results:", fs.Family)
		s.logger.Info("  accuracy:  %.2f%%", m.Accuracy*100)
		s.logger.Info("  precision: %.2f%%", m.Precision*100)
		s.logger.Info("  recall:    %.2f%%", m.Recall*100)
		s.logger.Info("  f1 score:  %.2f%%", m.F1*100)
		s.logger.Info("  confusion: %s", m.Confusion)
	}
}

func gather(records []claims.Record, indices []int) []claims.Record {
	out := make([]claims.Record, len(indices))
	for i, idx := range indices {
		out[i] = records[idx]
	}
	return out
}

func percent(k, n int) float64 {
	if n == 0 {
		return 0
	}
	return 100 * float64(k) / float64(n)
}
