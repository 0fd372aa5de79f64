// Package split partitions encoded data into train and test subsets with a
// reproducible seeded shuffle.
package split

import (
	"context"
	"fmt"

	"claimsift/domain/dataset"
	"claimsift/internal"
	"claimsift/internal/errors"
	"claimsift/ports"
)

// Defaults used by the selection protocol
const (
	DefaultTestRatio       = 0.2
	DefaultSeed      int64 = 42
)

// Options controls one split
type Options struct {
	TestRatio float64
	Seed      int64
}

// DefaultOptions returns the 80/20 split with seed 42
func DefaultOptions() Options {
	return Options{TestRatio: DefaultTestRatio, Seed: DefaultSeed}
}

// Result holds deep copies of the partitioned rows and the source indices
type Result struct {
	TrainFeatures [][]float64
	TrainLabels   []int
	TestFeatures  [][]float64
	TestLabels    []int
	TrainIndices  []int
	TestIndices   []int
}

// Splitter performs seeded train/test splits
type Splitter struct {
	rng    ports.RNGPort
	logger *internal.Logger
}

// NewSplitter creates a splitter drawing its generator from rng
func NewSplitter(rng ports.RNGPort, logger *internal.Logger) *Splitter {
	return &Splitter{rng: rng, logger: internal.OrDefault(logger)}
}

// Indices shuffles [0,n) and returns the train and test index sets.
// testSize is floor(n*ratio); the first n-testSize shuffled indices train.
func (s *Splitter) Indices(ctx context.Context, n int, opts Options) (train, test []int, err error) {
	if n == 0 {
		return nil, nil, errors.EmptyInput("cannot split an empty dataset")
	}
	if opts.TestRatio < 0 || opts.TestRatio >= 1 {
		return nil, nil, errors.ValidationError(fmt.Sprintf("test ratio must be in [0,1), got %g", opts.TestRatio))
	}

	r, err := s.rng.SeededStream(ctx, "train_test_split", opts.Seed)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create split generator")
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}

	testSize := int(float64(n) * opts.TestRatio)
	trainSize := n - testSize
	s.logger.Info("Split: %d training, %d test samples", trainSize, testSize)

	return indices[:trainSize:trainSize], indices[trainSize:], nil
}

// Split partitions features and labels; the input is never modified
func (s *Splitter) Split(ctx context.Context, features [][]float64, labels []int, opts Options) (*Result, error) {
	if len(features) != len(labels) {
		return nil, errors.LengthMismatch(len(features), len(labels))
	}

	train, test, err := s.Indices(ctx, len(features), opts)
	if err != nil {
		return nil, err
	}

	res := &Result{TrainIndices: train, TestIndices: test}
	res.TrainFeatures, res.TrainLabels = gather(features, labels, train)
	res.TestFeatures, res.TestLabels = gather(features, labels, test)
	return res, nil
}

// SplitDataset splits ds into train and test datasets sharing its metadata
func (s *Splitter) SplitDataset(ctx context.Context, ds *dataset.Dataset, opts Options) (train, test *dataset.Dataset, err error) {
	if err := ds.Validate(); err != nil {
		return nil, nil, err
	}
	trainIdx, testIdx, err := s.Indices(ctx, ds.RowCount(), opts)
	if err != nil {
		return nil, nil, err
	}
	return ds.Subset(trainIdx), ds.Subset(testIdx), nil
}

func gather(features [][]float64, labels []int, indices []int) ([][]float64, []int) {
	f := make([][]float64, len(indices))
	l := make([]int, len(indices))
	for k, i := range indices {
		f[k] = append([]float64(nil), features[i]...)
		l[k] = labels[i]
	}
	return f, l
}
