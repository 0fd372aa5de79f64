// Package forest implements a bagged random forest of CART trees whose
// fraud probability is the fraction of trees voting fraud.
package forest

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"claimsift/adapters/classifiers"
	"claimsift/adapters/rng"
	"claimsift/domain/evaluation"
	"claimsift/internal/errors"
	"claimsift/ports"

	"golang.org/x/sync/errgroup"
)

// ModelName identifies the classifier in logs and reports
const ModelName = "Random Forest"

// Defaults for the hyperparameters
const (
	DefaultTrees           = 100
	DefaultSampleRatio     = 1.0
	DefaultMinSamplesSplit = 2
	DefaultSeed            = 42
)

// Classifier is a random forest for binary labels
type Classifier struct {
	*classifiers.Base

	trees           int
	sampleRatio     float64
	maxDepth        int
	maxFeatures     int
	minSamplesSplit int
	seed            int64
	workers         int
	rng             ports.RNGPort

	mu    sync.RWMutex
	roots []*node
}

// Option configures a Classifier
type Option func(*Classifier)

// WithTrees sets the number of trees
func WithTrees(n int) Option {
	return func(c *Classifier) { c.trees = n }
}

// WithSampleRatio sets the bootstrap sample size as a fraction of the input
func WithSampleRatio(r float64) Option {
	return func(c *Classifier) { c.sampleRatio = r }
}

// WithMaxDepth limits tree depth; 0 means unlimited
func WithMaxDepth(d int) Option {
	return func(c *Classifier) { c.maxDepth = d }
}

// WithMaxFeatures sets the features tried per split; 0 means sqrt(p)
func WithMaxFeatures(k int) Option {
	return func(c *Classifier) { c.maxFeatures = k }
}

// WithSeed sets the base seed of the per-tree generators
func WithSeed(seed int64) Option {
	return func(c *Classifier) { c.seed = seed }
}

// WithWorkers bounds concurrent tree construction
func WithWorkers(n int) Option {
	return func(c *Classifier) { c.workers = n }
}

// WithRNG sets the generator source
func WithRNG(r ports.RNGPort) Option {
	return func(c *Classifier) { c.rng = r }
}

// New creates an untrained forest
func New(opts ...Option) *Classifier {
	c := &Classifier{
		Base:            classifiers.NewBase(ModelName),
		trees:           DefaultTrees,
		sampleRatio:     DefaultSampleRatio,
		minSamplesSplit: DefaultMinSamplesSplit,
		seed:            DefaultSeed,
		workers:         runtime.GOMAXPROCS(0),
		rng:             rng.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFactory returns a factory reading "trees", "sample_ratio" and the
// optional "max_depth"/"max_features" parameters. Every forest it builds uses seed.
func NewFactory(seed int64, opts ...Option) ports.ClassifierFactory {
	return func(cfg evaluation.Configuration) (ports.Classifier, error) {
		trees := cfg.Int("trees", DefaultTrees)
		ratio := cfg.Float("sample_ratio", DefaultSampleRatio)
		if trees < 1 || ratio <= 0 || ratio > 1 {
			return nil, errors.InvalidInput(fmt.Sprintf("invalid random forest configuration: %s", cfg))
		}
		all := append([]Option{
			WithTrees(trees),
			WithSampleRatio(ratio),
			WithMaxDepth(cfg.Int("max_depth", 0)),
			WithMaxFeatures(cfg.Int("max_features", 0)),
			WithSeed(seed),
		}, opts...)
		return New(all...), nil
	}
}

// Factory builds forests with the default seed
func Factory(cfg evaluation.Configuration) (ports.Classifier, error) {
	return NewFactory(DefaultSeed)(cfg)
}

// SensitiveToConstantFeatures asks the harness to drop training-constant columns
func (c *Classifier) SensitiveToConstantFeatures() bool { return true }

// Trees returns the configured number of trees
func (c *Classifier) Trees() int { return c.trees }

// SampleRatio returns the configured bootstrap ratio
func (c *Classifier) SampleRatio() float64 { return c.sampleRatio }

// Train grows the trees concurrently; tree i always uses the same generator
// for a given seed, so results do not depend on scheduling.
func (c *Classifier) Train(features [][]float64, labels []int) error {
	c.Reset()
	if err := classifiers.ValidateTraining(features, labels); err != nil {
		return errors.TrainingError(ModelName, err)
	}
	if c.trees < 1 {
		return errors.TrainingError(ModelName, fmt.Errorf("forest needs at least one tree, got %d", c.trees))
	}

	n, p := len(features), len(features[0])
	sampleSize := int(c.sampleRatio * float64(n))
	if sampleSize < 1 {
		sampleSize = 1
	}
	params := treeParams{
		maxDepth:        c.maxDepth,
		minSamplesSplit: c.minSamplesSplit,
		maxFeatures:     c.maxFeatures,
	}
	if params.maxFeatures <= 0 || params.maxFeatures > p {
		params.maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(p)))))
	}

	roots := make([]*node, c.trees)
	eg, ctx := errgroup.WithContext(context.Background())
	if c.workers > 0 {
		eg.SetLimit(c.workers)
	}
	for t := 0; t < c.trees; t++ {
		t := t
		eg.Go(func() error {
			r, err := c.rng.Stream(ctx, "", "random_forest", fmt.Sprintf("tree-%d", t), c.seed)
			if err != nil {
				return err
			}
			idx := make([]int, sampleSize)
			for k := range idx {
				idx[k] = r.Intn(n)
			}
			b := &treeBuilder{x: features, y: labels, params: params, rng: r, width: p}
			roots[t] = b.grow(idx, 0)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return errors.TrainingError(ModelName, err)
	}

	c.mu.Lock()
	c.roots = roots
	c.mu.Unlock()
	c.MarkTrained(p)
	return nil
}

// PredictProbability returns the fraction of trees voting fraud
func (c *Classifier) PredictProbability(sample []float64) (float64, error) {
	if err := c.CheckSample(sample); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	votes := 0
	for _, root := range c.roots {
		if root.predict(sample) >= 0.5 {
			votes++
		}
	}
	return float64(votes) / float64(len(c.roots)), nil
}

func (c *Classifier) PredictProbabilities(samples [][]float64) ([]float64, error) {
	return classifiers.Probabilities(c.PredictProbability, samples)
}

func (c *Classifier) Predict(sample []float64) (int, error) {
	p, err := c.PredictProbability(sample)
	if err != nil {
		return 0, err
	}
	return c.Decide(p), nil
}

func (c *Classifier) PredictBatch(samples [][]float64) ([]int, error) {
	return c.DecideAll(c.PredictProbability, samples)
}

func (c *Classifier) Accuracy(features [][]float64, labels []int) (float64, error) {
	return c.AccuracyOf(c.PredictProbability, features, labels)
}

// MaxTreeDepth returns the depth of the deepest grown tree
func (c *Classifier) MaxTreeDepth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	deepest := 0
	for _, root := range c.roots {
		if d := root.depth(); d > deepest {
			deepest = d
		}
	}
	return deepest
}

// Describe summarises the configuration
func (c *Classifier) Describe() string {
	return fmt.Sprintf("%s: trees=%d, sample_ratio=%.1f, max_depth=%d", c.Base.Describe(), c.trees, c.sampleRatio, c.maxDepth)
}
