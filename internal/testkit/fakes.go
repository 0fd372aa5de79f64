package testkit

import (
	"fmt"
	"sync"

	"claimsift/domain/evaluation"
	"claimsift/internal/errors"
	"claimsift/ports"
)

// EchoClassifier predicts the value of one feature column as the fraud
// probability. Training only checks the input and counts calls.
type EchoClassifier struct {
	Column      int
	Sensitive   bool
	FailOnTrain bool

	mu          sync.Mutex
	trained     bool
	threshold   float64
	trainCalls  int
	trainWidths []int
}

// NewEchoClassifier returns an untrained echo of column
func NewEchoClassifier(column int) *EchoClassifier {
	return &EchoClassifier{Column: column, threshold: 0.5}
}

func (c *EchoClassifier) Name() string { return "echo" }

func (c *EchoClassifier) Train(features [][]float64, labels []int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trainCalls++
	if len(features) != len(labels) {
		return errors.LengthMismatch(len(features), len(labels))
	}
	if len(features) > 0 {
		c.trainWidths = append(c.trainWidths, len(features[0]))
	}
	if c.FailOnTrain {
		return errors.TrainingError(c.Name(), fmt.Errorf("configured to fail"))
	}
	c.trained = true
	return nil
}

func (c *EchoClassifier) PredictProbability(sample []float64) (float64, error) {
	if !c.IsTrained() {
		return 0, errors.NotTrained(c.Name())
	}
	if c.Column >= len(sample) {
		return 0, errors.InvalidInput("sample is narrower than the echoed column")
	}
	v := sample[c.Column]
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v, nil
}

func (c *EchoClassifier) PredictProbabilities(samples [][]float64) ([]float64, error) {
	out := make([]float64, len(samples))
	for i, s := range samples {
		p, err := c.PredictProbability(s)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (c *EchoClassifier) Predict(sample []float64) (int, error) {
	p, err := c.PredictProbability(sample)
	if err != nil {
		return 0, err
	}
	if p >= c.DecisionThreshold() {
		return 1, nil
	}
	return 0, nil
}

func (c *EchoClassifier) PredictBatch(samples [][]float64) ([]int, error) {
	out := make([]int, len(samples))
	for i, s := range samples {
		p, err := c.Predict(s)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (c *EchoClassifier) Accuracy(features [][]float64, labels []int) (float64, error) {
	preds, err := c.PredictBatch(features)
	if err != nil {
		return 0, err
	}
	if len(preds) == 0 {
		return 0, nil
	}
	correct := 0
	for i, p := range preds {
		if p == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(preds)), nil
}

func (c *EchoClassifier) DecisionThreshold() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threshold
}

func (c *EchoClassifier) SetDecisionThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return errors.InvalidInput("threshold must be between 0 and 1")
	}
	c.mu.Lock()
	c.threshold = threshold
	c.mu.Unlock()
	return nil
}

func (c *EchoClassifier) IsTrained() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trained
}

// SensitiveToConstantFeatures reports the Sensitive field
func (c *EchoClassifier) SensitiveToConstantFeatures() bool { return c.Sensitive }

// TrainCalls returns how often Train was called
func (c *EchoClassifier) TrainCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trainCalls
}

// TrainWidths returns the feature width seen by each Train call
func (c *EchoClassifier) TrainWidths() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.trainWidths...)
}

// EchoFactory builds echo classifiers; a "column" parameter selects the
// echoed column and "fail" > 0 makes training fail.
func EchoFactory(cfg evaluation.Configuration) (ports.Classifier, error) {
	c := NewEchoClassifier(cfg.Int("column", 0))
	c.FailOnTrain = cfg.Int("fail", 0) > 0
	return c, nil
}

// LabelledMatrix builds n rows whose first column equals the label and whose
// second column is constant. Labels alternate 0,1 so every contiguous block
// of two or more rows holds both classes.
func LabelledMatrix(n int) ([][]float64, []int) {
	features := make([][]float64, n)
	labels := make([]int, n)
	for i := range features {
		labels[i] = i % 2
		features[i] = []float64{float64(labels[i]), 1, float64(i) / float64(n)}
	}
	return features, labels
}
