// Package classifiers holds the state and checks shared by the claim
// classifier adapters.
package classifiers

import (
	"fmt"
	"sync"

	"claimsift/internal/errors"
)

// DefaultDecisionThreshold labels a sample as fraud at 50% probability
const DefaultDecisionThreshold = 0.5

// Base tracks a classifier's name, decision threshold and trained state.
// Concrete classifiers embed it and supply the probability function.
type Base struct {
	name string

	mu        sync.RWMutex
	threshold float64
	trained   bool
	features  int
}

// NewBase creates an untrained base with the default threshold
func NewBase(name string) *Base {
	return &Base{name: name, threshold: DefaultDecisionThreshold}
}

// Name returns the model name
func (b *Base) Name() string {
	return b.name
}

// DecisionThreshold returns the probability at or above which Predict returns 1
func (b *Base) DecisionThreshold() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.threshold
}

// SetDecisionThreshold sets the threshold; it must lie in [0,1]
func (b *Base) SetDecisionThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return errors.InvalidInput(fmt.Sprintf("decision threshold must be between 0.0 and 1.0, got %g", threshold))
	}
	b.mu.Lock()
	b.threshold = threshold
	b.mu.Unlock()
	return nil
}

// IsTrained reports whether Train has completed successfully
func (b *Base) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// NumberOfFeatures returns the width of the last training input
func (b *Base) NumberOfFeatures() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.features
}

// MarkTrained records a successful fit on features columns
func (b *Base) MarkTrained(features int) {
	b.mu.Lock()
	b.trained = true
	b.features = features
	b.mu.Unlock()
}

// Reset forgets any previous fit
func (b *Base) Reset() {
	b.mu.Lock()
	b.trained = false
	b.features = 0
	b.mu.Unlock()
}

// CheckSample fails when the model is untrained or the sample has the wrong width
func (b *Base) CheckSample(sample []float64) error {
	b.mu.RLock()
	trained, width := b.trained, b.features
	b.mu.RUnlock()

	if !trained {
		return errors.NotTrained(b.name)
	}
	if len(sample) != width {
		return errors.InvalidInput(fmt.Sprintf("sample has %d features, model was trained on %d", len(sample), width))
	}
	return nil
}

// Decide applies the decision threshold to a probability
func (b *Base) Decide(probability float64) int {
	if probability >= b.DecisionThreshold() {
		return 1
	}
	return 0
}

// Describe returns a one-line summary of the model state
func (b *Base) Describe() string {
	status := "untrained"
	if b.IsTrained() {
		status = fmt.Sprintf("trained on %d features", b.NumberOfFeatures())
	}
	return fmt.Sprintf("%s (%s, threshold %.2f)", b.name, status, b.DecisionThreshold())
}

// ValidateTraining checks shape and labels of a training set
func ValidateTraining(features [][]float64, labels []int) error {
	if len(features) == 0 {
		return errors.EmptyInput("no training samples")
	}
	if len(features) != len(labels) {
		return errors.LengthMismatch(len(features), len(labels))
	}
	width := len(features[0])
	if width == 0 {
		return errors.InvalidInput("training samples have no features")
	}
	for i, row := range features {
		if len(row) != width {
			return errors.InvalidInput(fmt.Sprintf("row %d has %d features, expected %d", i, len(row), width))
		}
	}
	for i, l := range labels {
		if l != 0 && l != 1 {
			return errors.InvalidInput(fmt.Sprintf("label %d at row %d is not 0 or 1", l, i))
		}
	}
	return nil
}

// ProbabilityFunc scores one sample
type ProbabilityFunc func(sample []float64) (float64, error)

// Probabilities applies prob to every sample
func Probabilities(prob ProbabilityFunc, samples [][]float64) ([]float64, error) {
	out := make([]float64, len(samples))
	for i, s := range samples {
		p, err := prob(s)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// DecideAll thresholds prob over every sample
func (b *Base) DecideAll(prob ProbabilityFunc, samples [][]float64) ([]int, error) {
	probs, err := Probabilities(prob, samples)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probs))
	for i, p := range probs {
		out[i] = b.Decide(p)
	}
	return out, nil
}

// AccuracyOf is the fraction of correct thresholded predictions; 0 for no samples
func (b *Base) AccuracyOf(prob ProbabilityFunc, features [][]float64, labels []int) (float64, error) {
	if len(features) != len(labels) {
		return 0, errors.LengthMismatch(len(features), len(labels))
	}
	preds, err := b.DecideAll(prob, features)
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
