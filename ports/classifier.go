package ports

import "claimsift/domain/evaluation"

// Classifier is the capability the evaluation harness drives. Implementations
// must be safe to retrain: Train replaces any previously fitted state.
type Classifier interface {
	Name() string

	// Train fits the model to features/labels (labels are 0 or 1)
	Train(features [][]float64, labels []int) error

	// PredictProbability returns P(label == 1) for one sample
	PredictProbability(sample []float64) (float64, error)
	PredictProbabilities(samples [][]float64) ([]float64, error)

	// Predict returns 1 when the probability reaches the decision threshold
	Predict(sample []float64) (int, error)
	PredictBatch(samples [][]float64) ([]int, error)

	// Accuracy is the fraction of samples predicted correctly
	Accuracy(features [][]float64, labels []int) (float64, error)

	DecisionThreshold() float64
	SetDecisionThreshold(threshold float64) error
	IsTrained() bool
}

// ConstantFeatureSensitive is implemented by classifiers that cannot be
// trained on columns that are constant within the training block.
type ConstantFeatureSensitive interface {
	SensitiveToConstantFeatures() bool
}

// RequiresConstantPruning reports whether c declares constant-feature sensitivity
func RequiresConstantPruning(c Classifier) bool {
	s, ok := c.(ConstantFeatureSensitive)
	return ok && s.SensitiveToConstantFeatures()
}

// ClassifierFactory builds a fresh, untrained classifier for one configuration
type ClassifierFactory func(cfg evaluation.Configuration) (Classifier, error)
