package evaluation

import (
	"fmt"

	"claimsift/domain/dataset"
	"claimsift/internal/errors"
	"claimsift/ports"
)

// prunedClassifier drops the columns that were constant in its last training
// input, both when training and when predicting.
type prunedClassifier struct {
	ports.Classifier
	keep    []int
	width   int
	dropped int
}

// PruneConstantFeatures wraps c when it declares constant-feature
// sensitivity and returns c unchanged otherwise.
func PruneConstantFeatures(c ports.Classifier) ports.Classifier {
	if !ports.RequiresConstantPruning(c) {
		return c
	}
	return &prunedClassifier{Classifier: c}
}

// DroppedFeatures returns how many columns the last Train call dropped
func (p *prunedClassifier) DroppedFeatures() int {
	return p.dropped
}

func (p *prunedClassifier) Train(features [][]float64, labels []int) error {
	p.keep, p.width, p.dropped = nil, 0, 0
	if len(features) > 0 {
		p.width = len(features[0])
	}
	if constant := dataset.ConstantColumns(features); len(constant) > 0 {
		p.keep = dataset.KeepColumns(len(features[0]), constant)
		p.dropped = len(constant)
		features = dataset.SelectColumns(features, p.keep)
	}
	return p.Classifier.Train(features, labels)
}

func (p *prunedClassifier) project(sample []float64) ([]float64, error) {
	if p.keep == nil {
		return sample, nil
	}
	if len(sample) != p.width {
		return nil, errors.InvalidInput(fmt.Sprintf("sample has %d features, model was trained on %d", len(sample), p.width))
	}
	out := make([]float64, len(p.keep))
	for k, j := range p.keep {
		out[k] = sample[j]
	}
	return out, nil
}

func (p *prunedClassifier) projectAll(samples [][]float64) ([][]float64, error) {
	if p.keep == nil {
		return samples, nil
	}
	out := make([][]float64, len(samples))
	for i, s := range samples {
		row, err := p.project(s)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

func (p *prunedClassifier) PredictProbability(sample []float64) (float64, error) {
	s, err := p.project(sample)
	if err != nil {
		return 0, err
	}
	return p.Classifier.PredictProbability(s)
}

func (p *prunedClassifier) PredictProbabilities(samples [][]float64) ([]float64, error) {
	s, err := p.projectAll(samples)
	if err != nil {
		return nil, err
	}
	return p.Classifier.PredictProbabilities(s)
}

func (p *prunedClassifier) Predict(sample []float64) (int, error) {
	s, err := p.project(sample)
	if err != nil {
		return 0, err
	}
	return p.Classifier.Predict(s)
}

func (p *prunedClassifier) PredictBatch(samples [][]float64) ([]int, error) {
	s, err := p.projectAll(samples)
	if err != nil {
		return nil, err
	}
	return p.Classifier.PredictBatch(s)
}

func (p *prunedClassifier) Accuracy(features [][]float64, labels []int) (float64, error) {
	s, err := p.projectAll(features)
	if err != nil {
		return 0, err
	}
	return p.Classifier.Accuracy(s, labels)
}
