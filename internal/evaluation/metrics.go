// Package evaluation implements the model-agnostic selection harness: k-fold
// cross-validation, grid search and the binary classification metrics.
package evaluation

import (
	"claimsift/domain/evaluation"
	"claimsift/internal/errors"
	"claimsift/ports"
)

// Confusion tallies predictions against labels, treating 1 as positive
func Confusion(labels, predictions []int) (evaluation.ConfusionCounts, error) {
	var c evaluation.ConfusionCounts
	if len(labels) != len(predictions) {
		return c, errors.LengthMismatch(len(predictions), len(labels))
	}
	for i, label := range labels {
		switch {
		case label == 1 && predictions[i] == 1:
			c.TP++
		case label == 1:
			c.FN++
		case predictions[i] == 1:
			c.FP++
		default:
			c.TN++
		}
	}
	return c, nil
}

// MetricsFrom derives the scores from confusion counts; each score is 0 when
// its denominator is 0.
func MetricsFrom(c evaluation.ConfusionCounts) evaluation.Metrics {
	m := evaluation.Metrics{
		Accuracy:  ratio(c.TP+c.TN, c.Total()),
		Precision: ratio(c.TP, c.TP+c.FP),
		Recall:    ratio(c.TP, c.TP+c.FN),
		Confusion: c,
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// Score predicts features with a trained classifier and scores the result
func Score(c ports.Classifier, features [][]float64, labels []int) (*evaluation.Metrics, error) {
	if len(features) != len(labels) {
		return nil, errors.LengthMismatch(len(features), len(labels))
	}
	predictions, err := c.PredictBatch(features)
	if err != nil {
		return nil, err
	}
	conf, err := Confusion(labels, predictions)
	if err != nil {
		return nil, err
	}
	m := MetricsFrom(conf)
	return &m, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
