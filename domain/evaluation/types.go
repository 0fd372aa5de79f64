// Package evaluation holds the result types of cross-validation, grid search
// and held-out scoring.
package evaluation

import (
	"fmt"
	"strconv"
	"strings"
)

// ConfusionCounts tallies binary predictions against labels (1 = fraud)
type ConfusionCounts struct {
	TP int `json:"tp"`
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
}

// Total returns the number of scored samples
func (c ConfusionCounts) Total() int {
	return c.TP + c.TN + c.FP + c.FN
}

// Add accumulates another set of counts
func (c ConfusionCounts) Add(o ConfusionCounts) ConfusionCounts {
	return ConfusionCounts{TP: c.TP + o.TP, TN: c.TN + o.TN, FP: c.FP + o.FP, FN: c.FN + o.FN}
}

func (c ConfusionCounts) String() string {
	return fmt.Sprintf("TP=%d, TN=%d, FP=%d, FN=%d", c.TP, c.TN, c.FP, c.FN)
}

// Metrics are the standard binary classification scores
type Metrics struct {
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	Confusion ConfusionCounts `json:"confusion"`
}

// EvaluationResult is the outcome of one classifier against one test subset
type EvaluationResult struct {
	Accuracy  float64         `json:"accuracy"`
	Recall    float64         `json:"recall"`
	Confusion ConfusionCounts `json:"confusion"`
}

// FoldOutcome records one round of k-fold cross-validation
type FoldOutcome struct {
	Index           int               `json:"index"`
	TrainSize       int               `json:"train_size"`
	TestSize        int               `json:"test_size"`
	DroppedFeatures int               `json:"dropped_features,omitempty"`
	Skipped         bool              `json:"skipped"`
	SkipReason      string            `json:"skip_reason,omitempty"`
	Result          *EvaluationResult `json:"result,omitempty"`
}

// CVResult aggregates the folds of one cross-validation
type CVResult struct {
	Folds        []FoldOutcome `json:"folds"`
	Successful   int           `json:"successful"`
	MeanAccuracy float64       `json:"mean_accuracy"`
	MeanRecall   float64       `json:"mean_recall"`
	RecallStdDev float64       `json:"recall_std_dev"`

	// Degenerate is set when no fold succeeded. MeanRecall is then 0 and
	// carries no information about the model.
	Degenerate bool `json:"degenerate"`
}

// Score returns the model-selection score (mean recall); ok is false for a
// degenerate evaluation.
func (r *CVResult) Score() (float64, bool) {
	if r == nil || r.Degenerate {
		return 0, false
	}
	return r.MeanRecall, true
}

// Param is one named hyperparameter value
type Param struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Configuration is an immutable hyperparameter assignment for one family
type Configuration struct {
	Family string  `json:"family"`
	Params []Param `json:"params"`
}

// Get returns the value of a named parameter
func (c Configuration) Get(name string) (float64, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return 0, false
}

// Int returns a named parameter truncated to int, or def when absent
func (c Configuration) Int(name string, def int) int {
	if v, ok := c.Get(name); ok {
		return int(v)
	}
	return def
}

// Float returns a named parameter, or def when absent
func (c Configuration) Float(name string, def float64) float64 {
	if v, ok := c.Get(name); ok {
		return v
	}
	return def
}

func (c Configuration) String() string {
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = p.Name + "=" + strconv.FormatFloat(p.Value, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}

// GridCell is one evaluated configuration of a grid search
type GridCell struct {
	Index  int           `json:"index"`
	Config Configuration `json:"config"`
	CV     CVResult      `json:"cv"`

	// FullAccuracy is measured on the same data the model was trained on and
	// is only shown to operators; it never drives selection.
	FullAccuracy float64 `json:"full_accuracy"`
	FullError    string  `json:"full_error,omitempty"`
}

// GridSearchResult is the outcome of one family's sweep
type GridSearchResult struct {
	Family string     `json:"family"`
	Cells  []GridCell `json:"cells"`

	// Best is nil when no configuration produced a usable evaluation
	Best *GridCell `json:"best,omitempty"`
}

// Found reports whether a winning configuration exists
func (r *GridSearchResult) Found() bool {
	return r != nil && r.Best != nil
}
