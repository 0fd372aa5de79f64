package evaluation

import (
	"fmt"

	"claimsift/domain/dataset"
	"claimsift/domain/evaluation"
	"claimsift/internal"
	"claimsift/internal/errors"
	"claimsift/ports"

	"github.com/montanaflynn/stats"
)

// DefaultFolds is the fold count of the selection protocol
const DefaultFolds = 3

// CrossValidator runs contiguous k-fold cross-validation
type CrossValidator struct {
	folds  int
	quiet  bool
	logger *internal.Logger
}

// CVOption configures a CrossValidator
type CVOption func(*CrossValidator)

// WithQuiet suppresses per-fold log lines
func WithQuiet(quiet bool) CVOption {
	return func(cv *CrossValidator) { cv.quiet = quiet }
}

// WithCVLogger sets the logger; nil selects the default logger
func WithCVLogger(logger *internal.Logger) CVOption {
	return func(cv *CrossValidator) { cv.logger = logger }
}

// NewCrossValidator creates a validator with the given number of folds (>= 2)
func NewCrossValidator(folds int, opts ...CVOption) (*CrossValidator, error) {
	if folds < 2 {
		return nil, errors.ValidationError(fmt.Sprintf("need at least 2 folds, got %d", folds))
	}
	cv := &CrossValidator{folds: folds}
	for _, opt := range opts {
		opt(cv)
	}
	cv.logger = internal.OrDefault(cv.logger)
	return cv, nil
}

// Folds returns the configured fold count
func (cv *CrossValidator) Folds() int {
	return cv.folds
}

// Quiet returns a copy of cv that suppresses per-fold output
func (cv *CrossValidator) Quiet() *CrossValidator {
	out := *cv
	out.quiet = true
	return &out
}

// Evaluate trains and tests classifier once per fold. Fold i tests on rows
// [i*size, (i+1)*size) with size = n/folds; the last fold also takes the
// remainder. Folds whose training block lacks a class, or whose training or
// prediction fails, are skipped. When no fold succeeds the result is tagged
// Degenerate rather than returned as an error.
func (cv *CrossValidator) Evaluate(classifier ports.Classifier, features [][]float64, labels []int) (*evaluation.CVResult, error) {
	n := len(features)
	if n != len(labels) {
		return nil, errors.LengthMismatch(n, len(labels))
	}
	if n == 0 {
		return nil, errors.EmptyInput("cannot cross-validate an empty dataset")
	}
	if n < cv.folds {
		return nil, errors.ValidationError(fmt.Sprintf("%d samples cannot fill %d folds", n, cv.folds))
	}

	if !cv.quiet {
		cv.logger.Info("Running %d-fold cross-validation for %s", cv.folds, classifier.Name())
	}

	model := PruneConstantFeatures(classifier)
	foldSize := n / cv.folds
	result := &evaluation.CVResult{Folds: make([]evaluation.FoldOutcome, 0, cv.folds)}
	var accuracies, recalls stats.Float64Data

	for fold := 0; fold < cv.folds; fold++ {
		testStart := fold * foldSize
		testEnd := testStart + foldSize
		if fold == cv.folds-1 {
			testEnd = n
		}

		outcome := cv.runFold(model, fold, features, labels, testStart, testEnd)
		result.Folds = append(result.Folds, outcome)

		if outcome.Skipped {
			if !cv.quiet {
				cv.logger.Info("fold %d: SKIPPED (%s)", fold+1, outcome.SkipReason)
			}
			continue
		}

		accuracies = append(accuracies, outcome.Result.Accuracy)
		recalls = append(recalls, outcome.Result.Recall)
		if !cv.quiet {
			cv.logger.Info("fold %d: accuracy=%.2f%%, recall=%.2f%%", fold+1, outcome.Result.Accuracy*100, outcome.Result.Recall*100)
		}
	}

	result.Successful = len(recalls)
	if result.Successful == 0 {
		result.Degenerate = true
		cv.logger.Warn("All %d folds failed for %s; cross-validation recall is meaningless", cv.folds, classifier.Name())
		return result, nil
	}

	result.MeanAccuracy, _ = stats.Mean(accuracies)
	result.MeanRecall, _ = stats.Mean(recalls)
	result.RecallStdDev, _ = stats.StandardDeviation(recalls)

	if !cv.quiet {
		cv.logger.Info("average accuracy: %.2f%%, average recall: %.2f%% (from %d/%d successful folds)",
			result.MeanAccuracy*100, result.MeanRecall*100, result.Successful, cv.folds)
	}
	return result, nil
}

func (cv *CrossValidator) runFold(model ports.Classifier, fold int, features [][]float64, labels []int, testStart, testEnd int) (outcome evaluation.FoldOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome.Skipped = true
			outcome.SkipReason = fmt.Sprintf("classifier panicked: %v", r)
			outcome.Result = nil
		}
	}()

	var trainX, testX [][]float64
	var trainY, testY []int
	for i := range features {
		if i >= testStart && i < testEnd {
			testX = append(testX, features[i])
			testY = append(testY, labels[i])
		} else {
			trainX = append(trainX, features[i])
			trainY = append(trainY, labels[i])
		}
	}

	outcome = evaluation.FoldOutcome{Index: fold, TrainSize: len(trainX), TestSize: len(testX)}
	skip := func(reason string) evaluation.FoldOutcome {
		outcome.Skipped = true
		outcome.SkipReason = reason
		return outcome
	}

	if !dataset.HasBothClasses(trainY) {
		return skip("missing class in training data")
	}
	if err := model.Train(trainX, trainY); err != nil {
		return skip(err.Error())
	}
	if d, ok := model.(interface{ DroppedFeatures() int }); ok {
		outcome.DroppedFeatures = d.DroppedFeatures()
	}

	m, err := Score(model, testX, testY)
	if err != nil {
		return skip(err.Error())
	}
	outcome.Result = &evaluation.EvaluationResult{
		Accuracy:  m.Accuracy,
		Recall:    m.Recall,
		Confusion: m.Confusion,
	}
	return outcome
}
