package evaluation

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"testing"

	"claimsift/internal"
	"claimsift/internal/errors"
	"claimsift/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestCV(t *testing.T, folds int, opts ...CVOption) *CrossValidator {
	t.Helper()
	cv, err := NewCrossValidator(folds, append([]CVOption{WithCVLogger(internal.NewDiscardLogger())}, opts...)...)
	require.NoError(t, err)
	return cv
}

func TestNewCrossValidator_RejectsFewFolds(t *testing.T) {
	_, err := NewCrossValidator(1)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrValidation))
}

func TestEvaluate_BalancedThreeFolds(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)
	clf := testkit.NewEchoClassifier(0)

	res, err := newTestCV(t, 3).Evaluate(clf, features, labels)
	require.NoError(t, err)

	assert.False(t, res.Degenerate)
	assert.Equal(t, 3, res.Successful)
	assert.Equal(t, 1.0, res.MeanRecall)
	assert.Equal(t, 1.0, res.MeanAccuracy)
	assert.Zero(t, res.RecallStdDev)
	require.Len(t, res.Folds, 3)
	for i, f := range res.Folds {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, 10, f.TestSize)
		assert.Equal(t, 20, f.TrainSize)
	}
	assert.Equal(t, 3, clf.TrainCalls())
}

func TestEvaluate_LastFoldTakesRemainder(t *testing.T) {
	features, labels := testkit.LabelledMatrix(32)

	res, err := newTestCV(t, 3).Evaluate(testkit.NewEchoClassifier(0), features, labels)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 12}, []int{res.Folds[0].TestSize, res.Folds[1].TestSize, res.Folds[2].TestSize})
}

func TestEvaluate_SkipsFoldMissingAClass(t *testing.T) {
	features, _ := testkit.LabelledMatrix(30)
	labels := make([]int, 30)
	for i := range labels {
		if i < 20 {
			labels[i] = 1
		}
		features[i][0] = float64(labels[i])
	}

	res, err := newTestCV(t, 3).Evaluate(testkit.NewEchoClassifier(0), features, labels)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Successful)
	assert.True(t, res.Folds[2].Skipped)
	assert.Contains(t, res.Folds[2].SkipReason, "missing class")
}

func TestEvaluate_RecallAveragesSuccessfulFolds(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)

	// column 2 is i/30: fold recalls are 0, 3/5 and 1
	res, err := newTestCV(t, 3).Evaluate(testkit.NewEchoClassifier(2), features, labels)
	require.NoError(t, err)
	assert.InDelta(t, 1.6/3, res.MeanRecall, 1e-12)
	assert.Greater(t, res.RecallStdDev, 0.0)
}

func TestEvaluate_DropsTrainingConstantColumnsForSensitiveClassifiers(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)
	clf := testkit.NewEchoClassifier(0)
	clf.Sensitive = true

	res, err := newTestCV(t, 3).Evaluate(clf, features, labels)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 2}, clf.TrainWidths())
	assert.Equal(t, 1, res.Folds[0].DroppedFeatures)
	assert.Equal(t, 3, res.Successful)

	plain := testkit.NewEchoClassifier(0)
	_, err = newTestCV(t, 3).Evaluate(plain, features, labels)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 3}, plain.TrainWidths())
}

func TestEvaluate_DegenerateWhenEveryFoldFails(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)
	m := new(mockClassifier)
	m.On("Train", mock.Anything, mock.Anything).Return(errors.TrainingError("mock", fmt.Errorf("singular matrix")))

	var buf bytes.Buffer
	cv := newTestCV(t, 3, WithCVLogger(internal.NewLoggerTo(&buf, internal.LogLevelInfo)), WithQuiet(true))

	res, err := cv.Evaluate(m, features, labels)
	require.NoError(t, err)

	assert.True(t, res.Degenerate)
	assert.Zero(t, res.Successful)
	assert.Zero(t, res.MeanRecall)
	_, ok := res.Score()
	assert.False(t, ok)
	for _, f := range res.Folds {
		assert.True(t, f.Skipped)
		assert.Contains(t, f.SkipReason, "singular matrix")
	}
	m.AssertNumberOfCalls(t, "Train", 3)
	assert.Contains(t, buf.String(), "[WARN]")
}

func TestEvaluate_PredictionFailureSkipsFold(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)
	m := new(mockClassifier)
	m.On("Train", mock.Anything, mock.Anything).Return(nil)
	m.On("PredictBatch", mock.Anything).Return([]int(nil), fmt.Errorf("boom")).Once()
	m.On("PredictBatch", mock.Anything).Return(make([]int, 10), nil)

	res, err := newTestCV(t, 3).Evaluate(m, features, labels)
	require.NoError(t, err)

	assert.True(t, res.Folds[0].Skipped)
	assert.Equal(t, 2, res.Successful)
	assert.Zero(t, res.MeanRecall)
	assert.Equal(t, 0.5, res.MeanAccuracy)
}

func TestEvaluate_PanicSkipsFold(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)
	m := new(mockClassifier)
	m.On("Train", mock.Anything, mock.Anything).Return(nil)
	m.On("PredictBatch", mock.Anything).Return(nil, nil)

	res, err := newTestCV(t, 3).Evaluate(m, features, labels)
	require.NoError(t, err)
	assert.True(t, res.Degenerate)
	assert.Contains(t, res.Folds[0].SkipReason, "panicked")
}

func TestEvaluate_QuietMode(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)

	var loud, quiet bytes.Buffer
	_, err := newTestCV(t, 3, WithCVLogger(internal.NewLoggerTo(&loud, internal.LogLevelInfo))).
		Evaluate(testkit.NewEchoClassifier(0), features, labels)
	require.NoError(t, err)
	_, err = newTestCV(t, 3, WithCVLogger(internal.NewLoggerTo(&quiet, internal.LogLevelInfo))).Quiet().
		Evaluate(testkit.NewEchoClassifier(0), features, labels)
	require.NoError(t, err)

	assert.Contains(t, loud.String(), "fold 1:")
	assert.Empty(t, quiet.String())
}

func TestEvaluate_InputErrors(t *testing.T) {
	cv := newTestCV(t, 3)
	features, labels := testkit.LabelledMatrix(4)

	_, err := cv.Evaluate(testkit.NewEchoClassifier(0), features, labels[:3])
	assert.True(t, stderrors.Is(err, errors.ErrLengthMismatch))

	_, err = cv.Evaluate(testkit.NewEchoClassifier(0), features[:2], labels[:2])
	assert.True(t, stderrors.Is(err, errors.ErrValidation))

	_, err = cv.Evaluate(testkit.NewEchoClassifier(0), nil, nil)
	assert.True(t, stderrors.Is(err, errors.ErrEmptyInput))
}
