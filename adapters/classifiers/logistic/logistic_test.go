package logistic

import (
	stderrors "errors"
	"math/rand"
	"testing"

	"claimsift/domain/evaluation"
	"claimsift/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noisyThreshold builds rows [x, noise, 1] labelled x > 0.5, with a few flipped labels
func noisyThreshold(n int) ([][]float64, []int) {
	r := rand.New(rand.NewSource(1))
	features := make([][]float64, n)
	labels := make([]int, n)
	for i := range features {
		x := float64(i) / float64(n)
		features[i] = []float64{x, r.Float64(), 1}
		if x > 0.5 {
			labels[i] = 1
		}
	}
	labels[n/10] = 1
	labels[n-n/10] = 0
	return features, labels
}

func TestTrain_LearnsThreshold(t *testing.T) {
	features, labels := noisyThreshold(200)
	c := New()

	require.NoError(t, c.Train(features, labels))
	assert.True(t, c.IsTrained())

	acc, err := c.Accuracy(features, labels)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.9)

	_, weights := c.Coefficients()
	require.Len(t, weights, 3)
	assert.Greater(t, weights[0], 0.0)

	probs, err := c.PredictProbabilities(features)
	require.NoError(t, err)
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
	assert.Less(t, probs[20], 0.5)
	assert.Greater(t, probs[180], 0.5)
}

func TestTrain_IsDeterministic(t *testing.T) {
	features, labels := noisyThreshold(100)
	a, b := New(), New()
	require.NoError(t, a.Train(features, labels))
	require.NoError(t, b.Train(features, labels))

	ia, wa := a.Coefficients()
	ib, wb := b.Coefficients()
	assert.Equal(t, ia, ib)
	assert.Equal(t, wa, wb)
}

func TestTrain_IterationCap(t *testing.T) {
	features, labels := noisyThreshold(100)
	c := New(WithMaxIterations(1), WithTolerance(1e-12))
	require.NoError(t, c.Train(features, labels))

	converged, iters := c.Converged()
	assert.False(t, converged)
	assert.Equal(t, 1, iters)
}

func TestTrain_Errors(t *testing.T) {
	c := New()

	err := c.Train([][]float64{{1}, {2}}, []int{0})
	assert.True(t, stderrors.Is(err, errors.ErrTraining))
	assert.True(t, stderrors.Is(err, errors.ErrLengthMismatch))
	assert.False(t, c.IsTrained())

	_, err = c.PredictProbability([]float64{1})
	assert.True(t, stderrors.Is(err, errors.ErrNotTrained))
}

func TestPredict_ThresholdAndWidth(t *testing.T) {
	features, labels := noisyThreshold(100)
	c := New()
	require.NoError(t, c.Train(features, labels))

	require.NoError(t, c.SetDecisionThreshold(0))
	preds, err := c.PredictBatch(features)
	require.NoError(t, err)
	for _, p := range preds {
		assert.Equal(t, 1, p)
	}

	_, err = c.Predict([]float64{0.5})
	assert.True(t, stderrors.Is(err, errors.ErrInvalidInput))
}

func TestFactory(t *testing.T) {
	clf, err := Factory(evaluation.Configuration{
		Family: "logistic_regression",
		Params: []evaluation.Param{{Name: "tolerance", Value: 1e-4}, {Name: "max_iterations", Value: 200}},
	})
	require.NoError(t, err)
	lr := clf.(*Classifier)
	assert.Equal(t, 1e-4, lr.Tolerance())
	assert.Equal(t, 200, lr.MaxIterations())
	assert.Equal(t, ModelName, lr.Name())

	_, err = Factory(evaluation.Configuration{Params: []evaluation.Param{{Name: "tolerance", Value: 0}}})
	assert.Error(t, err)
}
