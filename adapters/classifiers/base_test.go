package classifiers

import (
	stderrors "errors"
	"testing"

	"claimsift/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase_Threshold(t *testing.T) {
	b := NewBase("test")
	assert.Equal(t, DefaultDecisionThreshold, b.DecisionThreshold())

	require.NoError(t, b.SetDecisionThreshold(0.3))
	assert.Equal(t, 1, b.Decide(0.3))
	assert.Equal(t, 0, b.Decide(0.29))

	err := b.SetDecisionThreshold(1.1)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidInput))
	assert.Equal(t, 0.3, b.DecisionThreshold())
}

func TestBase_CheckSample(t *testing.T) {
	b := NewBase("test")
	assert.True(t, stderrors.Is(b.CheckSample([]float64{1}), errors.ErrNotTrained))

	b.MarkTrained(2)
	assert.NoError(t, b.CheckSample([]float64{1, 2}))
	assert.True(t, stderrors.Is(b.CheckSample([]float64{1}), errors.ErrInvalidInput))
	assert.Contains(t, b.Describe(), "trained on 2 features")

	b.Reset()
	assert.False(t, b.IsTrained())
}

func TestValidateTraining(t *testing.T) {
	assert.True(t, stderrors.Is(ValidateTraining(nil, nil), errors.ErrEmptyInput))
	assert.True(t, stderrors.Is(ValidateTraining([][]float64{{1}}, []int{0, 1}), errors.ErrLengthMismatch))
	assert.True(t, stderrors.Is(ValidateTraining([][]float64{{1}, {1, 2}}, []int{0, 1}), errors.ErrInvalidInput))
	assert.True(t, stderrors.Is(ValidateTraining([][]float64{{1}}, []int{2}), errors.ErrInvalidInput))
	assert.NoError(t, ValidateTraining([][]float64{{1}, {2}}, []int{0, 1}))
}

func TestAccuracyOf(t *testing.T) {
	b := NewBase("test")
	echo := func(s []float64) (float64, error) { return s[0], nil }

	acc, err := b.AccuracyOf(echo, [][]float64{{1}, {0}, {0.7}, {0.2}}, []int{1, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.75, acc)

	acc, err = b.AccuracyOf(echo, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, acc)
}
