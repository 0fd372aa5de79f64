package senses

import (
	"context"
	"math"
	"testing"

	"claimsift/domain/dataset"
	"claimsift/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alternating(n int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i % 2
	}
	return labels
}

func asFloats(labels []int) []float64 {
	out := make([]float64, len(labels))
	for i, l := range labels {
		out[i] = float64(l)
	}
	return out
}

// independentOf returns a binary column with equal label rates in each level
func independentOf(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64((i / 2) % 2)
	}
	return out
}

func TestChiSquare(t *testing.T) {
	labels := alternating(20)
	s := NewChiSquareSense()

	perfect := s.Analyze(asFloats(labels), labels)
	assert.InDelta(t, 20, perfect.Statistic, 1e-9)
	assert.InDelta(t, 1, perfect.EffectSize, 1e-9)
	assert.Less(t, perfect.PValue, 0.001)
	assert.Equal(t, "very_strong", perfect.Signal)

	none := s.Analyze(independentOf(20), labels)
	assert.InDelta(t, 0, none.Statistic, 1e-12)
	assert.InDelta(t, 1, none.PValue, 1e-12)
	assert.Equal(t, "weak", none.Signal)

	constant := s.Analyze(make([]float64, 20), labels)
	assert.Equal(t, 1.0, constant.PValue)
	assert.Zero(t, constant.Statistic)
}

func TestMutualInformation(t *testing.T) {
	labels := alternating(20)
	s := NewMutualInformationSense()

	perfect := s.Analyze(asFloats(labels), labels)
	assert.InDelta(t, 1, perfect.Statistic, 1e-9, "one bit for a balanced label")
	assert.InDelta(t, 1, perfect.EffectSize, 1e-9)
	assert.Less(t, perfect.PValue, 0.001)

	none := s.Analyze(independentOf(20), labels)
	assert.InDelta(t, 0, none.Statistic, 1e-12)
	assert.InDelta(t, 1, none.PValue, 1e-12)
}

func TestWelchTTest(t *testing.T) {
	labels := alternating(20)
	x := make([]float64, 20)
	for i := range x {
		x[i] = float64(i/2) + 5*float64(labels[i])
	}

	r := NewWelchTTestSense().Analyze(x, labels)
	assert.Greater(t, r.Statistic, 0.0)
	assert.Less(t, r.PValue, 0.01)
	assert.Greater(t, r.EffectSize, 0.8)
	assert.Equal(t, "very_strong", r.Signal)

	flipped := NewWelchTTestSense().Analyze(x, alternating(20)[1:])
	assert.Equal(t, 1.0, flipped.PValue, "length mismatch is insufficient")

	zeroVariance := NewWelchTTestSense().Analyze(asFloats(labels), labels)
	assert.Equal(t, 1.0, zeroVariance.PValue)
}

func TestCategories_BinsContinuousColumns(t *testing.T) {
	x := make([]float64, 12)
	for i := range x {
		x[i] = float64(i)
	}
	levels, k := categories(x)
	assert.Equal(t, 3, k)
	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2}, levels)

	levels, k = categories([]float64{0.5, 1, 0.5, 0})
	assert.Equal(t, 3, k)
	assert.Equal(t, []int{0, 1, 0, 2}, levels)
}

func TestSenseEngine_RanksByMutualInformation(t *testing.T) {
	labels := alternating(20)
	noise := independentOf(20)
	ds := &dataset.Dataset{
		FeatureNames: []string{"Noise", "Signal"},
		Labels:       labels,
		Features:     make([][]float64, 20),
	}
	for i := range ds.Features {
		ds.Features[i] = []float64{noise[i], float64(labels[i])}
	}

	engine := NewSenseEngine()
	assert.Equal(t, []string{"mutual_information", "chi_square", "welch_ttest"}, engine.ListSenses())

	screens, err := engine.Screen(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, screens, 2)
	assert.Equal(t, "Signal", screens[0].Feature)
	assert.InDelta(t, 1, screens[0].MutualInformation, 1e-9)
	assert.Equal(t, "Noise", screens[1].Feature)

	chi, ok := screens[0].Result("chi_square")
	require.True(t, ok)
	assert.False(t, math.IsNaN(chi.PValue))
	_, ok = screens[0].Result("spearman")
	assert.False(t, ok)
}

func TestSenseEngine_Errors(t *testing.T) {
	engine := NewSenseEngine()

	_, err := engine.Screen(context.Background(), &dataset.Dataset{FeatureNames: []string{"a"}})
	assert.ErrorIs(t, err, errors.ErrEmptyInput)

	bad := &dataset.Dataset{FeatureNames: []string{"a"}, Features: [][]float64{{1}}, Labels: []int{0, 1}}
	_, err = engine.Screen(context.Background(), bad)
	assert.ErrorIs(t, err, errors.ErrLengthMismatch)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	ok := &dataset.Dataset{FeatureNames: []string{"a"}, Features: [][]float64{{1}, {0}, {1}, {0}, {1}}, Labels: []int{1, 0, 1, 0, 1}}
	_, err = engine.Screen(cancelled, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
