package evaluation

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"

	"claimsift/domain/evaluation"
	"claimsift/internal"
	"claimsift/internal/errors"
	"claimsift/internal/testkit"
	"claimsift/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearch(t *testing.T, opts ...SearchOption) *GridSearch {
	t.Helper()
	return NewGridSearch(newTestCV(t, 3), append([]SearchOption{WithSearchLogger(internal.NewDiscardLogger())}, opts...)...)
}

func columnFamily(columns ...float64) Family {
	return Family{
		Grid:    Grid{Family: "echo", Axes: []Axis{{Name: "column", Values: columns}}},
		Factory: testkit.EchoFactory,
	}
}

func TestSearch_EvaluatesNineCellsInOrder(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)
	family := Family{Grid: LogisticGrid(), Factory: testkit.EchoFactory}

	res, err := newTestSearch(t).Search(context.Background(), family, features, labels)
	require.NoError(t, err)

	require.Len(t, res.Cells, 9)
	want := family.Grid.Configurations()
	for i, cell := range res.Cells {
		assert.Equal(t, i, cell.Index)
		assert.Equal(t, want[i], cell.Config)
		assert.Equal(t, 1.0, cell.CV.MeanRecall)
		assert.Equal(t, 1.0, cell.FullAccuracy)
	}

	// every cell ties, so the first one wins
	require.True(t, res.Found())
	assert.Equal(t, 0, res.Best.Index)
	assert.Equal(t, "tolerance=1e-08, max_iterations=100", res.Best.Config.String())
	require.NotNil(t, res.Model)
	assert.True(t, res.Model.IsTrained())
}

func TestSearch_SelectsStrictlyGreaterRecall(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)

	// column 2 scores 0.53, column 0 scores 1, column 1 (always 1) ties it
	res, err := newTestSearch(t).Search(context.Background(), columnFamily(2, 0, 1), features, labels)
	require.NoError(t, err)

	assert.InDelta(t, 1.6/3, res.Cells[0].CV.MeanRecall, 1e-12)
	assert.Equal(t, 1.0, res.Cells[2].CV.MeanRecall)
	require.True(t, res.Found())
	assert.Equal(t, 1, res.Best.Index)
}

func TestSearch_DegenerateCellsAreNeverSelected(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)

	res, err := newTestSearch(t).Search(context.Background(), columnFamily(9, 0), features, labels)
	require.NoError(t, err)

	assert.True(t, res.Cells[0].CV.Degenerate)
	assert.NotEmpty(t, res.Cells[0].FullError)
	assert.Equal(t, 1, res.Best.Index)
}

func TestSearch_NoWinner(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)

	res, err := newTestSearch(t).Search(context.Background(), columnFamily(9, 9), features, labels)
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Nil(t, res.Model)
	assert.Len(t, res.Cells, 2)
}

func TestSearch_ZeroRecallIsNotAWinner(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)
	for _, row := range features {
		row[2] = 0
	}

	res, err := newTestSearch(t).Search(context.Background(), columnFamily(2), features, labels)
	require.NoError(t, err)
	assert.False(t, res.Cells[0].CV.Degenerate)
	assert.False(t, res.Found())
}

// failingOnCall builds echo classifiers, failing training for the n-th build
func failingOnCall(n int32) ports.ClassifierFactory {
	var calls int32
	return func(cfg evaluation.Configuration) (ports.Classifier, error) {
		c := testkit.NewEchoClassifier(0)
		c.FailOnTrain = atomic.AddInt32(&calls, 1) == n
		return c, nil
	}
}

func TestSearch_DisplayTrainingFailureIsRecorded(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)
	family := Family{Grid: Grid{Family: "echo", Axes: []Axis{{Name: "column", Values: []float64{0}}}}, Factory: failingOnCall(2)}

	res, err := newTestSearch(t).Search(context.Background(), family, features, labels)
	require.NoError(t, err)

	assert.NotEmpty(t, res.Cells[0].FullError)
	assert.Zero(t, res.Cells[0].FullAccuracy)
	assert.True(t, res.Found(), "display accuracy never drives selection")
}

func TestSearch_WinnerRetrainFailureIsFatal(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)
	family := Family{Grid: Grid{Family: "echo", Axes: []Axis{{Name: "column", Values: []float64{0}}}}, Factory: failingOnCall(3)}

	_, err := newTestSearch(t).Search(context.Background(), family, features, labels)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrTraining))
}

func TestSearch_ParallelMatchesSequential(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)
	family := columnFamily(2, 9, 0, 1, 2, 0)

	seq, err := newTestSearch(t).Search(context.Background(), family, features, labels)
	require.NoError(t, err)
	par, err := newTestSearch(t, WithParallelism(4)).Search(context.Background(), family, features, labels)
	require.NoError(t, err)

	require.Len(t, par.Cells, len(seq.Cells))
	for i := range seq.Cells {
		assert.Equal(t, seq.Cells[i].Index, par.Cells[i].Index)
		assert.Equal(t, seq.Cells[i].CV.MeanRecall, par.Cells[i].CV.MeanRecall)
		assert.Equal(t, seq.Cells[i].CV.Degenerate, par.Cells[i].CV.Degenerate)
	}
	assert.Equal(t, seq.Best.Index, par.Best.Index)
	assert.Equal(t, 2, par.Best.Index)
}

func TestSearch_InputErrors(t *testing.T) {
	features, labels := testkit.LabelledMatrix(30)
	search := newTestSearch(t)

	_, err := search.Search(context.Background(), columnFamily(0), features, labels[:5])
	assert.True(t, stderrors.Is(err, errors.ErrLengthMismatch))

	_, err = search.Search(context.Background(), columnFamily(), features, labels)
	assert.True(t, stderrors.Is(err, errors.ErrValidation))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = search.Search(ctx, columnFamily(0), features, labels)
	assert.ErrorIs(t, err, context.Canceled)
}
