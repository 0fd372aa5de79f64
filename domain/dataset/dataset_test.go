package dataset

import (
	"encoding/json"
	stderrors "errors"
	"testing"

	"claimsift/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() *Dataset {
	return &Dataset{
		Features: [][]float64{
			{1, 0, 0.5},
			{0, 0, 1.0},
			{1, 0, 0.0},
		},
		Labels:       []int{1, 0, 1},
		FeatureNames: []string{"a", "b", "Age"},
	}
}

func TestDataset_Validate(t *testing.T) {
	ds := sampleDataset()
	require.NoError(t, ds.Validate())

	ds.Labels = ds.Labels[:2]
	assert.True(t, stderrors.Is(ds.Validate(), errors.ErrLengthMismatch))

	ds = sampleDataset()
	ds.Features[1] = []float64{1}
	assert.True(t, stderrors.Is(ds.Validate(), errors.ErrValidation))

	ds = sampleDataset()
	ds.Labels[0] = 3
	assert.Error(t, ds.Validate())
}

func TestDataset_GetColumnData(t *testing.T) {
	ds := sampleDataset()

	col, ok := ds.GetColumnData("Age")
	require.True(t, ok)
	assert.Equal(t, []float64{0.5, 1.0, 0.0}, col)

	_, ok = ds.GetColumnData("missing")
	assert.False(t, ok)
}

func TestDataset_CloneIsIndependent(t *testing.T) {
	ds := sampleDataset()
	ds.CodeTables = []CodeTable{BuildCodeTable("Make", []string{"Honda", "Toyota"})}

	clone := ds.Clone()
	clone.Features[0][0] = 42
	clone.Labels[0] = 0
	clone.FeatureNames[0] = "changed"

	assert.Equal(t, 1.0, ds.Features[0][0])
	assert.Equal(t, 1, ds.Labels[0])
	assert.Equal(t, "a", ds.FeatureNames[0])

	code, ok := clone.CodeTables[0].Code("Toyota")
	assert.True(t, ok)
	assert.Equal(t, 1, code)
}

func TestDataset_SubsetCopiesRows(t *testing.T) {
	ds := sampleDataset()

	sub := ds.Subset([]int{2, 0})
	require.Equal(t, 2, sub.RowCount())
	assert.Equal(t, []int{1, 1}, sub.Labels)
	assert.Equal(t, []float64{1, 0, 0.0}, sub.Features[0])

	sub.Features[0][2] = 9
	assert.Equal(t, 0.0, ds.Features[2][2])
}

func TestCountLabels(t *testing.T) {
	neg, pos := CountLabels([]int{0, 1, 1, 0, 0})
	assert.Equal(t, 3, neg)
	assert.Equal(t, 2, pos)

	assert.True(t, HasBothClasses([]int{0, 1}))
	assert.False(t, HasBothClasses([]int{1, 1}))
	assert.False(t, HasBothClasses(nil))
}

func TestBuildCodeTable_FirstSeenOrder(t *testing.T) {
	table := BuildCodeTable("Month", []string{"Jan", "Mar", "Jan", "Feb", "Mar"})

	assert.Equal(t, []string{"Jan", "Mar", "Feb"}, table.Symbols)
	assert.Equal(t, 3, table.Size())

	for want, v := range []string{"Jan", "Mar", "Feb"} {
		code, ok := table.Code(v)
		require.True(t, ok)
		assert.Equal(t, want, code)
	}

	_, ok := table.Code("Dec")
	assert.False(t, ok)
}

func TestCodeTable_LookupAfterJSONRoundTrip(t *testing.T) {
	table := BuildCodeTable("Make", []string{"Honda", "Mazda"})

	raw, err := json.Marshal(table)
	require.NoError(t, err)

	var decoded CodeTable
	require.NoError(t, json.Unmarshal(raw, &decoded))

	code, ok := decoded.Code("Mazda")
	assert.True(t, ok)
	assert.Equal(t, 1, code)
}
