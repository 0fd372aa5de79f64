package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunIDUniqueness(t *testing.T) {
	const numIDs = 1000

	ids := make(map[RunID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewRunID()
		require.NotEmpty(t, id.String())
		if ids[id] {
			t.Fatalf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestParseRunID(t *testing.T) {
	id := NewRunID()

	parsed, err := ParseRunID(" " + id.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseRunID("")
	assert.Error(t, err)

	_, err = ParseRunID("not-a-uuid")
	assert.Error(t, err)
}

func TestComputeMatrixHash(t *testing.T) {
	names := []string{"a", "b"}
	rows := [][]float64{{0, 1}, {1, 0.5}}
	labels := []int{0, 1}

	h1 := ComputeMatrixHash(names, rows, labels)
	h2 := ComputeMatrixHash(names, [][]float64{{0, 1}, {1, 0.5}}, []int{0, 1})
	assert.Equal(t, h1, h2)
	assert.Len(t, h1.Short(), 12)

	h3 := ComputeMatrixHash(names, [][]float64{{0, 1}, {1, 0.25}}, labels)
	assert.NotEqual(t, h1, h3)

	h4 := ComputeMatrixHash(names, rows, []int{1, 1})
	assert.NotEqual(t, h1, h4)
}
