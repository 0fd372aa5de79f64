package rng

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeededStream_IsReproducible(t *testing.T) {
	r := New()
	a, err := r.SeededStream(context.Background(), "split", 42)
	require.NoError(t, err)
	b, err := r.SeededStream(context.Background(), "other-name", 42)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}
}

func TestStream_KeysSeparateGenerators(t *testing.T) {
	r := New()
	ctx := context.Background()

	a, _ := r.Stream(ctx, "run", "forest", "tree-0", 42)
	b, _ := r.Stream(ctx, "run", "forest", "tree-1", 42)
	c, _ := r.Stream(ctx, "run", "forest", "tree-0", 42)

	va, vb, vc := a.Int63(), b.Int63(), c.Int63()
	assert.NotEqual(t, va, vb)
	assert.Equal(t, va, vc)
}

func TestStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Stream(ctx, "", "", "", 1)
	assert.Error(t, err)
}
