// Package rng provides the deterministic generator source behind ports.RNGPort.
package rng

import (
	"context"
	"math/rand"

	"claimsift/ports"
)

// SeededRNG derives math/rand generators from a seed and optional string keys
type SeededRNG struct{}

// New returns the default RNG port implementation
func New() ports.RNGPort {
	return &SeededRNG{}
}

// SeededStream returns a generator seeded exactly with seed; name is only a label
func (r *SeededRNG) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(seed)), nil
}

// Stream mixes runID, stageName and key into baseSeed so each unit of work
// gets its own reproducible generator
func (r *SeededRNG) Stream(ctx context.Context, runID, stageName, key string, baseSeed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := baseSeed
	for _, part := range []string{runID, stageName, key} {
		if part != "" {
			seed = int64(hashString(part)) + seed
		}
	}
	return rand.New(rand.NewSource(seed)), nil
}

// hashString is djb2
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c)
	}
	return hash
}
