package forest

import (
	"math/rand"
	"sort"
)

// node is a binary CART node; x[feature] <= threshold goes left
type node struct {
	leaf      bool
	fraud     float64 // fraction of fraud samples reaching a leaf
	feature   int
	threshold float64
	left      *node
	right     *node
}

type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
}

type treeBuilder struct {
	x      [][]float64
	y      []int
	params treeParams
	rng    *rand.Rand
	width  int
}

// grow builds a tree over the rows in idx
func (b *treeBuilder) grow(idx []int, depth int) *node {
	pos := 0
	for _, i := range idx {
		pos += b.y[i]
	}
	n := len(idx)
	leaf := &node{leaf: true, fraud: float64(pos) / float64(n)}

	if pos == 0 || pos == n || n < b.params.minSamplesSplit {
		return leaf
	}
	if b.params.maxDepth > 0 && depth >= b.params.maxDepth {
		return leaf
	}

	feature, threshold, ok := b.bestSplit(idx, pos)
	if !ok {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      b.grow(left, depth+1),
		right:     b.grow(right, depth+1),
	}
}

// bestSplit searches a random subset of features for the split with the
// lowest weighted Gini impurity. ok is false when no split reduces impurity.
func (b *treeBuilder) bestSplit(idx []int, pos int) (feature int, threshold float64, ok bool) {
	n := len(idx)
	best := gini(pos, n)

	candidates := b.rng.Perm(b.width)
	if b.params.maxFeatures < len(candidates) {
		candidates = candidates[:b.params.maxFeatures]
	}

	type sample struct {
		v float64
		y int
	}
	samples := make([]sample, n)

	for _, f := range candidates {
		for k, i := range idx {
			samples[k] = sample{v: b.x[i][f], y: b.y[i]}
		}
		sort.Slice(samples, func(a, c int) bool { return samples[a].v < samples[c].v })

		leftPos := 0
		for k := 0; k < n-1; k++ {
			leftPos += samples[k].y
			if samples[k].v == samples[k+1].v {
				continue
			}
			leftN := k + 1
			rightN := n - leftN
			impurity := (float64(leftN)*gini(leftPos, leftN) + float64(rightN)*gini(pos-leftPos, rightN)) / float64(n)
			if impurity < best {
				best = impurity
				feature = f
				threshold = (samples[k].v + samples[k+1].v) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func (t *node) predict(sample []float64) float64 {
	for !t.leaf {
		if sample[t.feature] <= t.threshold {
			t = t.left
		} else {
			t = t.right
		}
	}
	return t.fraud
}

func (t *node) depth() int {
	if t.leaf {
		return 0
	}
	l, r := t.left.depth(), t.right.depth()
	if l > r {
		return l + 1
	}
	return r + 1
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
