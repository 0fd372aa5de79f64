package senses

import (
	"math"

	"claimsift/domain/evaluation"

	"gonum.org/v1/gonum/stat/distuv"
)

const chiSquareName = "chi_square"

// ChiSquareSense tests independence of a feature's levels and the label
type ChiSquareSense struct{}

// NewChiSquareSense creates a new Chi-Square sense
func NewChiSquareSense() *ChiSquareSense {
	return &ChiSquareSense{}
}

func (s *ChiSquareSense) Name() string { return chiSquareName }

func (s *ChiSquareSense) Description() string {
	return "Pearson chi-square test of independence; effect size is Cramer's V"
}

// Analyze returns the chi-square statistic, its p-value and Cramer's V
func (s *ChiSquareSense) Analyze(x []float64, labels []int) evaluation.SenseResult {
	if len(x) != len(labels) || len(x) < 5 {
		return insufficient(s.Name())
	}
	levels, k := categories(x)
	table := contingency(levels, k, labels)

	n := float64(len(x))
	var colTotals [2]float64
	for _, row := range table {
		colTotals[0] += float64(row[0])
		colTotals[1] += float64(row[1])
	}
	if k < 2 || colTotals[0] == 0 || colTotals[1] == 0 {
		return insufficient(s.Name())
	}

	chiSq := 0.0
	for _, row := range table {
		rowTotal := float64(row[0] + row[1])
		for c := 0; c < 2; c++ {
			expected := rowTotal * colTotals[c] / n
			if expected > 0 {
				d := float64(row[c]) - expected
				chiSq += d * d / expected
			}
		}
	}

	df := float64(k - 1)
	// with a binary label min(r-1, c-1) is 1
	cramerV := math.Sqrt(chiSq / n)
	return evaluation.SenseResult{
		Sense:      s.Name(),
		Statistic:  chiSq,
		PValue:     distuv.ChiSquared{K: df}.Survival(chiSq),
		EffectSize: cramerV,
		Signal:     classifySignal(cramerV, s.Name()),
	}
}
