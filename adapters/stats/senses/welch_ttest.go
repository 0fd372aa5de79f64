package senses

import (
	"math"

	"claimsift/domain/evaluation"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const welchName = "welch_ttest"

// WelchTTestSense compares the feature mean of fraud and non-fraud claims
type WelchTTestSense struct{}

// NewWelchTTestSense creates a new Welch's t-test sense
func NewWelchTTestSense() *WelchTTestSense {
	return &WelchTTestSense{}
}

func (s *WelchTTestSense) Name() string { return welchName }

func (s *WelchTTestSense) Description() string {
	return "Welch's t-test of fraud vs non-fraud means; effect size is Cohen's d"
}

// Analyze returns the t statistic (fraud minus non-fraud), its two-sided
// p-value and Cohen's d
func (s *WelchTTestSense) Analyze(x []float64, labels []int) evaluation.SenseResult {
	if len(x) != len(labels) {
		return insufficient(s.Name())
	}
	var fraud, legit []float64
	for i, v := range x {
		if labels[i] == 1 {
			fraud = append(fraud, v)
		} else {
			legit = append(legit, v)
		}
	}
	if len(fraud) < 2 || len(legit) < 2 {
		return insufficient(s.Name())
	}

	m1, v1 := stat.MeanVariance(fraud, nil)
	m0, v0 := stat.MeanVariance(legit, nil)
	n1, n0 := float64(len(fraud)), float64(len(legit))

	se2 := v1/n1 + v0/n0
	if se2 == 0 {
		return insufficient(s.Name())
	}
	t := (m1 - m0) / math.Sqrt(se2)
	df := se2 * se2 / ((v1*v1)/(n1*n1*(n1-1)) + (v0*v0)/(n0*n0*(n0-1)))

	pooled := math.Sqrt(((n1-1)*v1 + (n0-1)*v0) / (n1 + n0 - 2))
	d := 0.0
	if pooled > 0 {
		d = (m1 - m0) / pooled
	}

	return evaluation.SenseResult{
		Sense:      s.Name(),
		Statistic:  t,
		PValue:     2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t)),
		EffectSize: d,
		Signal:     classifySignal(d, s.Name()),
	}
}
