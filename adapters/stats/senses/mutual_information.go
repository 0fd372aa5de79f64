package senses

import (
	"math"

	"claimsift/domain/evaluation"

	"gonum.org/v1/gonum/stat/distuv"
)

const mutualInformationName = "mutual_information"

// MutualInformationSense measures how much a feature tells about the label,
// including non-monotonic relationships
type MutualInformationSense struct{}

// NewMutualInformationSense creates a new mutual information sense
func NewMutualInformationSense() *MutualInformationSense {
	return &MutualInformationSense{}
}

func (s *MutualInformationSense) Name() string { return mutualInformationName }

func (s *MutualInformationSense) Description() string {
	return "Mutual information in bits; effect size is the share of label entropy explained"
}

// Analyze returns I(X;Y) in bits, a G-test p-value and I(X;Y)/H(Y)
func (s *MutualInformationSense) Analyze(x []float64, labels []int) evaluation.SenseResult {
	if len(x) != len(labels) || len(x) < 5 {
		return insufficient(s.Name())
	}
	levels, k := categories(x)
	table := contingency(levels, k, labels)

	n := float64(len(x))
	var py [2]float64
	for _, row := range table {
		py[0] += float64(row[0])
		py[1] += float64(row[1])
	}
	py[0] /= n
	py[1] /= n

	mi := 0.0 // nats
	for _, row := range table {
		px := float64(row[0]+row[1]) / n
		for c := 0; c < 2; c++ {
			if row[c] == 0 {
				continue
			}
			pxy := float64(row[c]) / n
			mi += pxy * math.Log(pxy/(px*py[c]))
		}
	}
	mi = math.Max(mi, 0)

	hy := 0.0
	for _, p := range py {
		if p > 0 {
			hy -= p * math.Log(p)
		}
	}

	p := 1.0
	if k > 1 && hy > 0 {
		// G = 2N·I is asymptotically chi-square with (k-1) degrees of freedom
		p = distuv.ChiSquared{K: float64(k - 1)}.Survival(2 * n * mi)
	}
	effect := 0.0
	if hy > 0 {
		effect = mi / hy
	}

	bits := mi / math.Ln2
	return evaluation.SenseResult{
		Sense:      s.Name(),
		Statistic:  bits,
		PValue:     p,
		EffectSize: effect,
		Signal:     classifySignal(effect, s.Name()),
	}
}
