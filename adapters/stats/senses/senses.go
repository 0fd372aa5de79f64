// Package senses screens encoded features against the fraud label with a set
// of univariate statistical tests.
package senses

import (
	"context"
	"math"
	"runtime"
	"sort"

	"claimsift/domain/dataset"
	"claimsift/domain/evaluation"
	"claimsift/internal/errors"

	"golang.org/x/sync/errgroup"
)

// StatisticalSense tests one feature column against binary labels
type StatisticalSense interface {
	Name() string
	Description() string
	Analyze(x []float64, labels []int) evaluation.SenseResult
}

// SenseEngine runs every sense over every feature of a dataset
type SenseEngine struct {
	senses  []StatisticalSense
	workers int
}

// NewSenseEngine creates an engine with the given senses, or all shipped
// senses when none are given
func NewSenseEngine(senses ...StatisticalSense) *SenseEngine {
	if len(senses) == 0 {
		senses = []StatisticalSense{
			NewMutualInformationSense(),
			NewChiSquareSense(),
			NewWelchTTestSense(),
		}
	}
	return &SenseEngine{senses: senses, workers: runtime.GOMAXPROCS(0)}
}

// ListSenses returns all configured sense names
func (e *SenseEngine) ListSenses() []string {
	names := make([]string, len(e.senses))
	for i, sense := range e.senses {
		names[i] = sense.Name()
	}
	return names
}

// Screen analyses every feature column concurrently. Screens are ranked by
// mutual information, highest first; ties keep feature order.
func (e *SenseEngine) Screen(ctx context.Context, ds *dataset.Dataset) ([]evaluation.FeatureScreen, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if ds.RowCount() == 0 {
		return nil, errors.EmptyInput("cannot screen an empty dataset")
	}

	screens := make([]evaluation.FeatureScreen, ds.ColumnCount())
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.workers)
	for j, name := range ds.FeatureNames {
		j, name := j, name
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			screens[j] = e.screenColumn(name, dataset.Column(ds.Features, j), ds.Labels)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(screens, func(a, b int) bool {
		return screens[a].MutualInformation > screens[b].MutualInformation
	})
	return screens, nil
}

func (e *SenseEngine) screenColumn(name string, x []float64, labels []int) evaluation.FeatureScreen {
	screen := evaluation.FeatureScreen{Feature: name, Results: make([]evaluation.SenseResult, len(e.senses))}
	for i, sense := range e.senses {
		screen.Results[i] = sense.Analyze(x, labels)
		if screen.Results[i].Sense == mutualInformationName {
			screen.MutualInformation = screen.Results[i].Statistic
		}
	}
	return screen
}

func insufficient(name string) evaluation.SenseResult {
	return evaluation.SenseResult{Sense: name, PValue: 1, Signal: "weak"}
}

// maxLevels is the number of distinct values above which a column is
// treated as continuous and binned
const maxLevels = 10

// categories maps x onto small integer levels. Columns with few distinct
// values keep one level per value; others are split into three quantile bins.
func categories(x []float64) ([]int, int) {
	levels := make(map[float64]int)
	for _, v := range x {
		if _, ok := levels[v]; !ok {
			levels[v] = len(levels)
		}
	}
	out := make([]int, len(x))
	if len(levels) <= maxLevels {
		for i, v := range x {
			out[i] = levels[v]
		}
		return out, len(levels)
	}

	const bins = 3
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	for i, v := range x {
		bin := 0
		for b := 1; b < bins; b++ {
			if v >= sorted[len(sorted)*b/bins] {
				bin = b
			}
		}
		out[i] = bin
	}
	return out, bins
}

// contingency tallies levels against labels
func contingency(levels []int, k int, labels []int) [][2]int {
	table := make([][2]int, k)
	for i, l := range levels {
		table[l][labels[i]]++
	}
	return table
}

// classifySignal converts effect size to signal strength
func classifySignal(effectSize float64, sense string) string {
	abs := math.Abs(effectSize)
	cuts := [3]float64{0.2, 0.5, 0.8}
	if sense == mutualInformationName || sense == chiSquareName {
		cuts = [3]float64{0.1, 0.3, 0.5}
	}
	switch {
	case abs < cuts[0]:
		return "weak"
	case abs < cuts[1]:
		return "moderate"
	case abs < cuts[2]:
		return "strong"
	}
	return "very_strong"
}
