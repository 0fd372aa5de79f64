package evaluation

import (
	"fmt"
	"os"

	"claimsift/domain/evaluation"
	"claimsift/internal/errors"
	"claimsift/ports"

	"gopkg.in/yaml.v3"
)

// Family names of the shipped classifiers
const (
	FamilyLogistic = "logistic_regression"
	FamilyForest   = "random_forest"
)

// Axis is one hyperparameter and its candidate values
type Axis struct {
	Name   string    `yaml:"name" json:"name"`
	Values []float64 `yaml:"values" json:"values"`
}

// Grid is the hyperparameter space of one classifier family
type Grid struct {
	Family string `yaml:"family" json:"family"`
	Axes   []Axis `yaml:"axes" json:"axes"`
}

// Size returns the number of configurations in the grid
func (g Grid) Size() int {
	if len(g.Axes) == 0 {
		return 0
	}
	size := 1
	for _, a := range g.Axes {
		size *= len(a.Values)
	}
	return size
}

// Configurations enumerates the cartesian product with the first axis
// outermost, so the last axis varies fastest.
func (g Grid) Configurations() []evaluation.Configuration {
	size := g.Size()
	configs := make([]evaluation.Configuration, 0, size)
	for idx := 0; idx < size; idx++ {
		params := make([]evaluation.Param, len(g.Axes))
		rem := idx
		for a := len(g.Axes) - 1; a >= 0; a-- {
			n := len(g.Axes[a].Values)
			params[a] = evaluation.Param{Name: g.Axes[a].Name, Value: g.Axes[a].Values[rem%n]}
			rem /= n
		}
		configs = append(configs, evaluation.Configuration{Family: g.Family, Params: params})
	}
	return configs
}

// Validate rejects grids without a family or with empty axes
func (g Grid) Validate() error {
	if g.Family == "" {
		return errors.ValidationError("grid has no family")
	}
	if len(g.Axes) == 0 {
		return errors.ValidationError(fmt.Sprintf("grid %s has no axes", g.Family))
	}
	for _, a := range g.Axes {
		if a.Name == "" || len(a.Values) == 0 {
			return errors.ValidationError(fmt.Sprintf("grid %s has an empty axis %q", g.Family, a.Name))
		}
	}
	return nil
}

// LogisticGrid is the reference grid of the linear family
func LogisticGrid() Grid {
	return Grid{
		Family: FamilyLogistic,
		Axes: []Axis{
			{Name: "tolerance", Values: []float64{1e-8, 1e-6, 1e-4}},
			{Name: "max_iterations", Values: []float64{100, 200, 300}},
		},
	}
}

// ForestGrid is the reference grid of the ensemble family
func ForestGrid() Grid {
	return Grid{
		Family: FamilyForest,
		Axes: []Axis{
			{Name: "trees", Values: []float64{50, 100, 200}},
			{Name: "sample_ratio", Values: []float64{0.7, 0.9, 1.0}},
		},
	}
}

// DefaultGrids returns the reference grids in evaluation order
func DefaultGrids() []Grid {
	return []Grid{LogisticGrid(), ForestGrid()}
}

type gridFile struct {
	Grids []Grid `yaml:"grids"`
}

// LoadGrids reads grid definitions from a YAML document of the form
//
//	grids:
//	  - family: random_forest
//	    axes:
//	      - name: trees
//	        values: [10, 20]
func LoadGrids(path string) ([]Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err, "failed to read grid file")
	}
	return ParseGrids(data)
}

// ParseGrids decodes and validates a YAML grid document
func ParseGrids(data []byte) ([]Grid, error) {
	var f gridFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err, "failed to parse grid file")
	}
	if len(f.Grids) == 0 {
		return nil, errors.ConfigInvalid("grid file defines no grids")
	}
	for _, g := range f.Grids {
		if err := g.Validate(); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, err, "invalid grid")
		}
	}
	return f.Grids, nil
}

// Family pairs a grid with the factory that builds its classifiers
type Family struct {
	Grid    Grid
	Factory ports.ClassifierFactory
}

// Name returns the family name
func (f Family) Name() string {
	return f.Grid.Family
}

// ApplyGrids replaces the grid of every family named in overrides
func ApplyGrids(families []Family, overrides []Grid) []Family {
	out := make([]Family, len(families))
	copy(out, families)
	for _, g := range overrides {
		for i := range out {
			if out[i].Name() == g.Family {
				out[i].Grid = g
			}
		}
	}
	return out
}
