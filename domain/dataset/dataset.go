package dataset

import (
	"fmt"

	"claimsift/internal/errors"
)

// Dataset is the encoded, numeric form of a claim corpus.
type Dataset struct {
	Features     [][]float64 `json:"-"`
	Labels       []int       `json:"-"`
	FeatureNames []string    `json:"feature_names"`

	// Age range observed when the Age column was normalized. Zero when the
	// column was pruned or never scaled.
	AgeMin float64 `json:"age_min"`
	AgeMax float64 `json:"age_max"`

	// One code table per nominal column, in feature order.
	CodeTables []CodeTable `json:"code_tables,omitempty"`
}

// Validate ensures the dataset is internally consistent
func (d *Dataset) Validate() error {
	if len(d.Features) != len(d.Labels) {
		return errors.LengthMismatch(len(d.Features), len(d.Labels))
	}

	colCount := len(d.FeatureNames)
	for i, row := range d.Features {
		if len(row) != colCount {
			return errors.ValidationError(
				fmt.Sprintf("row %d has %d columns, expected %d", i, len(row), colCount))
		}
	}
	for i, label := range d.Labels {
		if label != 0 && label != 1 {
			return errors.ValidationError(fmt.Sprintf("label %d at row %d is not 0 or 1", label, i))
		}
	}

	return nil
}

// GetColumn returns the column index for a feature name
func (d *Dataset) GetColumn(name string) (int, bool) {
	for i, n := range d.FeatureNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// GetColumnData returns a copy of the values of a named column
func (d *Dataset) GetColumnData(name string) ([]float64, bool) {
	colIdx, found := d.GetColumn(name)
	if !found {
		return nil, false
	}
	return Column(d.Features, colIdx), true
}

// RowCount returns the number of samples
func (d *Dataset) RowCount() int {
	return len(d.Features)
}

// ColumnCount returns the number of features
func (d *Dataset) ColumnCount() int {
	return len(d.FeatureNames)
}

// LabelCounts returns the number of non-fraud and fraud labels
func (d *Dataset) LabelCounts() (negatives, positives int) {
	return CountLabels(d.Labels)
}

// Clone returns a deep copy sharing no rows with d
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Features:     CopyRows(d.Features),
		Labels:       append([]int(nil), d.Labels...),
		FeatureNames: append([]string(nil), d.FeatureNames...),
		AgeMin:       d.AgeMin,
		AgeMax:       d.AgeMax,
	}
	if d.CodeTables != nil {
		out.CodeTables = make([]CodeTable, len(d.CodeTables))
		for i := range d.CodeTables {
			out.CodeTables[i] = d.CodeTables[i].Clone()
		}
	}
	return out
}

// Subset returns a deep-copied dataset holding the given rows, in order
func (d *Dataset) Subset(indices []int) *Dataset {
	out := &Dataset{
		Features:     make([][]float64, len(indices)),
		Labels:       make([]int, len(indices)),
		FeatureNames: append([]string(nil), d.FeatureNames...),
		AgeMin:       d.AgeMin,
		AgeMax:       d.AgeMax,
		CodeTables:   d.CodeTables,
	}
	for i, idx := range indices {
		out.Features[i] = append([]float64(nil), d.Features[idx]...)
		out.Labels[i] = d.Labels[idx]
	}
	return out
}

// CountLabels returns the number of 0 and 1 labels
func CountLabels(labels []int) (negatives, positives int) {
	for _, l := range labels {
		if l == 1 {
			positives++
		} else {
			negatives++
		}
	}
	return negatives, positives
}

// HasBothClasses reports whether labels contain at least one 0 and one 1
func HasBothClasses(labels []int) bool {
	neg, pos := CountLabels(labels)
	return neg > 0 && pos > 0
}
