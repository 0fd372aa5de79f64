package dataset

import (
	"gonum.org/v1/gonum/floats"
)

// Column returns a copy of column j
func Column(rows [][]float64, j int) []float64 {
	col := make([]float64, len(rows))
	for i, row := range rows {
		col[i] = row[j]
	}
	return col
}

// CopyRows deep copies a row-major matrix
func CopyRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// ConstantColumns returns the indices of columns whose values are identical
// across every row. A matrix without rows has no constant columns.
func ConstantColumns(rows [][]float64) []int {
	if len(rows) == 0 {
		return nil
	}
	var constant []int
	for j := range rows[0] {
		col := Column(rows, j)
		if floats.Max(col) == floats.Min(col) {
			constant = append(constant, j)
		}
	}
	return constant
}

// KeepColumns returns the complement of drop within [0, width), ascending
func KeepColumns(width int, drop []int) []int {
	dropped := make(map[int]bool, len(drop))
	for _, j := range drop {
		dropped[j] = true
	}
	keep := make([]int, 0, width-len(dropped))
	for j := 0; j < width; j++ {
		if !dropped[j] {
			keep = append(keep, j)
		}
	}
	return keep
}

// SelectColumns builds new rows holding only the keep columns, in order
func SelectColumns(rows [][]float64, keep []int) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		r := make([]float64, len(keep))
		for k, j := range keep {
			r[k] = row[j]
		}
		out[i] = r
	}
	return out
}

// SelectNames returns the names at the keep indices
func SelectNames(names []string, keep []int) []string {
	out := make([]string, len(keep))
	for k, j := range keep {
		out[k] = names[j]
	}
	return out
}
