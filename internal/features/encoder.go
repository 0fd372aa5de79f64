// Package features turns claim records into the numeric matrix used for
// model selection: cleaning, binary flags, one-hot blocks, constant-column
// pruning and age normalization, in that order.
package features

import (
	"fmt"
	"strings"

	"claimsift/domain/claims"
	"claimsift/domain/dataset"
	"claimsift/internal"
	"claimsift/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DerivedColumn is an extra feature computed from a record. Derived columns
// follow the one-hot blocks and are pruned like any other column.
type DerivedColumn struct {
	Name  string
	Value func(claims.Record) float64
}

// Encoder fits feature encodings to claim corpora
type Encoder struct {
	faultMatch FaultMatchMode
	derived    []DerivedColumn
	logger     *internal.Logger
}

// Option configures an Encoder
type Option func(*Encoder)

// WithFaultMatch selects the Fault comparison mode
func WithFaultMatch(mode FaultMatchMode) Option {
	return func(e *Encoder) { e.faultMatch = mode }
}

// WithDerivedColumn appends a computed column after the one-hot blocks
func WithDerivedColumn(name string, value func(claims.Record) float64) Option {
	return func(e *Encoder) {
		e.derived = append(e.derived, DerivedColumn{Name: name, Value: value})
	}
}

// WithLogger sets the logger; nil selects the default logger
func WithLogger(logger *internal.Logger) Option {
	return func(e *Encoder) { e.logger = logger }
}

// NewEncoder creates an encoder using trimmed Fault matching by default
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{faultMatch: FaultMatchTrimmed}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = internal.OrDefault(e.logger)
	return e
}

// Encoding is the frozen result of fitting: code tables, the kept-column
// mask and the age range. It can encode further records identically.
type Encoding struct {
	CodeTables      []dataset.CodeTable
	RawNames        []string
	Kept            []int
	RemovedFeatures []string
	FixedAges       int
	AgeMin          float64
	AgeMax          float64
	AgeScaled       bool

	faultMatch FaultMatchMode
	derived    []DerivedColumn
	ageIndex   int
	logger     *internal.Logger
}

// Encode fits on records and returns their encoded dataset
func (e *Encoder) Encode(records []claims.Record) (*dataset.Dataset, error) {
	_, ds, err := e.Fit(records)
	return ds, err
}

// Fit learns the encoding from records and returns it together with the
// encoded records.
func (e *Encoder) Fit(records []claims.Record) (*Encoding, *dataset.Dataset, error) {
	if len(records) == 0 {
		return nil, nil, errors.EmptyInput("no records to encode")
	}

	cleaned, fixed := CleanAges(records)
	e.logger.Info("Cleaned data: fixed %d invalid ages", fixed)

	enc := &Encoding{
		FixedAges:  fixed,
		faultMatch: e.faultMatch,
		derived:    e.derived,
		ageIndex:   -1,
		logger:     e.logger,
	}

	for _, col := range claims.NominalColumns {
		values := make([]string, len(cleaned))
		for i, r := range cleaned {
			values[i] = r.Value(col)
		}
		enc.CodeTables = append(enc.CodeTables, dataset.BuildCodeTable(string(col), values))
	}
	enc.RawNames = enc.rawNames()

	raw := enc.rawRows(cleaned)
	e.logger.Debug("Encoded %d records into %d raw features", len(raw), len(enc.RawNames))

	constant := dataset.ConstantColumns(raw)
	enc.Kept = dataset.KeepColumns(len(enc.RawNames), constant)
	enc.RemovedFeatures = dataset.SelectNames(enc.RawNames, constant)
	if len(constant) > 0 {
		e.logger.Info("Removing %d constant features: %s", len(constant), strings.Join(enc.RemovedFeatures, ", "))
	}

	rows := dataset.SelectColumns(raw, enc.Kept)
	names := dataset.SelectNames(enc.RawNames, enc.Kept)
	enc.fitAge(rows, names)
	enc.scaleAge(rows)

	ds := &dataset.Dataset{
		Features:     rows,
		Labels:       claims.Labels(cleaned),
		FeatureNames: names,
		AgeMin:       enc.AgeMin,
		AgeMax:       enc.AgeMax,
		CodeTables:   enc.CodeTables,
	}
	if err := ds.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "encoded dataset is inconsistent")
	}

	e.logger.Info("Final dataset: %d samples, %d features", ds.RowCount(), ds.ColumnCount())
	return enc, ds, nil
}

// Transform encodes records with the frozen parameters. Categorical values
// unseen during fitting encode as an all-zero block.
func (enc *Encoding) Transform(records []claims.Record) (*dataset.Dataset, error) {
	cleaned, fixed := CleanAges(records)
	if fixed > 0 {
		enc.logger.Debug("Transform fixed %d invalid ages", fixed)
	}

	rows := dataset.SelectColumns(enc.rawRows(cleaned), enc.Kept)
	enc.scaleAge(rows)

	ds := &dataset.Dataset{
		Features:     rows,
		Labels:       claims.Labels(cleaned),
		FeatureNames: enc.FeatureNames(),
		AgeMin:       enc.AgeMin,
		AgeMax:       enc.AgeMax,
		CodeTables:   enc.CodeTables,
	}
	return ds, ds.Validate()
}

// FeatureNames returns the names of the kept columns
func (enc *Encoding) FeatureNames() []string {
	return dataset.SelectNames(enc.RawNames, enc.Kept)
}

func (enc *Encoding) rawNames() []string {
	names := append([]string(nil), FlagNames...)
	names = append(names, AgeFeature)
	for _, t := range enc.CodeTables {
		for code := 0; code < t.Size(); code++ {
			names = append(names, fmt.Sprintf("%s_%d", t.Column, code))
		}
	}
	for _, d := range enc.derived {
		names = append(names, d.Name)
	}
	return names
}

func (enc *Encoding) rawRows(records []claims.Record) [][]float64 {
	width := len(enc.RawNames)
	rows := make([][]float64, len(records))
	for i, r := range records {
		row := make([]float64, 0, width)
		row = append(row, BinaryFlags(r, enc.faultMatch)...)
		row = append(row, float64(r.Age))
		for k, col := range claims.NominalColumns {
			block := make([]float64, enc.CodeTables[k].Size())
			if code, ok := enc.CodeTables[k].Code(r.Value(col)); ok {
				block[code] = 1
			}
			row = append(row, block...)
		}
		for _, d := range enc.derived {
			row = append(row, d.Value(r))
		}
		rows[i] = row
	}
	return rows
}

// fitAge locates the Age column among the kept names and records its range
func (enc *Encoding) fitAge(rows [][]float64, names []string) {
	enc.ageIndex = -1
	for i, n := range names {
		if strings.EqualFold(n, AgeFeature) {
			enc.ageIndex = i
			break
		}
	}
	if enc.ageIndex < 0 {
		enc.logger.Info("Age feature not found, skipping normalization")
		return
	}

	col := dataset.Column(rows, enc.ageIndex)
	enc.AgeMin = floats.Min(col)
	enc.AgeMax = floats.Max(col)
	enc.AgeScaled = enc.AgeMax > enc.AgeMin

	mean, variance := stat.MeanVariance(col, nil)
	enc.logger.Info("Age normalized: min=%.2f, max=%.2f, range=%.2f", enc.AgeMin, enc.AgeMax, enc.AgeMax-enc.AgeMin)
	enc.logger.Debug("Age mean=%.2f variance=%.2f", mean, variance)
}

func (enc *Encoding) scaleAge(rows [][]float64) {
	if !enc.AgeScaled || enc.ageIndex < 0 {
		return
	}
	for _, row := range rows {
		row[enc.ageIndex] = NormalizeAge(row[enc.ageIndex], enc.AgeMin, enc.AgeMax)
	}
}
