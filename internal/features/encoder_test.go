package features

import (
	stderrors "errors"
	"testing"

	"claimsift/domain/claims"
	"claimsift/internal"
	"claimsift/internal/errors"
	"claimsift/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncoder(opts ...Option) *Encoder {
	return NewEncoder(append([]Option{WithLogger(internal.NewDiscardLogger())}, opts...)...)
}

func sampleRecords() []claims.Record {
	base := claims.Record{
		Month: "Jan", AccidentArea: "Urban", Sex: "Male", Age: 30, Fault: "Policy Holder",
		PolicyType: "Sedan - Liability", VehiclePrice: "20000 to 29000", Make: "Honda",
		Deductible: "400", DaysPolicyClaim: "more than 30", PastNumberOfClaims: "none",
		AgeOfVehicle: "7 years", PoliceReportFiled: "No", WitnessPresent: "No",
		AgentType: "External", NumberOfSupplements: "none", AddressChangeClaim: "no change",
	}

	r1 := base
	r2 := base
	r2.Make, r2.Age, r2.Fault, r2.Sex, r2.FraudFound = "Toyota", 50, "Third Party", "Female", 1
	r3 := base
	r3.Make, r3.Age, r3.Month, r3.AccidentArea = "Honda", 10, "Feb", "Rural"
	r4 := base
	r4.Make, r4.Age, r4.FraudFound, r4.VehiclePrice = "Mazda", 70, 1, "less than 20000"
	return []claims.Record{r1, r2, r3, r4}
}

func TestBinaryFlags(t *testing.T) {
	r := claims.Record{
		AccidentArea: "URBAN", Sex: "male", Fault: " Policy Holder ",
		PoliceReportFiled: "Yes", WitnessPresent: "no", AgentType: "Internal",
		VehiclePrice: "  More Than 69000 ",
	}

	assert.Equal(t, []float64{1, 1, 1, 1, 0, 1, 1}, BinaryFlags(r, FaultMatchTrimmed))

	legacy := BinaryFlags(r, FaultMatchLegacy)
	assert.Equal(t, 1.0, legacy[2], "padded lower-case value matches the legacy literal")

	r.Fault = "Policy Holder"
	assert.Equal(t, 0.0, BinaryFlags(r, FaultMatchLegacy)[2])
	assert.Equal(t, 1.0, BinaryFlags(r, FaultMatchTrimmed)[2])
}

func TestBinaryFlags_AreZeroOrOne(t *testing.T) {
	records := testkit.NewClaimsGenerator(testkit.DefaultClaimsConfig()).Generate()
	for _, r := range records {
		for _, mode := range []FaultMatchMode{FaultMatchTrimmed, FaultMatchLegacy} {
			flags := BinaryFlags(r, mode)
			require.Len(t, flags, len(FlagNames))
			for _, f := range flags {
				assert.True(t, f == 0 || f == 1)
			}
		}
	}
}

func TestNormalizeAge_RoundTrip(t *testing.T) {
	for _, age := range []float64{16, 23.5, 40, 99, 100} {
		v := NormalizeAge(age, 16, 100)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		assert.InDelta(t, age, DenormalizeAge(v, 16, 100), 1e-9)
	}
	assert.Zero(t, NormalizeAge(50, 30, 30))
}

func TestCleanAges(t *testing.T) {
	in := []claims.Record{{Age: 15}, {Age: 16}, {Age: 100}, {Age: 0}, {Age: 55}}
	out, fixed := CleanAges(in)

	assert.Equal(t, 2, fixed)
	assert.Equal(t, []int{40, 16, 100, 40, 55}, []int{out[0].Age, out[1].Age, out[2].Age, out[3].Age, out[4].Age})
	assert.Equal(t, 15, in[0].Age, "input must not be modified")
}

func TestEncode_EmptyInput(t *testing.T) {
	_, err := newTestEncoder().Encode(nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrEmptyInput))
}

func TestFit_LayoutAndPruning(t *testing.T) {
	enc, ds, err := newTestEncoder().Fit(sampleRecords())
	require.NoError(t, err)
	require.NoError(t, ds.Validate())

	// 7 flags + Age + distinct values: Make 3, Month 2, every other column 1
	assert.Len(t, enc.RawNames, 8+3+2+7)
	assert.Equal(t, "Make_0", enc.RawNames[8])
	assert.Equal(t, 1, enc.FixedAges)

	for _, name := range []string{"PoliceReportFiled_Yes", "WitnessPresent_Yes", "AgentType_Internal", "PolicyType_0", "Deductible_0"} {
		assert.Contains(t, enc.RemovedFeatures, name)
		assert.NotContains(t, ds.FeatureNames, name)
	}
	assert.Len(t, ds.FeatureNames, len(enc.RawNames)-len(enc.RemovedFeatures))
	assert.Equal(t, []int{0, 1, 0, 1}, ds.Labels)

	// first-seen order: Honda=0, Toyota=1, Mazda=2
	assert.Equal(t, []string{"Honda", "Toyota", "Mazda"}, ds.CodeTables[0].Symbols)
	col, ok := ds.GetColumn("Make_1")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 0, 0}, []float64{ds.Features[0][col], ds.Features[1][col], ds.Features[2][col], ds.Features[3][col]})
}

func TestFit_NormalizesAge(t *testing.T) {
	_, ds, err := newTestEncoder().Fit(sampleRecords())
	require.NoError(t, err)

	// ages after cleaning: 30, 50, 40, 70
	assert.Equal(t, 30.0, ds.AgeMin)
	assert.Equal(t, 70.0, ds.AgeMax)

	age, ok := ds.GetColumnData(AgeFeature)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0, 0.5, 0.25, 1}, age, 1e-12)
	for i, v := range age {
		assert.InDelta(t, []float64{30, 50, 40, 70}[i], DenormalizeAge(v, ds.AgeMin, ds.AgeMax), 1e-9)
	}
}

func TestFit_ConstantAgeIsPrunedNotScaled(t *testing.T) {
	records := sampleRecords()
	for i := range records {
		records[i].Age = 33
	}

	enc, ds, err := newTestEncoder().Fit(records)
	require.NoError(t, err)

	assert.Contains(t, enc.RemovedFeatures, AgeFeature)
	assert.False(t, enc.AgeScaled)
	assert.Zero(t, ds.AgeMin)
	assert.Zero(t, ds.AgeMax)
}

func TestFit_InjectedConstantColumnRemovedOnce(t *testing.T) {
	enc, ds, err := newTestEncoder(
		WithDerivedColumn("Constant", func(claims.Record) float64 { return 7 }),
		WithDerivedColumn("IsOld", func(r claims.Record) float64 {
			if r.Age > 45 {
				return 1
			}
			return 0
		}),
	).Fit(sampleRecords())
	require.NoError(t, err)

	count := 0
	for _, name := range enc.RemovedFeatures {
		if name == "Constant" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.NotContains(t, ds.FeatureNames, "Constant")
	assert.Contains(t, ds.FeatureNames, "IsOld")
	assert.Equal(t, "IsOld", ds.FeatureNames[len(ds.FeatureNames)-1])
}

func TestFit_FaultMatchModes(t *testing.T) {
	_, trimmed, err := newTestEncoder().Fit(sampleRecords())
	require.NoError(t, err)
	assert.Contains(t, trimmed.FeatureNames, "Fault_PolicyHolder")

	enc, legacy, err := newTestEncoder(WithFaultMatch(FaultMatchLegacy)).Fit(sampleRecords())
	require.NoError(t, err)
	assert.NotContains(t, legacy.FeatureNames, "Fault_PolicyHolder")
	assert.Contains(t, enc.RemovedFeatures, "Fault_PolicyHolder")
}

func TestTransform_UsesFrozenEncoding(t *testing.T) {
	records := sampleRecords()
	enc, fitted, err := newTestEncoder().Fit(records[:3])
	require.NoError(t, err)

	unseen := records[3]
	unseen.Make = "Ferrari"
	unseen.Age = 90

	ds, err := enc.Transform([]claims.Record{records[0], unseen})
	require.NoError(t, err)

	assert.Equal(t, fitted.FeatureNames, ds.FeatureNames)
	assert.Equal(t, fitted.Features[0], ds.Features[0])

	for _, name := range []string{"Make_0", "Make_1"} {
		col, ok := ds.GetColumn(name)
		require.True(t, ok)
		assert.Zero(t, ds.Features[1][col], "unseen make encodes as an all-zero block")
	}

	age, _ := ds.GetColumn(AgeFeature)
	assert.InDelta(t, NormalizeAge(90, fitted.AgeMin, fitted.AgeMax), ds.Features[1][age], 1e-12)
}

func TestTransform_EmptyInput(t *testing.T) {
	enc, _, err := newTestEncoder().Fit(sampleRecords())
	require.NoError(t, err)

	ds, err := enc.Transform(nil)
	require.NoError(t, err)
	assert.Zero(t, ds.RowCount())
}
