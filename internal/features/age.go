package features

import "claimsift/domain/claims"

// Ages outside [MinPlausibleAge, MaxPlausibleAge] are replaced by ReplacementAge
const (
	MinPlausibleAge = 16
	MaxPlausibleAge = 100
	ReplacementAge  = 40
)

// CleanAges returns copies of records with implausible ages replaced, and how
// many were replaced. The input is not modified.
func CleanAges(records []claims.Record) ([]claims.Record, int) {
	out := make([]claims.Record, len(records))
	fixed := 0
	for i, r := range records {
		if r.Age < MinPlausibleAge || r.Age > MaxPlausibleAge {
			r.Age = ReplacementAge
			fixed++
		}
		out[i] = r
	}
	return out, fixed
}

// NormalizeAge rescales age into [0,1] for the range [min,max]. A degenerate
// range yields 0.
func NormalizeAge(age, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return (age - min) / (max - min)
}

// DenormalizeAge inverts NormalizeAge
func DenormalizeAge(v, min, max float64) float64 {
	return v*(max-min) + min
}
