// Package testkit provides synthetic claim corpora and fake classifiers for tests.
package testkit

import (
	"bytes"
	"encoding/csv"
	"math/rand"
	"strconv"

	"claimsift/domain/claims"
)

// ClaimsGeneratorConfig configures the synthetic claim generator
type ClaimsGeneratorConfig struct {
	Count     int     `json:"count"`
	FraudRate float64 `json:"fraud_rate"`
	Seed      int64   `json:"seed"`
}

// DefaultClaimsConfig returns a small corpus with a realistic fraud rate
func DefaultClaimsConfig() ClaimsGeneratorConfig {
	return ClaimsGeneratorConfig{
		Count:     200,
		FraudRate: 0.1,
		Seed:      42,
	}
}

var (
	months          = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	makes           = []string{"Honda", "Toyota", "Pontiac", "Mazda", "Chevrolet", "Accura", "VW", "Ford"}
	policyTypes     = []string{"Sport - Liability", "Sedan - Collision", "Sedan - All Perils", "Sedan - Liability", "Utility - All Perils"}
	vehiclePrices   = []string{"more than 69000", "20000 to 29000", "30000 to 39000", "less than 20000", "40000 to 59000"}
	deductibles     = []string{"300", "400", "500", "700"}
	daysPolicyClaim = []string{"more than 30", "15 to 30", "8 to 15"}
	pastClaims      = []string{"none", "1", "2 to 4", "more than 4"}
	vehicleAges     = []string{"3 years", "5 years", "6 years", "7 years", "more than 7", "new"}
	supplements     = []string{"none", "1 to 2", "3 to 5", "more than 5"}
	addressChanges  = []string{"no change", "1 year", "2 to 3 years", "4 to 8 years", "under 6 months"}
)

// ClaimsGenerator produces deterministic claim records with a learnable
// fraud signal: fraudulent claims lean towards third-party fault, all-perils
// policies and recent address changes.
type ClaimsGenerator struct {
	config ClaimsGeneratorConfig
	rng    *rand.Rand
}

// NewClaimsGenerator creates a new claims generator
func NewClaimsGenerator(config ClaimsGeneratorConfig) *ClaimsGenerator {
	return &ClaimsGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns Count records of which round(Count*FraudRate) are fraud
func (g *ClaimsGenerator) Generate() []claims.Record {
	n := g.config.Count
	frauds := int(float64(n)*g.config.FraudRate + 0.5)
	isFraud := make([]bool, n)
	for _, i := range g.rng.Perm(n)[:frauds] {
		isFraud[i] = true
	}

	records := make([]claims.Record, n)
	for i := range records {
		records[i] = g.record(isFraud[i])
	}
	return records
}

func (g *ClaimsGenerator) record(fraud bool) claims.Record {
	r := claims.Record{
		Month:               g.pick(months),
		AccidentArea:        g.choose(0.9, "Urban", "Rural"),
		Sex:                 g.choose(0.85, "Male", "Female"),
		Age:                 18 + g.rng.Intn(63),
		Fault:               g.choose(0.72, "Policy Holder", "Third Party"),
		PolicyType:          g.pick(policyTypes),
		VehiclePrice:        g.pick(vehiclePrices),
		Make:                g.pick(makes),
		Deductible:          g.pick(deductibles),
		DaysPolicyClaim:     g.pick(daysPolicyClaim),
		PastNumberOfClaims:  g.pick(pastClaims),
		AgeOfVehicle:        g.pick(vehicleAges),
		PoliceReportFiled:   g.choose(0.03, "Yes", "No"),
		WitnessPresent:      g.choose(0.01, "Yes", "No"),
		AgentType:           g.choose(0.02, "Internal", "External"),
		NumberOfSupplements: g.pick(supplements),
		AddressChangeClaim:  g.choose(0.9, "no change", g.pick(addressChanges[1:])),
	}

	// A sprinkling of out-of-range ages exercises cleaning.
	if g.rng.Float64() < 0.02 {
		r.Age = 0
	}

	if fraud {
		r.FraudFound = 1
		r.Fault = g.choose(0.9, "Third Party", "Policy Holder")
		r.PolicyType = g.choose(0.7, "Sedan - All Perils", "Utility - All Perils")
		r.AddressChangeClaim = g.choose(0.5, "under 6 months", r.AddressChangeClaim)
	}
	return r
}

func (g *ClaimsGenerator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

func (g *ClaimsGenerator) choose(p float64, a, b string) string {
	if g.rng.Float64() < p {
		return a
	}
	return b
}

// ClaimHeader is the column layout of the public fraud dataset
var ClaimHeader = []string{
	"Month", "WeekOfMonth", "DayOfWeek", "Make", "AccidentArea", "DayOfWeekClaimed",
	"MonthClaimed", "WeekOfMonthClaimed", "Sex", "MaritalStatus", "Age", "Fault",
	"PolicyType", "VehicleCategory", "VehiclePrice", "FraudFound_P", "PolicyNumber",
	"RepNumber", "Deductible", "DriverRating", "Days_Policy_Accident", "Days_Policy_Claim",
	"PastNumberOfClaims", "AgeOfVehicle", "AgeOfPolicyHolder", "PoliceReportFiled",
	"WitnessPresent", "AgentType", "NumberOfSuppliments", "AddressChange_Claim",
	"NumberOfCars", "Year", "BasePolicy",
}

// ClaimRow lays r out in ClaimHeader order; unused columns get fixed filler
func ClaimRow(r claims.Record, index int) []string {
	return []string{
		r.Month, "1", "Monday", r.Make, r.AccidentArea, "Tuesday",
		r.Month, "2", r.Sex, "Single", strconv.Itoa(r.Age), r.Fault,
		r.PolicyType, "Sedan", r.VehiclePrice, strconv.Itoa(r.FraudFound), strconv.Itoa(index + 1),
		"7", r.Deductible, "1", "more than 30", r.DaysPolicyClaim,
		r.PastNumberOfClaims, r.AgeOfVehicle, "31 to 35", r.PoliceReportFiled,
		r.WitnessPresent, r.AgentType, r.NumberOfSupplements, r.AddressChangeClaim,
		"1 vehicle", "1994", "Liability",
	}
}

// ClaimsCSV renders records as a CSV document with ClaimHeader
func ClaimsCSV(records []claims.Record) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(ClaimHeader)
	for i, r := range records {
		_ = w.Write(ClaimRow(r, i))
	}
	w.Flush()
	return buf.Bytes()
}
