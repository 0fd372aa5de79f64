// Package claims holds the raw insurance-claim record consumed by the
// feature pipeline.
package claims

import (
	"fmt"
	"strings"
)

// Record is one validated insurance claim as produced by a loader.
type Record struct {
	Month               string `json:"month"`
	AccidentArea        string `json:"accident_area"`
	Sex                 string `json:"sex"`
	Age                 int    `json:"age"`
	Fault               string `json:"fault"`
	PolicyType          string `json:"policy_type"`
	VehiclePrice        string `json:"vehicle_price"`
	FraudFound          int    `json:"fraud_found"`
	Make                string `json:"make"`
	Deductible          string `json:"deductible"`
	DaysPolicyClaim     string `json:"days_policy_claim"`
	PastNumberOfClaims  string `json:"past_number_of_claims"`
	AgeOfVehicle        string `json:"age_of_vehicle"`
	PoliceReportFiled   string `json:"police_report_filed"`
	WitnessPresent      string `json:"witness_present"`
	AgentType           string `json:"agent_type"`
	NumberOfSupplements string `json:"number_of_supplements"`
	AddressChangeClaim  string `json:"address_change_claim"`
}

// Bounds checked by Validate. They are wider than the pipeline's cleaning
// bounds: the loader rejects impossible ages, the encoder repairs implausible ones.
const (
	MinRecordAge = 0
	MaxRecordAge = 100
)

// Validate enforces the single-record invariants a loader must guarantee.
func (r Record) Validate() error {
	if r.Age < MinRecordAge || r.Age > MaxRecordAge {
		return fmt.Errorf("age must be between %d and %d, got %d", MinRecordAge, MaxRecordAge, r.Age)
	}
	if r.FraudFound != 0 && r.FraudFound != 1 {
		return fmt.Errorf("fraud label must be 0 or 1, got %d", r.FraudFound)
	}
	return nil
}

// HasRequiredFields reports whether the identifying categorical fields are present.
func (r Record) HasRequiredFields() bool {
	for _, v := range []string{r.Make, r.AccidentArea, r.Sex, r.PolicyType} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// IsFraudulent reports whether the record is labelled as fraud.
func (r Record) IsFraudulent() bool {
	return r.FraudFound == 1
}

func (r Record) String() string {
	return fmt.Sprintf("Record [Make: %s, Age: %d, Fraud: %d, AccidentArea: %s]", r.Make, r.Age, r.FraudFound, r.AccidentArea)
}

// NominalColumn names one of the one-hot encoded fields.
type NominalColumn string

const (
	ColumnMake                NominalColumn = "Make"
	ColumnMonth               NominalColumn = "Month"
	ColumnPolicyType          NominalColumn = "PolicyType"
	ColumnAgeOfVehicle        NominalColumn = "AgeOfVehicle"
	ColumnDeductible          NominalColumn = "Deductible"
	ColumnDaysPolicyClaim     NominalColumn = "DaysPolicyClaim"
	ColumnPastNumberOfClaims  NominalColumn = "PastNumberOfClaims"
	ColumnNumberOfSupplements NominalColumn = "NumberOfSupplements"
	ColumnAddressChangeClaim  NominalColumn = "AddressChangeClaim"
)

// NominalColumns lists the one-hot encoded fields in feature order.
var NominalColumns = []NominalColumn{
	ColumnMake,
	ColumnMonth,
	ColumnPolicyType,
	ColumnAgeOfVehicle,
	ColumnDeductible,
	ColumnDaysPolicyClaim,
	ColumnPastNumberOfClaims,
	ColumnNumberOfSupplements,
	ColumnAddressChangeClaim,
}

// Value returns the record's raw string for a nominal column.
func (r Record) Value(col NominalColumn) string {
	switch col {
	case ColumnMake:
		return r.Make
	case ColumnMonth:
		return r.Month
	case ColumnPolicyType:
		return r.PolicyType
	case ColumnAgeOfVehicle:
		return r.AgeOfVehicle
	case ColumnDeductible:
		return r.Deductible
	case ColumnDaysPolicyClaim:
		return r.DaysPolicyClaim
	case ColumnPastNumberOfClaims:
		return r.PastNumberOfClaims
	case ColumnNumberOfSupplements:
		return r.NumberOfSupplements
	case ColumnAddressChangeClaim:
		return r.AddressChangeClaim
	}
	return ""
}

// Labels extracts the fraud labels in record order.
func Labels(records []Record) []int {
	labels := make([]int, len(records))
	for i, r := range records {
		labels[i] = r.FraudFound
	}
	return labels
}
