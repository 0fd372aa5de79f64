package features

import (
	"strings"

	"claimsift/domain/claims"
)

// FaultMatchMode selects how the Fault field is compared for Fault_PolicyHolder
type FaultMatchMode string

const (
	// FaultMatchTrimmed compares the trimmed, lower-cased value with "policy holder"
	FaultMatchTrimmed FaultMatchMode = "trimmed"
	// FaultMatchLegacy compares the lower-cased value with the padded literal
	// " policy holder ". Loaded values are trimmed, so the flag is always 0 and
	// the column is pruned as constant.
	FaultMatchLegacy FaultMatchMode = "legacy"
)

const legacyFaultLiteral = " policy holder "

// FlagNames are the binary columns, in feature order
var FlagNames = []string{
	"AccidentArea_Urban",
	"Sex_Male",
	"Fault_PolicyHolder",
	"PoliceReportFiled_Yes",
	"WitnessPresent_Yes",
	"AgentType_Internal",
	"VehiclePrice_NormalRange",
}

// AgeFeature is the name of the numeric age column
const AgeFeature = "Age"

// BinaryFlags encodes the seven yes/no style fields of r as 1.0/0.0
func BinaryFlags(r claims.Record, mode FaultMatchMode) []float64 {
	return []float64{
		flag(equalFold(r.AccidentArea, "urban")),
		flag(equalFold(r.Sex, "male")),
		flag(faultIsPolicyHolder(r.Fault, mode)),
		flag(equalFold(r.PoliceReportFiled, "yes")),
		flag(equalFold(r.WitnessPresent, "yes")),
		flag(equalFold(r.AgentType, "internal")),
		flag(isNormalPriceBand(r.VehiclePrice)),
	}
}

func faultIsPolicyHolder(fault string, mode FaultMatchMode) bool {
	if mode == FaultMatchLegacy {
		return strings.ToLower(fault) == legacyFaultLiteral
	}
	return strings.ToLower(strings.TrimSpace(fault)) == "policy holder"
}

// isNormalPriceBand is true for the two extreme price bands; the column name
// is kept from the historical feature set.
func isNormalPriceBand(price string) bool {
	switch strings.ToLower(strings.TrimSpace(price)) {
	case "less than 20000", "more than 69000":
		return true
	}
	return false
}

func equalFold(v, want string) bool {
	return strings.ToLower(v) == want
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
