package excel

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"claimsift/domain/claims"
	"claimsift/internal"
	"claimsift/internal/errors"
	"claimsift/ports"
)

// Header names of the columns the loader maps onto claims.Record
const (
	HeaderMonth               = "Month"
	HeaderMake                = "Make"
	HeaderAccidentArea        = "AccidentArea"
	HeaderSex                 = "Sex"
	HeaderAge                 = "Age"
	HeaderFault               = "Fault"
	HeaderPolicyType          = "PolicyType"
	HeaderVehiclePrice        = "VehiclePrice"
	HeaderFraudFound          = "FraudFound_P"
	HeaderDeductible          = "Deductible"
	HeaderDaysPolicyClaim     = "Days_Policy_Claim"
	HeaderPastNumberOfClaims  = "PastNumberOfClaims"
	HeaderAgeOfVehicle        = "AgeOfVehicle"
	HeaderPoliceReportFiled   = "PoliceReportFiled"
	HeaderWitnessPresent      = "WitnessPresent"
	HeaderAgentType           = "AgentType"
	HeaderNumberOfSupplements = "NumberOfSuppliments"
	HeaderAddressChangeClaim  = "AddressChange_Claim"
)

// RequiredHeaders must all be present in a claims file
var RequiredHeaders = []string{
	HeaderMonth, HeaderMake, HeaderAccidentArea, HeaderSex, HeaderAge, HeaderFault,
	HeaderPolicyType, HeaderVehiclePrice, HeaderFraudFound, HeaderDeductible,
	HeaderDaysPolicyClaim, HeaderPastNumberOfClaims, HeaderAgeOfVehicle,
	HeaderPoliceReportFiled, HeaderWitnessPresent, HeaderAgentType,
	HeaderNumberOfSupplements, HeaderAddressChangeClaim,
}

// ClaimReader loads claim records from a CSV or XLSX file
type ClaimReader struct {
	reader *DataReader
	logger *internal.Logger
}

// NewClaimReader creates a reader for path; nil logger selects the default logger
func NewClaimReader(path string, logger *internal.Logger) *ClaimReader {
	logger = internal.OrDefault(logger)
	return &ClaimReader{reader: NewDataReader(path, logger), logger: logger}
}

var _ ports.RecordReader = (*ClaimReader)(nil)

// ReadRecords reads every data row. Unparseable integers read as 0. Rows
// that fail record validation or lack Make, AccidentArea, Sex or PolicyType
// are skipped and counted.
func (c *ClaimReader) ReadRecords(ctx context.Context) ([]claims.Record, ports.LoadStats, error) {
	stats := ports.LoadStats{Source: c.reader.filePath}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	start := time.Now()
	sheet, err := c.reader.ReadData()
	if err != nil {
		return nil, stats, err
	}
	cols, err := locateColumns(sheet.Headers)
	if err != nil {
		return nil, stats, err
	}

	records := make([]claims.Record, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
		stats.Rows++

		rec := cols.record(row)
		if err := rec.Validate(); err != nil {
			c.logger.Trace("skipping row %d: %v", i+2, err)
			stats.Skipped++
			continue
		}
		if !rec.HasRequiredFields() {
			c.logger.Trace("skipping row %d: missing required field", i+2)
			stats.Skipped++
			continue
		}
		records = append(records, rec)
	}
	stats.Loaded = len(records)

	c.logger.Info("Total records processed: %d", stats.Rows)
	c.logger.Info("Valid records loaded: %d", stats.Loaded)
	c.logger.Info("Skipped invalid records: %d", stats.Skipped)
	c.logger.Debug("[ClaimReader] %s loaded in %v", stats.Source, time.Since(start))
	return records, stats, nil
}

type columnIndex map[string]int

func locateColumns(headers []string) (columnIndex, error) {
	cols := make(columnIndex, len(RequiredHeaders))
	for i, h := range headers {
		if _, seen := cols[h]; !seen {
			cols[h] = i
		}
	}
	var missing []string
	for _, h := range RequiredHeaders {
		if _, ok := cols[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("claims file is missing columns: %s", strings.Join(missing, ", ")))
	}
	return cols, nil
}

// cell returns "" for cells past the end of a short row
func (cols columnIndex) cell(row []string, header string) string {
	if i := cols[header]; i < len(row) {
		return row[i]
	}
	return ""
}

func (cols columnIndex) int(row []string, header string) int {
	v, err := strconv.Atoi(cols.cell(row, header))
	if err != nil {
		return 0
	}
	return v
}

func (cols columnIndex) record(row []string) claims.Record {
	return claims.Record{
		Month:               cols.cell(row, HeaderMonth),
		AccidentArea:        cols.cell(row, HeaderAccidentArea),
		Sex:                 cols.cell(row, HeaderSex),
		Age:                 cols.int(row, HeaderAge),
		Fault:               cols.cell(row, HeaderFault),
		PolicyType:          cols.cell(row, HeaderPolicyType),
		VehiclePrice:        cols.cell(row, HeaderVehiclePrice),
		FraudFound:          cols.int(row, HeaderFraudFound),
		Make:                cols.cell(row, HeaderMake),
		Deductible:          cols.cell(row, HeaderDeductible),
		DaysPolicyClaim:     cols.cell(row, HeaderDaysPolicyClaim),
		PastNumberOfClaims:  cols.cell(row, HeaderPastNumberOfClaims),
		AgeOfVehicle:        cols.cell(row, HeaderAgeOfVehicle),
		PoliceReportFiled:   cols.cell(row, HeaderPoliceReportFiled),
		WitnessPresent:      cols.cell(row, HeaderWitnessPresent),
		AgentType:           cols.cell(row, HeaderAgentType),
		NumberOfSupplements: cols.cell(row, HeaderNumberOfSupplements),
		AddressChangeClaim:  cols.cell(row, HeaderAddressChangeClaim),
	}
}
