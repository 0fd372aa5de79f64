// Package feed reads claim records from a paged JSON HTTP endpoint.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"claimsift/adapters/excel"
	"claimsift/domain/claims"
	"claimsift/internal"
	"claimsift/internal/errors"
	"claimsift/ports"

	"github.com/tidwall/gjson"
)

// Defaults for a Reader built without options
const (
	DefaultDataPath = "claims"
	DefaultPageSize = 500
	DefaultMaxPages = 100
	DefaultTimeout  = 30 * time.Second
)

// cursorFields are checked in order for the next-page cursor
var cursorFields = []string{"next_cursor", "cursor", "next"}

// Reader pages through a JSON claim feed. Each page is an object whose
// DataPath holds an array of claim objects keyed by the claim file headers.
// Paging follows a next_cursor when the page has one and falls back to
// offset/limit otherwise.
type Reader struct {
	baseURL  string
	dataPath string
	pageSize int
	maxPages int
	token    string
	client   *http.Client
	logger   *internal.Logger
}

// Option configures a Reader
type Option func(*Reader)

// WithDataPath sets the gjson path of the record array; "" means the page is the array
func WithDataPath(path string) Option {
	return func(r *Reader) { r.dataPath = path }
}

// WithPageSize sets the limit sent with each request
func WithPageSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithMaxPages caps the number of requests
func WithMaxPages(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxPages = n
		}
	}
}

// WithToken sends a bearer token
func WithToken(token string) Option {
	return func(r *Reader) { r.token = token }
}

// WithHTTPClient replaces the default client
func WithHTTPClient(client *http.Client) Option {
	return func(r *Reader) { r.client = client }
}

// WithLogger sets the logger; nil selects the default logger
func WithLogger(logger *internal.Logger) Option {
	return func(r *Reader) { r.logger = logger }
}

// NewReader creates a feed reader for baseURL
func NewReader(baseURL string, opts ...Option) *Reader {
	r := &Reader{
		baseURL:  baseURL,
		dataPath: DefaultDataPath,
		pageSize: DefaultPageSize,
		maxPages: DefaultMaxPages,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = internal.OrDefault(r.logger)
	return r
}

// IsFeedURL reports whether source names an http(s) feed rather than a file
func IsFeedURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

var _ ports.RecordReader = (*Reader)(nil)

// ReadRecords fetches pages until one comes back short without a cursor, or
// the page cap is reached. Record filtering matches the file loader: bad
// integers read as 0, and records failing validation are skipped and counted.
func (r *Reader) ReadRecords(ctx context.Context) ([]claims.Record, ports.LoadStats, error) {
	stats := ports.LoadStats{Source: r.baseURL}
	start := time.Now()

	var records []claims.Record
	cursor := ""
	for page := 0; page < r.maxPages; page++ {
		body, err := r.fetch(ctx, r.pageURL(page, cursor))
		if err != nil {
			return nil, stats, err
		}

		items, err := r.items(body)
		if err != nil {
			return nil, stats, err
		}
		for _, item := range items {
			stats.Rows++
			rec := record(item)
			if rec.Validate() != nil || !rec.HasRequiredFields() {
				r.logger.Trace("skipping feed record %d", stats.Rows)
				stats.Skipped++
				continue
			}
			records = append(records, rec)
		}

		cursor = nextCursor(body)
		if cursor == "" && len(items) < r.pageSize {
			break
		}
		if page == r.maxPages-1 {
			r.logger.Warn("Claim feed stopped after %d pages; more records may be available", r.maxPages)
		}
	}
	stats.Loaded = len(records)

	r.logger.Info("Total records processed: %d", stats.Rows)
	r.logger.Info("Valid records loaded: %d", stats.Loaded)
	r.logger.Info("Skipped invalid records: %d", stats.Skipped)
	r.logger.Debug("[FeedReader] %s loaded in %v", stats.Source, time.Since(start))
	return records, stats, nil
}

func (r *Reader) pageURL(page int, cursor string) string {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return r.baseURL
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(r.pageSize))
	if cursor != "" {
		q.Set("cursor", cursor)
		q.Del("offset")
	} else {
		q.Set("offset", strconv.Itoa(page*r.pageSize))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (r *Reader) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid claim feed URL %q: %v", pageURL, err))
	}
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrap(err, "claim feed request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read claim feed response")
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NotFound("claim feed " + r.baseURL)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Newf(errors.CodeInternalError, "claim feed returned status %d", resp.StatusCode)
	}
	return body, nil
}

func (r *Reader) items(body []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.InvalidInput("claim feed returned invalid JSON")
	}
	data := gjson.ParseBytes(body)
	if r.dataPath != "" {
		data = data.Get(r.dataPath)
	}
	if !data.Exists() {
		return nil, errors.InvalidInput(fmt.Sprintf("data path %q not found in claim feed response", r.dataPath))
	}
	if !data.IsArray() {
		return nil, errors.InvalidInput(fmt.Sprintf("data path %q is not an array", r.dataPath))
	}
	return data.Array(), nil
}

func nextCursor(body []byte) string {
	for _, field := range cursorFields {
		if c := gjson.GetBytes(body, field); c.Exists() && c.String() != "" {
			return c.String()
		}
	}
	return ""
}

func text(item gjson.Result, key string) string {
	return strings.TrimSpace(item.Get(gjson.Escape(key)).String())
}

func integer(item gjson.Result, key string) int {
	v := item.Get(gjson.Escape(key))
	if v.Type == gjson.Number {
		return int(v.Int())
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.String()))
	if err != nil {
		return 0
	}
	return n
}

func record(item gjson.Result) claims.Record {
	return claims.Record{
		Month:               text(item, excel.HeaderMonth),
		AccidentArea:        text(item, excel.HeaderAccidentArea),
		Sex:                 text(item, excel.HeaderSex),
		Age:                 integer(item, excel.HeaderAge),
		Fault:               text(item, excel.HeaderFault),
		PolicyType:          text(item, excel.HeaderPolicyType),
		VehiclePrice:        text(item, excel.HeaderVehiclePrice),
		FraudFound:          integer(item, excel.HeaderFraudFound),
		Make:                text(item, excel.HeaderMake),
		Deductible:          text(item, excel.HeaderDeductible),
		DaysPolicyClaim:     text(item, excel.HeaderDaysPolicyClaim),
		PastNumberOfClaims:  text(item, excel.HeaderPastNumberOfClaims),
		AgeOfVehicle:        text(item, excel.HeaderAgeOfVehicle),
		PoliceReportFiled:   text(item, excel.HeaderPoliceReportFiled),
		WitnessPresent:      text(item, excel.HeaderWitnessPresent),
		AgentType:           text(item, excel.HeaderAgentType),
		NumberOfSupplements: text(item, excel.HeaderNumberOfSupplements),
		AddressChangeClaim:  text(item, excel.HeaderAddressChangeClaim),
	}
}
