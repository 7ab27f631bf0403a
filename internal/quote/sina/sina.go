// Package sina fetches real-time A-share quotes from the Sina Finance
// hq endpoint. The payload is one quoted, comma-separated record per code,
// served in GBK.
package sina

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fengyix/stockmon/internal/core"
	"github.com/fengyix/stockmon/internal/quote"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const defaultEndpoint = "http://hq.sinajs.cn"

// Fixed headers the endpoint requires; requests without the referer are
// rejected.
const (
	referer   = "http://finance.sina.com.cn"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Record field indexes, 0-based. The current price at index 3 falls back
// to the open at index 1 when non-numeric.
const (
	fieldName      = 0
	fieldOpen      = 1
	fieldPrevClose = 2
	fieldPrice     = 3
	fieldHigh      = 4
	fieldLow       = 5
	fieldVolume    = 8
	fieldAmount    = 9
	fieldDate      = 30
	fieldTime      = 31
)

// Sina implements the lightweight HTTP quote backend
type Sina struct {
	endpoint string
	client   *http.Client
}

// New creates a new Sina backend
func New() *Sina {
	return NewWithEndpoint(defaultEndpoint)
}

// NewWithEndpoint creates a Sina backend against a custom endpoint.
func NewWithEndpoint(endpoint string) *Sina {
	return &Sina{
		endpoint: strings.TrimRight(endpoint, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Sina) Name() string {
	return "sina"
}

// FetchQuote resolves a single code.
func (s *Sina) FetchQuote(ctx context.Context, code string) (*core.Quote, error) {
	entries := s.FetchBatch(ctx, []string{code})
	if len(entries) == 0 {
		return nil, core.WrapError(core.ErrSourceFailed, fmt.Errorf("sina: no entry for %s", code))
	}
	return entries[0].Quote, entries[0].Err
}

// FetchBatch resolves several codes in one request. Entries come back in
// request order; a malformed record fails only its own code.
func (s *Sina) FetchBatch(ctx context.Context, codes []string) []quote.Entry {
	entries := make([]quote.Entry, len(codes))
	for i, code := range codes {
		entries[i].Code = code
	}
	if len(codes) == 0 {
		return entries
	}

	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = string(quote.SuffixFor(code)) + code
	}
	url := fmt.Sprintf("%s/list=%s", s.endpoint, strings.Join(keys, ","))

	body, err := s.get(ctx, url)
	if err != nil {
		for i := range entries {
			entries[i].Err = err
		}
		return entries
	}

	// One quoted record per requested code, concatenated in request order.
	records := splitRecords(body)
	now := time.Now()
	for i, code := range codes {
		if i >= len(records) {
			entries[i].Err = core.WrapError(core.ErrEmptyPayload,
				fmt.Errorf("sina: no record for %s", code))
			continue
		}
		q, err := parseRecord(code, records[i], now)
		entries[i].Quote = q
		entries[i].Err = err
	}
	return entries
}

func (s *Sina) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", core.WrapError(core.ErrSourceFailed, err)
	}
	req.Header.Set("Referer", referer)
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", core.WrapError(core.ErrSourceFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", core.WrapError(core.ErrHTTPStatus, fmt.Errorf("sina: status %d", resp.StatusCode))
	}

	// Payload is served in the legacy GBK encoding.
	decoded, err := io.ReadAll(transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return "", core.WrapError(core.ErrSourceFailed, err)
	}
	return string(decoded), nil
}

// splitRecords extracts the quoted payload of each `var hq_str_X="...";`
// statement, preserving order. Statements without the ="..." delimiter pair
// yield an empty string so the per-code parser reports them individually.
func splitRecords(body string) []string {
	var records []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		open := strings.Index(line, `="`)
		if open < 0 {
			records = append(records, "")
			continue
		}
		payload := line[open+2:]
		if end := strings.LastIndex(payload, `"`); end >= 0 {
			payload = payload[:end]
		}
		records = append(records, payload)
	}
	return records
}

func parseRecord(code, payload string, now time.Time) (*core.Quote, error) {
	if payload == "" {
		return nil, core.WrapError(core.ErrEmptyPayload,
			fmt.Errorf("sina: empty record for %s", code))
	}
	fields := strings.Split(payload, ",")
	if len(fields) < 2 {
		return nil, core.WrapError(core.ErrParseFailed,
			fmt.Errorf("sina: record for %s has %d fields", code, len(fields)))
	}

	price, err := numericField(fields, fieldPrice)
	if err != nil {
		price, err = numericField(fields, fieldOpen)
		if err != nil {
			return nil, core.WrapError(core.ErrParseFailed,
				fmt.Errorf("sina: no numeric price for %s", code))
		}
	}

	q := &core.Quote{
		Code:      code,
		Name:      fields[fieldName],
		Price:     price,
		Source:    "sina",
		FetchedAt: now,
	}
	if v, err := numericField(fields, fieldOpen); err == nil {
		q.Open = v
	}
	if v, err := numericField(fields, fieldPrevClose); err == nil {
		q.PrevClose = v
	}
	if v, err := numericField(fields, fieldHigh); err == nil {
		q.High = v
	}
	if v, err := numericField(fields, fieldLow); err == nil {
		q.Low = v
	}
	if v, err := numericField(fields, fieldVolume); err == nil {
		q.Volume = int64(v)
	}
	if v, err := numericField(fields, fieldAmount); err == nil {
		q.Amount = v
	}
	if len(fields) > fieldTime {
		q.Date = fields[fieldDate]
		q.Time = fields[fieldTime]
	}
	return q, nil
}

func numericField(fields []string, idx int) (float64, error) {
	if idx >= len(fields) {
		return 0, fmt.Errorf("field %d out of range", idx)
	}
	return strconv.ParseFloat(strings.TrimSpace(fields[idx]), 64)
}
