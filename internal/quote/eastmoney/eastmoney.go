// Package eastmoney resolves codes against the Eastmoney full-market
// snapshot table (paged clist endpoint). Heavier than the Sina endpoint
// but independent of it, which makes it the fallback of choice.
package eastmoney

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fengyix/stockmon/internal/core"
	"github.com/fengyix/stockmon/internal/quote"
	"github.com/tidwall/gjson"
)

const defaultListURL = "https://82.push2.eastmoney.com/api/qt/clist/get"

// Snapshot fields: f2 price, f5 volume, f6 amount, f10 volume ratio,
// f12 code, f14 name, f15 high, f16 low, f17 open, f18 previous close
const listFields = "f2,f5,f6,f10,f12,f14,f15,f16,f17,f18"

// fs selector covering the Shanghai and Shenzhen boards
const listMarkets = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23"

const pageSize = 500

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Eastmoney implements the snapshot-table quote backend
type Eastmoney struct {
	listURL string
	client  *http.Client
}

// New creates a new Eastmoney backend
func New() *Eastmoney {
	return NewWithURL(defaultListURL)
}

// NewWithURL creates an Eastmoney backend against a custom list endpoint.
func NewWithURL(listURL string) *Eastmoney {
	return &Eastmoney{
		listURL: listURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (e *Eastmoney) Name() string {
	return "eastmoney"
}

type row struct {
	code        string
	name        string
	price       float64
	open        float64
	prevClose   float64
	high        float64
	low         float64
	volume      int64
	amount      float64
	volumeRatio float64
}

// FetchQuote resolves a single code against the snapshot table.
func (e *Eastmoney) FetchQuote(ctx context.Context, code string) (*core.Quote, error) {
	entries := e.FetchBatch(ctx, []string{code})
	if len(entries) == 0 {
		return nil, core.WrapError(core.ErrSourceFailed, fmt.Errorf("eastmoney: no entry for %s", code))
	}
	return entries[0].Quote, entries[0].Err
}

// FetchBatch pulls the snapshot table once and matches every requested
// code against it: exact `{code}.{suffix}` key first, then a prefix match
// on the bare code.
func (e *Eastmoney) FetchBatch(ctx context.Context, codes []string) []quote.Entry {
	entries := make([]quote.Entry, len(codes))
	for i, code := range codes {
		entries[i].Code = code
	}
	if len(codes) == 0 {
		return entries
	}

	rows, byKey, err := e.snapshot(ctx)
	if err != nil {
		for i := range entries {
			entries[i].Err = err
		}
		return entries
	}

	now := time.Now()
	for i, code := range codes {
		r, ok := byKey[code+"."+string(quote.SuffixFor(code))]
		if !ok {
			r, ok = matchPrefix(rows, code)
		}
		if !ok {
			entries[i].Err = core.WrapError(core.ErrNoMatch,
				fmt.Errorf("eastmoney: no snapshot row for %s", code))
			continue
		}
		entries[i].Quote = &core.Quote{
			Code:        code,
			Name:        r.name,
			Price:       r.price,
			Open:        r.open,
			PrevClose:   r.prevClose,
			High:        r.high,
			Low:         r.low,
			Volume:      r.volume,
			Amount:      r.amount,
			VolumeRatio: r.volumeRatio,
			Source:      "eastmoney",
			FetchedAt:   now,
		}
	}
	return entries
}

func matchPrefix(rows []row, code string) (row, bool) {
	for _, r := range rows {
		if strings.HasPrefix(r.code, code) {
			return r, true
		}
	}
	return row{}, false
}

// snapshot pages through the full-market list endpoint.
func (e *Eastmoney) snapshot(ctx context.Context) ([]row, map[string]row, error) {
	var rows []row
	byKey := make(map[string]row)

	page := 1
	for {
		url := fmt.Sprintf("%s?pn=%d&pz=%d&fltt=2&fs=%s&fields=%s",
			e.listURL, page, pageSize, listMarkets, listFields)

		body, err := e.get(ctx, url)
		if err != nil {
			return nil, nil, err
		}

		total, count := parsePage(body, &rows)
		if count == 0 {
			break
		}
		if total <= len(rows) || count < pageSize {
			break
		}
		page++
	}

	if len(rows) == 0 {
		return nil, nil, core.WrapError(core.ErrEmptyPayload,
			fmt.Errorf("eastmoney: snapshot table is empty"))
	}
	for _, r := range rows {
		byKey[r.code+"."+string(quote.SuffixFor(r.code))] = r
	}
	return rows, byKey, nil
}

func (e *Eastmoney) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrSourceFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://quote.eastmoney.com/")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrSourceFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrHTTPStatus,
			fmt.Errorf("eastmoney: status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.WrapError(core.ErrSourceFailed, err)
	}
	return body, nil
}

// parsePage extracts data.total and the data.diff rows. diff is usually an
// array but some mirrors serve it as an object keyed "0","1",...
func parsePage(body []byte, rows *[]row) (total, count int) {
	total = int(gjson.GetBytes(body, "data.total").Int())

	diff := gjson.GetBytes(body, "data.diff")
	if !diff.Exists() {
		return total, 0
	}

	start := len(*rows)
	diff.ForEach(func(_, v gjson.Result) bool {
		code := strings.TrimSpace(v.Get("f12").String())
		if code == "" {
			return true
		}
		*rows = append(*rows, row{
			code:        code,
			name:        strings.TrimSpace(v.Get("f14").String()),
			price:       v.Get("f2").Float(),
			volume:      v.Get("f5").Int(),
			amount:      v.Get("f6").Float(),
			volumeRatio: v.Get("f10").Float(),
			high:        v.Get("f15").Float(),
			low:         v.Get("f16").Float(),
			open:        v.Get("f17").Float(),
			prevClose:   v.Get("f18").Float(),
		})
		return true
	})
	return total, len(*rows) - start
}
