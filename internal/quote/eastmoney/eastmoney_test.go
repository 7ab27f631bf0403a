package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/fengyix/stockmon/internal/core"
	"github.com/fengyix/stockmon/internal/quote"
)

const snapshotPage = `{
	"data": {
		"total": 2,
		"diff": [
			{"f2": 10.75, "f5": 12345600, "f6": 132547890.0, "f10": 1.23,
			 "f12": "600000", "f14": "浦发银行", "f15": 10.9, "f16": 10.4,
			 "f17": 10.6, "f18": 10.55},
			{"f2": 12.5, "f5": 900100, "f6": 11200000.0, "f10": 0.8,
			 "f12": "000001", "f14": "平安银行", "f15": 12.6, "f16": 11.9,
			 "f17": 12.0, "f18": 12.4}
		]
	}
}`

func newServer(t *testing.T, body string) *Eastmoney {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewWithURL(srv.URL)
}

func TestFetchQuote(t *testing.T) {
	e := newServer(t, snapshotPage)

	q, err := e.FetchQuote(context.Background(), "600000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Name != "浦发银行" {
		t.Errorf("name = %q, want 浦发银行", q.Name)
	}
	if q.Price != 10.75 || q.Open != 10.6 || q.PrevClose != 10.55 {
		t.Errorf("price/open/prevClose = %v/%v/%v", q.Price, q.Open, q.PrevClose)
	}
	if q.VolumeRatio != 1.23 {
		t.Errorf("volume ratio = %v, want 1.23", q.VolumeRatio)
	}
	if q.Source != "eastmoney" {
		t.Errorf("source = %q, want eastmoney", q.Source)
	}
}

func TestFetchBatchMatching(t *testing.T) {
	e := newServer(t, snapshotPage)

	entries := e.FetchBatch(context.Background(), []string{"000001", "600000", "999999"})
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Err != nil || entries[0].Quote.Name != "平安银行" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Err != nil || entries[1].Quote.Name != "浦发银行" {
		t.Errorf("entry 1 = %+v", entries[1])
	}
	if !errors.Is(entries[2].Err, core.ErrNoMatch) {
		t.Errorf("entry 2 err = %v, want NO_MATCH", entries[2].Err)
	}
}

func TestFetchBatchObjectDiff(t *testing.T) {
	// Some mirrors serve diff as an object keyed by row index.
	body := `{"data": {"total": 1, "diff": {"0": {"f2": 10.75, "f12": "600000", "f14": "浦发银行"}}}}`
	e := newServer(t, body)

	entries := e.FetchBatch(context.Background(), []string{"600000"})
	if entries[0].Err != nil || entries[0].Quote.Price != 10.75 {
		t.Errorf("entry = %+v, want price 10.75", entries[0])
	}
}

func TestSnapshotPaging(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pn := r.URL.Query().Get("pn")
		pages = append(pages, pn)
		page, _ := strconv.Atoi(pn)

		// Two full pages then a short one.
		total := 2*pageSize + 1
		count := pageSize
		if page == 3 {
			count = 1
		}
		fmt.Fprintf(w, `{"data": {"total": %d, "diff": [`, total)
		for i := 0; i < count; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"f2": 1.0, "f12": "%06d", "f14": "x"}`, (page-1)*pageSize+i)
		}
		fmt.Fprint(w, `]}}`)
	}))
	defer srv.Close()

	e := NewWithURL(srv.URL)
	entries := e.FetchBatch(context.Background(), []string{"000000"})
	if entries[0].Err != nil {
		t.Fatalf("unexpected error: %v", entries[0].Err)
	}
	if len(pages) != 3 {
		t.Errorf("fetched pages %v, want 3 requests", pages)
	}
}

func TestFetchBatchEmptyTable(t *testing.T) {
	e := newServer(t, `{"data": {"total": 0, "diff": []}}`)

	entries := e.FetchBatch(context.Background(), []string{"600000"})
	if !errors.Is(entries[0].Err, core.ErrEmptyPayload) {
		t.Errorf("err = %v, want EMPTY_PAYLOAD", entries[0].Err)
	}
}

func TestFetchBatchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := NewWithURL(srv.URL)
	entries := e.FetchBatch(context.Background(), []string{"600000"})
	if !errors.Is(entries[0].Err, core.ErrHTTPStatus) {
		t.Errorf("err = %v, want HTTP_STATUS", entries[0].Err)
	}
}

var _ quote.BatchSource = (*Eastmoney)(nil)
