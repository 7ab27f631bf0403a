package sina

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fengyix/stockmon/internal/core"
	"github.com/fengyix/stockmon/internal/quote"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// gbk re-encodes a UTF-8 payload the way the live endpoint serves it.
func gbk(t *testing.T, s string) []byte {
	t.Helper()
	out, _, err := transform.Bytes(simplifiedchinese.GBK.NewEncoder(), []byte(s))
	if err != nil {
		t.Fatalf("gbk encode: %v", err)
	}
	return out
}

const record600000 = `var hq_str_sh600000="浦发银行,10.600,10.550,10.750,10.900,10.400,10.740,10.750,12345600,132547890.000,100,10.740,200,10.730,300,10.720,400,10.710,500,10.700,100,10.750,200,10.760,300,10.770,400,10.780,500,10.790,2026-08-28,15:00:00,00";`

func newServer(t *testing.T, body []byte, status int) (*httptest.Server, *Sina) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Referer"); got != "http://finance.sina.com.cn" {
			t.Errorf("referer = %q", got)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, NewWithEndpoint(srv.URL)
}

func TestFetchQuote(t *testing.T) {
	_, s := newServer(t, gbk(t, record600000), http.StatusOK)

	q, err := s.FetchQuote(context.Background(), "600000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Name != "浦发银行" {
		t.Errorf("name = %q, want 浦发银行", q.Name)
	}
	if q.Price != 10.75 {
		t.Errorf("price = %v, want 10.75", q.Price)
	}
	if q.Open != 10.6 || q.PrevClose != 10.55 || q.High != 10.9 || q.Low != 10.4 {
		t.Errorf("ohlc = %v/%v/%v/%v", q.Open, q.PrevClose, q.High, q.Low)
	}
	if q.Volume != 12345600 {
		t.Errorf("volume = %d, want 12345600", q.Volume)
	}
	if q.Date != "2026-08-28" || q.Time != "15:00:00" {
		t.Errorf("date/time = %q/%q", q.Date, q.Time)
	}
	if q.Source != "sina" {
		t.Errorf("source = %q, want sina", q.Source)
	}
}

func TestFetchBatchOrderAndPartialFailure(t *testing.T) {
	body := record600000 + "\n" + `var hq_str_sz000001="";` + "\n"
	_, s := newServer(t, gbk(t, body), http.StatusOK)

	entries := s.FetchBatch(context.Background(), []string{"600000", "000001"})
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Err != nil || entries[0].Quote.Code != "600000" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if !errors.Is(entries[1].Err, core.ErrEmptyPayload) {
		t.Errorf("entry 1 err = %v, want EMPTY_PAYLOAD", entries[1].Err)
	}
}

func TestFetchBatchRequestsSuffixedKeys(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write(gbk(t, record600000+"\n"+`var hq_str_sz000001="";`))
	}))
	defer srv.Close()

	s := NewWithEndpoint(srv.URL)
	s.FetchBatch(context.Background(), []string{"600000", "000001"})

	if !strings.Contains(gotPath, "list=sh600000,sz000001") {
		t.Errorf("request path = %q, want suffixed list", gotPath)
	}
}

func TestFetchQuotePriceFallback(t *testing.T) {
	// A suspended stock serves a non-numeric current price; the open
	// stands in for it.
	body := `var hq_str_sh600000="浦发银行,10.600,10.550,--,0.000,0.000";`
	_, s := newServer(t, gbk(t, body), http.StatusOK)

	q, err := s.FetchQuote(context.Background(), "600000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Price != 10.6 {
		t.Errorf("price = %v, want open fallback 10.6", q.Price)
	}
}

func TestFetchQuoteMalformedRecord(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *core.Error
	}{
		{"empty quoted body", `var hq_str_sh600000="";`, core.ErrEmptyPayload},
		{"no delimiter", `var hq_str_sh600000`, core.ErrEmptyPayload},
		{"single field", `var hq_str_sh600000="junk";`, core.ErrParseFailed},
		{"no numeric price", `var hq_str_sh600000="a,b,c,d";`, core.ErrParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, s := newServer(t, gbk(t, tt.body), http.StatusOK)
			_, err := s.FetchQuote(context.Background(), "600000")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFetchQuoteHTTPError(t *testing.T) {
	_, s := newServer(t, nil, http.StatusForbidden)

	_, err := s.FetchQuote(context.Background(), "600000")
	if !errors.Is(err, core.ErrHTTPStatus) {
		t.Fatalf("error = %v, want HTTP_STATUS", err)
	}
}

func TestFetchQuoteContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	s := NewWithEndpoint(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.FetchQuote(ctx, "600000")
	if err == nil {
		t.Fatal("expected an error after context timeout")
	}
}

var _ quote.BatchSource = (*Sina)(nil)
