package data

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"dca-backtest/internal/model"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// chartJSON renders a minimal chart response. A nil close is written as null.
func chartJSON(times []time.Time, closes []*float64) string {
	ts := make([]string, len(times))
	cs := make([]string, len(closes))
	for i, t := range times {
		ts[i] = fmt.Sprint(t.Unix())
	}
	for i, c := range closes {
		if c == nil {
			cs[i] = "null"
		} else {
			cs[i] = fmt.Sprint(*c)
		}
	}
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":"X","currency":"USD"},"timestamp":[%s],`+
		`"indicators":{"quote":[{"close":[%s]}],"adjclose":[{"adjclose":[%s]}]}}],"error":null}}`,
		strings.Join(ts, ","), strings.Join(cs, ","), strings.Join(cs, ","))
}

func f(v float64) *float64 { return &v }

func testYahoo(urls ...string) *YahooClient {
	return &YahooClient{
		BaseURLs: urls,
		Client:   http.DefaultClient,
		Now:      func() time.Time { return month(2024, 1) },
	}
}

func TestYahooMonthlyPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/SPY" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("interval"); got != "1mo" {
			t.Errorf("interval = %s, want 1mo", got)
		}
		times := []time.Time{month(2020, 1), month(2020, 2), month(2020, 3), month(2020, 4)}
		fmt.Fprint(w, chartJSON(times, []*float64{f(100), f(101.5), nil, f(99)}))
	}))
	defer srv.Close()

	got, err := testYahoo(srv.URL).MonthlyPrices(context.Background(), "SPY", month(2020, 1))
	if err != nil {
		t.Fatalf("MonthlyPrices() error = %v", err)
	}
	// the null March close is forward-filled
	want := []float64{100, 101.5, 101.5, 99}
	if len(got) != len(want) {
		t.Fatalf("MonthlyPrices() = %d months, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Value != w {
			t.Errorf("month %d = %v, want %v", i, got[i].Value, w)
		}
	}
}

func TestYahooMonthlyPrices_DailyFallback(t *testing.T) {
	var daily atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("interval") {
		case "1mo":
			fmt.Fprint(w, chartJSON([]time.Time{month(2020, 1)}, []*float64{f(1)}))
		case "1d":
			daily.Add(1)
			times := []time.Time{
				time.Date(2020, 1, 2, 14, 30, 0, 0, time.UTC),
				time.Date(2020, 1, 31, 14, 30, 0, 0, time.UTC),
				time.Date(2020, 2, 3, 14, 30, 0, 0, time.UTC),
				time.Date(2020, 2, 28, 14, 30, 0, 0, time.UTC),
				time.Date(2020, 3, 2, 14, 30, 0, 0, time.UTC),
			}
			fmt.Fprint(w, chartJSON(times, []*float64{f(10), f(11), f(12), f(13), f(14)}))
		}
	}))
	defer srv.Close()

	got, err := testYahoo(srv.URL).MonthlyPrices(context.Background(), "NEW", month(2020, 1))
	if err != nil {
		t.Fatalf("MonthlyPrices() error = %v", err)
	}
	if daily.Load() != 1 {
		t.Fatalf("daily requests = %d, want 1", daily.Load())
	}
	want := []float64{11, 13, 14}
	if len(got) != len(want) {
		t.Fatalf("MonthlyPrices() = %d months, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Value != w {
			t.Errorf("month %d = %v, want %v", i, got[i].Value, w)
		}
	}
}

func TestYahooMonthlyPrices_NotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	c := testYahoo(srv.URL)
	c.Backoffs = []time.Duration{0, 0}
	_, err := c.MonthlyPrices(context.Background(), "NOPE", month(2020, 1))
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Fatalf("MonthlyPrices() error = %v, want ErrDataUnavailable", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retry on missing ticker)", calls.Load())
	}
}

func TestYahooMonthlyPrices_RotatesHosts(t *testing.T) {
	limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "Edge: Too Many Requests")
	}))
	defer limited.Close()
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		times := []time.Time{month(2020, 1), month(2020, 2), month(2020, 3)}
		fmt.Fprint(w, chartJSON(times, []*float64{f(1), f(2), f(3)}))
	}))
	defer ok.Close()

	got, err := testYahoo(limited.URL, ok.URL).MonthlyPrices(context.Background(), "SPY", month(2020, 1))
	if err != nil {
		t.Fatalf("MonthlyPrices() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("MonthlyPrices() = %d months, want 3", len(got))
	}
}

func TestYahooMonthlyPrices_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testYahoo(srv.URL, srv.URL)
	c.Backoffs = []time.Duration{0, 0}
	_, err := c.MonthlyPrices(context.Background(), "SPY", month(2020, 1))
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusInternalServerError {
		t.Fatalf("MonthlyPrices() error = %v, want 500 ProviderError", err)
	}
	if errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("server errors must not read as missing data")
	}
	if calls.Load() != 6 {
		t.Errorf("calls = %d, want 6 (3 attempts x 2 hosts)", calls.Load())
	}
}

func TestYahooMonthlyPrices_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := testYahoo(srv.URL)
	c.Backoffs = []time.Duration{time.Hour}
	if _, err := c.MonthlyPrices(ctx, "SPY", month(2020, 1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("MonthlyPrices() error = %v, want context.Canceled", err)
	}
}
