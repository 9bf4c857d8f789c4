package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finsignal/emacross/internal/models"
)

const chartBody = `{
  "chart": {
    "result": [{
      "timestamp": [1749900000, 1749900300, 1749900600, 1749900900, 1749901200],
      "indicators": {
        "quote": [{
          "open":  [1.0, 1.1, 1.2, null, 1.4],
          "high":  [1.5, 1.6, 1.7, null, 1.9],
          "low":   [0.9, 1.0, 1.1, null, 1.3],
          "close": [1.05, 1.15, 1.25, null, 1.45]
        }]
      }
    }],
    "error": null
  }
}`

func testClient(url string) *Client {
	return NewClient(url, ClientConfig{
		Timeout:        time.Second,
		MaxRetries:     2,
		RetryDelayBase: time.Millisecond,
	})
}

func TestCandles(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartBody))
	}))
	defer server.Close()

	bars, err := testClient(server.URL).Candles(context.Background(), "EURUSD=X", models.Interval5m)
	if err != nil {
		t.Fatalf("Candles failed: %v", err)
	}

	if gotPath != "/v8/finance/chart/EURUSD=X" {
		t.Errorf("Unexpected path: %s", gotPath)
	}
	if !strings.Contains(gotQuery, "interval=5m") || !strings.Contains(gotQuery, "range=2d") {
		t.Errorf("Unexpected query: %s", gotQuery)
	}

	// The null data point is dropped.
	if len(bars) != 4 {
		t.Fatalf("Expected 4 bars, got %d", len(bars))
	}
	if bars[0].Close != 1.05 || bars[3].Close != 1.45 {
		t.Errorf("Unexpected closes: first=%f last=%f", bars[0].Close, bars[3].Close)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			t.Errorf("Bars not in chronological order at %d", i)
		}
	}
}

func TestCandles_15mRange(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(chartBody))
	}))
	defer server.Close()

	if _, err := testClient(server.URL).Candles(context.Background(), "EURUSD=X", models.Interval15m); err != nil {
		t.Fatalf("Candles failed: %v", err)
	}
	if !strings.Contains(gotQuery, "range=5d") {
		t.Errorf("Expected 5d lookback for 15m interval, got %s", gotQuery)
	}
}

func TestCandles_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Candles(context.Background(), "BOGUS=X", models.Interval5m)
	if err == nil {
		t.Fatal("Expected error for chart API error payload")
	}
	if !strings.Contains(err.Error(), "Not Found") {
		t.Errorf("Error should carry the upstream code: %v", err)
	}
}

func TestCandles_ServerErrorRetriesThenFails(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Candles(context.Background(), "EURUSD=X", models.Interval5m)
	if err == nil {
		t.Fatal("Expected error after retries exhausted")
	}
	if calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls)
	}
}

func TestCandles_ServerErrorThenRecovers(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(chartBody))
	}))
	defer server.Close()

	bars, err := testClient(server.URL).Candles(context.Background(), "EURUSD=X", models.Interval5m)
	if err != nil {
		t.Fatalf("Expected recovery on retry, got %v", err)
	}
	if len(bars) != 4 {
		t.Errorf("Expected 4 bars after retry, got %d", len(bars))
	}
}

func TestCandles_ClientErrorNoRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Candles(context.Background(), "EURUSD=X", models.Interval5m)
	if err == nil {
		t.Fatal("Expected error on 404")
	}
	if calls != 1 {
		t.Errorf("4xx must not be retried, got %d attempts", calls)
	}
}
