package coingecko

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

	"CoinSentry/internal/domain/models"
	xlogger "CoinSentry/pkg/logger"
)

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func chartJSON(n int, basePrice float64) string {
	prices := make([]string, 0, n)
	volumes := make([]string, 0, n)
	ts := time.Now().Add(-7*24*time.Hour).UnixMilli()
	for i := 0; i < n; i++ {
		prices = append(prices, fmt.Sprintf("[%d,%.2f]", ts, basePrice+float64(i)))
		volumes = append(volumes, fmt.Sprintf("[%d,%.2f]", ts, 1e9+float64(i)*1e6))
		ts += 3600_000
	}
	return fmt.Sprintf(`{"prices":[%s],"total_volumes":[%s]}`,
		strings.Join(prices, ","), strings.Join(volumes, ","))
}

func geckoTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/simple/price":
			if r.URL.Query().Get("ids") != "bitcoin" {
				http.Error(w, "unknown coin", http.StatusNotFound)
				return
			}
			fmt.Fprint(w, `{"bitcoin":{"usd":50000,"usd_24h_change":-2.1,"usd_24h_vol":1800000000}}`)
		case strings.HasPrefix(r.URL.Path, "/coins/bitcoin/market_chart"):
			fmt.Fprint(w, chartJSON(168, 49000))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchNormalizesSnapshot(t *testing.T) {
	srv := geckoTestServer(t)
	defer srv.Close()

	c := New(srv.URL, 2*time.Second, testLogger(t))
	snap, err := c.Fetch(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if snap.Provider != models.ProviderCoinGecko {
		t.Fatalf("provider %s, want coingecko", snap.Provider)
	}
	if snap.Price != 50000 {
		t.Fatalf("price %v, want 50000", snap.Price)
	}
	if snap.Change24h != -2.1 {
		t.Fatalf("change %v, want -2.1", snap.Change24h)
	}
	if snap.High7d <= snap.Low7d {
		t.Fatalf("weekly range degenerate: high=%v low=%v", snap.High7d, snap.Low7d)
	}
	if snap.Support >= snap.Resistance {
		t.Fatalf("levels inverted: support=%v resistance=%v", snap.Support, snap.Resistance)
	}
}

func TestFetchUnsupportedSymbolNoNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second, testLogger(t))
	_, err := c.Fetch(context.Background(), "SHIB")

	var aerr *models.AdapterError
	if !errors.As(err, &aerr) || aerr.Kind != models.AdapterUnsupported {
		t.Fatalf("got %v, want unsupported adapter error", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("server hit %d times for unsupported symbol", hits)
	}
}

func TestFetchClassifiesRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second, testLogger(t))
	_, err := c.Fetch(context.Background(), "BTC")

	var aerr *models.AdapterError
	if !errors.As(err, &aerr) {
		t.Fatalf("got %v, want AdapterError", err)
	}
	if aerr.Kind != models.AdapterRateLimited {
		t.Fatalf("kind %s, want rate_limited", aerr.Kind)
	}
}

func TestFetchSendsAPIKeyHeader(t *testing.T) {
	var sawKey atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(apiKeyHeader) == "demo-key" {
			sawKey.Store(true)
		}
		switch {
		case r.URL.Path == "/simple/price":
			fmt.Fprint(w, `{"bitcoin":{"usd":50000,"usd_24h_change":0,"usd_24h_vol":0}}`)
		default:
			fmt.Fprint(w, chartJSON(10, 49000))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second, testLogger(t), WithAPIKey("demo-key"))
	if _, err := c.Fetch(context.Background(), "BTC"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !sawKey.Load() {
		t.Fatal("api key header not sent")
	}
}

func TestFetchMissingPriceData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/simple/price":
			fmt.Fprint(w, `{}`)
		default:
			fmt.Fprint(w, chartJSON(10, 49000))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second, testLogger(t))
	_, err := c.Fetch(context.Background(), "BTC")
	if err == nil {
		t.Fatal("expected error for empty price payload")
	}
}
