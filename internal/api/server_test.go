package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pricewatch/config"
	"pricewatch/internal/binance/memorystore"
	"pricewatch/internal/binance/snapshot"
	"pricewatch/internal/binance/symbols"
	"pricewatch/pkg/binance"

	"go.uber.org/zap"
)

type fakeStatus struct {
	state     binance.State
	baselines int
	next      time.Time
}

func (f fakeStatus) FeedState() binance.State { return f.state }
func (f fakeStatus) Baselines() int           { return f.baselines }
func (f fakeStatus) NextOpen() time.Time      { return f.next }

// testSource publishes one snapshot: BTC opened at 60000 now at 61500, ETH
// seen for the first time at 3000 with no baseline.
func testSource(t *testing.T) *snapshot.Publisher {
	t.Helper()
	current := memorystore.NewPriceStore()
	open := memorystore.NewPriceStore()
	open.Set("BTCUSDT", 60000)
	current.Set("BTCUSDT", 61500)
	current.Set("ETHUSDT", 3000)

	pub := snapshot.NewPublisher()
	snapshot.NewComputer(symbols.Default(), current.ReadOnly(), open.ReadOnly(), pub, zap.NewNop()).Compute(time.Now())
	return pub
}

func testServer(source SnapshotSource, status StatusSource) *Server {
	return NewServer(config.ServerConfig{Addr: ":0"}, source, status, zap.NewNop())
}

func do(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

// go test -v --run TestGetPrices
func TestGetPrices(t *testing.T) {
	srv := testServer(testSource(t), nil)
	rec := do(t, srv, "/api/prices")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(headerSnapshotVersion) != "1" {
		t.Errorf("expected snapshot version header 1, got %q", rec.Header().Get(headerSnapshotVersion))
	}

	var body map[string]map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("expected 2 symbols, got %v", body)
	}

	btc := body["BTCUSDT"]
	if btc["name"] != "BTC" || btc["open_price"] != 60000.0 || btc["current_price"] != 61500.0 ||
		btc["change_percent"] != 2.5 || btc["is_up"] != true {
		t.Errorf("unexpected BTC: %v", btc)
	}

	eth := body["ETHUSDT"]
	if eth["open_price"] != eth["current_price"] || eth["change_percent"] != 0.0 || eth["is_up"] != true {
		t.Errorf("unexpected ETH: %v", eth)
	}

	if _, ok := body["SOLUSDT"]; ok {
		t.Error("unseen symbol must be a missing key, not a null entry")
	}
}

// go test -v --run TestGetPricesBeforeFirstSnapshot
func TestGetPricesBeforeFirstSnapshot(t *testing.T) {
	srv := testServer(snapshot.NewPublisher(), nil)
	rec := do(t, srv, "/api/prices")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "{}" {
		t.Errorf("expected empty object, got %s", got)
	}
}

// go test -v --run TestGetPrice
func TestGetPrice(t *testing.T) {
	srv := testServer(testSource(t), nil)

	rec := do(t, srv, "/api/prices/btcusdt")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got snapshot.PriceRecord
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ChangePercent != 2.5 || !got.IsUp {
		t.Errorf("unexpected record: %+v", got)
	}

	rec = do(t, srv, "/api/prices/SOLUSDT")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unseen symbol, got %d", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil || errResp.Message == "" {
		t.Errorf("expected error body, got %v (%v)", errResp, err)
	}
}

// go test -v --run TestHealth
func TestHealth(t *testing.T) {
	next := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	status := fakeStatus{state: binance.StateConnected, baselines: 1, next: next}

	rec := do(t, testServer(snapshot.NewPublisher(), status), "/healthz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before first snapshot, got %d", rec.Code)
	}

	rec = do(t, testServer(testSource(t), status), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Feed != "connected" || resp.Records != 2 || resp.Baselines != 1 {
		t.Errorf("unexpected health: %+v", resp)
	}
	if resp.NextOpen == nil || !resp.NextOpen.Equal(next) {
		t.Errorf("unexpected next open: %v", resp.NextOpen)
	}
}

// go test -v --run TestIndex
func TestIndex(t *testing.T) {
	rec := do(t, testServer(snapshot.NewPublisher(), nil), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/prices") {
		t.Error("dashboard must poll the prices endpoint")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type: %s", ct)
	}
}

// go test -v --run TestCORS
func TestCORS(t *testing.T) {
	srv := testServer(testSource(t), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/prices", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard CORS header, got %q", got)
	}
}
