package api

import (
	"embed"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pricewatch/internal/binance/snapshot"
	"pricewatch/internal/binance/symbols"
	"pricewatch/pkg/binance"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const headerSnapshotVersion = "X-Snapshot-Version"

//go:embed web/index.html
var webFS embed.FS

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status          string    `json:"status"` // "ok" or "starting"
	Feed            string    `json:"feed"`
	SnapshotVersion uint64    `json:"snapshot_version"`
	SnapshotAge     string    `json:"snapshot_age,omitempty"`
	Records         int       `json:"records"`
	Baselines       int       `json:"baselines"`
	NextOpen        *time.Time `json:"next_open,omitempty"`
}

// handlePrices handles GET /api/prices. Symbols not yet seen on the feed are
// absent from the object.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Latest()
	if snap == nil {
		s.writeJSON(w, http.StatusOK, map[string]snapshot.PriceRecord{})
		return
	}

	out := make(map[string]snapshot.PriceRecord, snap.Len())
	for sym, rec := range snap.Records() {
		out[string(sym)] = rec
	}
	w.Header().Set(headerSnapshotVersion, strconv.FormatUint(snap.Version(), 10))
	s.writeJSON(w, http.StatusOK, out)
}

// handlePrice handles GET /api/prices/{symbol}.
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	symbol := symbols.Symbol(strings.ToUpper(chi.URLParam(r, "symbol")))

	snap := s.source.Latest()
	if snap == nil {
		s.writeError(w, http.StatusNotFound, "no price data yet for symbol: "+string(symbol))
		return
	}
	rec, ok := snap.Get(symbol)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no price data for symbol: "+string(symbol))
		return
	}
	w.Header().Set(headerSnapshotVersion, strconv.FormatUint(snap.Version(), 10))
	s.writeJSON(w, http.StatusOK, rec)
}

// handleHealth handles GET /healthz. It is 503 until the first snapshot.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "starting", Feed: binance.StateDisconnected.String()}
	if s.status != nil {
		resp.Feed = s.status.FeedState().String()
		resp.Baselines = s.status.Baselines()
		if next := s.status.NextOpen(); !next.IsZero() {
			resp.NextOpen = &next
		}
	}

	code := http.StatusServiceUnavailable
	if snap := s.source.Latest(); snap != nil {
		resp.Status = "ok"
		resp.SnapshotVersion = snap.Version()
		resp.SnapshotAge = s.now().Sub(snap.ComputedAt()).Round(time.Millisecond).String()
		resp.Records = snap.Len()
		code = http.StatusOK
	}
	s.writeJSON(w, code, resp)
}

// handleIndex serves the dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "dashboard unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: msg,
	})
}
