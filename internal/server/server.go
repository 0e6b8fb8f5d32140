package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"time"

	"BasketWatch/internal/analytics"
	"BasketWatch/internal/model"
	"BasketWatch/internal/recorder"
	"BasketWatch/internal/store"
	"BasketWatch/internal/updater"
)

// Server exposes the portfolio core over a small JSON API. Handlers
// hold no logic beyond request/response shaping.
type Server struct {
	Addr      string
	Updater   *updater.Orchestrator
	Analytics *analytics.Engine
	Store     *store.Store
	Recorder  recorder.Recorder
}

func New(addr string, o *updater.Orchestrator, a *analytics.Engine, st *store.Store, rec recorder.Recorder) *Server {
	return &Server{Addr: addr, Updater: o, Analytics: a, Store: st, Recorder: rec}
}

// Handler builds the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/portfolio/summary", s.handleSummary)
	mux.HandleFunc("GET /api/portfolio/positions", s.handlePositions)
	mux.HandleFunc("GET /api/portfolio/charts", s.handleCharts)
	mux.HandleFunc("GET /api/portfolio/series", s.handleSeries)
	mux.HandleFunc("GET /api/portfolio/status", s.handleStatus)
	mux.HandleFunc("POST /api/portfolio/update", s.handleUpdate)
	return mux
}

// ListenAndServe blocks serving the API.
func (s *Server) ListenAndServe() error {
	log.Printf("[INFO] http api listening on %s", s.Addr)
	return http.ListenAndServe(s.Addr, s.Handler())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data}); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"cached_tickers": len(s.Store.Tickers()),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Analytics.Metrics())
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions := s.Analytics.Positions()

	long := make([]model.Position, 0, len(positions))
	short := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		if p.Side == model.SideLong {
			long = append(long, p)
		} else {
			short = append(short, p)
		}
	}
	sort.SliceStable(long, func(i, j int) bool { return long[i].PnL > long[j].PnL })
	sort.SliceStable(short, func(i, j int) bool { return short[i].PnL > short[j].PnL })

	writeJSON(w, http.StatusOK, map[string]any{
		"long":            long,
		"short":           short,
		"total_positions": len(positions),
	})
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Analytics.ChartData())
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker query parameter is required")
		return
	}
	points := s.Store.SeriesFor(ticker)
	writeJSON(w, http.StatusOK, map[string]any{
		"ticker": ticker,
		"prices": points,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Updater.Status())
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ForceRefresh bool `json:"force_refresh"`
	}
	if r.Body != nil {
		// An empty body means a plain refresh.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	start := time.Now()
	result, err := s.Updater.RunPass(req.ForceRefresh, nil)
	if errors.Is(err, updater.ErrUpdateRunning) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	rec := &recorder.PassRecord{
		Trigger:      "API",
		ForceRefresh: req.ForceRefresh,
		Duration:     time.Since(start).Seconds(),
	}
	if err != nil {
		rec.Err = err.Error()
	}
	if result != nil {
		rec.UpdatedCount = len(result.Updated)
		rec.FailedCount = len(result.Failed)
		rec.SkippedCount = len(result.Skipped)
		rec.FailedTickers = result.Failed
	}
	if recErr := s.Recorder.RecordPass(rec); recErr != nil {
		log.Printf("[ERROR] record pass: %v", recErr)
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"updated_count":   len(result.Updated),
		"failed_count":    len(result.Failed),
		"skipped_count":   len(result.Skipped),
		"updated_tickers": result.Updated,
		"failed_tickers":  result.Failed,
	})
}
