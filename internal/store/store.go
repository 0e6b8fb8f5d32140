package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"BasketWatch/internal/model"
)

// Store is the persistent price cache: ticker -> date -> closing price.
// It is loaded once at startup and mutated only by the update
// orchestrator; analytics read through SeriesFor while a pass runs.
type Store struct {
	mu     sync.RWMutex
	path   string
	prices map[string]map[string]float64
}

// Open loads the price cache from path. A missing or unreadable file
// yields an empty store; corruption must never prevent startup.
func Open(path string) *Store {
	s := &Store{path: path, prices: make(map[string]map[string]float64)}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] read price cache %s: %v, starting empty", path, err)
		}
		return s
	}
	if err := json.Unmarshal(data, &s.prices); err != nil {
		log.Printf("[WARN] parse price cache %s: %v, starting empty", path, err)
		s.prices = make(map[string]map[string]float64)
	}
	return s
}

// Merge unions newPrices into the ticker's series. Existing dates are
// overwritten with the new value; dates absent from newPrices are
// untouched.
func (s *Store) Merge(ticker string, newPrices map[string]float64) {
	if len(newPrices) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	series, ok := s.prices[ticker]
	if !ok {
		series = make(map[string]float64, len(newPrices))
		s.prices[ticker] = series
	}
	for date, price := range newPrices {
		series[date] = price
	}
}

// Save writes the whole store to disk. It writes a temp file in the
// same directory and renames it over the target, so a crash mid-write
// leaves the previous file intact.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.Marshal(s.prices)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode price cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".price_cache-*")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace price cache: %w", err)
	}
	return nil
}

// SeriesFor returns the ticker's price points sorted by date ascending,
// or an empty slice if the ticker is absent.
func (s *Store) SeriesFor(ticker string) []model.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.prices[ticker]
	if !ok {
		return nil
	}
	points := make([]model.PricePoint, 0, len(series))
	for date, price := range series {
		points = append(points, model.PricePoint{Date: date, Close: price})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// LatestDate returns the most recent cached date for the ticker, or
// false if the ticker has no cached prices.
func (s *Store) LatestDate(ticker string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.prices[ticker]
	if !ok || len(series) == 0 {
		return "", false
	}
	var latest string
	for date := range series {
		if date > latest {
			latest = date
		}
	}
	return latest, true
}

// Tickers returns all cached ticker symbols.
func (s *Store) Tickers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickers := make([]string, 0, len(s.prices))
	for t := range s.prices {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}
