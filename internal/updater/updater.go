package updater

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"BasketWatch/internal/model"
	"BasketWatch/internal/quote"
	"BasketWatch/internal/store"
)

// ErrUpdateRunning is returned when a pass is requested while another
// one is still in flight. Requests are rejected, never queued.
var ErrUpdateRunning = errors.New("update pass already running")

// FetchWindow selects the date range requested for a ticker that
// already has cached prices but is behind "today".
type FetchWindow string

const (
	// WindowSinceLast refetches from the latest cached date forward.
	// Recovers gaps at the cost of slightly wider requests.
	WindowSinceLast FetchWindow = "since_last"
	// WindowTodayOnly requests only today's bar, minimizing API calls.
	WindowTodayOnly FetchWindow = "today_only"
)

// ProgressFunc is invoked once per ticker before its fetch.
type ProgressFunc func(index, total int, ticker string)

// Orchestrator drives update passes: it decides per ticker whether and
// what to fetch, classifies every ticker as updated, failed or skipped,
// and persists the merged store after each pass. At most one pass runs
// at a time.
type Orchestrator struct {
	store     *store.Store
	fetcher   quote.Fetcher
	universe  []string
	inception string
	window    FetchWindow

	// now is swappable for tests.
	now func() time.Time

	mu      sync.Mutex
	running bool

	statusMu sync.RWMutex
	status   model.RefreshStatus
}

// New creates an Orchestrator over the given universe (long + short +
// benchmark tickers).
func New(s *store.Store, f quote.Fetcher, universe []string, inception string, window FetchWindow) *Orchestrator {
	if window == "" {
		window = WindowSinceLast
	}
	return &Orchestrator{
		store:     s,
		fetcher:   f,
		universe:  universe,
		inception: inception,
		window:    window,
		now:       time.Now,
	}
}

// Status returns a snapshot of the current refresh state. Safe to call
// from any goroutine while a pass runs.
func (o *Orchestrator) Status() model.RefreshStatus {
	o.statusMu.RLock()
	defer o.statusMu.RUnlock()
	return o.status
}

func (o *Orchestrator) setStatus(mutate func(*model.RefreshStatus)) {
	o.statusMu.Lock()
	mutate(&o.status)
	o.statusMu.Unlock()
}

// RunPass sweeps the whole universe once. Per-ticker failures never
// abort the batch; the store is merged and saved even when some tickers
// fail. A save failure is returned as the pass error, after the
// per-ticker classification, because it risks losing fetched data.
func (o *Orchestrator) RunPass(force bool, progress ProgressFunc) (*model.UpdateResult, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrUpdateRunning
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	today := o.now().Format("2006-01-02")
	total := len(o.universe)
	result := &model.UpdateResult{
		Updated: []string{},
		Failed:  []string{},
		Skipped: []string{},
	}

	o.setStatus(func(st *model.RefreshStatus) {
		*st = model.RefreshStatus{
			Running:   true,
			Total:     total,
			Message:   fmt.Sprintf("starting update for %d tickers", total),
			StartedAt: o.now(),
		}
	})
	defer o.setStatus(func(st *model.RefreshStatus) {
		st.Running = false
		st.FinishedAt = o.now()
	})

	log.Printf("[INFO] starting update pass for %d tickers (force=%v)", total, force)

	for idx, ticker := range o.universe {
		if progress != nil {
			progress(idx+1, total, ticker)
		}
		o.setStatus(func(st *model.RefreshStatus) {
			st.Current = idx + 1
			st.Message = fmt.Sprintf("fetching %s (%d/%d)", ticker, idx+1, total)
		})

		from, skip := o.fetchWindow(ticker, today, force)
		if skip {
			result.Skipped = append(result.Skipped, ticker)
			continue
		}

		res := o.safeFetch(ticker, from, today)
		if res.OK() {
			o.store.Merge(ticker, res.Prices)
			result.Updated = append(result.Updated, ticker)
		} else {
			log.Printf("[WARN] update %s failed: %s", ticker, res.Reason)
			result.Failed = append(result.Failed, ticker)
		}
	}

	// Persist whatever was fetched, even on a partially failed pass.
	saveErr := o.store.Save()
	if saveErr != nil {
		saveErr = fmt.Errorf("save price cache: %w", saveErr)
	}

	o.setStatus(func(st *model.RefreshStatus) {
		st.Message = fmt.Sprintf("updated %d, failed %d, skipped %d",
			len(result.Updated), len(result.Failed), len(result.Skipped))
		if saveErr != nil {
			st.LastError = saveErr.Error()
		} else {
			st.LastError = ""
		}
	})
	log.Printf("[INFO] update pass done: updated=%d failed=%d skipped=%d",
		len(result.Updated), len(result.Failed), len(result.Skipped))
	if len(result.Failed) > 0 {
		log.Printf("[WARN] failed tickers: %v", result.Failed)
	}

	return result, saveErr
}

// fetchWindow decides the start date for a ticker's fetch, or that the
// ticker is already current and can be skipped.
func (o *Orchestrator) fetchWindow(ticker, today string, force bool) (from string, skip bool) {
	latest, ok := o.store.LatestDate(ticker)
	if !ok || force {
		return o.inception, false
	}
	if latest >= today {
		return "", true
	}
	if o.window == WindowTodayOnly {
		return today, false
	}
	return latest, false
}

// safeFetch shields the pass from a panicking fetcher: any panic is
// downgraded to a failed classification for that ticker.
func (o *Orchestrator) safeFetch(ticker, from, to string) (res quote.Result) {
	defer func() {
		if p := recover(); p != nil {
			res = quote.Result{Status: quote.StatusError, Reason: fmt.Sprintf("panic: %v", p)}
		}
	}()
	return o.fetcher.FetchDaily(ticker, from, to)
}
