package updater

import (
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"BasketWatch/internal/quote"
	"BasketWatch/internal/store"
)

const inception = "2025-10-28"

// fixedNow keeps "today" stable across a test.
var fixedNow = time.Date(2025, 11, 3, 15, 0, 0, 0, time.UTC)

func newTestOrchestrator(t *testing.T, fetcher quote.Fetcher, universe []string, window FetchWindow) (*Orchestrator, *store.Store) {
	t.Helper()
	s := store.Open(filepath.Join(t.TempDir(), "cache.json"))
	o := New(s, fetcher, universe, inception, window)
	o.now = func() time.Time { return fixedNow }
	return o, s
}

func mockWith(tickers ...string) *quote.MockFetcher {
	m := &quote.MockFetcher{Prices: map[string]map[string]float64{}, Fail: map[string]bool{}}
	for _, tk := range tickers {
		m.Prices[tk] = map[string]float64{
			"2025-10-28": 100,
			"2025-11-03": 110,
		}
	}
	return m
}

func TestRunPass_PartitionsUniverse(t *testing.T) {
	m := mockWith("AAPL", "MSFT")
	m.Fail["TSLA"] = true
	universe := []string{"AAPL", "MSFT", "TSLA", "UNKNOWN"}

	o, _ := newTestOrchestrator(t, m, universe, WindowSinceLast)
	res, err := o.RunPass(false, nil)
	require.NoError(t, err)

	all := append(append(append([]string{}, res.Updated...), res.Failed...), res.Skipped...)
	sort.Strings(all)
	want := append([]string{}, universe...)
	sort.Strings(want)
	require.Equal(t, want, all, "updated+failed+skipped must partition the universe")

	require.ElementsMatch(t, []string{"AAPL", "MSFT"}, res.Updated)
	require.ElementsMatch(t, []string{"TSLA", "UNKNOWN"}, res.Failed)
	require.Empty(t, res.Skipped)
}

func TestRunPass_Idempotence(t *testing.T) {
	m := mockWith("AAPL", "MSFT")
	o, _ := newTestOrchestrator(t, m, []string{"AAPL", "MSFT"}, WindowSinceLast)

	first, err := o.RunPass(false, nil)
	require.NoError(t, err)
	require.Len(t, first.Updated, 2)

	second, err := o.RunPass(false, nil)
	require.NoError(t, err)
	require.Empty(t, second.Updated)
	require.ElementsMatch(t, []string{"AAPL", "MSFT"}, second.Skipped,
		"a second pass on the same day must skip everything just updated")
}

func TestRunPass_FetchWindows(t *testing.T) {
	m := mockWith("AAPL")
	o, _ := newTestOrchestrator(t, m, []string{"AAPL"}, WindowSinceLast)

	// No cache: full history from inception.
	_, err := o.RunPass(false, nil)
	require.NoError(t, err)
	require.Equal(t, inception, m.Requests[0].From)
	require.Equal(t, "2025-11-03", m.Requests[0].To)

	// Cached but stale: since_last fetches from the latest cached date.
	s2 := store.Open(filepath.Join(t.TempDir(), "cache.json"))
	s2.Merge("AAPL", map[string]float64{"2025-10-28": 100, "2025-10-30": 105})
	o2 := New(s2, m, []string{"AAPL"}, inception, WindowSinceLast)
	o2.now = func() time.Time { return fixedNow }
	m.Requests = nil
	_, err = o2.RunPass(false, nil)
	require.NoError(t, err)
	require.Equal(t, "2025-10-30", m.Requests[0].From)

	// today_only policy requests only today.
	s3 := store.Open(filepath.Join(t.TempDir(), "cache.json"))
	s3.Merge("AAPL", map[string]float64{"2025-10-28": 100})
	o3 := New(s3, m, []string{"AAPL"}, inception, WindowTodayOnly)
	o3.now = func() time.Time { return fixedNow }
	m.Requests = nil
	_, err = o3.RunPass(false, nil)
	require.NoError(t, err)
	require.Equal(t, "2025-11-03", m.Requests[0].From)
}

func TestRunPass_ForceRefreshFetchesFullHistory(t *testing.T) {
	m := mockWith("AAPL")
	o, _ := newTestOrchestrator(t, m, []string{"AAPL"}, WindowSinceLast)

	_, err := o.RunPass(false, nil)
	require.NoError(t, err)

	m.Requests = nil
	res, err := o.RunPass(true, nil)
	require.NoError(t, err)
	require.Equal(t, inception, m.Requests[0].From, "force refresh must refetch from inception")
	require.Equal(t, []string{"AAPL"}, res.Updated)
}

func TestRunPass_ProgressCallback(t *testing.T) {
	m := mockWith("AAPL", "MSFT")
	o, _ := newTestOrchestrator(t, m, []string{"AAPL", "MSFT"}, WindowSinceLast)

	var seen []string
	_, err := o.RunPass(false, func(i, total int, ticker string) {
		require.Equal(t, 2, total)
		require.Equal(t, len(seen)+1, i)
		seen = append(seen, ticker)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL", "MSFT"}, seen)
}

func TestRunPass_RejectsConcurrentPass(t *testing.T) {
	m := mockWith("AAPL")
	started := make(chan struct{})
	release := make(chan struct{})
	m.OnFetch = func(string) {
		close(started)
		<-release
	}

	o, _ := newTestOrchestrator(t, m, []string{"AAPL"}, WindowSinceLast)

	firstErr := make(chan error, 1)
	go func() {
		_, err := o.RunPass(false, nil)
		firstErr <- err
	}()

	<-started
	_, err := o.RunPass(false, nil)
	require.ErrorIs(t, err, ErrUpdateRunning)
	require.True(t, o.Status().Running)

	close(release)
	require.NoError(t, <-firstErr)
	require.False(t, o.Status().Running, "status must end with running=false")
}

func TestRunPass_PanickingFetcherIsFailedTicker(t *testing.T) {
	m := mockWith("MSFT")
	m.OnFetch = func(ticker string) {
		if ticker == "AAPL" {
			panic("boom")
		}
	}
	o, s := newTestOrchestrator(t, m, []string{"AAPL", "MSFT"}, WindowSinceLast)

	res, err := o.RunPass(false, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL"}, res.Failed)
	require.Equal(t, []string{"MSFT"}, res.Updated)
	require.False(t, o.Status().Running)

	// The surviving ticker's data still lands in the store.
	require.Len(t, s.SeriesFor("MSFT"), 2)
}

func TestRunPass_MergePreservesExistingDates(t *testing.T) {
	m := mockWith("AAPL")
	o, s := newTestOrchestrator(t, m, []string{"AAPL"}, WindowTodayOnly)
	s.Merge("AAPL", map[string]float64{"2025-10-29": 104})

	_, err := o.RunPass(false, nil)
	require.NoError(t, err)

	points := s.SeriesFor("AAPL")
	dates := make([]string, len(points))
	for i, p := range points {
		dates[i] = p.Date
	}
	require.Contains(t, dates, "2025-10-29", "merge must not delete previously cached dates")
	require.Contains(t, dates, "2025-11-03")
}
