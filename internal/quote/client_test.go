package quote

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestClient wires a client to the test server with retry timings
// collapsed so tests run fast.
func newTestClient(ts *httptest.Server, symbolMap map[string]string) *Client {
	c := NewClient(ts.URL, "test-key", 600, symbolMap, "")
	c.minInterval = 0
	c.backoffUnit = time.Millisecond
	c.cooldown = 5 * time.Millisecond
	return c
}

func barsBody(symbol string, bars ...string) string {
	body := `{"data":[`
	for i, b := range bars {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"symbol":%q,"date":%q,"close":%d}`, symbol, b, 100+i)
	}
	return body + `]}`
}

func TestFetchDaily_Success(t *testing.T) {
	var query string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		fmt.Fprint(w, barsBody("AAPL", "2025-10-28T00:00:00+0000", "2025-10-29T00:00:00+0000"))
	}))
	defer ts.Close()

	c := newTestClient(ts, nil)
	res := c.FetchDaily("AAPL", "2025-10-28", "2025-10-29")

	require.True(t, res.OK())
	require.Equal(t, map[string]float64{"2025-10-28": 100, "2025-10-29": 101}, res.Prices)
	require.Contains(t, query, "symbols=AAPL")
	require.Contains(t, query, "date_from=2025-10-28")
	require.Contains(t, query, "access_key=test-key")
}

func TestFetchDaily_SymbolRemap(t *testing.T) {
	var symbol string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol = r.URL.Query().Get("symbols")
		fmt.Fprint(w, barsBody(symbol, "2025-10-28T00:00:00+0000"))
	}))
	defer ts.Close()

	c := newTestClient(ts, map[string]string{"^GSPC": "SPY"})
	res := c.FetchDaily("^GSPC", "2025-10-28", "2025-10-28")

	require.True(t, res.OK())
	require.Equal(t, "SPY", symbol, "index ticker must be remapped to its ETF proxy")
}

func TestFetchDaily_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, barsBody("AAPL", "2025-10-28T00:00:00+0000"))
	}))
	defer ts.Close()

	c := newTestClient(ts, nil)
	res := c.FetchDaily("AAPL", "2025-10-28", "2025-10-28")

	require.True(t, res.OK())
	require.EqualValues(t, 3, calls)
}

func TestFetchDaily_ExhaustedRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := newTestClient(ts, nil)
	res := c.FetchDaily("AAPL", "2025-10-28", "2025-10-28")

	require.Equal(t, StatusError, res.Status)
	require.False(t, res.OK())
	require.EqualValues(t, 3, calls, "retry budget is bounded")
}

func TestFetchDaily_RateLimitCooldown(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, barsBody("AAPL", "2025-10-28T00:00:00+0000"))
	}))
	defer ts.Close()

	c := newTestClient(ts, nil)
	res := c.FetchDaily("AAPL", "2025-10-28", "2025-10-28")

	require.True(t, res.OK())
	require.EqualValues(t, 2, calls)
}

func TestFetchDaily_EmptyPayloadIsNoData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer ts.Close()

	c := newTestClient(ts, nil)
	res := c.FetchDaily("AAPL", "2025-10-28", "2025-10-28")

	require.Equal(t, StatusNoData, res.Status)
}

func TestFetchDaily_ProviderErrorPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"code":"invalid_access_key","message":"bad key"}}`)
	}))
	defer ts.Close()

	c := newTestClient(ts, nil)
	res := c.FetchDaily("AAPL", "2025-10-28", "2025-10-28")

	require.Equal(t, StatusError, res.Status)
	require.Contains(t, res.Reason, "invalid_access_key")
}

func TestRateGate_EnforcesMinimumInterval(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, barsBody("AAPL", "2025-10-28T00:00:00+0000"))
	}))
	defer ts.Close()

	c := newTestClient(ts, nil)
	c.minInterval = 50 * time.Millisecond

	start := time.Now()
	c.FetchDaily("AAPL", "2025-10-28", "2025-10-28")
	c.FetchDaily("AAPL", "2025-10-28", "2025-10-28")
	elapsed := time.Since(start)

	if elapsed < 50*time.Millisecond {
		t.Fatalf("second request issued after %v, before the minimum interval elapsed", elapsed)
	}
}

func TestTruncateDate(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"2025-10-28T00:00:00+0000", "2025-10-28", false},
		{"2025-10-28", "2025-10-28", false},
		{"garbage", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := truncateDate(tt.raw)
		if tt.wantErr != (err != nil) {
			t.Errorf("truncateDate(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("truncateDate(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
