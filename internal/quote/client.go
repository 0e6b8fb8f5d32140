package quote

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Client implements Fetcher against an end-of-day price API
// (marketstack-style /v1/eod endpoint).
//
// All calls share one minimum inter-request interval derived from the
// provider's rate plan; every request, including retries, waits out the
// interval first. Violating it risks provider-side lockout, so the gate
// is held across the whole client, not per ticker.
type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	// symbolMap translates index tickers to their tradable proxy
	// symbols (e.g. ^GSPC -> SPY). Identity when absent.
	symbolMap map[string]string

	mu          sync.Mutex
	lastRequest time.Time
	minInterval time.Duration

	maxRetries  int
	backoffUnit time.Duration
	cooldown    time.Duration
}

// NewClient creates a Client for the given rate plan (API calls per
// minute) with optional proxy support.
func NewClient(baseURL, apiKey string, callsPerMinute int, symbolMap map[string]string, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if callsPerMinute <= 0 {
		callsPerMinute = 5
	}
	return &Client{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		symbolMap: symbolMap,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		minInterval: time.Minute / time.Duration(callsPerMinute),
		maxRetries:  3,
		backoffUnit: 5 * time.Second,
		cooldown:    60 * time.Second,
	}
}

func (c *Client) Name() string { return "eod" }

// eodBar is one bar of the provider's JSON payload. Dates arrive with a
// time component ("2025-10-28T00:00:00+0000") and are truncated to the
// calendar day.
type eodBar struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
}

type eodResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Data []eodBar `json:"data"`
}

// rateWait blocks until the minimum inter-request interval since the
// previous call has elapsed, then claims the slot.
func (c *Client) rateWait() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if wait := c.minInterval - time.Since(c.lastRequest); wait > 0 {
		time.Sleep(wait)
	}
	c.lastRequest = time.Now()
}

// FetchDaily fetches closing prices for ticker between from and to
// (inclusive ISO dates). It retries transient failures with growing
// backoff, cools down on rate-limit responses, and never returns a Go
// error: exhausted retries come back as StatusNoData or StatusError.
func (c *Client) FetchDaily(ticker, from, to string) Result {
	symbol := ticker
	if mapped, ok := c.symbolMap[ticker]; ok {
		symbol = mapped
	}

	last := Result{Status: StatusError, Reason: "no attempt made"}
	skipBackoff := false

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 && !skipBackoff {
			wait := time.Duration(attempt+1) * c.backoffUnit
			log.Printf("[WARN] retrying %s after %v (attempt %d/%d): %s", ticker, wait, attempt+1, c.maxRetries, last.Reason)
			time.Sleep(wait)
		}
		skipBackoff = false

		c.rateWait()

		params := url.Values{
			"access_key": {c.APIKey},
			"symbols":    {symbol},
			"date_from":  {from},
			"date_to":    {to},
			"sort":       {"ASC"},
			"limit":      {"1000"},
		}
		resp, err := c.Client.Get(c.BaseURL + "/v1/eod?" + params.Encode())
		if err != nil {
			last = Result{Status: StatusError, Reason: fmt.Sprintf("request failed: %v", err)}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			log.Printf("[WARN] rate limit hit for %s, cooling down %v", ticker, c.cooldown)
			time.Sleep(c.cooldown)
			last = Result{Status: StatusError, Reason: "rate limited"}
			skipBackoff = true
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			last = Result{Status: StatusError, Reason: fmt.Sprintf("status %d", resp.StatusCode)}
			continue
		}

		var payload eodResponse
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if err != nil {
			last = Result{Status: StatusError, Reason: fmt.Sprintf("decode response: %v", err)}
			continue
		}
		if payload.Error != nil {
			last = Result{Status: StatusError, Reason: fmt.Sprintf("provider error %s: %s", payload.Error.Code, payload.Error.Message)}
			continue
		}
		if len(payload.Data) == 0 {
			last = Result{Status: StatusNoData, Reason: "empty payload"}
			continue
		}

		prices := make(map[string]float64, len(payload.Data))
		for _, bar := range payload.Data {
			day, err := truncateDate(bar.Date)
			if err != nil {
				continue
			}
			if bar.Close > 0 {
				prices[day] = bar.Close
			}
		}
		if len(prices) == 0 {
			last = Result{Status: StatusNoData, Reason: "no usable bars"}
			continue
		}
		return Result{Status: StatusOK, Prices: prices}
	}

	log.Printf("[WARN] fetch %s exhausted retries: %s", ticker, last.Reason)
	return last
}

// truncateDate reduces a provider timestamp to its ISO calendar day.
func truncateDate(raw string) (string, error) {
	if len(raw) < 10 {
		return "", fmt.Errorf("short date %q", raw)
	}
	day := raw[:10]
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return "", err
	}
	return day, nil
}
