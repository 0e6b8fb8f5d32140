package quote

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	// Prices maps ticker -> date -> close. Tickers absent from the map
	// come back as StatusNoData.
	Prices map[string]map[string]float64
	// Fail lists tickers that should come back as StatusError.
	Fail map[string]bool
	// Requests records every (ticker, from, to) call, in order.
	Requests []MockRequest
	// OnFetch, if set, runs before each fetch (used to block or count).
	OnFetch func(ticker string)
}

type MockRequest struct {
	Ticker, From, To string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDaily(ticker, from, to string) Result {
	m.Requests = append(m.Requests, MockRequest{Ticker: ticker, From: from, To: to})
	if m.OnFetch != nil {
		m.OnFetch(ticker)
	}
	if m.Fail[ticker] {
		return Result{Status: StatusError, Reason: "mock failure"}
	}
	series, ok := m.Prices[ticker]
	if !ok {
		return Result{Status: StatusNoData, Reason: "no mock data"}
	}
	prices := make(map[string]float64)
	for date, px := range series {
		if date >= from && date <= to {
			prices[date] = px
		}
	}
	if len(prices) == 0 {
		return Result{Status: StatusNoData, Reason: "no mock data in range"}
	}
	return Result{Status: StatusOK, Prices: prices}
}
