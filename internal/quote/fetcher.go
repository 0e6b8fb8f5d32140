package quote

// Status classifies the outcome of a fetch. Failure is a value, not an
// error: the orchestrator needs to tell "provider had nothing" apart
// from "provider call failed" without aborting the batch.
type Status int

const (
	StatusOK Status = iota
	StatusNoData
	StatusError
)

// Result is the outcome of one fetch: a date -> closing price map on
// success, or a classified failure with a diagnostic reason.
type Result struct {
	Status Status
	Prices map[string]float64
	Reason string
}

// OK reports whether the fetch produced usable prices.
func (r Result) OK() bool { return r.Status == StatusOK && len(r.Prices) > 0 }

// Fetcher fetches daily closing prices for one ticker over an
// inclusive ISO-date range.
type Fetcher interface {
	FetchDaily(ticker, from, to string) Result
	Name() string
}
