package recorder

import "BasketWatch/internal/model"

// PassRecord captures the outcome of one update pass.
type PassRecord struct {
	Trigger       string // "CRON", "API", "STARTUP"
	ForceRefresh  bool
	UpdatedCount  int
	FailedCount   int
	SkippedCount  int
	FailedTickers []string
	Duration      float64 // seconds
	Err           string
}

// MetricsSnapshot captures the portfolio summary at a point in time.
type MetricsSnapshot struct {
	Summary *model.Summary
}

// Recorder persists historical pass and metrics data for analysis.
type Recorder interface {
	RecordPass(rec *PassRecord) error
	RecordMetrics(snap *MetricsSnapshot) error
	Close() error
}
