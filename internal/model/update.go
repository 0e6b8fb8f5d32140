package model

import "time"

// UpdateResult classifies every ticker of one update pass. The three
// slices partition the ticker universe: each ticker lands in exactly
// one of them.
type UpdateResult struct {
	Updated []string `json:"updated"`
	Failed  []string `json:"failed"`
	Skipped []string `json:"skipped"`
}

// RefreshStatus describes an in-flight or last-completed update pass.
// It is transient state, never persisted.
type RefreshStatus struct {
	Running    bool      `json:"running"`
	Current    int       `json:"current"`
	Total      int       `json:"total"`
	Message    string    `json:"message"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}
