package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"BasketWatch/internal/analytics"
	"BasketWatch/internal/recorder"
	"BasketWatch/internal/updater"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron-driven refresh cycle: one update pass per
// trading day followed by a metrics snapshot.
type Scheduler struct {
	Cron      *cron.Cron
	Updater   *updater.Orchestrator
	Analytics *analytics.Engine
	Recorder  recorder.Recorder
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, o *updater.Orchestrator, a *analytics.Engine, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Updater:   o,
		Analytics: a,
		Recorder:  rec,
		Ctx:       ctx,
	}
}

// RegisterAll registers the daily refresh task.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, func() {
		s.RunRefresh("CRON", false)
	}); err != nil {
		return fmt.Errorf("register daily refresh: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunRefresh executes one update pass and records the outcome plus a
// metrics snapshot. Used by the cron task, startup, and manual triggers.
func (s *Scheduler) RunRefresh(trigger string, force bool) {
	log.Printf("[INFO] running refresh (trigger=%s force=%v)", trigger, force)
	start := time.Now()

	result, err := s.Updater.RunPass(force, logProgress)
	if errors.Is(err, updater.ErrUpdateRunning) {
		log.Println("[WARN] refresh skipped: a pass is already running")
		return
	}

	rec := &recorder.PassRecord{
		Trigger:      trigger,
		ForceRefresh: force,
		Duration:     time.Since(start).Seconds(),
	}
	if err != nil {
		rec.Err = err.Error()
		log.Printf("[ERROR] refresh: %v", err)
	}
	if result != nil {
		rec.UpdatedCount = len(result.Updated)
		rec.FailedCount = len(result.Failed)
		rec.SkippedCount = len(result.Skipped)
		rec.FailedTickers = result.Failed
	}
	if err := s.Recorder.RecordPass(rec); err != nil {
		log.Printf("[ERROR] record pass: %v", err)
	}

	if result == nil {
		return
	}
	summary := s.Analytics.Metrics()
	if summary.DaysActive == 0 {
		log.Println("[INFO] no observation dates yet, skipping metrics snapshot")
		return
	}
	if err := s.Recorder.RecordMetrics(&recorder.MetricsSnapshot{Summary: summary}); err != nil {
		log.Printf("[ERROR] record metrics: %v", err)
	}
}

// logProgress reports batch progress every 20 tickers.
func logProgress(index, total int, _ string) {
	if index%20 == 0 {
		log.Printf("[INFO] progress: %d/%d tickers processed", index, total)
	}
}
