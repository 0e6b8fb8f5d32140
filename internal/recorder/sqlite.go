package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists pass history and metrics snapshots to a
// SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read
	// while the updater writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS update_passes (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			trigger_type   TEXT,
			force_refresh  INTEGER,
			updated_count  INTEGER,
			failed_count   INTEGER,
			skipped_count  INTEGER,
			failed_tickers TEXT,
			duration_secs  REAL,
			error          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_passes_ts ON update_passes(timestamp)`,

		`CREATE TABLE IF NOT EXISTS metrics_snapshots (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			latest_date      TEXT,
			current_value    REAL,
			total_return_pct REAL,
			total_pnl        REAL,
			long_pnl         REAL,
			short_pnl        REAL,
			volatility       REAL,
			sharpe_ratio     REAL,
			max_drawdown     REAL,
			days_active      INTEGER,
			benchmarks       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_ts ON metrics_snapshots(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordPass(rec *PassRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	force := 0
	if rec.ForceRefresh {
		force = 1
	}
	_, err := r.db.Exec(`INSERT INTO update_passes
		(timestamp, trigger_type, force_refresh, updated_count, failed_count, skipped_count, failed_tickers, duration_secs, error)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Trigger, force,
		rec.UpdatedCount, rec.FailedCount, rec.SkippedCount,
		strings.Join(rec.FailedTickers, ","), rec.Duration, rec.Err,
	)
	return err
}

func (r *SQLiteRecorder) RecordMetrics(snap *MetricsSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := snap.Summary

	// Benchmarks stored as "TICKER:pct" pairs for Grafana-style queries.
	pairs := make([]string, 0, len(s.BenchmarkReturns))
	for ticker, v := range s.BenchmarkReturns {
		pairs = append(pairs, fmt.Sprintf("%s:%.4f", ticker, v))
	}

	_, err := r.db.Exec(`INSERT INTO metrics_snapshots
		(timestamp, latest_date, current_value, total_return_pct, total_pnl,
		 long_pnl, short_pnl, volatility, sharpe_ratio, max_drawdown, days_active, benchmarks)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), s.LatestDate, s.CurrentValue, s.TotalReturnPct, s.TotalPnL,
		s.LongPnL, s.ShortPnL, s.Volatility, s.SharpeRatio, s.MaxDrawdown, s.DaysActive,
		strings.Join(pairs, ","),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
