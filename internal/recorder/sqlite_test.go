package recorder

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"BasketWatch/internal/model"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.RecordPass(&PassRecord{
		Trigger:       "API",
		UpdatedCount:  2,
		FailedCount:   1,
		FailedTickers: []string{"TSLA"},
		Duration:      1.5,
	}))
	require.NoError(t, r.RecordMetrics(&MetricsSnapshot{Summary: &model.Summary{
		LatestDate:       "2025-10-30",
		CurrentValue:     120500,
		TotalReturnPct:   20.5,
		DaysActive:       3,
		BenchmarkReturns: map[string]float64{"^GSPC": 5.0},
	}}))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var passes, snapshots int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM update_passes").Scan(&passes))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM metrics_snapshots").Scan(&snapshots))
	require.Equal(t, 1, passes)
	require.Equal(t, 1, snapshots)

	var failed string
	require.NoError(t, db.QueryRow("SELECT failed_tickers FROM update_passes").Scan(&failed))
	require.Equal(t, "TSLA", failed)
}
