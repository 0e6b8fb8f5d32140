package universe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// ranked pairs a ticker with its composite score from the ranking CSV.
type ranked struct {
	Ticker string
	Score  float64
}

// LoadRankingCSV reads a ranking file with "Ticker" and "Composite
// Score" columns and splits it into the long basket (top n by score)
// and the short basket (bottom n).
func LoadRankingCSV(path string, n int) (long, short []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open ranking csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read ranking header: %w", err)
	}

	tickerCol, scoreCol := -1, -1
	for i, name := range header {
		switch name {
		case "Ticker":
			tickerCol = i
		case "Composite Score":
			scoreCol = i
		}
	}
	if tickerCol < 0 || scoreCol < 0 {
		return nil, nil, fmt.Errorf("ranking csv missing Ticker / Composite Score columns, got %v", header)
	}

	var rows []ranked
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read ranking csv: %w", err)
		}
		score, err := strconv.ParseFloat(record[scoreCol], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("ranking csv: bad score for %s: %w", record[tickerCol], err)
		}
		rows = append(rows, ranked{Ticker: record[tickerCol], Score: score})
	}

	if len(rows) < 2*n {
		return nil, nil, fmt.Errorf("ranking csv has %d rows, need at least %d for two baskets of %d", len(rows), 2*n, n)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })

	long = make([]string, 0, n)
	for _, r := range rows[:n] {
		long = append(long, r.Ticker)
	}
	short = make([]string, 0, n)
	for _, r := range rows[len(rows)-n:] {
		short = append(short, r.Ticker)
	}
	return long, short, nil
}
