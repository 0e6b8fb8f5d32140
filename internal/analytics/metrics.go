package analytics

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"BasketWatch/internal/model"
)

const tradingDays = 252

// Metrics computes the portfolio summary from the time series and the
// position P&L. Missing data is a neutral result, never an error.
func (e *Engine) Metrics() *model.Summary {
	summary := &model.Summary{
		BestPositions:    []model.Position{},
		WorstPositions:   []model.Position{},
		BenchmarkReturns: make(map[string]float64, len(e.cfg.Benchmarks)),
	}
	for _, b := range e.cfg.Benchmarks {
		summary.BenchmarkReturns[b] = 0
	}

	series := e.TimeSeries()
	if len(series) == 0 {
		return summary
	}
	positions := e.Positions()

	last := series[len(series)-1]
	summary.CurrentValue = last.PortfolioValue
	summary.TotalReturnPct = (last.PortfolioValue/e.cfg.InitialCapital - 1) * 100
	summary.TotalPnL = last.PortfolioValue - e.cfg.InitialCapital
	summary.LatestDate = last.Date
	summary.DaysActive = len(series)

	for _, p := range positions {
		if p.Side == model.SideLong {
			summary.LongPnL += p.PnL
		} else {
			summary.ShortPnL += p.PnL
		}
	}

	daily := make([]float64, len(series))
	for i, pt := range series {
		daily[i] = pt.DailyReturn
	}
	if len(daily) >= 2 {
		sd, err := stats.StandardDeviationSample(daily)
		if err == nil && sd > 0 {
			mean, _ := stats.Mean(daily)
			summary.Volatility = sd * math.Sqrt(tradingDays) * 100
			summary.SharpeRatio = (mean * tradingDays) / (sd * math.Sqrt(tradingDays))
		}
	}

	summary.MaxDrawdown = maxDrawdown(daily) * 100

	// One descending sort by P&L; the worst five are its tail, kept in
	// the same order.
	sorted := make([]model.Position, len(positions))
	copy(sorted, positions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PnL > sorted[j].PnL })
	summary.BestPositions = head(sorted, 5)
	summary.WorstPositions = tail(sorted, 5)

	for ticker, v := range last.Benchmarks {
		summary.BenchmarkReturns[ticker] = v * 100
	}
	return summary
}

// maxDrawdown returns the most negative peak-to-trough decline of the
// equity index compounded from the daily returns. Zero for a
// monotonically rising curve.
func maxDrawdown(daily []float64) float64 {
	equity := 1.0
	peak := 1.0
	worst := 0.0
	for _, r := range daily {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if dd := (equity - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

func head(positions []model.Position, n int) []model.Position {
	if len(positions) < n {
		n = len(positions)
	}
	out := make([]model.Position, n)
	copy(out, positions[:n])
	return out
}

func tail(positions []model.Position, n int) []model.Position {
	if len(positions) < n {
		n = len(positions)
	}
	out := make([]model.Position, n)
	copy(out, positions[len(positions)-n:])
	return out
}
