package analytics

import "BasketWatch/internal/model"

// ChartData flattens the time series into the percent-scaled arrays the
// dashboard charts consume. Benchmark gaps before a benchmark's first
// observation render as zero.
func (e *Engine) ChartData() *model.ChartData {
	series := e.TimeSeries()
	data := &model.ChartData{
		Dates:            make([]string, 0, len(series)),
		PortfolioValues:  make([]float64, 0, len(series)),
		PortfolioReturns: make([]float64, 0, len(series)),
		DailyReturns:     make([]float64, 0, len(series)),
		Drawdown:         make([]float64, 0, len(series)),
		Benchmarks:       make(map[string][]float64),
	}
	if len(series) == 0 {
		return data
	}

	equity := 1.0
	peak := 1.0
	for _, pt := range series {
		data.Dates = append(data.Dates, pt.Date)
		data.PortfolioValues = append(data.PortfolioValues, pt.PortfolioValue)
		data.PortfolioReturns = append(data.PortfolioReturns, pt.CumulativeReturn*100)
		data.DailyReturns = append(data.DailyReturns, pt.DailyReturn*100)

		equity *= 1 + pt.DailyReturn
		if equity > peak {
			peak = equity
		}
		data.Drawdown = append(data.Drawdown, (equity-peak)/peak*100)

		for _, ticker := range e.cfg.Benchmarks {
			data.Benchmarks[ticker] = append(data.Benchmarks[ticker], pt.Benchmarks[ticker]*100)
		}
	}
	return data
}
