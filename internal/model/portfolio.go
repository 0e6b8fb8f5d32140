package model

// Side indicates which sleeve of the strategy a position belongs to.
type Side string

const (
	SideLong  Side = "Long"
	SideShort Side = "Short"
)

// PricePoint is one closing price for a ticker. Date is an ISO 8601
// calendar day (no time component).
type PricePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// Position is the derived state of one basket member. Returns are
// measured from the first cached price on or after the inception date;
// short returns are sign-inverted.
type Position struct {
	Ticker         string  `json:"ticker"`
	Side           Side    `json:"side"`
	InceptionPrice float64 `json:"inception_price"`
	CurrentPrice   float64 `json:"current_price"`
	TotalReturnPct float64 `json:"total_return_pct"`
	PositionSize   float64 `json:"position_size"`
	CurrentValue   float64 `json:"current_value"`
	PnL            float64 `json:"pnl"`
}

// TimePoint is one observation of the combined long/short portfolio.
// LongReturn, ShortReturn and CombinedReturn are measured from
// inception; DailyReturn is the day-over-day step of the combined
// return, and CumulativeReturn compounds those steps.
type TimePoint struct {
	Date             string             `json:"date"`
	LongReturn       float64            `json:"long_return"`
	ShortReturn      float64            `json:"short_return"`
	CombinedReturn   float64            `json:"combined_return"`
	DailyReturn      float64            `json:"daily_return"`
	CumulativeReturn float64            `json:"cumulative_return"`
	PortfolioValue   float64            `json:"portfolio_value"`
	Benchmarks       map[string]float64 `json:"benchmarks,omitempty"`
}

// Summary holds the portfolio-level performance metrics.
type Summary struct {
	CurrentValue     float64            `json:"current_value"`
	TotalReturnPct   float64            `json:"total_return_pct"`
	TotalPnL         float64            `json:"total_pnl"`
	LongPnL          float64            `json:"long_pnl"`
	ShortPnL         float64            `json:"short_pnl"`
	Volatility       float64            `json:"volatility"`
	SharpeRatio      float64            `json:"sharpe_ratio"`
	MaxDrawdown      float64            `json:"max_drawdown"`
	BestPositions    []Position         `json:"best_positions"`
	WorstPositions   []Position         `json:"worst_positions"`
	BenchmarkReturns map[string]float64 `json:"benchmark_returns"`
	LatestDate       string             `json:"latest_date"`
	DaysActive       int                `json:"days_active"`
}

// ChartData is the time-series payload consumed by the dashboard.
// All return/drawdown series are percentages.
type ChartData struct {
	Dates            []string             `json:"dates"`
	PortfolioValues  []float64            `json:"portfolio_values"`
	PortfolioReturns []float64            `json:"portfolio_returns"`
	DailyReturns     []float64            `json:"daily_returns"`
	Drawdown         []float64            `json:"drawdown"`
	Benchmarks       map[string][]float64 `json:"benchmarks"`
}
