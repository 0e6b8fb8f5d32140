package analytics

import (
	"sort"

	"BasketWatch/internal/model"
)

// PriceSource supplies per-ticker price series sorted by date.
type PriceSource interface {
	SeriesFor(ticker string) []model.PricePoint
}

// Config fixes the basket membership and measurement anchors for the
// analytics engine.
type Config struct {
	Long       []string
	Short      []string
	Benchmarks []string

	// Inception is the ISO date all returns are rebased to. Prices
	// before it are ignored by analytics even when cached.
	Inception      string
	InitialCapital float64
	// PositionSize is the capital fraction allocated per position.
	PositionSize float64
	// MinSeriesPoints is the minimum number of in-window prices a
	// ticker needs to enter the basket averages (1 or 2).
	MinSeriesPoints int
}

// Engine derives portfolio analytics from cached prices. All methods
// are pure reads; the engine never triggers fetches.
type Engine struct {
	source PriceSource
	cfg    Config
}

func New(source PriceSource, cfg Config) *Engine {
	if cfg.MinSeriesPoints < 1 {
		cfg.MinSeriesPoints = 2
	}
	if cfg.PositionSize <= 0 {
		cfg.PositionSize = 0.01
	}
	return &Engine{source: source, cfg: cfg}
}

// inWindow returns the ticker's price points on or after inception.
func (e *Engine) inWindow(ticker string) []model.PricePoint {
	points := e.source.SeriesFor(ticker)
	i := sort.Search(len(points), func(i int) bool { return points[i].Date >= e.cfg.Inception })
	return points[i:]
}

// rebased maps each in-window date to the ticker's return from its
// first in-window price. Short positions are sign-inverted. Returns nil
// when the ticker has fewer than minPoints usable prices.
func (e *Engine) rebased(ticker string, short bool, minPoints int) map[string]float64 {
	points := e.inWindow(ticker)
	if len(points) < minPoints || len(points) == 0 {
		return nil
	}
	base := points[0].Close
	if base <= 0 {
		return nil
	}
	returns := make(map[string]float64, len(points))
	for _, p := range points {
		r := p.Close/base - 1
		if short {
			r = -r
		}
		returns[p.Date] = r
	}
	return returns
}

// TimeSeries builds the combined long/short portfolio series on the
// observation calendar: the sorted union of dates on which at least one
// basket member has an in-window price.
//
// Side averages and the combined return are measured from inception;
// the daily return is the day-over-day step of the combined return, so
// compounding the daily series reproduces the combined return exactly.
func (e *Engine) TimeSeries() []model.TimePoint {
	longSeries := make([]map[string]float64, 0, len(e.cfg.Long))
	for _, ticker := range e.cfg.Long {
		if r := e.rebased(ticker, false, e.cfg.MinSeriesPoints); r != nil {
			longSeries = append(longSeries, r)
		}
	}
	shortSeries := make([]map[string]float64, 0, len(e.cfg.Short))
	for _, ticker := range e.cfg.Short {
		if r := e.rebased(ticker, true, e.cfg.MinSeriesPoints); r != nil {
			shortSeries = append(shortSeries, r)
		}
	}

	calendar := observationCalendar(longSeries, shortSeries)
	if len(calendar) == 0 {
		return nil
	}

	benchmarks := make(map[string]map[string]float64, len(e.cfg.Benchmarks))
	for _, ticker := range e.cfg.Benchmarks {
		if r := e.rebased(ticker, false, 1); r != nil {
			benchmarks[ticker] = r
		}
	}

	series := make([]model.TimePoint, 0, len(calendar))
	cumulative := 1.0
	prevCombined := 0.0
	// Benchmark gaps carry the last seen value forward.
	carried := make(map[string]float64, len(benchmarks))
	carriedSeen := make(map[string]bool, len(benchmarks))

	for i, date := range calendar {
		longAvg := averageOn(longSeries, date)
		shortAvg := averageOn(shortSeries, date)
		combined := (longAvg + shortAvg) / 2

		var daily float64
		if i == 0 {
			daily = combined
		} else {
			daily = (1+combined)/(1+prevCombined) - 1
		}
		cumulative *= 1 + daily
		prevCombined = combined

		point := model.TimePoint{
			Date:             date,
			LongReturn:       longAvg,
			ShortReturn:      shortAvg,
			CombinedReturn:   combined,
			DailyReturn:      daily,
			CumulativeReturn: cumulative - 1,
			PortfolioValue:   e.cfg.InitialCapital * cumulative,
		}

		for ticker, returns := range benchmarks {
			if v, ok := returns[date]; ok {
				carried[ticker] = v
				carriedSeen[ticker] = true
			}
			if carriedSeen[ticker] {
				if point.Benchmarks == nil {
					point.Benchmarks = make(map[string]float64, len(benchmarks))
				}
				point.Benchmarks[ticker] = carried[ticker]
			}
		}

		series = append(series, point)
	}
	return series
}

// observationCalendar returns the sorted union of all dates present in
// the given rebased series.
func observationCalendar(groups ...[]map[string]float64) []string {
	seen := make(map[string]struct{})
	for _, group := range groups {
		for _, series := range group {
			for date := range series {
				seen[date] = struct{}{}
			}
		}
	}
	calendar := make([]string, 0, len(seen))
	for date := range seen {
		calendar = append(calendar, date)
	}
	sort.Strings(calendar)
	return calendar
}

// averageOn computes the simple average of the series values on the
// given date, skipping series without a price that day. Zero when no
// series contributes.
func averageOn(group []map[string]float64, date string) float64 {
	var sum float64
	var n int
	for _, series := range group {
		if v, ok := series[date]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
