package analytics

import "BasketWatch/internal/model"

// Positions derives the per-position view of both baskets. A position
// needs at least two in-window prices: a single price cannot yield a
// return.
func (e *Engine) Positions() []model.Position {
	positions := make([]model.Position, 0, len(e.cfg.Long)+len(e.cfg.Short))
	positions = append(positions, e.sidePositions(e.cfg.Long, model.SideLong)...)
	positions = append(positions, e.sidePositions(e.cfg.Short, model.SideShort)...)
	return positions
}

func (e *Engine) sidePositions(tickers []string, side model.Side) []model.Position {
	size := e.cfg.InitialCapital * e.cfg.PositionSize
	positions := make([]model.Position, 0, len(tickers))

	for _, ticker := range tickers {
		points := e.inWindow(ticker)
		if len(points) < 2 {
			continue
		}
		inception := points[0].Close
		current := points[len(points)-1].Close
		if inception <= 0 {
			continue
		}
		ret := current/inception - 1
		if side == model.SideShort {
			ret = -ret
		}
		positions = append(positions, model.Position{
			Ticker:         ticker,
			Side:           side,
			InceptionPrice: inception,
			CurrentPrice:   current,
			TotalReturnPct: ret * 100,
			PositionSize:   size,
			CurrentValue:   size * (1 + ret),
			PnL:            size * ret,
		})
	}
	return positions
}
