package stats

import (
	"sort"
	"time"

	"github.com/yourorg/trade-journal/internal/domain"
)

// EquityPoint's Timestamp is a pointer so the synthetic baseline point
// serializes without one instead of as the zero time.
type EquityPoint struct {
	TradeNumber int        `json:"tradeNumber"`
	PnL         float64    `json:"pnl"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Symbol      string     `json:"symbol,omitempty"`
	Amount      float64    `json:"amount"`
}

// EquityCurve walks trades in timestamp order and accumulates realized pnl,
// one point per trade. Point 0 is a synthetic zero baseline so the curve
// always starts at the origin.
func EquityCurve(trades []domain.Trade) []EquityPoint {
	sorted := make([]domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	points := make([]EquityPoint, 0, len(sorted)+1)
	points = append(points, EquityPoint{TradeNumber: 0, PnL: 0})

	var cumulative float64
	for i, t := range sorted {
		cumulative += t.RealizedPnL()
		ts := t.Timestamp
		points = append(points, EquityPoint{
			TradeNumber: i + 1,
			PnL:         cumulative,
			Timestamp:   &ts,
			Symbol:      t.Symbol,
			Amount:      t.RealizedPnL(),
		})
	}
	return points
}
