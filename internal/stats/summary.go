// Package stats derives performance statistics from trade and expense
// collections. Everything here is a pure function over its inputs: no I/O,
// no cached state, recomputed on every call.
package stats

import (
	"github.com/yourorg/trade-journal/internal/domain"
)

type Summary struct {
	TotalTrades  int     `json:"totalTrades"`
	TotalPnL     float64 `json:"totalPnL"`
	WinRate      float64 `json:"winRate"`
	ProfitFactor float64 `json:"profitFactor"`
	AvgWinner    float64 `json:"avgWinner"`
	AvgLoser     float64 `json:"avgLoser"`
}

// undefinedEdge is reported as the profit factor when there are profits and
// no losses at all, signaling a positive edge without dividing by zero.
const undefinedEdge = 100

// Summarize computes the headline stats over a trade list. A trade without a
// recorded pnl counts as breakeven and lands in the loss bucket.
func Summarize(trades []domain.Trade) Summary {
	sum := Summary{TotalTrades: len(trades)}

	var grossProfit, grossLoss float64
	var winners, losers int
	for _, t := range trades {
		pnl := t.RealizedPnL()
		sum.TotalPnL += pnl
		if pnl > 0 {
			winners++
			grossProfit += pnl
		} else {
			losers++
			grossLoss += pnl
		}
	}

	if len(trades) > 0 {
		sum.WinRate = float64(winners) / float64(len(trades)) * 100
	}
	switch {
	case grossLoss != 0:
		sum.ProfitFactor = grossProfit / -grossLoss
	case grossProfit > 0:
		sum.ProfitFactor = undefinedEdge
	}
	if winners > 0 {
		sum.AvgWinner = grossProfit / float64(winners)
	}
	if losers > 0 {
		sum.AvgLoser = grossLoss / float64(losers)
	}
	return sum
}

// RiskAmount is the dollar risk taken on a trade: entry-to-stop distance
// times quantity. Zero when no stop was recorded.
func RiskAmount(t domain.Trade) float64 {
	if t.StopLoss == nil {
		return 0
	}
	risk := t.Price - *t.StopLoss
	if risk < 0 {
		risk = -risk
	}
	return risk * t.Quantity
}

// RMultiple is realized pnl over the risk taken; a trade with zero or
// unrecorded risk contributes 0 rather than dividing by zero. A value
// recorded on the trade itself wins over the derived one.
func RMultiple(t domain.Trade) float64 {
	if t.RMultiple != nil {
		return *t.RMultiple
	}
	risk := RiskAmount(t)
	if risk == 0 {
		return 0
	}
	return t.RealizedPnL() / risk
}
