package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/trade-journal/internal/domain"
)

func trade(pnl float64) domain.Trade {
	return domain.Trade{Symbol: "AAPL", Side: domain.SideBuy, Price: 100, Quantity: 1, PnL: domain.Float(pnl)}
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	sum := Summarize(nil)
	assert.Equal(t, 0, sum.TotalTrades)
	assert.Equal(t, 0.0, sum.TotalPnL)
	assert.Equal(t, 0.0, sum.WinRate)
	assert.Equal(t, 0.0, sum.ProfitFactor)
}

func TestSummarizeMixed(t *testing.T) {
	t.Parallel()

	sum := Summarize([]domain.Trade{
		trade(300), trade(200), trade(-100),
	})

	assert.Equal(t, 3, sum.TotalTrades)
	assert.Equal(t, 400.0, sum.TotalPnL)
	assert.InDelta(t, 66.666, sum.WinRate, 0.01)
	assert.InDelta(t, 5.0, sum.ProfitFactor, 1e-9)
	assert.Equal(t, 250.0, sum.AvgWinner)
	assert.Equal(t, -100.0, sum.AvgLoser)
}

func TestSummarizeProfitFactorWithoutLosses(t *testing.T) {
	t.Parallel()

	sum := Summarize([]domain.Trade{trade(50)})
	assert.Equal(t, 100.0, sum.ProfitFactor)
	assert.Equal(t, 100.0, sum.WinRate)
}

func TestSummarizeMissingPnLCountsAsLoser(t *testing.T) {
	t.Parallel()

	open := domain.Trade{Symbol: "AAPL", Side: domain.SideBuy, Price: 100, Quantity: 1}
	sum := Summarize([]domain.Trade{open, trade(100)})

	assert.Equal(t, 2, sum.TotalTrades)
	assert.Equal(t, 50.0, sum.WinRate)
	assert.Equal(t, 0.0, sum.AvgLoser)
	// No gross loss accumulated, so the edge is still reported as defined-positive.
	assert.Equal(t, 100.0, sum.ProfitFactor)
}

func TestRiskAmount(t *testing.T) {
	t.Parallel()

	tr := domain.Trade{Price: 100, Quantity: 10, StopLoss: domain.Float(95)}
	assert.Equal(t, 50.0, RiskAmount(tr))

	// Direction of the stop does not matter, only the distance.
	tr.StopLoss = domain.Float(105)
	assert.Equal(t, 50.0, RiskAmount(tr))

	tr.StopLoss = nil
	assert.Equal(t, 0.0, RiskAmount(tr))
}

func TestRMultiple(t *testing.T) {
	t.Parallel()

	tr := domain.Trade{Price: 100, Quantity: 10, StopLoss: domain.Float(95), PnL: domain.Float(100)}
	assert.Equal(t, 2.0, RMultiple(tr))

	// A stored value wins over the derived one.
	tr.RMultiple = domain.Float(1.5)
	assert.Equal(t, 1.5, RMultiple(tr))

	noRisk := domain.Trade{Price: 100, Quantity: 10, PnL: domain.Float(100)}
	assert.Equal(t, 0.0, RMultiple(noRisk))
}
