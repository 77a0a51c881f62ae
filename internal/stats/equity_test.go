package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/trade-journal/internal/domain"
)

func TestEquityCurveStartsAtZero(t *testing.T) {
	t.Parallel()

	points := EquityCurve(nil)
	require.Len(t, points, 1)
	assert.Equal(t, 0, points[0].TradeNumber)
	assert.Equal(t, 0.0, points[0].PnL)
}

func TestEquityCurveAccumulatesInTimeOrder(t *testing.T) {
	t.Parallel()

	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	t3 := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

	// Storage order is newest first; the curve must re-sort ascending.
	points := EquityCurve([]domain.Trade{
		tradeOn(t3, -50),
		tradeOn(t2, 30),
		tradeOn(t1, 100),
	})

	require.Len(t, points, 4)
	assert.Equal(t, 0.0, points[0].PnL)
	assert.Equal(t, 100.0, points[1].PnL)
	assert.Equal(t, 130.0, points[2].PnL)
	assert.Equal(t, 80.0, points[3].PnL)

	assert.Equal(t, 1, points[1].TradeNumber)
	require.NotNil(t, points[1].Timestamp)
	assert.Equal(t, t1, *points[1].Timestamp)
	assert.Equal(t, 100.0, points[1].Amount)
	assert.Equal(t, -50.0, points[3].Amount)
}

func TestEquityCurveBaselineHasNoTimestamp(t *testing.T) {
	t.Parallel()

	points := EquityCurve([]domain.Trade{
		tradeOn(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10),
	})
	require.Len(t, points, 2)
	assert.Nil(t, points[0].Timestamp)
	assert.NotNil(t, points[1].Timestamp)
}

func TestEquityCurveMissingPnLIsFlat(t *testing.T) {
	t.Parallel()

	open := domain.Trade{Symbol: "AAPL", Side: domain.SideBuy, Price: 100, Quantity: 1,
		Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	points := EquityCurve([]domain.Trade{
		tradeOn(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 100),
		open,
	})

	require.Len(t, points, 3)
	assert.Equal(t, 100.0, points[2].PnL)
	assert.Equal(t, 0.0, points[2].Amount)
}
