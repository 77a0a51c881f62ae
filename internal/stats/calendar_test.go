package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/trade-journal/internal/domain"
)

func tradeOn(ts time.Time, pnl float64) domain.Trade {
	return domain.Trade{Symbol: "AAPL", Side: domain.SideBuy, Price: 100, Quantity: 1, PnL: domain.Float(pnl), Timestamp: ts}
}

func TestCalendarDayBuckets(t *testing.T) {
	t.Parallel()

	day15 := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	grid := Calendar([]domain.Trade{
		tradeOn(day15, 100),
		tradeOn(day15.Add(2*time.Hour), -40),
		tradeOn(time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC), 25),
	}, 2024, time.January, time.UTC)

	assert.Equal(t, 2024, grid.Year)
	assert.Equal(t, time.January, grid.Month)
	require.Len(t, grid.Days, 31)

	b := grid.Days[14]
	assert.Equal(t, 15, b.Day)
	assert.Equal(t, 60.0, b.PnL)
	assert.Equal(t, 2, b.TradeCount)
	assert.Equal(t, 50.0, b.WinRate)

	assert.Equal(t, 0, grid.Days[0].TradeCount)
	assert.Equal(t, 2, grid.ActiveDays)
	assert.Equal(t, 85.0, grid.PnL)
}

func TestCalendarLeadingBlanks(t *testing.T) {
	t.Parallel()

	// 2024-01-01 is a Monday, so one blank cell precedes it.
	grid := Calendar(nil, 2024, time.January, time.UTC)
	assert.Equal(t, 1, grid.LeadingBlanks)

	// 2024-09-01 is a Sunday: no blanks.
	grid = Calendar(nil, 2024, time.September, time.UTC)
	assert.Equal(t, 0, grid.LeadingBlanks)
}

func TestCalendarIgnoresOtherMonths(t *testing.T) {
	t.Parallel()

	grid := Calendar([]domain.Trade{
		tradeOn(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 100),
		tradeOn(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), 100),
	}, 2024, time.January, time.UTC)

	assert.Equal(t, 0, grid.ActiveDays)
	assert.Equal(t, 0.0, grid.PnL)
}

func TestWeekRollups(t *testing.T) {
	t.Parallel()

	day2 := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)  // first row
	day10 := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) // second row
	day11 := time.Date(2024, 1, 11, 12, 0, 0, 0, time.UTC)
	grid := Calendar([]domain.Trade{
		tradeOn(day2, 100),
		tradeOn(day10, -30),
		tradeOn(day11, 80),
	}, 2024, time.January, time.UTC)

	// 1 blank + 31 days = 32 cells: four full rows and a trailing partial.
	require.Len(t, grid.Weeks, 5)

	assert.Equal(t, 1, grid.Weeks[0].Index)
	assert.Equal(t, 100.0, grid.Weeks[0].PnL)
	assert.Equal(t, 1, grid.Weeks[0].ActiveDays)

	assert.Equal(t, 50.0, grid.Weeks[1].PnL)
	assert.Equal(t, 2, grid.Weeks[1].ActiveDays)

	assert.Equal(t, 0.0, grid.Weeks[4].PnL)
}
