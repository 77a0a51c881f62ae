package stats

import (
	"time"

	"github.com/yourorg/trade-journal/internal/domain"
)

type DayBucket struct {
	Day        int       `json:"day"`
	Date       time.Time `json:"date"`
	PnL        float64   `json:"pnl"`
	TradeCount int       `json:"tradeCount"`
	WinRate    float64   `json:"winRate"`
	RMultiple  float64   `json:"rMultiple"`
}

// WeekBucket rolls up one calendar row of the month grid: seven cells walked
// left to right, including leading and trailing blanks.
type WeekBucket struct {
	Index      int     `json:"index"`
	PnL        float64 `json:"pnl"`
	ActiveDays int     `json:"activeDays"`
}

type MonthGrid struct {
	Year          int          `json:"year"`
	Month         time.Month   `json:"month"`
	LeadingBlanks int          `json:"leadingBlanks"`
	Days          []DayBucket  `json:"days"`
	Weeks         []WeekBucket `json:"weeks"`
	PnL           float64      `json:"pnl"`
	ActiveDays    int          `json:"activeDays"`
}

// Calendar buckets trades into the days of one calendar month, in loc.
// Trades outside the month are ignored; a day with no trades still gets a
// bucket with zero counts.
func Calendar(trades []domain.Trade, year int, month time.Month, loc *time.Location) MonthGrid {
	grid := MonthGrid{Year: year, Month: month}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	lastDay := first.AddDate(0, 1, -1).Day()
	grid.LeadingBlanks = int(first.Weekday())

	grid.Days = make([]DayBucket, lastDay)
	for day := 1; day <= lastDay; day++ {
		bucket := DayBucket{Day: day, Date: time.Date(year, month, day, 0, 0, 0, 0, loc)}

		var wins int
		for _, t := range trades {
			ts := t.Timestamp.In(loc)
			if ts.Day() != day || ts.Month() != month || ts.Year() != year {
				continue
			}
			bucket.TradeCount++
			bucket.PnL += t.RealizedPnL()
			bucket.RMultiple += RMultiple(t)
			if t.RealizedPnL() > 0 {
				wins++
			}
		}
		if bucket.TradeCount > 0 {
			bucket.WinRate = float64(wins) / float64(bucket.TradeCount) * 100
		}

		grid.Days[day-1] = bucket
		grid.PnL += bucket.PnL
		if bucket.TradeCount > 0 {
			grid.ActiveDays++
		}
	}

	grid.Weeks = weekRollups(grid.Days, grid.LeadingBlanks)
	return grid
}

func weekRollups(days []DayBucket, leadingBlanks int) []WeekBucket {
	var weeks []WeekBucket
	week := WeekBucket{Index: 1}
	cells := leadingBlanks

	for _, d := range days {
		week.PnL += d.PnL
		if d.TradeCount > 0 {
			week.ActiveDays++
		}
		cells++
		if cells%7 == 0 {
			weeks = append(weeks, week)
			week = WeekBucket{Index: week.Index + 1}
		}
	}
	// Trailing partial row still counts as a week.
	if cells%7 != 0 {
		weeks = append(weeks, week)
	}
	return weeks
}
