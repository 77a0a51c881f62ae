package stats

import (
	"sort"
	"time"

	"github.com/yourorg/trade-journal/internal/domain"
)

type CategoryTotal struct {
	Category string  `json:"category"`
	Net      float64 `json:"net"`
}

// CategoryBreakdown nets each category's expenses against its refunds.
// Categories that net out to zero or below drop out of the distribution
// entirely rather than showing as negative slices. Results are sorted by net
// amount, largest first.
func CategoryBreakdown(expenses []domain.Expense) []CategoryTotal {
	totals := make(map[string]float64)
	for _, e := range expenses {
		totals[e.Category] += e.SignedAmount()
	}

	out := make([]CategoryTotal, 0, len(totals))
	for cat, net := range totals {
		if net <= 0 {
			continue
		}
		out = append(out, CategoryTotal{Category: cat, Net: net})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Net != out[j].Net {
			return out[i].Net > out[j].Net
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// NetSpend is the sign-adjusted total across all expenses.
func NetSpend(expenses []domain.Expense) float64 {
	var total float64
	for _, e := range expenses {
		total += e.SignedAmount()
	}
	return total
}

type MonthTotal struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Net   float64    `json:"net"`
}

// MonthlyNet buckets expenses into calendar months of loc and nets each
// bucket, oldest month first. Unlike the category view, refund-heavy months
// stay in the list with a negative net.
func MonthlyNet(expenses []domain.Expense, loc *time.Location) []MonthTotal {
	type key struct {
		year  int
		month time.Month
	}
	totals := make(map[key]float64)
	for _, e := range expenses {
		d := e.Date.In(loc)
		totals[key{d.Year(), d.Month()}] += e.SignedAmount()
	}

	out := make([]MonthTotal, 0, len(totals))
	for k, net := range totals {
		out = append(out, MonthTotal{Year: k.year, Month: k.month, Net: net})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}
