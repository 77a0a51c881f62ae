package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/trade-journal/internal/domain"
)

func expense(category string, amount float64, typ domain.ExpenseType) domain.Expense {
	return domain.Expense{Category: category, Amount: amount, Type: typ}
}

func TestCategoryBreakdownNetsRefunds(t *testing.T) {
	t.Parallel()

	out := CategoryBreakdown([]domain.Expense{
		expense("Software", 100, domain.TypeExpense),
		expense("Software", 30, domain.TypeRefund),
		expense("Data", 50, domain.TypeExpense),
	})

	require.Len(t, out, 2)
	assert.Equal(t, CategoryTotal{Category: "Software", Net: 70}, out[0])
	assert.Equal(t, CategoryTotal{Category: "Data", Net: 50}, out[1])
}

func TestCategoryBreakdownDropsNonPositive(t *testing.T) {
	t.Parallel()

	out := CategoryBreakdown([]domain.Expense{
		expense("Software", 100, domain.TypeExpense),
		expense("Software", 100, domain.TypeRefund),
		expense("Data", 20, domain.TypeExpense),
		expense("Data", 50, domain.TypeRefund),
	})

	assert.Empty(t, out)
}

func TestCategoryBreakdownTiesSortByName(t *testing.T) {
	t.Parallel()

	out := CategoryBreakdown([]domain.Expense{
		expense("Books", 40, domain.TypeExpense),
		expense("Audio", 40, domain.TypeExpense),
	})

	require.Len(t, out, 2)
	assert.Equal(t, "Audio", out[0].Category)
	assert.Equal(t, "Books", out[1].Category)
}

func TestMonthlyNet(t *testing.T) {
	t.Parallel()

	dated := func(year int, month time.Month, amount float64, typ domain.ExpenseType) domain.Expense {
		return domain.Expense{
			Date:     time.Date(year, month, 15, 12, 0, 0, 0, time.UTC),
			Amount:   amount,
			Category: "Software",
			Type:     typ,
		}
	}

	out := MonthlyNet([]domain.Expense{
		dated(2024, time.February, 80, domain.TypeExpense),
		dated(2024, time.January, 100, domain.TypeExpense),
		dated(2024, time.January, 30, domain.TypeRefund),
		dated(2023, time.December, 25, domain.TypeExpense),
	}, time.UTC)

	require.Len(t, out, 3)
	assert.Equal(t, MonthTotal{Year: 2023, Month: time.December, Net: 25}, out[0])
	assert.Equal(t, MonthTotal{Year: 2024, Month: time.January, Net: 70}, out[1])
	assert.Equal(t, MonthTotal{Year: 2024, Month: time.February, Net: 80}, out[2])
}

func TestMonthlyNetKeepsRefundHeavyMonths(t *testing.T) {
	t.Parallel()

	out := MonthlyNet([]domain.Expense{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Amount: 50, Category: "Software", Type: domain.TypeRefund},
	}, time.UTC)

	require.Len(t, out, 1)
	assert.Equal(t, -50.0, out[0].Net)
}

func TestNetSpend(t *testing.T) {
	t.Parallel()

	total := NetSpend([]domain.Expense{
		expense("Software", 100, domain.TypeExpense),
		expense("Software", 30, domain.TypeRefund),
	})
	assert.Equal(t, 70.0, total)

	assert.Equal(t, 0.0, NetSpend(nil))
}
