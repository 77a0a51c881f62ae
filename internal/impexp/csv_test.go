package impexp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/trade-journal/internal/domain"
)

type fakeAdder struct {
	added []domain.Trade
	err   error
}

func (f *fakeAdder) AddTrades(ctx context.Context, trades []domain.Trade) ([]domain.Trade, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.added = append(f.added, trades...)
	return trades, nil
}

var importNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestParseTradesFullRow(t *testing.T) {
	t.Parallel()

	csv := "AAPL,BUY,150.00,10,2024-01-01,50,gap and go\n"
	trades, failed := ParseTrades(strings.NewReader(csv), "u1", importNow)

	assert.Equal(t, 0, failed)
	require.Len(t, trades, 1)

	tr := trades[0]
	assert.Equal(t, "u1", tr.UserID)
	assert.Equal(t, "AAPL", tr.Symbol)
	assert.Equal(t, domain.SideBuy, tr.Side)
	assert.Equal(t, 150.0, tr.Price)
	assert.Equal(t, 10.0, tr.Quantity)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), tr.Timestamp)
	require.NotNil(t, tr.PnL)
	assert.Equal(t, 50.0, *tr.PnL)
	assert.Equal(t, "gap and go", tr.Notes)
}

func TestParseTradesSkipsHeader(t *testing.T) {
	t.Parallel()

	csv := "Symbol,Side,Price,Qty\nAAPL,BUY,150,10\n"
	trades, failed := ParseTrades(strings.NewReader(csv), "u1", importNow)

	assert.Equal(t, 0, failed)
	require.Len(t, trades, 1)
	assert.Equal(t, "AAPL", trades[0].Symbol)
}

func TestParseTradesNormalizesCase(t *testing.T) {
	t.Parallel()

	trades, failed := ParseTrades(strings.NewReader("aapl,buy,150,10\n"), "u1", importNow)
	assert.Equal(t, 0, failed)
	require.Len(t, trades, 1)
	assert.Equal(t, "AAPL", trades[0].Symbol)
	assert.Equal(t, domain.SideBuy, trades[0].Side)
}

func TestParseTradesBadRowsCounted(t *testing.T) {
	t.Parallel()

	csv := strings.Join([]string{
		"AAPL,HOLD,150,10",  // invalid side
		"AAPL,BUY,zero,10",  // bad price
		"AAPL,BUY,150,-5",   // non-positive quantity
		"AAPL,BUY",          // too few columns
		"TSLA,SELL,200,5",   // good
		"",                  // blank, skipped silently
	}, "\n")
	trades, failed := ParseTrades(strings.NewReader(csv), "u1", importNow)

	assert.Equal(t, 4, failed)
	require.Len(t, trades, 1)
	assert.Equal(t, "TSLA", trades[0].Symbol)
}

func TestParseTradesDateFallsBackToNow(t *testing.T) {
	t.Parallel()

	trades, _ := ParseTrades(strings.NewReader("AAPL,BUY,150,10,not-a-date\n"), "u1", importNow)
	require.Len(t, trades, 1)
	assert.Equal(t, importNow, trades[0].Timestamp)
}

func TestParseTradesDateLayouts(t *testing.T) {
	t.Parallel()

	csv := strings.Join([]string{
		"AAPL,BUY,1,1,2024-03-05T14:30:00Z",
		"AAPL,BUY,1,1,2024-03-05T14:30",
		"AAPL,BUY,1,1,2024-03-05",
		"AAPL,BUY,1,1,03/05/2024",
	}, "\n")
	trades, failed := ParseTrades(strings.NewReader(csv), "u1", importNow)

	assert.Equal(t, 0, failed)
	require.Len(t, trades, 4)
	for _, tr := range trades {
		assert.Equal(t, time.March, tr.Timestamp.Month())
		assert.Equal(t, 5, tr.Timestamp.Day())
	}
}

func TestImport(t *testing.T) {
	t.Parallel()

	adder := &fakeAdder{}
	csv := "AAPL,BUY,150,10\nAAPL,HOLD,1,1\n"
	result, err := Import(context.Background(), adder, "u1", strings.NewReader(csv), importNow)

	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 1, Failed: 1}, result)
	assert.Len(t, adder.added, 1)
}

func TestImportStorageFailureIsFatal(t *testing.T) {
	t.Parallel()

	adder := &fakeAdder{err: errors.New("backend down")}
	_, err := Import(context.Background(), adder, "u1", strings.NewReader("AAPL,BUY,150,10\n"), importNow)
	assert.Error(t, err)
}

func TestImportNothingValidSkipsStorage(t *testing.T) {
	t.Parallel()

	adder := &fakeAdder{err: errors.New("backend down")}
	result, err := Import(context.Background(), adder, "u1", strings.NewReader("AAPL,HOLD,1,1\n"), importNow)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 0, Failed: 1}, result)
}
