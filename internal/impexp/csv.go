// Package impexp handles bulk trade import from broker CSV exports.
package impexp

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/trade-journal/internal/domain"
)

// Expected column order. Date, PnL and Notes are optional.
// Symbol, Side, Price, Qty, Date, PnL, Notes

type BatchAdder interface {
	AddTrades(ctx context.Context, trades []domain.Trade) ([]domain.Trade, error)
}

type Result struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// Import parses r and batch-inserts the valid rows for the user. Invalid
// rows are skipped and counted, never fatal to the batch. Only a storage
// failure returns an error.
func Import(ctx context.Context, store BatchAdder, userID string, r io.Reader, now time.Time) (Result, error) {
	trades, failed := ParseTrades(r, userID, now)
	if len(trades) > 0 {
		if _, err := store.AddTrades(ctx, trades); err != nil {
			return Result{}, fmt.Errorf("import trades: %w", err)
		}
	}
	return Result{Imported: len(trades), Failed: failed}, nil
}

// ParseTrades reads CSV rows into trade records, returning the valid trades
// and the count of skipped rows. A header line is detected heuristically:
// the first line mentioning "symbol" is skipped.
func ParseTrades(r io.Reader, userID string, now time.Time) ([]domain.Trade, int) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var trades []domain.Trade
	failed := 0
	first := true

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			failed++
			first = false
			continue
		}

		if first {
			first = false
			if isHeader(row) {
				continue
			}
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}

		t, ok := parseRow(row, userID, now)
		if !ok {
			failed++
			continue
		}
		trades = append(trades, t)
	}
	return trades, failed
}

func isHeader(row []string) bool {
	for _, field := range row {
		if strings.Contains(strings.ToLower(field), "symbol") {
			return true
		}
	}
	return false
}

func parseRow(row []string, userID string, now time.Time) (domain.Trade, bool) {
	if len(row) < 4 {
		return domain.Trade{}, false
	}

	symbol := strings.ToUpper(strings.TrimSpace(row[0]))
	side := domain.Side(strings.ToUpper(strings.TrimSpace(row[1])))
	if symbol == "" || !side.Valid() {
		return domain.Trade{}, false
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil || price <= 0 {
		return domain.Trade{}, false
	}
	qty, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
	if err != nil || qty <= 0 {
		return domain.Trade{}, false
	}

	t := domain.Trade{
		UserID:    userID,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Timestamp: now,
	}

	if len(row) > 4 {
		if ts, ok := parseDate(strings.TrimSpace(row[4])); ok {
			t.Timestamp = ts
		}
	}
	if len(row) > 5 {
		if pnl, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64); err == nil {
			t.PnL = domain.Float(pnl)
		}
	}
	if len(row) > 6 {
		t.Notes = strings.TrimSpace(row[6])
	}
	return t, true
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	time.DateOnly,
	"01/02/2006",
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
