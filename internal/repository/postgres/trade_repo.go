package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/yourorg/trade-journal/internal/domain"
)

// TradeRepo is the server-backed variant of the record store's trade
// collection: same logical contract, relational table underneath. Numeric
// columns are fixed-precision decimals, converted to float64 at this
// boundary.
type TradeRepo struct {
	db  *sqlx.DB
	loc *time.Location
}

func NewTradeRepo(db *sqlx.DB, loc *time.Location) *TradeRepo {
	if loc == nil {
		loc = time.Local
	}
	return &TradeRepo{db: db, loc: loc}
}

type tradeRow struct {
	ID            string              `db:"id"`
	UserID        string              `db:"user_id"`
	Symbol        string              `db:"symbol"`
	Side          string              `db:"side"`
	Price         decimal.Decimal     `db:"price"`
	Quantity      decimal.Decimal     `db:"quantity"`
	PnL           decimal.NullDecimal `db:"pnl"`
	Notes         *string             `db:"notes"`
	Timestamp     time.Time           `db:"timestamp"`
	CreatedAt     time.Time           `db:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at"`
	MentalState   *string             `db:"mental_state"`
	SetupLevel    *string             `db:"setup_level"`
	SetupType     *string             `db:"setup_type"`
	Outcome       *string             `db:"outcome"`
	ScreenshotURL *string             `db:"screenshot_url"`
	ExitPrice     decimal.NullDecimal `db:"exit_price"`
	StopLoss      decimal.NullDecimal `db:"stop_loss"`
	Target        decimal.NullDecimal `db:"target"`
	RMultiple     decimal.NullDecimal `db:"r_multiple"`
}

func (r tradeRow) toDomain() domain.Trade {
	t := domain.Trade{
		ID:        r.ID,
		UserID:    r.UserID,
		Symbol:    r.Symbol,
		Side:      domain.Side(r.Side),
		Price:     r.Price.InexactFloat64(),
		Quantity:  r.Quantity.InexactFloat64(),
		PnL:       nullFloat(r.PnL),
		Timestamp: r.Timestamp,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		ExitPrice: nullFloat(r.ExitPrice),
		StopLoss:  nullFloat(r.StopLoss),
		Target:    nullFloat(r.Target),
		RMultiple: nullFloat(r.RMultiple),
	}
	if r.Notes != nil {
		t.Notes = *r.Notes
	}
	if r.MentalState != nil {
		t.MentalState = domain.MentalState(*r.MentalState)
	}
	if r.SetupLevel != nil {
		t.SetupLevel = domain.SetupLevel(*r.SetupLevel)
	}
	if r.SetupType != nil {
		t.SetupType = domain.SetupType(*r.SetupType)
	}
	if r.Outcome != nil {
		t.Outcome = domain.Outcome(*r.Outcome)
	}
	if r.ScreenshotURL != nil {
		t.ScreenshotURL = *r.ScreenshotURL
	}
	return t
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	v := d.Decimal.InexactFloat64()
	return &v
}

func nullDec(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*f))
}

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

const tradeColumns = `id, user_id, symbol, side, price, quantity, pnl, notes,
	timestamp, created_at, updated_at, mental_state, setup_level, setup_type,
	outcome, screenshot_url, exit_price, stop_loss, target, r_multiple`

func (r *TradeRepo) AddTrade(ctx context.Context, t domain.Trade) (domain.Trade, error) {
	t.ID = uuid.New().String()
	row := r.db.QueryRowxContext(ctx, `
		INSERT INTO trades (id, user_id, symbol, side, price, quantity, pnl, notes,
			timestamp, mental_state, setup_level, setup_type, outcome,
			screenshot_url, exit_price, stop_loss, target, r_multiple)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at`,
		t.ID, t.UserID, t.Symbol, string(t.Side),
		decimal.NewFromFloat(t.Price), decimal.NewFromFloat(t.Quantity),
		nullDec(t.PnL), strOrNil(t.Notes), t.Timestamp,
		strOrNil(string(t.MentalState)), strOrNil(string(t.SetupLevel)),
		strOrNil(string(t.SetupType)), strOrNil(string(t.Outcome)),
		strOrNil(t.ScreenshotURL), nullDec(t.ExitPrice), nullDec(t.StopLoss),
		nullDec(t.Target), nullDec(t.RMultiple))
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return domain.Trade{}, fmt.Errorf("insert trade: %w", err)
	}
	return t, nil
}

func (r *TradeRepo) AddTrades(ctx context.Context, trades []domain.Trade) ([]domain.Trade, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	created := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		t.ID = uuid.New().String()
		row := tx.QueryRowxContext(ctx, `
			INSERT INTO trades (id, user_id, symbol, side, price, quantity, pnl, notes, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at, updated_at`,
			t.ID, t.UserID, t.Symbol, string(t.Side),
			decimal.NewFromFloat(t.Price), decimal.NewFromFloat(t.Quantity),
			nullDec(t.PnL), strOrNil(t.Notes), t.Timestamp)
		if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("insert trade: %w", err)
		}
		created = append(created, t)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return created, nil
}

// Trades lists the user's trades newest-insert-first, matching the document
// store's canonical order. Unknown users yield an empty slice.
func (r *TradeRepo) Trades(ctx context.Context, userID string) ([]domain.Trade, error) {
	var rows []tradeRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+tradeColumns+` FROM trades
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	out := make([]domain.Trade, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// TradesInMonth windows the list to one calendar month of loc.
func (r *TradeRepo) TradesInMonth(ctx context.Context, userID string, year int, month time.Month, loc *time.Location) ([]domain.Trade, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)

	var rows []tradeRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+tradeColumns+` FROM trades
		WHERE user_id = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp DESC`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list trades for month: %w", err)
	}
	out := make([]domain.Trade, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// UpdateTrade merges the patch into the user's row; an unknown id, or one
// owned by someone else, is (nil, nil), not an error.
func (r *TradeRepo) UpdateTrade(ctx context.Context, userID, id string, patch domain.TradePatch) (*domain.Trade, error) {
	var row tradeRow
	err := r.db.QueryRowxContext(ctx, `
		UPDATE trades SET
			price      = COALESCE($3, price),
			quantity   = COALESCE($4, quantity),
			pnl        = COALESCE($5, pnl),
			notes      = COALESCE($6, notes),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+tradeColumns,
		id, userID, nullDec(patch.Price), nullDec(patch.Quantity),
		nullDec(patch.PnL), patch.Notes).StructScan(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update trade: %w", err)
	}
	t := row.toDomain()
	return &t, nil
}

func (r *TradeRepo) DeleteTrade(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM trades WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete trade: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
