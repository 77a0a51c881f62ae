package domain

import (
	"time"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

type ExpenseType string

const (
	TypeExpense ExpenseType = "EXPENSE"
	TypeRefund  ExpenseType = "REFUND"
)

func (t ExpenseType) Valid() bool {
	return t == TypeExpense || t == TypeRefund
}

// MentalState is the trader's self-reported state at entry time. The set is
// closed: the pre-trade checklist only accepts one of these values.
type MentalState string

const (
	MentalCalm    MentalState = "CALM"
	MentalFocused MentalState = "FOCUSED"
	MentalNeutral MentalState = "NEUTRAL"
	MentalAnxious MentalState = "ANXIOUS"
	MentalTilted  MentalState = "TILTED"
)

func (m MentalState) Valid() bool {
	switch m {
	case MentalCalm, MentalFocused, MentalNeutral, MentalAnxious, MentalTilted:
		return true
	}
	return false
}

type SetupLevel string

const (
	SetupAPlus SetupLevel = "A_PLUS"
	SetupA     SetupLevel = "A"
	SetupB     SetupLevel = "B"
	SetupC     SetupLevel = "C"
)

func (l SetupLevel) Valid() bool {
	switch l {
	case SetupAPlus, SetupA, SetupB, SetupC:
		return true
	}
	return false
}

type SetupType string

const (
	SetupBreakout     SetupType = "BREAKOUT"
	SetupPullback     SetupType = "PULLBACK"
	SetupReversal     SetupType = "REVERSAL"
	SetupRange        SetupType = "RANGE"
	SetupContinuation SetupType = "CONTINUATION"
)

func (t SetupType) Valid() bool {
	switch t {
	case SetupBreakout, SetupPullback, SetupReversal, SetupRange, SetupContinuation:
		return true
	}
	return false
}

type Outcome string

const (
	OutcomeWin       Outcome = "WIN"
	OutcomeLoss      Outcome = "LOSS"
	OutcomeBreakeven Outcome = "BREAKEVEN"
)

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// Trade field names follow the persisted journal document format; optional
// numerics are nil when the value was never recorded (e.g. pnl of a still-open
// trade), which aggregation treats as zero.
type Trade struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	Symbol        string      `json:"symbol"`
	Side          Side        `json:"side"`
	Price         float64     `json:"price"`
	Quantity      float64     `json:"quantity"`
	PnL           *float64    `json:"pnl,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	MentalState   MentalState `json:"mentalState,omitempty"`
	SetupLevel    SetupLevel  `json:"setupLevel,omitempty"`
	SetupType     SetupType   `json:"setupType,omitempty"`
	Outcome       Outcome     `json:"outcome,omitempty"`
	ScreenshotURL string      `json:"screenshotUrl,omitempty"`
	ExitPrice     *float64    `json:"exitPrice,omitempty"`
	StopLoss      *float64    `json:"stopLoss,omitempty"`
	Target        *float64    `json:"target,omitempty"`
	RMultiple     *float64    `json:"rMultiple,omitempty"`
}

// RealizedPnL treats a missing pnl as breakeven.
func (t Trade) RealizedPnL() float64 {
	if t.PnL == nil {
		return 0
	}
	return *t.PnL
}

// TradePatch carries a partial update. Only non-nil fields are merged into
// the stored record; everything else is left untouched.
type TradePatch struct {
	Price    *float64 `json:"price,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
	PnL      *float64 `json:"pnl,omitempty"`
	Notes    *string  `json:"notes,omitempty"`
}

// Expense amount is always a positive magnitude; Type decides the sign when
// aggregating (a REFUND reduces net spend).
type Expense struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Date        time.Time   `json:"date"`
	Description string      `json:"description"`
	Amount      float64     `json:"amount"`
	Category    string      `json:"category"`
	Type        ExpenseType `json:"type"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (e Expense) SignedAmount() float64 {
	if e.Type == TypeRefund {
		return -e.Amount
	}
	return e.Amount
}

func Float(v float64) *float64 { return &v }
