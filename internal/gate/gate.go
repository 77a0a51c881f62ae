// Package gate implements the multi-phase trade-entry workflow: a pre-trade
// checklist (phase A), execution parameters (phase B), and media/notes
// (phase C), with a streak-breaker soft stop at submit time.
package gate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yourorg/trade-journal/internal/domain"
)

type Phase int

const (
	PhaseA Phase = iota
	PhaseB
	PhaseC
)

func (p Phase) String() string {
	switch p {
	case PhaseA:
		return "A"
	case PhaseB:
		return "B"
	case PhaseC:
		return "C"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Violation is one unmet guard condition, surfaced inline to the user.
// Guard failures are local and recoverable, never fatal.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Form holds everything entered across the three phases.
type Form struct {
	// Phase A: pre-trade checklist.
	MentalState      domain.MentalState `json:"mentalState"`
	SetupLevel       domain.SetupLevel  `json:"setupLevel"`
	SetupType        domain.SetupType   `json:"setupType"`
	ConfirmClose     bool               `json:"confirmClose"`
	ConfirmStructure bool               `json:"confirmStructure"`

	// Phase B: execution parameters.
	Symbol    string      `json:"symbol"`
	Side      domain.Side `json:"side"`
	Price     float64     `json:"price"`
	Quantity  float64     `json:"quantity"`
	StopLoss  float64     `json:"stopLoss"`
	ExitPrice float64     `json:"exitPrice"`
	Target    float64     `json:"target"`

	// Phase C: media and notes.
	Notes         string `json:"notes"`
	ScreenshotURL string `json:"screenshotUrl"`

	Timestamp time.Time `json:"timestamp"`
}

// RiskAmount is the dollar distance to the stop, shown live during phase B.
func (f Form) RiskAmount() float64 {
	risk := f.Price - f.StopLoss
	if risk < 0 {
		risk = -risk
	}
	return risk * f.Quantity
}

// ProjectedPnL is the realized result if the exit fills as planned. The
// committed trade's pnl is set to this value.
func (f Form) ProjectedPnL() float64 {
	if f.Side == domain.SideSell {
		return (f.Price - f.ExitPrice) * f.Quantity
	}
	return (f.ExitPrice - f.Price) * f.Quantity
}

// CheckPhaseA guards the A→B transition: all three checklist selections made
// and both confirmations ticked. Any failure blocks the whole transition.
func CheckPhaseA(f Form) []Violation {
	var v []Violation
	if !f.MentalState.Valid() {
		v = append(v, Violation{"mentalState", "select your current mental state"})
	}
	if !f.SetupLevel.Valid() {
		v = append(v, Violation{"setupLevel", "grade the setup before entering"})
	}
	if !f.SetupType.Valid() {
		v = append(v, Violation{"setupType", "pick the setup type"})
	}
	if !f.ConfirmClose {
		v = append(v, Violation{"confirmClose", "confirm the candle close"})
	}
	if !f.ConfirmStructure {
		v = append(v, Violation{"confirmStructure", "confirm market structure supports the trade"})
	}
	return v
}

// CheckPhaseB guards the B→C transition: all execution parameters present.
func CheckPhaseB(f Form) []Violation {
	var v []Violation
	if f.Symbol == "" {
		v = append(v, Violation{"symbol", "symbol is required"})
	}
	if !f.Side.Valid() {
		v = append(v, Violation{"side", "side must be BUY or SELL"})
	}
	if f.Price == 0 {
		v = append(v, Violation{"price", "entry price is required"})
	}
	if f.Quantity == 0 {
		v = append(v, Violation{"quantity", "quantity is required"})
	}
	if f.StopLoss == 0 {
		v = append(v, Violation{"stopLoss", "stop loss is required"})
	}
	if f.ExitPrice == 0 {
		v = append(v, Violation{"exitPrice", "exit price is required"})
	}
	return v
}

// TradeStore is the slice of the record store the gate needs: recent trades
// for the streak check and persistence on commit.
type TradeStore interface {
	Trades(ctx context.Context, userID string) ([]domain.Trade, error)
	AddTrade(ctx context.Context, t domain.Trade) (domain.Trade, error)
}

// Gate is the workflow for one trade entry. It is not safe for concurrent
// use; each entry session owns its own Gate.
type Gate struct {
	phase Phase
	form  Form

	defaultDate func() time.Time
}

func New(defaultDate func() time.Time) *Gate {
	if defaultDate == nil {
		defaultDate = time.Now
	}
	g := &Gate{defaultDate: defaultDate}
	g.form.Timestamp = defaultDate()
	return g
}

func (g *Gate) Phase() Phase { return g.phase }
func (g *Gate) Form() Form   { return g.form }

// SetForm replaces the working form without changing phase; field edits
// never advance or reject on their own.
func (g *Gate) SetForm(f Form) {
	if f.Timestamp.IsZero() {
		f.Timestamp = g.form.Timestamp
	}
	g.form = f
}

// Advance attempts the next linear transition. A non-empty violation list
// means the phase did not change.
func (g *Gate) Advance() []Violation {
	switch g.phase {
	case PhaseA:
		if v := CheckPhaseA(g.form); len(v) > 0 {
			return v
		}
		g.phase = PhaseB
	case PhaseB:
		if v := CheckPhaseB(g.form); len(v) > 0 {
			return v
		}
		g.phase = PhaseC
	}
	return nil
}

// Back steps to the previous phase; there is nothing before phase A.
func (g *Gate) Back() {
	if g.phase > PhaseA {
		g.phase--
	}
}

// SubmitResult distinguishes a committed trade from a streak-breaker soft
// stop. When NeedsConfirmation is set nothing was persisted; resubmitting
// with confirmed=true proceeds, and declining simply never resubmits.
type SubmitResult struct {
	Trade             *domain.Trade
	NeedsConfirmation bool
}

// Submit runs every guard once more, applies the streak breaker, and commits
// the trade. On success the gate resets to phase A with the date default
// kept; on failure the entered form survives untouched.
func (g *Gate) Submit(ctx context.Context, store TradeStore, userID string, confirmed bool) (SubmitResult, []Violation, error) {
	if v := CheckPhaseA(g.form); len(v) > 0 {
		return SubmitResult{}, v, nil
	}
	if v := CheckPhaseB(g.form); len(v) > 0 {
		return SubmitResult{}, v, nil
	}

	if !confirmed {
		recent, err := store.Trades(ctx, userID)
		if err != nil {
			return SubmitResult{}, nil, fmt.Errorf("streak check: %w", err)
		}
		if LossStreak(recent, g.form.Symbol, g.defaultDate()) {
			return SubmitResult{NeedsConfirmation: true}, nil, nil
		}
	}

	trade := g.buildTrade(userID)
	stored, err := store.AddTrade(ctx, trade)
	if err != nil {
		return SubmitResult{}, nil, fmt.Errorf("save trade: %w", err)
	}

	g.reset()
	return SubmitResult{Trade: &stored}, nil, nil
}

func (g *Gate) buildTrade(userID string) domain.Trade {
	f := g.form
	pnl := f.ProjectedPnL()
	t := domain.Trade{
		UserID:        userID,
		Symbol:        f.Symbol,
		Side:          f.Side,
		Price:         f.Price,
		Quantity:      f.Quantity,
		PnL:           domain.Float(pnl),
		Notes:         f.Notes,
		Timestamp:     f.Timestamp,
		MentalState:   f.MentalState,
		SetupLevel:    f.SetupLevel,
		SetupType:     f.SetupType,
		ScreenshotURL: f.ScreenshotURL,
		ExitPrice:     domain.Float(f.ExitPrice),
		StopLoss:      domain.Float(f.StopLoss),
	}
	if f.Target != 0 {
		t.Target = domain.Float(f.Target)
	}
	if risk := f.RiskAmount(); risk != 0 {
		t.RMultiple = domain.Float(pnl / risk)
	}
	switch {
	case pnl > 0:
		t.Outcome = domain.OutcomeWin
	case pnl < 0:
		t.Outcome = domain.OutcomeLoss
	default:
		t.Outcome = domain.OutcomeBreakeven
	}
	return t
}

func (g *Gate) reset() {
	g.phase = PhaseA
	g.form = Form{Timestamp: g.defaultDate()}
}

// LossStreak reports whether the user already has at least two trades for
// this symbol today and the most recent two both lost. That combination
// triggers the revenge-trading soft stop.
func LossStreak(trades []domain.Trade, symbol string, now time.Time) bool {
	var today []domain.Trade
	y, m, d := now.Date()
	for _, t := range trades {
		ty, tm, td := t.Timestamp.In(now.Location()).Date()
		if t.Symbol == symbol && ty == y && tm == m && td == d {
			today = append(today, t)
		}
	}
	if len(today) < 2 {
		return false
	}
	sort.SliceStable(today, func(i, j int) bool {
		return today[i].Timestamp.After(today[j].Timestamp)
	})
	return today[0].RealizedPnL() < 0 && today[1].RealizedPnL() < 0
}
