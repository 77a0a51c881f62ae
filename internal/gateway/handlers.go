package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/trade-journal/internal/auth"
	"github.com/yourorg/trade-journal/internal/domain"
	"github.com/yourorg/trade-journal/internal/gate"
	"github.com/yourorg/trade-journal/internal/impexp"
	"github.com/yourorg/trade-journal/internal/scan"
	"github.com/yourorg/trade-journal/internal/stats"
)

// TradeStore is the logical contract shared by the document store and the
// relational variant; handlers never know which one they are talking to.
type TradeStore interface {
	Trades(ctx context.Context, userID string) ([]domain.Trade, error)
	TradesInMonth(ctx context.Context, userID string, year int, month time.Month, loc *time.Location) ([]domain.Trade, error)
	AddTrade(ctx context.Context, t domain.Trade) (domain.Trade, error)
	AddTrades(ctx context.Context, trades []domain.Trade) ([]domain.Trade, error)
	UpdateTrade(ctx context.Context, userID, id string, patch domain.TradePatch) (*domain.Trade, error)
	DeleteTrade(ctx context.Context, userID, id string) (bool, error)
}

type UserStore interface {
	AddUser(ctx context.Context, u domain.User) (domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

type ExpenseStore interface {
	Expenses(ctx context.Context, userID string) ([]domain.Expense, error)
	AddExpense(ctx context.Context, e domain.Expense) (domain.Expense, error)
	DeleteExpense(ctx context.Context, userID, id string) (bool, error)
}

type Handlers struct {
	users    UserStore
	trades   TradeStore
	expenses ExpenseStore
	scanner  *scan.Scanner
	jwtSvc   *auth.JWTService
	hub      *Hub
	logger   *slog.Logger
	loc      *time.Location
}

func NewHandlers(
	users UserStore,
	trades TradeStore,
	expenses ExpenseStore,
	scanner *scan.Scanner,
	jwtSvc *auth.JWTService,
	hub *Hub,
	logger *slog.Logger,
	loc *time.Location,
) *Handlers {
	if loc == nil {
		loc = time.Local
	}
	return &Handlers{
		users:    users,
		trades:   trades,
		expenses: expenses,
		scanner:  scanner,
		jwtSvc:   jwtSvc,
		hub:      hub,
		logger:   logger,
		loc:      loc,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	existing, err := h.users.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	user, err := h.users.AddUser(r.Context(), domain.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := h.jwtSvc.Sign(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{
		Token: token,
		User:  userResponse{ID: user.ID, Email: user.Email, Name: user.Name},
	})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.users.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := h.jwtSvc.Sign(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Token: token,
		User:  userResponse{ID: user.ID, Email: user.Email, Name: user.Name},
	})
}

// GetTrades returns the user's trades, optionally windowed to ?year= and
// ?month= (1-12).
func (h *Handlers) GetTrades(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromCtx(r.Context())
	trades, ok := h.loadTrades(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

func (h *Handlers) loadTrades(w http.ResponseWriter, r *http.Request, userID string) ([]domain.Trade, bool) {
	year, month, windowed, err := monthWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	var trades []domain.Trade
	if windowed {
		trades, err = h.trades.TradesInMonth(r.Context(), userID, year, month, h.loc)
	} else {
		trades, err = h.trades.Trades(r.Context(), userID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch trades")
		return nil, false
	}
	return trades, true
}

func monthWindow(r *http.Request) (int, time.Month, bool, error) {
	yearStr := r.URL.Query().Get("year")
	monthStr := r.URL.Query().Get("month")
	if yearStr == "" && monthStr == "" {
		return 0, 0, false, nil
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return 0, 0, false, errInvalidWindow
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false, errInvalidWindow
	}
	return year, time.Month(month), true, nil
}

var errInvalidWindow = errors.New("year and month (1-12) must both be given")

type createTradeRequest struct {
	Symbol    string      `json:"symbol"`
	Side      domain.Side `json:"side"`
	Price     float64     `json:"price"`
	Quantity  float64     `json:"quantity"`
	PnL       *float64    `json:"pnl,omitempty"`
	Notes     string      `json:"notes,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (h *Handlers) CreateTrade(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromCtx(r.Context())
	var req createTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" || !req.Side.Valid() || req.Price <= 0 || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "symbol, side, positive price and quantity are required")
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}
	trade, err := h.trades.AddTrade(r.Context(), domain.Trade{
		UserID:    userID,
		Symbol:    strings.ToUpper(req.Symbol),
		Side:      req.Side,
		Price:     req.Price,
		Quantity:  req.Quantity,
		PnL:       req.PnL,
		Notes:     req.Notes,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save trade")
		return
	}
	h.hub.Notify(Event{Type: "created", Entity: "trade", UserID: userID})
	writeJSON(w, http.StatusCreated, trade)
}

func (h *Handlers) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromCtx(r.Context())
	id := chi.URLParam(r, "id")
	var patch domain.TradePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	trade, err := h.trades.UpdateTrade(r.Context(), userID, id, patch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update trade")
		return
	}
	if trade == nil {
		writeError(w, http.StatusNotFound, "trade not found")
		return
	}
	h.hub.Notify(Event{Type: "updated", Entity: "trade", UserID: userID})
	writeJSON(w, http.StatusOK, trade)
}

func (h *Handlers) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromCtx(r.Context())
	id := chi.URLParam(r, "id")
	removed, err := h.trades.DeleteTrade(r.Context(), userID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete trade")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "trade not found")
		return
	}
	h.hub.Notify(Event{Type: "deleted", Entity: "trade", UserID: userID})
	w.WriteHeader(http.StatusNoContent)
}

type gateSubmitResponse struct {
	NeedsConfirmation bool          `json:"needsConfirmation,omitempty"`
	Message           string        `json:"message,omitempty"`
	Trade             *domain.Trade `json:"trade,omitempty"`
}

// SubmitGated runs a full gatekeeper submission: phase guards, the streak
// breaker, then persistence. ?confirm=true acknowledges the soft stop.
func (h *Handlers) SubmitGated(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromCtx(r.Context())
	var form gate.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	form.Symbol = strings.ToUpper(form.Symbol)
	confirmed := r.URL.Query().Get("confirm") == "true"

	g := gate.New(nil)
	g.SetForm(form)
	result, violations, err := g.Submit(r.Context(), h.trades, userID, confirmed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save trade, please try again")
		return
	}
	if len(violations) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"violations": violations})
		return
	}
	if result.NeedsConfirmation {
		writeJSON(w, http.StatusConflict, gateSubmitResponse{
			NeedsConfirmation: true,
			Message:           "two consecutive losses on this symbol today, confirm to proceed",
		})
		return
	}
	h.hub.Notify(Event{Type: "created", Entity: "trade", UserID: userID})
	writeJSON(w, http.StatusCreated, gateSubmitResponse{Trade: result.Trade})
}

func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromCtx(r.Context())
	trades, ok := h.loadTrades(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stats.Summarize(trades))
}

func (h *Handlers) GetCalendar(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromCtx(r.Context())
	year, month, windowed, err := monthWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !windowed {
		now := time.Now().In(h.loc)
		year, month = now.Year(), now.Month()
	}
	trades, err := h.trades.TradesInMonth(r.Context(), userID, year, month, h.loc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch trades")
		return
	}
	writeJSON(w, http.StatusOK, stats.Calendar(trades, year, month, h.loc))
}

func (h *Handlers) GetEquity(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromCtx(r.Context())
	trades, ok := h.loadTrades(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stats.EquityCurve(trades))
}

func (h *Handlers) GetExpenses(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromCtx(r.Context())
	expenses, err := h.expenses.Expenses(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch expenses")
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

type createExpenseRequest struct {
	Date        time.Time          `json:"date"`
	Description string             `json:"description"`
	Amount      float64            `json:"amount"`
	Category    string             `json:"category"`
	Type        domain.ExpenseType `json:"type,omitempty"`
}

func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromCtx(r.Context())
	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount <= 0 || req.Category == "" {
		writeError(w, http.StatusBadRequest, "positive amount and category are required")
		return
	}
	if req.Type != "" && !req.Type.Valid() {
		writeError(w, http.StatusBadRequest, "type must be EXPENSE or REFUND")
		return
	}
	if req.Date.IsZero() {
		req.Date = time.Now()
	}
	expense, err := h.expenses.AddExpense(r.Context(), domain.Expense{
		UserID:      userID,
		Date:        req.Date,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Type:        req.Type,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save expense")
		return
	}
	h.hub.Notify(Event{Type: "created", Entity: "expense", UserID: userID})
	writeJSON(w, http.StatusCreated, expense)
}

func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromCtx(r.Context())
	id := chi.URLParam(r, "id")
	removed, err := h.expenses.DeleteExpense(r.Context(), userID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	h.hub.Notify(Event{Type: "deleted", Entity: "expense", UserID: userID})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetExpenseCategories(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromCtx(r.Context())
	expenses, err := h.expenses.Expenses(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch expenses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": stats.CategoryBreakdown(expenses),
		"months":     stats.MonthlyNet(expenses, h.loc),
		"net":        stats.NetSpend(expenses),
	})
}

// ImportCSV bulk-imports trades from an uploaded file. Bad rows are counted,
// never fatal.
func (h *Handlers) ImportCSV(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromCtx(r.Context())
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "csv file is required")
		return
	}
	defer file.Close()

	result, err := impexp.Import(r.Context(), h.trades, userID, file, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "import failed, please try again")
		return
	}
	if result.Imported > 0 {
		h.hub.Notify(Event{Type: "imported", Entity: "trade", UserID: userID})
	}
	writeJSON(w, http.StatusOK, result)
}

// ScanScreenshot hands the uploaded image to the OCR collaborator and
// returns whatever fields could be extracted. Always 200: a failed scan is
// an empty result, not an error.
func (h *Handlers) ScanScreenshot(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	result := h.scanner.Scan(r.Context(), file, header.Filename)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
