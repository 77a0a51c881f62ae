package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/yourorg/trade-journal/internal/domain"
)

// CorruptPolicy decides what happens when the stored document cannot be
// parsed. RecoverDrop falls back to an empty initial document so a broken
// blob never blocks usage; the cost is silent loss of whatever was in it.
// RecoverFail surfaces the parse error instead.
type CorruptPolicy int

const (
	RecoverDrop CorruptPolicy = iota
	RecoverFail
)

// Store is CRUD over the three collections of a single serialized document.
// Every operation reads the document whole, mutates it, and rewrites it
// whole. The mutex serializes callers within this process; across processes
// sharing a backend the last full-document write wins, with no conflict
// detection.
type Store struct {
	mu      sync.Mutex
	backend Backend
	policy  CorruptPolicy
	logger  *slog.Logger

	now func() time.Time
}

func NewStore(backend Backend, policy CorruptPolicy, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		policy:  policy,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Store) load(ctx context.Context) (Document, error) {
	data, err := s.backend.Get(ctx, StorageKey)
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	if data == nil {
		return s.initialize(ctx)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		if s.policy == RecoverFail {
			return Document{}, fmt.Errorf("parse document: %w", err)
		}
		s.logger.Warn("journal document unreadable, falling back to empty document", "err", err)
		return initialDocument(), nil
	}
	return doc, nil
}

// initialize runs once, when the versioned key has never been written: it
// migrates a legacy document if one exists, otherwise seeds the initial one.
func (s *Store) initialize(ctx context.Context) (Document, error) {
	old, err := s.backend.Get(ctx, legacyStorageKey)
	if err != nil {
		return Document{}, fmt.Errorf("read legacy document: %w", err)
	}
	if old != nil {
		var legacy legacyDocument
		if uerr := json.Unmarshal(old, &legacy); uerr != nil {
			s.logger.Warn("legacy journal document unreadable, ignoring", "err", uerr)
		} else {
			doc := migrateLegacy(legacy)
			if err := s.save(ctx, doc); err != nil {
				return Document{}, err
			}
			s.logger.Info("migrated legacy journal document",
				"trades", len(doc.Trades), "expenses", len(doc.Expenses))
			return doc, nil
		}
	}

	doc := initialDocument()
	if err := s.save(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *Store) save(ctx context.Context, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.backend.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func (s *Store) Users(ctx context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}

func (s *Store) AddUser(ctx context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = s.newID()
	doc.Users = append(doc.Users, u)
	if err := s.save(ctx, doc); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// FindUserByEmail matches case-insensitively; first match wins. A missing
// user is (nil, nil), not an error.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doc.Users {
		if strings.EqualFold(doc.Users[i].Email, email) {
			u := doc.Users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// Trades returns the user's trades in storage order (most recent insert
// first). An empty or unknown userID yields an empty slice, never an error.
func (s *Store) Trades(ctx context.Context, userID string) ([]domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Trade{}
	if userID == "" {
		return out, nil
	}
	for _, t := range doc.Trades {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

// TradesInMonth filters to trades whose timestamp falls in the given calendar
// month of loc.
func (s *Store) TradesInMonth(ctx context.Context, userID string, year int, month time.Month, loc *time.Location) ([]domain.Trade, error) {
	trades, err := s.Trades(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []domain.Trade{}
	for _, t := range trades {
		ts := t.Timestamp.In(loc)
		if ts.Year() == year && ts.Month() == month {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) AddTrade(ctx context.Context, t domain.Trade) (domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return domain.Trade{}, err
	}
	now := s.now()
	t.ID = s.newIDAt(now)
	t.CreatedAt = now
	t.UpdatedAt = now
	doc.Trades = append([]domain.Trade{t}, doc.Trades...)
	if err := s.save(ctx, doc); err != nil {
		return domain.Trade{}, err
	}
	return t, nil
}

// AddTrades is the bulk-import variant: every created record shares one
// creation timestamp.
func (s *Store) AddTrades(ctx context.Context, trades []domain.Trade) ([]domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	created := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		t.ID = s.newIDAt(now)
		t.CreatedAt = now
		t.UpdatedAt = now
		created = append(created, t)
	}
	doc.Trades = append(created, doc.Trades...)
	if err := s.save(ctx, doc); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTrade merges the patch into the user's record and bumps UpdatedAt.
// An unknown id, or one owned by someone else, is a tolerated no-op signaled
// by (nil, nil).
func (s *Store) UpdateTrade(ctx context.Context, userID, id string, patch domain.TradePatch) (*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doc.Trades {
		if doc.Trades[i].ID != id || doc.Trades[i].UserID != userID {
			continue
		}
		t := &doc.Trades[i]
		if patch.Price != nil {
			t.Price = *patch.Price
		}
		if patch.Quantity != nil {
			t.Quantity = *patch.Quantity
		}
		if patch.PnL != nil {
			t.PnL = patch.PnL
		}
		if patch.Notes != nil {
			t.Notes = *patch.Notes
		}
		t.UpdatedAt = s.now()
		if err := s.save(ctx, doc); err != nil {
			return nil, err
		}
		updated := *t
		return &updated, nil
	}
	return nil, nil
}

func (s *Store) DeleteTrade(ctx context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	kept := doc.Trades[:0:0]
	for _, t := range doc.Trades {
		if t.ID != id || t.UserID != userID {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(doc.Trades) {
		return false, nil
	}
	doc.Trades = kept
	if err := s.save(ctx, doc); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Expenses(ctx context.Context, userID string) ([]domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Expense{}
	if userID == "" {
		return out, nil
	}
	for _, e := range doc.Expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) AddExpense(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return domain.Expense{}, err
	}
	now := s.now()
	e.ID = s.newIDAt(now)
	e.CreatedAt = now
	if e.Type == "" {
		e.Type = domain.TypeExpense
	}
	doc.Expenses = append([]domain.Expense{e}, doc.Expenses...)
	if err := s.save(ctx, doc); err != nil {
		return domain.Expense{}, err
	}
	return e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	kept := doc.Expenses[:0:0]
	for _, e := range doc.Expenses {
		if e.ID != id || e.UserID != userID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(doc.Expenses) {
		return false, nil
	}
	doc.Expenses = kept
	if err := s.save(ctx, doc); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) newID() string {
	return s.newIDAt(s.now())
}

// newIDAt yields ids ordered by creation time with a random suffix, unique
// enough for a personal journal but not guaranteed across processes.
func (s *Store) newIDAt(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}
