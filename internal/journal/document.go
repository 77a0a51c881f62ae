package journal

import (
	"github.com/yourorg/trade-journal/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	// StorageKey is the versioned key the current document lives under.
	StorageKey = "trade-journal-data-v2"

	// legacyStorageKey is the pre-versioning single-collection document.
	legacyStorageKey = "trade-journal-data"

	// DefaultUserID tags historical records migrated from a legacy document,
	// which predates per-user ownership.
	DefaultUserID = "user-1"

	demoEmail    = "demo@example.com"
	demoName     = "Demo User"
	demoPassword = "password123"
)

// Document is the whole journal: it is read in full and rewritten in full on
// every mutation. Trades and expenses are kept most-recent-first.
type Document struct {
	Users    []domain.User    `json:"users"`
	Trades   []domain.Trade   `json:"trades"`
	Expenses []domain.Expense `json:"expenses"`
}

// legacyDocument is the v1 shape: no users collection, one implicit owner.
type legacyDocument struct {
	Trades   []domain.Trade   `json:"trades"`
	Expenses []domain.Expense `json:"expenses"`
}

func initialDocument() Document {
	return Document{
		Users:    []domain.User{demoUser()},
		Trades:   []domain.Trade{},
		Expenses: []domain.Expense{},
	}
}

func demoUser() domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt only fails on an invalid cost; the default cost is valid.
		panic(err)
	}
	return domain.User{
		ID:           DefaultUserID,
		Email:        demoEmail,
		Name:         demoName,
		PasswordHash: string(hash),
	}
}

// migrateLegacy rewrites a v1 document into the versioned shape, assigning all
// historical records to the default user.
func migrateLegacy(old legacyDocument) Document {
	doc := initialDocument()
	doc.Trades = old.Trades
	doc.Expenses = old.Expenses
	for i := range doc.Trades {
		doc.Trades[i].UserID = DefaultUserID
	}
	for i := range doc.Expenses {
		doc.Expenses[i].UserID = DefaultUserID
	}
	return doc
}
