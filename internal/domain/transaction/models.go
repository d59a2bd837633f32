// Package transaction stores and lists the append-only transaction log.
package transaction

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrMissingAccountID = errors.New("account id is required")
	ErrMissingDate      = errors.New("transaction date is required")
)

// Transaction is one stored transaction row. Rows are immutable once
// stored; the only delete path is full user-data erasure.
type Transaction struct {
	RowID       int64           `json:"id"`
	AccountID   string          `json:"account_id"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

// Entry is one transaction to store, as submitted by the client.
type Entry struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

// Validate checks the minimal required fields of an entry.
func (e Entry) Validate() error {
	if e.AccountID == "" {
		return ErrMissingAccountID
	}
	if e.Date == "" {
		return ErrMissingDate
	}
	return nil
}

// Repository defines the row store access for transaction rows.
type Repository interface {
	// CreateBatch inserts transaction rows in one batch request.
	CreateBatch(ctx context.Context, userID string, entries []Entry) error

	// ListByUser returns a user's transactions, optionally filtered to
	// one account. accountID may be empty.
	ListByUser(ctx context.Context, userID, accountID string) ([]*Transaction, error)

	// DeleteByUser deletes every transaction row for a user.
	DeleteByUser(ctx context.Context, userID string) error
}
