package user

import (
	"context"
	"fmt"
	"log"
)

// TransactionPurger deletes a user's transaction rows.
type TransactionPurger interface {
	DeleteByUser(ctx context.Context, userID string) error
}

// AccountPurger deletes a user's account rows.
type AccountPurger interface {
	DeleteByUser(ctx context.Context, userID string) error
}

// TokenPurger deletes a user's token records, any status.
type TokenPurger interface {
	DeleteAll(ctx context.Context, userID string) error
}

// Eraser removes everything a user owns across the data tables. The
// deletes run sequentially with no rollback; a failure leaves earlier
// deletes in place and the caller retries the whole erasure.
type Eraser struct {
	transactions TransactionPurger
	accounts     AccountPurger
	tokens       TokenPurger
}

// NewEraser creates a user data eraser.
func NewEraser(transactions TransactionPurger, accounts AccountPurger, tokens TokenPurger) *Eraser {
	return &Eraser{transactions: transactions, accounts: accounts, tokens: tokens}
}

// Erase deletes the user's transactions, accounts, and tokens, in that
// order. Callers must verify the requesting identity first.
func (e *Eraser) Erase(ctx context.Context, userID string) error {
	if err := e.transactions.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	if err := e.accounts.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete accounts: %w", err)
	}
	if err := e.tokens.DeleteAll(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}

	log.Printf("User %s: all stored data deleted", userID)
	return nil
}
