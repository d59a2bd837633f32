package transaction

import (
	"context"
	"fmt"
)

// Service contains the business logic for the transaction log.
type Service struct {
	repo Repository
}

// NewService creates a new transaction service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// StoreBatch validates and stores a batch of transactions for a user.
// There is no rollback: rows inserted before a failure stay inserted.
func (s *Service) StoreBatch(ctx context.Context, userID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	for i, entry := range entries {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	return s.repo.CreateBatch(ctx, userID, entries)
}

// ListByUser returns a user's transactions, optionally filtered to one
// account.
func (s *Service) ListByUser(ctx context.Context, userID, accountID string) ([]*Transaction, error) {
	return s.repo.ListByUser(ctx, userID, accountID)
}

// DeleteByUser removes a user's entire transaction log. Used only for
// full account erasure.
func (s *Service) DeleteByUser(ctx context.Context, userID string) error {
	return s.repo.DeleteByUser(ctx, userID)
}
