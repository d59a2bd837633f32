// Package token stores, retrieves, and revokes provider access tokens,
// encrypted at rest.
package token

import (
	"context"
	"time"
)

// Status is the lifecycle state of a token record.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
	StatusError   Status = "error"
)

// Record is one linkage between a user and an institution connection.
// The plaintext access credential is never persisted; only
// EncryptedSecret is stored.
type Record struct {
	RowID           int64
	ItemID          string
	UserID          string
	EncryptedSecret string
	InstitutionID   string
	InstitutionName string
	Status          Status
	CreatedAt       time.Time
	LastUpdated     time.Time
}

// CreateParams contains the fields for inserting a new token record.
type CreateParams struct {
	ItemID          string
	UserID          string
	EncryptedSecret string
	InstitutionID   string
	InstitutionName string
	Status          Status
	CreatedAt       time.Time
	LastUpdated     time.Time
}

// Repository defines the row store access for token records.
// Implemented by the baserow infrastructure package.
type Repository interface {
	// Insert creates a new token record and returns it with its row id.
	Insert(ctx context.Context, params CreateParams) (*Record, error)

	// FindActive returns the active record for (userID, itemID), or
	// nil (no error) when none exists.
	FindActive(ctx context.Context, userID, itemID string) (*Record, error)

	// ListActive returns all active records for a user, in store order.
	ListActive(ctx context.Context, userID string) ([]*Record, error)

	// SetStatus updates a record's status and last_updated timestamp.
	SetStatus(ctx context.Context, rowID int64, status Status, at time.Time) error

	// DeleteByUser deletes every token record (any status) for a user.
	DeleteByUser(ctx context.Context, userID string) error
}
