package account

import "context"

// Repository defines the row store access for account rows.
// This interface is defined in the domain layer, but implemented in the
// infrastructure layer.
type Repository interface {
	// ListByUser returns all account rows for a user, in store order.
	ListByUser(ctx context.Context, userID string) ([]*Account, error)

	// ListByUserAndItem returns the account rows belonging to one
	// institution connection.
	ListByUserAndItem(ctx context.Context, userID, itemID string) ([]*Account, error)

	// CreateBatch inserts account rows in one batch request. Rows
	// inserted before a failure are not rolled back.
	CreateBatch(ctx context.Context, accounts []CreateParams) error

	// UpdateBalances patches the balance fields of an existing row.
	UpdateBalances(ctx context.Context, rowID int64, patch BalancePatch) error

	// DeleteByUserAndItem deletes the rows of one institution connection.
	DeleteByUserAndItem(ctx context.Context, userID, itemID string) error

	// DeleteByUser deletes every account row for a user.
	DeleteByUser(ctx context.Context, userID string) error
}
