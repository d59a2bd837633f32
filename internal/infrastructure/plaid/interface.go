package plaid

import (
	"context"
)

// ClientInterface defines the methods required from the account
// aggregation provider client
type ClientInterface interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResult, error)
	GetItemInstitution(ctx context.Context, accessToken string) (*Institution, error)
	GetAccounts(ctx context.Context, accessToken string) ([]Account, error)
	RemoveItem(ctx context.Context, accessToken string) error
}
