// Package linking orchestrates the institution link lifecycle:
// exchange, balance refresh, and disconnect.
package linking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/elleon003/thrivebase/internal/domain/account"
	"github.com/elleon003/thrivebase/internal/domain/token"
	"github.com/elleon003/thrivebase/internal/infrastructure/plaid"
)

// ErrItemNotLinked is returned when no usable access token exists for
// the requested item.
var ErrItemNotLinked = errors.New("item is not linked")

// ExchangeSummary is the outcome of linking one institution.
type ExchangeSummary struct {
	ItemID          string
	InstitutionName string
	AccountsAdded   int
}

// InstitutionStatus is one connected institution as shown to the client.
type InstitutionStatus struct {
	ItemID          string
	InstitutionID   string
	InstitutionName string
	Status          token.Status
}

// Service composes the provider client, the token vault, and the
// account rows into the link flows. It holds no state of its own.
type Service struct {
	provider plaid.ClientInterface
	vault    *token.Vault
	accounts account.Repository
}

// NewService creates a new linking service.
func NewService(provider plaid.ClientInterface, vault *token.Vault, accounts account.Repository) *Service {
	return &Service{provider: provider, vault: vault, accounts: accounts}
}

// CreateLinkToken creates a link token for the provider's linking
// widget.
func (s *Service) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	return s.provider.CreateLinkToken(ctx, userID)
}

// Exchange completes a link: it exchanges the public token, resolves
// the institution, stores the encrypted access token, and inserts the
// item's account rows in one batch. Rows inserted before a batch
// failure are not rolled back; re-running the exchange after a partial
// failure can duplicate account rows.
func (s *Service) Exchange(ctx context.Context, userID, publicToken string) (*ExchangeSummary, error) {
	exchange, err := s.provider.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange public token: %w", err)
	}

	institution, err := s.provider.GetItemInstitution(ctx, exchange.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve institution: %w", err)
	}

	if _, err := s.vault.Store(ctx, exchange.AccessToken, exchange.ItemID, userID, institution.ID, institution.Name); err != nil {
		return nil, fmt.Errorf("failed to store access token: %w", err)
	}

	providerAccounts, err := s.provider.GetAccounts(ctx, exchange.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	now := time.Now().UTC()
	rows := make([]account.CreateParams, 0, len(providerAccounts))
	for _, pa := range providerAccounts {
		rows = append(rows, toCreateParams(pa, exchange.ItemID, userID, now))
	}

	if len(rows) > 0 {
		if err := s.accounts.CreateBatch(ctx, rows); err != nil {
			return nil, fmt.Errorf("failed to store accounts: %w", err)
		}
	}

	log.Printf("User %s: linked %s with %d accounts", userID, institution.Name, len(rows))

	return &ExchangeSummary{
		ItemID:          exchange.ItemID,
		InstitutionName: institution.Name,
		AccountsAdded:   len(rows),
	}, nil
}

// RefreshAccounts re-fetches an item's balances from the provider and
// patches the matching stored rows in place. Returns the number of
// rows updated, or ErrItemNotLinked when no usable token exists.
func (s *Service) RefreshAccounts(ctx context.Context, userID, itemID string) (int, error) {
	accessToken, ok, err := s.vault.GetAccessToken(ctx, itemID, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrItemNotLinked
	}

	stored, err := s.accounts.ListByUserAndItem(ctx, userID, itemID)
	if err != nil {
		return 0, err
	}

	providerAccounts, err := s.provider.GetAccounts(ctx, accessToken)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	fresh := make(map[string]plaid.Account, len(providerAccounts))
	for _, pa := range providerAccounts {
		fresh[pa.AccountID] = pa
	}

	now := time.Now().UTC()
	updated := 0
	for _, row := range stored {
		pa, ok := fresh[row.AccountID]
		if !ok {
			continue
		}

		patch := account.BalancePatch{
			BalanceCurrent:   balanceOrZero(pa.Balances.Current),
			BalanceAvailable: pa.Balances.Available,
			LastUpdated:      now,
		}
		if err := s.accounts.UpdateBalances(ctx, row.RowID, patch); err != nil {
			return updated, err
		}
		updated++
	}

	return updated, nil
}

// Disconnect removes an item: the provider linkage is removed when a
// usable token exists, the token is revoked, and the item's account
// rows are deleted. Missing tokens do not block the row cleanup.
func (s *Service) Disconnect(ctx context.Context, userID, itemID string) error {
	accessToken, ok, err := s.vault.GetAccessToken(ctx, itemID, userID)
	if err != nil {
		return err
	}

	if ok {
		if err := s.provider.RemoveItem(ctx, accessToken); err != nil {
			// The provider-side removal is best effort: the local
			// revoke still invalidates the linkage for this system.
			log.Printf("User %s: provider item removal failed for %s: %v", userID, itemID, err)
		}
		if _, err := s.vault.Revoke(ctx, itemID, userID); err != nil {
			return err
		}
	}

	return s.accounts.DeleteByUserAndItem(ctx, userID, itemID)
}

// ConnectedInstitutions lists the user's active institution linkages.
func (s *Service) ConnectedInstitutions(ctx context.Context, userID string) ([]*InstitutionStatus, error) {
	records, err := s.vault.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	institutions := make([]*InstitutionStatus, 0, len(records))
	for _, rec := range records {
		institutions = append(institutions, &InstitutionStatus{
			ItemID:          rec.ItemID,
			InstitutionID:   rec.InstitutionID,
			InstitutionName: rec.InstitutionName,
			Status:          rec.Status,
		})
	}

	return institutions, nil
}

func toCreateParams(pa plaid.Account, itemID, userID string, now time.Time) account.CreateParams {
	params := account.CreateParams{
		AccountID:        pa.AccountID,
		ItemID:           itemID,
		UserID:           userID,
		Name:             pa.Name,
		Type:             pa.Type,
		BalanceCurrent:   balanceOrZero(pa.Balances.Current),
		BalanceAvailable: pa.Balances.Available,
		LastUpdated:      now,
	}
	if pa.OfficialName != nil {
		params.OfficialName = *pa.OfficialName
	}
	if pa.Subtype != nil {
		params.Subtype = *pa.Subtype
	}
	if pa.Balances.ISOCurrencyCode != nil {
		params.CurrencyCode = *pa.Balances.ISOCurrencyCode
	}
	return params
}

// balanceOrZero applies the "current defaults to 0" rule when the
// provider omits the reading.
func balanceOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
