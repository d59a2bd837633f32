package baserow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/elleon003/thrivebase/internal/domain/account"
)

type accountRow struct {
	ID               int64            `json:"id,omitempty"`
	AccountID        string           `json:"plaid_account_id"`
	ItemID           string           `json:"plaid_item_id"`
	UserID           string           `json:"user_id"`
	Name             string           `json:"name"`
	OfficialName     string           `json:"official_name,omitempty"`
	Type             string           `json:"type"`
	Subtype          string           `json:"subtype,omitempty"`
	BalanceCurrent   decimal.Decimal  `json:"balance_current"`
	BalanceAvailable *decimal.Decimal `json:"balance_available,omitempty"`
	CurrencyCode     string           `json:"iso_currency_code,omitempty"`
	LastUpdated      string           `json:"last_updated,omitempty"`
}

func (r accountRow) toAccount() *account.Account {
	return &account.Account{
		RowID:            r.ID,
		AccountID:        r.AccountID,
		ItemID:           r.ItemID,
		UserID:           r.UserID,
		Name:             r.Name,
		OfficialName:     r.OfficialName,
		Type:             r.Type,
		Subtype:          r.Subtype,
		BalanceCurrent:   r.BalanceCurrent,
		BalanceAvailable: r.BalanceAvailable,
		CurrencyCode:     r.CurrencyCode,
		LastUpdated:      parseTime(r.LastUpdated),
	}
}

// AccountRepository implements account.Repository against the accounts
// table.
type AccountRepository struct {
	client  *Client
	tableID string
}

var _ account.Repository = (*AccountRepository)(nil)

func NewAccountRepository(client *Client, tableID string) *AccountRepository {
	return &AccountRepository{client: client, tableID: tableID}
}

// ListByUser returns every account row for a user, in store order.
func (r *AccountRepository) ListByUser(ctx context.Context, userID string) ([]*account.Account, error) {
	filter := url.Values{}
	filter.Set("user_id", userID)
	return r.list(ctx, filter)
}

// ListByUserAndItem returns the accounts of one linked item.
func (r *AccountRepository) ListByUserAndItem(ctx context.Context, userID, itemID string) ([]*account.Account, error) {
	filter := url.Values{}
	filter.Set("user_id", userID)
	filter.Set("plaid_item_id", itemID)
	return r.list(ctx, filter)
}

func (r *AccountRepository) list(ctx context.Context, filter url.Values) ([]*account.Account, error) {
	if r.tableID == "" {
		return nil, ErrTableNotConfigured
	}

	list, err := r.client.ListRows(ctx, r.tableID, filter)
	if err != nil {
		return nil, err
	}

	accounts := make([]*account.Account, 0, len(list.Results))
	for _, raw := range list.Results {
		var row accountRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal account row: %w", err)
		}
		accounts = append(accounts, row.toAccount())
	}

	return accounts, nil
}

// CreateBatch inserts all rows with a single batch request. An empty
// batch is a no-op.
func (r *AccountRepository) CreateBatch(ctx context.Context, params []account.CreateParams) error {
	if r.tableID == "" {
		return ErrTableNotConfigured
	}
	if len(params) == 0 {
		return nil
	}

	rows := make([]accountRow, 0, len(params))
	for _, p := range params {
		rows = append(rows, accountRow{
			AccountID:        p.AccountID,
			ItemID:           p.ItemID,
			UserID:           p.UserID,
			Name:             p.Name,
			OfficialName:     p.OfficialName,
			Type:             p.Type,
			Subtype:          p.Subtype,
			BalanceCurrent:   p.BalanceCurrent,
			BalanceAvailable: p.BalanceAvailable,
			CurrencyCode:     p.CurrencyCode,
			LastUpdated:      formatTime(p.LastUpdated),
		})
	}

	return r.client.CreateRows(ctx, r.tableID, rows)
}

// UpdateBalances patches one row's balance fields and timestamp.
func (r *AccountRepository) UpdateBalances(ctx context.Context, rowID int64, patch account.BalancePatch) error {
	if r.tableID == "" {
		return ErrTableNotConfigured
	}

	body := map[string]any{
		"balance_current":   patch.BalanceCurrent,
		"balance_available": patch.BalanceAvailable,
		"last_updated":      formatTime(patch.LastUpdated),
	}
	return r.client.UpdateRow(ctx, r.tableID, rowID, body)
}

// DeleteByUserAndItem removes the account rows of one linked item.
func (r *AccountRepository) DeleteByUserAndItem(ctx context.Context, userID, itemID string) error {
	if r.tableID == "" {
		return ErrTableNotConfigured
	}

	filter := url.Values{}
	filter.Set("user_id", userID)
	filter.Set("plaid_item_id", itemID)
	return r.client.DeleteRows(ctx, r.tableID, filter)
}

// DeleteByUser removes every account row for a user.
func (r *AccountRepository) DeleteByUser(ctx context.Context, userID string) error {
	if r.tableID == "" {
		return ErrTableNotConfigured
	}

	filter := url.Values{}
	filter.Set("user_id", userID)
	return r.client.DeleteRows(ctx, r.tableID, filter)
}
