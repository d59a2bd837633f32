package baserow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/elleon003/thrivebase/internal/domain/transaction"
)

type transactionRow struct {
	ID          int64           `json:"id,omitempty"`
	AccountID   string          `json:"account_id"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
}

// TransactionRepository implements transaction.Repository against the
// transactions table.
type TransactionRepository struct {
	client  *Client
	tableID string
}

var _ transaction.Repository = (*TransactionRepository)(nil)

func NewTransactionRepository(client *Client, tableID string) *TransactionRepository {
	return &TransactionRepository{client: client, tableID: tableID}
}

// CreateBatch inserts all entries with one batch request, stamped with
// the owning user's id.
func (r *TransactionRepository) CreateBatch(ctx context.Context, userID string, entries []transaction.Entry) error {
	if r.tableID == "" {
		return ErrTableNotConfigured
	}
	if len(entries) == 0 {
		return nil
	}

	rows := make([]transactionRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, transactionRow{
			AccountID:   e.AccountID,
			UserID:      userID,
			Amount:      e.Amount,
			Date:        e.Date,
			Description: e.Description,
			Category:    e.Category,
		})
	}

	return r.client.CreateRows(ctx, r.tableID, rows)
}

// ListByUser returns a user's transactions in store order, narrowed to
// one account when accountID is non-empty.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID, accountID string) ([]*transaction.Transaction, error) {
	if r.tableID == "" {
		return nil, ErrTableNotConfigured
	}

	filter := url.Values{}
	filter.Set("user_id", userID)
	if accountID != "" {
		filter.Set("account_id", accountID)
	}

	list, err := r.client.ListRows(ctx, r.tableID, filter)
	if err != nil {
		return nil, err
	}

	transactions := make([]*transaction.Transaction, 0, len(list.Results))
	for _, raw := range list.Results {
		var row transactionRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction row: %w", err)
		}
		transactions = append(transactions, &transaction.Transaction{
			RowID:       row.ID,
			AccountID:   row.AccountID,
			UserID:      row.UserID,
			Amount:      row.Amount,
			Date:        row.Date,
			Description: row.Description,
			Category:    row.Category,
		})
	}

	return transactions, nil
}

// DeleteByUser deletes every transaction row for a user.
func (r *TransactionRepository) DeleteByUser(ctx context.Context, userID string) error {
	if r.tableID == "" {
		return ErrTableNotConfigured
	}

	filter := url.Values{}
	filter.Set("user_id", userID)
	return r.client.DeleteRows(ctx, r.tableID, filter)
}
