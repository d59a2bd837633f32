package baserow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/elleon003/thrivebase/internal/domain/token"
)

// tokenRow is the row store shape of a token record.
type tokenRow struct {
	ID              int64  `json:"id,omitempty"`
	ItemID          string `json:"plaid_item_id"`
	UserID          string `json:"user_id"`
	EncryptedToken  string `json:"encrypted_access_token"`
	InstitutionID   string `json:"institution_id,omitempty"`
	InstitutionName string `json:"institution_name,omitempty"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at,omitempty"`
	LastUpdated     string `json:"last_updated,omitempty"`
}

func (r tokenRow) toRecord() *token.Record {
	return &token.Record{
		RowID:           r.ID,
		ItemID:          r.ItemID,
		UserID:          r.UserID,
		EncryptedSecret: r.EncryptedToken,
		InstitutionID:   r.InstitutionID,
		InstitutionName: r.InstitutionName,
		Status:          token.Status(r.Status),
		CreatedAt:       parseTime(r.CreatedAt),
		LastUpdated:     parseTime(r.LastUpdated),
	}
}

// TokenRepository implements token.Repository against the tokens table.
type TokenRepository struct {
	client  *Client
	tableID string
}

var _ token.Repository = (*TokenRepository)(nil)

// NewTokenRepository creates a token repository bound to tableID.
// An empty tableID leaves every operation failing with
// ErrTableNotConfigured.
func NewTokenRepository(client *Client, tableID string) *TokenRepository {
	return &TokenRepository{client: client, tableID: tableID}
}

// Insert creates a new token row and returns the stored record.
func (r *TokenRepository) Insert(ctx context.Context, params token.CreateParams) (*token.Record, error) {
	if r.tableID == "" {
		return nil, ErrTableNotConfigured
	}

	row := tokenRow{
		ItemID:          params.ItemID,
		UserID:          params.UserID,
		EncryptedToken:  params.EncryptedSecret,
		InstitutionID:   params.InstitutionID,
		InstitutionName: params.InstitutionName,
		Status:          string(params.Status),
		CreatedAt:       formatTime(params.CreatedAt),
		LastUpdated:     formatTime(params.LastUpdated),
	}

	var created tokenRow
	if err := r.client.CreateRow(ctx, r.tableID, row, &created); err != nil {
		return nil, err
	}

	return created.toRecord(), nil
}

// FindActive returns the active row for (userID, itemID), or nil when
// none exists. With more than one match, the store's first row wins.
func (r *TokenRepository) FindActive(ctx context.Context, userID, itemID string) (*token.Record, error) {
	if r.tableID == "" {
		return nil, ErrTableNotConfigured
	}

	filter := url.Values{}
	filter.Set("user_id", userID)
	filter.Set("plaid_item_id", itemID)
	filter.Set("status", string(token.StatusActive))

	list, err := r.client.ListRows(ctx, r.tableID, filter)
	if err != nil {
		return nil, err
	}
	if len(list.Results) == 0 {
		return nil, nil
	}

	var row tokenRow
	if err := json.Unmarshal(list.Results[0], &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token row: %w", err)
	}

	return row.toRecord(), nil
}

// ListActive returns all active rows for a user, in store order.
func (r *TokenRepository) ListActive(ctx context.Context, userID string) ([]*token.Record, error) {
	if r.tableID == "" {
		return nil, ErrTableNotConfigured
	}

	filter := url.Values{}
	filter.Set("user_id", userID)
	filter.Set("status", string(token.StatusActive))

	list, err := r.client.ListRows(ctx, r.tableID, filter)
	if err != nil {
		return nil, err
	}

	records := make([]*token.Record, 0, len(list.Results))
	for _, raw := range list.Results {
		var row tokenRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal token row: %w", err)
		}
		records = append(records, row.toRecord())
	}

	return records, nil
}

// SetStatus patches a row's status and last_updated timestamp.
func (r *TokenRepository) SetStatus(ctx context.Context, rowID int64, status token.Status, at time.Time) error {
	if r.tableID == "" {
		return ErrTableNotConfigured
	}

	patch := map[string]string{
		"status":       string(status),
		"last_updated": formatTime(at),
	}
	return r.client.UpdateRow(ctx, r.tableID, rowID, patch)
}

// DeleteByUser deletes every token row for a user, regardless of status.
func (r *TokenRepository) DeleteByUser(ctx context.Context, userID string) error {
	if r.tableID == "" {
		return ErrTableNotConfigured
	}

	filter := url.Values{}
	filter.Set("user_id", userID)
	return r.client.DeleteRows(ctx, r.tableID, filter)
}

// parseTime reads a stored RFC3339 timestamp; malformed or empty
// values become the zero time rather than failing a bulk read.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
