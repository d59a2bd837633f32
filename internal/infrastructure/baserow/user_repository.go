package baserow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/elleon003/thrivebase/internal/domain/user"
)

type userRow struct {
	ID           int64  `json:"id,omitempty"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    string `json:"created_at,omitempty"`
}

func (r userRow) toUser() *user.User {
	return &user.User{
		RowID:        r.ID,
		ID:           r.UserID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    parseTime(r.CreatedAt),
	}
}

// UserRepository implements user.Repository against the users table.
type UserRepository struct {
	client  *Client
	tableID string
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(client *Client, tableID string) *UserRepository {
	return &UserRepository{client: client, tableID: tableID}
}

// Create inserts a new user after checking the email is free. The
// check and the insert are two separate requests; the store enforces
// no uniqueness itself.
func (r *UserRepository) Create(ctx context.Context, params user.CreateParams) (*user.User, error) {
	if r.tableID == "" {
		return nil, ErrTableNotConfigured
	}

	existing, err := r.GetByEmail(ctx, params.Email)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, user.ErrEmailTaken
	}

	row := userRow{
		UserID:       params.ID,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    formatTime(params.CreatedAt),
	}

	var created userRow
	if err := r.client.CreateRow(ctx, r.tableID, row, &created); err != nil {
		return nil, err
	}

	return created.toUser(), nil
}

// GetByEmail returns the user with the given email, or ErrNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	filter := url.Values{}
	filter.Set("email", email)
	return r.findOne(ctx, filter)
}

// GetByID returns the user with the given ID, or ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	filter := url.Values{}
	filter.Set("user_id", id)
	return r.findOne(ctx, filter)
}

// UpdateCredentials patches the email and/or password hash of an
// existing user row. Empty fields are left unchanged.
func (r *UserRepository) UpdateCredentials(ctx context.Context, id string, params user.UpdateParams) error {
	found, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	patch := map[string]any{}
	if params.Email != "" {
		patch["email"] = params.Email
	}
	if params.PasswordHash != "" {
		patch["password_hash"] = params.PasswordHash
	}
	if len(patch) == 0 {
		return nil
	}

	return r.client.UpdateRow(ctx, r.tableID, found.RowID, patch)
}

func (r *UserRepository) findOne(ctx context.Context, filter url.Values) (*user.User, error) {
	if r.tableID == "" {
		return nil, ErrTableNotConfigured
	}

	list, err := r.client.ListRows(ctx, r.tableID, filter)
	if err != nil {
		return nil, err
	}
	if len(list.Results) == 0 {
		return nil, user.ErrNotFound
	}

	var row userRow
	if err := json.Unmarshal(list.Results[0], &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user row: %w", err)
	}

	return row.toUser(), nil
}
