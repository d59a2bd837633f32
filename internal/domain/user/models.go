// Package user holds the user identity model for session auth.
package user

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// User is an application user. ID is the stable identifier written to
// every row the user owns; PasswordHash is a bcrypt hash, never the
// plain password.
type User struct {
	RowID        int64     `json:"-"`
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateParams contains the fields for inserting a new user.
type CreateParams struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UpdateParams contains the credential fields a user may change. An
// empty field is left unchanged.
type UpdateParams struct {
	Email        string
	PasswordHash string
}

// Repository defines the row store access for users.
type Repository interface {
	// Create inserts a new user. Returns ErrEmailTaken when the email
	// is already registered.
	Create(ctx context.Context, params CreateParams) (*User, error)

	// GetByEmail returns the user with the given email, or ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID returns the user with the given ID, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*User, error)

	// UpdateCredentials patches the user's email and/or password hash.
	// Returns ErrNotFound when no such user exists.
	UpdateCredentials(ctx context.Context, id string, params UpdateParams) error
}
