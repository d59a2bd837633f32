// Package newsletter stores pre-launch newsletter signups.
package newsletter

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrInvalidEmail is returned for signup addresses that cannot be real.
var ErrInvalidEmail = errors.New("valid email is required")

// Repository defines the row store access for newsletter signups.
type Repository interface {
	// Insert stores one signup row.
	Insert(ctx context.Context, email string, signupDate time.Time, status string) error
}

// Service validates and stores newsletter signups.
type Service struct {
	repo Repository
}

// NewService creates a new newsletter service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Signup stores an active signup row for the given email.
func (s *Service) Signup(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	return s.repo.Insert(ctx, email, time.Now().UTC(), "active")
}
