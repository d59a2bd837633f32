package token

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/elleon003/thrivebase/internal/infrastructure/crypto"
)

// ErrEmptyAccessToken is returned when Store is called without a secret.
var ErrEmptyAccessToken = errors.New("access token is required")

// Vault is the sole owner and writer of token records. It encrypts
// secrets before they reach the row store and decrypts them on the way
// out. Transport errors from the repository propagate unchanged.
type Vault struct {
	repo  Repository
	codec *crypto.Encryptor
}

// NewVault creates a token vault backed by the given repository and codec.
func NewVault(repo Repository, codec *crypto.Encryptor) *Vault {
	return &Vault{repo: repo, codec: codec}
}

// Store encrypts accessToken and inserts a new active record for
// (userID, itemID). Any existing active record for the pair is revoked
// first, keeping at most one active record per pair.
func (v *Vault) Store(ctx context.Context, accessToken, itemID, userID, institutionID, institutionName string) (*Record, error) {
	if accessToken == "" {
		return nil, ErrEmptyAccessToken
	}

	existing, err := v.repo.FindActive(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := v.repo.SetStatus(ctx, existing.RowID, StatusRevoked, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("failed to retire existing token: %w", err)
		}
	}

	encrypted, err := v.codec.Encrypt(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	now := time.Now().UTC()
	return v.repo.Insert(ctx, CreateParams{
		ItemID:          itemID,
		UserID:          userID,
		EncryptedSecret: encrypted,
		InstitutionID:   institutionID,
		InstitutionName: institutionName,
		Status:          StatusActive,
		CreatedAt:       now,
		LastUpdated:     now,
	})
}

// GetAccessToken returns the decrypted secret for the active record of
// (userID, itemID). The second return is false when no active record
// exists or the stored ciphertext cannot be decrypted; a corrupt row
// must not break callers — the token is unusable and the institution
// needs re-linking.
func (v *Vault) GetAccessToken(ctx context.Context, itemID, userID string) (string, bool, error) {
	rec, err := v.repo.FindActive(ctx, userID, itemID)
	if err != nil {
		return "", false, err
	}
	if rec == nil {
		return "", false, nil
	}

	plaintext, err := v.codec.Decrypt(rec.EncryptedSecret)
	if err != nil {
		log.Printf("Token for item %s is unreadable: %v", itemID, err)
		return "", false, nil
	}
	if plaintext == "" {
		return "", false, nil
	}

	return plaintext, true, nil
}

// Revoke marks the active record for (userID, itemID) as revoked.
// Returns false when no active record exists; calling Revoke twice is
// a no-op on the second call, not an error.
func (v *Vault) Revoke(ctx context.Context, itemID, userID string) (bool, error) {
	rec, err := v.repo.FindActive(ctx, userID, itemID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	if err := v.repo.SetStatus(ctx, rec.RowID, StatusRevoked, time.Now().UTC()); err != nil {
		return false, err
	}

	return true, nil
}

// ListActive returns all active token records for a user, institution
// metadata included, in the order returned by the store.
func (v *Vault) ListActive(ctx context.Context, userID string) ([]*Record, error) {
	return v.repo.ListActive(ctx, userID)
}

// DeleteAll unconditionally deletes every token record owned by the
// user, regardless of status. Used only for full account erasure.
func (v *Vault) DeleteAll(ctx context.Context, userID string) error {
	return v.repo.DeleteByUser(ctx, userID)
}
