package baserow

import (
	"context"
	"time"

	"github.com/elleon003/thrivebase/internal/domain/newsletter"
)

type newsletterRow struct {
	Email      string `json:"email"`
	SignupDate string `json:"signup_date"`
	Status     string `json:"status"`
}

// NewsletterRepository implements newsletter.Repository against the
// newsletter signups table.
type NewsletterRepository struct {
	client  *Client
	tableID string
}

var _ newsletter.Repository = (*NewsletterRepository)(nil)

func NewNewsletterRepository(client *Client, tableID string) *NewsletterRepository {
	return &NewsletterRepository{client: client, tableID: tableID}
}

// Insert stores one signup row.
func (r *NewsletterRepository) Insert(ctx context.Context, email string, signupDate time.Time, status string) error {
	if r.tableID == "" {
		return ErrTableNotConfigured
	}

	row := newsletterRow{
		Email:      email,
		SignupDate: formatTime(signupDate),
		Status:     status,
	}
	return r.client.CreateRow(ctx, r.tableID, row, nil)
}
