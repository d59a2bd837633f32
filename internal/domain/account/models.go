// Package account holds the financial account snapshot model and the
// read-side aggregation view over accounts and institution tokens.
package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnknownInstitution labels accounts whose item has no matching active
// token (revoked token with accounts not yet cleaned up, typically).
const UnknownInstitution = "Unknown"

// Account is a snapshot of one financial account as last observed from
// the aggregation provider. BalanceAvailable is nullable: the provider
// may not report it (credit-type accounts, typically).
type Account struct {
	RowID            int64            `json:"id"`
	AccountID        string           `json:"plaid_account_id"`
	ItemID           string           `json:"plaid_item_id"`
	UserID           string           `json:"user_id"`
	Name             string           `json:"name"`
	OfficialName     string           `json:"official_name,omitempty"`
	Type             string           `json:"type"`
	Subtype          string           `json:"subtype,omitempty"`
	BalanceCurrent   decimal.Decimal  `json:"balance_current"`
	BalanceAvailable *decimal.Decimal `json:"balance_available"`
	CurrencyCode     string           `json:"iso_currency_code"`
	LastUpdated      time.Time        `json:"last_updated"`
}

// CreateParams contains the fields for inserting a new account row.
type CreateParams struct {
	AccountID        string
	ItemID           string
	UserID           string
	Name             string
	OfficialName     string
	Type             string
	Subtype          string
	BalanceCurrent   decimal.Decimal
	BalanceAvailable *decimal.Decimal
	CurrencyCode     string
	LastUpdated      time.Time
}

// BalancePatch updates the two balance fields in place on refresh.
// They are stored as two independent nullable fields, not derived.
type BalancePatch struct {
	BalanceCurrent   decimal.Decimal
	BalanceAvailable *decimal.Decimal
	LastUpdated      time.Time
}

// Totals are the balance sums across a user's accounts. Available sums
// only accounts that report an available balance.
type Totals struct {
	Current   decimal.Decimal
	Available decimal.Decimal
	Count     int
}

// Summary pairs the raw account list with its totals.
type Summary struct {
	Accounts []*Account
	Totals   Totals
}

// InstitutionGroup is one institution and the accounts it owns, in the
// order the store returned them.
type InstitutionGroup struct {
	InstitutionName string
	InstitutionID   string
	Accounts        []*Account
}
