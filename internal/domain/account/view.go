package account

import (
	"context"

	"github.com/elleon003/thrivebase/internal/domain/token"
)

// TokenLister provides the active token records a user owns. Satisfied
// by *token.Vault.
type TokenLister interface {
	ListActive(ctx context.Context, userID string) ([]*token.Record, error)
}

// View composes read-only aggregations over the accounts table and the
// tokens table. It never writes; the two tables are owned elsewhere.
type View struct {
	accounts Repository
	tokens   TokenLister
}

// NewView creates the aggregation view.
func NewView(accounts Repository, tokens TokenLister) *View {
	return &View{accounts: accounts, tokens: tokens}
}

// Summary fetches all accounts for a user and sums their balances.
// The current total covers every account; the available total covers
// only accounts that report an available balance. Amounts stay exact
// decimals through the summation.
func (v *View) Summary(ctx context.Context, userID string) (*Summary, error) {
	accounts, err := v.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals := Totals{Count: len(accounts)}
	for _, acc := range accounts {
		totals.Current = totals.Current.Add(acc.BalanceCurrent)
		if acc.BalanceAvailable != nil {
			totals.Available = totals.Available.Add(*acc.BalanceAvailable)
		}
	}

	return &Summary{Accounts: accounts, Totals: totals}, nil
}

// ByInstitution groups a user's accounts by their owning institution,
// resolved through the active token for each account's item. Accounts
// whose item has no active token fall into the "Unknown" group.
// Groups appear in first-seen order; within a group, accounts keep the
// store's order.
func (v *View) ByInstitution(ctx context.Context, userID string) ([]*InstitutionGroup, error) {
	accounts, err := v.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	tokens, err := v.tokens.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	type institution struct {
		id   string
		name string
	}
	byItem := make(map[string]institution, len(tokens))
	for _, rec := range tokens {
		byItem[rec.ItemID] = institution{id: rec.InstitutionID, name: rec.InstitutionName}
	}

	var groups []*InstitutionGroup
	index := make(map[string]*InstitutionGroup)
	for _, acc := range accounts {
		inst, ok := byItem[acc.ItemID]
		if !ok || inst.name == "" {
			inst.name = UnknownInstitution
		}

		group, ok := index[inst.name]
		if !ok {
			group = &InstitutionGroup{InstitutionName: inst.name, InstitutionID: inst.id}
			index[inst.name] = group
			groups = append(groups, group)
		}
		group.Accounts = append(group.Accounts, acc)
	}

	return groups, nil
}
