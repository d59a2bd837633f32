package linking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/elleon003/thrivebase/internal/domain/account"
	"github.com/elleon003/thrivebase/internal/domain/token"
	"github.com/elleon003/thrivebase/internal/infrastructure/crypto"
	"github.com/elleon003/thrivebase/internal/infrastructure/plaid"
)

type mockProvider struct {
	CreateLinkTokenFunc     func(ctx context.Context, userID string) (string, error)
	ExchangePublicTokenFunc func(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error)
	GetItemInstitutionFunc  func(ctx context.Context, accessToken string) (*plaid.Institution, error)
	GetAccountsFunc         func(ctx context.Context, accessToken string) ([]plaid.Account, error)
	RemoveItemFunc          func(ctx context.Context, accessToken string) error
}

func (m *mockProvider) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	return m.CreateLinkTokenFunc(ctx, userID)
}

func (m *mockProvider) ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error) {
	return m.ExchangePublicTokenFunc(ctx, publicToken)
}

func (m *mockProvider) GetItemInstitution(ctx context.Context, accessToken string) (*plaid.Institution, error) {
	return m.GetItemInstitutionFunc(ctx, accessToken)
}

func (m *mockProvider) GetAccounts(ctx context.Context, accessToken string) ([]plaid.Account, error) {
	return m.GetAccountsFunc(ctx, accessToken)
}

func (m *mockProvider) RemoveItem(ctx context.Context, accessToken string) error {
	return m.RemoveItemFunc(ctx, accessToken)
}

// memoryTokenRepo is a minimal in-memory token.Repository for
// exercising the vault end to end.
type memoryTokenRepo struct {
	records []*token.Record
	nextID  int64
}

func (m *memoryTokenRepo) Insert(ctx context.Context, params token.CreateParams) (*token.Record, error) {
	m.nextID++
	rec := &token.Record{
		RowID:           m.nextID,
		ItemID:          params.ItemID,
		UserID:          params.UserID,
		EncryptedSecret: params.EncryptedSecret,
		InstitutionID:   params.InstitutionID,
		InstitutionName: params.InstitutionName,
		Status:          params.Status,
		CreatedAt:       params.CreatedAt,
		LastUpdated:     params.LastUpdated,
	}
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memoryTokenRepo) FindActive(ctx context.Context, userID, itemID string) (*token.Record, error) {
	for _, rec := range m.records {
		if rec.UserID == userID && rec.ItemID == itemID && rec.Status == token.StatusActive {
			return rec, nil
		}
	}
	return nil, nil
}

func (m *memoryTokenRepo) ListActive(ctx context.Context, userID string) ([]*token.Record, error) {
	var out []*token.Record
	for _, rec := range m.records {
		if rec.UserID == userID && rec.Status == token.StatusActive {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryTokenRepo) SetStatus(ctx context.Context, rowID int64, status token.Status, at time.Time) error {
	for _, rec := range m.records {
		if rec.RowID == rowID {
			rec.Status = status
			rec.LastUpdated = at
			return nil
		}
	}
	return errors.New("row not found")
}

func (m *memoryTokenRepo) DeleteByUser(ctx context.Context, userID string) error {
	var kept []*token.Record
	for _, rec := range m.records {
		if rec.UserID != userID {
			kept = append(kept, rec)
		}
	}
	m.records = kept
	return nil
}

type mockAccountRepo struct {
	ListByUserFunc          func(ctx context.Context, userID string) ([]*account.Account, error)
	ListByUserAndItemFunc   func(ctx context.Context, userID, itemID string) ([]*account.Account, error)
	CreateBatchFunc         func(ctx context.Context, accounts []account.CreateParams) error
	UpdateBalancesFunc      func(ctx context.Context, rowID int64, patch account.BalancePatch) error
	DeleteByUserAndItemFunc func(ctx context.Context, userID, itemID string) error
	DeleteByUserFunc        func(ctx context.Context, userID string) error
}

func (m *mockAccountRepo) ListByUser(ctx context.Context, userID string) ([]*account.Account, error) {
	return m.ListByUserFunc(ctx, userID)
}

func (m *mockAccountRepo) ListByUserAndItem(ctx context.Context, userID, itemID string) ([]*account.Account, error) {
	return m.ListByUserAndItemFunc(ctx, userID, itemID)
}

func (m *mockAccountRepo) CreateBatch(ctx context.Context, accounts []account.CreateParams) error {
	return m.CreateBatchFunc(ctx, accounts)
}

func (m *mockAccountRepo) UpdateBalances(ctx context.Context, rowID int64, patch account.BalancePatch) error {
	return m.UpdateBalancesFunc(ctx, rowID, patch)
}

func (m *mockAccountRepo) DeleteByUserAndItem(ctx context.Context, userID, itemID string) error {
	return m.DeleteByUserAndItemFunc(ctx, userID, itemID)
}

func (m *mockAccountRepo) DeleteByUser(ctx context.Context, userID string) error {
	return m.DeleteByUserFunc(ctx, userID)
}

func newTestVault(t *testing.T) (*token.Vault, *memoryTokenRepo) {
	t.Helper()
	enc, err := crypto.NewEncryptor("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewEncryptor() failed: %v", err)
	}
	repo := &memoryTokenRepo{}
	return token.NewVault(repo, enc), repo
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestService_Exchange(t *testing.T) {
	vault, tokenRepo := newTestVault(t)

	provider := &mockProvider{
		ExchangePublicTokenFunc: func(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error) {
			if publicToken != "public-sandbox-abc" {
				t.Errorf("ExchangePublicToken got %q", publicToken)
			}
			return &plaid.ExchangeResult{AccessToken: "access-1", ItemID: "item-1"}, nil
		},
		GetItemInstitutionFunc: func(ctx context.Context, accessToken string) (*plaid.Institution, error) {
			return &plaid.Institution{ID: "ins-1", Name: "First Bank"}, nil
		},
		GetAccountsFunc: func(ctx context.Context, accessToken string) ([]plaid.Account, error) {
			return []plaid.Account{
				{AccountID: "acc-1", Name: "Checking", Type: "depository",
					Balances: plaid.Balances{Current: decPtr("100.50"), Available: decPtr("90.00")}},
				{AccountID: "acc-2", Name: "Credit", Type: "credit",
					Balances: plaid.Balances{Current: decPtr("250.00")}},
			}, nil
		},
	}

	var inserted []account.CreateParams
	accounts := &mockAccountRepo{
		CreateBatchFunc: func(ctx context.Context, params []account.CreateParams) error {
			inserted = params
			return nil
		},
	}

	service := NewService(provider, vault, accounts)

	summary, err := service.Exchange(context.Background(), "user-1", "public-sandbox-abc")
	if err != nil {
		t.Fatalf("Exchange() failed: %v", err)
	}

	if summary.ItemID != "item-1" || summary.InstitutionName != "First Bank" || summary.AccountsAdded != 2 {
		t.Errorf("Exchange() summary = %+v", summary)
	}

	if len(inserted) != 2 {
		t.Fatalf("Exchange() inserted %d rows, want 2", len(inserted))
	}
	if inserted[0].UserID != "user-1" || inserted[0].ItemID != "item-1" {
		t.Errorf("Exchange() row ownership wrong: %+v", inserted[0])
	}
	if !inserted[0].BalanceCurrent.Equal(dec("100.50")) {
		t.Errorf("Exchange() balance = %s, want 100.50", inserted[0].BalanceCurrent)
	}
	if inserted[1].BalanceAvailable != nil {
		t.Error("Exchange() filled a missing available balance")
	}

	// The access token is stored encrypted and retrievable
	got, ok, err := vault.GetAccessToken(context.Background(), "item-1", "user-1")
	if err != nil || !ok {
		t.Fatalf("GetAccessToken() = ok %v, err %v", ok, err)
	}
	if got != "access-1" {
		t.Errorf("GetAccessToken() = %q, want access-1", got)
	}
	if tokenRepo.records[0].EncryptedSecret == "access-1" {
		t.Error("access token stored as plaintext")
	}
}

func TestService_RefreshAccounts(t *testing.T) {
	vault, _ := newTestVault(t)
	if _, err := vault.Store(context.Background(), "access-1", "item-1", "user-1", "ins-1", "First Bank"); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	provider := &mockProvider{
		GetAccountsFunc: func(ctx context.Context, accessToken string) ([]plaid.Account, error) {
			return []plaid.Account{
				{AccountID: "acc-1", Balances: plaid.Balances{Current: decPtr("101.00"), Available: decPtr("95.00")}},
				{AccountID: "acc-gone", Balances: plaid.Balances{Current: decPtr("5.00")}},
			}, nil
		},
	}

	patched := map[int64]account.BalancePatch{}
	accounts := &mockAccountRepo{
		ListByUserAndItemFunc: func(ctx context.Context, userID, itemID string) ([]*account.Account, error) {
			return []*account.Account{
				{RowID: 11, AccountID: "acc-1"},
				{RowID: 12, AccountID: "acc-unmatched"},
			}, nil
		},
		UpdateBalancesFunc: func(ctx context.Context, rowID int64, patch account.BalancePatch) error {
			patched[rowID] = patch
			return nil
		},
	}

	service := NewService(provider, vault, accounts)

	updated, err := service.RefreshAccounts(context.Background(), "user-1", "item-1")
	if err != nil {
		t.Fatalf("RefreshAccounts() failed: %v", err)
	}
	if updated != 1 {
		t.Errorf("RefreshAccounts() = %d, want 1", updated)
	}
	if !patched[11].BalanceCurrent.Equal(dec("101.00")) {
		t.Errorf("RefreshAccounts() patched %s, want 101.00", patched[11].BalanceCurrent)
	}
	if _, ok := patched[12]; ok {
		t.Error("RefreshAccounts() patched an unmatched row")
	}
}

func TestService_RefreshAccounts_NotLinked(t *testing.T) {
	vault, _ := newTestVault(t)
	service := NewService(&mockProvider{}, vault, &mockAccountRepo{})

	_, err := service.RefreshAccounts(context.Background(), "user-1", "item-missing")
	if !errors.Is(err, ErrItemNotLinked) {
		t.Errorf("RefreshAccounts() error = %v, want ErrItemNotLinked", err)
	}
}

func TestService_Disconnect(t *testing.T) {
	vault, _ := newTestVault(t)
	if _, err := vault.Store(context.Background(), "access-1", "item-1", "user-1", "ins-1", "First Bank"); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	removed := false
	provider := &mockProvider{
		RemoveItemFunc: func(ctx context.Context, accessToken string) error {
			removed = true
			return nil
		},
	}

	deleted := false
	accounts := &mockAccountRepo{
		DeleteByUserAndItemFunc: func(ctx context.Context, userID, itemID string) error {
			deleted = true
			return nil
		},
	}

	service := NewService(provider, vault, accounts)

	if err := service.Disconnect(context.Background(), "user-1", "item-1"); err != nil {
		t.Fatalf("Disconnect() failed: %v", err)
	}
	if !removed {
		t.Error("Disconnect() skipped the provider item removal")
	}
	if !deleted {
		t.Error("Disconnect() kept the account rows")
	}

	// The token is revoked
	if _, ok, _ := vault.GetAccessToken(context.Background(), "item-1", "user-1"); ok {
		t.Error("Disconnect() left the token active")
	}
}

func TestService_Disconnect_ProviderFailureStillCleansUp(t *testing.T) {
	vault, _ := newTestVault(t)
	if _, err := vault.Store(context.Background(), "access-1", "item-1", "user-1", "", ""); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	provider := &mockProvider{
		RemoveItemFunc: func(ctx context.Context, accessToken string) error {
			return errors.New("provider unavailable")
		},
	}

	deleted := false
	accounts := &mockAccountRepo{
		DeleteByUserAndItemFunc: func(ctx context.Context, userID, itemID string) error {
			deleted = true
			return nil
		},
	}

	service := NewService(provider, vault, accounts)

	if err := service.Disconnect(context.Background(), "user-1", "item-1"); err != nil {
		t.Fatalf("Disconnect() failed: %v", err)
	}
	if !deleted {
		t.Error("Disconnect() kept the account rows after a provider failure")
	}
}

func TestService_Disconnect_MissingToken(t *testing.T) {
	vault, _ := newTestVault(t)

	deleted := false
	accounts := &mockAccountRepo{
		DeleteByUserAndItemFunc: func(ctx context.Context, userID, itemID string) error {
			deleted = true
			return nil
		},
	}

	service := NewService(&mockProvider{}, vault, accounts)

	// No token: the provider call is skipped, rows are still deleted
	if err := service.Disconnect(context.Background(), "user-1", "item-unknown"); err != nil {
		t.Fatalf("Disconnect() failed: %v", err)
	}
	if !deleted {
		t.Error("Disconnect() kept the account rows for an unlinked item")
	}
}

func TestService_ConnectedInstitutions(t *testing.T) {
	vault, _ := newTestVault(t)
	if _, err := vault.Store(context.Background(), "access-1", "item-1", "user-1", "ins-1", "First Bank"); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	if _, err := vault.Store(context.Background(), "access-2", "item-2", "user-1", "ins-2", "Second Bank"); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	service := NewService(&mockProvider{}, vault, &mockAccountRepo{})

	institutions, err := service.ConnectedInstitutions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ConnectedInstitutions() failed: %v", err)
	}
	if len(institutions) != 2 {
		t.Fatalf("ConnectedInstitutions() returned %d, want 2", len(institutions))
	}
	if institutions[0].InstitutionName != "First Bank" || institutions[0].Status != token.StatusActive {
		t.Errorf("ConnectedInstitutions()[0] = %+v", institutions[0])
	}
}

// memoryAccountRepo keeps inserted rows so a view can read back what
// an exchange wrote.
type memoryAccountRepo struct {
	rows   []*account.Account
	nextID int64
}

func (m *memoryAccountRepo) ListByUser(ctx context.Context, userID string) ([]*account.Account, error) {
	var out []*account.Account
	for _, row := range m.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memoryAccountRepo) ListByUserAndItem(ctx context.Context, userID, itemID string) ([]*account.Account, error) {
	var out []*account.Account
	for _, row := range m.rows {
		if row.UserID == userID && row.ItemID == itemID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memoryAccountRepo) CreateBatch(ctx context.Context, params []account.CreateParams) error {
	for _, p := range params {
		m.nextID++
		m.rows = append(m.rows, &account.Account{
			RowID:            m.nextID,
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
			LastUpdated:      p.LastUpdated,
		})
	}
	return nil
}

func (m *memoryAccountRepo) UpdateBalances(ctx context.Context, rowID int64, patch account.BalancePatch) error {
	for _, row := range m.rows {
		if row.RowID == rowID {
			row.BalanceCurrent = patch.BalanceCurrent
			row.BalanceAvailable = patch.BalanceAvailable
			row.LastUpdated = patch.LastUpdated
			return nil
		}
	}
	return errors.New("row not found")
}

func (m *memoryAccountRepo) DeleteByUserAndItem(ctx context.Context, userID, itemID string) error {
	var kept []*account.Account
	for _, row := range m.rows {
		if row.UserID != userID || row.ItemID != itemID {
			kept = append(kept, row)
		}
	}
	m.rows = kept
	return nil
}

func (m *memoryAccountRepo) DeleteByUser(ctx context.Context, userID string) error {
	var kept []*account.Account
	for _, row := range m.rows {
		if row.UserID != userID {
			kept = append(kept, row)
		}
	}
	m.rows = kept
	return nil
}

// Linking an institution end to end: the exchange stores the token and
// the account rows, and the grouped view reads them back as one
// institution with every linked account.
func TestService_ExchangeThenGroupedView(t *testing.T) {
	vault, _ := newTestVault(t)

	provider := &mockProvider{
		ExchangePublicTokenFunc: func(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error) {
			return &plaid.ExchangeResult{AccessToken: "access-1", ItemID: "item-1"}, nil
		},
		GetItemInstitutionFunc: func(ctx context.Context, accessToken string) (*plaid.Institution, error) {
			return &plaid.Institution{ID: "ins-1", Name: "First Bank"}, nil
		},
		GetAccountsFunc: func(ctx context.Context, accessToken string) ([]plaid.Account, error) {
			return []plaid.Account{
				{AccountID: "acc-1", Name: "Checking", Type: "depository",
					Balances: plaid.Balances{Current: decPtr("100.50"), Available: decPtr("90.00")}},
				{AccountID: "acc-2", Name: "Savings", Type: "depository",
					Balances: plaid.Balances{Current: decPtr("200.00"), Available: decPtr("200.00")}},
				{AccountID: "acc-3", Name: "Credit", Type: "credit",
					Balances: plaid.Balances{Current: decPtr("250.00")}},
			}, nil
		},
	}

	accounts := &memoryAccountRepo{}
	service := NewService(provider, vault, accounts)

	summary, err := service.Exchange(context.Background(), "user-1", "public-sandbox-abc")
	if err != nil {
		t.Fatalf("Exchange() failed: %v", err)
	}
	if summary.AccountsAdded != 3 {
		t.Fatalf("Exchange() added %d accounts, want 3", summary.AccountsAdded)
	}

	view := account.NewView(accounts, vault)

	groups, err := view.ByInstitution(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ByInstitution() failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("ByInstitution() returned %d groups, want 1", len(groups))
	}
	if groups[0].InstitutionName != "First Bank" || groups[0].InstitutionID != "ins-1" {
		t.Errorf("ByInstitution() group = %q (%q), want First Bank (ins-1)", groups[0].InstitutionName, groups[0].InstitutionID)
	}
	if len(groups[0].Accounts) != 3 {
		t.Fatalf("ByInstitution() grouped %d accounts, want 3", len(groups[0].Accounts))
	}
	for i, want := range []string{"acc-1", "acc-2", "acc-3"} {
		if groups[0].Accounts[i].AccountID != want {
			t.Errorf("ByInstitution() account[%d] = %q, want %q", i, groups[0].Accounts[i].AccountID, want)
		}
	}

	// The same stores also serve the balance summary
	totals, err := view.Summary(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	if !totals.Totals.Current.Equal(dec("550.50")) {
		t.Errorf("Summary() current = %s, want 550.50", totals.Totals.Current)
	}
	if !totals.Totals.Available.Equal(dec("290.00")) {
		t.Errorf("Summary() available = %s, want 290.00 (missing available skipped)", totals.Totals.Available)
	}
}
