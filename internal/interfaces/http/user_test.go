package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elleon003/thrivebase/internal/domain/account"
	"github.com/elleon003/thrivebase/internal/domain/token"
	"github.com/elleon003/thrivebase/internal/domain/user"
	"github.com/elleon003/thrivebase/internal/shared/auth"
)

type mockUserRepo struct {
	CreateFunc            func(ctx context.Context, params user.CreateParams) (*user.User, error)
	GetByEmailFunc        func(ctx context.Context, email string) (*user.User, error)
	GetByIDFunc           func(ctx context.Context, id string) (*user.User, error)
	UpdateCredentialsFunc func(ctx context.Context, id string, params user.UpdateParams) error
}

func (m *mockUserRepo) Create(ctx context.Context, params user.CreateParams) (*user.User, error) {
	return m.CreateFunc(ctx, params)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return m.GetByEmailFunc(ctx, email)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockUserRepo) UpdateCredentials(ctx context.Context, id string, params user.UpdateParams) error {
	return m.UpdateCredentialsFunc(ctx, id, params)
}

type mockPurger struct {
	called bool
}

func (m *mockPurger) DeleteByUser(ctx context.Context, userID string) error {
	m.called = true
	return nil
}

func (m *mockPurger) DeleteAll(ctx context.Context, userID string) error {
	m.called = true
	return nil
}

func newTestUserHandler(users user.Repository) (*UserHandler, *mockPurger, *mockPurger, *mockPurger) {
	transactions := &mockPurger{}
	accounts := &mockPurger{}
	tokens := &mockPurger{}
	eraser := user.NewEraser(transactions, accounts, tokens)
	view := account.NewView(&mockAccountRepo{}, &mockTokenLister{})
	return NewUserHandler(users, view, eraser), transactions, accounts, tokens
}

func TestUserHandler_HandleMe(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*user.User, error) {
			if id != "user-1" {
				t.Errorf("GetByID() id = %s", id)
			}
			return &user.User{ID: id, Email: "test@example.com", CreatedAt: time.Now()}, nil
		},
	}
	handler, _, _, _ := newTestUserHandler(users)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/users/me", nil), "user-1")
	rr := httptest.NewRecorder()

	handler.HandleMe(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestUserHandler_HandleDeleteUserData(t *testing.T) {
	handler, transactions, accounts, tokens := newTestUserHandler(&mockUserRepo{})

	req := withUser(httptest.NewRequest(http.MethodDelete, "/api/v1/baserow/user-data/user-1", nil), "user-1")
	req.SetPathValue("userID", "user-1")
	rr := httptest.NewRecorder()

	handler.HandleDeleteUserData(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rr.Code, rr.Body.String())
	}
	if !transactions.called || !accounts.called || !tokens.called {
		t.Error("erasure skipped one of the tables")
	}
}

func TestUserHandler_HandleDeleteUserData_IdentityMismatch(t *testing.T) {
	handler, transactions, accounts, tokens := newTestUserHandler(&mockUserRepo{})

	// The session belongs to someone else: reject before touching rows
	req := withUser(httptest.NewRequest(http.MethodDelete, "/api/v1/baserow/user-data/user-2", nil), "user-1")
	req.SetPathValue("userID", "user-2")
	rr := httptest.NewRecorder()

	handler.HandleDeleteUserData(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	if transactions.called || accounts.called || tokens.called {
		t.Error("erasure ran despite the identity mismatch")
	}
}

func TestUserHandler_HandleConnectedAccounts(t *testing.T) {
	repo := &mockAccountRepo{
		ListByUserFunc: func(ctx context.Context, userID string) ([]*account.Account, error) {
			return []*account.Account{{AccountID: "acc-1", ItemID: "item-1"}}, nil
		},
	}
	tokens := &mockTokenLister{
		ListActiveFunc: func(ctx context.Context, userID string) ([]*token.Record, error) {
			return []*token.Record{{ItemID: "item-1", InstitutionName: "First Bank"}}, nil
		},
	}
	view := account.NewView(repo, tokens)
	handler := NewUserHandler(&mockUserRepo{}, view, nil)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/users/connected-accounts", nil), "user-1")
	rr := httptest.NewRecorder()

	handler.HandleConnectedAccounts(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "First Bank") {
		t.Errorf("response missing institution group: %s", body)
	}
}

func TestUserHandler_HandleMe_StoreError(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*user.User, error) {
			return nil, errors.New("store request failed")
		},
	}
	handler, _, _, _ := newTestUserHandler(users)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/users/me", nil), "user-1")
	rr := httptest.NewRecorder()

	handler.HandleMe(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for a store failure", rr.Code)
	}
}

func TestUserHandler_HandleMe_NotFound(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*user.User, error) {
			return nil, user.ErrNotFound
		},
	}
	handler, _, _, _ := newTestUserHandler(users)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/users/me", nil), "user-1")
	rr := httptest.NewRecorder()

	handler.HandleMe(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func updateProfileRequest(t *testing.T, userID, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/profile", strings.NewReader(body))
	return withUser(req, userID)
}

func TestUserHandler_HandleUpdateProfile(t *testing.T) {
	hash, err := auth.HashPassword("old-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	var gotParams user.UpdateParams
	users := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*user.User, error) {
			return &user.User{ID: id, Email: "old@example.com", PasswordHash: hash}, nil
		},
		GetByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
			return nil, user.ErrNotFound
		},
		UpdateCredentialsFunc: func(ctx context.Context, id string, params user.UpdateParams) error {
			if id != "user-1" {
				t.Errorf("UpdateCredentials() id = %s", id)
			}
			gotParams = params
			return nil
		},
	}
	handler, _, _, _ := newTestUserHandler(users)

	body := `{"email":"New@Example.com","current_password":"old-password","new_password":"fresh-password"}`
	rr := httptest.NewRecorder()

	handler.HandleUpdateProfile(rr, updateProfileRequest(t, "user-1", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if gotParams.Email != "new@example.com" {
		t.Errorf("UpdateCredentials() email = %q, want normalized address", gotParams.Email)
	}
	if gotParams.PasswordHash == "" || gotParams.PasswordHash == hash {
		t.Error("UpdateCredentials() password hash not rehashed")
	}
	if err := auth.VerifyPassword(gotParams.PasswordHash, "fresh-password"); err != nil {
		t.Errorf("new hash does not verify the new password: %v", err)
	}
}

func TestUserHandler_HandleUpdateProfile_WrongCurrentPassword(t *testing.T) {
	hash, err := auth.HashPassword("old-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	users := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*user.User, error) {
			return &user.User{ID: id, Email: "old@example.com", PasswordHash: hash}, nil
		},
		UpdateCredentialsFunc: func(ctx context.Context, id string, params user.UpdateParams) error {
			t.Error("UpdateCredentials() called despite failed password check")
			return nil
		},
	}
	handler, _, _, _ := newTestUserHandler(users)

	body := `{"current_password":"not-it","new_password":"fresh-password"}`
	rr := httptest.NewRecorder()

	handler.HandleUpdateProfile(rr, updateProfileRequest(t, "user-1", body))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestUserHandler_HandleUpdateProfile_EmailTaken(t *testing.T) {
	hash, err := auth.HashPassword("old-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	users := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*user.User, error) {
			return &user.User{ID: id, Email: "old@example.com", PasswordHash: hash}, nil
		},
		GetByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
			return &user.User{ID: "user-2", Email: email}, nil
		},
		UpdateCredentialsFunc: func(ctx context.Context, id string, params user.UpdateParams) error {
			t.Error("UpdateCredentials() called for a taken email")
			return nil
		},
	}
	handler, _, _, _ := newTestUserHandler(users)

	body := `{"email":"taken@example.com","current_password":"old-password"}`
	rr := httptest.NewRecorder()

	handler.HandleUpdateProfile(rr, updateProfileRequest(t, "user-1", body))

	if rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rr.Code)
	}
}

func TestUserHandler_HandleUpdateProfile_NoChanges(t *testing.T) {
	users := &mockUserRepo{
		UpdateCredentialsFunc: func(ctx context.Context, id string, params user.UpdateParams) error {
			t.Error("UpdateCredentials() called with nothing to change")
			return nil
		},
	}
	handler, _, _, _ := newTestUserHandler(users)

	rr := httptest.NewRecorder()
	handler.HandleUpdateProfile(rr, updateProfileRequest(t, "user-1", `{}`))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for a no-op update", rr.Code)
	}
}
