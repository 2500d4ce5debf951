package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bizquote/backend/internal/models"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeValidator struct {
	tokens map[string]uuid.UUID
	roles  map[string]string
}

func (f *fakeValidator) ValidateToken(_ context.Context, token string) (uuid.UUID, string, error) {
	id, ok := f.tokens[token]
	if !ok {
		return uuid.Nil, "", errors.New("invalid token")
	}
	return id, f.roles[token], nil
}

type fakeAccounts struct {
	accounts map[uuid.UUID]*models.Account
}

func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

type fakeBusinesses struct {
	byAccount map[uuid.UUID]*models.Business
}

func (f *fakeBusinesses) GetByAccountID(_ context.Context, accountID uuid.UUID) (*models.Business, error) {
	b, ok := f.byAccount[accountID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return b, nil
}

func newAuthFixture(role string) (func(http.Handler) http.Handler, *models.Account) {
	acc := &models.Account{ID: uuid.New(), Email: "a@b.test", Role: role}
	validator := &fakeValidator{
		tokens: map[string]uuid.UUID{"good-token": acc.ID},
		roles:  map[string]string{"good-token": role},
	}
	accounts := &fakeAccounts{accounts: map[uuid.UUID]*models.Account{acc.ID: acc}}
	return Auth(validator, accounts), acc
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func TestAuthMissingHeader(t *testing.T) {
	mw, _ := newAuthFixture(models.RoleCustomer)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestAuthMalformedHeader(t *testing.T) {
	mw, _ := newAuthFixture(models.RoleCustomer)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	for _, header := range []string{"good-token", "Basic good-token", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: got %d, want 401", header, rec.Code)
		}
	}
}

func TestAuthInvalidToken(t *testing.T) {
	mw, _ := newAuthFixture(models.RoleCustomer)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestAuthLoadsAccountIntoContext(t *testing.T) {
	mw, acc := newAuthFixture(models.RoleCustomer)
	var seen *models.Account
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = AccountFromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if seen == nil || seen.ID != acc.ID {
		t.Error("handler should see the authenticated account in context")
	}
}

// ---------------------------------------------------------------------------
// RequireBusiness
// ---------------------------------------------------------------------------

func TestRequireBusinessRejectsCustomers(t *testing.T) {
	acc := &models.Account{ID: uuid.New(), Role: models.RoleCustomer}
	mw := RequireBusiness(&fakeBusinesses{byAccount: map[uuid.UUID]*models.Business{}})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for customers")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quote-requests/available", nil)
	req = req.WithContext(WithAccount(req.Context(), acc))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestRequireBusinessWithoutProfile(t *testing.T) {
	acc := &models.Account{ID: uuid.New(), Role: models.RoleBusiness}
	mw := RequireBusiness(&fakeBusinesses{byAccount: map[uuid.UUID]*models.Business{}})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a profile")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quote-requests/available", nil)
	req = req.WithContext(WithAccount(req.Context(), acc))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestRequireBusinessLoadsProfile(t *testing.T) {
	acc := &models.Account{ID: uuid.New(), Role: models.RoleBusiness}
	biz := &models.Business{ID: uuid.New(), AccountID: acc.ID}
	mw := RequireBusiness(&fakeBusinesses{byAccount: map[uuid.UUID]*models.Business{acc.ID: biz}})

	var seen *models.Business
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = BusinessFromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quote-requests/available", nil)
	req = req.WithContext(WithAccount(req.Context(), acc))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if seen == nil || seen.ID != biz.ID {
		t.Error("handler should see the business profile in context")
	}
}

func TestRequireBusinessWithoutAuth(t *testing.T) {
	mw := RequireBusiness(&fakeBusinesses{byAccount: map[uuid.UUID]*models.Business{}})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quote-requests/available", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}
