package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ycliang/scriptly/internal/domain"
	"github.com/ycliang/scriptly/internal/middleware"
)

type fakeAccountService struct {
	signupErr     error
	lastEmail     string
	lastTokenHash string
	archived      []uuid.UUID
}

func (f *fakeAccountService) Signup(ctx context.Context, email, tokenHash string) (domain.Account, error) {
	f.lastEmail = email
	f.lastTokenHash = tokenHash
	if f.signupErr != nil {
		return domain.Account{}, f.signupErr
	}
	return domain.Account{ID: uuid.New(), Email: email, Tier: domain.TierFree}, nil
}

func (f *fakeAccountService) Archive(ctx context.Context, id uuid.UUID) error {
	f.archived = append(f.archived, id)
	return nil
}

func newAccountMux(accounts *fakeAccountService, lookup *fakeAccountLookup) *http.ServeMux {
	h := NewAccountHandler(accounts, testLogger())
	auth := middleware.NewAuthMiddleware(lookup, testLogger())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, auth.WithIdentity)
	return mux
}

func TestSignupReturnsTokenOnce(t *testing.T) {
	accounts := &fakeAccountService{}
	mux := newAccountMux(accounts, &fakeAccountLookup{err: sql.ErrNoRows})

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{"email":"creator@example.com"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Email    string `json:"email"`
		Tier     string `json:"tier"`
		APIToken string `json:"apiToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "creator@example.com", resp.Email)
	assert.Equal(t, "free", resp.Tier)
	require.NotEmpty(t, resp.APIToken)

	// The service only ever sees the hash of the returned token
	assert.Equal(t, middleware.HashToken(resp.APIToken), accounts.lastTokenHash)
	assert.NotContains(t, accounts.lastTokenHash, resp.APIToken)
}

func TestSignupTokensAreUnique(t *testing.T) {
	accounts := &fakeAccountService{}
	mux := newAccountMux(accounts, &fakeAccountLookup{err: sql.ErrNoRows})

	tokens := make(map[string]bool)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{"email":"creator@example.com"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			APIToken string `json:"apiToken"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		tokens[resp.APIToken] = true
	}
	assert.Len(t, tokens, 3)
}

func TestSignupConflict(t *testing.T) {
	accounts := &fakeAccountService{
		signupErr: domain.Errorf(domain.ECONFLICT, "account.signup", "an account with this email already exists"),
	}
	mux := newAccountMux(accounts, &fakeAccountLookup{err: sql.ErrNoRows})

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{"email":"creator@example.com"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestArchiveRequiresToken(t *testing.T) {
	accounts := &fakeAccountService{}
	mux := newAccountMux(accounts, &fakeAccountLookup{err: sql.ErrNoRows})

	req := httptest.NewRequest(http.MethodDelete, "/api/account", nil)
	req.RemoteAddr = "203.0.113.9:52011"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, accounts.archived)
}

func TestArchiveOwnAccount(t *testing.T) {
	account := domain.Account{ID: uuid.New(), Email: "creator@example.com", Tier: domain.TierCreator}
	accounts := &fakeAccountService{}
	mux := newAccountMux(accounts, &fakeAccountLookup{account: account})

	req := httptest.NewRequest(http.MethodDelete, "/api/account", nil)
	req.Header.Set("Authorization", "Bearer sk-test-token")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []uuid.UUID{account.ID}, accounts.archived)
}
