package middleware

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ycliang/scriptly/internal/domain"
)

type fakeAccountLookup struct {
	account  domain.Account
	err      error
	lastHash string
}

func (f *fakeAccountLookup) GetAccountByTokenHash(ctx context.Context, tokenHash string) (domain.Account, error) {
	f.lastHash = tokenHash
	if f.err != nil {
		return domain.Account{}, f.err
	}
	return f.account, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func identityCapturingHandler(captured *domain.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestWithIdentityNoTokenIsGuest(t *testing.T) {
	var identity domain.Identity
	mw := NewAuthMiddleware(&fakeAccountLookup{}, testLogger())
	handler := mw.WithIdentity(identityCapturingHandler(&identity))

	req := httptest.NewRequest(http.MethodGet, "/api/quota", nil)
	req.RemoteAddr = "203.0.113.9:52011"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, identity.IsSubscriber())
	assert.Equal(t, "203.0.113.9", identity.GuestIP)
}

func TestWithIdentityValidToken(t *testing.T) {
	account := domain.Account{ID: uuid.New(), Tier: domain.TierCreator}
	lookup := &fakeAccountLookup{account: account}
	var identity domain.Identity
	mw := NewAuthMiddleware(lookup, testLogger())
	handler := mw.WithIdentity(identityCapturingHandler(&identity))

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	req.Header.Set("Authorization", "Bearer sk-test-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, identity.IsSubscriber())
	assert.Equal(t, account.ID, *identity.AccountID)
	assert.Equal(t, HashToken("sk-test-token"), lookup.lastHash, "tokens are looked up by hash, never stored raw")
}

func TestWithIdentityInvalidTokenRejected(t *testing.T) {
	// An invalid token is a 401, not a silent downgrade to guest: a typo
	// must not burn the IP's daily allowance.
	called := false
	mw := NewAuthMiddleware(&fakeAccountLookup{err: sql.ErrNoRows}, testLogger())
	handler := mw.WithIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestWithIdentityLookupFailure(t *testing.T) {
	mw := NewAuthMiddleware(&fakeAccountLookup{err: sql.ErrConnDone}, testLogger())
	handler := mw.WithIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	req.Header.Set("Authorization", "Bearer sk-test-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "203.0.113.9:52011",
			want:       "203.0.113.9",
		},
		{
			name:       "x-forwarded-for wins",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"},
			want:       "198.51.100.7",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			want:       "198.51.100.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestGetIdentityWithoutMiddleware(t *testing.T) {
	identity := GetIdentity(context.Background())
	assert.False(t, identity.IsResolved())
}
