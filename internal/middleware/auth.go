// Package middleware contains HTTP middleware.
//
// This file resolves the caller identity: a subscriber account via bearer
// token, or a guest identified only by client IP. Enforcement happens in
// the access guard, not here.
package middleware

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/ycliang/scriptly/internal/domain"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	accountContextKey  contextKey = "account"
)

// AccountLookup is the account read the auth middleware needs.
// Implemented by *repository.Queries.
type AccountLookup interface {
	GetAccountByTokenHash(ctx context.Context, tokenHash string) (domain.Account, error)
}

// AuthMiddleware resolves bearer tokens to subscriber accounts.
type AuthMiddleware struct {
	store  AccountLookup
	logger *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(store AccountLookup, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		store:  store,
		logger: logger,
	}
}

// WithIdentity resolves the caller and stores the identity in the request
// context. A valid bearer token yields a subscriber identity; no token
// yields a guest identity keyed by client IP. An invalid token is rejected
// rather than downgraded to guest, so token typos cannot silently burn the
// IP's daily allowance.
func (m *AuthMiddleware) WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			identity := domain.GuestIdentity(getClientIP(r))
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity, nil)))
			return
		}

		account, err := m.store.GetAccountByTokenHash(r.Context(), hashToken(token))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				writeAuthError(w, http.StatusUnauthorized, "invalid API token")
				return
			}
			m.logger.Error("token lookup failed", "error", err)
			writeAuthError(w, http.StatusInternalServerError, "authentication unavailable")
			return
		}

		identity := domain.SubscriberIdentity(account.ID)
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity, &account)))
	})
}

func withIdentity(ctx context.Context, identity domain.Identity, account *domain.Account) context.Context {
	ctx = context.WithValue(ctx, identityContextKey, identity)
	if account != nil {
		ctx = context.WithValue(ctx, accountContextKey, account)
	}
	return ctx
}

// GetIdentity returns the resolved caller identity from the context.
// A zero Identity (unresolved) is returned if the middleware never ran.
func GetIdentity(ctx context.Context) domain.Identity {
	if identity, ok := ctx.Value(identityContextKey).(domain.Identity); ok {
		return identity
	}
	return domain.Identity{}
}

// GetAccount returns the authenticated account from the context, or nil
// for guests.
func GetAccount(ctx context.Context) *domain.Account {
	if account, ok := ctx.Value(accountContextKey).(*domain.Account); ok {
		return account
	}
	return nil
}

// HashToken returns the hex SHA-256 of an API token, the form stored in
// the accounts table.
func HashToken(token string) string {
	return hashToken(token)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"` + message + `"}}`))
}

// getClientIP extracts the client IP from the request, considering proxy headers.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For first (most common proxy header)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs: client, proxy1, proxy2
		// The first one is the original client
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			clientIP := strings.TrimSpace(ips[0])
			if clientIP != "" {
				return clientIP
			}
		}
	}

	// Check X-Real-IP (nginx)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}

	return ip
}
