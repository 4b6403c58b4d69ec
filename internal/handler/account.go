// Package handler contains the HTTP layer.
//
// This file implements account signup and archival. Signup returns the API
// token exactly once; only its hash is ever stored.
package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ycliang/scriptly/internal/domain"
	"github.com/ycliang/scriptly/internal/middleware"
	"github.com/ycliang/scriptly/internal/service"
)

// AccountHandler handles account lifecycle requests.
type AccountHandler struct {
	accounts service.AccountService
	logger   *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// RegisterRoutes registers account routes. Signup is open; archival
// requires the caller's own token.
func (h *AccountHandler) RegisterRoutes(mux *http.ServeMux, withIdentity func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /api/accounts", h.Signup)
	mux.Handle("DELETE /api/account", withIdentity(http.HandlerFunc(h.Archive)))
}

type signupRequest struct {
	Email string `json:"email"`
}

type signupResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Tier     string `json:"tier"`
	APIToken string `json:"apiToken"` // shown once, never retrievable again
}

// Signup creates a free-tier account and returns its API token.
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("account.signup", "invalid request body"))
		return
	}

	token, err := newAPIToken()
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "account.signup", "failed to generate API token"))
		return
	}

	account, err := h.accounts.Signup(r.Context(), req.Email, middleware.HashToken(token))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{
		ID:       account.ID.String(),
		Email:    account.Email,
		Tier:     string(account.Tier),
		APIToken: token,
	})
}

// Archive soft-archives the authenticated caller's account.
func (h *AccountHandler) Archive(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		ErrorResponse(w, r, h.logger, domain.Unauthorized("account.archive", "sign in to close your account"))
		return
	}

	if err := h.accounts.Archive(r.Context(), account.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// newAPIToken returns a fresh bearer token. 32 random bytes, hex encoded.
func newAPIToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "sk_" + hex.EncodeToString(buf), nil
}
