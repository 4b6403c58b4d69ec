// Package service contains the business logic layer.
//
// This file implements account lifecycle: signup with an API token, and
// soft archival. Accounts are never deleted, only archived.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ycliang/scriptly/internal/domain"
	"github.com/ycliang/scriptly/internal/repository"
)

// AccountWriteStore defines the account lifecycle writes.
// Implemented by *repository.Queries.
type AccountWriteStore interface {
	CreateAccount(ctx context.Context, params repository.CreateAccountParams) (domain.Account, error)
	ArchiveAccount(ctx context.Context, id uuid.UUID) error
}

// AccountService creates and archives subscriber accounts.
type AccountService interface {
	// Signup creates a free-tier account with zeroed counters and the
	// given API token hash. The raw token never reaches this layer.
	Signup(ctx context.Context, email, tokenHash string) (domain.Account, error)

	// Archive soft-archives an account. Its rows stay for reporting.
	Archive(ctx context.Context, id uuid.UUID) error
}

type accountService struct {
	store  AccountWriteStore
	logger *slog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(store AccountWriteStore, logger *slog.Logger) AccountService {
	return &accountService{
		store:  store,
		logger: logger,
	}
}

func (s *accountService) Signup(ctx context.Context, email, tokenHash string) (domain.Account, error) {
	const op = "account.signup"

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Account{}, domain.Invalid(op, "a valid email address is required")
	}
	if tokenHash == "" {
		return domain.Account{}, domain.Invalid(op, "token hash is required")
	}

	account, err := s.store.CreateAccount(ctx, repository.CreateAccountParams{
		ID:           uuid.New(),
		Email:        email,
		Tier:         domain.TierFree,
		CycleResetAt: domain.NextCycleBoundary(time.Now()),
		APITokenHash: tokenHash,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Account{}, domain.Errorf(domain.ECONFLICT, op, "an account with this email already exists")
		}
		return domain.Account{}, domain.Internal(err, op, "failed to create account")
	}

	s.logger.Info("Account created", "account_id", account.ID, "tier", account.Tier)
	return account, nil
}

func (s *accountService) Archive(ctx context.Context, id uuid.UUID) error {
	const op = "account.archive"

	if err := s.store.ArchiveAccount(ctx, id); err != nil {
		return domain.Internal(err, op, "failed to archive account")
	}

	s.logger.Info("Account archived", "account_id", id)
	return nil
}
