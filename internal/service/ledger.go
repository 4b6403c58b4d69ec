// Package service contains the business logic layer.
//
// This file implements the quota ledger: per-subscriber monthly counters
// with lazy cycle rollover.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ycliang/scriptly/internal/domain"
	"github.com/ycliang/scriptly/internal/metrics"
)

// =============================================================================
// Interface Definition
// =============================================================================

// AccountStore defines the account persistence operations the ledger needs.
// Implemented by *repository.Queries.
type AccountStore interface {
	GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error)
	ResetAccountCycle(ctx context.Context, id uuid.UUID, resetAt time.Time) error
	IncrementBucketUsage(ctx context.Context, id uuid.UUID, bucket domain.CreditBucket) error
}

// LedgerService defines operations on subscriber quota counters.
type LedgerService interface {
	// GetOrResetAccount reads an account, rolling its counters over first
	// if the current time has crossed the stored cycle boundary. The
	// rollover is lazy: an account untouched for several months resets
	// once, to the current cycle.
	GetOrResetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error)

	// IncrementUsage adds one credit to the account's counter for the
	// given bucket.
	IncrementUsage(ctx context.Context, id uuid.UUID, bucket domain.CreditBucket) error
}

// =============================================================================
// Implementation
// =============================================================================

type ledgerService struct {
	store  AccountStore
	logger *slog.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(store AccountStore, logger *slog.Logger) LedgerService {
	return &ledgerService{
		store:  store,
		logger: logger,
	}
}

// GetOrResetAccount reads an account and applies the lazy monthly rollover.
func (s *ledgerService) GetOrResetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	const op = "ledger.get_or_reset"

	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.NotFound(op, "account", id.String())
		}
		return domain.Account{}, domain.Internal(err, op, "failed to load account")
	}

	now := time.Now()
	if !account.RolloverDue(now) {
		return account, nil
	}

	account.Rollover(now)
	if err := s.store.ResetAccountCycle(ctx, account.ID, account.CycleResetAt); err != nil {
		return domain.Account{}, domain.Internal(err, op, "failed to reset cycle counters")
	}

	metrics.CycleRolloversTotal.Inc()
	s.logger.Info("Cycle counters reset",
		"account_id", account.ID,
		"tier", account.Tier,
		"next_reset", account.CycleResetAt,
	)

	return account, nil
}

// IncrementUsage adds one credit to the mapped bucket counter.
func (s *ledgerService) IncrementUsage(ctx context.Context, id uuid.UUID, bucket domain.CreditBucket) error {
	const op = "ledger.increment"

	if err := s.store.IncrementBucketUsage(ctx, id, bucket); err != nil {
		return domain.Internal(err, op, "failed to increment bucket usage")
	}
	return nil
}
