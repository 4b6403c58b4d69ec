// Package service contains the business logic layer.
//
// This file implements the upgrade stub: the only write path the payment
// collaborator gets. It rewrites a subscriber's tier and appends a settled
// revenue record. No invoicing, proration, or refunds.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ycliang/scriptly/internal/domain"
)

// UpgradeStore defines the writes the upgrade stub needs.
// Implemented by *repository.Queries.
type UpgradeStore interface {
	GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error)
	UpdateAccountTier(ctx context.Context, id uuid.UUID, tier domain.Tier) error
	InsertRevenueRecord(ctx context.Context, record domain.RevenueRecord) error
}

// UpgradeService applies settled tier purchases.
type UpgradeService interface {
	// Upgrade rewrites the account's tier and records the settled payment
	// at the tier's catalog price.
	Upgrade(ctx context.Context, accountID uuid.UUID, tier domain.Tier) error
}

type upgradeService struct {
	store  UpgradeStore
	logger *slog.Logger
}

// NewUpgradeService creates a new UpgradeService.
func NewUpgradeService(store UpgradeStore, logger *slog.Logger) UpgradeService {
	return &upgradeService{
		store:  store,
		logger: logger,
	}
}

func (s *upgradeService) Upgrade(ctx context.Context, accountID uuid.UUID, tier domain.Tier) error {
	const op = "upgrade.apply"

	if !tier.Valid() || tier == domain.TierFree {
		return domain.Invalid(op, "cannot upgrade to tier: "+string(tier))
	}

	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "account", accountID.String())
		}
		return domain.Internal(err, op, "failed to load account")
	}

	if err := s.store.UpdateAccountTier(ctx, accountID, tier); err != nil {
		return domain.Internal(err, op, "failed to update tier")
	}

	plan := domain.GetTierPlan(tier)
	record := domain.RevenueRecord{
		ID:        uuid.New(),
		AccountID: accountID,
		Tier:      tier,
		AmountTWD: plan.PriceTWD,
		Status:    domain.RevenueStatusCompleted,
		CreatedAt: time.Now(),
	}
	if err := s.store.InsertRevenueRecord(ctx, record); err != nil {
		return domain.Internal(err, op, "failed to record revenue")
	}

	s.logger.Info("Tier upgraded",
		"account_id", accountID,
		"tier", tier,
		"amount_twd", plan.PriceTWD,
	)
	return nil
}
