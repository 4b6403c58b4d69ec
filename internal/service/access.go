// Package service contains the business logic layer.
//
// This file implements the access guard: the single allow/deny decision
// point in front of every metered generation call.
package service

import (
	"context"
	"log/slog"

	"github.com/ycliang/scriptly/internal/domain"
	"github.com/ycliang/scriptly/internal/metrics"
)

// =============================================================================
// Interface Definition
// =============================================================================

// AccessService decides whether a caller may consume a metered feature.
type AccessService interface {
	// CheckAccess returns the allow decision with remaining-quota
	// metadata, or a typed error on denial:
	//   - EUNAUTHORIZED when the caller cannot be identified
	//   - ENOTFOUND when a subscriber session has no account row
	//   - EPAYMENT when a subscriber is over allowance
	//   - ERATELIMIT when a guest is over the daily cap
	//
	// The check is read-only. It reserves nothing: the later increment in
	// the usage recorder is a separate write, and two concurrent requests
	// at the last remaining credit can both pass. That permissive race is
	// the documented behavior of this design, not a bug.
	CheckAccess(ctx context.Context, identity domain.Identity, feature domain.Feature) (*domain.Decision, error)
}

// =============================================================================
// Implementation
// =============================================================================

type accessService struct {
	ledger LedgerService
	guests GuestLimiterService
	logger *slog.Logger
}

// NewAccessService creates a new AccessService.
func NewAccessService(ledger LedgerService, guests GuestLimiterService, logger *slog.Logger) AccessService {
	return &accessService{
		ledger: ledger,
		guests: guests,
		logger: logger,
	}
}

// CheckAccess routes the check to the quota ledger for subscribers or the
// guest limiter for anonymous callers.
func (s *accessService) CheckAccess(ctx context.Context, identity domain.Identity, feature domain.Feature) (*domain.Decision, error) {
	const op = "access.check"

	if !identity.IsResolved() {
		metrics.AccessChecksTotal.WithLabelValues("unknown", "denied").Inc()
		return nil, domain.Unauthorized(op, "authentication required")
	}

	if identity.IsSubscriber() {
		return s.checkSubscriber(ctx, identity, feature)
	}
	return s.checkGuest(ctx, identity, feature)
}

func (s *accessService) checkSubscriber(ctx context.Context, identity domain.Identity, feature domain.Feature) (*domain.Decision, error) {
	const op = "access.check_subscriber"

	account, err := s.ledger.GetOrResetAccount(ctx, *identity.AccountID)
	if err != nil {
		metrics.AccessChecksTotal.WithLabelValues("subscriber", "denied").Inc()
		return nil, err
	}

	bucket := feature.Bucket()
	plan := domain.GetTierPlan(account.Tier)

	// Unlimited tier - always allow
	if plan.IsUnlimited(bucket) {
		metrics.AccessChecksTotal.WithLabelValues("subscriber", "allowed").Inc()
		return &domain.Decision{Allowed: true, Remaining: domain.Unlimited}, nil
	}

	used := account.Used(bucket)
	limit := plan.Allowance(bucket)
	if used >= limit {
		metrics.AccessChecksTotal.WithLabelValues("subscriber", "denied").Inc()
		metrics.QuotaDenialsTotal.WithLabelValues(string(bucket), string(account.Tier)).Inc()
		s.logger.Info("Quota exceeded",
			"account_id", account.ID,
			"tier", account.Tier,
			"bucket", bucket,
			"used", used,
			"limit", limit,
		)
		return nil, domain.QuotaExceeded(op, bucket, used, limit)
	}

	metrics.AccessChecksTotal.WithLabelValues("subscriber", "allowed").Inc()
	return &domain.Decision{Allowed: true, Remaining: limit - used}, nil
}

func (s *accessService) checkGuest(ctx context.Context, identity domain.Identity, feature domain.Feature) (*domain.Decision, error) {
	const op = "access.check_guest"

	remaining, err := s.guests.Remaining(ctx, identity.GuestIP)
	if err != nil {
		metrics.AccessChecksTotal.WithLabelValues("guest", "denied").Inc()
		return nil, err
	}

	if remaining <= 0 {
		metrics.AccessChecksTotal.WithLabelValues("guest", "denied").Inc()
		s.logger.Info("Guest daily limit reached",
			"ip", identity.GuestIP,
			"feature", feature,
			"limit", s.guests.Limit(),
		)
		return nil, domain.GuestLimitReached(op, s.guests.Limit())
	}

	metrics.AccessChecksTotal.WithLabelValues("guest", "allowed").Inc()
	return &domain.Decision{Allowed: true, Remaining: remaining}, nil
}
