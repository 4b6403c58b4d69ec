// Package service contains the business logic layer.
//
// This file implements the admin aggregator: a read-only batch computation
// of subscriber, cost, revenue, and profit figures over three fixed
// windows (all time, this month, today). Figures are computed fresh on
// every call; this is an admin-only path, not worth a cache.
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"math"
	"time"

	"github.com/ycliang/scriptly/internal/domain"
	"github.com/ycliang/scriptly/internal/repository"
)

// ReportStore defines the aggregate reads the report service needs.
// Implemented by *repository.Queries.
type ReportStore interface {
	CountAccounts(ctx context.Context) (int64, error)
	CountAccountsByTier(ctx context.Context) (map[domain.Tier]int64, error)
	CountAccountsCreatedSince(ctx context.Context, since sql.NullTime) (int64, error)
	SumCosts(ctx context.Context, since sql.NullTime) (repository.CostTotals, error)
	ListModelCosts(ctx context.Context) ([]repository.ModelCostRow, error)
	SumCompletedRevenue(ctx context.Context, since sql.NullTime) (int64, error)
	CountCompletedPayments(ctx context.Context) (int64, error)
	SumCompletedRevenueByTier(ctx context.Context) (map[domain.Tier]int64, error)
	CountGenerationsSince(ctx context.Context, since sql.NullTime) (int64, error)
}

// =============================================================================
// Report shape (the stable JSON contract of the admin endpoint)
// =============================================================================

// TierCounts breaks a user count down by tier.
type TierCounts struct {
	Free     int64 `json:"free"`
	Creator  int64 `json:"creator"`
	Pro      int64 `json:"pro"`
	Lifetime int64 `json:"lifetime"`
}

// UserStats summarizes the subscriber base.
type UserStats struct {
	Total        int64      `json:"total"`
	ByTier       TierCounts `json:"byTier"`
	NewThisMonth int64      `json:"newThisMonth"`
}

// CostPair is a cost figure in both currencies. USD keeps display
// precision (2 decimals); TWD aggregates are whole dollars.
type CostPair struct {
	USD float64 `json:"usd"`
	TWD int64   `json:"twd"`
}

// CostStats holds cost totals for the three reporting windows.
type CostStats struct {
	Total     CostPair `json:"total"`
	ThisMonth CostPair `json:"thisMonth"`
	Today     CostPair `json:"today"`
}

// RevenueByTier breaks settled revenue down by purchased tier. The free
// tier never produces revenue.
type RevenueByTier struct {
	Creator  int64 `json:"creator"`
	Pro      int64 `json:"pro"`
	Lifetime int64 `json:"lifetime"`
}

// RevenueStats holds settled revenue (TWD) for the three windows.
type RevenueStats struct {
	Total         int64         `json:"total"`
	ThisMonth     int64         `json:"thisMonth"`
	Today         int64         `json:"today"`
	ByTier        RevenueByTier `json:"byTier"`
	TotalPayments int64         `json:"totalPayments"`
}

// ProfitStats is revenue minus cost, in TWD, per window.
type ProfitStats struct {
	Total     int64 `json:"total"`
	ThisMonth int64 `json:"thisMonth"`
	Today     int64 `json:"today"`
}

// ModelStats is the per-model cost breakdown, sorted descending by USD cost.
type ModelStats struct {
	Name    string  `json:"name"`
	Calls   int64   `json:"calls"`
	CostUSD float64 `json:"costUsd"`
	CostTWD int64   `json:"costTwd"`
}

// GenerationStats counts successful generations, sourced from the
// generations audit table rather than usage events.
type GenerationStats struct {
	ThisMonth int64 `json:"thisMonth"`
}

// AdminReport is the full reporting payload.
type AdminReport struct {
	Users       UserStats       `json:"users"`
	Costs       CostStats       `json:"costs"`
	Revenue     RevenueStats    `json:"revenue"`
	Profit      ProfitStats     `json:"profit"`
	Models      []ModelStats    `json:"models"`
	Generations GenerationStats `json:"generations"`
}

// =============================================================================
// Implementation
// =============================================================================

// ReportService computes the admin report.
type ReportService interface {
	// Report assembles the full report. Any store failure fails the whole
	// computation; the report never silently returns partial zeros.
	Report(ctx context.Context) (*AdminReport, error)
}

type reportService struct {
	store  ReportStore
	logger *slog.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(store ReportStore, logger *slog.Logger) ReportService {
	return &reportService{
		store:  store,
		logger: logger,
	}
}

func (s *reportService) Report(ctx context.Context) (*AdminReport, error) {
	const op = "report.build"

	now := time.Now()
	allTime := sql.NullTime{}
	monthStart := sql.NullTime{Time: startOfMonth(now), Valid: true}
	dayStart := sql.NullTime{Time: startOfDay(now), Valid: true}

	report := &AdminReport{}

	if err := s.fillUsers(ctx, report, monthStart); err != nil {
		return nil, domain.Internal(err, op, "failed to aggregate users")
	}

	if err := s.fillCosts(ctx, report, allTime, monthStart, dayStart); err != nil {
		return nil, domain.Internal(err, op, "failed to aggregate costs")
	}

	if err := s.fillRevenue(ctx, report, allTime, monthStart, dayStart); err != nil {
		return nil, domain.Internal(err, op, "failed to aggregate revenue")
	}

	report.Profit = ProfitStats{
		Total:     report.Revenue.Total - report.Costs.Total.TWD,
		ThisMonth: report.Revenue.ThisMonth - report.Costs.ThisMonth.TWD,
		Today:     report.Revenue.Today - report.Costs.Today.TWD,
	}

	modelRows, err := s.store.ListModelCosts(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to aggregate model costs")
	}
	report.Models = make([]ModelStats, 0, len(modelRows))
	for _, row := range modelRows {
		report.Models = append(report.Models, ModelStats{
			Name:    row.Model,
			Calls:   row.Calls,
			CostUSD: roundDisplayUSD(row.CostUSD),
			CostTWD: int64(math.Round(row.CostTWD)),
		})
	}

	generations, err := s.store.CountGenerationsSince(ctx, monthStart)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count generations")
	}
	report.Generations = GenerationStats{ThisMonth: generations}

	return report, nil
}

func (s *reportService) fillUsers(ctx context.Context, report *AdminReport, monthStart sql.NullTime) error {
	total, err := s.store.CountAccounts(ctx)
	if err != nil {
		return err
	}

	byTier, err := s.store.CountAccountsByTier(ctx)
	if err != nil {
		return err
	}

	newThisMonth, err := s.store.CountAccountsCreatedSince(ctx, monthStart)
	if err != nil {
		return err
	}

	report.Users = UserStats{
		Total: total,
		ByTier: TierCounts{
			Free:     byTier[domain.TierFree],
			Creator:  byTier[domain.TierCreator],
			Pro:      byTier[domain.TierPro],
			Lifetime: byTier[domain.TierLifetime],
		},
		NewThisMonth: newThisMonth,
	}
	return nil
}

func (s *reportService) fillCosts(ctx context.Context, report *AdminReport, windows ...sql.NullTime) error {
	pairs := make([]CostPair, len(windows))
	for i, window := range windows {
		totals, err := s.store.SumCosts(ctx, window)
		if err != nil {
			return err
		}
		pairs[i] = CostPair{
			USD: roundDisplayUSD(totals.USD),
			TWD: int64(math.Round(totals.TWD)),
		}
	}
	report.Costs = CostStats{Total: pairs[0], ThisMonth: pairs[1], Today: pairs[2]}
	return nil
}

func (s *reportService) fillRevenue(ctx context.Context, report *AdminReport, windows ...sql.NullTime) error {
	sums := make([]int64, len(windows))
	for i, window := range windows {
		sum, err := s.store.SumCompletedRevenue(ctx, window)
		if err != nil {
			return err
		}
		sums[i] = sum
	}

	byTier, err := s.store.SumCompletedRevenueByTier(ctx)
	if err != nil {
		return err
	}

	payments, err := s.store.CountCompletedPayments(ctx)
	if err != nil {
		return err
	}

	report.Revenue = RevenueStats{
		Total:     sums[0],
		ThisMonth: sums[1],
		Today:     sums[2],
		ByTier: RevenueByTier{
			Creator:  byTier[domain.TierCreator],
			Pro:      byTier[domain.TierPro],
			Lifetime: byTier[domain.TierLifetime],
		},
		TotalPayments: payments,
	}
	return nil
}

// startOfMonth returns local midnight on the first of the month containing t.
func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// roundDisplayUSD rounds an aggregated USD figure to display precision.
// Per-record costs keep 6 decimals; only aggregates are rounded to 2.
func roundDisplayUSD(v float64) float64 {
	return math.Round(v*100) / 100
}
