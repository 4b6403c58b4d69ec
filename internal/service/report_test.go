package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ycliang/scriptly/internal/domain"
	"github.com/ycliang/scriptly/internal/repository"
)

// fakeReportStore serves the three reporting windows (all time, this month,
// today) in call order, which is how the service requests them.
type fakeReportStore struct {
	accounts      int64
	byTier        map[domain.Tier]int64
	newAccounts   int64
	costWindows   []repository.CostTotals
	costCalls     int
	revenue       []int64
	revenueCalls  int
	revenueByTier map[domain.Tier]int64
	payments      int64
	modelCosts    []repository.ModelCostRow
	generations   int64

	failCosts bool
}

func (f *fakeReportStore) CountAccounts(ctx context.Context) (int64, error) {
	return f.accounts, nil
}

func (f *fakeReportStore) CountAccountsByTier(ctx context.Context) (map[domain.Tier]int64, error) {
	return f.byTier, nil
}

func (f *fakeReportStore) CountAccountsCreatedSince(ctx context.Context, since sql.NullTime) (int64, error) {
	return f.newAccounts, nil
}

func (f *fakeReportStore) SumCosts(ctx context.Context, since sql.NullTime) (repository.CostTotals, error) {
	if f.failCosts {
		return repository.CostTotals{}, errors.New("connection refused")
	}
	totals := f.costWindows[f.costCalls]
	f.costCalls++
	return totals, nil
}

func (f *fakeReportStore) ListModelCosts(ctx context.Context) ([]repository.ModelCostRow, error) {
	return f.modelCosts, nil
}

func (f *fakeReportStore) SumCompletedRevenue(ctx context.Context, since sql.NullTime) (int64, error) {
	sum := f.revenue[f.revenueCalls]
	f.revenueCalls++
	return sum, nil
}

func (f *fakeReportStore) CountCompletedPayments(ctx context.Context) (int64, error) {
	return f.payments, nil
}

func (f *fakeReportStore) SumCompletedRevenueByTier(ctx context.Context) (map[domain.Tier]int64, error) {
	return f.revenueByTier, nil
}

func (f *fakeReportStore) CountGenerationsSince(ctx context.Context, since sql.NullTime) (int64, error) {
	return f.generations, nil
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{
		accounts:    120,
		byTier:      map[domain.Tier]int64{domain.TierFree: 100, domain.TierCreator: 15, domain.TierPro: 4, domain.TierLifetime: 1},
		newAccounts: 8,
		costWindows: []repository.CostTotals{
			{USD: 42.123456, TWD: 1326.89},
			{USD: 10.5, TWD: 330.75},
			{USD: 0.987654, TWD: 31.11},
		},
		revenue:       []int64{12345, 2990, 299},
		revenueByTier: map[domain.Tier]int64{domain.TierCreator: 5980, domain.TierPro: 3375, domain.TierLifetime: 2990},
		payments:      9,
		modelCosts: []repository.ModelCostRow{
			{Model: "gpt-4o", Calls: 310, CostUSD: 38.004999, CostTWD: 1197.16},
			{Model: "gpt-4o-mini", Calls: 1200, CostUSD: 4.118457, CostTWD: 129.73},
		},
		generations: 450,
	}
}

func TestReport(t *testing.T) {
	svc := NewReportService(newFakeReportStore(), testLogger())

	report, err := svc.Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(120), report.Users.Total)
	assert.Equal(t, TierCounts{Free: 100, Creator: 15, Pro: 4, Lifetime: 1}, report.Users.ByTier)
	assert.Equal(t, int64(8), report.Users.NewThisMonth)

	// Aggregated USD rounds to 2 decimals; TWD aggregates are whole dollars
	assert.Equal(t, CostPair{USD: 42.12, TWD: 1327}, report.Costs.Total)
	assert.Equal(t, CostPair{USD: 10.5, TWD: 331}, report.Costs.ThisMonth)
	assert.Equal(t, CostPair{USD: 0.99, TWD: 31}, report.Costs.Today)

	assert.Equal(t, int64(12345), report.Revenue.Total)
	assert.Equal(t, int64(2990), report.Revenue.ThisMonth)
	assert.Equal(t, int64(299), report.Revenue.Today)
	assert.Equal(t, RevenueByTier{Creator: 5980, Pro: 3375, Lifetime: 2990}, report.Revenue.ByTier)
	assert.Equal(t, int64(9), report.Revenue.TotalPayments)

	// Profit is revenue minus cost per window, in TWD
	assert.Equal(t, ProfitStats{Total: 12345 - 1327, ThisMonth: 2990 - 331, Today: 299 - 31}, report.Profit)

	require.Len(t, report.Models, 2)
	assert.Equal(t, ModelStats{Name: "gpt-4o", Calls: 310, CostUSD: 38.0, CostTWD: 1197}, report.Models[0])

	assert.Equal(t, int64(450), report.Generations.ThisMonth)
}

func TestReportIsIdempotent(t *testing.T) {
	// Reporting reads aggregates; running it twice must not change anything
	store := newFakeReportStore()
	svc := NewReportService(store, testLogger())

	first, err := svc.Report(context.Background())
	require.NoError(t, err)

	store.costCalls = 0
	store.revenueCalls = 0
	second, err := svc.Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReportFailsWhole(t *testing.T) {
	// A store failure fails the report; no partial zeros are served
	store := newFakeReportStore()
	store.failCosts = true
	svc := NewReportService(store, testLogger())

	report, err := svc.Report(context.Background())

	assert.Nil(t, report)
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}
