package repository

import (
	"context"
	"database/sql"

	"github.com/ycliang/scriptly/internal/domain"
)

// CostTotals is the summed cost over a window, in both currencies.
type CostTotals struct {
	USD float64
	TWD float64
}

// ModelCostRow is the per-model cost breakdown for the admin report.
type ModelCostRow struct {
	Model   string
	Calls   int64
	CostUSD float64
	CostTWD float64
}

// CountAccounts returns the total number of non-archived accounts.
func (q *Queries) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE archived_at IS NULL`).Scan(&count)
	return count, err
}

// CountAccountsByTier returns account counts grouped by tier.
func (q *Queries) CountAccountsByTier(ctx context.Context) (map[domain.Tier]int64, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT tier, COUNT(*) FROM accounts
		WHERE archived_at IS NULL
		GROUP BY tier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Tier]int64)
	for rows.Next() {
		var tier string
		var count int64
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, err
		}
		counts[domain.Tier(tier)] = count
	}
	return counts, rows.Err()
}

// CountAccountsCreatedSince returns the number of accounts created at or
// after the given time.
func (q *Queries) CountAccountsCreatedSince(ctx context.Context, since sql.NullTime) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM accounts
		WHERE archived_at IS NULL
		  AND ($1::timestamptz IS NULL OR created_at >= $1)`,
		since).Scan(&count)
	return count, err
}

// SumCosts returns total generation cost in both currencies for the window
// starting at since. A null since means all time.
func (q *Queries) SumCosts(ctx context.Context, since sql.NullTime) (CostTotals, error) {
	var totals CostTotals
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(cost_usd), 0), COALESCE(SUM(cost_twd), 0)
		FROM cost_records
		WHERE $1::timestamptz IS NULL OR created_at >= $1`,
		since).Scan(&totals.USD, &totals.TWD)
	return totals, err
}

// ListModelCosts returns the all-time per-model cost breakdown, most
// expensive model first.
func (q *Queries) ListModelCosts(ctx context.Context) ([]ModelCostRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT model, COUNT(*), COALESCE(SUM(cost_usd), 0), COALESCE(SUM(cost_twd), 0)
		FROM cost_records
		GROUP BY model
		ORDER BY SUM(cost_usd) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ModelCostRow
	for rows.Next() {
		var row ModelCostRow
		if err := rows.Scan(&row.Model, &row.Calls, &row.CostUSD, &row.CostTWD); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// SumCompletedRevenue returns total settled revenue in TWD for the window
// starting at since. Only completed payments count.
func (q *Queries) SumCompletedRevenue(ctx context.Context, since sql.NullTime) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_twd), 0)
		FROM revenue_records
		WHERE status = 'completed'
		  AND ($1::timestamptz IS NULL OR created_at >= $1)`,
		since).Scan(&total)
	return total, err
}

// CountCompletedPayments returns the all-time number of settled payments.
func (q *Queries) CountCompletedPayments(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM revenue_records WHERE status = 'completed'`).Scan(&count)
	return count, err
}

// SumCompletedRevenueByTier returns settled revenue grouped by purchased tier.
func (q *Queries) SumCompletedRevenueByTier(ctx context.Context) (map[domain.Tier]int64, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT tier, COALESCE(SUM(amount_twd), 0)
		FROM revenue_records
		WHERE status = 'completed'
		GROUP BY tier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[domain.Tier]int64)
	for rows.Next() {
		var tier string
		var amount int64
		if err := rows.Scan(&tier, &amount); err != nil {
			return nil, err
		}
		totals[domain.Tier(tier)] = amount
	}
	return totals, rows.Err()
}

// CountGenerationsSince returns the number of successful generations at or
// after the given time. This feeds the report's proxy metric, sourced from
// the generations audit table rather than usage events.
func (q *Queries) CountGenerationsSince(ctx context.Context, since sql.NullTime) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM generations
		WHERE $1::timestamptz IS NULL OR created_at >= $1`,
		since).Scan(&count)
	return count, err
}
