package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ycliang/scriptly/internal/domain"
)

// InsertUsageEvent appends one usage audit row.
func (q *Queries) InsertUsageEvent(ctx context.Context, event domain.UsageEvent) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO usage_events (id, account_id, feature, credits)
		VALUES ($1, $2, $3, $4)`,
		event.ID, event.AccountID, string(event.Feature), event.Credits)
	return err
}

// InsertGuestUsageEvent appends one guest usage row.
func (q *Queries) InsertGuestUsageEvent(ctx context.Context, event domain.GuestUsageEvent) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO guest_usage_events (id, ip, feature)
		VALUES ($1, $2, $3)`,
		event.ID, event.IP, string(event.Feature))
	return err
}

// CountGuestEventsSince counts guest usage rows for an IP since the given
// time. The guest limiter calls this with the start of the current local day.
func (q *Queries) CountGuestEventsSince(ctx context.Context, ip string, since time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM guest_usage_events
		WHERE ip = $1 AND created_at >= $2`,
		ip, since).Scan(&count)
	return count, err
}

// PruneGuestEventsBefore deletes guest usage rows older than the retention
// cutoff. The rows only feed a rolling daily count, so old ones are dead weight.
func (q *Queries) PruneGuestEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM guest_usage_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertCostRecord appends one cost audit row.
func (q *Queries) InsertCostRecord(ctx context.Context, record domain.CostRecord) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO cost_records
			(id, account_id, feature, model, input_tokens, output_tokens, total_tokens, cost_usd, cost_twd, generation_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.AccountID, string(record.Feature), record.Model,
		record.InputTokens, record.OutputTokens, record.TotalTokens,
		record.CostUSD, record.CostTWD, record.GenerationID)
	return err
}

// InsertRevenueRecord appends one revenue row. Written by the payment stub
// when a purchase settles.
func (q *Queries) InsertRevenueRecord(ctx context.Context, record domain.RevenueRecord) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO revenue_records (id, account_id, tier, amount_twd, status)
		VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.AccountID, string(record.Tier), record.AmountTWD, string(record.Status))
	return err
}

// InsertGeneration appends the audit row for one successful generation.
func (q *Queries) InsertGeneration(ctx context.Context, gen domain.Generation) (uuid.UUID, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO generations (id, account_id, feature, model, content)
		VALUES ($1, $2, $3, $4, $5)`,
		gen.ID, gen.AccountID, string(gen.Feature), gen.Model, gen.Content)
	return gen.ID, err
}
