package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ycliang/scriptly/internal/domain"
)

const accountColumns = `id, email, tier, script_used, carousel_used, cycle_reset_at,
	api_token_hash, created_at, updated_at, archived_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (domain.Account, error) {
	var a domain.Account
	var tier string
	err := row.Scan(
		&a.ID,
		&a.Email,
		&tier,
		&a.ScriptUsed,
		&a.CarouselUsed,
		&a.CycleResetAt,
		&a.APITokenHash,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.ArchivedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}
	a.Tier = domain.Tier(tier)
	return a, nil
}

// GetAccount fetches a subscriber account by ID.
func (q *Queries) GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND archived_at IS NULL`, id)
	return scanAccount(row)
}

// GetAccountByTokenHash fetches a subscriber account by its API token hash.
func (q *Queries) GetAccountByTokenHash(ctx context.Context, tokenHash string) (domain.Account, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE api_token_hash = $1 AND archived_at IS NULL`, tokenHash)
	return scanAccount(row)
}

// CreateAccountParams contains the values for a new subscriber account.
type CreateAccountParams struct {
	ID           uuid.UUID
	Email        string
	Tier         domain.Tier
	CycleResetAt time.Time
	APITokenHash string
}

// CreateAccount inserts a new subscriber account with zeroed counters.
func (q *Queries) CreateAccount(ctx context.Context, params CreateAccountParams) (domain.Account, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, email, tier, script_used, carousel_used, cycle_reset_at, api_token_hash)
		VALUES ($1, $2, $3, 0, 0, $4, $5)
		RETURNING `+accountColumns,
		params.ID, params.Email, string(params.Tier), params.CycleResetAt, params.APITokenHash)
	return scanAccount(row)
}

// ResetAccountCycle zeroes both bucket counters and advances the cycle
// boundary. Called by the quota ledger on lazy rollover.
func (q *Queries) ResetAccountCycle(ctx context.Context, id uuid.UUID, resetAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE accounts
		SET script_used = 0, carousel_used = 0, cycle_reset_at = $2, updated_at = now()
		WHERE id = $1`,
		id, resetAt)
	return err
}

// IncrementBucketUsage adds one credit to the counter for the given bucket.
func (q *Queries) IncrementBucketUsage(ctx context.Context, id uuid.UUID, bucket domain.CreditBucket) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE accounts
		SET script_used   = script_used   + CASE WHEN $2 = 'script'   THEN 1 ELSE 0 END,
		    carousel_used = carousel_used + CASE WHEN $2 = 'carousel' THEN 1 ELSE 0 END,
		    updated_at = now()
		WHERE id = $1`,
		id, string(bucket))
	return err
}

// UpdateAccountTier rewrites the subscriber's tier. Used by the payment
// stub after a settled purchase.
func (q *Queries) UpdateAccountTier(ctx context.Context, id uuid.UUID, tier domain.Tier) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE accounts SET tier = $2, updated_at = now() WHERE id = $1`,
		id, string(tier))
	return err
}

// ArchiveAccount soft-archives an account. Accounts are never deleted.
func (q *Queries) ArchiveAccount(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE accounts SET archived_at = now(), updated_at = now()
		WHERE id = $1 AND archived_at IS NULL`,
		id)
	return err
}
