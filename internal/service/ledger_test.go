package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ycliang/scriptly/internal/domain"
)

type fakeAccountStore struct {
	account    domain.Account
	getErr     error
	resetCalls []time.Time
	increments []domain.CreditBucket
}

func (f *fakeAccountStore) GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	if f.getErr != nil {
		return domain.Account{}, f.getErr
	}
	return f.account, nil
}

func (f *fakeAccountStore) ResetAccountCycle(ctx context.Context, id uuid.UUID, resetAt time.Time) error {
	f.resetCalls = append(f.resetCalls, resetAt)
	return nil
}

func (f *fakeAccountStore) IncrementBucketUsage(ctx context.Context, id uuid.UUID, bucket domain.CreditBucket) error {
	f.increments = append(f.increments, bucket)
	return nil
}

func TestGetOrResetAccountNoRolloverBeforeBoundary(t *testing.T) {
	store := &fakeAccountStore{account: domain.Account{
		ID:           uuid.New(),
		Tier:         domain.TierCreator,
		ScriptUsed:   12,
		CycleResetAt: time.Now().AddDate(0, 1, 0),
	}}
	svc := NewLedgerService(store, testLogger())

	account, err := svc.GetOrResetAccount(context.Background(), store.account.ID)

	require.NoError(t, err)
	assert.Equal(t, 12, account.ScriptUsed)
	assert.Empty(t, store.resetCalls, "no reset should be persisted before the boundary")
}

func TestGetOrResetAccountRollsOverPastBoundary(t *testing.T) {
	store := &fakeAccountStore{account: domain.Account{
		ID:           uuid.New(),
		Tier:         domain.TierCreator,
		ScriptUsed:   50,
		CarouselUsed: 30,
		CycleResetAt: time.Now().AddDate(0, -2, 0),
	}}
	svc := NewLedgerService(store, testLogger())

	account, err := svc.GetOrResetAccount(context.Background(), store.account.ID)

	require.NoError(t, err)
	assert.Zero(t, account.ScriptUsed)
	assert.Zero(t, account.CarouselUsed)
	require.Len(t, store.resetCalls, 1)
	assert.True(t, store.resetCalls[0].After(time.Now()), "next boundary must be in the future")
	assert.Equal(t, account.CycleResetAt, store.resetCalls[0])
}

func TestGetOrResetAccountMapsMissingRow(t *testing.T) {
	store := &fakeAccountStore{getErr: sql.ErrNoRows}
	svc := NewLedgerService(store, testLogger())

	_, err := svc.GetOrResetAccount(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestIncrementUsage(t *testing.T) {
	store := &fakeAccountStore{}
	svc := NewLedgerService(store, testLogger())

	err := svc.IncrementUsage(context.Background(), uuid.New(), domain.BucketCarousel)

	require.NoError(t, err)
	assert.Equal(t, []domain.CreditBucket{domain.BucketCarousel}, store.increments)
}
