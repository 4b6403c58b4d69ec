package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ycliang/scriptly/internal/domain"
)

type fakeUpgradeStore struct {
	getErr     error
	tierWrites []domain.Tier
	revenue    []domain.RevenueRecord
}

func (f *fakeUpgradeStore) GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	if f.getErr != nil {
		return domain.Account{}, f.getErr
	}
	return domain.Account{ID: id, Tier: domain.TierFree}, nil
}

func (f *fakeUpgradeStore) UpdateAccountTier(ctx context.Context, id uuid.UUID, tier domain.Tier) error {
	f.tierWrites = append(f.tierWrites, tier)
	return nil
}

func (f *fakeUpgradeStore) InsertRevenueRecord(ctx context.Context, record domain.RevenueRecord) error {
	f.revenue = append(f.revenue, record)
	return nil
}

func TestUpgrade(t *testing.T) {
	store := &fakeUpgradeStore{}
	svc := NewUpgradeService(store, testLogger())

	err := svc.Upgrade(context.Background(), uuid.New(), domain.TierCreator)

	require.NoError(t, err)
	assert.Equal(t, []domain.Tier{domain.TierCreator}, store.tierWrites)
	require.Len(t, store.revenue, 1)
	assert.Equal(t, 299, store.revenue[0].AmountTWD)
	assert.Equal(t, domain.RevenueStatusCompleted, store.revenue[0].Status)
}

func TestUpgradeLifetimeRecordsOneTimePrice(t *testing.T) {
	store := &fakeUpgradeStore{}
	svc := NewUpgradeService(store, testLogger())

	err := svc.Upgrade(context.Background(), uuid.New(), domain.TierLifetime)

	require.NoError(t, err)
	require.Len(t, store.revenue, 1)
	assert.Equal(t, 2990, store.revenue[0].AmountTWD)
}

func TestUpgradeRejectsInvalidTargets(t *testing.T) {
	tests := []struct {
		name string
		tier domain.Tier
	}{
		{"free is not a purchase", domain.TierFree},
		{"unknown tier", domain.Tier("platinum")},
		{"empty tier", domain.Tier("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUpgradeStore{}
			svc := NewUpgradeService(store, testLogger())

			err := svc.Upgrade(context.Background(), uuid.New(), tt.tier)

			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
			assert.Empty(t, store.tierWrites)
			assert.Empty(t, store.revenue)
		})
	}
}

func TestUpgradeUnknownAccount(t *testing.T) {
	store := &fakeUpgradeStore{getErr: sql.ErrNoRows}
	svc := NewUpgradeService(store, testLogger())

	err := svc.Upgrade(context.Background(), uuid.New(), domain.TierPro)

	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	assert.Empty(t, store.tierWrites)
}
