package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ycliang/scriptly/internal/domain"
	"github.com/ycliang/scriptly/internal/worker"
)

type fakeRecorderStore struct {
	mu          sync.Mutex
	increments  []domain.CreditBucket
	usageEvents []domain.UsageEvent
	guestEvents []domain.GuestUsageEvent
	costRecords []domain.CostRecord
}

func (f *fakeRecorderStore) IncrementBucketUsage(ctx context.Context, id uuid.UUID, bucket domain.CreditBucket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments = append(f.increments, bucket)
	return nil
}

func (f *fakeRecorderStore) InsertUsageEvent(ctx context.Context, event domain.UsageEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usageEvents = append(f.usageEvents, event)
	return nil
}

func (f *fakeRecorderStore) InsertGuestUsageEvent(ctx context.Context, event domain.GuestUsageEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guestEvents = append(f.guestEvents, event)
	return nil
}

func (f *fakeRecorderStore) InsertCostRecord(ctx context.Context, record domain.CostRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.costRecords = append(f.costRecords, record)
	return nil
}

func newTestQueue(t *testing.T) *worker.Queue {
	t.Helper()
	cfg := worker.DefaultConfig()
	cfg.Workers = 1
	queue, err := worker.NewQueue(cfg, testLogger())
	require.NoError(t, err)
	queue.Start()
	return queue
}

func TestRecordUsageSubscriber(t *testing.T) {
	store := &fakeRecorderStore{}
	queue := newTestQueue(t)
	svc := NewRecorderService(store, queue, 31.5, testLogger())

	accountID := uuid.New()
	svc.RecordUsage(domain.SubscriberIdentity(accountID), domain.FeatureCarousel)
	queue.Stop() // drains the buffer

	assert.Equal(t, []domain.CreditBucket{domain.BucketCarousel}, store.increments)
	require.Len(t, store.usageEvents, 1)
	event := store.usageEvents[0]
	assert.Equal(t, accountID, event.AccountID.UUID)
	assert.Equal(t, domain.FeatureCarousel, event.Feature)
	assert.Equal(t, 1, event.Credits)
	assert.Empty(t, store.guestEvents)
}

func TestRecordUsageGuest(t *testing.T) {
	store := &fakeRecorderStore{}
	queue := newTestQueue(t)
	svc := NewRecorderService(store, queue, 31.5, testLogger())

	svc.RecordUsage(domain.GuestIdentity("203.0.113.9"), domain.FeatureScript)
	queue.Stop()

	// Guests never touch account counters; the limiter recounts the log
	assert.Empty(t, store.increments)
	assert.Empty(t, store.usageEvents)
	require.Len(t, store.guestEvents, 1)
	assert.Equal(t, "203.0.113.9", store.guestEvents[0].IP)
	assert.Equal(t, domain.FeatureScript, store.guestEvents[0].Feature)
}

func TestRecordCost(t *testing.T) {
	store := &fakeRecorderStore{}
	queue := newTestQueue(t)
	svc := NewRecorderService(store, queue, 31.5, testLogger())

	accountID := uuid.New()
	generationID := uuid.NullUUID{UUID: uuid.New(), Valid: true}
	estimate := svc.RecordCost(domain.SubscriberIdentity(accountID), domain.FeatureScript, "gpt-4o", 1000, 1000, generationID)
	queue.Stop()

	// The estimate comes back synchronously
	assert.InDelta(t, 0.0125, estimate.CostUSD, 1e-9)
	assert.InDelta(t, 0.39, estimate.CostTWD, 1e-9)
	assert.Equal(t, 2000, estimate.TotalTokens)

	require.Len(t, store.costRecords, 1)
	record := store.costRecords[0]
	assert.Equal(t, accountID, record.AccountID.UUID)
	assert.Equal(t, "gpt-4o", record.Model)
	assert.Equal(t, generationID, record.GenerationID)
	assert.InDelta(t, estimate.CostUSD, record.CostUSD, 1e-9)
}

func TestRecordCostGuestHasNoAccount(t *testing.T) {
	store := &fakeRecorderStore{}
	queue := newTestQueue(t)
	svc := NewRecorderService(store, queue, 31.5, testLogger())

	svc.RecordCost(domain.GuestIdentity("203.0.113.9"), domain.FeatureScript, "gpt-4o-mini", 100, 200, uuid.NullUUID{})
	queue.Stop()

	require.Len(t, store.costRecords, 1)
	assert.False(t, store.costRecords[0].AccountID.Valid)
}
