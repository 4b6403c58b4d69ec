// Package service contains the business logic layer.
//
// This file implements the usage and cost recorders. Both run after a
// generation has fully completed and been judged successful, and both are
// best-effort: persistence goes through the fire-and-forget telemetry
// queue, so a storage fault can under-count usage but never revoke a
// response the caller already has.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ycliang/scriptly/internal/domain"
	"github.com/ycliang/scriptly/internal/metrics"
	"github.com/ycliang/scriptly/internal/worker"
)

// RecorderStore defines the writes the recorders need.
// Implemented by *repository.Queries.
type RecorderStore interface {
	IncrementBucketUsage(ctx context.Context, id uuid.UUID, bucket domain.CreditBucket) error
	InsertUsageEvent(ctx context.Context, event domain.UsageEvent) error
	InsertGuestUsageEvent(ctx context.Context, event domain.GuestUsageEvent) error
	InsertCostRecord(ctx context.Context, record domain.CostRecord) error
}

// RecorderService persists usage and cost telemetry for successful
// generations.
type RecorderService interface {
	// RecordUsage books one credit against the caller. Subscribers get a
	// bucket increment plus a usage event; guests get a guest event only
	// (the limiter recounts the log on each check).
	RecordUsage(identity domain.Identity, feature domain.Feature)

	// RecordCost computes the call's cost and persists a cost record. The
	// estimate is returned synchronously; persistence is asynchronous.
	RecordCost(identity domain.Identity, feature domain.Feature, model string, inputTokens, outputTokens int, generationID uuid.NullUUID) domain.CostEstimate
}

type recorderService struct {
	store        RecorderStore
	queue        *worker.Queue
	exchangeRate float64
	logger       *slog.Logger
}

// NewRecorderService creates a new RecorderService backed by the given
// telemetry queue.
func NewRecorderService(store RecorderStore, queue *worker.Queue, exchangeRate float64, logger *slog.Logger) RecorderService {
	return &recorderService{
		store:        store,
		queue:        queue,
		exchangeRate: exchangeRate,
		logger:       logger,
	}
}

// RecordUsage books one credit against the caller.
func (s *recorderService) RecordUsage(identity domain.Identity, feature domain.Feature) {
	if identity.IsSubscriber() {
		accountID := *identity.AccountID
		bucket := feature.Bucket()
		s.queue.Enqueue(worker.Task{
			Name: "usage_increment",
			Run: func(ctx context.Context) error {
				return s.store.IncrementBucketUsage(ctx, accountID, bucket)
			},
		})
		s.queue.Enqueue(worker.Task{
			Name: "usage_event",
			Run: func(ctx context.Context) error {
				return s.store.InsertUsageEvent(ctx, domain.UsageEvent{
					ID:        uuid.New(),
					AccountID: uuid.NullUUID{UUID: accountID, Valid: true},
					Feature:   feature,
					Credits:   1,
					CreatedAt: time.Now(),
				})
			},
		})
		return
	}

	ip := identity.GuestIP
	s.queue.Enqueue(worker.Task{
		Name: "guest_event",
		Run: func(ctx context.Context) error {
			return s.store.InsertGuestUsageEvent(ctx, domain.GuestUsageEvent{
				ID:        uuid.New(),
				IP:        ip,
				Feature:   feature,
				CreatedAt: time.Now(),
			})
		},
	})
}

// RecordCost computes and persists the cost of one generation call.
func (s *recorderService) RecordCost(identity domain.Identity, feature domain.Feature, model string, inputTokens, outputTokens int, generationID uuid.NullUUID) domain.CostEstimate {
	estimate := domain.Estimate(model, inputTokens, outputTokens, s.exchangeRate)

	metrics.GenerationTokensTotal.WithLabelValues("input").Add(float64(inputTokens))
	metrics.GenerationTokensTotal.WithLabelValues("output").Add(float64(outputTokens))
	metrics.GenerationCostUSDTotal.Add(estimate.CostUSD)

	var accountID uuid.NullUUID
	if identity.IsSubscriber() {
		accountID = uuid.NullUUID{UUID: *identity.AccountID, Valid: true}
	}

	s.queue.Enqueue(worker.Task{
		Name: "cost_record",
		Run: func(ctx context.Context) error {
			return s.store.InsertCostRecord(ctx, domain.CostRecord{
				ID:           uuid.New(),
				AccountID:    accountID,
				Feature:      feature,
				Model:        estimate.Model,
				InputTokens:  estimate.InputTokens,
				OutputTokens: estimate.OutputTokens,
				TotalTokens:  estimate.TotalTokens,
				CostUSD:      estimate.CostUSD,
				CostTWD:      estimate.CostTWD,
				GenerationID: generationID,
				CreatedAt:    time.Now(),
			})
		},
	})

	return estimate
}
