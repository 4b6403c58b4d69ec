// Package service contains the business logic layer.
//
// This file implements the guest limiter: a fixed daily cap per client IP,
// recomputed from the append-only guest event log on every check.
//
// Guests are limited per calendar day while subscribers are limited per
// month. The asymmetry is kept on purpose: a daily cap is harder for
// anonymous traffic to exhaust-and-wait-out than a monthly one.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ycliang/scriptly/internal/domain"
)

// GuestEventStore defines the guest event reads the limiter needs.
// Implemented by *repository.Queries.
type GuestEventStore interface {
	CountGuestEventsSince(ctx context.Context, ip string, since time.Time) (int64, error)
}

// GuestLimiterService checks anonymous callers against the daily cap.
type GuestLimiterService interface {
	// Remaining returns how many free calls the IP has left today.
	Remaining(ctx context.Context, ip string) (int, error)

	// Limit returns the configured daily cap.
	Limit() int
}

type guestLimiterService struct {
	store  GuestEventStore
	limit  int
	logger *slog.Logger
}

// NewGuestLimiterService creates a new GuestLimiterService with the given
// daily cap.
func NewGuestLimiterService(store GuestEventStore, limit int, logger *slog.Logger) GuestLimiterService {
	return &guestLimiterService{
		store:  store,
		limit:  limit,
		logger: logger,
	}
}

func (s *guestLimiterService) Limit() int {
	return s.limit
}

// Remaining counts today's guest events for the IP and subtracts them from
// the cap. The day boundary is local server midnight; a request after
// midnight starts a fresh allowance.
func (s *guestLimiterService) Remaining(ctx context.Context, ip string) (int, error) {
	const op = "guest.remaining"

	count, err := s.store.CountGuestEventsSince(ctx, ip, startOfDay(time.Now()))
	if err != nil {
		return 0, domain.Internal(err, op, "failed to count guest events")
	}

	remaining := s.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// startOfDay returns local midnight for the day containing t.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
