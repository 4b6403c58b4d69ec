// Package domain contains core business types and interfaces.
//
// This file defines the append-only audit row types: usage events, guest
// usage events, cost records, revenue records, and generation records.
// These rows are written once per successful generation and never revised.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// UsageEvent records one credit consumed by a caller. The audit trail is
// independent of the mutable counters on Account.
type UsageEvent struct {
	ID        uuid.UUID
	AccountID uuid.NullUUID // invalid for guest usage
	Feature   Feature
	Credits   int // always 1 in this design
	CreatedAt time.Time
}

// GuestUsageEvent records one feature use by an anonymous caller. Guests
// carry no account identifier; the guest limiter recomputes the rolling
// daily count from these rows.
type GuestUsageEvent struct {
	ID        uuid.UUID
	IP        string
	Feature   Feature
	CreatedAt time.Time
}

// CostRecord captures the token cost of one generation call in both
// currencies. USD is stored at 6 decimal places, TWD at 2.
type CostRecord struct {
	ID           uuid.UUID
	AccountID    uuid.NullUUID
	Feature      Feature
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	CostUSD      float64
	CostTWD      float64
	GenerationID uuid.NullUUID // optional link to the generated content
	CreatedAt    time.Time
}

// RevenueRecordStatus is the settlement state of a payment.
type RevenueRecordStatus string

const (
	RevenueStatusPending   RevenueRecordStatus = "pending"
	RevenueStatusCompleted RevenueRecordStatus = "completed"
	RevenueStatusFailed    RevenueRecordStatus = "failed"
)

// RevenueRecord is written by the payment stub when a tier purchase
// settles. The aggregator reads it; nothing in this service mutates it.
type RevenueRecord struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Tier      Tier
	AmountTWD int
	Status    RevenueRecordStatus
	CreatedAt time.Time
}

// Generation is the audit row for one successful generation call. The
// admin report counts these as its successful-generations proxy metric,
// independently of UsageEvent.
type Generation struct {
	ID        uuid.UUID
	AccountID uuid.NullUUID
	Feature   Feature
	Model     string
	Content   string
	CreatedAt time.Time
}
