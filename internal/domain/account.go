// Package domain contains core business types and interfaces.
//
// This file defines the SubscriberAccount type, its monthly cycle rollover
// logic, and the caller identity resolved by the auth layer.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a subscriber with per-bucket usage counters for the
// current billing cycle.
//
// Counters are mutated only by the quota ledger and the usage recorder.
// Accounts are created at signup and never deleted, only archived.
type Account struct {
	ID            uuid.UUID
	Email         string
	Tier          Tier
	ScriptUsed    int
	CarouselUsed  int
	CycleResetAt  time.Time // boundary at which counters roll over (first of next month)
	APITokenHash  string    // SHA-256 of the bearer token; never exposed
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ArchivedAt    *time.Time
}

// Used returns the counter for a credit bucket.
func (a *Account) Used(bucket CreditBucket) int {
	if bucket == BucketCarousel {
		return a.CarouselUsed
	}
	return a.ScriptUsed
}

// RolloverDue reports whether now has crossed the stored cycle boundary.
func (a *Account) RolloverDue(now time.Time) bool {
	return !now.Before(a.CycleResetAt)
}

// Rollover zeroes both bucket counters and advances the boundary to the
// first of the month after now. The reset is lazy: an account untouched for
// several months rolls over once, to the current cycle. Skipped cycles are
// not replayed.
func (a *Account) Rollover(now time.Time) {
	a.ScriptUsed = 0
	a.CarouselUsed = 0
	a.CycleResetAt = NextCycleBoundary(now)
}

// NextCycleBoundary returns midnight on the first day of the month after t,
// in t's location.
func NextCycleBoundary(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
}

// Identity is the resolved caller of a metered request: either a subscriber
// account ID or a guest client IP. Exactly one side is populated.
type Identity struct {
	AccountID *uuid.UUID
	GuestIP   string
}

// SubscriberIdentity builds an identity for a known subscriber.
func SubscriberIdentity(id uuid.UUID) Identity {
	return Identity{AccountID: &id}
}

// GuestIdentity builds an identity for an anonymous caller.
func GuestIdentity(ip string) Identity {
	return Identity{GuestIP: ip}
}

// IsSubscriber reports whether the identity names a subscriber account.
func (i Identity) IsSubscriber() bool {
	return i.AccountID != nil
}

// IsResolved reports whether the caller could be identified at all.
func (i Identity) IsResolved() bool {
	return i.AccountID != nil || i.GuestIP != ""
}

// Decision is the outcome of an allowed access check. Remaining is
// Unlimited (-1) for uncapped tiers. Denials are typed errors, not
// decisions, so there is no deny-reason field here.
type Decision struct {
	Allowed   bool
	Remaining int
}
