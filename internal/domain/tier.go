// Package domain contains core business types and interfaces.
//
// This file defines subscription tiers and their monthly credit allowances.
package domain

// Tier represents the pricing tier of a subscription.
type Tier string

const (
	TierFree     Tier = "free"
	TierCreator  Tier = "creator"
	TierPro      Tier = "pro"
	TierLifetime Tier = "lifetime"
)

// Unlimited is the allowance sentinel meaning "no monthly cap". It is
// out-of-band by construction: legitimate allowances are never negative.
const Unlimited = -1

// TierPlan defines the monthly bucket allowances and price for a tier.
// Allowances use Unlimited (-1) for uncapped buckets; zero means the tier
// has no access to that bucket at all.
type TierPlan struct {
	ScriptPerMonth   int
	CarouselPerMonth int
	PriceTWD         int  // monthly price, or one-time price for lifetime
	OneTime          bool // true for one-time purchase tiers
}

// TierPlans maps tiers to their allowances. Defined at deploy time, never
// stored per-user.
var TierPlans = map[Tier]TierPlan{
	TierFree: {
		ScriptPerMonth:   3,
		CarouselPerMonth: 1,
	},
	TierCreator: {
		ScriptPerMonth:   50,
		CarouselPerMonth: 30,
		PriceTWD:         299,
	},
	TierPro: {
		ScriptPerMonth:   Unlimited,
		CarouselPerMonth: Unlimited,
		PriceTWD:         599,
	},
	TierLifetime: {
		ScriptPerMonth:   Unlimited,
		CarouselPerMonth: Unlimited,
		PriceTWD:         2990,
		OneTime:          true,
	},
}

// Valid checks if the tier is a known member of the closed set.
func (t Tier) Valid() bool {
	_, ok := TierPlans[t]
	return ok
}

// GetTierPlan returns the plan for a tier. Unknown tiers fail closed to the
// free plan rather than erroring, so corrupted tier data can never grant
// unlimited access.
func GetTierPlan(tier Tier) TierPlan {
	if plan, ok := TierPlans[tier]; ok {
		return plan
	}
	return TierPlans[TierFree]
}

// Allowance returns the monthly allowance for a credit bucket.
func (p TierPlan) Allowance(bucket CreditBucket) int {
	switch bucket {
	case BucketCarousel:
		return p.CarouselPerMonth
	default:
		return p.ScriptPerMonth
	}
}

// IsUnlimited reports whether the bucket has no monthly cap on this plan.
func (p TierPlan) IsUnlimited(bucket CreditBucket) bool {
	return p.Allowance(bucket) == Unlimited
}

// ParseTier converts a raw string into a Tier, rejecting values outside the
// closed enumeration.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", Invalid("tier.parse", "unknown tier: "+s)
	}
	return t, nil
}
