// Package domain contains core business types and interfaces.
//
// This file defines the metered feature enumeration and the credit buckets
// features draw down against.
package domain

// Feature identifies a metered AI generation feature.
type Feature string

const (
	FeatureScript       Feature = "script"
	FeatureTopicIdeas   Feature = "topic_ideas"
	FeaturePositioning  Feature = "positioning"
	FeatureCopyOptimize Feature = "copy_optimize"
	FeatureCarousel     Feature = "carousel"
)

// CreditBucket is the shared counter a feature consumes from. Several
// features intentionally share one bucket; this many-to-one mapping is a
// product decision, not an implementation shortcut.
type CreditBucket string

const (
	BucketScript   CreditBucket = "script"
	BucketCarousel CreditBucket = "carousel"
)

// featureBuckets is the exhaustive feature-to-bucket table. Every Feature
// constant must appear here; ParseFeature rejects anything else.
var featureBuckets = map[Feature]CreditBucket{
	FeatureScript:       BucketScript,
	FeatureTopicIdeas:   BucketScript,
	FeaturePositioning:  BucketScript,
	FeatureCopyOptimize: BucketScript,
	FeatureCarousel:     BucketCarousel,
}

// Valid checks if the feature is a known member of the closed set.
func (f Feature) Valid() bool {
	_, ok := featureBuckets[f]
	return ok
}

// Bucket returns the credit bucket this feature draws from.
// Unknown features map to the script bucket, the most restrictive one.
func (f Feature) Bucket() CreditBucket {
	if b, ok := featureBuckets[f]; ok {
		return b
	}
	return BucketScript
}

// ParseFeature converts a raw string into a Feature, rejecting values
// outside the closed enumeration.
func ParseFeature(s string) (Feature, error) {
	f := Feature(s)
	if !f.Valid() {
		return "", Invalid("feature.parse", "unknown feature: "+s)
	}
	return f, nil
}
