// Package domain contains core business types and interfaces.
//
// This file defines the model pricing table and the pure cost estimator.
// Prices are USD per 1000 tokens; TWD conversion uses a configured rate.
package domain

import "math"

// ModelPricing holds per-1000-token prices in USD for one model.
type ModelPricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// DefaultModel is the pricing fallback for unrecognized model identifiers.
// Falling back to a real price, never to zero, means a typo in a model name
// can never hand out free usage.
const DefaultModel = "gpt-4o"

// ModelPrices maps generation model identifiers to their token prices.
var ModelPrices = map[string]ModelPricing{
	"gpt-4o":           {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4o-mini":      {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4.1":          {InputPer1K: 0.002, OutputPer1K: 0.008},
	"gpt-4.1-mini":     {InputPer1K: 0.0004, OutputPer1K: 0.0016},
	"gemini-2.0-flash": {InputPer1K: 0.0001, OutputPer1K: 0.0004},
}

// GetModelPricing returns the pricing for a model, falling back to
// DefaultModel pricing for unknown identifiers.
func GetModelPricing(model string) ModelPricing {
	if p, ok := ModelPrices[model]; ok {
		return p
	}
	return ModelPrices[DefaultModel]
}

// CostEstimate is the computed cost of a single generation call.
type CostEstimate struct {
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	CostUSD      float64 // 6 decimal places
	CostTWD      float64 // 2 decimal places
}

// Estimate computes the cost of a generation call in USD and TWD.
//
// The USD figure keeps 6 decimal places so aggregated totals do not
// accumulate rounding error; the TWD figure is rounded to display precision.
// There are no error conditions: unknown models use fallback pricing.
func Estimate(model string, inputTokens, outputTokens int, exchangeRate float64) CostEstimate {
	pricing := GetModelPricing(model)

	costUSD := float64(inputTokens)/1000*pricing.InputPer1K +
		float64(outputTokens)/1000*pricing.OutputPer1K

	return CostEstimate{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		CostUSD:      roundTo(costUSD, 6),
		CostTWD:      roundTo(costUSD*exchangeRate, 2),
	}
}

// roundTo rounds v to n decimal places, half away from zero.
func roundTo(v float64, n int) float64 {
	shift := math.Pow(10, float64(n))
	return math.Round(v*shift) / shift
}
