// Package ai defines the interface to the generative model collaborator.
//
// Generation itself is opaque to the metering core: a provider takes a
// prompt, returns text and a token count, and everything billing-related
// happens outside this package.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Generator is the external generation collaborator.
type Generator interface {
	// Generate produces content for a prompt. It must not return a result
	// until the complete response is assembled: partial or streaming
	// output is never treated as success.
	Generate(ctx context.Context, params GenerateParams) (*GenerateResult, error)
}

// GenerateParams contains parameters for one generation call.
type GenerateParams struct {
	Feature string // feature identifier, used for prompt selection
	Prompt  string // caller-supplied input
	Model   string // model identifier
}

// GenerateResult contains the complete output of a generation call.
type GenerateResult struct {
	Content      string        // Generated text
	Model        string        // Model that actually served the call
	InputTokens  int           // Tokens in the request
	OutputTokens int           // Tokens in the response
	Duration     time.Duration // Request duration
}

// Error values for generator operations
var (
	// ErrTimeout indicates the generation request timed out or the caller
	// went away mid-generation
	ErrTimeout = errors.New("generation timed out")

	// ErrUnavailable indicates the model service is temporarily unavailable
	ErrUnavailable = errors.New("generation service temporarily unavailable")

	// ErrInvalidPrompt indicates the prompt was rejected
	ErrInvalidPrompt = errors.New("invalid prompt")
)

// WrapError wraps an error with context about the generation operation.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}
