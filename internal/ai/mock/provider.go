// Package mock provides a deterministic Generator for development and tests.
package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/ycliang/scriptly/internal/ai"
)

// Provider is a canned-content generator. Token counts come from a real
// BPE encoding so downstream cost records look like production ones.
type Provider struct {
	encoding *tiktoken.Tiktoken
	delay    time.Duration
}

// New creates a mock provider. The optional delay simulates model latency.
func New(delay time.Duration) (*Provider, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load token encoding: %w", err)
	}
	return &Provider{
		encoding: encoding,
		delay:    delay,
	}, nil
}

// Generate returns canned content for the feature, with BPE token counts
// for the prompt and the output.
func (p *Provider) Generate(ctx context.Context, params ai.GenerateParams) (*ai.GenerateResult, error) {
	start := time.Now()

	if strings.TrimSpace(params.Prompt) == "" {
		return nil, ai.WrapError("generate", ai.ErrInvalidPrompt)
	}

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ai.WrapError("generate", ai.ErrTimeout)
		}
	}

	content := cannedContent(params.Feature, params.Prompt)

	return &ai.GenerateResult{
		Content:      content,
		Model:        params.Model,
		InputTokens:  len(p.encoding.Encode(params.Prompt, nil, nil)),
		OutputTokens: len(p.encoding.Encode(content, nil, nil)),
		Duration:     time.Since(start),
	}, nil
}

func cannedContent(feature, prompt string) string {
	topic := prompt
	if len(topic) > 60 {
		topic = topic[:60]
	}

	switch feature {
	case "carousel":
		return fmt.Sprintf("Slide 1: %s\nSlide 2: The problem\nSlide 3: The insight\nSlide 4: The takeaway\nSlide 5: Follow for more", topic)
	case "topic_ideas":
		return fmt.Sprintf("1. Why %s matters more than you think\n2. Three mistakes everyone makes with %s\n3. What I learned shipping %s", topic, topic, topic)
	case "positioning":
		return fmt.Sprintf("Positioning statement: for creators who struggle with %s, you are the guide who has been there.", topic)
	case "copy_optimize":
		return fmt.Sprintf("Optimized: %s (tightened hook, active voice, one idea per sentence)", topic)
	default:
		return fmt.Sprintf("HOOK: %s\n\nBODY: Open with the tension, hold it for two beats, then resolve.\n\nCTA: Save this for later.", topic)
	}
}
