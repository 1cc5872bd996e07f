package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// NewProviderFromSettings constructs the Provider selected by
// LLM_PROVIDER, per SPEC_FULL.md §3's multi-provider wiring. timeout
// governs the provider's outbound HTTP client, not the call's
// context deadline.
func NewProviderFromSettings(ctx context.Context, llmProvider, anthropicAPIKey, awsRegion string, timeout time.Duration) (Provider, error) {
	switch llmProvider {
	case "anthropic":
		if anthropicAPIKey == "" {
			return nil, fmt.Errorf("llm: OPENAI_API_KEY is required for the anthropic provider")
		}
		return NewAnthropicProvider(anthropicAPIKey, timeout), nil
	case "bedrock":
		return NewBedrockProvider(ctx, awsRegion, timeout)
	default:
		return nil, fmt.Errorf("llm: unsupported provider: %s", llmProvider)
	}
}

// NewClientFromSettings is the convenience wrapper main() calls to
// build a breaker-wrapped Client directly from resolved Settings
// values.
func NewClientFromSettings(ctx context.Context, llmProvider, anthropicAPIKey, awsRegion string, timeout time.Duration, maxFailures int, logger *logrus.Logger) (*Client, error) {
	provider, err := NewProviderFromSettings(ctx, llmProvider, anthropicAPIKey, awsRegion, timeout)
	if err != nil {
		return nil, err
	}
	return NewClient(provider, maxFailures, logger), nil
}
