package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	sharedhttp "github.com/smilearc/casegen/pkg/shared/http"
)

// AnthropicProvider is the primary LLM backend (SPEC_FULL.md §3),
// selected when LLM_PROVIDER=anthropic.
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider builds a provider from an API key, with the
// outbound HTTP client tuned by LLMClientConfig for this call's
// response-header wait (spec.md §5's one long-latency suspension
// point).
func NewAnthropicProvider(apiKey string, timeout time.Duration) *AnthropicProvider {
	httpClient := sharedhttp.NewClient(sharedhttp.LLMClientConfig(timeout))
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey), option.WithHTTPClient(httpClient)),
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Complete(ctx context.Context, systemPrompt, userPrompt, model string, temperature float64, maxTokens int, seed int) (Result, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("anthropic: complete: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if tb := block.AsText(); tb.Text != "" {
			text += tb.Text
		}
	}
	if text == "" {
		return Result{}, fmt.Errorf("anthropic: empty response content")
	}

	return Result{
		RawOutput:  text,
		TokensUsed: int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}, nil
}
