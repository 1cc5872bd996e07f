package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	sharedhttp "github.com/smilearc/casegen/pkg/shared/http"
)

// BedrockProvider is the secondary/fallback LLM backend (SPEC_FULL.md
// §3), selected when LLM_PROVIDER=bedrock.
type BedrockProvider struct {
	client *bedrockruntime.Client
}

// NewBedrockProvider loads the default AWS config for region and builds
// a Bedrock Runtime client, with the outbound HTTP client tuned by
// LLMClientConfig for this call's response-header wait (spec.md §5's
// one long-latency suspension point).
func NewBedrockProvider(ctx context.Context, region string, timeout time.Duration) (*BedrockProvider, error) {
	httpClient := sharedhttp.NewClient(sharedhttp.LLMClientConfig(timeout))
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithHTTPClient(httpClient),
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("bedrock: load AWS config: %w", err)
	}
	return &BedrockProvider{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

func (p *BedrockProvider) Name() string { return "bedrock" }

type bedrockAnthropicRequest struct {
	AnthropicVersion string                 `json:"anthropic_version"`
	MaxTokens        int                    `json:"max_tokens"`
	Temperature      float64                `json:"temperature"`
	System           string                 `json:"system"`
	Messages         []bedrockMessage       `json:"messages"`
}

type bedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockAnthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete invokes an Anthropic-family model hosted on Bedrock via
// InvokeModel with the provider's native request envelope.
func (p *BedrockProvider) Complete(ctx context.Context, systemPrompt, userPrompt, model string, temperature float64, maxTokens int, seed int) (Result, error) {
	body, err := json.Marshal(bedrockAnthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		System:           systemPrompt,
		Messages:         []bedrockMessage{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("bedrock: marshal request: %w", err)
	}

	out, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return Result{}, fmt.Errorf("bedrock: invoke model: %w", err)
	}

	var resp bedrockAnthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return Result{}, fmt.Errorf("bedrock: unmarshal response: %w", err)
	}
	if len(resp.Content) == 0 {
		return Result{}, fmt.Errorf("bedrock: empty response content")
	}

	text := ""
	for _, c := range resp.Content {
		text += c.Text
	}

	return Result{
		RawOutput:  text,
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}
