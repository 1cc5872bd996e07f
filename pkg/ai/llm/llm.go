// Package llm invokes the configured external structured-output LLM
// provider (spec.md §4.3): prompts and a target schema in, a parsed
// object plus token usage and elapsed time out.
package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	apperrors "github.com/smilearc/casegen/internal/errors"
	operrors "github.com/smilearc/casegen/pkg/shared/errors"
)

// Result is what the coordinator receives from a successful call.
type Result struct {
	RawOutput   string
	TokensUsed  int
	ElapsedMS   int64
}

// Provider is the interface every LLM backend implements. Complete
// MUST NOT retry internally (spec.md §4.3): the coordinator owns retry
// policy, the provider owns a single request/response round trip.
type Provider interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userPrompt string, model string, temperature float64, maxTokens int, seed int) (Result, error)
}

// Client wraps a Provider with the circuit breaker the coordinator
// calls through. One Client wraps exactly one configured provider;
// provider selection (anthropic vs bedrock) happens at construction
// time from Settings.LLMProvider.
type Client struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
	logger   *logrus.Entry
}

// NewClient wraps provider with a circuit breaker that trips after
// maxFailures consecutive failures, per SPEC_FULL.md §3's binding of
// sony/gobreaker to the LLM call.
func NewClient(provider Provider, maxFailures int, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	if maxFailures <= 0 {
		maxFailures = 5
	}
	entry := logger.WithField("component", "ai.llm")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-" + provider.Name(),
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			entry.WithField("from", from).WithField("to", to).Warn("llm circuit breaker state change")
		},
	})

	return &Client{provider: provider, breaker: cb, logger: entry}
}

// Request bundles the parameters spec.md §4.3 requires on every call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	Temperature  float64
	MaxTokens    int
	Seed         int
}

// Complete invokes the wrapped provider through the circuit breaker.
// Every provider failure — network, rate limit, auth, an open breaker —
// is collapsed into a single LLMCallFailed error for the coordinator,
// per spec.md §4.3's failure semantics. A cancelled or expired context
// is reported as LLMTimeout instead. Complete does not parse the
// output; the coordinator validates it with ParseStructured.
func (c *Client) Complete(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.provider.Complete(ctx, req.SystemPrompt, req.UserPrompt, req.Model, req.Temperature, req.MaxTokens, req.Seed)
	})

	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, apperrors.LLMTimeout(c.provider.Name())
		}
		wrapped := operrors.NetworkError("complete", c.provider.Name(), err)
		return Result{}, apperrors.LLMCallFailed(wrapped.Error(), wrapped)
	}

	result := out.(Result)
	result.ElapsedMS = elapsed.Milliseconds()
	return result, nil
}

var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// StripMarkdownFences removes a leading/trailing markdown code fence
// some providers wrap around JSON output, e.g. "```json\n...\n```".
func StripMarkdownFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return raw
}

// ParseStructured unmarshals a (possibly fenced) raw LLM response into
// out and validates it against a caller-supplied predicate, so the
// schema registry's Valid() methods can reject malformed output before
// it ever reaches the coordinator.
func ParseStructured(raw string, out interface{}, valid func() bool) error {
	clean := StripMarkdownFences(raw)
	if err := json.Unmarshal([]byte(clean), out); err != nil {
		return err
	}
	if valid != nil && !valid() {
		return errInvalidSchema
	}
	return nil
}

var errInvalidSchema = &schemaError{"response did not satisfy the target schema"}

type schemaError struct{ msg string }

func (e *schemaError) Error() string { return e.msg }
