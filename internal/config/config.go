// Package config resolves the gateway's single, immutable settings
// record from environment variables at process start. There is no file
// loading and no reload: Settings is read-only process-wide state once
// Load returns.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/smilearc/casegen/internal/errors"
)

// Settings is the flat, read-only configuration record described in
// spec.md §6.
type Settings struct {
	OpenAIAPIKey string
	OpenAIModel  string

	DatabaseURL string
	SecretKey   string

	JWTIssuer    string
	JWTAudience  string
	JWTPublicKey string

	EnableAuthBypass bool
	CORSOrigins      []string

	StoreFullAuditData bool
	RedactPHIFields    bool
	PHIFieldsToRedact  []string

	TreatmentSummarySeed int
	InsuranceSummarySeed int
	ProgressNotesSeed    int

	// Additive per SPEC_FULL.md §7.
	LLMProvider                  string
	AWSRegion                    string
	RedisURL                     string
	SlackWebhookURL              string
	SlackAlertChannel            string
	LLMCircuitBreakerMaxFailures int
	RequestTimeout               time.Duration
	HTTPPort                     string
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperrors.NewValidationError("invalid boolean for " + key).WithDetails(v)
	}
	return b, nil
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid integer for " + key).WithDetails(v)
	}
	return n, nil
}

func envCSV(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid duration for " + key).WithDetails(v)
	}
	return d, nil
}

// Load resolves Settings from the process environment, applying the
// defaults in spec.md §6. It never reads a file.
func Load() (*Settings, error) {
	s := &Settings{
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  envOr("OPENAI_MODEL", "gpt-4o"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SecretKey:    os.Getenv("SECRET_KEY"),
		JWTIssuer:    os.Getenv("JWT_ISSUER"),
		JWTAudience:  os.Getenv("JWT_AUDIENCE"),
		JWTPublicKey: os.Getenv("JWT_PUBLIC_KEY"),

		CORSOrigins: envCSV("CORS_ORIGINS", nil),
		PHIFieldsToRedact: envCSV("PHI_FIELDS_TO_REDACT",
			[]string{"patient_name", "practice_name"}),

		LLMProvider:       envOr("LLM_PROVIDER", "anthropic"),
		AWSRegion:         os.Getenv("AWS_REGION"),
		RedisURL:          os.Getenv("REDIS_URL"),
		SlackWebhookURL:   os.Getenv("SLACK_WEBHOOK_URL"),
		SlackAlertChannel: os.Getenv("SLACK_ALERT_CHANNEL"),
		HTTPPort:          envOr("HTTP_PORT", "8080"),
	}

	var err error
	if s.EnableAuthBypass, err = envBool("ENABLE_AUTH_BYPASS", true); err != nil {
		return nil, err
	}
	if s.StoreFullAuditData, err = envBool("STORE_FULL_AUDIT_DATA", true); err != nil {
		return nil, err
	}
	if s.RedactPHIFields, err = envBool("REDACT_PHI_FIELDS", true); err != nil {
		return nil, err
	}
	if s.TreatmentSummarySeed, err = envInt("TREATMENT_SUMMARY_SEED", 42); err != nil {
		return nil, err
	}
	if s.InsuranceSummarySeed, err = envInt("INSURANCE_SUMMARY_SEED", 42); err != nil {
		return nil, err
	}
	if s.ProgressNotesSeed, err = envInt("PROGRESS_NOTES_SEED", 42); err != nil {
		return nil, err
	}
	if s.LLMCircuitBreakerMaxFailures, err = envInt("LLM_CIRCUIT_BREAKER_MAX_FAILURES", 5); err != nil {
		return nil, err
	}
	if s.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if s.LLMProvider != "anthropic" && s.LLMProvider != "bedrock" {
		return nil, apperrors.NewValidationError("LLM_PROVIDER must be anthropic or bedrock").WithDetails(s.LLMProvider)
	}

	return s, nil
}

// InitialSeedFor returns the configured starting seed for a document
// kind, per spec.md §4.4's seed resolution rule.
func (s *Settings) InitialSeedFor(documentKind string) int {
	switch documentKind {
	case "insurance_summary":
		return s.InsuranceSummarySeed
	case "progress_notes":
		return s.ProgressNotesSeed
	default:
		return s.TreatmentSummarySeed
	}
}
