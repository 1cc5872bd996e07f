package config

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func clearGatewayEnv() {
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_MODEL", "DATABASE_URL", "SECRET_KEY",
		"JWT_ISSUER", "JWT_AUDIENCE", "JWT_PUBLIC_KEY", "ENABLE_AUTH_BYPASS",
		"CORS_ORIGINS", "STORE_FULL_AUDIT_DATA", "REDACT_PHI_FIELDS",
		"PHI_FIELDS_TO_REDACT", "TREATMENT_SUMMARY_SEED", "INSURANCE_SUMMARY_SEED",
		"PROGRESS_NOTES_SEED", "LLM_PROVIDER", "AWS_REGION", "REDIS_URL",
		"SLACK_WEBHOOK_URL", "SLACK_ALERT_CHANNEL", "LLM_CIRCUIT_BREAKER_MAX_FAILURES",
		"REQUEST_TIMEOUT", "HTTP_PORT",
	} {
		os.Unsetenv(key)
	}
}

var _ = Describe("Config", func() {
	BeforeEach(func() {
		clearGatewayEnv()
	})

	AfterEach(func() {
		clearGatewayEnv()
	})

	Describe("Load", func() {
		Context("when no environment variables are set", func() {
			It("should resolve all defaults", func() {
				settings, err := Load()
				Expect(err).NotTo(HaveOccurred())

				Expect(settings.OpenAIModel).To(Equal("gpt-4o"))
				Expect(settings.EnableAuthBypass).To(BeTrue())
				Expect(settings.StoreFullAuditData).To(BeTrue())
				Expect(settings.RedactPHIFields).To(BeTrue())
				Expect(settings.PHIFieldsToRedact).To(Equal([]string{"patient_name", "practice_name"}))
				Expect(settings.TreatmentSummarySeed).To(Equal(42))
				Expect(settings.InsuranceSummarySeed).To(Equal(42))
				Expect(settings.ProgressNotesSeed).To(Equal(42))
				Expect(settings.LLMProvider).To(Equal("anthropic"))
				Expect(settings.HTTPPort).To(Equal("8080"))
				Expect(settings.RequestTimeout).To(Equal(30 * time.Second))
			})
		})

		Context("when environment variables override defaults", func() {
			BeforeEach(func() {
				os.Setenv("OPENAI_MODEL", "gpt-4o-mini")
				os.Setenv("ENABLE_AUTH_BYPASS", "false")
				os.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
				os.Setenv("PHI_FIELDS_TO_REDACT", "dentist_note")
				os.Setenv("TREATMENT_SUMMARY_SEED", "7")
				os.Setenv("LLM_PROVIDER", "bedrock")
				os.Setenv("REQUEST_TIMEOUT", "45s")
			})

			It("should reflect the overrides", func() {
				settings, err := Load()
				Expect(err).NotTo(HaveOccurred())

				Expect(settings.OpenAIModel).To(Equal("gpt-4o-mini"))
				Expect(settings.EnableAuthBypass).To(BeFalse())
				Expect(settings.CORSOrigins).To(Equal([]string{"https://a.example.com", "https://b.example.com"}))
				Expect(settings.PHIFieldsToRedact).To(Equal([]string{"dentist_note"}))
				Expect(settings.TreatmentSummarySeed).To(Equal(7))
				Expect(settings.LLMProvider).To(Equal("bedrock"))
				Expect(settings.RequestTimeout).To(Equal(45 * time.Second))
			})
		})

		Context("when a boolean variable is malformed", func() {
			It("should fail with a validation error", func() {
				os.Setenv("ENABLE_AUTH_BYPASS", "not-a-bool")
				_, err := Load()
				Expect(err).To(HaveOccurred())
			})
		})

		Context("when an integer variable is malformed", func() {
			It("should fail with a validation error", func() {
				os.Setenv("TREATMENT_SUMMARY_SEED", "not-a-number")
				_, err := Load()
				Expect(err).To(HaveOccurred())
			})
		})

		Context("when LLM_PROVIDER is unrecognized", func() {
			It("should fail with a validation error", func() {
				os.Setenv("LLM_PROVIDER", "openai-legacy")
				_, err := Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("InitialSeedFor", func() {
		It("should select the seed for the document kind", func() {
			settings, err := Load()
			Expect(err).NotTo(HaveOccurred())
			settings.TreatmentSummarySeed = 42
			settings.InsuranceSummarySeed = 100
			settings.ProgressNotesSeed = 200

			Expect(settings.InitialSeedFor("treatment_summary")).To(Equal(42))
			Expect(settings.InitialSeedFor("insurance_summary")).To(Equal(100))
			Expect(settings.InitialSeedFor("progress_notes")).To(Equal(200))
		})
	})
})
