package errors

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Domain error constructors", func() {
	It("maps RuleNotFound to 422", func() {
		err := RuleNotFound("moderate", "adult")
		Expect(GetStatusCode(err)).To(Equal(http.StatusUnprocessableEntity))
		Expect(err.Error()).To(ContainSubstring("moderate"))
		Expect(err.Error()).To(ContainSubstring("adult"))
	})

	It("maps ParentNotFound to 404", func() {
		err := ParentNotFound("nonexistent")
		Expect(GetStatusCode(err)).To(Equal(http.StatusNotFound))
	})

	It("maps RegenerationMissingParent to 422", func() {
		err := RegenerationMissingParent()
		Expect(GetStatusCode(err)).To(Equal(http.StatusUnprocessableEntity))
	})

	It("maps LLMCallFailed to 502", func() {
		err := LLMCallFailed("rate limited", nil)
		Expect(GetStatusCode(err)).To(Equal(http.StatusBadGateway))
	})

	It("maps LLMTimeout to 504", func() {
		err := LLMTimeout("generate")
		Expect(GetStatusCode(err)).To(Equal(http.StatusGatewayTimeout))
	})

	It("maps AlreadyConfirmed to 409", func() {
		err := AlreadyConfirmed("gen-1")
		Expect(GetStatusCode(err)).To(Equal(http.StatusConflict))
	})

	It("maps GenerationNotFound to 404 and GenerationNotSuccessful to 409", func() {
		Expect(GetStatusCode(GenerationNotFound("gen-1"))).To(Equal(http.StatusNotFound))
		Expect(GetStatusCode(GenerationNotSuccessful("gen-1"))).To(Equal(http.StatusConflict))
	})

	It("maps Unauthenticated to 401 and SchemaViolation to 422", func() {
		Expect(GetStatusCode(Unauthenticated("missing token"))).To(Equal(http.StatusUnauthorized))
		Expect(GetStatusCode(SchemaViolation("tier", "unknown value"))).To(Equal(http.StatusUnprocessableEntity))
	})
})
