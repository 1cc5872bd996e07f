package llm

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeProvider struct {
	name   string
	result Result
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, systemPrompt, userPrompt, model string, temperature float64, maxTokens int, seed int) (Result, error) {
	f.calls++
	return f.result, f.err
}

var _ = Describe("Client", func() {
	Describe("Complete", func() {
		It("returns the provider's result on success", func() {
			fp := &fakeProvider{name: "fake", result: Result{RawOutput: `{"title":"t","summary":"s"}`, TokensUsed: 42}}
			c := NewClient(fp, 5, nil)

			res, err := c.Complete(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "usr", Model: "m", MaxTokens: 100, Seed: 42})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.TokensUsed).To(Equal(42))
			Expect(fp.calls).To(Equal(1))
		})

		It("wraps a provider error as LLMCallFailed", func() {
			fp := &fakeProvider{name: "fake", err: errors.New("boom")}
			c := NewClient(fp, 5, nil)

			_, err := c.Complete(context.Background(), Request{Model: "m", MaxTokens: 10})

			Expect(err).To(HaveOccurred())
		})

		It("reports a timeout when the context deadline has passed", func() {
			fp := &fakeProvider{name: "fake", err: errors.New("deadline exceeded")}
			c := NewClient(fp, 5, nil)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := c.Complete(ctx, Request{Model: "m", MaxTokens: 10})

			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("StripMarkdownFences", func() {
	DescribeTable("removes a wrapping code fence when present",
		func(in, want string) {
			Expect(StripMarkdownFences(in)).To(Equal(want))
		},
		Entry("json fence", "```json\n{\"a\":1}\n```", `{"a":1}`),
		Entry("no fence", `{"a":1}`, `{"a":1}`),
		Entry("bare fence", "```\n{\"a\":1}\n```", `{"a":1}`),
	)
})

var _ = Describe("ParseStructured", func() {
	type out struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}

	It("unmarshals and validates against the schema predicate", func() {
		var o out
		err := ParseStructured(`{"title":"t","summary":"s"}`, &o, func() bool { return o.Title != "" && o.Summary != "" })
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects output that fails the schema predicate", func() {
		var bad out
		err := ParseStructured(`{"title":"t"}`, &bad, func() bool { return bad.Title != "" && bad.Summary != "" })
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("NewProviderFromSettings", func() {
	It("rejects an unsupported provider", func() {
		_, err := NewProviderFromSettings(context.Background(), "unknown", "key", "", 5*time.Second)
		Expect(err).To(HaveOccurred())
	})

	It("requires an API key for the anthropic provider", func() {
		_, err := NewProviderFromSettings(context.Background(), "anthropic", "", "", 5*time.Second)
		Expect(err).To(HaveOccurred())
	})
})
