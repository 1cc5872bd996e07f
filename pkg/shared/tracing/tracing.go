// Package tracing wraps the OpenTelemetry tracer used around the
// gateway's one long-latency suspension point (SPEC_FULL.md §5): the
// outbound LLM call and the audit write that follows it.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/smilearc/casegen"

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartLLMCall opens a span around a single provider call, tagged with
// the document kind and model so slow generations are attributable.
func StartLLMCall(ctx context.Context, documentKind, model string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "llm.complete",
		trace.WithAttributes(
			attribute.String("document_kind", documentKind),
			attribute.String("model", model),
		),
	)
}

// StartAuditWrite opens a span around a single audit-store append.
func StartAuditWrite(ctx context.Context, documentKind, status string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "audit.append",
		trace.WithAttributes(
			attribute.String("document_kind", documentKind),
			attribute.String("status", status),
		),
	)
}

// End closes span, recording err as a span error when non-nil.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
