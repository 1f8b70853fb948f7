package httpapi

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestStartSpan_SkipsNonHandlers(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{TraceID: trace.TraceID{1}, SpanID: trace.SpanID{2}})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	for _, name := range []string{"httpapi.RequireAuth", "httpapi.writeError", ""} {
		got, span := startSpan(ctx, name)
		if got != ctx || span.SpanContext().IsValid() {
			t.Fatalf("expected no span for %q", name)
		}
	}
}
