package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestChild_NoParentReturnsNoop(t *testing.T) {
	ctx := context.Background()
	gotCtx, span := Child(ctx, noop.NewTracerProvider().Tracer("test"), "usecase.Get")

	require.Equal(t, ctx, gotCtx)
	require.False(t, span.SpanContext().IsValid())
	Fail(span, errors.New("ignored"))
}

func TestChild_WithParentStartsSpan(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	gotCtx, span := Child(ctx, noop.NewTracerProvider().Tracer("test"), "usecase.Get")
	defer span.End()

	require.Equal(t, parent.TraceID(), trace.SpanFromContext(gotCtx).SpanContext().TraceID())
}

func TestChild_EmptyNameIsNoop(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{TraceID: trace.TraceID{1}, SpanID: trace.SpanID{2}})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	gotCtx, _ := Child(ctx, noop.NewTracerProvider().Tracer("test"), "")
	require.Equal(t, ctx, gotCtx)
}
