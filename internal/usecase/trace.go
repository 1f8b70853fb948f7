package usecase

import (
	"context"

	"github.com/riskibarqy/finboard/internal/platform/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("finboard/internal/usecase")

func startUsecaseSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracing.Child(ctx, usecaseTracer, name)
}
