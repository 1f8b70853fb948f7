package httpapi

import (
	"context"
	"strings"

	"github.com/riskibarqy/finboard/internal/platform/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("finboard/internal/interfaces/httpapi")

// startSpan only opens spans for handlers; middleware and helpers run under
// the otelhttp request span.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !strings.HasPrefix(name, "httpapi.Handler.") {
		name = ""
	}
	return tracing.Child(ctx, apiTracer, name)
}
