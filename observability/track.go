package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Track starts a span named "<provider>.<operation>" and returns a function
// that ends it and records the operation metric.
func Track(ctx context.Context, provider, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	attrs = append(attrs,
		attribute.String(AttrProvider, provider),
		attribute.String(AttrOperation, operation),
	)
	ctx, span := StartSpan(ctx, provider+"."+operation, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		if err != nil {
			SetSpanError(ctx, err)
		}
		span.SetAttributes(attribute.String(AttrOutcome, outcome(err)))
		span.End()
		Default().RecordOperation(ctx, provider, operation, err, time.Since(start))
	}
}
