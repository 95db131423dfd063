package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/coursecast/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Shivanand-hulikatti/coursecast/internal/service"

// Telemetry bundles the observability hooks every service uses.
// The zero value logs to slog.Default and traces with the global provider.
type Telemetry struct {
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *metrics.Metrics
}

func (t Telemetry) withDefaults() Telemetry {
	if t.Logger == nil {
		t.Logger = slog.Default()
	}
	if t.Tracer == nil {
		t.Tracer = otel.Tracer(tracerName)
	}
	return t
}

// observe runs op inside a span, recovers panics, and logs and counts the
// outcome. Domain errors are logged at warn level, everything else at error.
func observe[T any](
	ctx context.Context,
	tel Telemetry,
	operation string,
	identifier string,
	op func(ctx context.Context) (T, error),
) (result T, err error) {
	ctx, span := tel.Tracer.Start(ctx, operation, trace.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("identifier", identifier),
	))
	defer span.End()

	start := time.Now()
	log := tel.Logger.With(
		slog.String("operation", operation),
		slog.String("identifier", identifier),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operation, r)
			log.ErrorContext(ctx, "Critical panic recovered", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			tel.Metrics.Operation(operation, "panic")
			var zero T
			result = zero
		}
	}()

	result, err = op(ctx)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		log.DebugContext(ctx, "Operation succeeded", slog.Duration("duration", elapsed))
		tel.Metrics.Operation(operation, "success")
	case IsDomainError(err):
		log.WarnContext(ctx, "Operation rejected", slog.String("reason", err.Error()), slog.Duration("duration", elapsed))
		span.SetAttributes(attribute.String("rejected", err.Error()))
		tel.Metrics.Operation(operation, "rejected")
	default:
		log.ErrorContext(ctx, "Operation failed with error", slog.Any("error", err), slog.Duration("duration", elapsed))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		tel.Metrics.Operation(operation, "failure")
	}
	return result, err
}
