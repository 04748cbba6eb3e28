package tracing

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	pkgconfig "gazette-tasks/internal/pkg/config"
)

const instrumentationName = "gazette-tasks"

// tracer resolves through the global provider, so Init may run after package load.
var tracer = otel.Tracer(instrumentationName)

// Tracer returns the application tracer.
//
//	ctx, span := tracing.Tracer().Start(ctx, "ingest.Run")
//	defer span.End()
func Tracer() trace.Tracer {
	return tracer
}

// Config controls span sampling.
type Config struct {
	Enabled     bool
	SampleRatio float64
}

// ConfigFromEnv reads TRACING_ENABLED (default true) and TRACING_SAMPLE_RATIO (default 1.0).
func ConfigFromEnv() Config {
	ratio := 1.0
	if v := pkgconfig.GetEnvString("TRACING_SAMPLE_RATIO", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			ratio = f
		}
	}
	return Config{
		Enabled:     pkgconfig.GetEnvBool("TRACING_ENABLED", true),
		SampleRatio: ratio,
	}
}

// Init installs a tracer provider and returns its shutdown function.
// When tracing is disabled the global no-op provider is left in place.
func Init(cfg Config) func(context.Context) error {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !cfg.Enabled {
		return func(context.Context) error { return nil }
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

// TraceID returns the hex trace id of the span in ctx, or "" if there is none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
