// Package tracing provides OpenTelemetry tracing integration.
//
// Init installs an SDK tracer provider and the W3C trace context propagator.
// Middleware opens a server span per HTTP request and ingestion runs open
// their own spans through Tracer.
//
//	shutdown := tracing.Init(tracing.ConfigFromEnv())
//	defer func() { _ = shutdown(context.Background()) }()
package tracing
