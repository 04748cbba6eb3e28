// Package observability groups the logging, metrics and tracing subpackages.
//
// Subpackages:
//   - logging: slog logger construction and context helpers
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry tracer provider and HTTP middleware
package observability
