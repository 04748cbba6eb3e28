// Package logging provides structured logging utilities with context propagation.
//
// Loggers are plain *slog.Logger values. NewLogger reads LOG_LEVEL and
// LOG_FORMAT; WithRequestID decorates a logger with the request and trace ids
// carried by a context.
package logging
