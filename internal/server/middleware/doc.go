// Package middleware provides the gin middleware chain of the HTTP server:
// request ids with access logging, panic recovery, OpenTelemetry tracing,
// Prometheus request metrics and client rate limiting.
package middleware
