// Package observability provides logging, metrics and tracing for the
// parameter gateway.
//
// # Logging
//
// The Logger interface wraps zap:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("template loaded",
//	    observability.String("name", "user-create"),
//	    observability.Int("fields", 12),
//	)
//
// # Metrics
//
// Prometheus metrics for HTTP traffic and the template store, served from a
// private registry:
//
//	metrics := observability.NewMetrics("paramgw")
//	handler := metrics.Handler()
//
// # Tracing
//
// OpenTelemetry tracing with optional OTLP gRPC export:
//
//	tracer, err := observability.NewTracer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(ctx)
package observability
