package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/paramgw/internal/observability"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"
	// ClientIDHeader identifies the calling client.
	ClientIDHeader = "X-ClientId"
	// RequestIDKey is the gin context key for the request id.
	RequestIDKey = "requestID"
	// TemplateParam is the route parameter naming the template.
	TemplateParam = "name"
)

// LoggingConfig holds configuration for the logging middleware.
type LoggingConfig struct {
	Logger *zap.Logger

	// SkipPaths are tagged with a request id but produce no access log.
	SkipPaths []string
}

// Logging returns a middleware that assigns request ids and writes one
// access log entry per request, except for skipPaths.
func Logging(logger *zap.Logger, skipPaths ...string) gin.HandlerFunc {
	return LoggingWithConfig(LoggingConfig{Logger: logger, SkipPaths: skipPaths})
}

// LoggingWithConfig returns a logging middleware with custom configuration.
// The request id is taken from X-Request-ID or generated, echoed in the
// response and stored in the request context together with the client id.
func LoggingWithConfig(config LoggingConfig) gin.HandlerFunc {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		clientID := c.GetHeader(ClientIDHeader)
		ctx := observability.ContextWithRequestID(c.Request.Context(), requestID)
		if clientID != "" {
			ctx = observability.ContextWithClientID(ctx, clientID)
		}
		c.Request = c.Request.WithContext(ctx)

		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, zap.String("route", route))
		}
		if name := c.Param(TemplateParam); name != "" {
			fields = append(fields, zap.String("template", name))
		}
		if clientID != "" {
			fields = append(fields, zap.String("client_id", clientID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if ce := logger.Check(accessLogLevel(status), "request completed"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func accessLogLevel(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// GetRequestID returns the request id assigned by the logging middleware.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
