package observability

import "context"

type contextKey int

const (
	requestIDKey contextKey = iota
	traceIDKey
	clientIDKey
)

// contextLogFields maps context values to the log fields WithContext adds.
var contextLogFields = []struct {
	key  contextKey
	name string
}{
	{requestIDKey, "request_id"},
	{traceIDKey, "trace_id"},
	{clientIDKey, "client_id"},
}

func extractContextFields(ctx context.Context) []Field {
	var fields []Field
	for _, cf := range contextLogFields {
		if v := stringValue(ctx, cf.key); v != "" {
			fields = append(fields, String(cf.name, v))
		}
	}
	return fields
}

func stringValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// ContextWithRequestID stores the request identifier in ctx.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request identifier stored in ctx.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// ContextWithTraceID stores the trace identifier in ctx.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext returns the trace identifier stored in ctx.
func TraceIDFromContext(ctx context.Context) string {
	return stringValue(ctx, traceIDKey)
}

// ContextWithClientID stores the caller's client identifier in ctx.
func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// ClientIDFromContext returns the client identifier stored in ctx.
func ClientIDFromContext(ctx context.Context) string {
	return stringValue(ctx, clientIDKey)
}
