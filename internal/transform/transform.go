// Package transform resolves template documents against request and response
// payloads, producing validated and typed parameter maps.
package transform

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/paramgw/internal/observability"
	"github.com/vyrodovalexey/paramgw/internal/payload"
	"github.com/vyrodovalexey/paramgw/internal/template"
)

// TracerName is the name of the transform tracer.
const TracerName = "paramgw/transform"

var transformTracer = otel.Tracer(TracerName)

// Direction labels.
const (
	DirectionRequest  = "request"
	DirectionResponse = "response"
)

// Transformer wraps the request and response resolvers with logging, metrics
// and tracing. It holds no per-call state and is safe for concurrent use.
type Transformer struct {
	logger  observability.Logger
	metrics *TransformMetrics
	tracer  trace.Tracer
}

// Option is a functional option for configuring the Transformer.
type Option func(*Transformer)

// WithMetrics sets the metrics instance.
func WithMetrics(m *TransformMetrics) Option {
	return func(t *Transformer) {
		t.metrics = m
	}
}

// WithTracer sets a custom tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(t *Transformer) {
		t.tracer = tracer
	}
}

// New creates a new Transformer.
func New(logger observability.Logger, opts ...Option) *Transformer {
	if logger == nil {
		logger = observability.NopLogger()
	}

	t := &Transformer{
		logger:  logger,
		metrics: GetTransformMetrics(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// TransformRequest resolves doc against the request described by dc.
func (t *Transformer) TransformRequest(
	ctx context.Context,
	dc *DataContext,
	doc *template.Document,
) (*payload.Map, error) {
	if doc == nil {
		doc = &template.Document{}
	}

	ctx, span := t.startSpan(ctx, "transform.request", doc)
	defer span.End()

	if dc != nil {
		span.SetAttributes(attribute.Bool("transform.has_client_id", dc.ClientID != ""))
	}

	start := time.Now()
	result, err := ResolveRequest(dc, doc)
	t.finish(ctx, span, DirectionRequest, doc, start, err)

	return result, err
}

// TransformResponse resolves doc against the actual response data.
func (t *Transformer) TransformResponse(
	ctx context.Context,
	data *payload.Map,
	doc *template.Document,
) (*payload.Map, error) {
	if doc == nil {
		doc = &template.Document{}
	}

	ctx, span := t.startSpan(ctx, "transform.response", doc)
	defer span.End()

	start := time.Now()
	result, err := ResolveResponse(data, doc)
	t.finish(ctx, span, DirectionResponse, doc, start, err)

	return result, err
}

func (t *Transformer) startSpan(
	ctx context.Context,
	name string,
	doc *template.Document,
) (context.Context, trace.Span) {
	tracer := t.tracer
	if tracer == nil {
		tracer = transformTracer
	}

	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Bool("transform.fast_forward", doc.FastForward),
			attribute.Int("transform.fields_count", len(doc.Fields)),
		),
	)
}

func (t *Transformer) finish(
	ctx context.Context,
	span trace.Span,
	direction string,
	doc *template.Document,
	start time.Time,
	err error,
) {
	t.metrics.operationDuration.WithLabelValues(direction).Observe(time.Since(start).Seconds())
	logger := t.logger.WithContext(ctx)

	if err != nil {
		kind := KindOf(err)
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		span.SetAttributes(attribute.String("transform.error_kind", string(kind)))

		t.metrics.RecordOperation(direction, ResultError)
		t.metrics.RecordError(direction, string(kind))

		if IsTemplateFault(err) {
			logger.Error("template fault during transformation",
				observability.String("direction", direction),
				observability.String("kind", string(kind)),
				observability.Error(err))
		} else {
			logger.Debug("transformation rejected",
				observability.String("direction", direction),
				observability.String("kind", string(kind)),
				observability.Error(err))
		}
		return
	}

	result := ResultSuccess
	if doc.FastForward {
		result = ResultPassthrough
	}
	t.metrics.RecordOperation(direction, result)
	logger.Debug("transformation completed",
		observability.String("direction", direction),
		observability.String("result", result),
		observability.Duration("duration", time.Since(start)))
}
