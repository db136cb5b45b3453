package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vyrodovalexey/paramgw/internal/observability"
	"github.com/vyrodovalexey/paramgw/internal/payload"
	"github.com/vyrodovalexey/paramgw/internal/template"
)

func newRecordingTransformer(t *testing.T) (*Transformer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return New(observability.NopLogger(), WithTracer(tp.Tracer(TracerName))), exporter
}

func spanAttributes(s tracetest.SpanStub) map[string]interface{} {
	attrs := make(map[string]interface{})
	for _, a := range s.Attributes {
		attrs[string(a.Key)] = a.Value.AsInterface()
	}
	return attrs
}

func findSpan(t *testing.T, exporter *tracetest.InMemoryExporter, name string) tracetest.SpanStub {
	t.Helper()
	for _, s := range exporter.GetSpans() {
		if s.Name == name {
			return s
		}
	}
	require.Failf(t, "span not found", "expected %s span", name)
	return tracetest.SpanStub{}
}

func TestTransform_OTELSpans(t *testing.T) {
	t.Run("request_transform_creates_span", func(t *testing.T) {
		tr, exporter := newRecordingTransformer(t)

		dc := NewDataContext(payload.FromMap(map[string]interface{}{"id": "1"}))
		dc.ClientID = "c1"
		doc := document(&template.Field{Name: "id", Type: template.TypeInt})

		_, err := tr.TransformRequest(context.Background(), dc, doc)
		require.NoError(t, err)

		attrs := spanAttributes(findSpan(t, exporter, "transform.request"))
		assert.Equal(t, false, attrs["transform.fast_forward"])
		assert.Equal(t, int64(1), attrs["transform.fields_count"])
		assert.Equal(t, true, attrs["transform.has_client_id"])
	})

	t.Run("response_transform_creates_span", func(t *testing.T) {
		tr, exporter := newRecordingTransformer(t)

		_, err := tr.TransformResponse(context.Background(), payload.New(0), &template.Document{FastForward: true})
		require.NoError(t, err)

		attrs := spanAttributes(findSpan(t, exporter, "transform.response"))
		assert.Equal(t, true, attrs["transform.fast_forward"])
	})

	t.Run("failure_marks_span", func(t *testing.T) {
		tr, exporter := newRecordingTransformer(t)

		doc := document(&template.Field{Name: "id", Type: template.TypeInt, Required: true})
		_, err := tr.TransformRequest(context.Background(), NewDataContext(payload.New(0)), doc)
		require.Error(t, err)

		span := findSpan(t, exporter, "transform.request")
		assert.Equal(t, codes.Error, span.Status.Code)
		assert.Equal(t, string(KindMissingRequired), spanAttributes(span)["transform.error_kind"])
	})
}
