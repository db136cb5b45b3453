package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/paramgw/internal/observability"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogging_RequestID(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(Logging(zap.New(core)))

	var (
		seenID    string
		ctxID     string
		ctxClient string
	)
	r.GET("/x", func(c *gin.Context) {
		seenID = GetRequestID(c)
		ctxID = observability.RequestIDFromContext(c.Request.Context())
		ctxClient = observability.ClientIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	req.Header.Set(ClientIDHeader, "client-1")
	w := serve(r, req)

	assert.NotEmpty(t, seenID)
	assert.Equal(t, seenID, ctxID)
	assert.Equal(t, "client-1", ctxClient)
	assert.Equal(t, seenID, w.Header().Get(RequestIDHeader))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request completed", entry.Message)
	assert.Equal(t, "client-1", entry.ContextMap()["client_id"])

	req = httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	req.Header.Set(RequestIDHeader, "given-id")
	w = serve(r, req)
	assert.Equal(t, "given-id", w.Header().Get(RequestIDHeader))
}

func TestLogging_LevelByStatusAndSkips(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	r := gin.New()
	r.Use(Logging(zap.New(core), "/health", "/skip"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/skip", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	serve(r, httptest.NewRequest(http.MethodGet, "/skip", http.NoBody))
	serve(r, httptest.NewRequest(http.MethodGet, "/bad", http.NoBody))
	serve(r, httptest.NewRequest(http.MethodGet, "/fail", http.NoBody))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, "/bad", logs.All()[0].ContextMap()["route"])
	assert.Equal(t, zap.ErrorLevel, logs.All()[1].Level)
}

func TestLogging_TemplateName(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(LoggingWithConfig(LoggingConfig{Logger: zap.New(core)}))
	r.POST("/v1/transform/:name/request", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodPost, "/v1/transform/order/request", http.NoBody))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "order", fields["template"])
	assert.Equal(t, "/v1/transform/:name/request", fields["route"])
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal","message":"an unexpected error occurred"}`, w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestTracing(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	r := gin.New()
	r.Use(TracingWithConfig(TracingConfig{
		TracerProvider: tp,
		Propagators:    propagation.TraceContext{},
		SkipPaths:      []string{"/health"},
	}))
	r.Use(Recovery(nil))

	var traceID string
	r.GET("/items/:id", func(c *gin.Context) {
		traceID = observability.TraceIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	r.GET("/panic", func(*gin.Context) { panic("boom") })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/items/42", http.NoBody)
	req.Header.Set(ClientIDHeader, "client-1")
	serve(r, req)
	serve(r, httptest.NewRequest(http.MethodGet, "/panic", http.NoBody))
	serve(r, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, "GET /items/:id", ok.Name)
	assert.Equal(t, ok.SpanContext.TraceID().String(), traceID)
	attrs := attribute.NewSet(ok.Attributes...)
	route, _ := attrs.Value("http.route")
	assert.Equal(t, "/items/:id", route.AsString())
	client, _ := attrs.Value("client.id")
	assert.Equal(t, "client-1", client.AsString())
	status, _ := attrs.Value("http.response.status_code")
	assert.Equal(t, int64(http.StatusOK), status.AsInt64())

	failed := spans[1]
	assert.Equal(t, codes.Error, failed.Status.Code)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := observability.NewMetrics("mwtest")
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusCreated) })

	serve(r, httptest.NewRequest(http.MethodGet, "/items/1", http.NoBody))
	serve(r, httptest.NewRequest(http.MethodGet, "/items/2", http.NoBody))
	serve(r, httptest.NewRequest(http.MethodGet, "/nowhere", http.NoBody))

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() != "mwtest_requests_total" {
			continue
		}
		found = true
		routes := map[string]float64{}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "route" {
					routes[lp.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
		assert.Equal(t, 2.0, routes["/items/:id"])
		assert.Equal(t, 1.0, routes[observability.UnmatchedRoute])
	}
	assert.True(t, found)
	assert.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "mwtest_active_requests"))
}
