package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestEntityFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/defects":                            "defects",
		"/api/v1/defects/:id":                        "defects",
		"/api/v1/customers-site/:customer_code/:site": "customers-site",
		"/api/v1/auth/login":                         "",
		"/api/v1/system/entities":                    "",
		"/health":                                    "",
		"":                                           "",
	}
	for route, want := range tests {
		assert.Equal(t, want, EntityFromRoute(route), route)
	}
}

func TestHTTPMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	router := gin.New()
	router.Use(HTTPMetrics(provider.Meter("test"), nil))
	router.GET("/api/v1/defects/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/defects/7", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total *metricdata.Sum[int64]
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
			if m.Name == "http_server_request_total" {
				sum := m.Data.(metricdata.Sum[int64])
				total = &sum
			}
		}
	}
	assert.True(t, names["http_server_request_duration_seconds"])
	assert.True(t, names["http_server_active_requests"])
	require.NotNil(t, total)
	require.Len(t, total.DataPoints, 1)

	dp := total.DataPoints[0]
	assert.Equal(t, int64(1), dp.Value)
	entity, ok := dp.Attributes.Value(attribute.Key("qc.entity"))
	require.True(t, ok)
	assert.Equal(t, "defects", entity.AsString())
	route, _ := dp.Attributes.Value(attribute.Key("http.route"))
	assert.Equal(t, "/api/v1/defects/:id", route.AsString())
	status, _ := dp.Attributes.Value(attribute.Key("http.status_code"))
	assert.Equal(t, int64(404), status.AsInt64())
}

func TestHTTPMetrics_NilMeter(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil, nil))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracing_SpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	router := gin.New()
	router.Use(RequestID(), Tracing("qc-test", otelgin.WithTracerProvider(tp)), SpanAttributes())
	router.GET("/api/v1/iqa-data/:id", func(c *gin.Context) {
		c.Set(SessionUsernameKey, "alice")
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/iqa-data/3", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, codes.Error, span.Status().Code)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "req-42", attrs["request_id"].AsString())
	assert.Equal(t, "iqa-data", attrs["qc.entity"].AsString())
	assert.Equal(t, "alice", attrs["enduser.id"].AsString())
}

func TestProfiling(t *testing.T) {
	var called bool
	router := gin.New()
	router.Use(Profiling(DefaultProfilingConfig()))
	router.GET("/api/v1/defects", func(c *gin.Context) {
		called = true
		c.Status(http.StatusOK)
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/v1/defects", "/health"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	assert.True(t, called)
}
