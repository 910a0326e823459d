package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/qcms/backend/internal/infrastructure/telemetry"
)

const apiPrefix = "/api/v1/"

// EntityFromRoute returns the entity segment of an API route pattern, e.g.
// "defects" for "/api/v1/defects/:id". Non-entity routes return "".
func EntityFromRoute(route string) string {
	rest, ok := strings.CutPrefix(route, apiPrefix)
	if !ok {
		return ""
	}
	entity, _, _ := strings.Cut(rest, "/")
	switch entity {
	case "auth", "system":
		return ""
	}
	return entity
}

func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requestTotal, err := telemetry.NewCounter(meter,
		"http_server_request_total", "Total number of HTTP requests", "{request}")
	if err != nil {
		return nil, err
	}
	requestDuration, err := telemetry.NewHistogram(meter,
		"http_server_request_duration_seconds", "HTTP request latency distribution in seconds", "s",
		telemetry.HTTPDurationBuckets)
	if err != nil {
		return nil, err
	}
	activeRequests, err := meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		activeRequests:  activeRequests,
	}, nil
}

// HTTPMetrics records request count, latency and in-flight requests. A nil
// meter disables it.
func HTTPMetrics(meter metric.Meter, logger *zap.Logger) gin.HandlerFunc {
	if meter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		if logger != nil {
			logger.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.activeRequests.Add(ctx, 1)

		c.Next()

		m.activeRequests.Add(ctx, -1)
		route := routePattern(c)
		attrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		}
		if entity := EntityFromRoute(route); entity != "" {
			attrs = append(attrs, telemetry.AttrEntity.String(entity))
		}
		m.requestDuration.RecordDuration(ctx, time.Since(start), attrs...)
		m.requestTotal.Inc(ctx, append(attrs, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))...)
	}
}

// Tracing starts a server span per request through otelgin
func Tracing(serviceName string, opts ...otelgin.Option) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, opts...)
}

// SpanAttributes enriches the otelgin span. It must run after Tracing.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if entity := EntityFromRoute(c.FullPath()); entity != "" {
			span.SetAttributes(telemetry.AttrEntity.String(entity))
		}

		c.Next()

		if user := GetSessionUsername(c); user != "" {
			span.SetAttributes(attribute.String("enduser.id", user))
		}
		if status := c.Writer.Status(); status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}

// ProfilingConfig selects which requests get pprof labels
type ProfilingConfig struct {
	SkipPaths        []string
	SkipPathPrefixes []string
}

// DefaultProfilingConfig skips health checks and API docs
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		SkipPaths:        []string{"/health", "/openapi.json"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// Profiling tags the request goroutine with method, route and entity so
// that continuous profiles can be filtered by endpoint
func Profiling(cfg ProfilingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, p := range cfg.SkipPaths {
			if path == p {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		route := c.FullPath()
		labels := map[string]string{telemetry.ProfilingLabelMethod: c.Request.Method}
		if route != "" {
			labels[telemetry.ProfilingLabelRoute] = route
		}
		if entity := EntityFromRoute(route); entity != "" {
			labels[telemetry.ProfilingLabelEntity] = entity
		}

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
