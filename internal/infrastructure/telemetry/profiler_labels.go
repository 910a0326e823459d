package telemetry

import (
	"context"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys attached to request profiles
const (
	ProfilingLabelMethod = "http_method"
	ProfilingLabelRoute  = "http_route"
	ProfilingLabelEntity = "entity"
)

// WithProfilingLabels runs fn with pprof labels attached to its goroutine.
// Empty values are dropped; keep labels low-cardinality.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := make([]string, 0, len(labels)*2)
	for k, v := range labels {
		k = sanitizeLabelKey(k)
		if k == "" || v == "" {
			continue
		}
		pairs = append(pairs, k, v)
	}
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// sanitizeLabelKey keeps [a-z0-9_] and lowercases the rest
func sanitizeLabelKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '-' || r == '.' || r == ' ':
			b.WriteByte('_')
		}
	}
	return b.String()
}
