package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qcms/backend/internal/infrastructure/config"
)

const startedKey = "qc:query_started"

// DBInstrumentation records query metrics and annotates query spans
type DBInstrumentation struct {
	slowThreshold  time.Duration
	logger         *zap.Logger
	queryTotal     *Counter
	slowQueryTotal *Counter
	queryDuration  *Histogram
	poolReg        metric.Registration
}

// InstrumentDB registers query metrics and pool gauges on db. With
// telemetry.db_trace_enabled the otelgorm tracing plugin is installed too.
func InstrumentDB(db *gorm.DB, cfg config.TelemetryConfig, meter metric.Meter, logger *zap.Logger) (*DBInstrumentation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	thresh := cfg.DBSlowQueryThresh
	if thresh <= 0 {
		thresh = 200 * time.Millisecond
	}

	if cfg.Enabled && cfg.DBTraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(db.Dialector.Name())}
		if !cfg.DBLogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, err
		}
	}

	d := &DBInstrumentation{slowThreshold: thresh, logger: logger}
	var err error
	if d.queryTotal, err = NewCounter(meter, "db_query_total", "Database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if d.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Database queries slower than the threshold", "{query}"); err != nil {
		return nil, err
	}
	if d.queryDuration, err = NewHistogram(meter, "db_query_duration_seconds", "Database query latency", "s", DBDurationBuckets); err != nil {
		return nil, err
	}
	if err := d.registerPoolGauges(db, meter); err != nil {
		return nil, err
	}
	if err := d.registerCallbacks(db); err != nil {
		return nil, err
	}

	logger.Info("Database instrumentation registered",
		zap.Bool("tracing", cfg.Enabled && cfg.DBTraceEnabled),
		zap.Duration("slow_query_threshold", thresh),
	)
	return d, nil
}

// Close unregisters the pool gauges
func (d *DBInstrumentation) Close() error {
	if d.poolReg == nil {
		return nil
	}
	return d.poolReg.Unregister()
}

func (d *DBInstrumentation) registerPoolGauges(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	maxConns, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"), metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	d.poolReg, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := sqlDB.Stats()
		o.ObserveInt64(conns, int64(s.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(s.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(maxConns, int64(s.MaxOpenConnections))
		return nil
	}, conns, maxConns)
	return err
}

func (d *DBInstrumentation) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("qc_metrics:before_create", d.before),
		cb.Query().Before("gorm:query").Register("qc_metrics:before_query", d.before),
		cb.Update().Before("gorm:update").Register("qc_metrics:before_update", d.before),
		cb.Delete().Before("gorm:delete").Register("qc_metrics:before_delete", d.before),
		cb.Row().Before("gorm:row").Register("qc_metrics:before_row", d.before),
		cb.Raw().Before("gorm:raw").Register("qc_metrics:before_raw", d.before),

		cb.Create().After("gorm:create").Register("qc_metrics:after_create", d.after("insert")),
		cb.Query().After("gorm:query").Register("qc_metrics:after_query", d.after("select")),
		cb.Update().After("gorm:update").Register("qc_metrics:after_update", d.after("update")),
		cb.Delete().After("gorm:delete").Register("qc_metrics:after_delete", d.after("delete")),
		cb.Row().After("gorm:row").Register("qc_metrics:after_row", d.after("select")),
		cb.Raw().After("gorm:raw").Register("qc_metrics:after_raw", d.after("raw")),
	)
}

func (d *DBInstrumentation) before(db *gorm.DB) {
	db.InstanceSet(startedKey, time.Now())
}

func (d *DBInstrumentation) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(startedKey)
		if !ok {
			return
		}
		started, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(started)

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		attrs := []attribute.KeyValue{AttrDBOperation.String(op), AttrDBTable.String(db.Statement.Table)}
		d.queryTotal.Inc(ctx, attrs...)
		d.queryDuration.RecordDuration(ctx, elapsed, attrs...)

		span := trace.SpanFromContext(ctx)
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) && span.IsRecording() {
			span.SetStatus(codes.Error, db.Error.Error())
		}
		if elapsed <= d.slowThreshold {
			return
		}
		d.slowQueryTotal.Inc(ctx, attrs...)
		if span.IsRecording() {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
