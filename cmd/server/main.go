package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	identityapp "github.com/qcms/backend/internal/application/identity"
	qualityapp "github.com/qcms/backend/internal/application/quality"
	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
	"github.com/qcms/backend/internal/infrastructure/auth"
	"github.com/qcms/backend/internal/infrastructure/cache"
	"github.com/qcms/backend/internal/infrastructure/config"
	"github.com/qcms/backend/internal/infrastructure/logger"
	"github.com/qcms/backend/internal/infrastructure/mssql"
	"github.com/qcms/backend/internal/infrastructure/persistence"
	"github.com/qcms/backend/internal/infrastructure/scheduler"
	"github.com/qcms/backend/internal/infrastructure/storage"
	"github.com/qcms/backend/internal/infrastructure/telemetry"
	"github.com/qcms/backend/internal/interfaces/http/handler"
	"github.com/qcms/backend/internal/interfaces/http/middleware"
	"github.com/qcms/backend/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// Telemetry first, so the OTLP log bridge can be added to the logger
	providers, err := telemetry.Setup(context.Background(), cfg.Telemetry, version, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	if providers.Logs.IsEnabled() {
		bridged, err := logger.New(logCfg, providers.Logs.ZapCore(logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			log.Fatal("Failed to attach OTLP log bridge", zap.Error(err))
		}
		log = bridged
	}
	defer logger.Sync(log)

	log.Info("Starting QC Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	meter := providers.Meter.Meter(cfg.Telemetry.ServiceName)
	var httpMeter metric.Meter
	if providers.Meter.IsEnabled() {
		httpMeter = meter
	}
	dbMetrics, err := telemetry.InstrumentDB(db.DB, cfg.Telemetry, meter, log)
	if err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}

	// Session revocation and idempotency keys live in Redis when it is
	// configured, otherwise in process memory
	var (
		revoked     auth.RevocationList
		idempotency shared.IdempotencyStore
		closers     []func() error
	)
	if cfg.Redis.Host != "" {
		client, err := cache.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		closers = append(closers, client.Close)
		revoked = auth.NewRedisRevocationList(client)
		idempotency = cache.NewRedisIdempotencyStore(client)
		log.Info("Redis connected", zap.String("addr", cfg.Redis.RedisAddr()))
	} else {
		revoked = auth.NewInMemoryRevocationList()
		store := cache.NewInMemoryIdempotencyStore(time.Minute)
		closers = append(closers, store.Close)
		idempotency = store
		log.Info("Redis not configured, using in-memory session and idempotency stores")
	}

	sessions := auth.NewSessionManager(cfg.Session)
	authService := identityapp.NewAuthService(persistence.NewGormUserRepository(db.DB), sessions, revoked, log)

	// Image storage
	objects, err := storage.New(context.Background(), &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// MES check-in source
	var checkinSource quality.CheckinSource
	if cfg.MSSQL.Enabled() {
		source, err := mssql.Open(&cfg.MSSQL, log)
		if err != nil {
			log.Fatal("Failed to connect to MES database", zap.Error(err))
		}
		closers = append(closers, source.Close)
		checkinSource = source
	} else {
		log.Info("MES database not configured, check-in sync disabled")
	}

	syncOpts := qualityapp.SyncOptions{MaxRange: cfg.Sync.MaxRange, BatchSize: cfg.Sync.BatchSize}
	configs := quality.Catalog()

	// Scheduled check-in sync
	var (
		jobs  handler.JobLister
		sched *scheduler.Scheduler
	)
	if cfg.Sync.Enabled && checkinSource != nil {
		checkinCfg := configs[quality.EntityCheckin]
		checkinService := qualityapp.NewCheckinService(
			persistence.NewGormCheckinRepository(db.DB, checkinCfg),
			checkinCfg,
			checkinSource,
			syncOpts,
			log,
		)
		schedCfg := scheduler.DefaultSchedulerConfig()
		if cfg.Sync.Timeout > 0 {
			schedCfg.JobTimeout = cfg.Sync.Timeout
		}
		sched = scheduler.NewScheduler(schedCfg, log)
		if err := sched.Register("checkin-sync", cfg.Sync.Schedule,
			scheduler.NewCheckinSyncJob(checkinService, cfg.Sync.Lookback, log)); err != nil {
			log.Fatal("Failed to register check-in sync job", zap.Error(err))
		}
		if err := sched.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		jobs = sched
	} else if cfg.Sync.Enabled {
		log.Warn("Check-in sync is enabled but no MES database is configured")
	}

	// Register custom validators
	middleware.SetupValidator()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.NewEngine(router.Options{
		Config:  cfg,
		Version: version,
		Logger:  log,
		Deps: &router.Deps{
			DB:            db.DB,
			Configs:       configs,
			Storage:       objects,
			CheckinSource: checkinSource,
			Sync:          syncOpts,
			Upload: qualityapp.UploadOptions{
				MaxFileSize:      cfg.Upload.MaxFileSize,
				AllowedMIMETypes: cfg.Upload.AllowedMIMETypes,
			},
			MaxBulk:       cfg.Bulk.MaxRecords,
			MaxImportRows: cfg.Bulk.MaxImportRows,
			Logger:        log,
		},
		Auth:        authService,
		Idempotency: idempotency,
		DB:          db,
		Jobs:        jobs,
		Meter:       httpMeter,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	engine.Close()

	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Error("Error closing resource", zap.Error(err))
		}
	}
	if err := dbMetrics.Close(); err != nil {
		log.Error("Error unregistering database metrics", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := providers.Shutdown(ctx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
