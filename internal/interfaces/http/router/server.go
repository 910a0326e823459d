package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
	"github.com/qcms/backend/internal/infrastructure/config"
	"github.com/qcms/backend/internal/infrastructure/logger"
	"github.com/qcms/backend/internal/interfaces/http/handler"
	"github.com/qcms/backend/internal/interfaces/http/middleware"
)

// Authenticator serves login and logout and verifies session cookies
type Authenticator interface {
	handler.SessionService
	middleware.SessionAuthenticator
}

// Options wires an Engine. Only Config is required.
type Options struct {
	Config  *config.Config
	Version string
	Logger  *zap.Logger

	// Deps is handed to every entity factory. Deps.Configs defaults to
	// quality.Catalog().
	Deps *Deps
	// Registrations defaults to DefaultRegistrations.
	Registrations []Registration

	// Auth nil leaves the API open and the auth routes unmounted.
	Auth        Authenticator
	Idempotency shared.IdempotencyStore
	DB          handler.Pinger
	Jobs        handler.JobLister
	Meter       metric.Meter
}

// Engine is the assembled HTTP application
type Engine struct {
	*gin.Engine
	Registry *Registry
	limiter  *middleware.RateLimiter
}

// Close stops background work started by NewEngine
func (e *Engine) Close() {
	if e.limiter != nil {
		e.limiter.Stop()
	}
}

// NewEngine builds the gin engine: global middleware, health and system
// routes, session routes, every registered entity and the API docs
func NewEngine(opts Options) *Engine {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	deps := opts.Deps
	if deps == nil {
		deps = &Deps{}
	}
	if deps.Configs == nil {
		deps.Configs = quality.Catalog()
	}
	if deps.Logger == nil {
		deps.Logger = log
	}
	registrations := opts.Registrations
	if registrations == nil {
		registrations = DefaultRegistrations()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}
	e := &Engine{Engine: engine, Registry: NewRegistry(registrations, deps)}

	// Global middleware, in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Server span, so the access log carries the trace id
	// 3. Recovery - Catch panics
	// 4. Logger - Log requests
	// 5. Security headers, CORS and body size limit
	// 6. Metrics and profiling labels
	engine.Use(middleware.RequestID())
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName), middleware.SpanAttributes())
	}
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig()))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = mergeHeaders(cfg.HTTP.CORSAllowHeaders, middleware.IdempotencyKeyHeader)
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if opts.Meter != nil {
		engine.Use(middleware.HTTPMetrics(opts.Meter, log))
	}
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))

	// API middleware: session, rate limit (keyed by user), viewer
	// write protection, idempotency keys
	var sessionAuth gin.HandlerFunc
	if cfg.Session.Enabled && opts.Auth != nil {
		sessionAuth = middleware.SessionAuth(middleware.SessionAuthConfig{
			Authenticator: opts.Auth,
			CookieName:    cfg.Session.CookieName,
			SkipPaths: []string{
				r.Prefix() + "/auth/login",
				r.Prefix() + "/auth/logout",
			},
			Logger: log,
		})
		r.Use(sessionAuth)
	}
	if cfg.HTTP.RateLimitEnabled {
		e.limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		r.Use(middleware.RateLimit(e.limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	r.Use(middleware.ReadOnlyForViewers())
	if cfg.Idempotency.Enabled && opts.Idempotency != nil {
		r.Use(middleware.Idempotency(opts.Idempotency, cfg.Idempotency.TTL, log))
	}

	systemHandler := handler.NewSystemHandler(handler.SystemOptions{
		Name:     cfg.App.Name,
		Version:  opts.Version,
		Env:      cfg.App.Env,
		DB:       opts.DB,
		Jobs:     opts.Jobs,
		Entities: e.Registry.Results,
	})
	engine.GET("/health", systemHandler.Health)

	var groups []*DomainGroup
	if opts.Auth != nil {
		authHandler := handler.NewAuthHandler(opts.Auth, cfg.Session)
		authRoutes := NewDomainGroup("auth", "/auth")
		authRoutes.POST("/login", "Sign in and receive a session cookie", authHandler.Login)
		authRoutes.POST("/logout", "End the current session", authHandler.Logout)
		authRoutes.GET("/me", "Describe the signed-in user", authHandler.Me)
		groups = append(groups, authRoutes)
	}

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", "Service name, version and uptime", systemHandler.Info)
	systemRoutes.GET("/health", "Process and database health", systemHandler.Health)
	systemRoutes.GET("/entities", "Mount outcome of every registered entity", systemHandler.Entities)
	systemRoutes.GET("/jobs", "Scheduled jobs and their last run", systemHandler.Jobs)
	groups = append(groups, systemRoutes)

	for _, g := range groups {
		r.Register(g)
	}
	api := r.Setup()
	e.Registry.Mount(api)

	docs := []DocRoute{{Method: http.MethodGet, Path: "/health", Summary: "Process and database health", Tag: "system"}}
	for _, g := range groups {
		docs = append(docs, g.Docs(r.Prefix())...)
	}
	doc := BuildAPIDoc(DocInfo{
		Title:       "QC Backend API",
		Description: "Quality-control records: defects, inspections, check-ins and master data",
		Version:     opts.Version,
	}, append(docs, e.Registry.Docs()...))

	docsGuard := middleware.DocsProtection(cfg.Swagger, sessionAuth)
	engine.GET("/openapi.json", docsGuard, func(c *gin.Context) {
		c.JSON(http.StatusOK, doc)
	})
	engine.GET("/swagger/*any", docsGuard, ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/openapi.json")))

	if cfg.Storage.Driver == "local" && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		files := engine.Group(cfg.Storage.PublicBaseURL)
		if sessionAuth != nil {
			files.Use(sessionAuth)
		}
		files.Static("/", cfg.Storage.LocalDir)
	}

	return e
}

func mergeHeaders(headers []string, extra ...string) []string {
	out := append([]string(nil), headers...)
	for _, h := range extra {
		found := false
		for _, existing := range out {
			if strings.EqualFold(existing, h) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, h)
		}
	}
	return out
}
