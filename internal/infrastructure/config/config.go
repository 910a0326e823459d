package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	MSSQL       MSSQLConfig
	Redis       RedisConfig
	Session     SessionConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Upload      UploadConfig
	Storage     StorageConfig
	Sync        SyncConfig
	Bulk        BulkConfig
	Idempotency IdempotencyConfig
	Swagger     SwaggerConfig
	Telemetry   TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// MSSQLConfig holds the connection to the shop-floor SQL Server that
// check-in records are pulled from. An empty Host disables the source.
type MSSQLConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	Encrypt      string // disable, false, true, strict
	CheckinTable string
	QueryTimeout time.Duration
}

// Enabled reports whether an MSSQL source is configured.
func (m *MSSQLConfig) Enabled() bool {
	return m.Host != ""
}

// RedisConfig holds Redis connection settings. An empty Host keeps
// session revocation in memory.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig holds session token and cookie settings
type SessionConfig struct {
	Enabled    bool
	Secret     string
	Issuer     string
	Expiration time.Duration
	CookieName string
	Domain     string // empty = current domain
	Path       string
	Secure     bool
	SameSite   string // strict, lax, none
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// UploadConfig bounds multipart uploads
type UploadConfig struct {
	MaxFileSize      int64
	AllowedMIMETypes []string
}

// StorageConfig selects where uploaded images are kept
type StorageConfig struct {
	Driver          string // local, s3
	LocalDir        string
	PublicBaseURL   string // URL prefix serving LocalDir
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PresignExpiry   time.Duration
}

// SyncConfig holds inf-checkin synchronisation settings
type SyncConfig struct {
	Enabled   bool
	Schedule  string // cron expression
	Lookback  time.Duration
	MaxRange  time.Duration
	BatchSize int
	Timeout   time.Duration
}

// BulkConfig bounds JSON bulk inserts
type BulkConfig struct {
	MaxRecords    int
	MaxImportRows int // CSV imports
}

// IdempotencyConfig controls Idempotency-Key handling on bulk writes
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// SwaggerConfig holds Swagger UI endpoint configuration
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	AllowedIPs  []string
}

// TelemetryConfig holds OpenTelemetry and profiling configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // e.g. "localhost:4317"
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool
	LogsEnabled       bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
	ProfilingEnabled  bool
	PyroscopeURL      string
}

// Load loads configuration from a .env file, TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with QC_ prefix (e.g., QC_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("QC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Session auth and idempotency keys are on unless explicitly disabled.
	v.SetDefault("session.enabled", true)
	v.SetDefault("idempotency.enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		MSSQL: MSSQLConfig{
			Host:         v.GetString("mssql.host"),
			Port:         v.GetInt("mssql.port"),
			User:         v.GetString("mssql.user"),
			Password:     v.GetString("mssql.password"),
			Database:     v.GetString("mssql.database"),
			Encrypt:      v.GetString("mssql.encrypt"),
			CheckinTable: v.GetString("mssql.checkin_table"),
			QueryTimeout: v.GetDuration("mssql.query_timeout"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Session: SessionConfig{
			Enabled:    v.GetBool("session.enabled"),
			Secret:     v.GetString("session.secret"),
			Issuer:     v.GetString("session.issuer"),
			Expiration: v.GetDuration("session.expiration"),
			CookieName: v.GetString("session.cookie_name"),
			Domain:     v.GetString("session.domain"),
			Path:       v.GetString("session.path"),
			Secure:     v.GetBool("session.secure"),
			SameSite:   v.GetString("session.same_site"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Upload: UploadConfig{
			MaxFileSize:      v.GetInt64("upload.max_file_size"),
			AllowedMIMETypes: v.GetStringSlice("upload.allowed_mime_types"),
		},
		Storage: StorageConfig{
			Driver:          v.GetString("storage.driver"),
			LocalDir:        v.GetString("storage.local_dir"),
			PublicBaseURL:   v.GetString("storage.public_base_url"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			PresignExpiry:   v.GetDuration("storage.presign_expiry"),
		},
		Sync: SyncConfig{
			Enabled:   v.GetBool("sync.enabled"),
			Schedule:  v.GetString("sync.schedule"),
			Lookback:  v.GetDuration("sync.lookback"),
			MaxRange:  v.GetDuration("sync.max_range"),
			BatchSize: v.GetInt("sync.batch_size"),
			Timeout:   v.GetDuration("sync.timeout"),
		},
		Bulk: BulkConfig{
			MaxRecords:    v.GetInt("bulk.max_records"),
			MaxImportRows: v.GetInt("bulk.max_import_rows"),
		},
		Idempotency: IdempotencyConfig{
			Enabled: v.GetBool("idempotency.enabled"),
			TTL:     v.GetDuration("idempotency.ttl"),
		},
		Swagger: SwaggerConfig{
			Enabled:     v.GetBool("swagger.enabled"),
			RequireAuth: v.GetBool("swagger.require_auth"),
			AllowedIPs:  v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			PyroscopeURL:      v.GetString("telemetry.pyroscope_url"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "qc-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "qc"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.MSSQL.Port == 0 {
		cfg.MSSQL.Port = 1433
	}
	if cfg.MSSQL.Encrypt == "" {
		cfg.MSSQL.Encrypt = "disable"
	}
	if cfg.MSSQL.CheckinTable == "" {
		cfg.MSSQL.CheckinTable = "dbo.INF_CHECKIN"
	}
	if cfg.MSSQL.QueryTimeout == 0 {
		cfg.MSSQL.QueryTimeout = 2 * time.Minute
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Session.Issuer == "" {
		cfg.Session.Issuer = "qc-backend"
	}
	if cfg.Session.Expiration == 0 {
		cfg.Session.Expiration = 8 * time.Hour
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "qc_session"
	}
	if cfg.Session.Path == "" {
		cfg.Session.Path = "/"
	}
	if cfg.Session.SameSite == "" {
		cfg.Session.SameSite = "lax"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 60 << 20 // room for a full image batch
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 300
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// CORS origins stay empty until configured; no "*" fallback.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Upload.MaxFileSize == 0 {
		cfg.Upload.MaxFileSize = 5 << 20 // 5MB
	}
	if len(cfg.Upload.AllowedMIMETypes) == 0 {
		cfg.Upload.AllowedMIMETypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp"}
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "local"
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "./uploads"
	}
	if cfg.Storage.PublicBaseURL == "" {
		cfg.Storage.PublicBaseURL = "/uploads"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.PresignExpiry == 0 {
		cfg.Storage.PresignExpiry = 15 * time.Minute
	}
	if cfg.Sync.Schedule == "" {
		cfg.Sync.Schedule = "*/30 * * * *"
	}
	if cfg.Sync.Lookback == 0 {
		cfg.Sync.Lookback = 2 * time.Hour
	}
	if cfg.Sync.MaxRange == 0 {
		cfg.Sync.MaxRange = 31 * 24 * time.Hour
	}
	if cfg.Sync.BatchSize == 0 {
		cfg.Sync.BatchSize = 500
	}
	if cfg.Sync.Timeout == 0 {
		cfg.Sync.Timeout = 10 * time.Minute
	}
	if cfg.Bulk.MaxRecords == 0 {
		cfg.Bulk.MaxRecords = 500
	}
	if cfg.Bulk.MaxImportRows == 0 {
		cfg.Bulk.MaxImportRows = 5000
	}
	if cfg.Idempotency.TTL == 0 {
		cfg.Idempotency.TTL = 24 * time.Hour
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "qc-backend"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.PyroscopeURL == "" {
		cfg.Telemetry.PyroscopeURL = "http://localhost:4040"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	switch c.Storage.Driver {
	case "local", "s3":
	default:
		return fmt.Errorf("storage.driver must be 'local' or 's3', got %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage.driver is 's3'")
	}
	if c.Sync.Enabled && !c.MSSQL.Enabled() {
		return fmt.Errorf("sync.enabled requires mssql.host")
	}
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("sync.batch_size must be positive")
	}

	if c.App.Env == "production" {
		if len(c.Session.Secret) < 32 {
			return fmt.Errorf("session.secret must be at least 32 characters in production")
		}
		if !c.Session.Enabled {
			return fmt.Errorf("session.enabled cannot be false in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if !c.Session.Secure {
			return fmt.Errorf("session.secure must be true in production (HTTPS required for secure cookies)")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Swagger.Enabled && !c.Swagger.RequireAuth && len(c.Swagger.AllowedIPs) == 0 {
			return fmt.Errorf("swagger endpoint must be disabled, require authentication, or have IP restriction in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	} else if c.Session.Enabled && c.Session.Secret == "" {
		// Development convenience; production is rejected above.
		c.Session.Secret = "qc-development-session-secret-change-me"
	}

	if c.Session.SameSite == "none" && !c.Session.Secure {
		return fmt.Errorf("session.same_site=none requires session.secure=true")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the PostgreSQL connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// DSN returns the sqlserver:// connection string understood by go-mssqldb
func (m *MSSQLConfig) DSN() string {
	u := url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(m.User, m.Password),
		Host:   fmt.Sprintf("%s:%d", m.Host, m.Port),
	}
	q := u.Query()
	q.Set("database", m.Database)
	q.Set("encrypt", m.Encrypt)
	q.Set("app name", "qc-backend")
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisAddr returns host:port, or "" when Redis is not configured
func (r *RedisConfig) RedisAddr() string {
	if r.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
