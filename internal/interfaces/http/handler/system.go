package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qcms/backend/internal/domain/shared"
	"github.com/qcms/backend/internal/infrastructure/logger"
	"github.com/qcms/backend/internal/infrastructure/scheduler"
)

// Pinger checks a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// JobLister reports scheduled jobs
type JobLister interface {
	Jobs() []scheduler.JobState
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	env       string
	db        Pinger
	jobs      JobLister
	entities  func() []MountResult
	startTime time.Time
}

// SystemOptions configures a SystemHandler. DB, Jobs and Entities may be nil.
type SystemOptions struct {
	Name     string
	Version  string
	Env      string
	DB       Pinger
	Jobs     JobLister
	Entities func() []MountResult
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(opts SystemOptions) *SystemHandler {
	return &SystemHandler{
		name:      opts.Name,
		version:   opts.Version,
		env:       opts.Env,
		db:        opts.DB,
		jobs:      opts.Jobs,
		entities:  opts.Entities,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Env       string `json:"env"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// HealthResponse reports process and database health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Time     string `json:"time"`
}

// Info returns basic system information including version and uptime
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		Env:       h.env,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Health checks the process is serving and the database answers
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "ok", Time: time.Now().UTC().Format(time.RFC3339)}
	if h.db == nil {
		resp.Database = "not configured"
		h.Success(c, resp)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		logger.GetGinLogger(c).Warn("Database health check failed", zap.Error(err))
		h.Error(c, http.StatusServiceUnavailable, shared.ErrUnavailable.Code, "Database is unavailable")
		return
	}
	h.Success(c, resp)
}

// Entities lists how every registered entity was mounted
func (h *SystemHandler) Entities(c *gin.Context) {
	if h.entities == nil {
		h.Success(c, []MountResult{})
		return
	}
	h.Success(c, h.entities())
}

// Jobs lists scheduled jobs and their last run
func (h *SystemHandler) Jobs(c *gin.Context) {
	if h.jobs == nil {
		h.Success(c, []scheduler.JobState{})
		return
	}
	h.Success(c, h.jobs.Jobs())
}
