package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qcms/backend/internal/domain/shared"
	"github.com/qcms/backend/internal/infrastructure/logger"
	"github.com/qcms/backend/internal/interfaces/http/dto"
	"github.com/qcms/backend/internal/interfaces/http/middleware"
)

// EntityService is the service contract behind an EntityHandler
type EntityService[T, C, U any] interface {
	Config() shared.EntityConfig
	List(ctx context.Context, filter shared.Filter) (*shared.Paginated[T], error)
	Get(ctx context.Context, key shared.Key) (*T, error)
	Create(ctx context.Context, req C, actor string) (*T, error)
	Update(ctx context.Context, key shared.Key, req U) (*T, error)
	Delete(ctx context.Context, key shared.Key) error
	Health(ctx context.Context) error
}

// EntityHandler serves list/get/create/update/delete/health for one entity
type EntityHandler[T, C, U any] struct {
	BaseHandler
	svc  EntityService[T, C, U]
	cfg  shared.EntityConfig
	noun string
}

// NewEntityHandler creates a handler over svc
func NewEntityHandler[T, C, U any](svc EntityService[T, C, U]) *EntityHandler[T, C, U] {
	cfg := svc.Config()
	return &EntityHandler[T, C, U]{svc: svc, cfg: cfg, noun: cfg.Name}
}

// Routes implements Module
func (h *EntityHandler[T, C, U]) Routes() []Route {
	key := h.cfg.KeyPath()
	return []Route{
		{Method: http.MethodGet, Path: "", Handler: h.List, Summary: "List " + h.noun},
		{Method: http.MethodGet, Path: "/health", Handler: h.Health, Summary: "Check " + h.noun + " storage"},
		{Method: http.MethodGet, Path: key, Handler: h.Get, Summary: "Get one of " + h.noun},
		{Method: http.MethodPost, Path: "", Handler: h.Create, Summary: "Create one of " + h.noun},
		{Method: http.MethodPut, Path: key, Handler: h.Update, Summary: "Update one of " + h.noun},
		{Method: http.MethodDelete, Path: key, Handler: h.Delete, Summary: "Delete one of " + h.noun},
	}
}

// List returns one page of records
func (h *EntityHandler[T, C, U]) List(c *gin.Context) {
	filter, err := ParseFilter(c, h.cfg)
	if err != nil {
		h.HandleError(c, err, "list "+h.noun)
		return
	}
	page, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err, "list "+h.noun)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(*page))
}

// Get returns the record addressed by the key path parameters
func (h *EntityHandler[T, C, U]) Get(c *gin.Context) {
	key, ok := h.key(c, "get")
	if !ok {
		return
	}
	entity, err := h.svc.Get(c.Request.Context(), key)
	if err != nil {
		h.HandleError(c, err, "get "+h.noun)
		return
	}
	h.Success(c, entity)
}

// Create binds and inserts a record
func (h *EntityHandler[T, C, U]) Create(c *gin.Context) {
	var req C
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, middleware.BindingError(err), "create "+h.noun)
		return
	}
	entity, err := h.svc.Create(c.Request.Context(), req, middleware.GetSessionUsername(c))
	if err != nil {
		h.HandleError(c, err, "create "+h.noun)
		return
	}
	h.Created(c, entity)
}

// Update applies the bound changes to the addressed record
func (h *EntityHandler[T, C, U]) Update(c *gin.Context) {
	key, ok := h.key(c, "update")
	if !ok {
		return
	}
	var req U
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, middleware.BindingError(err), "update "+h.noun)
		return
	}
	entity, err := h.svc.Update(c.Request.Context(), key, req)
	if err != nil {
		h.HandleError(c, err, "update "+h.noun)
		return
	}
	h.Success(c, entity)
}

// Delete removes or deactivates the addressed record
func (h *EntityHandler[T, C, U]) Delete(c *gin.Context) {
	key, ok := h.key(c, "delete")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), key); err != nil {
		h.HandleError(c, err, "delete "+h.noun)
		return
	}
	h.Message(c, "Deleted successfully")
}

// Health pings the entity's table
func (h *EntityHandler[T, C, U]) Health(c *gin.Context) {
	if err := h.svc.Health(c.Request.Context()); err != nil {
		logger.GetGinLogger(c).Warn("Entity health check failed",
			zap.String("entity", h.cfg.Name),
			zap.Error(err),
		)
		h.Error(c, http.StatusServiceUnavailable, shared.ErrUnavailable.Code, h.noun+" storage is unavailable")
		return
	}
	h.Success(c, gin.H{"entity": h.cfg.Name, "table": h.cfg.Table, "status": "ok"})
}

func (h *EntityHandler[T, C, U]) key(c *gin.Context, op string) (shared.Key, bool) {
	key, err := h.cfg.ParseKey(c.Param)
	if err != nil {
		h.HandleError(c, err, op+" "+h.noun)
		return nil, false
	}
	return key, true
}
