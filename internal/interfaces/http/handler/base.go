package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qcms/backend/internal/domain/shared"
	"github.com/qcms/backend/internal/infrastructure/logger"
	"github.com/qcms/backend/internal/interfaces/http/dto"
	"github.com/qcms/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Message sends a success response carrying only a message
func (h *BaseHandler) Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.NewMessageResponse(message))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, shared.ErrUnauthorized.Code, message)
}

// HandleError converts err into a response. Domain errors keep their code
// and message. Anything else is logged with full detail and answered with a
// generic "Failed to <op>" so driver text never reaches the client.
func (h *BaseHandler) HandleError(c *gin.Context, err error, op string) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := dto.GetHTTPStatus(domainErr.Code)
		if status == http.StatusInternalServerError {
			h.internal(c, err, op)
			return
		}
		resp := dto.NewErrorResponse(domainErr.Code, domainErr.Message, requestID)
		resp.Errors = domainErr.Fields
		c.JSON(status, resp)
		return
	}
	h.internal(c, err, op)
}

func (h *BaseHandler) internal(c *gin.Context, err error, op string) {
	logger.GetGinLogger(c).Error("Request failed",
		zap.String("operation", op),
		zap.String("route", c.FullPath()),
		zap.Error(err),
	)
	h.Error(c, http.StatusInternalServerError, shared.ErrInternal.Code, "Failed to "+op)
}
