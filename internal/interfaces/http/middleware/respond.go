package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/qcms/backend/internal/interfaces/http/dto"
)

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(code, message, GetRequestID(c)))
}
