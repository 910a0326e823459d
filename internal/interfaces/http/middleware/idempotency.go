package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qcms/backend/internal/domain/shared"
	"github.com/qcms/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader lets clients retry a bulk write without applying it twice
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// Idempotency claims the request's Idempotency-Key before a POST handler
// runs. A key that is still held answers 409. Failed requests (status >= 400)
// release the key so the client can retry. Requests without the header and
// non-POST requests pass untouched.
//
// Store errors fail open: the request is served and the error logged.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if store == nil || raw == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(raw) > maxIdempotencyKeyLength {
			abortWithError(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}

		key := idempotencyKey(GetSessionUsername(c), c.Request.Method, c.Request.URL.Path, raw)
		ctx := c.Request.Context()

		claimed, err := store.Claim(ctx, key, ttl)
		if err != nil {
			logger.Warn("Idempotency store unavailable, serving request",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !claimed {
			abortWithError(c, http.StatusConflict, shared.ErrAlreadyExists.Code,
				"A request with this Idempotency-Key was already processed")
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(ctx, key); err != nil {
				logger.Warn("Failed to release idempotency key",
					zap.String("request_id", GetRequestID(c)),
					zap.Error(err),
				)
			}
		}
	}
}

// idempotencyKey scopes the client key to the caller and the endpoint
func idempotencyKey(user, method, path, raw string) string {
	sum := sha256.Sum256([]byte(user + "\x00" + method + "\x00" + path + "\x00" + raw))
	return hex.EncodeToString(sum[:])
}
