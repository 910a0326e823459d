package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qcms/backend/internal/domain/identity"
	"github.com/qcms/backend/internal/domain/shared"
	"github.com/qcms/backend/internal/infrastructure/auth"
	"github.com/qcms/backend/internal/infrastructure/logger"
	"github.com/qcms/backend/internal/interfaces/http/dto"
)

// Session context keys
const (
	SessionClaimsKey   = "session_claims"
	SessionUsernameKey = "session_username"
	SessionRoleKey     = "session_role"
)

// SessionAuthenticator verifies a session token
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// SessionAuthConfig configures SessionAuth
type SessionAuthConfig struct {
	Authenticator SessionAuthenticator
	CookieName    string
	// SkipPaths are full request paths served without a session.
	SkipPaths []string
	Logger    *zap.Logger
}

// SessionAuth requires a valid session cookie and stores its claims on the
// gin context
func SessionAuth(cfg SessionAuthConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		token, _ := c.Cookie(cfg.CookieName)
		claims, err := cfg.Authenticator.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			status, code, message := http.StatusUnauthorized, shared.ErrUnauthorized.Code, "Authentication required"
			var de *shared.DomainError
			if errors.As(err, &de) {
				code, message = de.Code, de.Message
				status = dto.GetHTTPStatus(de.Code)
			}
			cfg.Logger.Debug("Session rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			abortWithError(c, status, code, message)
			return
		}

		c.Set(SessionClaimsKey, claims)
		c.Set(SessionUsernameKey, claims.Username)
		c.Set(SessionRoleKey, claims.Role)
		c.Request = c.Request.WithContext(logger.WithUser(c.Request.Context(), claims.Username))
		c.Next()
	}
}

// ReadOnlyForViewers rejects write requests from the viewer role. Requests
// without a session (auth disabled) pass.
func ReadOnlyForViewers() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if GetSessionRole(c) == identity.RoleViewer {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Viewers cannot modify records")
			return
		}
		c.Next()
	}
}

// GetSessionClaims returns the claims of the current session, or nil
func GetSessionClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(SessionClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetSessionUsername returns the signed-in username, or ""
func GetSessionUsername(c *gin.Context) string {
	return c.GetString(SessionUsernameKey)
}

// GetSessionRole returns the signed-in role, or ""
func GetSessionRole(c *gin.Context) string {
	return c.GetString(SessionRoleKey)
}
