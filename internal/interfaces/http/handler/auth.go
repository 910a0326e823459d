package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qcms/backend/internal/application/identity"
	"github.com/qcms/backend/internal/infrastructure/config"
	"github.com/qcms/backend/internal/interfaces/http/middleware"
)

// SessionService is the part of identity.AuthService used by AuthHandler
type SessionService interface {
	Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService SessionService
	cookie      config.SessionConfig
	now         func() time.Time
}

// NewAuthHandler creates a new auth handler. cookie supplies the session
// cookie attributes.
func NewAuthHandler(authService SessionService, cookie config.SessionConfig) *AuthHandler {
	if cookie.CookieName == "" {
		cookie.CookieName = "qc_session"
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &AuthHandler{authService: authService, cookie: cookie, now: time.Now}
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	User      identity.UserInfo `json:"user"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// MeResponse describes the signed-in user
type MeResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login checks the credentials and sets the session cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req identity.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, middleware.BindingError(err), "log in")
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err, "log in")
		return
	}

	maxAge := int(result.Session.ExpiresAt.Sub(h.now()).Seconds())
	h.setCookie(c, result.Session.Token, maxAge)
	h.Success(c, LoginResponse{User: result.User, ExpiresAt: result.Session.ExpiresAt})
}

// Logout revokes the current session and clears the cookie. It succeeds
// even without a valid session.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.cookie.CookieName)
	if token != "" {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			h.HandleError(c, err, "log out")
			return
		}
	}
	h.setCookie(c, "", -1)
	h.Message(c, "Logged out successfully")
}

// Me returns the signed-in user
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetSessionClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	h.Success(c, MeResponse{ID: claims.UserID, Username: claims.Username, Role: claims.Role})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(sameSite(h.cookie.SameSite))
	c.SetCookie(h.cookie.CookieName, value, maxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func sameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
