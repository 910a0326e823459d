package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/qcms/backend/internal/domain/identity"
	"github.com/qcms/backend/internal/domain/shared"
	"github.com/qcms/backend/internal/infrastructure/auth"
	"github.com/qcms/backend/internal/infrastructure/logger"
)

type fakeAuthenticator map[string]*auth.Claims

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	switch token {
	case "":
		return nil, shared.NewDomainError(shared.ErrUnauthorized.Code, "Authentication required")
	case "broken":
		return nil, errors.New("store offline")
	}
	if claims, ok := f[token]; ok {
		return claims, nil
	}
	return nil, shared.NewDomainError(shared.ErrUnauthorized.Code, "Session expired")
}

func sessionRouter() *gin.Engine {
	authn := fakeAuthenticator{
		"admin-token":  {UserID: 1, Username: "admin", Role: identity.RoleAdmin},
		"viewer-token": {UserID: 2, Username: "eve", Role: identity.RoleViewer},
	}
	router := gin.New()
	router.Use(SessionAuth(SessionAuthConfig{
		Authenticator: authn,
		CookieName:    "qc_session",
		SkipPaths:     []string{"/api/v1/auth/login"},
	}))
	router.Use(ReadOnlyForViewers())
	who := func(c *gin.Context) {
		c.String(http.StatusOK, GetSessionUsername(c)+"|"+logger.GetUser(c.Request.Context()))
	}
	router.GET("/api/v1/defects", who)
	router.POST("/api/v1/defects", who)
	router.POST("/api/v1/auth/login", who)
	return router
}

func sessionRequest(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "qc_session", Value: token})
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSessionAuth(t *testing.T) {
	router := sessionRouter()

	t.Run("valid cookie sets the user", func(t *testing.T) {
		w := sessionRequest(router, http.MethodGet, "/api/v1/defects", "admin-token")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "admin|admin", w.Body.String())
	})

	t.Run("missing cookie", func(t *testing.T) {
		w := sessionRequest(router, http.MethodGet, "/api/v1/defects", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})

	t.Run("domain error message is passed through", func(t *testing.T) {
		w := sessionRequest(router, http.MethodGet, "/api/v1/defects", "stale")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Session expired")
	})

	t.Run("unexpected error is a generic 401", func(t *testing.T) {
		w := sessionRequest(router, http.MethodGet, "/api/v1/defects", "broken")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotContains(t, w.Body.String(), "store offline")
	})

	t.Run("skip path needs no cookie", func(t *testing.T) {
		w := sessionRequest(router, http.MethodPost, "/api/v1/auth/login", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestReadOnlyForViewers(t *testing.T) {
	router := sessionRouter()

	assert.Equal(t, http.StatusOK, sessionRequest(router, http.MethodGet, "/api/v1/defects", "viewer-token").Code)

	w := sessionRequest(router, http.MethodPost, "/api/v1/defects", "viewer-token")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "FORBIDDEN")

	assert.Equal(t, http.StatusOK, sessionRequest(router, http.MethodPost, "/api/v1/defects", "admin-token").Code)
}
