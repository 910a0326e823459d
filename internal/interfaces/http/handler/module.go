package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qcms/backend/internal/domain/shared"
)

// Route is one endpoint of an entity module, relative to its API path
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	// Summary is used by the generated API document.
	Summary string
}

// Module is a mountable set of routes for one entity
type Module interface {
	Routes() []Route
}

// RequiredMethods are the methods every entity module must expose
var RequiredMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// StubModule answers every entity route with 501 NOT_IMPLEMENTED. It is
// mounted in place of an entity whose module could not be built.
type StubModule struct {
	BaseHandler
	Entity  string
	KeyPath string
}

// Routes implements Module
func (m *StubModule) Routes() []Route {
	keyPath := m.KeyPath
	if keyPath == "" {
		keyPath = "/:key"
	}
	return []Route{
		{Method: http.MethodGet, Path: "", Handler: m.notImplemented, Summary: "Not available"},
		{Method: http.MethodGet, Path: "/health", Handler: m.notImplemented, Summary: "Not available"},
		{Method: http.MethodGet, Path: keyPath, Handler: m.notImplemented, Summary: "Not available"},
		{Method: http.MethodPost, Path: "", Handler: m.notImplemented, Summary: "Not available"},
		{Method: http.MethodPut, Path: keyPath, Handler: m.notImplemented, Summary: "Not available"},
		{Method: http.MethodDelete, Path: keyPath, Handler: m.notImplemented, Summary: "Not available"},
	}
}

func (m *StubModule) notImplemented(c *gin.Context) {
	m.Error(c, http.StatusNotImplemented, shared.ErrNotImplemented.Code, m.Entity+" is not available")
}

// Mount statuses reported by MountResult
const (
	MountStatusMounted = "mounted"
	MountStatusStub    = "stub"
)

// MountResult records how one registered entity was mounted
type MountResult struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Pattern string `json:"pattern"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}
