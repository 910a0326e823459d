package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appquality "github.com/qcms/backend/internal/application/quality"
	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
	"github.com/qcms/backend/internal/interfaces/http/dto"
	"github.com/qcms/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type mockCustomerService struct {
	mock.Mock
	cfg shared.EntityConfig
}

func (m *mockCustomerService) Config() shared.EntityConfig { return m.cfg }

func (m *mockCustomerService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[quality.Customer], error) {
	args := m.Called(ctx, filter)
	if p := args.Get(0); p != nil {
		return p.(*shared.Paginated[quality.Customer]), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCustomerService) Get(ctx context.Context, key shared.Key) (*quality.Customer, error) {
	args := m.Called(ctx, key)
	if c := args.Get(0); c != nil {
		return c.(*quality.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCustomerService) Create(ctx context.Context, req appquality.CreateCustomerRequest, actor string) (*quality.Customer, error) {
	args := m.Called(ctx, req, actor)
	if c := args.Get(0); c != nil {
		return c.(*quality.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCustomerService) Update(ctx context.Context, key shared.Key, req appquality.UpdateCustomerRequest) (*quality.Customer, error) {
	args := m.Called(ctx, key, req)
	if c := args.Get(0); c != nil {
		return c.(*quality.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCustomerService) Delete(ctx context.Context, key shared.Key) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockCustomerService) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newCustomerRouter(svc *mockCustomerService) *gin.Engine {
	h := NewEntityHandler[quality.Customer, appquality.CreateCustomerRequest, appquality.UpdateCustomerRequest](svc)
	router := gin.New()
	router.Use(middleware.RequestID())
	group := router.Group("/api/v1/customers")
	for _, r := range h.Routes() {
		group.Handle(r.Method, r.Path, r.Handler)
	}
	return router
}

func doJSON(router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func customerKey(code string) shared.Key {
	return shared.Key{{Column: "customer_code", Value: code}}
}

func TestEntityHandler_List(t *testing.T) {
	svc := &mockCustomerService{cfg: quality.Catalog()[quality.EntityCustomers]}
	page := shared.NewPaginated([]quality.Customer{{CustomerCode: "ACME"}}, 41, 2, 20)
	svc.On("List", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 2 && f.Limit == 20 && f.Search == "ac" && f.Equals["is_active"] == "true" && f.SortOrder == "desc"
	})).Return(&page, nil)

	w, resp := doJSON(newCustomerRouter(svc), http.MethodGet,
		"/api/v1/customers?page=2&limit=20&search=ac&is_active=true&sort_order=desc&unknown=x", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	svc.AssertExpectations(t)
}

func TestEntityHandler_List_BadQuery(t *testing.T) {
	svc := &mockCustomerService{cfg: quality.Catalog()[quality.EntityCustomers]}

	w, resp := doJSON(newCustomerRouter(svc), http.MethodGet, "/api/v1/customers?page=two&start_date=yesterday", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Len(t, resp.Errors, 2)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestEntityHandler_Get(t *testing.T) {
	svc := &mockCustomerService{cfg: quality.Catalog()[quality.EntityCustomers]}
	svc.On("Get", mock.Anything, customerKey("ACME")).Return(&quality.Customer{CustomerCode: "ACME"}, nil)
	svc.On("Get", mock.Anything, customerKey("NOPE")).Return(nil, shared.ErrNotFound)

	w, resp := doJSON(newCustomerRouter(svc), http.MethodGet, "/api/v1/customers/ACME", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	w, resp = doJSON(newCustomerRouter(svc), http.MethodGet, "/api/v1/customers/NOPE", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestEntityHandler_Create(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		svc := &mockCustomerService{cfg: quality.Catalog()[quality.EntityCustomers]}
		svc.On("Create", mock.Anything, mock.MatchedBy(func(r appquality.CreateCustomerRequest) bool {
			return r.CustomerCode == "ACME"
		}), "").Return(&quality.Customer{CustomerCode: "ACME", CustomerName: "Acme"}, nil)

		w, resp := doJSON(newCustomerRouter(svc), http.MethodPost, "/api/v1/customers",
			`{"customer_code":"ACME","customer_name":"Acme"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "ACME", data["customer_code"])
	})

	t.Run("missing required fields", func(t *testing.T) {
		svc := &mockCustomerService{cfg: quality.Catalog()[quality.EntityCustomers]}

		w, resp := doJSON(newCustomerRouter(svc), http.MethodPost, "/api/v1/customers", `{"email":"bad"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", resp.Code)
		fields := make([]string, len(resp.Errors))
		for i, f := range resp.Errors {
			fields[i] = f.Field
		}
		assert.ElementsMatch(t, []string{"customer_code", "customer_name", "email"}, fields)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("duplicate", func(t *testing.T) {
		svc := &mockCustomerService{cfg: quality.Catalog()[quality.EntityCustomers]}
		svc.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError("ALREADY_EXISTS", "customer already exists"))

		w, resp := doJSON(newCustomerRouter(svc), http.MethodPost, "/api/v1/customers",
			`{"customer_code":"ACME","customer_name":"Acme"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "customer already exists", resp.Message)
	})

	t.Run("database failure is not leaked", func(t *testing.T) {
		svc := &mockCustomerService{cfg: quality.Catalog()[quality.EntityCustomers]}
		svc.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New(`pq: relation "customers" does not exist`))

		w, resp := doJSON(newCustomerRouter(svc), http.MethodPost, "/api/v1/customers",
			`{"customer_code":"ACME","customer_name":"Acme"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to create customers", resp.Message)
		assert.NotContains(t, w.Body.String(), "relation")
		assert.NotEmpty(t, resp.RequestID)
	})
}

func TestEntityHandler_Update(t *testing.T) {
	svc := &mockCustomerService{cfg: quality.Catalog()[quality.EntityCustomers]}
	svc.On("Update", mock.Anything, customerKey("ACME"), mock.MatchedBy(func(r appquality.UpdateCustomerRequest) bool {
		return r.CustomerName != nil && *r.CustomerName == "Acme Corp"
	})).Return(&quality.Customer{CustomerCode: "ACME", CustomerName: "Acme Corp"}, nil)

	w, resp := doJSON(newCustomerRouter(svc), http.MethodPut, "/api/v1/customers/ACME", `{"customer_name":"Acme Corp"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	svc.AssertExpectations(t)
}

func TestEntityHandler_Delete(t *testing.T) {
	svc := &mockCustomerService{cfg: quality.Catalog()[quality.EntityCustomers]}
	svc.On("Delete", mock.Anything, customerKey("ACME")).Return(nil)
	svc.On("Delete", mock.Anything, customerKey("GONE")).Return(shared.ErrNotFound)

	w, resp := doJSON(newCustomerRouter(svc), http.MethodDelete, "/api/v1/customers/ACME", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Deleted successfully", resp.Message)

	w, resp = doJSON(newCustomerRouter(svc), http.MethodDelete, "/api/v1/customers/GONE", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
}

func TestEntityHandler_Health(t *testing.T) {
	svc := &mockCustomerService{cfg: quality.Catalog()[quality.EntityCustomers]}
	svc.On("Health", mock.Anything).Return(nil).Once()
	svc.On("Health", mock.Anything).Return(errors.New("connection refused")).Once()

	router := newCustomerRouter(svc)

	w, resp := doJSON(router, http.MethodGet, "/api/v1/customers/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "customers", data["table"])
	assert.Equal(t, "ok", data["status"])

	w, resp = doJSON(router, http.MethodGet, "/api/v1/customers/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Code)
}

func TestEntityHandler_SerialKey(t *testing.T) {
	cfg := quality.Catalog()[quality.EntityDefects]
	svc := appquality.NewCrudService[quality.Defect, appquality.CreateDefectRequest, appquality.UpdateDefectRequest](nil, cfg)
	h := NewEntityHandler[quality.Defect, appquality.CreateDefectRequest, appquality.UpdateDefectRequest](svc)

	router := gin.New()
	group := router.Group("/api/v1/defects")
	for _, r := range h.Routes() {
		group.Handle(r.Method, r.Path, r.Handler)
	}

	for _, path := range []string{"/api/v1/defects/abc", "/api/v1/defects/0", "/api/v1/defects/-4"} {
		w, resp := doJSON(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Contains(t, resp.Message, "positive integer", path)
	}
}
