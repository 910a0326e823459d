package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdempotencyStore struct {
	mu       sync.Mutex
	held     map[string]bool
	claimErr error
	released int
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{held: map[string]bool{}}
}

func (s *fakeIdempotencyStore) Claim(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return false, s.claimErr
	}
	if s.held[key] {
		return false, nil
	}
	s.held[key] = true
	return true, nil
}

func (s *fakeIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.held, key)
	s.released++
	return nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }

func idempotencyRouter(store *fakeIdempotencyStore, status *int, calls *int) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if user := c.GetHeader("X-Test-User"); user != "" {
			c.Set(SessionUsernameKey, user)
		}
		c.Next()
	})
	router.Use(Idempotency(store, time.Hour, nil))
	handler := func(c *gin.Context) {
		*calls++
		c.Status(*status)
	}
	router.POST("/api/v1/iqa-data/bulk", handler)
	router.PUT("/api/v1/iqa-data/:id", handler)
	return router
}

func sendWithKey(router *gin.Engine, method, path, key, user string) int {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestIdempotency(t *testing.T) {
	const path = "/api/v1/iqa-data/bulk"

	t.Run("repeat key is rejected", func(t *testing.T) {
		store := newFakeIdempotencyStore()
		status, calls := http.StatusCreated, 0
		router := idempotencyRouter(store, &status, &calls)

		assert.Equal(t, http.StatusCreated, sendWithKey(router, http.MethodPost, path, "k1", "alice"))
		assert.Equal(t, http.StatusConflict, sendWithKey(router, http.MethodPost, path, "k1", "alice"))
		assert.Equal(t, 1, calls)
	})

	t.Run("key is scoped per user", func(t *testing.T) {
		store := newFakeIdempotencyStore()
		status, calls := http.StatusCreated, 0
		router := idempotencyRouter(store, &status, &calls)

		assert.Equal(t, http.StatusCreated, sendWithKey(router, http.MethodPost, path, "k1", "alice"))
		assert.Equal(t, http.StatusCreated, sendWithKey(router, http.MethodPost, path, "k1", "bob"))
		assert.Equal(t, 2, calls)
	})

	t.Run("failed request releases the key", func(t *testing.T) {
		store := newFakeIdempotencyStore()
		status, calls := http.StatusBadRequest, 0
		router := idempotencyRouter(store, &status, &calls)

		assert.Equal(t, http.StatusBadRequest, sendWithKey(router, http.MethodPost, path, "k1", "alice"))
		status = http.StatusCreated
		assert.Equal(t, http.StatusCreated, sendWithKey(router, http.MethodPost, path, "k1", "alice"))
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, store.released)
	})

	t.Run("no header and non-post pass", func(t *testing.T) {
		store := newFakeIdempotencyStore()
		status, calls := http.StatusOK, 0
		router := idempotencyRouter(store, &status, &calls)

		sendWithKey(router, http.MethodPost, path, "", "alice")
		sendWithKey(router, http.MethodPost, path, "", "alice")
		sendWithKey(router, http.MethodPut, "/api/v1/iqa-data/1", "k1", "alice")
		sendWithKey(router, http.MethodPut, "/api/v1/iqa-data/1", "k1", "alice")
		assert.Equal(t, 4, calls)
		assert.Empty(t, store.held)
	})

	t.Run("store error fails open", func(t *testing.T) {
		store := newFakeIdempotencyStore()
		store.claimErr = errors.New("redis down")
		status, calls := http.StatusCreated, 0
		router := idempotencyRouter(store, &status, &calls)

		assert.Equal(t, http.StatusCreated, sendWithKey(router, http.MethodPost, path, "k1", "alice"))
		assert.Equal(t, 1, calls)
	})

	t.Run("oversized key", func(t *testing.T) {
		store := newFakeIdempotencyStore()
		status, calls := http.StatusCreated, 0
		router := idempotencyRouter(store, &status, &calls)

		long := make([]byte, maxIdempotencyKeyLength+1)
		for i := range long {
			long[i] = 'k'
		}
		assert.Equal(t, http.StatusBadRequest, sendWithKey(router, http.MethodPost, path, string(long), "alice"))
		require.Zero(t, calls)
	})
}

func TestIdempotencyKey_DiffersByPath(t *testing.T) {
	a := idempotencyKey("alice", http.MethodPost, "/api/v1/defects/bulk", "k")
	b := idempotencyKey("alice", http.MethodPost, "/api/v1/iqa-data/bulk", "k")
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}
