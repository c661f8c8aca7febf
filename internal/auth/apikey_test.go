package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perform(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPIKeyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(key string) *gin.Engine {
		r := gin.New()
		r.Use(APIKeyMiddleware(key))
		r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	t.Run("disabled when no key configured", func(t *testing.T) {
		w := perform(newRouter(""), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing key", func(t *testing.T) {
		w := perform(newRouter("secret"), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		w := perform(newRouter("secret"), map[string]string{"X-API-Key": "wrong"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("valid key", func(t *testing.T) {
		w := perform(newRouter("secret"), map[string]string{"X-API-Key": "secret"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var captured uuid.UUID
	r := gin.New()
	r.Use(RequireUser())
	r.GET("/ping", func(c *gin.Context) {
		captured = UserID(c)
		c.Status(http.StatusOK)
	})

	t.Run("missing header", func(t *testing.T) {
		w := perform(r, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := perform(r, map[string]string{"X-User-ID": "not-a-uuid"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid id lands in context", func(t *testing.T) {
		id := uuid.New()
		w := perform(r, map[string]string{"X-User-ID": id.String()})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, id, captured)
	})
}
