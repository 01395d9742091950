package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTenantTestRouter(cfg TenantMiddlewareConfig) (*gin.Engine, *uuid.UUID) {
	gin.SetMode(gin.TestMode)

	var seen uuid.UUID
	router := gin.New()
	router.Use(TenantMiddlewareWithConfig(cfg))
	router.GET("/connectors", func(c *gin.Context) {
		if tid, ok := GetTenantID(c); ok {
			seen = tid
		}
		c.Status(http.StatusOK)
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router, &seen
}

func TestTenantMiddleware_ValidHeader(t *testing.T) {
	router, seen := newTenantTestRouter(DefaultTenantConfig())
	tenantID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/connectors", nil)
	req.Header.Set(TenantHeaderKey, tenantID.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenantID, *seen)
}

func TestTenantMiddleware_MissingHeaderRejected(t *testing.T) {
	router, _ := newTenantTestRouter(DefaultTenantConfig())

	req := httptest.NewRequest(http.MethodGet, "/connectors", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Tenant identification required")
}

func TestTenantMiddleware_MalformedHeaderRejected(t *testing.T) {
	router, _ := newTenantTestRouter(DefaultTenantConfig())

	req := httptest.NewRequest(http.MethodGet, "/connectors", nil)
	req.Header.Set(TenantHeaderKey, "not-a-uuid")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid tenant ID format")
}

func TestTenantMiddleware_SkipPath(t *testing.T) {
	router, _ := newTenantTestRouter(DefaultTenantConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTenantMiddleware_OptionalTenant(t *testing.T) {
	cfg := DefaultTenantConfig()
	cfg.Required = false
	router, _ := newTenantTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/connectors", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
