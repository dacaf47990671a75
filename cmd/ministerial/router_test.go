package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sistema-ministerial-api/internal/handler"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	"github.com/noah-isme/sistema-ministerial-api/internal/service"
	"github.com/noah-isme/sistema-ministerial-api/pkg/config"
)

const testSecret = "router-test-secret"

func testRouter() http.Handler {
	return newRouter(routeDeps{
		cfg:         &config.Config{Env: "test", APIPrefix: "/api/v1"},
		logger:      zap.NewNop(),
		metrics:     service.NewMetricsService(),
		auth:        service.NewAuthService(service.AuthConfig{Secret: testSecret}),
		students:    handler.NewStudentHandler(nil),
		families:    handler.NewFamilyHandler(nil),
		programs:    handler.NewProgramHandler(nil),
		assignments: handler.NewAssignmentHandler(nil),
		exports:     handler.NewExportHandler(nil),
	})
}

func bearer(t *testing.T, role models.UserRole) string {
	t.Helper()
	auth := service.NewAuthService(service.AuthConfig{Secret: testSecret})
	token, err := auth.IssueToken(models.JWTClaims{
		UserID:         "user-1",
		Role:           role,
		CongregationID: "cong-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouterRequiresToken(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/students", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterViewerCannotMutate(t *testing.T) {
	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/students"},
		{http.MethodPost, "/api/v1/generate-assignments"},
		{http.MethodPost, "/api/v1/weeks/2024-03-04/program/publish"},
		{http.MethodPost, "/api/v1/assignments/a-1/confirm"},
		{http.MethodPost, "/api/v1/weeks/2024-03-04/exports"},
	}
	router := testRouter()
	for _, route := range routes {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(route.method, route.path, nil)
		req.Header.Set("Authorization", bearer(t, models.RoleViewer))
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, route.path)
	}
}

func TestRouterViewerReadsCatalog(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/parts", nil)
	req.Header.Set("Authorization", bearer(t, models.RoleViewer))
	testRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "processing_time_ms")
}

func TestRouterDownloadSkipsJWT(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/exports/download", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouterOps(t *testing.T) {
	router := testRouter()
	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
