package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	"github.com/noah-isme/sistema-ministerial-api/internal/service"
	"github.com/noah-isme/sistema-ministerial-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func issue(t *testing.T, auth *service.AuthService, role models.UserRole, congregation string) string {
	t.Helper()
	token, err := auth.IssueToken(models.JWTClaims{
		UserID:         "user-1",
		Role:           role,
		CongregationID: congregation,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)
	return token
}

func protectedRouter(auth *service.AuthService, roles ...models.UserRole) *gin.Engine {
	r := gin.New()
	r.GET("/p", JWT(auth), RequireRoles(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(logger.CongregationKey))
	})
	return r
}

func TestJWTAndRBAC(t *testing.T) {
	auth := service.NewAuthService(service.AuthConfig{Secret: "s"})
	r := protectedRouter(auth, models.RoleAdmin, models.RoleInstructor)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"viewer forbidden", "Bearer " + issue(t, auth, models.RoleViewer, "cong-1"), http.StatusForbidden},
		{"no congregation", "Bearer " + issue(t, auth, models.RoleAdmin, ""), http.StatusForbidden},
		{"instructor allowed", "Bearer " + issue(t, auth, models.RoleInstructor, "cong-1"), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "cong-1", w.Body.String())
			}
		})
	}
}

func TestMetricsMiddlewareRecordsRoute(t *testing.T) {
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/students/abc", nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Contains(t, w.Body.String(), `path="/students/:id"`)
}

func TestMetricsMiddlewareLabelsWeekRoutesAndLocks(t *testing.T) {
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"))
	r.POST("/weeks/:week/program/publish", func(c *gin.Context) { c.Status(http.StatusLocked) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/weeks/2026-10-12/program/publish", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/weeks/2026-10-12/nothing", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()
	assert.Contains(t, body, `path="/weeks/:week/program/publish"`)
	assert.Contains(t, body, `week_lock_conflicts_total{method="POST",path="/weeks/:week/program/publish"} 1`)
	assert.Contains(t, body, `path="unmatched"`)
	assert.NotContains(t, body, "2026-10-12")
	assert.NotContains(t, body, `path="/metrics"`)
}

func TestResponseMeta(t *testing.T) {
	r := gin.New()
	r.Use(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/m", func(c *gin.Context) {
		SetMeta(c, "written", 3)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/m", nil))

	require.NotNil(t, meta)
	assert.Equal(t, 3, meta["written"])
	assert.Contains(t, meta, "processing_time_ms")
}
