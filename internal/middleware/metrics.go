package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sistema-ministerial-api/internal/service"
)

// unmatchedRoute labels requests that hit no route, so raw week or id paths never
// become label values.
const unmatchedRoute = "unmatched"

// Metrics records request metrics labelled by route template, e.g.
// /api/v1/weeks/:week/assignments. Paths in skip (the scrape and probe endpoints)
// are not recorded. LOCKED responses are also counted per route.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := c.Writer.Status()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, status, time.Since(start))
		if status == http.StatusLocked {
			metricsSvc.ObserveWeekLockConflict(c.Request.Method, route)
		}
	}
}
