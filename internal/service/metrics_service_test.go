package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceRecordsGeneration(t *testing.T) {
	m := NewMetricsService()

	m.ObserveGeneration("ok", 20*time.Millisecond, 6, 1, 2)
	m.ObserveGeneration("locked", time.Millisecond, 0, 0, 0)
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveExport("pdf", "FINISHED")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `assignment_generation_runs_total{outcome="ok"} 1`)
	assert.Contains(t, body, `assignment_generation_runs_total{outcome="locked"} 1`)
	assert.Contains(t, body, `assignment_parts_total{result="filled"} 6`)
	assert.Contains(t, body, `cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, body, `designation_exports_total{format="pdf",status="FINISHED"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveGeneration("ok", time.Second, 1, 1, 1)
	m.ObserveHTTPRequest("GET", "/", 200, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
