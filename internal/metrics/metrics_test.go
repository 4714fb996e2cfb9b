package metrics

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStoreCountsByResult(t *testing.T) {
	r := New()
	r.ObserveStore("put", nil)
	r.ObserveStore("put", nil)
	r.ObserveStore("put", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.StoreOps.WithLabelValues("put", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.StoreOps.WithLabelValues("put", "error")))
}

func TestResetStartsFromZero(t *testing.T) {
	first := Reset()
	first.ObserveError("conflict")
	require.Equal(t, 1.0, testutil.ToFloat64(first.Errors.WithLabelValues("conflict")))

	second := Reset()
	assert.NotSame(t, first, second)
	assert.Same(t, second, Default)
	assert.Equal(t, 0.0, testutil.ToFloat64(second.Errors.WithLabelValues("conflict")))
}

func TestNilRegistryIsSafe(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveStore("get", nil)
		r.ObserveError("dependency")
		r.ObserveCleanup("failed")
		r.TrackDB("x", nil)
	})
}

func TestHandlerExposesTextFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := New()
	r.TrackDB("sql", func() sql.DBStats { return sql.DBStats{OpenConnections: 3} })

	engine := gin.New()
	engine.Use(r.Middleware())
	engine.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	engine.GET("/metrics", gin.WrapH(r.Handler()))

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/42", nil))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `http_requests_total{method="GET",route="/users/:id",status="204"} 1`)
	assert.Contains(t, text, "database_connections_active 3")
	assert.Contains(t, text, "uptime_seconds")
	assert.Contains(t, text, "go_goroutines")
}
