package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsPrivateRegistries(t *testing.T) {
	// Two collectors on separate registries must not collide
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}

func TestRecordQuery(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordQuery(StatusOK, "texts", 2*time.Millisecond, 3)
	m.RecordQuery(StatusOK, "nodes", 4*time.Millisecond, 0)
	m.RecordQuery(StatusParse, "", time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(StatusParse)))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.FailedQueries)
	assert.InDelta(t, 7.0/3.0, snap.AvgQueryMs, 0.01)
	assert.Greater(t, snap.UptimeSeconds, 0.0)
}

func TestRecordDocument(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordDocument("url", 2048)
	m.RecordDocument("url", 10)
	m.RecordDocument("file", 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsLoaded.WithLabelValues("url")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DocumentBytes))
}

func TestTimer(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	d := NewTimer(m).Stop()
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))

	assert.NotPanics(t, func() { NewTimer(nil).Stop() })
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	tests := []struct {
		path   string
		status int
	}{
		{"/items/1", http.StatusOK},
		{"/items/2", http.StatusOK},
		{"/missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		require.Equal(t, tt.status, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}
