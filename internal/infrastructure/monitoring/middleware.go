package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Query status labels
const (
	StatusOK    = "ok"
	StatusLex   = "lex_error"
	StatusParse = "parse_error"
	StatusEval  = "eval_error"
	StatusLoad  = "load_error"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		reqSize := c.Request.ContentLength
		if reqSize < 0 {
			reqSize = 0
		}

		c.Next()

		// Route template keeps label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		respSize := int64(max(c.Writer.Size(), 0))

		metrics.RecordHTTPRequest(method, path, status, time.Since(start), reqSize, respSize)
	}
}

// Timer measures a document download
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer starts a timer. A nil metrics only measures.
func NewTimer(metrics *Metrics) *Timer {
	return &Timer{start: time.Now(), metrics: metrics}
}

// Stop records the elapsed time as a fetch
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	if t.metrics != nil {
		t.metrics.RecordFetch(d)
	}
	return d
}
