package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hquery"
	"github.com/GriffinCanCode/hquery/internal/api/middleware"
	"github.com/GriffinCanCode/hquery/internal/batch"
	"github.com/GriffinCanCode/hquery/internal/fetch"
	"github.com/GriffinCanCode/hquery/internal/infrastructure/monitoring"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

// Fetcher downloads documents for requests that name a URL
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	fetcher Fetcher
	metrics *monitoring.Metrics
	log     *zap.Logger
	opts    []hquery.Option
}

// NewHandlers creates a new handler set. metrics may be nil; opts are
// applied to every document the API loads.
func NewHandlers(fetcher Fetcher, metrics *monitoring.Metrics, log *zap.Logger, opts ...hquery.Option) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics != nil {
		opts = append(opts, hquery.WithRecorder(metrics))
	}
	return &Handlers{fetcher: fetcher, metrics: metrics, log: log, opts: opts}
}

// Root describes the service
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "hquery",
		"version": Version,
	})
}

// Health reports liveness
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{"status": "healthy"}
	if h.metrics != nil {
		resp["uptime_seconds"] = h.metrics.Snapshot().UptimeSeconds
	}
	c.JSON(http.StatusOK, resp)
}

// Stats returns running request and query totals
func (h *Handlers) Stats(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "metrics disabled", Kind: "not_found"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// Query evaluates one query, or a named set of queries, against a
// document given inline or by URL
func (h *Handlers) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}

	q, status, errResp := h.load(c.Request.Context(), &req)
	if errResp != nil {
		c.JSON(status, errResp)
		return
	}

	if req.Query != "" {
		res, err := q.Query(req.Query)
		if err != nil {
			h.log.Debug("query rejected",
				zap.String("request_id", middleware.GetRequestID(c)),
				zap.String("query", req.Query),
				zap.Error(err),
			)
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: hquery.Status(err)})
			return
		}
		c.JSON(http.StatusOK, newQueryResponse(res))
		return
	}

	out := make(map[string]NamedResult, len(req.Queries))
	for _, nq := range batch.FromMap(req.Queries) {
		res, err := q.Query(nq.Text)
		if err != nil {
			out[nq.Name] = NamedResult{Error: &ErrorResponse{Error: err.Error(), Kind: hquery.Status(err)}}
			continue
		}
		qr := newQueryResponse(res)
		out[nq.Name] = NamedResult{QueryResponse: &qr}
	}
	c.JSON(http.StatusOK, MultiQueryResponse{Queries: out})
}

// load builds the document named by req, returning an HTTP status and
// body when it cannot
func (h *Handlers) load(ctx context.Context, req *QueryRequest) (*hquery.Query, int, *ErrorResponse) {
	if req.URL == "" {
		q, err := hquery.New(req.HTML, h.opts...)
		if err != nil {
			return nil, http.StatusUnprocessableEntity, &ErrorResponse{Error: err.Error(), Kind: "load_error"}
		}
		return q, 0, nil
	}

	if h.fetcher == nil {
		return nil, http.StatusBadRequest, &ErrorResponse{Error: "url fetching is disabled", Kind: "bad_request"}
	}

	timer := monitoring.NewTimer(h.metrics)
	body, err := h.fetcher.Get(ctx, req.URL)
	timer.Stop()
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, fetch.ErrScheme) {
			status = http.StatusBadRequest
		}
		return nil, status, &ErrorResponse{Error: err.Error(), Kind: "fetch_error"}
	}

	q, err := hquery.NewFromReader(bytes.NewReader(body), h.opts...)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, &ErrorResponse{Error: err.Error(), Kind: "load_error"}
	}
	return q, 0, nil
}
