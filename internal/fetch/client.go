// Package fetch downloads HTML documents over HTTP with retries, a size
// cap and a client-side rate limit.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/hquery/internal/infrastructure/resilience"
)

var (
	// ErrTooLarge is returned when a body exceeds Config.MaxSize
	ErrTooLarge = errors.New("response body exceeds maximum size")
	// ErrScheme is returned for URLs that are not http or https
	ErrScheme = errors.New("unsupported url scheme")
)

// StatusError reports a non-2xx response
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// Config controls a Client
type Config struct {
	Timeout           time.Duration
	Retries           int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RequestsPerSecond float64 // <= 0 disables limiting
	UserAgent         string
	MaxSize           int64
	// Breaker trips per host after repeated failures
	Breaker resilience.Settings
}

// DefaultConfig returns the settings used by the CLI and server
func DefaultConfig() Config {
	return Config{
		Timeout:           30 * time.Second,
		Retries:           3,
		RetryWaitMin:      500 * time.Millisecond,
		RetryWaitMax:      10 * time.Second,
		RequestsPerSecond: 5,
		UserAgent:         "hquery/1.0",
		MaxSize:           10 * 1024 * 1024,
		Breaker:           resilience.DefaultSettings(),
	}
}

// Client is a rate-limited, retrying HTTP GET client
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breakers *resilience.Set
	maxSize  int64
	log      *zap.Logger
}

// New creates a client. Retries happen in the transport: connection
// errors, 429 and 5xx responses are retried with exponential backoff.
func New(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = leveledLogger{log.Sugar()}
	// Hand back the last response once retries run out so callers see
	// its status instead of a generic error
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, int(cfg.RequestsPerSecond)))
	}

	return &Client{
		resty:    restyClient,
		limiter:  limiter,
		breakers: resilience.NewSet(cfg.Breaker),
		maxSize:  cfg.MaxSize,
		log:      log,
	}
}

// Get downloads rawURL and returns the body
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrScheme, u.Scheme)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	breaker := c.breakers.Get(u.Host)
	if err := breaker.Allow(); err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}

	start := time.Now()
	resp, err := c.resty.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(u.String())
	if err != nil {
		if ctx.Err() != nil {
			// A cancelled caller says nothing about the host
			breaker.Release()
		} else {
			breaker.Record(false)
		}
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}
	body := resp.RawBody()
	defer body.Close()

	breaker.Record(resp.StatusCode() < 500)
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &StatusError{URL: u.String(), Code: resp.StatusCode()}
	}

	data, err := readLimited(body, c.maxSize)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}

	c.log.Debug("fetched document",
		zap.String("url", u.String()),
		zap.Int("status", resp.StatusCode()),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

// leveledLogger adapts zap to retryablehttp's logger interface
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
