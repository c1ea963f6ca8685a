package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hquery/internal/infrastructure/config"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	return cfg
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.1.1.1:5555"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServerRoutes(t *testing.T) {
	f := new(mockFetcher)
	f.On("Get", mock.Anything, "https://example.com/").
		Return([]byte(`<ul><li>a</li><li>b</li></ul>`), nil)

	srv, err := NewServer(testConfig(), f)
	require.NoError(t, err)
	h := srv.Handler()

	w := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(h, http.MethodPost, "/query", `{"url":"https://example.com/","query":"tag li > text @join,\"+\""}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"kind":"texts","count":1,"results":["a+b"]}`, w.Body.String())

	w = do(h, http.MethodPost, "/query", `{"html":"<p>x</p>","query":"tag p >"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `hquery_queries_total{status="ok"} 1`)
	assert.Contains(t, body, `hquery_queries_total{status="parse_error"} 1`)
	assert.Contains(t, body, `hquery_http_requests_total{method="POST",path="/query",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")

	f.AssertExpectations(t)
}

func TestServerRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1, Enabled: true}

	srv, err := NewServer(cfg, new(mockFetcher))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, do(srv.Handler(), http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(srv.Handler(), http.MethodGet, "/health", "").Code)
}

func TestServerSanitize(t *testing.T) {
	cfg := testConfig()
	cfg.Query.Sanitize = true

	srv, err := NewServer(cfg, nil)
	require.NoError(t, err)

	w := do(srv.Handler(), http.MethodPost, "/query", `{"html":"<p>a</p><script>x()</script>","query":"tag script"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestNewServerInvalidLogLevel(t *testing.T) {
	cfg := testConfig()
	cfg.Logging.Level = "chatty"

	_, err := NewServer(cfg, nil)
	assert.Error(t, err)
}

func TestRunAndShutdown(t *testing.T) {
	srv, err := NewServer(testConfig(), nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	// Give ListenAndServe a moment to bind
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
