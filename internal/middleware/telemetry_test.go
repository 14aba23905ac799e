package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type apiRequest struct {
	method    string
	path      string
	status    int
	requestID string
}

type fakeRequestLogger struct {
	mu       sync.Mutex
	requests []apiRequest
}

func (f *fakeRequestLogger) LogAPIRequest(method string, path string, statusCode int, _ int64, requestID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, apiRequest{method, path, statusCode, requestID})
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generates an ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.NotEmpty(t, id)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("propagates incoming ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "req-123", w.Body.String())
	})
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := &fakeRequestLogger{}

	router := gin.New()
	router.Use(RequestID(), RequestLogger(logger))
	router.GET("/api/v1/routes/:from/:to", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/routes/FLN/LIM", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	router.ServeHTTP(httptest.NewRecorder(), req)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Len(t, logger.requests, 1)
	got := logger.requests[0]
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/api/v1/routes/:from/:to", got.path)
	assert.Equal(t, http.StatusNotFound, got.status)
	assert.Equal(t, "req-7", got.requestID)
}

func TestRecordErrorAndAttributes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		ctx, span := provider.Tracer("test").Start(c.Request.Context(), "request")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	router.GET("/fail", func(c *gin.Context) {
		AddSpanAttribute(c, "route.from", "FLN")
		AddSpanAttribute(c, "limit", 5)
		AddSpanAttribute(c, "fresh", true)
		AddSpanAttribute(c, "score", 42.5)
		AddSpanAttribute(c, "tier", struct{ Name string }{"direct"})
		RecordError(c, errors.New("quotes unavailable"), "refresh failed")
		c.Status(http.StatusInternalServerError)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "refresh failed", ended[0].Status().Description)

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "FLN", attrs["route.from"].AsString())
	assert.Equal(t, int64(5), attrs["limit"].AsInt64())
	assert.True(t, attrs["fresh"].AsBool())
	assert.Equal(t, 42.5, attrs["score"].AsFloat64())
	assert.Equal(t, "{direct}", attrs["tier"].AsString())
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background())

	assert.NotPanics(t, func() {
		AddSpanAttribute(c, "key", "value")
		RecordError(c, errors.New("boom"), "boom")
	})
}
