package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	r := gin.New()
	r.Use(StructuredLoggingMiddleware(logger))
	r.GET("/groups/:groupID", func(c *gin.Context) {
		GetLoggerFromCtx(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestStructuredLoggingMiddleware_ReusesRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRouter(&buf)

	req, _ := http.NewRequest(http.MethodGet, "/groups/g-1", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"msg":"inside handler"`)
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"route":"/groups/:groupID"`)
}

func TestStructuredLoggingMiddleware_GeneratesRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRouter(&buf)

	req, _ := http.NewRequest(http.MethodGet, "/nowhere", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"route":"unmatched"`)
}
