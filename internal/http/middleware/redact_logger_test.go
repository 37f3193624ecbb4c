package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func newRedactRouter(opts RedactOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RedactingLogger(opts))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRedactingLogger_MasksSensitiveHeaders(t *testing.T) {
	buf := captureLog(t)
	r := newRedactRouter(RedactOptions{MaskHeaders: []string{"X-Api-Key"}})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("Idempotency-Key", "retry-1")
	req.Header.Set("X-Api-Key", "key-123")
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, secret := range []string{"secret-token", "retry-1", "key-123"} {
		if strings.Contains(out, secret) {
			t.Errorf("log leaked %q: %s", secret, out)
		}
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("expected masked headers in log: %s", out)
	}
}

func TestRedactingLogger_ScrubsQueryPII(t *testing.T) {
	buf := captureLog(t)
	r := newRedactRouter(RedactOptions{})

	req := httptest.NewRequest(http.MethodGet,
		"/x?email=maya@example.com&id=4f2a9c1e-5b3d-4a2f-9c1e-0a1b2c3d4e5f&tel=%2B30%20210%201234%205678", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if strings.Contains(out, "maya@example.com") {
		t.Errorf("log leaked email: %s", out)
	}
	if strings.Contains(out, "4f2a9c1e-5b3d-4a2f-9c1e-0a1b2c3d4e5f") {
		t.Errorf("log leaked uuid: %s", out)
	}
	if !strings.Contains(out, "[REDACTED:email]") || !strings.Contains(out, "[REDACTED:id]") {
		t.Fatalf("expected redaction markers: %s", out)
	}
}

func TestRedactingLogger_SeverityFollowsStatus(t *testing.T) {
	buf := captureLog(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Fatalf("404 should log at warn: %s", buf.String())
	}

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/broken", nil))
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("500 should log at error: %s", buf.String())
	}
}
