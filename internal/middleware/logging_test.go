package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"trailkeeper/internal/requestmeta"
)

func TestRequestLogging(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/origin", func(c *gin.Context) {
		o := requestmeta.FromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"ip": o.IPAddress, "client": o.ClientLabel})
	})

	t.Run("origin_on_request_context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/origin", http.NoBody)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		req.Header.Set("User-Agent", "curl/8.5.0")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		body := parseBody(t, rec)
		if body["ip"] != "203.0.113.9" {
			t.Errorf("expected forwarded ip, got %v", body["ip"])
		}
		if body["client"] != "curl/8.5.0" {
			t.Errorf("expected client label, got %v", body["client"])
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
	})

	t.Run("keeps_incoming_request_id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/origin", http.NoBody)
		req.Header.Set("X-Request-ID", "req-123")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
			t.Errorf("expected req-123, got %q", got)
		}
	})
}
