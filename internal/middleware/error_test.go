package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "trailkeeper/internal/errors"
	"trailkeeper/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/conflict", func(c *gin.Context) {
		_ = c.Error(apperrors.Wrap(apperrors.ErrConcurrencyConflict, errors.New("stale token")))
	})
	r.GET("/audit", func(c *gin.Context) {
		_ = c.Error(apperrors.Wrap(apperrors.ErrAuditPersistence, errors.New("disk full")))
	})
	r.GET("/invalid", func(c *gin.Context) {
		_ = c.Error(apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be positive"))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})
	r.GET("/written", func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNoContent)
		_ = c.Error(errors.New("after response"))
	})

	tests := []struct {
		path       string
		wantStatus int
		wantCode   string
		wantLevel  zapcore.Level
		wantLogs   int
	}{
		{"/conflict", http.StatusConflict, "CONCURRENCY_CONFLICT", zapcore.WarnLevel, 1},
		{"/audit", http.StatusInternalServerError, "AUDIT_PERSISTENCE_FAILURE", zapcore.ErrorLevel, 1},
		{"/invalid", http.StatusBadRequest, "INVALID_INPUT", zapcore.InfoLevel, 0},
		{"/boom", http.StatusInternalServerError, "INTERNAL_ERROR", zapcore.ErrorLevel, 1},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			defer logger.Replace(zap.New(core))()

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			errObj, _ := parseBody(t, rec)["error"].(map[string]interface{})
			if errObj["code"] != tt.wantCode {
				t.Errorf("code = %v, want %s", errObj["code"], tt.wantCode)
			}

			entries := logs.All()
			if len(entries) != tt.wantLogs {
				t.Fatalf("expected %d log entries, got %d", tt.wantLogs, len(entries))
			}
			if tt.wantLogs > 0 && entries[0].Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", entries[0].Level, tt.wantLevel)
			}
		})
	}

	t.Run("response_already_written", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/written", http.NoBody))
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("expected empty body, got %s", rec.Body.String())
		}
	})
}
