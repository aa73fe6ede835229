package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "trailkeeper/internal/errors"
	"trailkeeper/internal/models"
	"trailkeeper/internal/tracking"
)

func setupAuditRouter(handler *AuditHandler) *gin.Engine {
	r := gin.New()
	r.GET("/admin/audit/entities/:table/:id", handler.GetEntityLogs)
	r.GET("/admin/audit/actors/:actor", handler.GetActorLogs)
	r.POST("/admin/audit/events", handler.RecordEvent)
	return r
}

func strPtr(s string) *string { return &s }

func sampleAuditLog() models.AuditLog {
	row := models.AuditLog{
		Table:           "user_profiles",
		Action:          "UPDATED",
		KeyValues:       `{"id":"p-1"}`,
		OldValues:       strPtr(`{"phoneNumber":""}`),
		NewValues:       strPtr(`{"phoneNumber":"+60123456789"}`),
		AffectedColumns: strPtr(`["phoneNumber"]`),
	}
	row.ID = "a-1"
	row.CreatedBy = testUserID
	row.CreatedTime = time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	return row
}

func TestAuditHandler_GetEntityLogs(t *testing.T) {
	t.Run("returns decoded entries", func(t *testing.T) {
		var gotTable, gotID string
		var gotLimit int
		audit := &mockAuditService{
			entityLogsFn: func(table, entityID string, limit int) ([]models.AuditLog, error) {
				gotTable, gotID, gotLimit = table, entityID, limit
				return []models.AuditLog{sampleAuditLog()}, nil
			},
		}
		r := setupAuditRouter(NewAuditHandler(audit))

		rec := doRequest(r, "GET", "/admin/audit/entities/UserProfile/p-1", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotTable != "UserProfile" || gotID != "p-1" || gotLimit != 10 {
			t.Errorf("unexpected query (%s, %s, %d)", gotTable, gotID, gotLimit)
		}
		result := parseJSON(t, rec)
		if result["count"] != float64(1) {
			t.Fatalf("expected count 1, got %v", result["count"])
		}
		entry := result["data"].([]interface{})[0].(map[string]interface{})
		cols := entry["affected_columns"].([]interface{})
		if len(cols) != 1 || cols[0] != "phoneNumber" {
			t.Errorf("expected affected_columns [phoneNumber], got %v", cols)
		}
		newValues := entry["new_values"].(map[string]interface{})
		if newValues["phoneNumber"] != "+60123456789" {
			t.Errorf("expected decoded new value, got %v", newValues)
		}
		if entry["created_by"] != testUserID {
			t.Errorf("expected created_by %s, got %v", testUserID, entry["created_by"])
		}
	})

	t.Run("honours the limit", func(t *testing.T) {
		var gotLimit int
		audit := &mockAuditService{
			entityLogsFn: func(_, _ string, limit int) ([]models.AuditLog, error) {
				gotLimit = limit
				return nil, nil
			},
		}
		r := setupAuditRouter(NewAuditHandler(audit))

		rec := doRequest(r, "GET", "/admin/audit/entities/users/u-1?limit=3", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotLimit != 3 {
			t.Errorf("expected limit 3, got %d", gotLimit)
		}
		result := parseJSON(t, rec)
		if data, ok := result["data"].([]interface{}); !ok || len(data) != 0 {
			t.Errorf("expected empty data list, got %v", result["data"])
		}
	})

	t.Run("returns 400 on limit above maximum", func(t *testing.T) {
		r := setupAuditRouter(NewAuditHandler(&mockAuditService{}))

		rec := doRequest(r, "GET", "/admin/audit/entities/users/u-1?limit=500", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid table name", func(t *testing.T) {
		r := setupAuditRouter(NewAuditHandler(&mockAuditService{}))

		rec := doRequest(r, "GET", "/admin/audit/entities/1users/u-1", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 500 on malformed stored row", func(t *testing.T) {
		audit := &mockAuditService{
			entityLogsFn: func(_, _ string, _ int) ([]models.AuditLog, error) {
				row := sampleAuditLog()
				row.NewValues = strPtr("{broken")
				return []models.AuditLog{row}, nil
			},
		}
		r := setupAuditRouter(NewAuditHandler(audit))

		rec := doRequest(r, "GET", "/admin/audit/entities/users/u-1", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestAuditHandler_GetActorLogs(t *testing.T) {
	t.Run("queries by actor", func(t *testing.T) {
		var gotActor string
		audit := &mockAuditService{
			actorLogsFn: func(actorID string, _ int) ([]models.AuditLog, error) {
				gotActor = actorID
				return []models.AuditLog{sampleAuditLog()}, nil
			},
		}
		r := setupAuditRouter(NewAuditHandler(audit))

		rec := doRequest(r, "GET", "/admin/audit/actors/"+testUserID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotActor != testUserID {
			t.Errorf("expected actor %s, got %s", testUserID, gotActor)
		}
	})

	t.Run("propagates invalid input", func(t *testing.T) {
		audit := &mockAuditService{
			actorLogsFn: func(_ string, _ int) ([]models.AuditLog, error) {
				return nil, apperrors.ErrInvalidInput
			},
		}
		r := setupAuditRouter(NewAuditHandler(audit))

		rec := doRequest(r, "GET", "/admin/audit/actors/%20", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuditHandler_RecordEvent(t *testing.T) {
	t.Run("records event as operator", func(t *testing.T) {
		var gotActor, gotAction string
		var gotPayload tracking.Values
		audit := &mockAuditService{
			writeEventFn: func(table, action, subjectID string, payload tracking.Values, actor string) (*models.AuditLog, error) {
				gotActor, gotAction, gotPayload = actor, action, payload
				row := models.AuditLog{Table: table, Action: "CUSTOM", KeyValues: `{"id":"` + subjectID + `"}`}
				row.ID = "a-2"
				row.CreatedBy = actor
				return &row, nil
			},
		}
		r := setupAuditRouter(NewAuditHandler(audit))

		rec := doRequest(r, "POST", "/admin/audit/events",
			`{"table":"users","action":"PASSWORD_RESET","entity_id":"u-1","payload":{"attempts":3,"reason":"forgot"}}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotActor != OperatorActor || gotAction != "PASSWORD_RESET" {
			t.Errorf("unexpected actor/action %s/%s", gotActor, gotAction)
		}
		if n, ok := gotPayload["attempts"].AsInt(); !ok || n != 3 {
			t.Errorf("expected integer attempts payload, got %v", gotPayload["attempts"])
		}
		result := parseJSON(t, rec)
		if result["action"] != "CUSTOM" {
			t.Errorf("expected action CUSTOM, got %v", result["action"])
		}
	})

	t.Run("returns 400 on missing entity id", func(t *testing.T) {
		r := setupAuditRouter(NewAuditHandler(&mockAuditService{}))

		rec := doRequest(r, "POST", "/admin/audit/events", `{"table":"users","action":"NOTE"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 when targeting the audit table", func(t *testing.T) {
		audit := &mockAuditService{
			writeEventFn: func(_, _, _ string, _ tracking.Values, _ string) (*models.AuditLog, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "audit rows cannot be audited")
			},
		}
		r := setupAuditRouter(NewAuditHandler(audit))

		rec := doRequest(r, "POST", "/admin/audit/events", `{"table":"audit_log","action":"NOTE","entity_id":"x"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
