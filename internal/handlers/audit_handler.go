package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "trailkeeper/internal/errors"
	"trailkeeper/internal/pagination"
	"trailkeeper/internal/services"
	"trailkeeper/internal/tracking"
)

// AuditHandler serves the operator-facing audit queries
type AuditHandler struct {
	auditService services.AuditServicer
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService services.AuditServicer) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// CustomEventRequest represents a free-form audit event
type CustomEventRequest struct {
	Table    string          `json:"table" binding:"required,entity_name"`
	Action   string          `json:"action" binding:"required,max=64"`
	EntityID string          `json:"entity_id" binding:"required,max=128"`
	Payload  tracking.Values `json:"payload"`
}

type entityPath struct {
	Table    string `uri:"table" binding:"required,entity_name"`
	EntityID string `uri:"id" binding:"required,max=128"`
}

// GetEntityLogs returns the latest audit rows of one entity
// @Summary     Entity audit trail
// @Description Latest audit entries for one entity, newest first. The table may be given as stored ("user_profiles") or as an entity name ("UserProfile").
// @Tags        audit
// @Produce     json
// @Security    OperatorKey
// @Param       table path  string true  "Table or entity name"
// @Param       id    path  string true  "Entity ID"
// @Param       limit query int    false "Maximum entries (default 10, max 100)"
// @Success     200 {object} pagination.ListResponse[services.AuditEntry] "Audit entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/audit/entities/{table}/{id} [get]
func (h *AuditHandler) GetEntityLogs(c *gin.Context) {
	var path entityPath
	if err := c.ShouldBindUri(&path); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	var req pagination.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	req.Defaults()

	rows, err := h.auditService.GetRecentEntityLogs(c.Request.Context(), path.Table, path.EntityID, req.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	entries, err := services.DecodeAuditLogs(rows)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	c.JSON(http.StatusOK, pagination.NewListResponse(entries, req.Limit))
}

// GetActorLogs returns the latest audit rows attributed to one actor
// @Summary     Actor activity
// @Description Latest audit entries created by one actor, newest first
// @Tags        audit
// @Produce     json
// @Security    OperatorKey
// @Param       actor path  string true  "Actor identity"
// @Param       limit query int    false "Maximum entries (default 10, max 100)"
// @Success     200 {object} pagination.ListResponse[services.AuditEntry] "Audit entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/audit/actors/{actor} [get]
func (h *AuditHandler) GetActorLogs(c *gin.Context) {
	actor := strings.TrimSpace(c.Param("actor"))
	var req pagination.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	req.Defaults()

	rows, err := h.auditService.GetActorActivityLogs(c.Request.Context(), actor, req.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	entries, err := services.DecodeAuditLogs(rows)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	c.JSON(http.StatusOK, pagination.NewListResponse(entries, req.Limit))
}

// RecordEvent appends a free-form audit event
// @Summary     Record audit event
// @Description Append a custom event to the audit trail on behalf of an operator. Actions other than CREATED, UPDATED, DELETED and CUSTOM are stored as CUSTOM with the name in the payload.
// @Tags        audit
// @Accept      json
// @Produce     json
// @Security    OperatorKey
// @Param       request body CustomEventRequest true "Event"
// @Success     201 {object} services.AuditEntry "Stored entry"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/audit/events [post]
func (h *AuditHandler) RecordEvent(c *gin.Context) {
	var req CustomEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	row, err := h.auditService.WriteEvent(c.Request.Context(), req.Table, req.Action, req.EntityID, req.Payload, OperatorActor)
	if err != nil {
		respondWithError(c, err)
		return
	}
	entry, err := services.DecodeAuditLog(*row)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	c.JSON(http.StatusCreated, entry)
}
