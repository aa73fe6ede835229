package services

import (
	"time"

	"trailkeeper/internal/models"
	"trailkeeper/internal/tracking"
)

// AuditEntry is the decoded, API-facing view of an audit row.
type AuditEntry struct {
	ID              string          `json:"id"`
	TableName       string          `json:"table_name"`
	Action          string          `json:"action"`
	KeyValues       tracking.Values `json:"key_values"`
	OldValues       tracking.Values `json:"old_values,omitempty"`
	NewValues       tracking.Values `json:"new_values,omitempty"`
	AffectedColumns []string        `json:"affected_columns"`
	CreatedBy       string          `json:"created_by"`
	CreatedTime     time.Time       `json:"created_time"`
}

// DecodeAuditLog turns a stored audit row back into structured values.
func DecodeAuditLog(row models.AuditLog) (AuditEntry, error) {
	key, err := tracking.DecodeValues(&row.KeyValues)
	if err != nil {
		return AuditEntry{}, err
	}
	oldValues, err := tracking.DecodeValues(row.OldValues)
	if err != nil {
		return AuditEntry{}, err
	}
	newValues, err := tracking.DecodeValues(row.NewValues)
	if err != nil {
		return AuditEntry{}, err
	}
	columns, err := tracking.DecodeColumns(row.AffectedColumns)
	if err != nil {
		return AuditEntry{}, err
	}
	return AuditEntry{
		ID:              row.ID,
		TableName:       row.Table,
		Action:          row.Action,
		KeyValues:       key,
		OldValues:       oldValues,
		NewValues:       newValues,
		AffectedColumns: columns,
		CreatedBy:       row.CreatedBy,
		CreatedTime:     row.CreatedTime,
	}, nil
}

// DecodeAuditLogs decodes a list of audit rows, stopping at the first
// malformed one.
func DecodeAuditLogs(rows []models.AuditLog) ([]AuditEntry, error) {
	out := make([]AuditEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := DecodeAuditLog(row)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}
