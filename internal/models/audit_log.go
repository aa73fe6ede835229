package models

// AuditTable is the table audit rows are appended to.
const AuditTable = "audit_log"

// AuditLog is one append-only audit row. Rows are stamped on insert like any
// other record but are never themselves audited, updated or deleted.
type AuditLog struct {
	Base
	Table           string  `gorm:"column:table_name;size:128;not null;index:idx_audit_log_entity,priority:1" json:"table_name"`
	Action          string  `gorm:"size:20;not null" json:"action"`
	KeyValues       string  `gorm:"type:text;not null;index:idx_audit_log_entity,priority:2" json:"key_values"`
	OldValues       *string `gorm:"type:text" json:"old_values,omitempty"`
	NewValues       *string `gorm:"type:text" json:"new_values,omitempty"`
	AffectedColumns *string `gorm:"type:text" json:"affected_columns,omitempty"`
}

func (AuditLog) TableName() string { return AuditTable }

// IsAuditRecord keeps audit rows out of change tracking.
func (AuditLog) IsAuditRecord() {}
