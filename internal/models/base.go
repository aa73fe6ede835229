package models

import (
	"trailkeeper/internal/tracking"
	"trailkeeper/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables: the id plus the
// ownership/version stamps maintained by the unit-of-work.
type Base struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`
	tracking.Stamps
}

// AssignID gives a new record its UUIDv7 before it is diffed, so the
// CREATED audit record can carry the key.
func (b *Base) AssignID() {
	if b.ID == "" {
		b.ID = uuid.New()
	}
}

// BeforeCreate hook generates a UUIDv7 for records created outside a unit-of-work
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	b.AssignID()
	return nil
}

// KeyFields returns the primary key of the record.
func (b *Base) KeyFields() []tracking.Field {
	return []tracking.Field{tracking.NewField("id", tracking.String(b.ID))}
}
